// Package ir defines the common query AST produced by every dialect.
//
// All dialect packages import ir; ir imports nothing internal. A Query is
// built once per parse, is immutable afterwards and holds no references
// into the source text.
//
// Key constraints:
//   - Clause order is canonical: scan, filter, group, projection, order, limit.
//   - Arithmetic and boolean chains are folded left to right at equal
//     precedence; the tree shape carries any grouping from parentheses.
//   - Null checks are their own node, never a comparison against a value.
//   - No float types: decimals use shopspring/decimal and encode as strings.
package ir
