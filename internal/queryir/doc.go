// Package queryir lowers the common AST into the logical plan consumed by
// the operator-graph builder.
//
// A Plan is an ordered chain of operators. Each operator reads the rows the
// previous one produces, so the chain always follows one canonical shape:
//
//	Scan → Join* → Filter? → Aggregate? → Project → Distinct? → Sort? → Limit?
//
// Derived tables and subqueries become nested plans. Nothing is optimized:
// the plan states what the query asks for, in the order the operators must
// be applied.
//
// SEALED INTERFACES:
//
// Operator is sealed using the marker method pattern, so backends can use
// exhaustive type switches:
//
//	switch op := op.(type) {
//	case Scan:
//	case Join:
//	case Filter:
//	...
//	}
//
// STREAMING COMPATIBILITY:
//
// Check reports constructs that are valid queries but need care when the
// source is an unbounded stream, or whose meaning is not settled. Warnings
// never reject a query; they inform whoever deploys it.
package queryir
