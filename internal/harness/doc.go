// Package harness runs conformance corpora against the frontend.
//
// # Corpus Format
//
// A corpus is a YAML file listing queries and what each must produce:
//
//	name: basics
//	description: "Clause order and cross-dialect equivalence"
//	charset: unified            # optional
//	cases:
//	  - name: sql_filter
//	    dialect: sql
//	    query: "select a from t where a > 1"
//	    expect:
//	      sql: "select a from t where a > 1"
//	  - name: stream_filter
//	    dialect: stream
//	    query: "from t where a > 1 select a"
//	    expect:
//	      same_as: sql_filter
//	  - name: bad_group
//	    dialect: sql
//	    query: "select * from t group by max(a)"
//	    expect:
//	      error_kind: structural_error
//	      error_code: S101
//
// Each case names exactly one expectation: the canonical SQL rendering
// (sql), AST equality with an earlier case (same_as), or an error
// (error_kind, with an optional error_code for structural errors and offset
// for syntax errors).
//
// # Golden Files
//
// RunWithGolden renders every case and compares the text with
// testdata/golden/{corpus}.golden. To regenerate golden files, run:
//
//	go test ./internal/harness -update
package harness
