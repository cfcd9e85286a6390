package harness

import (
	"errors"

	"github.com/roach88/streamql/internal/compiler"
	"github.com/roach88/streamql/internal/engine"
	"github.com/roach88/streamql/internal/ir"
	"github.com/roach88/streamql/internal/peg"
	"github.com/roach88/streamql/internal/querysql"
)

// checkCase compares one compiled case with its expectation. Every case
// that compiles must also survive a round trip: rendering it and compiling
// the text as SQL yields the same fingerprint.
func checkCase(tc Case, got engine.Result, earlier map[string]engine.Result) CaseResult {
	cr := CaseResult{
		Name:    tc.Name,
		Dialect: tc.Dialect,
		Outcome: got.Outcome(),
		Pass:    true,
	}
	if got.Err != nil {
		cr.Error = got.Err.Error()
		cr.ErrorCode = compiler.ErrorCode(got.Err)
	} else {
		cr.Fingerprint = got.Fingerprint
		sql, err := querysql.Render(got.Query)
		if err != nil {
			cr.fail("render: %v", err)
		} else {
			cr.SQL = sql
			assertRoundTrip(&cr, got)
		}
	}

	want := tc.Expect
	switch {
	case want.ErrorKind != "":
		assertError(&cr, want, got.Err)
	case got.Err != nil:
		cr.fail("expected success, got %s: %v", cr.Outcome, got.Err)
	case want.SQL != "":
		if cr.SQL != want.SQL {
			cr.fail("sql: expected %q, got %q", want.SQL, cr.SQL)
		}
	case want.SameAs != "":
		other, ok := earlier[want.SameAs]
		switch {
		case !ok:
			cr.fail("same_as: unknown case %q", want.SameAs)
		case other.Err != nil:
			cr.fail("same_as: case %q failed to compile", want.SameAs)
		case other.Fingerprint != got.Fingerprint:
			cr.fail("same_as: AST differs from case %q", want.SameAs)
		}
	}
	return cr
}

func assertRoundTrip(cr *CaseResult, got engine.Result) {
	q, err := compiler.Compile(compiler.SQL, cr.SQL)
	if err != nil {
		cr.fail("round trip: %q does not compile: %v", cr.SQL, err)
		return
	}
	fp, err := ir.Fingerprint(q)
	if err != nil {
		cr.fail("round trip: %v", err)
		return
	}
	if fp != got.Fingerprint {
		cr.fail("round trip: %q compiles to a different AST", cr.SQL)
	}
}

func assertError(cr *CaseResult, want Expect, err error) {
	if err == nil {
		cr.fail("expected %s, compiled successfully", want.ErrorKind)
		return
	}
	if cr.Outcome != want.ErrorKind {
		cr.fail("expected %s, got %s: %v", want.ErrorKind, cr.Outcome, err)
		return
	}
	if want.ErrorCode != "" && cr.ErrorCode != want.ErrorCode {
		cr.fail("error_code: expected %s, got %s", want.ErrorCode, cr.ErrorCode)
	}
	if want.Offset != nil {
		var syn *peg.SyntaxError
		if !errors.As(err, &syn) {
			return
		}
		off := syn.Pos.Offset
		if syn.Outer != nil {
			off = syn.Outer.Offset
		}
		if off != *want.Offset {
			cr.fail("offset: expected %d, got %d", *want.Offset, off)
		}
	}
}
