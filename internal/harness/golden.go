package harness

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders a result as stable text, one line per case:
//
//	name [dialect] ok: select a from t
//	name [dialect] structural_error S101
//
// Failing cases are marked FAIL. Error messages are left out so that
// rewording a message does not churn golden files.
func Snapshot(r *Result) string {
	var b strings.Builder
	b.WriteString("corpus: " + r.Corpus + "\n")
	for _, c := range r.Cases {
		b.WriteString(c.Name + " [" + c.Dialect + "] " + c.Outcome)
		switch {
		case c.SQL != "":
			b.WriteString(": " + c.SQL)
		case c.ErrorCode != "":
			b.WriteString(" " + c.ErrorCode)
		}
		if !c.Pass {
			b.WriteString(" FAIL")
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// RunWithGolden runs c and compares its snapshot against
// testdata/golden/{c.Name}.golden.
//
// Returns error if the corpus cannot be run.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, c *Corpus) (*Result, error) {
	t.Helper()

	result, err := Run(c)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, c.Name, result)
	return result, nil
}

// AssertGolden compares the snapshot of result against a golden file
// without re-running the corpus.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(Snapshot(result)))
}
