package harness

import "fmt"

// Result is the outcome of running a corpus.
type Result struct {
	// Corpus is the corpus name.
	Corpus string `json:"corpus"`

	// Pass is true when every case met its expectation.
	Pass bool `json:"pass"`

	// Cases holds one entry per case, in corpus order.
	Cases []CaseResult `json:"cases"`
}

// CaseResult is the outcome of one case.
type CaseResult struct {
	Name    string `json:"name"`
	Dialect string `json:"dialect"`
	Outcome string `json:"outcome"`

	// ErrorCode and Error are set when the query failed to compile.
	ErrorCode string `json:"error_code,omitempty"`
	Error     string `json:"error,omitempty"`

	// SQL and Fingerprint are set when the query compiled.
	SQL         string `json:"sql,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`

	Pass     bool     `json:"pass"`
	Failures []string `json:"failures,omitempty"`
}

// Failed returns the cases that did not pass.
func (r *Result) Failed() []CaseResult {
	var out []CaseResult
	for _, c := range r.Cases {
		if !c.Pass {
			out = append(out, c)
		}
	}
	return out
}

func (c *CaseResult) fail(format string, args ...any) {
	c.Pass = false
	c.Failures = append(c.Failures, fmt.Sprintf(format, args...))
}
