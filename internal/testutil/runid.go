package testutil

import "fmt"

// SequentialRunIDs hands out run-00000001, run-00000002, ... so that stored
// runs compare byte for byte across test executions.
//
// Not safe for concurrent use.
type SequentialRunIDs struct {
	n int
}

// Generate returns the next identifier.
func (g *SequentialRunIDs) Generate() string {
	g.n++
	return fmt.Sprintf("run-%08d", g.n)
}
