package engine

import "fmt"

// RecordError is a failure to write a run or parse to the store. The batch
// stops at the first one.
type RecordError struct {
	RunID string
	Seq   int64
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record run %s seq %d: %v", e.RunID, e.Seq, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
