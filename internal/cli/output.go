package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/streamql/internal/compiler"
	"github.com/roach88/streamql/internal/peg"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // A query failed to compile, a corpus case failed, replay found a mismatch
	ExitCommandError = 2 // Command error (bad flags, unreadable file, database not found, etc.)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format  string
	Writer  io.Writer
	Verbose bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // S1xx, or the outcome for errors without a code
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // the typed error, when it has a JSON form
}

// Success outputs data. Text output prints data with fmt.Println, so
// callers pass a string or a fmt.Stringer for text.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %+v\n", details)
	}
	return nil
}

// Result outputs data with status "error" when failed is set. The text
// form is written by text.
func (f *OutputFormatter) Result(data any, failed bool, code, message string, text func(io.Writer)) error {
	if f.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: data}
		if failed {
			resp.Status = "error"
			resp.Error = &CLIError{Code: code, Message: message}
		}
		return f.encode(resp)
	}
	text(f.Writer)
	return nil
}

func (f *OutputFormatter) encode(resp CLIResponse) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// CompileError reports a failed compile and returns the ExitError for it.
// The code is the S1xx code of a structural error, else the outcome.
func (f *OutputFormatter) CompileError(err error) error {
	code := compiler.ErrorCode(err)
	if code == "" {
		code = compiler.Outcome(err)
	}
	_ = f.Error(code, err.Error(), errorDetails(err))
	return WrapExitError(ExitFailure, "compile failed", err)
}

// errorDetails returns the typed parse error inside err, or nil.
func errorDetails(err error) any {
	var (
		syn *peg.SyntaxError
		st  *peg.StructuralError
		lim *peg.LimitError
	)
	switch {
	case errors.As(err, &syn):
		return syn
	case errors.As(err, &st):
		return st
	case errors.As(err, &lim):
		return lim
	}
	return nil
}
