package store

import "github.com/roach88/streamql/internal/config"

// Run is one batch of parses compiled with the same settings.
type Run struct {
	ID              string
	Seq             int64
	FrontendVersion string
	IRVersion       string
	Config          config.Config
}

// Parse is one recorded compile request and its result.
type Parse struct {
	RunID   string
	Seq     int64
	ID      string // ir.ParseID of (Dialect, Charset, Text)
	Dialect string
	Charset string
	Text    string

	Outcome     string
	ErrorCode   string // S1xx for structural errors
	Error       string
	Fingerprint string // empty unless Outcome is "ok"
	AST         string // canonical JSON, empty unless Outcome is "ok"
}
