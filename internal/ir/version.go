package ir

// Version constants recorded alongside stored parses.
const (
	// IRVersion is the AST encoding version. Bump it when Encode changes.
	IRVersion = "1"

	// FrontendVersion is the streamql frontend version.
	FrontendVersion = "0.1.0"
)
