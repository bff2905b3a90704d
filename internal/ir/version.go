package ir

// Version constants for the emitted instruction format and the compiler.
const (
	// Version is the emitted IR format version. Bump when Format output changes.
	Version = "1"

	// CompilerVersion is the eventc compiler version.
	CompilerVersion = "0.1.0"
)
