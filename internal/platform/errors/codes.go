// Package errors provides structured launcher errors with machine-readable codes.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Runtime errors
	CodeRuntimeUnavailable Code = "RUNTIME_UNAVAILABLE"

	// Argument errors
	CodeMissingProgramPath Code = "MISSING_PROGRAM_PATH"
	CodeTooManyArguments   Code = "TOO_MANY_ARGUMENTS"

	// Lifecycle errors
	CodeLauncherReused Code = "LAUNCHER_REUSED"
)
