package launcher

import (
	"slices"

	apperrors "github.com/louisbranch/luastart/internal/platform/errors"
)

// GlobalArgs names the global table holding the argument vector.
const GlobalArgs = "arg"

// Args is a captured argument vector. Index 0 is the program path.
type Args struct {
	vector []string
}

// CaptureArgs copies argv. An empty vector has no program path and is rejected.
func CaptureArgs(argv []string) (Args, error) {
	if len(argv) == 0 {
		return Args{}, apperrors.New(apperrors.CodeMissingProgramPath, "missing program path")
	}
	return Args{vector: slices.Clone(argv)}, nil
}

// Program returns the invocation path.
func (a Args) Program() string {
	if len(a.vector) == 0 {
		return ""
	}
	return a.vector[0]
}

// Vector returns a copy of the whole argument vector.
func (a Args) Vector() []string {
	return slices.Clone(a.vector)
}

// Script returns the arguments after the program path.
func (a Args) Script() []string {
	if len(a.vector) < 2 {
		return []string{}
	}
	return slices.Clone(a.vector[1:])
}

// Len is the number of entries in the vector, program path included.
func (a Args) Len() int {
	return len(a.vector)
}

// Publish stores the vector in the global arg table, arg[0] being the
// program path, and reserves interpreter stack space to pass the script
// arguments to the entry module. A positive limit caps the number of script
// arguments below what the interpreter would accept.
func Publish(rt *Runtime, args Args, limit int) error {
	l := rt.state
	l.CreateTable(args.Len(), 2)
	for i, s := range args.vector {
		l.PushString(s)
		l.RawSetInt(-2, i)
	}
	l.SetGlobal(GlobalArgs)

	n := max(args.Len()-1, 0)
	if limit > 0 && n > limit {
		return apperrors.New(apperrors.CodeTooManyArguments, "too many arguments")
	}
	// One extra slot holds the entry function below its arguments.
	if !l.CheckStack(n + 1) {
		return apperrors.New(apperrors.CodeTooManyArguments, "too many arguments")
	}
	return nil
}
