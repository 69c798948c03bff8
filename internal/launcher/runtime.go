package launcher

import (
	"fmt"
	"path/filepath"

	"github.com/Shopify/go-lua"

	apperrors "github.com/louisbranch/luastart/internal/platform/errors"
)

// Runtime owns one Lua interpreter state for the lifetime of a launch.
type Runtime struct {
	state *lua.State
}

// NewRuntime creates an interpreter and opens the standard libraries.
func NewRuntime() (*Runtime, error) {
	return newRuntime(lua.NewState)
}

func newRuntime(newState func() *lua.State) (*Runtime, error) {
	l := newState()
	if l == nil {
		return nil, apperrors.New(apperrors.CodeRuntimeUnavailable, "cannot create state: not enough memory")
	}
	lua.OpenLibraries(l)
	return &Runtime{state: l}, nil
}

// State exposes the interpreter state.
func (r *Runtime) State() *lua.State {
	return r.state
}

// PrependPath puts dir/?.lua and dir/?/init.lua in front of package.path.
func (r *Runtime) PrependPath(dir string) error {
	l := r.state
	l.Global("package")
	defer l.Pop(1)
	if !l.IsTable(-1) {
		return fmt.Errorf("prepend path: package library is not loaded")
	}
	l.Field(-1, "path")
	current, _ := l.ToString(-1)
	l.Pop(1)

	path := filepath.Join(dir, "?.lua") + ";" + filepath.Join(dir, "?", "init.lua")
	if current != "" {
		path += ";" + current
	}
	l.PushString(path)
	l.SetField(-2, "path")
	return nil
}

// protectedCall calls the function sitting below argCount arguments and
// turns a raised error into a failed outcome. The stack is restored either way.
func protectedCall(l *lua.State, argCount int) Outcome {
	fn := l.Top() - argCount
	l.PushGoFunction(messageHandler)
	l.Insert(fn)
	defer l.SetTop(fn - 1)
	if err := l.ProtectedCall(argCount, 0, fn); err != nil {
		if s, ok := l.ToString(-1); ok && l.Top() > fn {
			return Failure(s)
		}
		return Failure(err.Error())
	}
	return Success()
}

// messageHandler replaces the raised value with its text while the error is
// still being thrown.
func messageHandler(l *lua.State) int {
	l.PushString(errorText(l, 1))
	return 1
}

// errorText renders an error value the way the stand-alone interpreter does.
func errorText(l *lua.State, index int) string {
	index = l.AbsIndex(index)
	switch l.TypeOf(index) {
	case lua.TypeString, lua.TypeNumber:
		s, _ := l.ToString(index)
		return s
	}
	if lua.MetaField(l, index, "__tostring") {
		l.PushValue(index)
		if err := l.ProtectedCall(1, 1, 0); err == nil && l.TypeOf(-1) == lua.TypeString {
			s, _ := l.ToString(-1)
			return s
		}
	}
	return fmt.Sprintf("(error object is a %s value)", lua.TypeNameOf(l, index))
}
