package launcher

import "github.com/Shopify/go-lua"

// EntryModule names the module every launch delegates to.
const EntryModule = "main"

// Entry describes the module to run and how to find it.
type Entry struct {
	Name     string
	Resolver Resolver
}

// DefaultEntry resolves the main module through the interpreter's searchers.
func DefaultEntry() Entry {
	return Entry{Name: EntryModule, Resolver: SearcherResolver{}}
}

// Dispatch resolves the entry module and calls its loader with the script
// arguments, inside a single protected call. The module's result is recorded
// in package.loaded like require does; it does not affect the outcome.
func Dispatch(rt *Runtime, entry Entry, args Args) Outcome {
	if entry.Name == "" {
		entry.Name = EntryModule
	}
	if entry.Resolver == nil {
		entry.Resolver = SearcherResolver{}
	}

	l := rt.state
	l.PushGoFunction(func(l *lua.State) int {
		argCount := l.Top()
		entry.Resolver.Resolve(l, entry.Name)
		l.Insert(1)
		l.Call(argCount, 1)
		markLoaded(l, entry.Name)
		return 0
	})
	script := args.Script()
	for _, s := range script {
		l.PushString(s)
	}
	return protectedCall(l, len(script))
}

// markLoaded stores the value on top of the stack as package.loaded[name],
// or true when the module returned nothing and did not set it itself.
func markLoaded(l *lua.State, name string) {
	l.Global("package")
	l.Field(-1, "loaded")
	if !l.IsTable(-1) {
		lua.Errorf(l, "'package.loaded' must be a table")
	}
	if !l.IsNil(-3) {
		l.PushValue(-3)
		l.SetField(-2, name)
	} else {
		l.Field(-1, name)
		missing := l.IsNil(-1)
		l.Pop(1)
		if missing {
			l.PushBoolean(true)
			l.SetField(-2, name)
		}
	}
	l.Pop(2)
}
