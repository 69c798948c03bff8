package launcher

import (
	"bytes"
	"fmt"
	"io/fs"
	"strings"

	"github.com/Shopify/go-lua"
)

// A Resolver locates a module and pushes its loader onto the stack. It runs
// in protected mode and reports failure by raising a Lua error.
type Resolver interface {
	Resolve(l *lua.State, name string)
}

// SearcherResolver resolves modules through package.searchers, the same
// chain require uses: the preload table first, then package.path.
type SearcherResolver struct{}

// Resolve implements Resolver.
func (SearcherResolver) Resolve(l *lua.State, name string) {
	l.Global("package")
	if !l.IsTable(-1) {
		lua.Errorf(l, "'package' must be a table")
	}
	l.Field(-1, "searchers")
	if !l.IsTable(-1) {
		lua.Errorf(l, "'package.searchers' must be a table")
	}
	searchers := l.AbsIndex(-1)

	var misses strings.Builder
	for i := 1; ; i++ {
		l.RawGetInt(searchers, i)
		if l.IsNil(-1) {
			lua.Errorf(l, "module '%s' not found:%s", name, misses.String())
		}
		l.PushString(name)
		l.Call(1, 2)
		if l.IsFunction(-2) {
			l.Pop(1)
			// Leave only the loader where the package table was.
			l.Replace(searchers - 1)
			l.Pop(1)
			return
		}
		if l.IsString(-2) {
			s, _ := l.ToString(-2)
			misses.WriteString(missText(s, name))
		}
		l.Pop(2)
	}
}

// missText normalizes a searcher's miss report. Some searchers report the
// bare template list they tried instead of "\n\tno file" lines.
func missText(s, name string) string {
	if s == "" || strings.HasPrefix(s, "\n\t") {
		return s
	}
	file := strings.ReplaceAll(name, ".", "/")
	var b strings.Builder
	for _, template := range strings.Split(s, ";") {
		if template == "" {
			continue
		}
		fmt.Fprintf(&b, "\n\tno file '%s'", strings.ReplaceAll(template, "?", file))
	}
	return b.String()
}

// FSResolver resolves a module to a Lua chunk read from a file system, such
// as an embed.FS. Path defaults to "<name>.lua".
type FSResolver struct {
	FS   fs.FS
	Path string
}

// Resolve implements Resolver.
func (r FSResolver) Resolve(l *lua.State, name string) {
	path := r.Path
	if path == "" {
		path = name + ".lua"
	}
	if r.FS == nil {
		lua.Errorf(l, "module '%s' not found: no file system", name)
	}
	data, err := fs.ReadFile(r.FS, path)
	if err != nil {
		lua.Errorf(l, "module '%s' not found: %s", name, err.Error())
	}
	if err := l.Load(bytes.NewReader(data), "@"+path, ""); err != nil {
		l.Error()
	}
}
