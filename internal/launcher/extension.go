package launcher

import (
	"github.com/Shopify/go-lua"

	"github.com/louisbranch/luastart/internal/lpeg"
)

// ExtensionName is the module name the native pattern library is installed under.
const ExtensionName = "lpeg"

// Extension pairs a native module opener with the name it is installed under.
type Extension struct {
	Name string
	Open lua.Function
}

// DefaultExtension returns the lpeg registration record.
func DefaultExtension() Extension {
	return Extension{Name: ExtensionName, Open: lpeg.Open}
}

// Register installs ext in package.loaded so that require(ext.Name)
// resolves. An error raised by the opener is returned as a failed outcome.
func Register(rt *Runtime, ext Extension) Outcome {
	if ext.Name == "" {
		return Failure("extension name is required")
	}
	if ext.Open == nil {
		return Failure("extension " + ext.Name + " has no opener")
	}
	l := rt.state
	l.PushGoFunction(func(l *lua.State) int {
		lua.Require(l, ext.Name, ext.Open, false)
		return 0
	})
	return protectedCall(l, 0)
}
