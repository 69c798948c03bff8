package launcher

import (
	"io"

	"github.com/louisbranch/luastart/internal/platform/config"
)

// Process exit codes.
const (
	ExitSuccess = 0
	ExitFailure = 1
)

// Exit maps an outcome to a process exit code. A failure writes
// "Error: <message>" to w; success writes nothing.
func Exit(w io.Writer, o Outcome) int {
	if !o.Failed() {
		return ExitSuccess
	}
	config.Fprintf(w, "Error: %s", o.Message())
	return ExitFailure
}
