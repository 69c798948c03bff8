// Package main starts an embedded Lua runtime and runs the main module.
package main

import (
	"context"
	"os"

	"github.com/louisbranch/luastart/internal/platform/config"

	luastartcmd "github.com/louisbranch/luastart/internal/cmd/luastart"
)

func main() {
	cfg, err := luastartcmd.ParseConfig()
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	// The interpreter cannot be interrupted mid-call, so signals keep their
	// default disposition.
	code, err := luastartcmd.Run(context.Background(), cfg, os.Args, os.Stderr)
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	os.Exit(code)
}
