package luastart

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/louisbranch/luastart/internal/launcher"
	platformcmd "github.com/louisbranch/luastart/internal/platform/cmd"
)

// Config holds launcher command configuration.
type Config struct {
	Path    string `env:"LUASTART_PATH"`
	Entry   string `env:"LUASTART_ENTRY"`
	MaxArgs int    `env:"LUASTART_MAX_ARGS" envDefault:"0"`
	Verbose bool   `env:"LUASTART_VERBOSE"`
}

// ParseConfig reads the command configuration from the environment.
func ParseConfig() (Config, error) {
	var cfg Config
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.MaxArgs < 0 {
		return fmt.Errorf("LUASTART_MAX_ARGS must not be negative, got %d", c.MaxArgs)
	}
	return nil
}

// Run launches the entry module with argv and returns the process exit code.
// Lua errors are reported on errOut and mapped to a non-zero code; the
// returned error is for conditions that stopped the launch before the entry
// module ran.
func Run(ctx context.Context, cfg Config, argv []string, errOut io.Writer) (int, error) {
	if errOut == nil {
		errOut = io.Discard
	}
	if err := cfg.validate(); err != nil {
		return launcher.ExitFailure, err
	}

	logger := log.New(errOut, "", 0)
	code := launcher.ExitFailure
	err := platformcmd.RunWithTelemetryAndOptions(ctx, platformcmd.ServiceLuastart, platformcmd.RunOptions{Logger: logger}, func(ctx context.Context) error {
		ln := launcher.New(launcher.Config{
			Entry:   cfg.entry(),
			Path:    cfg.Path,
			MaxArgs: cfg.MaxArgs,
			Verbose: cfg.Verbose,
			Logger:  logger,
		})
		outcome, err := ln.Run(ctx, argv)
		if err != nil {
			return err
		}
		code = ln.Exit(errOut, outcome)
		return nil
	})
	if err != nil {
		return launcher.ExitFailure, err
	}
	return code, nil
}

// entry runs the file named by Entry as the main module, or searches for
// main when unset.
func (c Config) entry() launcher.Entry {
	if c.Entry == "" {
		return launcher.DefaultEntry()
	}
	return launcher.Entry{
		Name: launcher.EntryModule,
		Resolver: launcher.FSResolver{
			FS:   os.DirFS(filepath.Dir(c.Entry)),
			Path: filepath.Base(c.Entry),
		},
	}
}
