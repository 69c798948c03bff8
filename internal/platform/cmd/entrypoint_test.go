package cmd

import (
	"context"
	"errors"
	"testing"
)

type testConfig struct {
	Path    string `env:"CMD_TEST_PATH" envDefault:"/usr/share/lua"`
	Verbose bool   `env:"CMD_TEST_VERBOSE"`
}

func TestParseConfigReadsEnv(t *testing.T) {
	t.Setenv("CMD_TEST_VERBOSE", "true")

	cfg := testConfig{}
	if err := ParseConfig(&cfg); err != nil {
		t.Fatalf("load config defaults: %v", err)
	}
	if cfg.Path != "/usr/share/lua" {
		t.Fatalf("expected default path, got %q", cfg.Path)
	}
	if !cfg.Verbose {
		t.Fatal("expected verbose from env")
	}
}

func TestParseConfigRejectsNilTarget(t *testing.T) {
	if err := ParseConfig[testConfig](nil); err == nil {
		t.Fatal("expected parse config to reject nil target")
	}
}

func TestRunWithTelemetryRunsFunction(t *testing.T) {
	t.Setenv("LUASTART_OTEL_ENDPOINT", "")

	called := false
	err := RunWithTelemetryAndOptions(context.Background(), ServiceLuastart, RunOptions{}, func(context.Context) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !called {
		t.Fatal("expected run function to be called")
	}
}

func TestRunWithTelemetryReturnsRunError(t *testing.T) {
	t.Setenv("LUASTART_OTEL_ENDPOINT", "")

	want := errors.New("too many arguments")
	err := RunWithTelemetryAndOptions(context.Background(), ServiceLuastart, RunOptions{}, func(context.Context) error {
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("expected run error, got %v", err)
	}
}

func TestRunWithTelemetryRejectsMissingInputs(t *testing.T) {
	if err := RunWithTelemetryAndOptions(context.Background(), "", RunOptions{}, func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected missing service error")
	}
	if err := RunWithTelemetryAndOptions(context.Background(), ServiceLuastart, RunOptions{}, nil); err == nil {
		t.Fatal("expected missing run function error")
	}
}
