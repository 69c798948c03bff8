package config

import (
	"strings"
	"testing"
)

type envTestConfig struct {
	MaxArgs int    `env:"LUASTART_TEST_MAX_ARGS" envDefault:"123"`
	Path    string `env:"LUASTART_TEST_PATH"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.MaxArgs != 123 {
		t.Fatalf("expected default max args 123, got %d", cfg.MaxArgs)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("LUASTART_TEST_MAX_ARGS", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}
