package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// runMain re-executes the test binary so that main can call os.Exit.
func runMain(t *testing.T, src string, args ...string) (string, int) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "main.lua"), []byte(src), 0o644); err != nil {
		t.Fatalf("write main.lua: %v", err)
	}

	cmd := exec.Command(os.Args[0], append([]string{"-test.run=^TestMainSubprocess$", "--"}, args...)...)
	cmd.Env = append(os.Environ(),
		"TEST_MAIN_SUBPROCESS=1",
		"LUASTART_PATH="+dir,
		"LUASTART_OTEL_ENABLED=false",
	)
	out, err := cmd.CombinedOutput()
	if err == nil {
		return string(out), 0
	}
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		t.Fatalf("expected *exec.ExitError, got %T: %v", err, err)
	}
	return string(out), exitErr.ExitCode()
}

func TestMainSubprocess(t *testing.T) {
	if os.Getenv("TEST_MAIN_SUBPROCESS") != "1" {
		t.Skip("subprocess only")
	}
	args := []string{os.Args[0]}
	for i, a := range os.Args {
		if a == "--" {
			args = append(args, os.Args[i+1:]...)
			break
		}
	}
	os.Args = args
	main()
}

func TestMainExitsZeroOnSuccess(t *testing.T) {
	out, code := runMain(t, `local a = ...; assert(a == "x")`, "x")
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, out)
	}
	if strings.Contains(out, "Error:") {
		t.Fatalf("expected no diagnostic, got %q", out)
	}
}

func TestMainReportsRaisedError(t *testing.T) {
	out, code := runMain(t, `error("boom", 0)`)
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(out, "Error: boom\n") {
		t.Fatalf("expected diagnostic, got %q", out)
	}
}
