package launcher

import (
	"bytes"
	"testing"
)

func TestExitSuccess(t *testing.T) {
	var buf bytes.Buffer
	if code := Exit(&buf, Success()); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestExitFailure(t *testing.T) {
	var buf bytes.Buffer
	if code := Exit(&buf, Failure("boom")); code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if buf.String() != "Error: boom\n" {
		t.Fatalf("expected %q, got %q", "Error: boom\n", buf.String())
	}
}

func TestExitFailureNilWriter(t *testing.T) {
	if code := Exit(nil, Failure("boom")); code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
}

func TestOutcomeString(t *testing.T) {
	if Success().String() != "success" {
		t.Fatalf("unexpected %q", Success().String())
	}
	if Failure("x").String() != "failure: x" {
		t.Fatalf("unexpected %q", Failure("x").String())
	}
}
