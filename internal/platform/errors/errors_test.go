package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	if got := New(CodeTooManyArguments, "too many arguments").Error(); got != "too many arguments" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("publish: %w", New(CodeTooManyArguments, "too many arguments"))
	if !stderrors.Is(err, New(CodeTooManyArguments, "")) {
		t.Fatal("expected code match through wrapping")
	}
	if stderrors.Is(err, New(CodeMissingProgramPath, "")) {
		t.Fatal("expected different codes not to match")
	}
}

func TestGetCode(t *testing.T) {
	err := fmt.Errorf("launch: %w", New(CodeMissingProgramPath, "missing program path"))
	if got := GetCode(err); got != CodeMissingProgramPath {
		t.Fatalf("expected %s, got %s", CodeMissingProgramPath, got)
	}
	if got := GetCode(stderrors.New("plain")); got != CodeUnknown {
		t.Fatalf("expected %s, got %s", CodeUnknown, got)
	}
}
