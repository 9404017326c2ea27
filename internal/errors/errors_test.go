package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	err := Load("no valid records found")
	if !strings.Contains(err.Error(), "LOAD_ERROR") {
		t.Errorf("Error() = %q, should contain the code", err.Error())
	}

	cause := fmt.Errorf("disk full")
	wrapped := RenderWrap(cause, "write chart")
	if !strings.Contains(wrapped.Error(), "disk full") {
		t.Errorf("Error() = %q, should contain the cause", wrapped.Error())
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := LoadWrap(cause, "parse batch")

	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should reach the cause through Unwrap")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain error", fmt.Errorf("boom"), 1},
		{"internal", Internal("x"), 1},
		{"config", Config("x"), 2},
		{"load", Load("x"), 3},
		{"analyze", Analyze("x"), 4},
		{"render", RenderWrap(fmt.Errorf("boom"), "x"), 5},
		{"relabel", RelabelWrap(fmt.Errorf("boom"), "x"), 6},
		{"wrapped app error", fmt.Errorf("outer: %w", Load("x")), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
