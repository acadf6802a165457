package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/orizon-lang/stackir/internal/position"
)

func TestSentinelMatching(t *testing.T) {
	span := position.At(position.Position{Line: 2, Column: 5})
	tests := []struct {
		err      error
		sentinel error
		code     string
	}{
		{DuplicateDeclaration("x", span), ErrDuplicateDeclaration, CodeDuplicateDeclaration},
		{UnboundVariable("y", span), ErrUnboundVariable, CodeUnboundVariable},
		{BreakOutsideLoop(span), ErrBreakOutsideLoop, CodeBreakOutsideLoop},
		{ContinueOutsideLoop(span), ErrContinueOutsideLoop, CodeContinueOutsideLoop},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			wrapped := fmt.Errorf("function main: %w", tt.err)
			if !stderrors.Is(wrapped, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", wrapped, tt.sentinel)
			}
			se, ok := As(wrapped)
			if !ok {
				t.Fatal("As did not find StandardError")
			}
			if se.Code != tt.code {
				t.Errorf("Code = %s, want %s", se.Code, tt.code)
			}
			if se.Category != CategorySemantic {
				t.Errorf("Category = %s, want SEMANTIC", se.Category)
			}
		})
	}

	if stderrors.Is(UnboundVariable("a", span), ErrDuplicateDeclaration) {
		t.Error("unbound variable must not match duplicate declaration")
	}
}

func TestErrorMessage(t *testing.T) {
	err := UnboundVariable("count", position.At(position.Position{Line: 4, Column: 9}))
	msg := err.Error()
	for _, want := range []string{"SEMANTIC", "UNBOUND_VARIABLE", "4:9", "`count`"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
	if err.Name() != "count" {
		t.Errorf("Name() = %q", err.Name())
	}

	noSpan := BreakOutsideLoop(position.Span{})
	if strings.Contains(noSpan.Error(), "-:") {
		t.Errorf("span-less error should not render a position: %q", noSpan.Error())
	}
	if noSpan.Name() != "" {
		t.Errorf("Name() = %q, want empty", noSpan.Name())
	}
}

func TestCallerRecorded(t *testing.T) {
	err := NewStandardError(CategorySystem, "IO", "read failed", nil)
	if !strings.Contains(err.Caller, "TestCallerRecorded") {
		t.Errorf("Caller = %q", err.Caller)
	}
}
