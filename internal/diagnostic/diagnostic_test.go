package diagnostic

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/orizon-lang/stackir/internal/errors"
	"github.com/orizon-lang/stackir/internal/position"
	"github.com/orizon-lang/stackir/internal/resolver"
)

func span(file string, line, col int) position.Span {
	return position.At(position.Position{Filename: file, Line: line, Column: col})
}

func TestFromErrorLoweringTaxonomy(t *testing.T) {
	err := fmt.Errorf("function main: %w", errors.UnboundVariable("y", span("a.json", 3, 9)))
	d := FromError(err)

	if d.Level != DiagnosticError || d.Category != DiagnosticSemantic {
		t.Errorf("level/category = %v/%v", d.Level, d.Category)
	}
	if d.Code != errors.CodeUnboundVariable {
		t.Errorf("Code = %q", d.Code)
	}
	if d.Title != "Unbound variable" {
		t.Errorf("Title = %q", d.Title)
	}
	if !strings.Contains(d.Message, "`y`") {
		t.Errorf("Message = %q", d.Message)
	}
	if len(d.Suggestions) != 1 {
		t.Errorf("expected one suggestion, got %d", len(d.Suggestions))
	}

	out := Format(d, false)
	if !strings.HasPrefix(out, "a.json:3:9: error[UNBOUND_VARIABLE]: Unbound variable\n") {
		t.Errorf("unexpected rendering:\n%s", out)
	}
	if !strings.Contains(out, "help: Declare:") {
		t.Errorf("missing help line:\n%s", out)
	}
}

func TestFromErrorPlainError(t *testing.T) {
	d := FromError(fmt.Errorf("open x.json: no such file"))
	if d.Category != DiagnosticSystem || d.Code != "SYSTEM" {
		t.Errorf("got %v %q", d.Category, d.Code)
	}
	if out := Format(d, false); !strings.HasPrefix(out, "error[SYSTEM]: Error\n") {
		t.Errorf("unexpected rendering:\n%s", out)
	}
}

func TestFromErrorDerivedTitle(t *testing.T) {
	d := FromError(errors.Runtime("DIVISION_BY_ZERO", "division by zero", 4))
	if d.Title != "Division by zero" {
		t.Errorf("Title = %q", d.Title)
	}
	if d.Category != DiagnosticRuntime {
		t.Errorf("Category = %v", d.Category)
	}
}

func TestColorRendering(t *testing.T) {
	d := FromError(errors.BreakOutsideLoop(span("", 1, 1)))
	plain := Format(d, false)
	colored := Format(d, true)
	if strings.Contains(plain, "\033[") {
		t.Error("plain rendering contains escape codes")
	}
	if !strings.Contains(colored, ansiRed) || !strings.Contains(colored, ansiReset) {
		t.Errorf("colored rendering lacks escape codes: %q", colored)
	}
}

func TestFromWarning(t *testing.T) {
	d := FromWarning(resolver.Warning{
		Message: "variable `x` declared but never used",
		Symbol:  "x",
		Span:    span("w.json", 2, 5),
		Kind:    resolver.WarningKindUnusedSymbol,
	})
	if d.Level != DiagnosticWarning || d.Code != "W0001" {
		t.Errorf("got %v %q", d.Level, d.Code)
	}
	if len(d.Tags) != 1 || d.Tags[0] != "unused" {
		t.Errorf("Tags = %v", d.Tags)
	}
}

func TestEngine(t *testing.T) {
	de := NewDiagnosticEngine(DiagnosticConfig{ShowSuggestions: false})
	de.AddDiagnostic(FromError(errors.UnboundVariable("b", span("f.json", 9, 1))))
	de.AddDiagnostic(FromWarning(resolver.Warning{Message: "shadow", Span: span("f.json", 2, 1), Kind: resolver.WarningKindShadowedSymbol}))

	if !de.HasErrors() {
		t.Fatal("HasErrors = false")
	}
	if n := len(de.GetWarnings()); n != 1 {
		t.Errorf("warnings = %d", n)
	}

	out := de.FormatDiagnostics()
	lines := strings.Split(out, "\n")
	if !strings.HasPrefix(lines[0], "f.json:2:1: warning[W0002]") {
		t.Errorf("diagnostics not sorted by position:\n%s", out)
	}
	if !strings.HasSuffix(out, "Found 1 error(s), 1 warning(s).\n") {
		t.Errorf("missing summary:\n%s", out)
	}
	if strings.Contains(out, "help:") {
		t.Error("suggestions shown although disabled")
	}

	de.Clear()
	if de.FormatDiagnostics() != "" {
		t.Error("cleared engine should render nothing")
	}
}

func TestEngineConfig(t *testing.T) {
	de := NewDiagnosticEngine(DiagnosticConfig{WarningsAsErrors: true, IgnoreCodes: []string{"W0002"}, MaxErrors: 2})
	de.AddDiagnostic(FromWarning(resolver.Warning{Kind: resolver.WarningKindShadowedSymbol}))
	de.AddDiagnostic(FromWarning(resolver.Warning{Kind: resolver.WarningKindUnusedSymbol}))
	if n := len(de.GetErrors()); n != 1 {
		t.Fatalf("errors = %d, want 1 (warning promoted, shadow ignored)", n)
	}
	de.AddDiagnostic(FromError(errors.BreakOutsideLoop(position.Span{})))
	de.AddDiagnostic(FromError(errors.BreakOutsideLoop(position.Span{})))
	if n := len(de.GetErrors()); n != 2 {
		t.Errorf("errors = %d, want MaxErrors 2", n)
	}
}

func TestMarshalJSON(t *testing.T) {
	d := FromError(errors.DuplicateDeclaration("x", span("p.json", 4, 3)))
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got map[string]interface{}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got["code"] != errors.CodeDuplicateDeclaration || got["level"] != "error" {
		t.Errorf("got %v", got)
	}
	if got["line"] != float64(4) || got["column"] != float64(3) || got["file"] != "p.json" {
		t.Errorf("position fields wrong: %v", got)
	}
}
