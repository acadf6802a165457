// Diagnostic reporting for stackir.
// Converts lowering errors and resolver warnings into rendered messages.

package diagnostic

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/orizon-lang/stackir/internal/errors"
	"github.com/orizon-lang/stackir/internal/position"
	"github.com/orizon-lang/stackir/internal/resolver"
)

// DiagnosticLevel represents the severity level of a diagnostic message.
type DiagnosticLevel int

const (
	DiagnosticError DiagnosticLevel = iota
	DiagnosticWarning
	DiagnosticInfo
)

func (dl DiagnosticLevel) String() string {
	switch dl {
	case DiagnosticError:
		return "error"
	case DiagnosticWarning:
		return "warning"
	case DiagnosticInfo:
		return "info"
	default:
		return "unknown"
	}
}

// DiagnosticCategory represents the category of diagnostic.
type DiagnosticCategory int

const (
	DiagnosticSemantic DiagnosticCategory = iota
	DiagnosticValidation
	DiagnosticRuntime
	DiagnosticSystem
	DiagnosticStyle
)

func (dc DiagnosticCategory) String() string {
	switch dc {
	case DiagnosticSemantic:
		return "semantic"
	case DiagnosticValidation:
		return "validation"
	case DiagnosticRuntime:
		return "runtime"
	case DiagnosticSystem:
		return "system"
	case DiagnosticStyle:
		return "style"
	default:
		return "unknown"
	}
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	Code        string
	Title       string
	Message     string
	Suggestions []Suggestion
	Tags        []string
	Span        position.Span
	Level       DiagnosticLevel
	Category    DiagnosticCategory
}

// Suggestion represents a suggested fix for a diagnostic.
type Suggestion struct {
	Title       string
	Description string
}

// DiagnosticBuilder helps construct diagnostic messages with fluent API.
type DiagnosticBuilder struct {
	diagnostic *Diagnostic
}

// NewDiagnostic creates a new diagnostic builder.
func NewDiagnostic() *DiagnosticBuilder {
	return &DiagnosticBuilder{diagnostic: &Diagnostic{}}
}

func (db *DiagnosticBuilder) Error() *DiagnosticBuilder {
	db.diagnostic.Level = DiagnosticError

	return db
}

func (db *DiagnosticBuilder) Warning() *DiagnosticBuilder {
	db.diagnostic.Level = DiagnosticWarning

	return db
}

func (db *DiagnosticBuilder) Category(c DiagnosticCategory) *DiagnosticBuilder {
	db.diagnostic.Category = c

	return db
}

func (db *DiagnosticBuilder) Code(code string) *DiagnosticBuilder {
	db.diagnostic.Code = code

	return db
}

func (db *DiagnosticBuilder) Title(title string) *DiagnosticBuilder {
	db.diagnostic.Title = title

	return db
}

func (db *DiagnosticBuilder) Message(message string) *DiagnosticBuilder {
	db.diagnostic.Message = message

	return db
}

func (db *DiagnosticBuilder) Span(span position.Span) *DiagnosticBuilder {
	db.diagnostic.Span = span

	return db
}

func (db *DiagnosticBuilder) Suggest(title, description string) *DiagnosticBuilder {
	db.diagnostic.Suggestions = append(db.diagnostic.Suggestions, Suggestion{
		Title:       title,
		Description: description,
	})

	return db
}

func (db *DiagnosticBuilder) Tag(tag string) *DiagnosticBuilder {
	db.diagnostic.Tags = append(db.diagnostic.Tags, tag)

	return db
}

func (db *DiagnosticBuilder) Build() *Diagnostic {
	return db.diagnostic
}

var titles = map[string]string{
	errors.CodeDuplicateDeclaration: "Duplicate declaration",
	errors.CodeUnboundVariable:      "Unbound variable",
	errors.CodeBreakOutsideLoop:     "Break outside loop",
	errors.CodeContinueOutsideLoop:  "Continue outside loop",
}

var suggestions = map[string]Suggestion{
	errors.CodeDuplicateDeclaration: {"Rename", "Give the second variable a different name or move it into a nested block"},
	errors.CodeUnboundVariable:      {"Declare", "Declare the variable in this block or an enclosing one before using it"},
	errors.CodeBreakOutsideLoop:     {"Remove", "break is only valid inside do-while and for bodies"},
	errors.CodeContinueOutsideLoop:  {"Remove", "continue is only valid inside do-while and for bodies"},
}

// FromError converts err into an error diagnostic. Errors outside the
// standard taxonomy become SYSTEM diagnostics carrying the error text.
func FromError(err error) *Diagnostic {
	se, ok := errors.As(err)
	if !ok {
		return NewDiagnostic().
			Error().
			Category(DiagnosticSystem).
			Code("SYSTEM").
			Title("Error").
			Message(err.Error()).
			Build()
	}

	title, ok := titles[se.Code]
	if !ok {
		title = strings.ReplaceAll(strings.ToLower(se.Code), "_", " ")
		if title != "" {
			title = strings.ToUpper(title[:1]) + title[1:]
		}
	}

	b := NewDiagnostic().
		Error().
		Category(categoryOf(se.Category)).
		Code(se.Code).
		Title(title).
		Message(se.Message).
		Span(se.Span)
	if s, ok := suggestions[se.Code]; ok {
		b.Suggest(s.Title, s.Description)
	}

	return b.Build()
}

// FromWarning converts a resolver warning into a style diagnostic.
func FromWarning(w resolver.Warning) *Diagnostic {
	b := NewDiagnostic().
		Warning().
		Category(DiagnosticStyle).
		Span(w.Span).
		Message(w.Message).
		Tag(w.Kind.String())

	switch w.Kind {
	case resolver.WarningKindUnusedSymbol:
		b.Code("W0001").Title("Unused variable").
			Suggest("Remove variable", "Remove the unused variable declaration")
	case resolver.WarningKindShadowedSymbol:
		b.Code("W0002").Title("Shadowed variable")
	default:
		b.Code("W0000").Title("Warning")
	}

	return b.Build()
}

func categoryOf(c errors.ErrorCategory) DiagnosticCategory {
	switch c {
	case errors.CategorySemantic:
		return DiagnosticSemantic
	case errors.CategoryValidation:
		return DiagnosticValidation
	case errors.CategoryRuntime:
		return DiagnosticRuntime
	default:
		return DiagnosticSystem
	}
}

// jsonDiagnostic is the wire form used by the lowering service.
type jsonDiagnostic struct {
	Level      string `json:"level"`
	Category   string `json:"category"`
	Code       string `json:"code"`
	Title      string `json:"title"`
	Message    string `json:"message"`
	File       string `json:"file,omitempty"`
	Line       int    `json:"line,omitempty"`
	Column     int    `json:"column,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// MarshalJSON renders the diagnostic with a flat position.
func (d Diagnostic) MarshalJSON() ([]byte, error) {
	out := jsonDiagnostic{
		Level:    d.Level.String(),
		Category: d.Category.String(),
		Code:     d.Code,
		Title:    d.Title,
		Message:  d.Message,
	}
	if d.Span.Start.IsValid() {
		out.File = d.Span.Start.Filename
		out.Line = d.Span.Start.Line
		out.Column = d.Span.Start.Column
	}
	if len(d.Suggestions) > 0 {
		out.Suggestion = d.Suggestions[0].Description
	}

	return json.Marshal(out)
}

// DiagnosticEngine manages the collection and processing of diagnostics.
type DiagnosticEngine struct {
	diagnostics []Diagnostic
	config      DiagnosticConfig
}

// DiagnosticConfig controls diagnostic behavior.
type DiagnosticConfig struct {
	IgnoreCodes      []string
	MaxErrors        int
	WarningsAsErrors bool
	ShowSuggestions  bool
	Color            bool
}

// NewDiagnosticEngine creates a new diagnostic engine.
func NewDiagnosticEngine(config DiagnosticConfig) *DiagnosticEngine {
	return &DiagnosticEngine{
		diagnostics: make([]Diagnostic, 0),
		config:      config,
	}
}

// AddDiagnostic adds a diagnostic to the engine.
func (de *DiagnosticEngine) AddDiagnostic(diagnostic *Diagnostic) {
	for _, code := range de.config.IgnoreCodes {
		if diagnostic.Code == code {
			return
		}
	}

	if de.config.MaxErrors > 0 && len(de.GetErrors()) >= de.config.MaxErrors {
		return
	}

	if de.config.WarningsAsErrors && diagnostic.Level == DiagnosticWarning {
		diagnostic.Level = DiagnosticError
	}

	de.diagnostics = append(de.diagnostics, *diagnostic)
}

// GetDiagnostics returns all diagnostics.
func (de *DiagnosticEngine) GetDiagnostics() []Diagnostic {
	return de.diagnostics
}

// GetErrors returns only error diagnostics.
func (de *DiagnosticEngine) GetErrors() []Diagnostic {
	return de.filter(DiagnosticError)
}

// GetWarnings returns only warning diagnostics.
func (de *DiagnosticEngine) GetWarnings() []Diagnostic {
	return de.filter(DiagnosticWarning)
}

func (de *DiagnosticEngine) filter(level DiagnosticLevel) []Diagnostic {
	var out []Diagnostic

	for _, d := range de.diagnostics {
		if d.Level == level {
			out = append(out, d)
		}
	}

	return out
}

// HasErrors returns true if there are any error diagnostics.
func (de *DiagnosticEngine) HasErrors() bool {
	return len(de.GetErrors()) > 0
}

// Clear removes all diagnostics.
func (de *DiagnosticEngine) Clear() {
	de.diagnostics = de.diagnostics[:0]
}

// SortDiagnostics sorts diagnostics by file, line and column.
func (de *DiagnosticEngine) SortDiagnostics() {
	sort.SliceStable(de.diagnostics, func(i, j int) bool {
		return de.diagnostics[i].Span.Start.Before(de.diagnostics[j].Span.Start)
	})
}

const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
)

// FormatDiagnostics returns a formatted string representation of all diagnostics.
func (de *DiagnosticEngine) FormatDiagnostics() string {
	if len(de.diagnostics) == 0 {
		return ""
	}

	de.SortDiagnostics()

	var result strings.Builder

	for i := range de.diagnostics {
		result.WriteString(de.formatSingleDiagnostic(&de.diagnostics[i]))
	}

	result.WriteString(de.formatSummary())

	return result.String()
}

// Format renders one diagnostic without a summary line.
func Format(d *Diagnostic, color bool) string {
	return NewDiagnosticEngine(DiagnosticConfig{ShowSuggestions: true, Color: color}).formatSingleDiagnostic(d)
}

func (de *DiagnosticEngine) paint(code, s string) string {
	if !de.config.Color {
		return s
	}

	return code + s + ansiReset
}

func (de *DiagnosticEngine) formatSingleDiagnostic(diag *Diagnostic) string {
	var result strings.Builder

	level := diag.Level.String()
	switch diag.Level {
	case DiagnosticError:
		level = de.paint(ansiBold+ansiRed, level)
	case DiagnosticWarning:
		level = de.paint(ansiBold+ansiYellow, level)
	}

	if diag.Span.Start.IsValid() {
		result.WriteString(de.paint(ansiBold, diag.Span.Start.String()+": "))
	}
	result.WriteString(fmt.Sprintf("%s[%s]: %s\n", level, diag.Code, diag.Title))

	if diag.Message != "" {
		result.WriteString(fmt.Sprintf("  %s\n", diag.Message))
	}

	if de.config.ShowSuggestions {
		for _, s := range diag.Suggestions {
			result.WriteString(fmt.Sprintf("  %s %s: %s\n", de.paint(ansiCyan, "help:"), s.Title, s.Description))
		}
	}

	return result.String()
}

func (de *DiagnosticEngine) formatSummary() string {
	errorCount := len(de.GetErrors())
	warningCount := len(de.GetWarnings())

	if errorCount == 0 && warningCount == 0 {
		return ""
	}

	var parts []string
	if errorCount > 0 {
		parts = append(parts, fmt.Sprintf("%d error(s)", errorCount))
	}

	if warningCount > 0 {
		parts = append(parts, fmt.Sprintf("%d warning(s)", warningCount))
	}

	return fmt.Sprintf("Found %s.\n", strings.Join(parts, ", "))
}
