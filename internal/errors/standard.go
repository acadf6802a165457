// Package errors provides standardized error messaging for stackir
package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"

	"github.com/orizon-lang/stackir/internal/position"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategorySemantic   ErrorCategory = "SEMANTIC"
	CategoryValidation ErrorCategory = "VALIDATION"
	CategoryRuntime    ErrorCategory = "RUNTIME"
	CategorySystem     ErrorCategory = "SYSTEM"
)

// Error codes of the lowering taxonomy.
const (
	CodeDuplicateDeclaration = "DUPLICATE_DECLARATION"
	CodeUnboundVariable      = "UNBOUND_VARIABLE"
	CodeBreakOutsideLoop     = "BREAK_OUTSIDE_LOOP"
	CodeContinueOutsideLoop  = "CONTINUE_OUTSIDE_LOOP"

	CodeInvalidDocument   = "INVALID_DOCUMENT"
	CodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	CodeInvalidIR         = "INVALID_IR"
)

// Sentinels for errors.Is. A *StandardError matches the sentinel of its code.
var (
	ErrDuplicateDeclaration = stderrors.New("duplicate declaration")
	ErrUnboundVariable      = stderrors.New("unbound variable")
	ErrBreakOutsideLoop     = stderrors.New("break outside loop")
	ErrContinueOutsideLoop  = stderrors.New("continue outside loop")
)

var sentinels = map[string]error{
	CodeDuplicateDeclaration: ErrDuplicateDeclaration,
	CodeUnboundVariable:      ErrUnboundVariable,
	CodeBreakOutsideLoop:     ErrBreakOutsideLoop,
	CodeContinueOutsideLoop:  ErrContinueOutsideLoop,
}

// StandardError provides a consistent error format
type StandardError struct {
	Category ErrorCategory
	Code     string
	Message  string
	Context  map[string]interface{}
	Span     position.Span
	Caller   string
}

// Error implements the error interface
func (e *StandardError) Error() string {
	if e.Span.Start.IsValid() {
		return fmt.Sprintf("[%s:%s] %s: %s", e.Category, e.Code, e.Span, e.Message)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Is lets errors.Is match taxonomy sentinels.
func (e *StandardError) Is(target error) bool {
	s, ok := sentinels[e.Code]
	return ok && s == target
}

// Name returns the "name" context entry, if any.
func (e *StandardError) Name() string {
	if n, ok := e.Context["name"].(string); ok {
		return n
	}
	return ""
}

// NewStandardError creates a new standardized error
func NewStandardError(category ErrorCategory, code, message string, context map[string]interface{}) *StandardError {
	pc, _, _, ok := runtime.Caller(1)
	caller := "unknown"
	if ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			caller = fn.Name()
		}
	}

	return &StandardError{
		Category: category,
		Code:     code,
		Message:  message,
		Context:  context,
		Caller:   caller,
	}
}

// At attaches a source span and returns the receiver.
func (e *StandardError) At(span position.Span) *StandardError {
	e.Span = span
	return e
}

// As extracts a *StandardError from an error chain.
func As(err error) (*StandardError, bool) {
	var se *StandardError
	if stderrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// Lowering errors

func DuplicateDeclaration(name string, span position.Span) *StandardError {
	return NewStandardError(CategorySemantic, CodeDuplicateDeclaration,
		fmt.Sprintf("variable `%s` redeclared in the same scope", name),
		map[string]interface{}{"name": name}).At(span)
}

func UnboundVariable(name string, span position.Span) *StandardError {
	return NewStandardError(CategorySemantic, CodeUnboundVariable,
		fmt.Sprintf("variable `%s` not declared in any enclosing scope", name),
		map[string]interface{}{"name": name}).At(span)
}

func BreakOutsideLoop(span position.Span) *StandardError {
	return NewStandardError(CategorySemantic, CodeBreakOutsideLoop,
		"break statement not within a loop", nil).At(span)
}

func ContinueOutsideLoop(span position.Span) *StandardError {
	return NewStandardError(CategorySemantic, CodeContinueOutsideLoop,
		"continue statement not within a loop", nil).At(span)
}

// Validation and runtime errors

func InvalidDocument(details string, span position.Span) *StandardError {
	return NewStandardError(CategoryValidation, CodeInvalidDocument, details,
		map[string]interface{}{"details": details}).At(span)
}

func UnsupportedFormat(version, constraint string) *StandardError {
	return NewStandardError(CategoryValidation, CodeUnsupportedFormat,
		fmt.Sprintf("document format %s does not satisfy %s", version, constraint),
		map[string]interface{}{"version": version, "constraint": constraint})
}

func InvalidIR(function string, index int, details string) *StandardError {
	return NewStandardError(CategoryValidation, CodeInvalidIR,
		fmt.Sprintf("%s: instruction %d: %s", function, index, details),
		map[string]interface{}{"function": function, "index": index})
}

func Runtime(code, message string, pc int) *StandardError {
	return NewStandardError(CategoryRuntime, code, message,
		map[string]interface{}{"pc": pc})
}
