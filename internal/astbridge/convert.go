// Package astbridge reads and writes the JSON document form of the AST, the
// format in which an upstream parser hands a program to the lowering tools.
//
// A document looks like
//
//	{"version": "1.0.0",
//	 "program": {"function": {"name": "main", "body": [
//	   {"kind": "decl", "name": "a", "init": {"kind": "int", "value": 1}},
//	   {"kind": "return", "expr": {"kind": "var", "name": "a"}}]}}}
//
// Every node may carry "pos": {"line": L, "column": C}.
package astbridge

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Masterminds/semver/v3"

	"github.com/orizon-lang/stackir/internal/ast"
	"github.com/orizon-lang/stackir/internal/errors"
	"github.com/orizon-lang/stackir/internal/position"
)

const (
	// FormatVersion is the document version written by Encode.
	FormatVersion = "1.0.0"
	// SupportedFormats is the constraint a document version must satisfy.
	SupportedFormats = ">= 1.0.0, < 2.0.0"
)

var supported = semver.MustParse("1.0.0")

type documentJSON struct {
	Version string       `json:"version,omitempty"`
	Program *programJSON `json:"program"`
}

type programJSON struct {
	Pos      *posJSON      `json:"pos,omitempty"`
	Function *functionJSON `json:"function"`
}

type functionJSON struct {
	Pos  *posJSON    `json:"pos,omitempty"`
	Name string      `json:"name"`
	Body []*nodeJSON `json:"body"`
}

type posJSON struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// nodeJSON is the tagged union of all statement and expression nodes. Which
// fields are meaningful depends on Kind.
type nodeJSON struct {
	Kind       string      `json:"kind"`
	Pos        *posJSON    `json:"pos,omitempty"`
	Name       string      `json:"name,omitempty"`
	Value      json.Number `json:"value,omitempty"`
	Op         string      `json:"op,omitempty"`
	Operand    *nodeJSON   `json:"operand,omitempty"`
	Left       *nodeJSON   `json:"left,omitempty"`
	Right      *nodeJSON   `json:"right,omitempty"`
	Expr       *nodeJSON   `json:"expr,omitempty"`
	Init       *nodeJSON   `json:"init,omitempty"`
	Cond       *nodeJSON   `json:"cond,omitempty"`
	Then       *nodeJSON   `json:"then,omitempty"`
	Else       *nodeJSON   `json:"else,omitempty"`
	Update     *nodeJSON   `json:"update,omitempty"`
	Body       *nodeJSON   `json:"body,omitempty"`
	Statements []*nodeJSON `json:"statements,omitempty"`
}

// Node kinds.
const (
	KindEmpty    = "empty"
	KindReturn   = "return"
	KindDecl     = "decl"
	KindExpr     = "expr"
	KindIf       = "if"
	KindBlock    = "block"
	KindDoWhile  = "do_while"
	KindFor      = "for"
	KindBreak    = "break"
	KindContinue = "continue"

	KindInt     = "int"
	KindUnary   = "unary"
	KindBinary  = "binary"
	KindVar     = "var"
	KindAssign  = "assign"
	KindTernary = "ternary"
)

// converter carries the document name into every span it builds.
type converter struct {
	filename string
}

func (c *converter) span(p *posJSON) position.Span {
	if p == nil {
		return position.Span{}
	}
	return position.At(position.Position{Filename: c.filename, Line: p.Line, Column: p.Column})
}

func (c *converter) errorf(p *posJSON, format string, args ...interface{}) error {
	return errors.InvalidDocument(fmt.Sprintf(format, args...), c.span(p))
}

// CheckVersion reports whether version satisfies SupportedFormats. An empty
// version is treated as 1.0.0.
func CheckVersion(version string) error {
	v := supported
	if version != "" {
		parsed, err := semver.NewVersion(version)
		if err != nil {
			return errors.InvalidDocument(fmt.Sprintf("invalid document version %q: %v", version, err), position.Span{})
		}
		v = parsed
	}
	c, err := semver.NewConstraint(SupportedFormats)
	if err != nil {
		return err
	}
	if !c.Check(v) {
		return errors.UnsupportedFormat(v.String(), SupportedFormats)
	}
	return nil
}

// Decode parses a document. filename is attached to every span and may be
// empty.
func Decode(data []byte, filename string) (*ast.Program, error) {
	var doc documentJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.InvalidDocument(fmt.Sprintf("malformed JSON: %v", err),
			position.At(position.Position{Filename: filename}))
	}
	if err := CheckVersion(doc.Version); err != nil {
		return nil, err
	}

	c := &converter{filename: filename}
	if doc.Program == nil {
		return nil, c.errorf(nil, "document has no program")
	}
	return c.fromProgram(doc.Program)
}

// DecodeFile reads and decodes the document at path.
func DecodeFile(path string) (*ast.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Decode(data, path)
}

// Encode renders p as a document at FormatVersion.
func Encode(p *ast.Program) ([]byte, error) {
	if p == nil || p.Function == nil {
		return nil, fmt.Errorf("cannot encode a program without a function")
	}
	fn, err := toFunction(p.Function)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(documentJSON{
		Version: FormatVersion,
		Program: &programJSON{Pos: toPos(p.Span), Function: fn},
	}, "", "  ")
}

func (c *converter) fromProgram(p *programJSON) (*ast.Program, error) {
	if p.Function == nil {
		return nil, c.errorf(p.Pos, "program has no function")
	}
	f := p.Function
	if f.Name == "" {
		return nil, c.errorf(f.Pos, "function has no name")
	}

	body, err := c.fromStatements(f.Body)
	if err != nil {
		return nil, err
	}
	return &ast.Program{
		Span: c.span(p.Pos),
		Function: &ast.Function{
			Span: c.span(f.Pos),
			Name: f.Name,
			Body: body,
		},
	}, nil
}

func toFunction(f *ast.Function) (*functionJSON, error) {
	body, err := toStatements(f.Body)
	if err != nil {
		return nil, err
	}
	if body == nil {
		body = []*nodeJSON{}
	}
	return &functionJSON{Pos: toPos(f.Span), Name: f.Name, Body: body}, nil
}

func toPos(s position.Span) *posJSON {
	if !s.Start.IsValid() {
		return nil
	}
	return &posJSON{Line: s.Start.Line, Column: s.Start.Column}
}
