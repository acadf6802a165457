package astbridge

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/orizon-lang/stackir/internal/ast"
	"github.com/orizon-lang/stackir/internal/errors"
)

const sumDoc = `{
  "version": "1.0.0",
  "program": {"function": {"name": "main", "body": [
    {"kind": "decl", "name": "a", "init": {"kind": "int", "value": 1}, "pos": {"line": 1, "column": 3}},
    {"kind": "decl", "name": "b", "init": {"kind": "int", "value": 2}},
    {"kind": "return", "expr": {"kind": "binary", "op": "+",
      "left": {"kind": "var", "name": "a"},
      "right": {"kind": "var", "name": "b", "pos": {"line": 3, "column": 14}}}}
  ]}}
}`

func TestDecodeSum(t *testing.T) {
	p, err := Decode([]byte(sumDoc), "sum.json")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if p.Function.Name != "main" || len(p.Function.Body) != 3 {
		t.Fatalf("unexpected function %+v", p.Function)
	}

	want := "int main() {\n    int a = 1;\n    int b = 2;\n    return (a + b);\n}"
	if got := p.String(); got != want {
		t.Errorf("String() =\n%s\nwant\n%s", got, want)
	}

	decl := p.Function.Body[0].(*ast.DeclarationStatement)
	if got := decl.Span.String(); got != "sum.json:1:3" {
		t.Errorf("decl span = %q", got)
	}
	ret := p.Function.Body[2].(*ast.ReturnStatement)
	right := ret.Value.(*ast.BinaryExpression).Right
	if got := right.GetSpan().Start.Line; got != 3 {
		t.Errorf("right operand line = %d", got)
	}
}

func TestDecodeAllKinds(t *testing.T) {
	doc := `{"program": {"function": {"name": "f", "body": [
	  {"kind": "empty"},
	  {"kind": "decl", "name": "i"},
	  {"kind": "expr", "expr": {"kind": "assign", "name": "i", "expr": {"kind": "unary", "op": "neg", "operand": {"kind": "int", "value": -5}}}},
	  {"kind": "if", "cond": {"kind": "var", "name": "i"}, "then": {"kind": "block", "statements": []}, "else": {"kind": "empty"}},
	  {"kind": "do_while", "body": {"kind": "break"}, "cond": {"kind": "int", "value": 0}},
	  {"kind": "for", "init": {"kind": "decl", "name": "j", "init": {"kind": "int", "value": 0}},
	   "cond": {"kind": "binary", "op": "lt", "left": {"kind": "var", "name": "j"}, "right": {"kind": "int", "value": 3}},
	   "update": {"kind": "assign", "name": "j", "expr": {"kind": "binary", "op": "+", "left": {"kind": "var", "name": "j"}, "right": {"kind": "int", "value": 1}}},
	   "body": {"kind": "continue"}},
	  {"kind": "return", "expr": {"kind": "ternary", "cond": {"kind": "int", "value": 1}, "then": {"kind": "int", "value": 2}, "else": {"kind": "int", "value": 3}}}
	]}}}`

	p, err := Decode([]byte(doc), "")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	kinds := []string{}
	for _, s := range p.Function.Body {
		kinds = append(kinds, typeName(s))
	}
	want := "EmptyStatement DeclarationStatement ExpressionStatement IfStatement DoWhileStatement ForStatement ReturnStatement"
	if got := strings.Join(kinds, " "); got != want {
		t.Errorf("kinds = %s", got)
	}

	f := p.Function.Body[5].(*ast.ForStatement)
	if f.Init == nil || f.Cond == nil || f.Update == nil {
		t.Error("for clauses missing")
	}
	neg := p.Function.Body[2].(*ast.ExpressionStatement).Expr.(*ast.AssignExpression).Value.(*ast.UnaryExpression)
	if neg.Op != ast.OpNeg || neg.Operand.(*ast.IntegerLiteral).Value != -5 {
		t.Errorf("unexpected unary %s", neg)
	}
}

func typeName(v interface{}) string {
	switch v.(type) {
	case *ast.EmptyStatement:
		return "EmptyStatement"
	case *ast.DeclarationStatement:
		return "DeclarationStatement"
	case *ast.ExpressionStatement:
		return "ExpressionStatement"
	case *ast.IfStatement:
		return "IfStatement"
	case *ast.DoWhileStatement:
		return "DoWhileStatement"
	case *ast.ForStatement:
		return "ForStatement"
	case *ast.ReturnStatement:
		return "ReturnStatement"
	}
	return "?"
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"malformed", `{"program":`, "malformed JSON"},
		{"no program", `{"version": "1.0.0"}`, "no program"},
		{"no function", `{"program": {}}`, "no function"},
		{"no name", `{"program": {"function": {"body": []}}}`, "no name"},
		{"unknown statement", `{"program": {"function": {"name": "f", "body": [{"kind": "while"}]}}}`, `unknown statement kind "while"`},
		{"missing kind", `{"program": {"function": {"name": "f", "body": [{}]}}}`, "without kind"},
		{"null statement", `{"program": {"function": {"name": "f", "body": [null]}}}`, "null statement"},
		{"unknown expression", `{"program": {"function": {"name": "f", "body": [{"kind": "return", "expr": {"kind": "call"}}]}}}`, `unknown expression kind "call"`},
		{"missing child", `{"program": {"function": {"name": "f", "body": [{"kind": "return"}]}}}`, `return requires "expr"`},
		{"unknown operator", `{"program": {"function": {"name": "f", "body": [{"kind": "return", "expr": {"kind": "unary", "op": "++", "operand": {"kind": "int", "value": 1}}}]}}}`, "unknown unary operator"},
		{"out of range", `{"program": {"function": {"name": "f", "body": [{"kind": "return", "expr": {"kind": "int", "value": 2147483648}}]}}}`, "out of int32 range"},
		{"not an integer", `{"program": {"function": {"name": "f", "body": [{"kind": "return", "expr": {"kind": "int", "value": 1.5}}]}}}`, "invalid integer literal"},
		{"missing value", `{"program": {"function": {"name": "f", "body": [{"kind": "return", "expr": {"kind": "int"}}]}}}`, "requires a value"},
		{"bad version", `{"version": "one", "program": {}}`, "invalid document version"},
		{"future version", `{"version": "2.1.0", "program": {}}`, "does not satisfy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.doc), "bad.json")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
			se, ok := errors.As(err)
			if !ok || se.Category != errors.CategoryValidation {
				t.Errorf("error %v is not a validation error", err)
			}
		})
	}
}

func TestErrorCarriesPosition(t *testing.T) {
	doc := `{"program": {"function": {"name": "f", "body": [{"kind": "if", "pos": {"line": 4, "column": 2}, "then": {"kind": "empty"}}]}}}`
	_, err := Decode([]byte(doc), "pos.json")
	se, ok := errors.As(err)
	if !ok {
		t.Fatalf("unexpected error %v", err)
	}
	if got := se.Span.String(); got != "pos.json:4:2" {
		t.Errorf("span = %q", got)
	}
}

func TestCheckVersion(t *testing.T) {
	for _, v := range []string{"", "1.0.0", "1.4.2", "1.0.0-rc.1"} {
		err := CheckVersion(v)
		if v == "1.0.0-rc.1" {
			// Prereleases do not satisfy a plain range.
			if err == nil {
				t.Errorf("CheckVersion(%q) accepted a prerelease", v)
			}
			continue
		}
		if err != nil {
			t.Errorf("CheckVersion(%q): %v", v, err)
		}
	}
	if err := CheckVersion("0.9.0"); err == nil {
		t.Error("0.9.0 should be rejected")
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	orig := ast.Main(
		ast.Decl("s", ast.Int(0)),
		ast.For(
			ast.Decl("i", ast.Int(0)),
			ast.Binary(ast.OpLt, ast.Var("i"), ast.Int(4)),
			ast.Assign("i", ast.Binary(ast.OpAdd, ast.Var("i"), ast.Int(1))),
			ast.Block(
				ast.If(ast.Binary(ast.OpEq, ast.Var("i"), ast.Int(2)), ast.Continue(), nil),
				ast.ExprStmt(ast.Assign("s", ast.Binary(ast.OpAdd, ast.Var("s"), ast.Var("i")))),
			),
		),
		ast.DoWhile(ast.Break(), ast.Unary(ast.OpLogicalNot, ast.Int(0))),
		ast.Return(ast.Ternary(ast.Var("s"), ast.Var("s"), ast.Int(-1))),
	)

	data, err := Encode(orig)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	back, err := Decode(data, "")
	if err != nil {
		t.Fatalf("Decode: %v\n%s", err, data)
	}
	if back.String() != orig.String() {
		t.Errorf("round trip changed the program:\n%s\n---\n%s", orig, back)
	}
}

func TestEncodeRejectsEmptyProgram(t *testing.T) {
	if _, err := Encode(&ast.Program{}); err == nil {
		t.Error("expected error")
	}
}

func TestDecodeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sum.json")
	if err := os.WriteFile(path, []byte(sumDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeFile(path); err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	_, err := DecodeFile(filepath.Join(t.TempDir(), "missing.json"))
	if !stderrors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v", err)
	}
}
