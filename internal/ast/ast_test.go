package ast

import (
	"strings"
	"testing"
)

func TestOperatorRoundTrip(t *testing.T) {
	for op := OpNeg; op <= OpLogicalNot; op++ {
		for _, spelling := range []string{op.String(), op.Mnemonic()} {
			got, err := ParseUnaryOperator(spelling)
			if err != nil {
				t.Fatalf("ParseUnaryOperator(%q): %v", spelling, err)
			}
			if got != op {
				t.Errorf("ParseUnaryOperator(%q) = %v, want %v", spelling, got, op)
			}
		}
	}
	for op := OpAdd; op <= OpLogicalOr; op++ {
		for _, spelling := range []string{op.String(), op.Mnemonic()} {
			got, err := ParseBinaryOperator(spelling)
			if err != nil {
				t.Fatalf("ParseBinaryOperator(%q): %v", spelling, err)
			}
			if got != op {
				t.Errorf("ParseBinaryOperator(%q) = %v, want %v", spelling, got, op)
			}
		}
	}
}

func TestOperatorUnknown(t *testing.T) {
	if _, err := ParseUnaryOperator("++"); err == nil {
		t.Error("expected error for ++")
	}
	if _, err := ParseBinaryOperator("<<"); err == nil {
		t.Error("expected error for <<")
	}
	if got := UnaryOperator(42).String(); got != "unary?" {
		t.Errorf("out of range unary = %q", got)
	}
	if got := BinaryOperator(-1).Mnemonic(); got != "binop?" {
		t.Errorf("out of range binary = %q", got)
	}
}

func TestProgramString(t *testing.T) {
	prog := Main(
		Decl("a", Int(1)),
		For(Decl("i", Int(0)), Binary(OpLt, Var("i"), Int(3)), Assign("i", Binary(OpAdd, Var("i"), Int(1))),
			Block(ExprStmt(Assign("a", Binary(OpMul, Var("a"), Int(2)))))),
		If(Unary(OpLogicalNot, Var("a")), Return(Int(0)), nil),
		Return(Ternary(Var("a"), Var("a"), Unary(OpNeg, Int(1)))),
	)

	want := strings.Join([]string{
		"int main() {",
		"    int a = 1;",
		"    for (int i = 0; (i < 3); (i = (i + 1))) {",
		"        (a = (a * 2));",
		"    }",
		"    if (!a) return 0;",
		"    return (a ? a : -1);",
		"}",
	}, "\n")

	if got := prog.String(); got != want {
		t.Errorf("String() mismatch\n got:\n%s\nwant:\n%s", got, want)
	}
}

func TestStatementStrings(t *testing.T) {
	tests := []struct {
		node Node
		want string
	}{
		{Empty(), ";"},
		{Decl("x", nil), "int x;"},
		{Break(), "break;"},
		{Continue(), "continue;"},
		{Block(), "{}"},
		{DoWhile(Block(), Var("c")), "do {} while (c);"},
		{For(nil, nil, nil, Empty()), "for (;;) ;"},
		{If(Var("c"), Break(), Continue()), "if (c) break; else continue;"},
	}
	for _, tt := range tests {
		if got := tt.node.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
