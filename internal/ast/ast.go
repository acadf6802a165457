// Package ast defines the tree handed over by the parser: a program made of a
// single function whose body is a list of statements over 32-bit integer
// locals.
//
// Nodes are immutable once built. Every node carries a position.Span so that
// lowering errors can point back at the source construct.
package ast

import (
	"fmt"
	"strings"

	"github.com/orizon-lang/stackir/internal/position"
)

// Node is the base interface for all AST nodes
type Node interface {
	// GetSpan returns the source span covered by this node
	GetSpan() position.Span
	// String returns a C-like rendering of the node
	String() string
}

// Statement represents all statement nodes in the AST
type Statement interface {
	Node
	statementNode()
}

// Expression represents all expression nodes in the AST
type Expression interface {
	Node
	expressionNode()
}

// ===== Program Structure =====

// Program is the root of the tree. It holds exactly one function.
type Program struct {
	Span     position.Span
	Function *Function
}

func (p *Program) GetSpan() position.Span { return p.Span }
func (p *Program) String() string {
	if p.Function == nil {
		return ""
	}
	return p.Function.String()
}

// Function is the single function of a program.
type Function struct {
	Span position.Span
	Name string
	Body []Statement
}

func (f *Function) GetSpan() position.Span { return f.Span }
func (f *Function) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "int %s() {\n", f.Name)
	for _, s := range f.Body {
		writeIndented(&b, s.String(), 1)
	}
	b.WriteString("}")
	return b.String()
}

// ===== Statements =====

// EmptyStatement is a lone ";".
type EmptyStatement struct {
	Span position.Span
}

func (s *EmptyStatement) GetSpan() position.Span { return s.Span }
func (s *EmptyStatement) statementNode()         {}
func (s *EmptyStatement) String() string         { return ";" }

// ReturnStatement returns Value from the function.
type ReturnStatement struct {
	Span  position.Span
	Value Expression
}

func (s *ReturnStatement) GetSpan() position.Span { return s.Span }
func (s *ReturnStatement) statementNode()         {}
func (s *ReturnStatement) String() string         { return fmt.Sprintf("return %s;", s.Value) }

// DeclarationStatement declares an int local, optionally initialized.
//
//	int x = 10;
//	    ^   ^^ Init
//	    Name
type DeclarationStatement struct {
	Span position.Span
	Name string
	Init Expression // nil when absent
}

func (s *DeclarationStatement) GetSpan() position.Span { return s.Span }
func (s *DeclarationStatement) statementNode()         {}
func (s *DeclarationStatement) String() string {
	if s.Init == nil {
		return fmt.Sprintf("int %s;", s.Name)
	}
	return fmt.Sprintf("int %s = %s;", s.Name, s.Init)
}

// ExpressionStatement evaluates Expr and discards the value.
type ExpressionStatement struct {
	Span position.Span
	Expr Expression
}

func (s *ExpressionStatement) GetSpan() position.Span { return s.Span }
func (s *ExpressionStatement) statementNode()         {}
func (s *ExpressionStatement) String() string         { return s.Expr.String() + ";" }

// IfStatement is if (Cond) Then [else Else].
type IfStatement struct {
	Span position.Span
	Cond Expression
	Then Statement
	Else Statement // nil when absent
}

func (s *IfStatement) GetSpan() position.Span { return s.Span }
func (s *IfStatement) statementNode()         {}
func (s *IfStatement) String() string {
	out := fmt.Sprintf("if (%s) %s", s.Cond, s.Then)
	if s.Else != nil {
		out += " else " + s.Else.String()
	}
	return out
}

// BlockStatement opens a new lexical scope.
type BlockStatement struct {
	Span       position.Span
	Statements []Statement
}

func (s *BlockStatement) GetSpan() position.Span { return s.Span }
func (s *BlockStatement) statementNode()         {}
func (s *BlockStatement) String() string {
	if len(s.Statements) == 0 {
		return "{}"
	}
	var b strings.Builder
	b.WriteString("{\n")
	for _, st := range s.Statements {
		writeIndented(&b, st.String(), 1)
	}
	b.WriteString("}")
	return b.String()
}

// DoWhileStatement is do Body while (Cond);
type DoWhileStatement struct {
	Span position.Span
	Body Statement
	Cond Expression
}

func (s *DoWhileStatement) GetSpan() position.Span { return s.Span }
func (s *DoWhileStatement) statementNode()         {}
func (s *DoWhileStatement) String() string {
	return fmt.Sprintf("do %s while (%s);", s.Body, s.Cond)
}

// ForStatement is for (Init; Cond; Update) Body. Every clause but Body may be nil.
// A declaration in Init is scoped to the loop.
type ForStatement struct {
	Span   position.Span
	Init   Statement
	Cond   Expression
	Update Expression
	Body   Statement
}

func (s *ForStatement) GetSpan() position.Span { return s.Span }
func (s *ForStatement) statementNode()         {}
func (s *ForStatement) String() string {
	init := ";"
	if s.Init != nil {
		init = s.Init.String()
	}
	cond, update := "", ""
	if s.Cond != nil {
		cond = " " + s.Cond.String()
	}
	if s.Update != nil {
		update = " " + s.Update.String()
	}
	return fmt.Sprintf("for (%s%s;%s) %s", init, cond, update, s.Body)
}

// BreakStatement leaves the innermost loop.
type BreakStatement struct {
	Span position.Span
}

func (s *BreakStatement) GetSpan() position.Span { return s.Span }
func (s *BreakStatement) statementNode()         {}
func (s *BreakStatement) String() string         { return "break;" }

// ContinueStatement jumps to the innermost loop's continue point.
type ContinueStatement struct {
	Span position.Span
}

func (s *ContinueStatement) GetSpan() position.Span { return s.Span }
func (s *ContinueStatement) statementNode()         {}
func (s *ContinueStatement) String() string         { return "continue;" }

// ===== Expressions =====

// IntegerLiteral is a 32-bit integer constant.
type IntegerLiteral struct {
	Span  position.Span
	Value int32
}

func (e *IntegerLiteral) GetSpan() position.Span { return e.Span }
func (e *IntegerLiteral) expressionNode()        {}
func (e *IntegerLiteral) String() string         { return fmt.Sprintf("%d", e.Value) }

// UnaryExpression is Op Operand.
type UnaryExpression struct {
	Span    position.Span
	Op      UnaryOperator
	Operand Expression
}

func (e *UnaryExpression) GetSpan() position.Span { return e.Span }
func (e *UnaryExpression) expressionNode()        {}
func (e *UnaryExpression) String() string         { return fmt.Sprintf("%s%s", e.Op, e.Operand) }

// BinaryExpression is Left Op Right. Both operands are always evaluated.
type BinaryExpression struct {
	Span  position.Span
	Op    BinaryOperator
	Left  Expression
	Right Expression
}

func (e *BinaryExpression) GetSpan() position.Span { return e.Span }
func (e *BinaryExpression) expressionNode()        {}
func (e *BinaryExpression) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Left, e.Op, e.Right)
}

// Identifier reads a named local.
type Identifier struct {
	Span position.Span
	Name string
}

func (e *Identifier) GetSpan() position.Span { return e.Span }
func (e *Identifier) expressionNode()        {}
func (e *Identifier) String() string         { return e.Name }

// AssignExpression is Name = Value; its value is the assigned value.
type AssignExpression struct {
	Span  position.Span
	Name  string
	Value Expression
}

func (e *AssignExpression) GetSpan() position.Span { return e.Span }
func (e *AssignExpression) expressionNode()        {}
func (e *AssignExpression) String() string {
	return fmt.Sprintf("(%s = %s)", e.Name, e.Value)
}

// TernaryExpression is Cond ? Then : Else. Exactly one branch is evaluated.
type TernaryExpression struct {
	Span position.Span
	Cond Expression
	Then Expression
	Else Expression
}

func (e *TernaryExpression) GetSpan() position.Span { return e.Span }
func (e *TernaryExpression) expressionNode()        {}
func (e *TernaryExpression) String() string {
	return fmt.Sprintf("(%s ? %s : %s)", e.Cond, e.Then, e.Else)
}

func writeIndented(b *strings.Builder, text string, depth int) {
	indent := strings.Repeat("    ", depth)
	for _, line := range strings.Split(text, "\n") {
		b.WriteString(indent)
		b.WriteString(line)
		b.WriteByte('\n')
	}
}
