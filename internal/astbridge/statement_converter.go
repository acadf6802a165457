package astbridge

import (
	"fmt"

	"github.com/orizon-lang/stackir/internal/ast"
)

func (c *converter) fromStatements(nodes []*nodeJSON) ([]ast.Statement, error) {
	out := make([]ast.Statement, 0, len(nodes))
	for _, n := range nodes {
		s, err := c.fromStatement(n)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// optionalStatement converts n, allowing it to be absent.
func (c *converter) optionalStatement(n *nodeJSON) (ast.Statement, error) {
	if n == nil {
		return nil, nil
	}
	return c.fromStatement(n)
}

func (c *converter) fromStatement(n *nodeJSON) (ast.Statement, error) {
	if n == nil {
		return nil, c.errorf(nil, "null statement")
	}
	span := c.span(n.Pos)

	switch n.Kind {
	case KindEmpty:
		return &ast.EmptyStatement{Span: span}, nil

	case KindReturn:
		v, err := c.requireExpression(n, "expr", n.Expr)
		if err != nil {
			return nil, err
		}
		return &ast.ReturnStatement{Span: span, Value: v}, nil

	case KindDecl:
		if n.Name == "" {
			return nil, c.errorf(n.Pos, "decl requires a name")
		}
		init, err := c.optionalExpression(n.Init)
		if err != nil {
			return nil, err
		}
		return &ast.DeclarationStatement{Span: span, Name: n.Name, Init: init}, nil

	case KindExpr:
		e, err := c.requireExpression(n, "expr", n.Expr)
		if err != nil {
			return nil, err
		}
		return &ast.ExpressionStatement{Span: span, Expr: e}, nil

	case KindIf:
		cond, err := c.requireExpression(n, "cond", n.Cond)
		if err != nil {
			return nil, err
		}
		then, err := c.requireStatement(n, "then", n.Then)
		if err != nil {
			return nil, err
		}
		els, err := c.optionalStatement(n.Else)
		if err != nil {
			return nil, err
		}
		return &ast.IfStatement{Span: span, Cond: cond, Then: then, Else: els}, nil

	case KindBlock:
		stmts, err := c.fromStatements(n.Statements)
		if err != nil {
			return nil, err
		}
		return &ast.BlockStatement{Span: span, Statements: stmts}, nil

	case KindDoWhile:
		body, err := c.requireStatement(n, "body", n.Body)
		if err != nil {
			return nil, err
		}
		cond, err := c.requireExpression(n, "cond", n.Cond)
		if err != nil {
			return nil, err
		}
		return &ast.DoWhileStatement{Span: span, Body: body, Cond: cond}, nil

	case KindFor:
		init, err := c.optionalStatement(n.Init)
		if err != nil {
			return nil, err
		}
		cond, err := c.optionalExpression(n.Cond)
		if err != nil {
			return nil, err
		}
		update, err := c.optionalExpression(n.Update)
		if err != nil {
			return nil, err
		}
		body, err := c.requireStatement(n, "body", n.Body)
		if err != nil {
			return nil, err
		}
		return &ast.ForStatement{Span: span, Init: init, Cond: cond, Update: update, Body: body}, nil

	case KindBreak:
		return &ast.BreakStatement{Span: span}, nil

	case KindContinue:
		return &ast.ContinueStatement{Span: span}, nil

	case "":
		return nil, c.errorf(n.Pos, "statement without kind")

	default:
		return nil, c.errorf(n.Pos, "unknown statement kind %q", n.Kind)
	}
}

func (c *converter) requireStatement(parent *nodeJSON, field string, n *nodeJSON) (ast.Statement, error) {
	if n == nil {
		return nil, c.errorf(parent.Pos, "%s requires %q", parent.Kind, field)
	}
	return c.fromStatement(n)
}

func toStatements(stmts []ast.Statement) ([]*nodeJSON, error) {
	var out []*nodeJSON
	for _, s := range stmts {
		n, err := toStatement(s)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func toStatement(s ast.Statement) (*nodeJSON, error) {
	if s == nil {
		return nil, nil
	}
	n := &nodeJSON{Pos: toPos(s.GetSpan())}
	var err error

	switch x := s.(type) {
	case *ast.EmptyStatement:
		n.Kind = KindEmpty
	case *ast.ReturnStatement:
		n.Kind = KindReturn
		n.Expr, err = toExpression(x.Value)
	case *ast.DeclarationStatement:
		n.Kind, n.Name = KindDecl, x.Name
		n.Init, err = toExpression(x.Init)
	case *ast.ExpressionStatement:
		n.Kind = KindExpr
		n.Expr, err = toExpression(x.Expr)
	case *ast.IfStatement:
		n.Kind = KindIf
		if n.Cond, err = toExpression(x.Cond); err != nil {
			return nil, err
		}
		if n.Then, err = toStatement(x.Then); err != nil {
			return nil, err
		}
		n.Else, err = toStatement(x.Else)
	case *ast.BlockStatement:
		n.Kind = KindBlock
		n.Statements, err = toStatements(x.Statements)
	case *ast.DoWhileStatement:
		n.Kind = KindDoWhile
		if n.Body, err = toStatement(x.Body); err != nil {
			return nil, err
		}
		n.Cond, err = toExpression(x.Cond)
	case *ast.ForStatement:
		n.Kind = KindFor
		if n.Init, err = toStatement(x.Init); err != nil {
			return nil, err
		}
		if n.Cond, err = toExpression(x.Cond); err != nil {
			return nil, err
		}
		if n.Update, err = toExpression(x.Update); err != nil {
			return nil, err
		}
		n.Body, err = toStatement(x.Body)
	case *ast.BreakStatement:
		n.Kind = KindBreak
	case *ast.ContinueStatement:
		n.Kind = KindContinue
	default:
		return nil, fmt.Errorf("unsupported statement type: %T", s)
	}

	if err != nil {
		return nil, err
	}
	return n, nil
}
