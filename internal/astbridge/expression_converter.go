package astbridge

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/orizon-lang/stackir/internal/ast"
)

func (c *converter) optionalExpression(n *nodeJSON) (ast.Expression, error) {
	if n == nil {
		return nil, nil
	}
	return c.fromExpression(n)
}

func (c *converter) requireExpression(parent *nodeJSON, field string, n *nodeJSON) (ast.Expression, error) {
	if n == nil {
		return nil, c.errorf(parent.Pos, "%s requires %q", parent.Kind, field)
	}
	return c.fromExpression(n)
}

func (c *converter) fromExpression(n *nodeJSON) (ast.Expression, error) {
	span := c.span(n.Pos)

	switch n.Kind {
	case KindInt:
		if n.Value == "" {
			return nil, c.errorf(n.Pos, "int requires a value")
		}
		v, err := strconv.ParseInt(string(n.Value), 10, 64)
		if err != nil {
			return nil, c.errorf(n.Pos, "invalid integer literal %s", n.Value)
		}
		if v < math.MinInt32 || v > math.MaxInt32 {
			return nil, c.errorf(n.Pos, "integer literal %d out of int32 range", v)
		}
		return &ast.IntegerLiteral{Span: span, Value: int32(v)}, nil

	case KindUnary:
		op, err := ast.ParseUnaryOperator(n.Op)
		if err != nil {
			return nil, c.errorf(n.Pos, "%v", err)
		}
		x, err := c.requireExpression(n, "operand", n.Operand)
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpression{Span: span, Op: op, Operand: x}, nil

	case KindBinary:
		op, err := ast.ParseBinaryOperator(n.Op)
		if err != nil {
			return nil, c.errorf(n.Pos, "%v", err)
		}
		l, err := c.requireExpression(n, "left", n.Left)
		if err != nil {
			return nil, err
		}
		r, err := c.requireExpression(n, "right", n.Right)
		if err != nil {
			return nil, err
		}
		return &ast.BinaryExpression{Span: span, Op: op, Left: l, Right: r}, nil

	case KindVar:
		if n.Name == "" {
			return nil, c.errorf(n.Pos, "var requires a name")
		}
		return &ast.Identifier{Span: span, Name: n.Name}, nil

	case KindAssign:
		if n.Name == "" {
			return nil, c.errorf(n.Pos, "assign requires a name")
		}
		v, err := c.requireExpression(n, "expr", n.Expr)
		if err != nil {
			return nil, err
		}
		return &ast.AssignExpression{Span: span, Name: n.Name, Value: v}, nil

	case KindTernary:
		cond, err := c.requireExpression(n, "cond", n.Cond)
		if err != nil {
			return nil, err
		}
		then, err := c.requireExpression(n, "then", n.Then)
		if err != nil {
			return nil, err
		}
		els, err := c.requireExpression(n, "else", n.Else)
		if err != nil {
			return nil, err
		}
		return &ast.TernaryExpression{Span: span, Cond: cond, Then: then, Else: els}, nil

	case "":
		return nil, c.errorf(n.Pos, "expression without kind")

	default:
		return nil, c.errorf(n.Pos, "unknown expression kind %q", n.Kind)
	}
}

func toExpression(e ast.Expression) (*nodeJSON, error) {
	if e == nil {
		return nil, nil
	}
	n := &nodeJSON{Pos: toPos(e.GetSpan())}
	var err error

	switch x := e.(type) {
	case *ast.IntegerLiteral:
		n.Kind = KindInt
		n.Value = json.Number(strconv.FormatInt(int64(x.Value), 10))
	case *ast.UnaryExpression:
		n.Kind, n.Op = KindUnary, x.Op.String()
		n.Operand, err = toExpression(x.Operand)
	case *ast.BinaryExpression:
		n.Kind, n.Op = KindBinary, x.Op.String()
		if n.Left, err = toExpression(x.Left); err != nil {
			return nil, err
		}
		n.Right, err = toExpression(x.Right)
	case *ast.Identifier:
		n.Kind, n.Name = KindVar, x.Name
	case *ast.AssignExpression:
		n.Kind, n.Name = KindAssign, x.Name
		n.Expr, err = toExpression(x.Value)
	case *ast.TernaryExpression:
		n.Kind = KindTernary
		if n.Cond, err = toExpression(x.Cond); err != nil {
			return nil, err
		}
		if n.Then, err = toExpression(x.Then); err != nil {
			return nil, err
		}
		n.Else, err = toExpression(x.Else)
	default:
		return nil, fmt.Errorf("unsupported expression type: %T", e)
	}

	if err != nil {
		return nil, err
	}
	return n, nil
}
