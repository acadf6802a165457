package lower

import (
	"fmt"

	"github.com/orizon-lang/stackir/internal/ast"
	"github.com/orizon-lang/stackir/internal/errors"
	"github.com/orizon-lang/stackir/internal/lir"
	"github.com/orizon-lang/stackir/internal/position"
)

// expr appends code that leaves exactly one value, the value of e, on the
// operand stack.
func (c *funcCtx) expr(e ast.Expression) error {
	if absent(e) {
		return errors.InvalidDocument("missing expression", position.Span{})
	}

	switch x := e.(type) {
	case *ast.IntegerLiteral:
		c.emit(lir.PushConst{Value: x.Value})

	case *ast.UnaryExpression:
		if err := c.expr(x.Operand); err != nil {
			return err
		}
		c.emit(lir.Unary{Operator: x.Op})

	case *ast.BinaryExpression:
		// Left first, then right, so the right operand ends up on top.
		// && and || are not short-circuited.
		if err := c.expr(x.Left); err != nil {
			return err
		}
		if err := c.expr(x.Right); err != nil {
			return err
		}
		c.emit(lir.Binary{Operator: x.Op})

	case *ast.Identifier:
		slot, err := c.scopes.Resolve(x.Name, x.Span)
		if err != nil {
			return err
		}
		c.emit(lir.PushLocalAddr{Slot: slot}, lir.Load{})

	case *ast.AssignExpression:
		// Store leaves the stored value on the stack, which is the value of
		// the assignment expression.
		if err := c.expr(x.Value); err != nil {
			return err
		}
		slot, err := c.scopes.Resolve(x.Name, x.Span)
		if err != nil {
			return err
		}
		c.emit(lir.PushLocalAddr{Slot: slot}, lir.Store{})

	case *ast.TernaryExpression:
		if err := c.expr(x.Cond); err != nil {
			return err
		}
		elseLabel, endLabel := c.labels.Next(), c.labels.Next()
		c.emit(lir.BranchIfZero{Target: elseLabel})
		if err := c.expr(x.Then); err != nil {
			return err
		}
		c.emit(lir.Jump{Target: endLabel}, lir.Label{ID: elseLabel})
		if err := c.expr(x.Else); err != nil {
			return err
		}
		c.emit(lir.Label{ID: endLabel})

	default:
		return errors.InvalidDocument(fmt.Sprintf("unsupported expression %T", e), e.GetSpan())
	}
	return nil
}
