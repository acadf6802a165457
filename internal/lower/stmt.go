package lower

import (
	"fmt"

	"github.com/orizon-lang/stackir/internal/ast"
	"github.com/orizon-lang/stackir/internal/errors"
	"github.com/orizon-lang/stackir/internal/lir"
	"github.com/orizon-lang/stackir/internal/position"
)

// stmt appends code for s. Statements never change the operand stack depth.
func (c *funcCtx) stmt(s ast.Statement) error {
	if absent(s) {
		return errors.InvalidDocument("missing statement", position.Span{})
	}

	switch x := s.(type) {
	case *ast.EmptyStatement:

	case *ast.DeclarationStatement:
		return c.declaration(x)

	case *ast.ReturnStatement:
		if err := c.expr(x.Value); err != nil {
			return err
		}
		c.emit(lir.Return{})

	case *ast.ExpressionStatement:
		if err := c.expr(x.Expr); err != nil {
			return err
		}
		c.emit(lir.Pop{})

	case *ast.BlockStatement:
		c.scopes.EnterScope()
		for _, inner := range x.Statements {
			if err := c.stmt(inner); err != nil {
				return err
			}
		}
		c.scopes.ExitScope()

	case *ast.IfStatement:
		return c.ifStmt(x)

	case *ast.DoWhileStatement:
		return c.doWhile(x)

	case *ast.ForStatement:
		if absent(x.Init) {
			return c.forLoop(x)
		}
		// The init clause gets a scope of its own that wraps the whole loop.
		c.scopes.EnterScope()
		if err := c.stmt(x.Init); err != nil {
			return err
		}
		if err := c.forLoop(x); err != nil {
			return err
		}
		c.scopes.ExitScope()

	case *ast.BreakStatement:
		target, err := c.loops.BreakTarget(x.Span)
		if err != nil {
			return err
		}
		c.emit(lir.Jump{Target: target})

	case *ast.ContinueStatement:
		target, err := c.loops.ContinueTarget(x.Span)
		if err != nil {
			return err
		}
		c.emit(lir.Jump{Target: target})

	default:
		return errors.InvalidDocument(fmt.Sprintf("unsupported statement %T", s), s.GetSpan())
	}
	return nil
}

// declaration binds the name before lowering the initializer, so the
// initializer already sees the new slot.
func (c *funcCtx) declaration(d *ast.DeclarationStatement) error {
	slot, err := c.scopes.Declare(d.Name, d)
	if err != nil {
		return err
	}
	if absent(d.Init) {
		return nil
	}
	if err := c.expr(d.Init); err != nil {
		return err
	}
	c.emit(lir.PushLocalAddr{Slot: slot}, lir.Store{}, lir.Pop{})
	return nil
}

//	    cond
//	    bz ELSE
//	    then
//	    jmp END
//	ELSE:
//	    else
//	END:
func (c *funcCtx) ifStmt(s *ast.IfStatement) error {
	if err := c.expr(s.Cond); err != nil {
		return err
	}
	elseLabel, endLabel := c.labels.Next(), c.labels.Next()
	c.emit(lir.BranchIfZero{Target: elseLabel})
	if err := c.stmt(s.Then); err != nil {
		return err
	}
	c.emit(lir.Jump{Target: endLabel}, lir.Label{ID: elseLabel})
	if !absent(s.Else) {
		if err := c.stmt(s.Else); err != nil {
			return err
		}
	}
	c.emit(lir.Label{ID: endLabel})
	return nil
}

//	BODY:
//	    body
//	COND:            <- continue
//	    cond
//	    bnz BODY
//	END:             <- break
func (c *funcCtx) doWhile(s *ast.DoWhileStatement) error {
	bodyLabel, condLabel, endLabel := c.labels.Next(), c.labels.Next(), c.labels.Next()

	c.loops.Enter(endLabel, condLabel)
	c.emit(lir.Label{ID: bodyLabel})
	if err := c.stmt(s.Body); err != nil {
		return err
	}
	c.emit(lir.Label{ID: condLabel})
	if err := c.expr(s.Cond); err != nil {
		return err
	}
	c.emit(lir.BranchIfNonZero{Target: bodyLabel}, lir.Label{ID: endLabel})
	c.loops.Exit()
	return nil
}

// forLoop lowers everything but the init clause.
//
//	COND:
//	    cond         (omitted when absent)
//	    bz END
//	    body
//	UPDATE:          <- continue
//	    update; pop  (omitted when absent)
//	    jmp COND
//	END:             <- break
func (c *funcCtx) forLoop(s *ast.ForStatement) error {
	condLabel, updateLabel, endLabel := c.labels.Next(), c.labels.Next(), c.labels.Next()

	c.loops.Enter(endLabel, updateLabel)
	c.emit(lir.Label{ID: condLabel})
	if !absent(s.Cond) {
		if err := c.expr(s.Cond); err != nil {
			return err
		}
		c.emit(lir.BranchIfZero{Target: endLabel})
	}
	if err := c.stmt(s.Body); err != nil {
		return err
	}
	c.emit(lir.Label{ID: updateLabel})
	if !absent(s.Update) {
		if err := c.expr(s.Update); err != nil {
			return err
		}
		c.emit(lir.Pop{})
	}
	c.emit(lir.Jump{Target: condLabel}, lir.Label{ID: endLabel})
	c.loops.Exit()
	return nil
}
