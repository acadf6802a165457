// Package lower translates the AST of a single-function program into the
// stack-machine IR of package lir.
//
// The translation is one synchronous pass. Each function is lowered with its
// own context (label allocator, scope stack, loop stack and instruction
// buffer); nothing is shared between calls, so independent programs may be
// lowered concurrently. The first semantic error aborts the pass and no IR is
// returned.
package lower

import (
	"fmt"
	"reflect"

	"github.com/orizon-lang/stackir/internal/ast"
	"github.com/orizon-lang/stackir/internal/errors"
	"github.com/orizon-lang/stackir/internal/lir"
	"github.com/orizon-lang/stackir/internal/position"
	"github.com/orizon-lang/stackir/internal/resolver"
)

// Options controls optional behaviour of a lowering pass.
type Options struct {
	// OnWarning, when set, receives resolver warnings (shadowing, unused
	// variables) after a function has been lowered successfully.
	OnWarning func(resolver.Warning)
}

// funcCtx is the state of lowering one function.
type funcCtx struct {
	labels LabelAllocator
	scopes *resolver.SymbolTable
	loops  LoopStack
	insns  []lir.Insn
}

func newFuncCtx() *funcCtx {
	return &funcCtx{scopes: resolver.NewSymbolTable()}
}

func (c *funcCtx) emit(in ...lir.Insn) {
	c.insns = append(c.insns, in...)
}

// LowerProgram lowers the program's single function.
func LowerProgram(p *ast.Program) (*lir.Program, error) {
	return LowerProgramWithOptions(p, Options{})
}

// LowerProgramWithOptions is LowerProgram with explicit options.
func LowerProgramWithOptions(p *ast.Program, opts Options) (*lir.Program, error) {
	if p == nil {
		return nil, errors.InvalidDocument("program is nil", position.Span{})
	}
	if p.Function == nil {
		return nil, errors.InvalidDocument("program has no function", p.Span)
	}

	fn, err := LowerFunctionWithOptions(p.Function, opts)
	if err != nil {
		return nil, err
	}
	return &lir.Program{Function: fn}, nil
}

// LowerFunction lowers one function body.
func LowerFunction(f *ast.Function) (*lir.Function, error) {
	return LowerFunctionWithOptions(f, Options{})
}

// LowerFunctionWithOptions lowers every top-level statement in one scope and
// appends "push 0; ret" unless the body already ends in a return.
func LowerFunctionWithOptions(f *ast.Function, opts Options) (*lir.Function, error) {
	if f == nil {
		return nil, errors.InvalidDocument("function is nil", position.Span{})
	}

	ctx := newFuncCtx()
	ctx.scopes.EnterScope()
	for _, s := range f.Body {
		if err := ctx.stmt(s); err != nil {
			return nil, fmt.Errorf("function %s: %w", f.Name, err)
		}
	}
	ctx.scopes.ExitScope()

	if _, ok := lastInsn(ctx.insns).(lir.Return); !ok {
		ctx.emit(lir.PushConst{Value: 0}, lir.Return{})
	}

	if opts.OnWarning != nil {
		for _, w := range ctx.scopes.Warnings() {
			opts.OnWarning(w)
		}
	}

	return &lir.Function{
		Name:     f.Name,
		VarCount: ctx.scopes.SlotCount(),
		Insns:    ctx.insns,
	}, nil
}

// absent reports whether an AST child is missing, either as a nil interface
// or as a nil node pointer stored in one.
func absent(n interface{}) bool {
	if n == nil {
		return true
	}
	v := reflect.ValueOf(n)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

func lastInsn(insns []lir.Insn) lir.Insn {
	if len(insns) == 0 {
		return nil
	}
	return insns[len(insns)-1]
}
