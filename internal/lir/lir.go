// Package lir defines the stack-machine IR produced by lowering.
// A function is one flat instruction stream over an operand stack and an
// addressable area of VarCount local slots; labels are resolved to offsets
// by the consumer.
package lir

import (
	"fmt"
	"strings"

	"github.com/orizon-lang/stackir/internal/ast"
)

// SlotID is the abstract address of a local variable.
type SlotID uint32

// LabelID names a control-flow target within one function.
type LabelID uint32

func (l LabelID) String() string { return fmt.Sprintf("L%d", uint32(l)) }

// Program bundles the single function of a lowered program.
type Program struct {
	Function *Function
}

// Function is a sequence of stack-machine instructions.
type Function struct {
	Name     string
	VarCount uint32
	Insns    []Insn
}

// Insn is a stack-machine instruction.
type Insn interface {
	Op() string
	String() string
	// StackEffect reports how many operands the instruction pops and pushes.
	StackEffect() (pop, push int)
}

// PushConst pushes a constant.
type PushConst struct{ Value int32 }

func (PushConst) Op() string                   { return "push" }
func (i PushConst) String() string             { return fmt.Sprintf("push %d", i.Value) }
func (PushConst) StackEffect() (pop, push int) { return 0, 1 }

// Unary pops one operand and pushes Op applied to it.
type Unary struct{ Operator ast.UnaryOperator }

func (Unary) Op() string                   { return "unary" }
func (i Unary) String() string             { return "unary " + i.Operator.Mnemonic() }
func (Unary) StackEffect() (pop, push int) { return 1, 1 }

// Binary pops the right operand (top) then the left and pushes the result.
type Binary struct{ Operator ast.BinaryOperator }

func (Binary) Op() string                   { return "binary" }
func (i Binary) String() string             { return "binary " + i.Operator.Mnemonic() }
func (Binary) StackEffect() (pop, push int) { return 2, 1 }

// PushLocalAddr pushes the address of a local slot.
type PushLocalAddr struct{ Slot SlotID }

func (PushLocalAddr) Op() string                   { return "addr" }
func (i PushLocalAddr) String() string             { return fmt.Sprintf("addr %d", i.Slot) }
func (PushLocalAddr) StackEffect() (pop, push int) { return 0, 1 }

// Load pops an address and pushes the value stored there.
type Load struct{}

func (Load) Op() string                   { return "load" }
func (Load) String() string               { return "load" }
func (Load) StackEffect() (pop, push int) { return 1, 1 }

// Store pops an address (top) and a value, writes the value and pushes it back.
type Store struct{}

func (Store) Op() string                   { return "store" }
func (Store) String() string               { return "store" }
func (Store) StackEffect() (pop, push int) { return 2, 1 }

// Label marks a branch target. It has no runtime effect.
type Label struct{ ID LabelID }

func (Label) Op() string                   { return "label" }
func (i Label) String() string             { return i.ID.String() + ":" }
func (Label) StackEffect() (pop, push int) { return 0, 0 }

// BranchIfZero pops a value and jumps to Target when it is zero.
type BranchIfZero struct{ Target LabelID }

func (BranchIfZero) Op() string                   { return "bz" }
func (i BranchIfZero) String() string             { return "bz " + i.Target.String() }
func (BranchIfZero) StackEffect() (pop, push int) { return 1, 0 }

// BranchIfNonZero pops a value and jumps to Target when it is not zero.
type BranchIfNonZero struct{ Target LabelID }

func (BranchIfNonZero) Op() string                   { return "bnz" }
func (i BranchIfNonZero) String() string             { return "bnz " + i.Target.String() }
func (BranchIfNonZero) StackEffect() (pop, push int) { return 1, 0 }

// Jump transfers control to Target.
type Jump struct{ Target LabelID }

func (Jump) Op() string                   { return "jmp" }
func (i Jump) String() string             { return "jmp " + i.Target.String() }
func (Jump) StackEffect() (pop, push int) { return 0, 0 }

// Pop discards the top of the stack.
type Pop struct{}

func (Pop) Op() string                   { return "pop" }
func (Pop) String() string               { return "pop" }
func (Pop) StackEffect() (pop, push int) { return 1, 0 }

// Return pops the top of the stack as the function result.
type Return struct{}

func (Return) Op() string                   { return "ret" }
func (Return) String() string               { return "ret" }
func (Return) StackEffect() (pop, push int) { return 1, 0 }

// BranchTarget returns the label a control transfer refers to.
func BranchTarget(in Insn) (LabelID, bool) {
	switch i := in.(type) {
	case BranchIfZero:
		return i.Target, true
	case BranchIfNonZero:
		return i.Target, true
	case Jump:
		return i.Target, true
	}
	return 0, false
}

// Last returns the final instruction, or nil for an empty function.
func (f *Function) Last() Insn {
	if len(f.Insns) == 0 {
		return nil
	}
	return f.Insns[len(f.Insns)-1]
}

// Labels returns the number of Label instructions.
func (f *Function) Labels() int {
	n := 0
	for _, in := range f.Insns {
		if _, ok := in.(Label); ok {
			n++
		}
	}
	return n
}

func (p *Program) String() string {
	if p == nil || p.Function == nil {
		return "<nil-program>"
	}
	return p.Function.String()
}

func (f *Function) String() string {
	if f == nil {
		return "<nil-func>"
	}

	var b strings.Builder

	fmt.Fprintf(&b, "func %s(vars=%d) {\n", f.Name, f.VarCount)

	for _, in := range f.Insns {
		if _, ok := in.(Label); ok {
			b.WriteString(in.String())
			b.WriteByte('\n')
			continue
		}
		b.WriteString("  ")
		b.WriteString(in.String())
		b.WriteByte('\n')
	}

	b.WriteString("}\n")

	return b.String()
}
