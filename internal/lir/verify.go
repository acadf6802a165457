package lir

import (
	"fmt"

	"github.com/orizon-lang/stackir/internal/errors"
)

// Analysis is the result of checking a function's control flow and stack use.
type Analysis struct {
	// Depth is the operand stack depth before each instruction, or -1 when
	// the instruction is unreachable.
	Depth []int
	// MaxDepth is the deepest stack any path reaches.
	MaxDepth int
	// LabelAt maps every label to the index of its Label instruction.
	LabelAt map[LabelID]int
}

// Verify checks the structural invariants every lowered function satisfies.
func Verify(f *Function) error {
	_, err := Analyze(f)
	return err
}

// Analyze walks every path through f and computes the stack depth at each
// instruction. It fails when a label is defined twice or never, a slot is out
// of range, a path underflows the stack or reaches a label with two different
// depths, a return leaves extra values behind, or control falls off the end.
func Analyze(f *Function) (*Analysis, error) {
	if f == nil {
		return nil, fmt.Errorf("nil function")
	}

	a := &Analysis{
		Depth:   make([]int, len(f.Insns)),
		LabelAt: make(map[LabelID]int),
	}
	for i := range a.Depth {
		a.Depth[i] = -1
	}

	for idx, in := range f.Insns {
		switch i := in.(type) {
		case Label:
			if prev, dup := a.LabelAt[i.ID]; dup {
				return nil, errors.InvalidIR(f.Name, idx,
					fmt.Sprintf("label %s already defined at %d", i.ID, prev))
			}
			a.LabelAt[i.ID] = idx
		case PushLocalAddr:
			if uint32(i.Slot) >= f.VarCount {
				return nil, errors.InvalidIR(f.Name, idx,
					fmt.Sprintf("slot %d out of range (vars=%d)", i.Slot, f.VarCount))
			}
		}
	}
	for idx, in := range f.Insns {
		if t, ok := BranchTarget(in); ok {
			if _, defined := a.LabelAt[t]; !defined {
				return nil, errors.InvalidIR(f.Name, idx, fmt.Sprintf("undefined label %s", t))
			}
		}
	}

	if len(f.Insns) == 0 {
		return nil, errors.InvalidIR(f.Name, 0, "function has no instructions")
	}

	// Depth-first over the flat stream; each instruction is visited once per
	// distinct entry depth, and a second distinct depth is an error.
	work := []int{0}
	a.Depth[0] = 0

	enter := func(from, to, depth int) error {
		if to >= len(f.Insns) {
			return errors.InvalidIR(f.Name, from, "control falls off the end of the function")
		}
		switch have := a.Depth[to]; {
		case have == -1:
			a.Depth[to] = depth
			work = append(work, to)
		case have != depth:
			return errors.InvalidIR(f.Name, to,
				fmt.Sprintf("stack depth %d on one path and %d on another", have, depth))
		}
		return nil
	}

	for len(work) > 0 {
		idx := work[len(work)-1]
		work = work[:len(work)-1]

		in := f.Insns[idx]
		depth := a.Depth[idx]
		pop, push := in.StackEffect()
		if depth < pop {
			return nil, errors.InvalidIR(f.Name, idx,
				fmt.Sprintf("%s needs %d operand(s), stack has %d", in.Op(), pop, depth))
		}
		after := depth - pop + push
		if after > a.MaxDepth {
			a.MaxDepth = after
		}

		switch i := in.(type) {
		case Return:
			if depth != 1 {
				return nil, errors.InvalidIR(f.Name, idx,
					fmt.Sprintf("return with stack depth %d", depth))
			}
		case Jump:
			if err := enter(idx, a.LabelAt[i.Target], after); err != nil {
				return nil, err
			}
		case BranchIfZero, BranchIfNonZero:
			t, _ := BranchTarget(i)
			if err := enter(idx, a.LabelAt[t], after); err != nil {
				return nil, err
			}
			if err := enter(idx, idx+1, after); err != nil {
				return nil, err
			}
		default:
			if err := enter(idx, idx+1, after); err != nil {
				return nil, err
			}
		}
	}

	if _, ok := f.Last().(Return); !ok {
		return nil, errors.InvalidIR(f.Name, len(f.Insns)-1, "function does not end with ret")
	}

	return a, nil
}
