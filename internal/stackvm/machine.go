// Package stackvm is a reference interpreter for lir functions. It runs the
// IR exactly as the downstream contract describes: a word-sized operand
// stack plus VarCount local slots, with labels resolved to instruction
// offsets before execution.
package stackvm

import (
	"context"
	"fmt"

	"github.com/orizon-lang/stackir/internal/ast"
	"github.com/orizon-lang/stackir/internal/errors"
	"github.com/orizon-lang/stackir/internal/lir"
)

// DefaultStepLimit bounds execution when Config.StepLimit is zero.
const DefaultStepLimit = 1_000_000

// Runtime error codes.
const (
	CodeStackUnderflow = "STACK_UNDERFLOW"
	CodeBadAddress     = "BAD_ADDRESS"
	CodeDivisionByZero = "DIVISION_BY_ZERO"
	CodeStepLimit      = "STEP_LIMIT"
	CodeFellOffEnd     = "FELL_OFF_END"
)

// Config controls a run.
type Config struct {
	// StepLimit stops the machine after this many instructions. Zero means
	// DefaultStepLimit; a negative value disables the limit.
	StepLimit int
	// Trace, when set, is called before each instruction executes.
	Trace func(pc int, in lir.Insn, stack []int32)
}

// Result describes a completed run.
type Result struct {
	Value    int32   // value returned by the function
	Steps    int     // instructions executed
	MaxDepth int     // deepest operand stack observed
	Locals   []int32 // final contents of the local slots
}

// Machine executes one function. It is not safe for concurrent use; create
// one machine per run.
type Machine struct {
	fn      *lir.Function
	cfg     Config
	targets map[lir.LabelID]int
	stack   []int32
	locals  []int32
}

// New prepares fn for execution, resolving every label to its offset.
func New(fn *lir.Function, cfg Config) (*Machine, error) {
	if fn == nil {
		return nil, fmt.Errorf("stackvm: nil function")
	}
	targets := make(map[lir.LabelID]int)
	for idx, in := range fn.Insns {
		if l, ok := in.(lir.Label); ok {
			if _, dup := targets[l.ID]; dup {
				return nil, errors.InvalidIR(fn.Name, idx, fmt.Sprintf("label %s defined twice", l.ID))
			}
			targets[l.ID] = idx
		}
	}
	for idx, in := range fn.Insns {
		if t, ok := lir.BranchTarget(in); ok {
			if _, defined := targets[t]; !defined {
				return nil, errors.InvalidIR(fn.Name, idx, fmt.Sprintf("undefined label %s", t))
			}
		}
	}
	if cfg.StepLimit == 0 {
		cfg.StepLimit = DefaultStepLimit
	}
	return &Machine{fn: fn, cfg: cfg, targets: targets}, nil
}

// Run executes the function from its first instruction until it returns.
func Run(ctx context.Context, fn *lir.Function, cfg Config) (*Result, error) {
	m, err := New(fn, cfg)
	if err != nil {
		return nil, err
	}
	return m.Run(ctx)
}

// Run executes the function. Locals start at zero.
func (m *Machine) Run(ctx context.Context) (*Result, error) {
	m.stack = m.stack[:0]
	m.locals = make([]int32, m.fn.VarCount)

	res := &Result{}
	pc := 0
	for {
		if pc >= len(m.fn.Insns) {
			return nil, errors.Runtime(CodeFellOffEnd, "execution ran past the last instruction", pc)
		}
		if m.cfg.StepLimit > 0 && res.Steps >= m.cfg.StepLimit {
			return nil, errors.Runtime(CodeStepLimit,
				fmt.Sprintf("step limit %d reached", m.cfg.StepLimit), pc)
		}
		if res.Steps&0xfff == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		in := m.fn.Insns[pc]
		if m.cfg.Trace != nil {
			m.cfg.Trace(pc, in, m.stack)
		}
		res.Steps++

		next := pc + 1
		switch i := in.(type) {
		case lir.PushConst:
			m.push(i.Value)
		case lir.Unary:
			v, err := m.pop(pc)
			if err != nil {
				return nil, err
			}
			m.push(applyUnary(i.Operator, v))
		case lir.Binary:
			r, err := m.pop(pc)
			if err != nil {
				return nil, err
			}
			l, err := m.pop(pc)
			if err != nil {
				return nil, err
			}
			v, err := applyBinary(i.Operator, l, r, pc)
			if err != nil {
				return nil, err
			}
			m.push(v)
		case lir.PushLocalAddr:
			m.push(int32(i.Slot))
		case lir.Load:
			addr, err := m.pop(pc)
			if err != nil {
				return nil, err
			}
			if err := m.checkAddr(addr, pc); err != nil {
				return nil, err
			}
			m.push(m.locals[addr])
		case lir.Store:
			addr, err := m.pop(pc)
			if err != nil {
				return nil, err
			}
			v, err := m.pop(pc)
			if err != nil {
				return nil, err
			}
			if err := m.checkAddr(addr, pc); err != nil {
				return nil, err
			}
			m.locals[addr] = v
			m.push(v)
		case lir.Label:
		case lir.BranchIfZero:
			v, err := m.pop(pc)
			if err != nil {
				return nil, err
			}
			if v == 0 {
				next = m.targets[i.Target]
			}
		case lir.BranchIfNonZero:
			v, err := m.pop(pc)
			if err != nil {
				return nil, err
			}
			if v != 0 {
				next = m.targets[i.Target]
			}
		case lir.Jump:
			next = m.targets[i.Target]
		case lir.Pop:
			if _, err := m.pop(pc); err != nil {
				return nil, err
			}
		case lir.Return:
			v, err := m.pop(pc)
			if err != nil {
				return nil, err
			}
			res.Value = v
			res.Locals = append([]int32(nil), m.locals...)
			return res, nil
		default:
			return nil, errors.InvalidIR(m.fn.Name, pc, fmt.Sprintf("unknown instruction %T", in))
		}

		if len(m.stack) > res.MaxDepth {
			res.MaxDepth = len(m.stack)
		}
		pc = next
	}
}

func (m *Machine) push(v int32) { m.stack = append(m.stack, v) }

func (m *Machine) pop(pc int) (int32, error) {
	if len(m.stack) == 0 {
		return 0, errors.Runtime(CodeStackUnderflow, "pop from empty operand stack", pc)
	}
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v, nil
}

func (m *Machine) checkAddr(addr int32, pc int) error {
	if addr < 0 || int64(addr) >= int64(len(m.locals)) {
		return errors.Runtime(CodeBadAddress,
			fmt.Sprintf("address %d outside %d local slot(s)", addr, len(m.locals)), pc)
	}
	return nil
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

func applyUnary(op ast.UnaryOperator, v int32) int32 {
	switch op {
	case ast.OpNeg:
		return -v
	case ast.OpBitNot:
		return ^v
	case ast.OpLogicalNot:
		return boolInt(v == 0)
	}
	return v
}

// applyBinary uses two's complement wrapping; MinInt32 / -1 yields MinInt32.
func applyBinary(op ast.BinaryOperator, l, r int32, pc int) (int32, error) {
	switch op {
	case ast.OpAdd:
		return l + r, nil
	case ast.OpSub:
		return l - r, nil
	case ast.OpMul:
		return l * r, nil
	case ast.OpDiv:
		if r == 0 {
			return 0, errors.Runtime(CodeDivisionByZero, "division by zero", pc)
		}
		return l / r, nil
	case ast.OpMod:
		if r == 0 {
			return 0, errors.Runtime(CodeDivisionByZero, "modulo by zero", pc)
		}
		return l % r, nil
	case ast.OpLt:
		return boolInt(l < r), nil
	case ast.OpLe:
		return boolInt(l <= r), nil
	case ast.OpGt:
		return boolInt(l > r), nil
	case ast.OpGe:
		return boolInt(l >= r), nil
	case ast.OpEq:
		return boolInt(l == r), nil
	case ast.OpNe:
		return boolInt(l != r), nil
	case ast.OpLogicalAnd:
		return boolInt(l != 0 && r != 0), nil
	case ast.OpLogicalOr:
		return boolInt(l != 0 || r != 0), nil
	}
	return 0, errors.InvalidIR("", pc, fmt.Sprintf("unknown binary operator %d", int(op)))
}
