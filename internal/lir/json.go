package lir

import (
	"encoding/json"
	"fmt"

	semver "github.com/Masterminds/semver/v3"

	"github.com/orizon-lang/stackir/internal/ast"
	"github.com/orizon-lang/stackir/internal/errors"
)

// FormatVersion is written into every encoded program.
const FormatVersion = "1.0.0"

// SupportedFormats is the range of encoded program versions DecodeProgram accepts.
const SupportedFormats = ">= 1.0.0, < 2.0.0"

type programJSON struct {
	Format   string        `json:"format"`
	Function *functionJSON `json:"function"`
}

type functionJSON struct {
	Name     string     `json:"name"`
	VarCount uint32     `json:"var_count"`
	Code     []insnJSON `json:"code"`
}

type insnJSON struct {
	Op       string   `json:"op"`
	Value    *int32   `json:"value,omitempty"`
	Operator string   `json:"operator,omitempty"`
	Slot     *SlotID  `json:"slot,omitempty"`
	Label    *LabelID `json:"label,omitempty"`
}

// MarshalJSON encodes the program with its format version.
func (p *Program) MarshalJSON() ([]byte, error) {
	if p == nil || p.Function == nil {
		return nil, fmt.Errorf("cannot encode empty program")
	}
	f := p.Function
	out := programJSON{
		Format: FormatVersion,
		Function: &functionJSON{
			Name:     f.Name,
			VarCount: f.VarCount,
			Code:     make([]insnJSON, 0, len(f.Insns)),
		},
	}
	for _, in := range f.Insns {
		out.Function.Code = append(out.Function.Code, encodeInsn(in))
	}
	return json.Marshal(out)
}

func encodeInsn(in Insn) insnJSON {
	e := insnJSON{Op: in.Op()}
	switch i := in.(type) {
	case PushConst:
		v := i.Value
		e.Value = &v
	case Unary:
		e.Operator = i.Operator.Mnemonic()
	case Binary:
		e.Operator = i.Operator.Mnemonic()
	case PushLocalAddr:
		s := i.Slot
		e.Slot = &s
	case Label:
		l := i.ID
		e.Label = &l
	default:
		if t, ok := BranchTarget(in); ok {
			e.Label = &t
		}
	}
	return e
}

// DecodeProgram parses an encoded program, rejecting unsupported format versions.
func DecodeProgram(data []byte) (*Program, error) {
	var raw programJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse IR: %w", err)
	}

	if err := checkFormat(raw.Format); err != nil {
		return nil, err
	}
	if raw.Function == nil {
		return nil, fmt.Errorf("IR document has no function")
	}

	f := &Function{
		Name:     raw.Function.Name,
		VarCount: raw.Function.VarCount,
		Insns:    make([]Insn, 0, len(raw.Function.Code)),
	}
	for idx, e := range raw.Function.Code {
		in, err := decodeInsn(e)
		if err != nil {
			return nil, errors.InvalidIR(f.Name, idx, err.Error())
		}
		f.Insns = append(f.Insns, in)
	}
	return &Program{Function: f}, nil
}

func checkFormat(version string) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("invalid IR format version %q: %w", version, err)
	}
	c, err := semver.NewConstraint(SupportedFormats)
	if err != nil {
		return err
	}
	if !c.Check(v) {
		return errors.UnsupportedFormat(version, SupportedFormats)
	}
	return nil
}

func decodeInsn(e insnJSON) (Insn, error) {
	needLabel := func() (LabelID, error) {
		if e.Label == nil {
			return 0, fmt.Errorf("%s requires a label", e.Op)
		}
		return *e.Label, nil
	}

	switch e.Op {
	case "push":
		if e.Value == nil {
			return nil, fmt.Errorf("push requires a value")
		}
		return PushConst{Value: *e.Value}, nil
	case "unary":
		op, err := ast.ParseUnaryOperator(e.Operator)
		if err != nil {
			return nil, err
		}
		return Unary{Operator: op}, nil
	case "binary":
		op, err := ast.ParseBinaryOperator(e.Operator)
		if err != nil {
			return nil, err
		}
		return Binary{Operator: op}, nil
	case "addr":
		if e.Slot == nil {
			return nil, fmt.Errorf("addr requires a slot")
		}
		return PushLocalAddr{Slot: *e.Slot}, nil
	case "load":
		return Load{}, nil
	case "store":
		return Store{}, nil
	case "label":
		l, err := needLabel()
		return Label{ID: l}, err
	case "bz":
		l, err := needLabel()
		return BranchIfZero{Target: l}, err
	case "bnz":
		l, err := needLabel()
		return BranchIfNonZero{Target: l}, err
	case "jmp":
		l, err := needLabel()
		return Jump{Target: l}, err
	case "pop":
		return Pop{}, nil
	case "ret":
		return Return{}, nil
	default:
		return nil, fmt.Errorf("unknown op %q", e.Op)
	}
}
