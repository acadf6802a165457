package lir

import (
	"encoding/json"
	stderrors "errors"
	"reflect"
	"strings"
	"testing"

	"github.com/orizon-lang/stackir/internal/ast"
	"github.com/orizon-lang/stackir/internal/errors"
)

func sampleFunction() *Function {
	return &Function{
		Name:     "main",
		VarCount: 1,
		Insns: []Insn{
			PushConst{Value: 3},
			PushLocalAddr{Slot: 0},
			Store{},
			Pop{},
			Label{ID: 0},
			PushLocalAddr{Slot: 0},
			Load{},
			BranchIfZero{Target: 1},
			PushLocalAddr{Slot: 0},
			Load{},
			PushConst{Value: 1},
			Binary{Operator: ast.OpSub},
			PushLocalAddr{Slot: 0},
			Store{},
			Pop{},
			Jump{Target: 0},
			Label{ID: 1},
			PushConst{Value: 7},
			Unary{Operator: ast.OpNeg},
			Return{},
		},
	}
}

func TestFunctionString(t *testing.T) {
	got := sampleFunction().String()
	want := strings.Join([]string{
		"func main(vars=1) {",
		"  push 3",
		"  addr 0",
		"  store",
		"  pop",
		"L0:",
		"  addr 0",
		"  load",
		"  bz L1",
		"  addr 0",
		"  load",
		"  push 1",
		"  binary sub",
		"  addr 0",
		"  store",
		"  pop",
		"  jmp L0",
		"L1:",
		"  push 7",
		"  unary neg",
		"  ret",
		"}",
		"",
	}, "\n")
	if got != want {
		t.Errorf("String() mismatch\n got:\n%s\nwant:\n%s", got, want)
	}
}

func TestNilRendering(t *testing.T) {
	var p *Program
	if p.String() != "<nil-program>" {
		t.Errorf("nil program = %q", p.String())
	}
	var f *Function
	if f.String() != "<nil-func>" {
		t.Errorf("nil function = %q", f.String())
	}
}

func TestJSONRoundTrip(t *testing.T) {
	prog := &Program{Function: sampleFunction()}

	data, err := json.Marshal(prog)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"format":"1.0.0"`) {
		t.Errorf("encoded program missing format version: %s", data)
	}
	if !strings.Contains(string(data), `{"op":"bz","label":1}`) {
		t.Errorf("encoded program missing branch: %s", data)
	}

	back, err := DecodeProgram(data)
	if err != nil {
		t.Fatalf("DecodeProgram: %v", err)
	}
	if !reflect.DeepEqual(back, prog) {
		t.Errorf("round trip mismatch\n got: %s\nwant: %s", back, prog)
	}
}

func TestDecodeProgramErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"malformed", `{`, "failed to parse IR"},
		{"bad version", `{"format":"one","function":{"name":"f","code":[]}}`, "invalid IR format version"},
		{"future version", `{"format":"2.1.0","function":{"name":"f","code":[]}}`, "UNSUPPORTED_FORMAT"},
		{"no function", `{"format":"1.0.0"}`, "no function"},
		{"unknown op", `{"format":"1.0.0","function":{"name":"f","code":[{"op":"dup"}]}}`, "unknown op"},
		{"push without value", `{"format":"1.0.0","function":{"name":"f","code":[{"op":"push"}]}}`, "requires a value"},
		{"jmp without label", `{"format":"1.0.0","function":{"name":"f","code":[{"op":"jmp"}]}}`, "requires a label"},
		{"bad operator", `{"format":"1.0.0","function":{"name":"f","code":[{"op":"binary","operator":"pow"}]}}`, "unknown binary operator"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeProgram([]byte(tt.doc))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeMinorVersion(t *testing.T) {
	doc := `{"format":"1.4.2","function":{"name":"f","var_count":0,"code":[{"op":"push","value":0},{"op":"ret"}]}}`
	p, err := DecodeProgram([]byte(doc))
	if err != nil {
		t.Fatalf("DecodeProgram: %v", err)
	}
	if len(p.Function.Insns) != 2 {
		t.Errorf("got %d instructions", len(p.Function.Insns))
	}
}

func TestInvalidIRIsValidationError(t *testing.T) {
	doc := `{"format":"1.0.0","function":{"name":"f","code":[{"op":"push","value":1},{"op":"nope"}]}}`
	_, err := DecodeProgram([]byte(doc))
	se, ok := errors.As(err)
	if !ok {
		t.Fatalf("expected StandardError, got %T", err)
	}
	if se.Category != errors.CategoryValidation {
		t.Errorf("Category = %s", se.Category)
	}
	if idx, _ := se.Context["index"].(int); idx != 1 {
		t.Errorf("index = %v", se.Context["index"])
	}
	if stderrors.Is(err, errors.ErrUnboundVariable) {
		t.Error("validation error must not match lowering sentinels")
	}
}

func TestMarshalEmptyProgram(t *testing.T) {
	if _, err := json.Marshal(&Program{}); err == nil {
		t.Error("expected error encoding program without function")
	}
}
