package lir

import (
	"strings"
	"testing"

	"github.com/orizon-lang/stackir/internal/ast"
)

func TestAnalyzeSample(t *testing.T) {
	a, err := Analyze(sampleFunction())
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if a.MaxDepth != 2 {
		t.Errorf("MaxDepth = %d, want 2", a.MaxDepth)
	}
	// L0 is reached both from the entry and from the back edge at depth 0.
	if d := a.Depth[a.LabelAt[0]]; d != 0 {
		t.Errorf("depth at L0 = %d, want 0", d)
	}
	if d := a.Depth[len(a.Depth)-1]; d != 1 {
		t.Errorf("depth at ret = %d, want 1", d)
	}
}

func TestAnalyzeUnreachable(t *testing.T) {
	f := &Function{
		Name: "f",
		Insns: []Insn{
			PushConst{Value: 1},
			Return{},
			Label{ID: 0},
			PushConst{Value: 0},
			Return{},
		},
	}
	a, err := Analyze(f)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	for _, idx := range []int{2, 3, 4} {
		if a.Depth[idx] != -1 {
			t.Errorf("instruction %d should be unreachable, depth %d", idx, a.Depth[idx])
		}
	}
}

func TestVerifyRejects(t *testing.T) {
	tests := []struct {
		name    string
		fn      *Function
		wantErr string
	}{
		{
			name:    "empty",
			fn:      &Function{Name: "f"},
			wantErr: "no instructions",
		},
		{
			name: "duplicate label",
			fn: &Function{Name: "f", Insns: []Insn{
				Label{ID: 1}, Label{ID: 1}, PushConst{}, Return{},
			}},
			wantErr: "already defined",
		},
		{
			name: "undefined label",
			fn: &Function{Name: "f", Insns: []Insn{
				Jump{Target: 9}, PushConst{}, Return{},
			}},
			wantErr: "undefined label L9",
		},
		{
			name: "slot out of range",
			fn: &Function{Name: "f", VarCount: 1, Insns: []Insn{
				PushLocalAddr{Slot: 1}, Load{}, Return{},
			}},
			wantErr: "slot 1 out of range",
		},
		{
			name: "underflow",
			fn: &Function{Name: "f", Insns: []Insn{
				PushConst{Value: 1}, Binary{Operator: ast.OpAdd}, Return{},
			}},
			wantErr: "binary needs 2 operand(s)",
		},
		{
			name: "return with leftovers",
			fn: &Function{Name: "f", Insns: []Insn{
				PushConst{Value: 1}, PushConst{Value: 2}, Return{},
			}},
			wantErr: "return with stack depth 2",
		},
		{
			name: "inconsistent merge",
			fn: &Function{Name: "f", Insns: []Insn{
				PushConst{Value: 1},
				BranchIfZero{Target: 0},
				PushConst{Value: 5},
				Label{ID: 0},
				PushConst{Value: 0},
				Return{},
			}},
			wantErr: "stack depth",
		},
		{
			name: "falls off end",
			fn: &Function{Name: "f", Insns: []Insn{
				PushConst{Value: 1}, Pop{},
			}},
			wantErr: "falls off the end",
		},
		{
			name: "missing trailing ret",
			fn: &Function{Name: "f", Insns: []Insn{
				PushConst{Value: 1}, Return{}, Label{ID: 0},
			}},
			wantErr: "does not end with ret",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Verify(tt.fn)
			if err == nil {
				t.Fatal("expected verification error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestVerifyNil(t *testing.T) {
	if err := Verify(nil); err == nil {
		t.Error("expected error for nil function")
	}
}
