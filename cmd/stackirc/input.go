package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/orizon-lang/stackir/internal/astbridge"
	"github.com/orizon-lang/stackir/internal/lir"
	"github.com/orizon-lang/stackir/internal/lower"
	"github.com/orizon-lang/stackir/internal/resolver"
)

// unit is one input file and what became of it.
type unit struct {
	path     string
	prog     *lir.Program
	warnings []resolver.Warning
	err      error
}

// isIRDocument reports whether data is already lowered IR, recognised by its
// top-level "format" key.
func isIRDocument(data []byte) bool {
	var head struct {
		Format *string `json:"format"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return false
	}
	return head.Format != nil
}

// load reads path and returns its IR, lowering AST documents first.
func load(path string) unit {
	u := unit{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		u.err = fmt.Errorf("failed to read %s: %w", path, err)
		return u
	}

	if isIRDocument(bytes.TrimSpace(data)) {
		u.prog, u.err = lir.DecodeProgram(data)
		return u
	}

	p, err := astbridge.Decode(data, path)
	if err != nil {
		u.err = err
		return u
	}
	u.prog, u.err = lower.LowerProgramWithOptions(p, lower.Options{
		OnWarning: func(w resolver.Warning) { u.warnings = append(u.warnings, w) },
	})
	return u
}

// render formats a program as text or JSON.
func render(p *lir.Program, emit string) ([]byte, error) {
	switch emit {
	case "json":
		data, err := json.Marshal(p)
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case "text", "":
		return []byte(p.String()), nil
	default:
		return nil, fmt.Errorf("%w: unknown emit format %q", errUsage, emit)
	}
}

// checkEmit rejects an emit format before any input is loaded.
func checkEmit(emit string) error {
	_, err := render(&lir.Program{Function: &lir.Function{}}, emit)
	return err
}
