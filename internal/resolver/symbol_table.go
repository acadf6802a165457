// Package resolver provides lexical scope management for one function:
// a stack of per-block symbol tables that allocates local slots and
// resolves names innermost-first.
package resolver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/orizon-lang/stackir/internal/ast"
	"github.com/orizon-lang/stackir/internal/errors"
	"github.com/orizon-lang/stackir/internal/lir"
	"github.com/orizon-lang/stackir/internal/position"
)

// Symbol is a declared local variable.
type Symbol struct {
	Decl       *ast.DeclarationStatement // nil for symbols declared without a node
	Name       string
	DeclSpan   position.Span
	Slot       lir.SlotID
	UsageCount int
}

// Scope is the symbol table of one lexical block.
type Scope struct {
	Symbols map[string]*Symbol
	Depth   int
}

// WarningKind represents the kind of resolution warning.
type WarningKind int

const (
	WarningKindShadowedSymbol WarningKind = iota
	WarningKindUnusedSymbol
)

func (k WarningKind) String() string {
	switch k {
	case WarningKindShadowedSymbol:
		return "shadowed"
	case WarningKindUnusedSymbol:
		return "unused"
	default:
		return "unknown"
	}
}

// Warning is a non-fatal observation made while resolving names.
type Warning struct {
	Message string
	Symbol  string
	Span    position.Span
	Kind    WarningKind
}

// SymbolTable is the scope stack of one function. Slot ids are allocated
// sequentially across the whole function and never reused, even after the
// declaring scope is exited.
type SymbolTable struct {
	scopes   []*Scope
	warnings []Warning
	nextSlot lir.SlotID
}

// NewSymbolTable creates an empty table. Call EnterScope before declaring.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{}
}

// EnterScope pushes a new innermost scope.
func (st *SymbolTable) EnterScope() {
	st.scopes = append(st.scopes, &Scope{
		Symbols: make(map[string]*Symbol),
		Depth:   len(st.scopes),
	})
}

// ExitScope pops the innermost scope. Symbols that were never read are
// reported as unused warnings.
func (st *SymbolTable) ExitScope() {
	if len(st.scopes) == 0 {
		panic("resolver: ExitScope without matching EnterScope")
	}
	top := st.scopes[len(st.scopes)-1]
	st.scopes = st.scopes[:len(st.scopes)-1]

	for _, name := range sortedNames(top) {
		sym := top.Symbols[name]
		if sym.UsageCount == 0 {
			st.warnings = append(st.warnings, Warning{
				Kind:    WarningKindUnusedSymbol,
				Symbol:  name,
				Span:    sym.DeclSpan,
				Message: fmt.Sprintf("variable `%s` declared but never used", name),
			})
		}
	}
}

// Depth returns the number of open scopes.
func (st *SymbolTable) Depth() int { return len(st.scopes) }

// SlotCount returns how many slots have been allocated so far.
func (st *SymbolTable) SlotCount() uint32 { return uint32(st.nextSlot) }

// Warnings returns the warnings collected so far.
func (st *SymbolTable) Warnings() []Warning { return st.warnings }

// Declare binds name in the innermost scope to a fresh slot. It fails with a
// DUPLICATE_DECLARATION error when the innermost scope already binds name.
// Shadowing a binding of an outer scope is allowed.
func (st *SymbolTable) Declare(name string, decl *ast.DeclarationStatement) (lir.SlotID, error) {
	if len(st.scopes) == 0 {
		panic("resolver: Declare called outside any scope")
	}

	var span position.Span
	if decl != nil {
		span = decl.Span
	}

	current := st.scopes[len(st.scopes)-1]
	if _, exists := current.Symbols[name]; exists {
		return 0, errors.DuplicateDeclaration(name, span)
	}

	if outer, ok := st.Lookup(name); ok {
		st.warnings = append(st.warnings, Warning{
			Kind:    WarningKindShadowedSymbol,
			Symbol:  name,
			Span:    span,
			Message: fmt.Sprintf("declaration of `%s` shadows slot %d", name, outer.Slot),
		})
	}

	slot := st.nextSlot
	st.nextSlot++
	current.Symbols[name] = &Symbol{
		Name:     name,
		Slot:     slot,
		Decl:     decl,
		DeclSpan: span,
	}
	return slot, nil
}

// Resolve returns the slot of the innermost binding of name, failing with an
// UNBOUND_VARIABLE error attributed to span when no open scope binds it.
func (st *SymbolTable) Resolve(name string, span position.Span) (lir.SlotID, error) {
	sym, ok := st.Lookup(name)
	if !ok {
		return 0, errors.UnboundVariable(name, span)
	}
	sym.UsageCount++
	return sym.Slot, nil
}

// Lookup searches the open scopes innermost-first without recording a use.
func (st *SymbolTable) Lookup(name string) (*Symbol, bool) {
	for i := len(st.scopes) - 1; i >= 0; i-- {
		if sym, ok := st.scopes[i].Symbols[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// String returns a deterministically ordered dump of the open scopes.
func (st *SymbolTable) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Slots allocated: %d\n", st.nextSlot)
	if len(st.scopes) == 0 {
		sb.WriteString("Scopes: (none)\n")
		return sb.String()
	}
	for _, scope := range st.scopes {
		fmt.Fprintf(&sb, "  Scope %d:\n", scope.Depth)
		for _, name := range sortedNames(scope) {
			sym := scope.Symbols[name]
			fmt.Fprintf(&sb, "    %-20s  Slot: %d (Uses: %d)\n", name, sym.Slot, sym.UsageCount)
		}
	}
	return sb.String()
}

func sortedNames(scope *Scope) []string {
	names := make([]string, 0, len(scope.Symbols))
	for name := range scope.Symbols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
