package lower

import "github.com/orizon-lang/stackir/internal/lir"

// LabelAllocator issues strictly increasing label ids for one function.
type LabelAllocator struct {
	next lir.LabelID
}

// Next returns a label id that has not been handed out before.
func (a *LabelAllocator) Next() lir.LabelID {
	id := a.next
	a.next++
	return id
}

// Count returns how many labels have been allocated.
func (a *LabelAllocator) Count() int { return int(a.next) }
