package lower

import (
	"github.com/orizon-lang/stackir/internal/errors"
	"github.com/orizon-lang/stackir/internal/lir"
	"github.com/orizon-lang/stackir/internal/position"
)

// loopContext is the pair of jump targets of one enclosing loop.
type loopContext struct {
	breakLabel    lir.LabelID
	continueLabel lir.LabelID
}

// LoopStack tracks the break/continue targets of the lexically enclosing loops.
type LoopStack struct {
	loops []loopContext
}

// Enter pushes the targets of a loop whose body is about to be lowered.
func (s *LoopStack) Enter(breakLabel, continueLabel lir.LabelID) {
	s.loops = append(s.loops, loopContext{breakLabel: breakLabel, continueLabel: continueLabel})
}

// Exit pops the innermost loop.
func (s *LoopStack) Exit() {
	if len(s.loops) == 0 {
		panic("lower: LoopStack.Exit without matching Enter")
	}
	s.loops = s.loops[:len(s.loops)-1]
}

// Depth returns the number of enclosing loops.
func (s *LoopStack) Depth() int { return len(s.loops) }

// BreakTarget returns the innermost break label. span locates the break
// statement for the error raised outside any loop.
func (s *LoopStack) BreakTarget(span position.Span) (lir.LabelID, error) {
	if len(s.loops) == 0 {
		return 0, errors.BreakOutsideLoop(span)
	}
	return s.loops[len(s.loops)-1].breakLabel, nil
}

// ContinueTarget returns the innermost continue label.
func (s *LoopStack) ContinueTarget(span position.Span) (lir.LabelID, error) {
	if len(s.loops) == 0 {
		return 0, errors.ContinueOutsideLoop(span)
	}
	return s.loops[len(s.loops)-1].continueLabel, nil
}
