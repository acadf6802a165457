// Package position tracks where AST nodes came from so that lowering errors
// can point back at the offending construct.
package position

import (
	"fmt"
	"path/filepath"
)

// Position is a single point in an input document.
type Position struct {
	Filename string // Document the node was read from
	Line     int    // 1-based line number
	Column   int    // 1-based column number
}

// IsValid reports whether the position carries a line and column.
func (p Position) IsValid() bool {
	return p.Line > 0 && p.Column > 0
}

// String returns file:line:col, or line:col when the filename is unknown.
func (p Position) String() string {
	if p.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", filepath.Base(p.Filename), p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Before orders positions by filename, then line and column.
func (p Position) Before(other Position) bool {
	if p.Filename != other.Filename {
		return p.Filename < other.Filename
	}
	if p.Line != other.Line {
		return p.Line < other.Line
	}
	return p.Column < other.Column
}

// Span is a range between two positions. End is exclusive.
type Span struct {
	Start Position
	End   Position
}

// At returns a zero-width span at pos.
func At(pos Position) Span {
	return Span{Start: pos, End: pos}
}

// IsValid reports whether both ends are valid, in one file and ordered.
func (s Span) IsValid() bool {
	return s.Start.IsValid() && s.End.IsValid() &&
		s.Start.Filename == s.End.Filename &&
		!s.End.Before(s.Start)
}

// String renders the span compactly; a span without a position renders as "-".
func (s Span) String() string {
	if !s.Start.IsValid() {
		return "-"
	}
	if !s.End.IsValid() || s.End == s.Start {
		return s.Start.String()
	}
	prefix := ""
	if s.Start.Filename != "" {
		prefix = filepath.Base(s.Start.Filename) + ":"
	}
	if s.Start.Line == s.End.Line {
		return fmt.Sprintf("%s%d:%d-%d", prefix, s.Start.Line, s.Start.Column, s.End.Column)
	}
	return fmt.Sprintf("%s%d:%d-%d:%d", prefix, s.Start.Line, s.Start.Column, s.End.Line, s.End.Column)
}
