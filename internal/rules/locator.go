package rules

import (
	"greenlens/internal/markup"
	"greenlens/internal/source"
)

// Locator maps parsed elements back to ranges of the source file.
type Locator struct {
	file   *source.File
	mode   PositionMode
	cursor int
}

func NewLocator(file *source.File, mode PositionMode) *Locator {
	return &Locator{file: file, mode: mode}
}

// Span returns the range of n. ok is false when the element text cannot be
// found, in which case the caller skips the element.
func (l *Locator) Span(n *markup.Node) (source.Span, bool) {
	if l == nil || l.file == nil || n == nil {
		return source.Span{}, false
	}
	switch l.mode {
	case PositionsSearch:
		return l.file.LocateSpan(n.OuterHTML())
	case PositionsOrdered:
		sp, ok := l.file.LocateSpanFrom(n.OuterHTML(), l.cursor)
		if ok {
			l.cursor = int(sp.Start) + 1
		}
		return sp, ok
	default:
		if n.End <= n.Start || n.End > len(l.file.Content) {
			return source.Span{}, false
		}
		return l.file.Span(n.Start, n.End), true
	}
}
