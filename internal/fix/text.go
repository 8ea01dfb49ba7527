package fix

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"greenlens/internal/diag"
)

var (
	// ErrConflict is returned by ApplyText for overlapping edits.
	ErrConflict = errors.New("overlapping edits")
	// ErrStale is returned when an edit's guard text no longer matches.
	ErrStale = errors.New("existing text does not match expected content")

	errOutOfRange = errors.New("edit span out of range")
)

// ApplyText applies edits to content in memory. Spans are offsets into the
// original content; the file component is ignored. Overlapping edits fail
// with ErrConflict and guard mismatches with ErrStale.
func ApplyText(content string, edits []diag.TextEdit) (string, error) {
	sorted := slices.Clone(edits)
	slices.SortStableFunc(sorted, func(a, b diag.TextEdit) int {
		return cmp.Or(cmp.Compare(a.Span.Start, b.Span.Start), cmp.Compare(a.Span.End, b.Span.End))
	})
	for i := 1; i < len(sorted); i++ {
		if editsOverlap(sorted[i-1], sorted[i]) {
			return content, fmt.Errorf("%v and %v: %w", sorted[i-1].Span, sorted[i].Span, ErrConflict)
		}
	}

	// validate everything before building the output
	for _, e := range sorted {
		start, end := int(e.Span.Start), int(e.Span.End)
		if start > end || end > len(content) {
			return content, fmt.Errorf("edit %v (len %d): %w", e.Span, len(content), errOutOfRange)
		}
		if e.OldText != "" && content[start:end] != e.OldText {
			return content, fmt.Errorf("edit %v: %w", e.Span, ErrStale)
		}
	}

	out := make([]byte, 0, len(content))
	prev := 0
	for _, e := range sorted {
		out = append(out, content[prev:e.Span.Start]...)
		out = append(out, e.NewText...)
		prev = int(e.Span.End)
	}
	out = append(out, content[prev:]...)
	return string(out), nil
}

// editsOverlap treats spans as half-open. Two insertions never overlap; an
// insertion overlaps a replacement that strictly contains its position or
// starts at it.
func editsOverlap(a, b diag.TextEdit) bool {
	aIns, bIns := a.Span.Empty(), b.Span.Empty()
	switch {
	case aIns && bIns:
		return false
	case aIns:
		return b.Span.Contains(a.Span.Start)
	case bIns:
		return a.Span.Contains(b.Span.Start)
	default:
		return a.Span.Start < b.Span.End && b.Span.Start < a.Span.End
	}
}
