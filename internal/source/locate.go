package source

import (
	"bytes"
	"strings"
)

// Locate finds the first occurrence of fragment in text and returns its
// half-open byte range. ok is false when the fragment is empty or absent,
// e.g. when a serializer normalized whitespace that the source kept.
// Matching is exact; there is no fuzzy fallback.
func Locate(text, fragment string) (start, end int, ok bool) {
	return LocateFrom(text, fragment, 0)
}

// LocateFrom is Locate restricted to matches starting at or after from.
func LocateFrom(text, fragment string, from int) (start, end int, ok bool) {
	if fragment == "" || from < 0 || from > len(text) {
		return 0, 0, false
	}
	idx := strings.Index(text[from:], fragment)
	if idx < 0 {
		return 0, 0, false
	}
	start = from + idx
	return start, start + len(fragment), true
}

// LocateSpan searches the file content for the first occurrence of fragment.
func (f *File) LocateSpan(fragment string) (Span, bool) {
	return f.LocateSpanFrom(fragment, 0)
}

// LocateSpanFrom searches the file content for fragment starting at byte offset from.
func (f *File) LocateSpanFrom(fragment string, from int) (Span, bool) {
	if fragment == "" || from < 0 || from > len(f.Content) {
		return Span{}, false
	}
	idx := bytes.Index(f.Content[from:], []byte(fragment))
	if idx < 0 {
		return Span{}, false
	}
	start := from + idx
	return f.Span(start, start+len(fragment)), true
}
