package lsp

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"fortio.org/safecast"

	"greenlens/internal/source"
)

// Positions on the wire count UTF-16 code units; the rest of greenlens
// works in byte offsets.

// byteColumn returns how many bytes of line the first units UTF-16 code
// units cover. It never splits a rune and stops at the end of line.
func byteColumn(line string, units int) int {
	n := 0
	for i, r := range line {
		w := max(utf16.RuneLen(r), 1)
		if n+w > units {
			return i
		}
		n += w
	}
	return len(line)
}

func utf16Units(s string) int {
	n := 0
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		n += max(utf16.RuneLen(r), 1)
		s = s[size:]
	}
	return n
}

func toU32(n int) uint32 {
	v, err := safecast.Conv[uint32](max(n, 0))
	if err != nil {
		return ^uint32(0)
	}
	return v
}

// offsetForPositionInFile maps an LSP position to a byte offset of file.
// Lines past the end clamp to the file length, columns to the line end.
func offsetForPositionInFile(file *source.File, pos position) uint32 {
	if file == nil || pos.Line < 0 || pos.Character < 0 {
		return 0
	}
	if pos.Line > len(file.LineIdx) {
		return file.Len()
	}
	start, end := uint32(0), file.Len()
	if pos.Line > 0 {
		start = file.LineIdx[pos.Line-1] + 1
	}
	if pos.Line < len(file.LineIdx) {
		end = file.LineIdx[pos.Line]
	}
	line := string(file.Content[start:end])
	return start + toU32(byteColumn(line, pos.Character))
}

func positionForOffsetInFile(file *source.File, off uint32) position {
	if file == nil {
		return position{}
	}
	off = min(off, file.Len())
	lc := file.LineCol(off)
	start := off - (lc.Col - 1)
	return position{
		Line:      int(lc.Line0()),
		Character: utf16Units(string(file.Content[start:off])),
	}
}

func rangeForSpan(file *source.File, span source.Span) lspRange {
	return lspRange{
		Start: positionForOffsetInFile(file, span.Start),
		End:   positionForOffsetInFile(file, span.End),
	}
}

func spanForRange(file *source.File, r lspRange) source.Span {
	if file == nil {
		return source.Span{}
	}
	start := offsetForPositionInFile(file, r.Start)
	return source.Span{File: file.ID, Start: start, End: max(offsetForPositionInFile(file, r.End), start)}
}

// rangesOverlap treats both ranges as closed, so a cursor touching a
// diagnostic still selects it.
func rangesOverlap(a, b lspRange) bool {
	return !before(a.End, b.Start) && !before(b.End, a.Start)
}

func before(a, b position) bool {
	return a.Line < b.Line || (a.Line == b.Line && a.Character < b.Character)
}

// applyChanges applies didChange events in order. An event without a range
// replaces the whole text.
func applyChanges(text string, changes []textDocumentContentChangeEvent) string {
	for _, c := range changes {
		if c.Range == nil {
			text = c.Text
			continue
		}
		start := offsetInText(text, c.Range.Start)
		end := max(offsetInText(text, c.Range.End), start)
		text = text[:start] + c.Text + text[end:]
	}
	return text
}

func offsetInText(text string, pos position) int {
	if pos.Line < 0 || pos.Character < 0 {
		return 0
	}
	start := 0
	for range pos.Line {
		nl := strings.IndexByte(text[start:], '\n')
		if nl < 0 {
			return len(text)
		}
		start += nl + 1
	}
	line := text[start:]
	if nl := strings.IndexByte(line, '\n'); nl >= 0 {
		line = line[:nl]
	}
	return start + byteColumn(line, pos.Character)
}
