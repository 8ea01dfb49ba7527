package diagfmt

import (
	"cmp"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"greenlens/internal/diag"
	"greenlens/internal/source"
)

type shortLine struct {
	path     string
	line     uint32
	col      uint32
	severity string
	rule     string
	message  string
}

// Short writes one line per finding, "<severity> <rule> <path>:<line>:<col> <message>",
// sorted by location. Paths are relative to the FileSet base directory and
// messages are flattened to a single line.
func Short(w io.Writer, bag *diag.Bag, fs *source.FileSet, includeNotes bool) error {
	if bag == nil || bag.Len() == 0 || fs == nil {
		return nil
	}

	lines := make([]shortLine, 0, bag.Len())
	for _, d := range bag.Items() {
		if l, ok := newShortLine(fs, d.Primary, severityWord(d.Severity), d.Code, d.Message); ok {
			lines = append(lines, l)
		}
		if !includeNotes {
			continue
		}
		for _, note := range d.Notes {
			if l, ok := newShortLine(fs, note.Span, "note", d.Code, note.Msg); ok {
				lines = append(lines, l)
			}
		}
	}
	slices.SortStableFunc(lines, func(a, b shortLine) int {
		return cmp.Or(
			cmp.Compare(a.path, b.path),
			cmp.Compare(a.line, b.line),
			cmp.Compare(a.col, b.col),
			cmp.Compare(a.severity, b.severity),
			cmp.Compare(a.rule, b.rule),
			cmp.Compare(a.message, b.message),
		)
	})

	var b strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&b, "%s %s %s:%d:%d %s\n", l.severity, l.rule, l.path, l.line, l.col, l.message)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func newShortLine(fs *source.FileSet, span source.Span, severity string, code diag.Code, msg string) (shortLine, bool) {
	file := fs.Get(span.File)
	if file == nil {
		return shortLine{}, false
	}
	start, _ := file.Resolve(span)
	path := filepath.ToSlash(file.FormatPath("relative", fs.BaseDir()))
	for strings.HasPrefix(path, "./") {
		path = path[2:]
	}
	return shortLine{
		path:     path,
		line:     start.Line,
		col:      start.Col,
		severity: severity,
		rule:     code.String(),
		message:  singleLine(msg),
	}, true
}

func severityWord(sev diag.Severity) string {
	return strings.ToLower(sev.String())
}

func singleLine(msg string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(msg), " "))
}
