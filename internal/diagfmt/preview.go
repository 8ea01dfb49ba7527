package diagfmt

import (
	"fmt"
	"strings"

	"greenlens/internal/diag"
	"greenlens/internal/source"
)

// editPreview holds the whole lines an edit touches, before and after it.
type editPreview struct {
	before []string
	after  []string
}

func previewEdit(fs *source.FileSet, edit diag.TextEdit) (editPreview, error) {
	file := fs.Get(edit.Span.File)
	if file == nil {
		return editPreview{}, fmt.Errorf("file %d not found in FileSet", edit.Span.File)
	}
	text := string(file.Content)
	start, end := int(edit.Span.Start), int(edit.Span.End)
	if start > end || end > len(text) {
		return editPreview{}, fmt.Errorf("edit span %d-%d outside file of %d bytes", start, end, len(text))
	}

	lineStart := strings.LastIndexByte(text[:start], '\n') + 1
	lineEnd := len(text)
	if i := strings.IndexByte(text[end:], '\n'); i >= 0 {
		lineEnd = end + i
	}
	return editPreview{
		before: previewLines(text[lineStart:lineEnd]),
		after:  previewLines(text[lineStart:start] + edit.NewText + text[end:lineEnd]),
	}, nil
}

func previewLines(block string) []string {
	block = strings.TrimRight(block, "\r\n")
	if block == "" {
		return nil
	}
	lines := strings.Split(block, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
