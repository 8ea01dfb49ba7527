package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"greenlens/internal/diag"
	"greenlens/internal/source"
)

type palette struct {
	path, info, warning, err, code, gutter, caret, note, fix *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		path:    color.New(color.Bold),
		info:    color.New(color.FgCyan, color.Bold),
		warning: color.New(color.FgYellow, color.Bold),
		err:     color.New(color.FgRed, color.Bold),
		code:    color.New(color.FgMagenta),
		gutter:  color.New(color.FgBlue),
		caret:   color.New(color.FgGreen, color.Bold),
		note:    color.New(color.FgCyan),
		fix:     color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{p.path, p.info, p.warning, p.err, p.code, p.gutter, p.caret, p.note, p.fix} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warning
	}
	return p.info
}

// Pretty renders diagnostics for humans. Items are printed in bag order
// (call bag.Sort() first). Each diagnostic prints
//
//	<path>:<line>:<col>: <SEV> <rule> [<ID>]: <message>
//
// followed by the source line with a ^~~ underline, then notes and fixes
// when enabled.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	if bag == nil || fs == nil {
		return
	}
	pal := newPalette(opts.Color)
	for i, d := range bag.Items() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		prettyOne(w, &d, fs, opts, pal)
	}
}

func prettyOne(w io.Writer, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, pal palette) {
	file := fs.Get(d.Primary.File)
	if file == nil {
		fmt.Fprintf(w, "%s %s [%s]: %s\n", pal.severity(d.Severity).Sprint(d.Severity.String()), d.Code, d.Code.ID(), d.Message)
		return
	}
	start, end := file.Resolve(d.Primary)
	path := formatPath(fs, file, opts.PathMode)

	fmt.Fprintf(w, "%s: %s %s: %s\n",
		pal.path.Sprintf("%s:%d:%d", path, start.Line, start.Col),
		pal.severity(d.Severity).Sprint(d.Severity.String()),
		pal.code.Sprintf("%s [%s]", d.Code, d.Code.ID()),
		d.Message,
	)

	writeSnippet(w, file, start, end, opts, pal)

	if d.Context != "" {
		fmt.Fprintf(w, "  %s %s\n", pal.note.Sprint("context:"), d.Context)
	}

	if opts.ShowNotes {
		for _, n := range d.Notes {
			nf := fs.Get(n.Span.File)
			if nf == nil {
				continue
			}
			ns, _ := nf.Resolve(n.Span)
			fmt.Fprintf(w, "  %s %s:%d:%d: %s\n", pal.note.Sprint("note:"), formatPath(fs, nf, opts.PathMode), ns.Line, ns.Col, n.Msg)
		}
	}

	if opts.ShowFixes {
		for i, f := range d.Fixes {
			writeFix(w, i+1, f, fs, opts, pal)
		}
	}
}

func writeSnippet(w io.Writer, file *source.File, start, end source.LineCol, opts PrettyOpts, pal palette) {
	first := start.Line
	if ctx := uint32(max(opts.Context, 0)); first > ctx {
		first -= ctx
	} else {
		first = 1
	}
	last := start.Line + uint32(max(opts.Context, 0))
	if total := uint32(len(file.LineIdx)) + 1; last > total {
		last = total
	}
	gutterWidth := len(strconv.FormatUint(uint64(last), 10))

	for ln := first; ln <= last; ln++ {
		text := expandTabs(file.GetLine(ln))
		if opts.Width > 0 && runewidth.StringWidth(text) > int(opts.Width) {
			text = runewidth.Truncate(text, int(opts.Width), "…")
		}
		fmt.Fprintf(w, " %s %s\n", pal.gutter.Sprintf("%*d |", gutterWidth, ln), text)
		if ln != start.Line {
			continue
		}

		raw := file.GetLine(ln)
		prefix := byteSlice(raw, int(start.Col)-1)
		rest := raw[len(prefix):]
		markLen := len(rest)
		if end.Line == start.Line {
			markLen = min(max(int(end.Col)-int(start.Col), 0), len(rest))
		}
		marked := byteSlice(rest, markLen)
		pad := runewidth.StringWidth(expandTabs(prefix))
		width := max(runewidth.StringWidth(expandTabs(marked)), 1)
		underline := "^" + strings.Repeat("~", width-1)
		fmt.Fprintf(w, " %s %s%s\n", pal.gutter.Sprintf("%*s |", gutterWidth, ""), strings.Repeat(" ", pad), pal.caret.Sprint(underline))
	}
}

func writeFix(w io.Writer, n int, f diag.Fix, fs *source.FileSet, opts PrettyOpts, pal palette) {
	meta := []string{f.Applicability.String(), f.Kind.String()}
	if f.ID != "" {
		meta = append([]string{"id=" + f.ID}, meta...)
	}
	if f.IsPreferred {
		meta = append(meta, "preferred")
	}
	fmt.Fprintf(w, "  %s %s [%s]\n", pal.fix.Sprintf("fix #%d:", n), f.Title, strings.Join(meta, ", "))

	for _, e := range f.Edits {
		ef := fs.Get(e.Span.File)
		if ef == nil {
			continue
		}
		es, ee := ef.Resolve(e.Span)
		fmt.Fprintf(w, "    edit %s:%d:%d-%d:%d apply=%q\n", formatPath(fs, ef, opts.PathMode), es.Line, es.Col, ee.Line, ee.Col, e.NewText)

		if !opts.ShowPreview {
			continue
		}
		preview, err := previewEdit(fs, e)
		if err != nil {
			continue
		}
		fmt.Fprintln(w, "    preview:")
		for _, l := range preview.before {
			fmt.Fprintf(w, "      - %s\n", l)
		}
		for _, l := range preview.after {
			fmt.Fprintf(w, "      + %s\n", l)
		}
	}
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}

// byteSlice returns the first n bytes of s, clamped and cut on a rune boundary.
func byteSlice(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if n >= len(s) {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
