package rules

import (
	"greenlens/internal/diag"
	"greenlens/internal/markup"
	"greenlens/internal/messages"
	"greenlens/internal/source"
)

// CheckDivCount reports a single finding at the first div of body carrying
// the total number of div descendants.
func CheckDivCount(doc *markup.Document, file *source.File, opts Options, r diag.Reporter) {
	body := doc.Body()
	if body == nil {
		return
	}
	divs := body.FindAll("div")
	if len(divs) == 0 {
		return
	}
	sp, ok := NewLocator(file, opts.Positions).Span(divs[0])
	if !ok {
		return
	}
	diag.ReportWarning(r, diag.DivCount, sp, opts.printer().Sprintf(messages.DivCount, len(divs))).
		WithContext("", file.Text(sp)).
		Emit()
}

// CheckDivNesting walks body depth-first and reports every div whose div
// nesting level reaches opts.NestingLevel. Only divs raise the level.
func CheckDivNesting(doc *markup.Document, file *source.File, opts Options, r diag.Reporter) {
	body := doc.Body()
	if body == nil {
		return
	}
	p := opts.printer()
	w := nestingWalker{
		loc:   NewLocator(file, opts.Positions),
		file:  file,
		limit: opts.nestingLevel(),
		msg:   p.Sprintf(messages.DivNesting),
		note:  p.Sprintf(messages.NestingOrigin),
		r:     r,
	}
	w.walk(body, 0, nil)
}

type nestingWalker struct {
	loc   *Locator
	file  *source.File
	limit int
	msg   string
	note  string
	r     diag.Reporter

	// outerSpan is located when the chain starts so ordered positions see
	// the outer div before any of its descendants.
	outerSpan source.Span
	outerOK   bool
}

// walk carries the outermost div of the current chain so findings can
// point back at it.
func (w *nestingWalker) walk(n *markup.Node, level int, outer *markup.Node) {
	if n.IsElement("div") {
		level++
		if outer == nil {
			outer = n
			w.outerSpan, w.outerOK = w.loc.Span(n)
		}
		if level >= w.limit {
			w.report(n, outer)
		}
	}
	for _, c := range n.Elements() {
		w.walk(c, level, outer)
	}
}

func (w *nestingWalker) report(n, outer *markup.Node) {
	if outer == n {
		if w.outerOK {
			diag.ReportWarning(w.r, diag.DivNesting, w.outerSpan, w.msg).
				WithContext("", w.file.Text(w.outerSpan)).
				Emit()
		}
		return
	}
	sp, ok := w.loc.Span(n)
	if !ok {
		return
	}
	b := diag.ReportWarning(w.r, diag.DivNesting, sp, w.msg).WithContext("", w.file.Text(sp))
	if w.outerOK {
		b.WithNote(w.outerSpan, w.note)
	}
	b.Emit()
}

// FirstBodyDiv returns the first div inside body in document order, or nil.
func FirstBodyDiv(doc *markup.Document) *markup.Node {
	body := doc.Body()
	if body == nil {
		return nil
	}
	return body.Find("div")
}
