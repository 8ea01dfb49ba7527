package rules

import (
	"greenlens/internal/diag"
	"greenlens/internal/markup"
	"greenlens/internal/messages"
	"greenlens/internal/source"
)

// CheckScripts reports external scripts that block parsing or rendering:
// every such script inside the first head element, and those inside the
// first body element that start on or before opts.EarlyBodyLine.
func CheckScripts(doc *markup.Document, file *source.File, opts Options, r diag.Reporter) {
	loc := NewLocator(file, opts.Positions)
	p := opts.printer()

	if head := doc.Head(); head != nil {
		for _, script := range head.FindAll("script") {
			sp, ok := loc.Span(script)
			if !ok {
				continue
			}
			if IsBlockingScript(script) {
				reportScript(r, p, file, sp, diag.ContextHead)
			}
		}
	}

	if body := doc.Body(); body != nil {
		for _, script := range body.FindAll("script") {
			sp, ok := loc.Span(script)
			if !ok {
				continue
			}
			if int(file.LineCol(sp.Start).Line0()) > opts.EarlyBodyLine {
				continue
			}
			if IsBlockingScript(script) {
				reportScript(r, p, file, sp, diag.ContextEarlyBody)
			}
		}
	}
}

// IsBlockingScript reports whether n loads an external script synchronously:
// a non-empty src and neither defer nor async.
func IsBlockingScript(n *markup.Node) bool {
	if !n.IsElement("script") {
		return false
	}
	src, ok := n.Attr("src")
	if !ok || src == "" {
		return false
	}
	return !n.HasAttr("defer") && !n.HasAttr("async")
}

// BlockingScripts returns every blocking script of doc regardless of placement.
func BlockingScripts(doc *markup.Document) []*markup.Node {
	var out []*markup.Node
	for _, n := range doc.FindAll("script") {
		if IsBlockingScript(n) {
			out = append(out, n)
		}
	}
	return out
}

func reportScript(r diag.Reporter, p *messages.Printer, file *source.File, sp source.Span, context string) {
	key := messages.ScriptHead
	if context == diag.ContextEarlyBody {
		key = messages.ScriptEarlyBody
	}
	diag.ReportWarning(r, diag.ScriptBlocking, sp, p.Sprintf(key)).
		WithContext(context, file.Text(sp)).
		Emit()
}
