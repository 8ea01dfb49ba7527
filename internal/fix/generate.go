package fix

import (
	"errors"
	"fmt"
	"strings"

	"greenlens/internal/diag"
	"greenlens/internal/messages"
	"greenlens/internal/source"
)

// ErrNotApplicable is returned when a fix kind does not apply to a finding.
var ErrNotApplicable = errors.New("fix kind does not apply to finding")

// Kind names an on-demand fix.
type Kind string

const (
	KindDefer Kind = "defer"
	KindAsync Kind = "async"
	KindGrid  Kind = "grid"
	KindFlex  Kind = "flex"
)

// Kinds lists every fix kind in suggestion order.
func Kinds() []Kind {
	return []Kind{KindDefer, KindAsync, KindGrid, KindFlex}
}

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds() {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown fix kind %q (want defer, async, grid or flex)", s)
}

// Codes returns the finding codes the kind applies to.
func (k Kind) Codes() []diag.Code {
	switch k {
	case KindDefer, KindAsync:
		return []diag.Code{diag.ScriptBlocking}
	case KindGrid, KindFlex:
		return []diag.Code{diag.DivCount, diag.DivNesting}
	}
	return nil
}

func (k Kind) appliesTo(code diag.Code) bool {
	for _, c := range k.Codes() {
		if c == code {
			return true
		}
	}
	return false
}

// AddAttribute inserts attr after the first "<script" of tag. Text without
// "<script" is returned unchanged.
func AddAttribute(tag, attr string) string {
	return strings.Replace(tag, "<script", "<script "+attr, 1)
}

// Layout is a CSS layout offered instead of nested divs.
type Layout string

const (
	LayoutGrid Layout = "grid"
	LayoutFlex Layout = "flex"
)

const (
	gridStyle = "<style>\n.grid-container {\n  display: grid;\n  grid-template-columns: repeat(auto-fit, minmax(200px, 1fr));\n  gap: 1rem;\n}\n</style>\n"
	flexStyle = "<style>\n.flex-container {\n  display: flex;\n  flex-wrap: wrap;\n  gap: 1rem;\n}\n</style>\n"
)

// StyleBlock returns the style element inserted for layout.
func StyleBlock(layout Layout) string {
	if layout == LayoutFlex {
		return flexStyle
	}
	return gridStyle
}

// Generator builds fixes for findings with localized titles.
type Generator struct {
	Messages *messages.Printer
}

func (g Generator) printer() *messages.Printer {
	if g.Messages == nil {
		return messages.Default()
	}
	return g.Messages
}

// Generate builds the fix of the given kind for d. file supplies the finding
// text when d carries no snippet and may be nil otherwise.
func (g Generator) Generate(file *source.File, d diag.Diagnostic, kind Kind) (diag.Fix, error) {
	if !kind.appliesTo(d.Code) {
		return diag.Fix{}, fmt.Errorf("%s fix for %s: %w", kind, d.Code, ErrNotApplicable)
	}
	id := fmt.Sprintf("%s-%s-%d", d.Code.ID(), kind, d.Primary.Start)
	p := g.printer()

	switch kind {
	case KindDefer, KindAsync:
		base := d.Snippet
		if base == "" && file != nil {
			base = file.Text(d.Primary)
		}
		updated := AddAttribute(base, string(kind))
		if updated == base {
			return diag.Fix{}, fmt.Errorf("%s fix: no <script in %q: %w", kind, base, ErrNotApplicable)
		}
		if kind == KindDefer {
			return ReplaceSpan(p.Sprintf(messages.FixAddDefer), d.Primary, updated, base,
				WithID(id), Preferred()), nil
		}
		return ReplaceSpan(p.Sprintf(messages.FixAddAsync), d.Primary, updated, base,
			WithID(id), WithApplicability(diag.FixApplicabilitySafeWithHeuristics)), nil

	default:
		title := p.Sprintf(messages.FixConvertGrid)
		layout := LayoutGrid
		if kind == KindFlex {
			title = p.Sprintf(messages.FixConvertFlex)
			layout = LayoutFlex
		}
		at := source.Span{File: d.Primary.File, Start: 0, End: 0}
		return InsertText(title, at, StyleBlock(layout), "",
			WithID(id),
			WithKind(diag.FixKindRefactorRewrite),
			WithApplicability(diag.FixApplicabilityManualReview)), nil
	}
}

// Suggest returns every applicable fix for d, preferred first.
func (g Generator) Suggest(file *source.File, d diag.Diagnostic) []diag.Fix {
	var out []diag.Fix
	for _, kind := range Kinds() {
		if !kind.appliesTo(d.Code) {
			continue
		}
		f, err := g.Generate(file, d, kind)
		if err != nil {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Generate builds a fix with English titles.
func Generate(file *source.File, d diag.Diagnostic, kind Kind) (diag.Fix, error) {
	return Generator{}.Generate(file, d, kind)
}

// Suggest returns every applicable fix for d with English titles.
func Suggest(file *source.File, d diag.Diagnostic) []diag.Fix {
	return Generator{}.Suggest(file, d)
}
