package fix

import (
	"greenlens/internal/diag"
	"greenlens/internal/source"
)

// Option adjusts a fix built by InsertText or ReplaceSpan.
type Option func(*diag.Fix)

// WithID sets the fix identifier used by `greenlens fix --id`.
func WithID(id string) Option { return func(f *diag.Fix) { f.ID = id } }

// WithKind changes the fix classification from quick fix.
func WithKind(kind diag.FixKind) Option { return func(f *diag.Fix) { f.Kind = kind } }

// WithApplicability lowers or raises how safely the fix applies unattended.
func WithApplicability(app diag.FixApplicability) Option {
	return func(f *diag.Fix) { f.Applicability = app }
}

// Preferred marks the fix editors should offer first.
func Preferred() Option { return func(f *diag.Fix) { f.IsPreferred = true } }

// ReplaceSpan builds a single-edit quick fix that swaps the text under span
// for newText. A non-empty guard must match the current text.
func ReplaceSpan(title string, span source.Span, newText, guard string, opts ...Option) diag.Fix {
	f := diag.Fix{
		Title:         title,
		Kind:          diag.FixKindQuickFix,
		Applicability: diag.FixApplicabilityAlwaysSafe,
		Edits:         []diag.TextEdit{{Span: span, NewText: newText, OldText: guard}},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&f)
		}
	}
	return f
}

// InsertText is ReplaceSpan at the start of at.
func InsertText(title string, at source.Span, text, guard string, opts ...Option) diag.Fix {
	at.End = at.Start
	return ReplaceSpan(title, at, text, guard, opts...)
}
