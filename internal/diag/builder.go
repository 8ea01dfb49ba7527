package diag

import (
	"slices"

	"greenlens/internal/source"
)

// New returns a diagnostic without notes or fixes.
func New(sev Severity, code Code, primary source.Span, msg string) Diagnostic {
	return Diagnostic{Severity: sev, Code: code, Primary: primary, Message: msg}
}

// NewWarning is New with SevWarning, the severity every rule reports at.
func NewWarning(code Code, primary source.Span, msg string) Diagnostic {
	return New(SevWarning, code, primary, msg)
}

// The With methods return a modified copy and never share slices with d.

func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(slices.Clip(d.Notes), Note{Span: sp, Msg: msg})
	return d
}

func (d Diagnostic) WithContext(context, snippet string) Diagnostic {
	d.Context, d.Snippet = context, snippet
	return d
}

func (d Diagnostic) WithFixes(fixes ...Fix) Diagnostic {
	d.Fixes = slices.Concat(d.Fixes, fixes)
	return d
}
