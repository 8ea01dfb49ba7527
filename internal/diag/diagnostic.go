package diag

import (
	"greenlens/internal/source"
)

type Note struct {
	Span source.Span
	Msg  string
}

// TextEdit replaces Span with NewText. OldText, when set, guards the edit:
// the fix engine refuses to apply it if the current text differs.
type TextEdit struct {
	Span    source.Span
	NewText string
	OldText string
}

// Diagnostic is a located finding produced by a rule.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	// Context classifies where the finding was made ("head", "early-body").
	Context string
	// Snippet is the source text the finding was located from; fixes use it
	// as the replacement base.
	Snippet string
	Notes   []Note
	Fixes   []Fix
}

// Placement contexts of script findings.
const (
	ContextHead      = "head"
	ContextEarlyBody = "early-body"
)
