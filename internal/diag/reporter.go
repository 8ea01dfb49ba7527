package diag

import "greenlens/internal/source"

// Reporter receives diagnostics from rules.
type Reporter interface {
	Report(d Diagnostic)
}

// ReportBuilder accumulates diagnostic details before emitting to Reporter.
type ReportBuilder struct {
	reporter Reporter
	diag     Diagnostic
	emitted  bool
}

// NewReportBuilder constructs a builder bound to Reporter.
func NewReportBuilder(r Reporter, sev Severity, code Code, primary source.Span, msg string) *ReportBuilder {
	return &ReportBuilder{
		reporter: r,
		diag:     New(sev, code, primary, msg),
	}
}

// ReportWarning is a shortcut for SevWarning diagnostics.
func ReportWarning(r Reporter, code Code, primary source.Span, msg string) *ReportBuilder {
	return NewReportBuilder(r, SevWarning, code, primary, msg)
}

// WithContext records the placement context and the located snippet.
func (b *ReportBuilder) WithContext(context, snippet string) *ReportBuilder {
	if b == nil {
		return nil
	}
	b.diag = b.diag.WithContext(context, snippet)
	return b
}

// WithNote attaches a secondary location.
func (b *ReportBuilder) WithNote(sp source.Span, msg string) *ReportBuilder {
	if b == nil {
		return nil
	}
	b.diag = b.diag.WithNote(sp, msg)
	return b
}

// Emit sends the diagnostic to the underlying reporter exactly once.
func (b *ReportBuilder) Emit() {
	if b == nil || b.emitted {
		return
	}
	if b.reporter != nil {
		b.reporter.Report(b.diag)
	}
	b.emitted = true
}

// SliceReporter appends into a slice.
type SliceReporter struct{ Items []Diagnostic }

func (r *SliceReporter) Report(d Diagnostic) {
	r.Items = append(r.Items, d)
}
