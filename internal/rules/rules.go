// Package rules implements the performance checks run over a parsed HTML
// document. Each check is a pure function of the tree, the source file and
// Options; findings go to a diag.Reporter.
package rules

import (
	"greenlens/internal/diag"
	"greenlens/internal/markup"
	"greenlens/internal/source"
)

// CheckFunc is the shape shared by every rule.
type CheckFunc func(doc *markup.Document, file *source.File, opts Options, r diag.Reporter)

// Rule pairs a diagnostic code with its check.
type Rule struct {
	Code  diag.Code
	Check CheckFunc
}

var registry = []Rule{
	{Code: diag.ScriptBlocking, Check: CheckScripts},
	{Code: diag.DivCount, Check: CheckDivCount},
	{Code: diag.DivNesting, Check: CheckDivNesting},
}

// All returns the registered rules in execution order.
func All() []Rule {
	out := make([]Rule, len(registry))
	copy(out, registry)
	return out
}

// Run executes every enabled rule against doc.
func Run(doc *markup.Document, file *source.File, opts Options, r diag.Reporter) {
	if doc == nil || file == nil {
		return
	}
	for _, rule := range registry {
		if opts.Enabled(rule.Code) {
			rule.Check(doc, file, opts, r)
		}
	}
}

// Check runs every enabled rule and returns the findings in emission order.
func Check(doc *markup.Document, file *source.File, opts Options) []diag.Diagnostic {
	sink := &diag.SliceReporter{}
	Run(doc, file, opts, sink)
	return sink.Items
}
