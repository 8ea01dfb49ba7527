// Package analysis runs the rule pass over whole documents and keeps the
// latest finding set per document.
package analysis

import (
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"greenlens/internal/diag"
	"greenlens/internal/markup"
	"greenlens/internal/rules"
	"greenlens/internal/source"
)

// Document is one snapshot of a document handed in by a trigger.
type Document struct {
	// ID is the identity findings are stored under: a URI or a normalized path.
	ID         string
	Path       string
	LanguageID string
	Text       string
}

// IsTarget reports whether the document is analyzed: language id "html",
// or, when the language is unknown, an .html/.htm path.
func (d Document) IsTarget() bool {
	if d.LanguageID != "" {
		return strings.EqualFold(d.LanguageID, "html")
	}
	return HasTargetExt(d.Path, nil)
}

// DefaultExtensions are the file extensions analyzed when no language id is known.
var DefaultExtensions = []string{".html", ".htm"}

// HasTargetExt reports whether path ends in one of exts (DefaultExtensions when nil).
func HasTargetExt(path string, exts []string) bool {
	if exts == nil {
		exts = DefaultExtensions
	}
	ext := strings.ToLower(filepath.Ext(path))
	return ext != "" && slices.Contains(exts, ext)
}

// Check parses file and runs every enabled rule. The result is sorted by
// span, then code.
func Check(file *source.File, opts rules.Options) []diag.Diagnostic {
	if file == nil {
		return nil
	}
	doc := markup.Parse(string(file.Content))
	out := rules.Check(doc, file, opts)
	diag.SortDiagnostics(out)
	return out
}

// Aggregator owns the finding store keyed by document ID. Each Analyze call
// replaces the stored set for its document wholesale.
type Aggregator struct {
	opts rules.Options
	// Suggest, when set, attaches fixes to every finding.
	Suggest func(file *source.File, d diag.Diagnostic) []diag.Fix

	mu    sync.Mutex
	store map[string]Result
}

// Result is the outcome of the latest pass over a document.
type Result struct {
	File     *source.File
	Findings []diag.Diagnostic
}

func NewAggregator(opts rules.Options) *Aggregator {
	return &Aggregator{
		opts:  opts,
		store: make(map[string]Result),
	}
}

// SetOptions replaces the rule options used by later passes.
func (a *Aggregator) SetOptions(opts rules.Options) {
	a.mu.Lock()
	a.opts = opts
	a.mu.Unlock()
}

func (a *Aggregator) Options() rules.Options {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.opts
}

// Analyze runs a full pass over doc and stores the findings under doc.ID.
// Non-target documents get an empty set.
func (a *Aggregator) Analyze(doc Document) []diag.Diagnostic {
	if !doc.IsTarget() {
		a.Remove(doc.ID)
		return nil
	}
	name := doc.Path
	if name == "" {
		name = doc.ID
	}
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual(name, []byte(doc.Text)))
	return a.AnalyzeFile(doc.ID, file)
}

// AnalyzeFile runs a pass over an already loaded file.
func (a *Aggregator) AnalyzeFile(id string, file *source.File) []diag.Diagnostic {
	opts := a.Options()
	findings := Check(file, opts)
	if a.Suggest != nil {
		for i := range findings {
			findings[i] = findings[i].WithFixes(a.Suggest(file, findings[i])...)
		}
	}

	a.mu.Lock()
	a.store[id] = Result{File: file, Findings: findings}
	a.mu.Unlock()
	return findings
}

// Findings returns the stored set for id.
func (a *Aggregator) Findings(id string) []diag.Diagnostic {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.store[id].Findings
}

// Result returns the stored pass for id.
func (a *Aggregator) Result(id string) (Result, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r, ok := a.store[id]
	return r, ok
}

// Remove drops the stored set for id, e.g. when the host closes the document.
func (a *Aggregator) Remove(id string) {
	a.mu.Lock()
	delete(a.store, id)
	a.mu.Unlock()
}

// Documents lists the IDs with a stored set, sorted.
func (a *Aggregator) Documents() []string {
	a.mu.Lock()
	ids := make([]string, 0, len(a.store))
	for id := range a.store {
		ids = append(ids, id)
	}
	a.mu.Unlock()
	slices.Sort(ids)
	return ids
}
