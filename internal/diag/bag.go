package diag

import (
	"cmp"
	"slices"
)

// Bag collects the diagnostics of a run, optionally capped.
type Bag struct {
	items []Diagnostic
	limit int
}

// NewBag returns a bag keeping at most limit diagnostics; zero or less
// keeps everything.
func NewBag(limit int) *Bag {
	return &Bag{limit: max(limit, 0)}
}

// Add appends d and reports false once the limit is reached.
func (b *Bag) Add(d Diagnostic) bool {
	if b.full() {
		return false
	}
	b.items = append(b.items, d)
	return true
}

// AddAll appends ds in order until the limit and returns how many fit.
func (b *Bag) AddAll(ds []Diagnostic) int {
	for i, d := range ds {
		if !b.Add(d) {
			return i
		}
	}
	return len(ds)
}

func (b *Bag) full() bool {
	return b.limit > 0 && len(b.items) >= b.limit
}

// HasErrors reports whether any diagnostic is an error.
func (b *Bag) HasErrors() bool {
	return slices.ContainsFunc(b.items, func(d Diagnostic) bool { return d.Severity >= SevError })
}

func (b *Bag) Len() int { return len(b.items) }

// Items returns the internal slice; callers must not modify it.
func (b *Bag) Items() []Diagnostic { return b.items }

// Sort puts the bag in SortDiagnostics order.
func (b *Bag) Sort() { SortDiagnostics(b.items) }

// SortDiagnostics orders ds by file, start, end, severity (highest first)
// and code. Equal diagnostics keep their order.
func SortDiagnostics(ds []Diagnostic) {
	slices.SortStableFunc(ds, func(a, b Diagnostic) int {
		return cmp.Or(
			cmp.Compare(a.Primary.File, b.Primary.File),
			cmp.Compare(a.Primary.Start, b.Primary.Start),
			cmp.Compare(a.Primary.End, b.Primary.End),
			cmp.Compare(b.Severity, a.Severity),
			cmp.Compare(a.Code, b.Code),
		)
	})
}
