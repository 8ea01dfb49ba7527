package analysis

import (
	"sync"
	"testing"

	"greenlens/internal/diag"
	"greenlens/internal/rules"
	"greenlens/internal/source"
)

const page = `<html>
<head><script src="app.js"></script></head>
<body>
<div><div><div>deep</div></div></div>
</body>
</html>`

func TestIsTarget(t *testing.T) {
	cases := []struct {
		doc  Document
		want bool
	}{
		{Document{LanguageID: "html", Path: "x.txt"}, true},
		{Document{LanguageID: "HTML"}, true},
		{Document{LanguageID: "markdown", Path: "x.html"}, false},
		{Document{Path: "/a/b/index.HTML"}, true},
		{Document{Path: "/a/b/page.htm"}, true},
		{Document{Path: "/a/b/page.vue"}, false},
		{Document{}, false},
	}
	for _, tc := range cases {
		if got := tc.doc.IsTarget(); got != tc.want {
			t.Errorf("%+v: IsTarget = %v, want %v", tc.doc, got, tc.want)
		}
	}
}

func TestCheckSortsBySpan(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("page.html", []byte(page)))
	got := Check(file, rules.DefaultOptions())
	if len(got) != 3 {
		t.Fatalf("got %d findings, want 3", len(got))
	}
	want := []diag.Code{diag.ScriptBlocking, diag.DivCount, diag.DivNesting}
	for i, code := range want {
		if got[i].Code != code {
			t.Errorf("finding %d is %s, want %s", i, got[i].Code, code)
		}
	}
}

func TestAggregatorReplacesWholesale(t *testing.T) {
	agg := NewAggregator(rules.DefaultOptions())
	doc := Document{ID: "file:///page.html", LanguageID: "html", Text: page}

	first := agg.Analyze(doc)
	if len(first) != 3 {
		t.Fatalf("first pass: %d findings", len(first))
	}

	doc.Text = `<head><script src="app.js" defer></script></head>`
	if got := agg.Analyze(doc); len(got) != 0 {
		t.Fatalf("second pass: %d findings", len(got))
	}
	if got := agg.Findings(doc.ID); len(got) != 0 {
		t.Fatalf("stored set not replaced: %d findings", len(got))
	}
	if ids := agg.Documents(); len(ids) != 1 || ids[0] != doc.ID {
		t.Fatalf("documents = %v", ids)
	}

	agg.Remove(doc.ID)
	if ids := agg.Documents(); len(ids) != 0 {
		t.Fatalf("documents after remove = %v", ids)
	}
}

func TestAggregatorNonTargetClears(t *testing.T) {
	agg := NewAggregator(rules.DefaultOptions())
	doc := Document{ID: "doc", Path: "page.html", Text: page}
	if got := agg.Analyze(doc); len(got) == 0 {
		t.Fatal("expected findings")
	}
	doc.LanguageID = "plaintext"
	if got := agg.Analyze(doc); got != nil {
		t.Fatalf("non-target produced %d findings", len(got))
	}
	if _, ok := agg.Result(doc.ID); ok {
		t.Fatal("non-target document kept a stored set")
	}
}

func TestAnalyzeIdempotent(t *testing.T) {
	agg := NewAggregator(rules.DefaultOptions())
	doc := Document{ID: "a", LanguageID: "html", Text: page}
	first := agg.Analyze(doc)
	second := agg.Analyze(doc)
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Code != second[i].Code || first[i].Primary != second[i].Primary || first[i].Message != second[i].Message {
			t.Fatalf("finding %d differs", i)
		}
	}
}

func TestAggregatorSuggestHook(t *testing.T) {
	agg := NewAggregator(rules.DefaultOptions())
	agg.Suggest = func(_ *source.File, d diag.Diagnostic) []diag.Fix {
		return []diag.Fix{{Title: d.Code.String()}}
	}
	for _, d := range agg.Analyze(Document{ID: "a", LanguageID: "html", Text: page}) {
		if len(d.Fixes) != 1 || d.Fixes[0].Title != d.Code.String() {
			t.Fatalf("fixes not attached: %+v", d.Fixes)
		}
	}
}

func TestAggregatorConcurrentDocuments(t *testing.T) {
	agg := NewAggregator(rules.DefaultOptions())
	ids := []string{"a", "b", "c", "d"}
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			agg.Analyze(Document{ID: id, LanguageID: "html", Text: page})
		}()
	}
	wg.Wait()
	if got := agg.Documents(); len(got) != len(ids) {
		t.Fatalf("documents = %v", got)
	}
	for _, id := range ids {
		if len(agg.Findings(id)) != 3 {
			t.Fatalf("%s: %d findings", id, len(agg.Findings(id)))
		}
	}
}
