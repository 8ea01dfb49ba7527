package fix

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"greenlens/internal/analysis"
	"greenlens/internal/diag"
	"greenlens/internal/rules"
	"greenlens/internal/source"
)

func TestGatherCandidatesSkipsDuplicateFixIDs(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("index.html", []byte(""))
	span := source.Span{File: fileID, Start: 0, End: 0}

	diagnostics := []diag.Diagnostic{{
		Code:    diag.DivCount,
		Message: "divs",
		Primary: span,
		Fixes: []diag.Fix{
			{
				ID:    "fix-duplicate",
				Title: "insert style",
				Edits: []diag.TextEdit{{Span: span, NewText: "<style>"}},
			},
			{
				ID:    "fix-duplicate",
				Title: "insert style again",
				Edits: []diag.TextEdit{{Span: span, NewText: "<style>"}},
			},
			{
				Title: "empty",
			},
		},
	}}

	candidates, skips := gatherCandidates(diagnostics)

	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if len(skips) != 2 {
		t.Fatalf("expected 2 skipped fixes, got %d", len(skips))
	}
	if skips[0].ID != "fix-duplicate" || skips[0].Reason != "duplicate fix id" {
		t.Fatalf("unexpected skip %+v", skips[0])
	}
	if skips[1].Reason != "fix has no edits" {
		t.Fatalf("unexpected skip %+v", skips[1])
	}
}

func loadFindings(t *testing.T, path string) (*source.FileSet, []diag.Diagnostic) {
	t.Helper()
	fs := source.NewFileSetWithBase(filepath.Dir(path))
	id, err := fs.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	file := fs.Get(id)
	findings := analysis.Check(file, rules.DefaultOptions())
	for i := range findings {
		findings[i].Fixes = Suggest(file, findings[i])
	}
	return fs, findings
}

func TestApplyAllWritesSafeFixes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.html")
	text := "<head>\n<script src=\"a.js\"></script>\n<script src=\"b.js\"></script>\n</head>\n<body><div><div><div></div></div></div></body>\n"
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		t.Fatal(err)
	}

	fs, findings := loadFindings(t, path)
	res, err := Apply(fs, findings, ApplyOptions{Mode: ApplyModeAll})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(res.Applied) != 2 {
		t.Fatalf("applied %d fixes, want 2", len(res.Applied))
	}
	// async alternatives plus grid/flex for both div findings
	if len(res.Skipped) != 6 {
		t.Fatalf("skipped %d fixes, want 6: %+v", len(res.Skipped), res.Skipped)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := strings.ReplaceAll(text, "<script src", "<script defer src")
	if string(got) != want {
		t.Fatalf("file content:\n%s\nwant:\n%s", got, want)
	}
	if len(res.FileChanges) != 1 || res.FileChanges[0].EditCount != 2 {
		t.Fatalf("unexpected file changes %+v", res.FileChanges)
	}
}

func TestApplyOncePicksFirstSafeFix(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.html")
	text := "<head><script src=\"a.js\"></script></head>"
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		t.Fatal(err)
	}

	fs, findings := loadFindings(t, path)
	res, err := Apply(fs, findings, ApplyOptions{Mode: ApplyModeOnce, DryRun: true})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(res.Applied) != 1 || !strings.Contains(res.Applied[0].ID, "defer") {
		t.Fatalf("unexpected applied %+v", res.Applied)
	}
	if got := string(res.FileChanges[0].Content); got != `<head><script defer src="a.js"></script></head>` {
		t.Fatalf("dry-run content %q", got)
	}
	onDisk, _ := os.ReadFile(path)
	if string(onDisk) != text {
		t.Fatal("dry run modified the file")
	}
}

func TestApplyKeepsByteOrderMark(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.html")
	text := "\xEF\xBB\xBF<head><script src=\"a.js\"></script></head>"
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		t.Fatal(err)
	}

	fs, findings := loadFindings(t, path)
	res, err := Apply(fs, findings, ApplyOptions{Mode: ApplyModeAll})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := "\xEF\xBB\xBF<head><script defer src=\"a.js\"></script></head>"
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != want {
		t.Fatalf("file content %q, want %q", got, want)
	}
	if string(res.FileChanges[0].Content) != want {
		t.Fatalf("reported content %q, want %q", res.FileChanges[0].Content, want)
	}
}

func TestApplyByID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.html")
	text := "<body><div><div><div></div></div></div></body>"
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		t.Fatal(err)
	}
	fs, findings := loadFindings(t, path)

	res, err := Apply(fs, findings, ApplyOptions{Mode: ApplyModeID, TargetID: "GL2001-flex-6"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != StyleBlock(LayoutFlex)+text {
		t.Fatalf("unexpected content %q", got)
	}
	if len(res.Applied) != 1 {
		t.Fatalf("applied = %+v", res.Applied)
	}

	if _, err := Apply(fs, findings, ApplyOptions{Mode: ApplyModeID, TargetID: "missing"}); !errors.Is(err, ErrNoFixes) {
		t.Fatalf("err = %v, want ErrNoFixes", err)
	}
}

func TestApplyNoFixes(t *testing.T) {
	fs := source.NewFileSet()
	if _, err := Apply(fs, nil, ApplyOptions{}); !errors.Is(err, ErrNoFixes) {
		t.Fatalf("err = %v, want ErrNoFixes", err)
	}
}

func TestApplySkipsVirtualFiles(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("buffer.html", []byte(`<head><script src="a.js"></script></head>`)))
	findings := analysis.Check(file, rules.DefaultOptions())
	for i := range findings {
		findings[i].Fixes = Suggest(file, findings[i])
	}
	res, err := Apply(fs, findings, ApplyOptions{Mode: ApplyModeAll})
	if !errors.Is(err, ErrNoFixes) {
		t.Fatalf("err = %v, want ErrNoFixes", err)
	}
	found := false
	for _, s := range res.Skipped {
		if s.Reason == "target file is virtual" {
			found = true
		}
	}
	if !found {
		t.Fatalf("virtual skip not reported: %+v", res.Skipped)
	}
}

func TestApplyText(t *testing.T) {
	text := "0123456789"
	got, err := ApplyText(text, []diag.TextEdit{
		{Span: source.Span{Start: 8, End: 10}, NewText: "X", OldText: "89"},
		{Span: source.Span{Start: 0, End: 0}, NewText: "<"},
		{Span: source.Span{Start: 2, End: 4}, NewText: ""},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got != "<014567X" {
		t.Fatalf("got %q", got)
	}

	if _, err := ApplyText(text, []diag.TextEdit{
		{Span: source.Span{Start: 1, End: 5}},
		{Span: source.Span{Start: 3, End: 6}},
	}); !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if _, err := ApplyText(text, []diag.TextEdit{{Span: source.Span{Start: 0, End: 1}, OldText: "x"}}); !errors.Is(err, ErrStale) {
		t.Fatalf("err = %v, want ErrStale", err)
	}
	if _, err := ApplyText(text, []diag.TextEdit{{Span: source.Span{Start: 5, End: 20}}}); err == nil {
		t.Fatal("expected out of range error")
	}
}
