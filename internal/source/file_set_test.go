package source

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestFileSetKeepsVersions(t *testing.T) {
	fs := NewFileSet()
	first := fs.Add("./pages/../index.html", []byte("<p>hello</p>"), 0)
	second := fs.Add("index.html", []byte("<p>world</p>"), 0)

	if first != 0 || second != 1 {
		t.Fatalf("ids = %d, %d", first, second)
	}
	if got, ok := fs.Latest("index.html"); !ok || got != second {
		t.Fatalf("Latest = %d, %v", got, ok)
	}
	if got := string(fs.Get(first).Content); got != "<p>hello</p>" {
		t.Fatalf("superseded version changed: %q", got)
	}
	if fs.Get(42) != nil {
		t.Fatal("unknown id must give nil")
	}
	if fs.Len() != 2 {
		t.Fatalf("Len = %d", fs.Len())
	}
}

func TestLineIndexAndResolve(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.html", []byte("ab\ncd\n\nef"))
	file := fs.Get(id)

	if !slices.Equal(file.LineIdx, []uint32{2, 5, 6}) {
		t.Fatalf("LineIdx = %v", file.LineIdx)
	}
	if file.Flags&FileVirtual == 0 {
		t.Fatal("virtual flag missing")
	}

	cases := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{1, 1}},
		{2, LineCol{1, 3}},
		{3, LineCol{2, 1}},
		{6, LineCol{3, 1}},
		{7, LineCol{4, 1}},
		{9, LineCol{4, 3}},
	}
	for _, tc := range cases {
		if got := file.LineCol(tc.off); got != tc.want {
			t.Errorf("LineCol(%d) = %+v, want %+v", tc.off, got, tc.want)
		}
	}

	start, end := fs.Resolve(Span{File: id, Start: 3, End: 9})
	if start.Line0() != 1 || end.Line0() != 3 {
		t.Fatalf("Resolve = %+v %+v", start, end)
	}
	if s, e := fs.Resolve(Span{File: 9}); s != (LineCol{}) || e != (LineCol{}) {
		t.Fatal("unknown file must resolve to zero positions")
	}
}

func TestGetLine(t *testing.T) {
	fs := NewFileSet()
	f := fs.Get(fs.AddVirtual("a.html", []byte("one\r\ntwo\n")))

	for n, want := range []string{"", "one", "two", "", ""} {
		if got := f.GetLine(uint32(n)); got != want {
			t.Errorf("GetLine(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestTextClamps(t *testing.T) {
	fs := NewFileSet()
	f := fs.Get(fs.AddVirtual("a.html", []byte("<div></div>")))
	if got := f.Text(f.Span(0, 5)); got != "<div>" {
		t.Fatalf("Text = %q", got)
	}
	if got := f.Text(Span{Start: 5, End: 99}); got != "</div>" {
		t.Fatalf("Text past end = %q", got)
	}
	if got := f.Text(Span{Start: 50, End: 99}); got != "" {
		t.Fatalf("Text outside = %q", got)
	}
}

func TestLoadStripsBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bom.html")
	if err := os.WriteFile(path, []byte("\xEF\xBB\xBF<html>\r\n</html>"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	fs := NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	file := fs.Get(id)
	if string(file.Content) != "<html>\r\n</html>" {
		t.Fatalf("content = %q", file.Content)
	}
	if file.Flags&FileHadBOM == 0 || file.Flags&FileNormalizedCRLF == 0 {
		t.Fatalf("flags = %b", file.Flags)
	}

	if _, err := fs.Load(filepath.Join(t.TempDir(), "missing.html")); err == nil {
		t.Fatal("missing file must fail")
	}
}
