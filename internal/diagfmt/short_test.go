package diagfmt

import (
	"bytes"
	"testing"

	"greenlens/internal/diag"
	"greenlens/internal/source"
)

func TestShortSortsAndFlattens(t *testing.T) {
	fs := source.NewFileSetWithBase("/workspace")
	page := fs.Add("/workspace/site/index.html", []byte("<head>\n<script src=\"a.js\"></script>\n"), 0)
	other := fs.Add("/workspace/about.htm", []byte("<div></div>\n"), 0)

	bag := diag.NewBag(0)
	bag.Add(diag.NewWarning(diag.DivCount, source.Span{File: page, Start: 7, End: 36}, "another"))
	script := diag.NewWarning(diag.ScriptBlocking, source.Span{File: page, Start: 7, End: 36}, "first line\nsecond").
		WithNote(source.Span{File: page, Start: 0, End: 6}, "note  line")
	bag.Add(script)
	bag.Add(diag.NewWarning(diag.DivNesting, source.Span{File: other, Start: 0, End: 11}, "nested"))

	var buf bytes.Buffer
	if err := Short(&buf, bag, fs, true); err != nil {
		t.Fatal(err)
	}
	want := "warning div-nesting about.htm:1:1 nested\n" +
		"note script-blocking site/index.html:1:1 note line\n" +
		"warning div-count site/index.html:2:1 another\n" +
		"warning script-blocking site/index.html:2:1 first line second\n"
	if buf.String() != want {
		t.Fatalf("unexpected short output:\nwant:\n%s\ngot:\n%s", want, buf.String())
	}

	buf.Reset()
	if err := Short(&buf, bag, fs, false); err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(buf.Bytes(), []byte("note")) {
		t.Fatalf("notes must be omitted:\n%s", buf.String())
	}
}

func TestShortEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Short(&buf, diag.NewBag(0), source.NewFileSet(), true); err != nil || buf.Len() != 0 {
		t.Fatalf("empty bag wrote %q, err %v", buf.String(), err)
	}
}
