package source

import "testing"

func TestLocateFirstOccurrence(t *testing.T) {
	text := `<script src="a.js"></script><script src="a.js"></script>`
	frag := `<script src="a.js"></script>`

	start, end, ok := Locate(text, frag)
	if !ok || start != 0 || end != len(frag) {
		t.Fatalf("Locate = (%d, %d, %v)", start, end, ok)
	}

	start, _, ok = LocateFrom(text, frag, end)
	if !ok || start != len(frag) {
		t.Fatalf("LocateFrom = (%d, %v), want second tag", start, ok)
	}
}

func TestLocateNotFound(t *testing.T) {
	cases := []struct {
		name, text, frag string
	}{
		{"absent", "<div></div>", "<span></span>"},
		{"whitespace differs", "<div  id=a></div>", "<div id=a></div>"},
		{"empty fragment", "<div></div>", ""},
	}
	for _, tc := range cases {
		if _, _, ok := Locate(tc.text, tc.frag); ok {
			t.Errorf("%s: expected NotFound", tc.name)
		}
	}
	if _, _, ok := LocateFrom("abc", "a", 7); ok {
		t.Error("expected NotFound for cursor past the end")
	}
}

func TestFileLocateSpan(t *testing.T) {
	fs := NewFileSet()
	file := fs.Get(fs.AddVirtual("x.html", []byte("<body>\n  <div></div>\n</body>")))

	span, ok := file.LocateSpan("<div></div>")
	if !ok {
		t.Fatal("expected span")
	}
	if file.Text(span) != "<div></div>" {
		t.Errorf("Text(span) = %q", file.Text(span))
	}
	start, end := file.Resolve(span)
	if start != (LineCol{Line: 2, Col: 3}) || end != (LineCol{Line: 2, Col: 14}) {
		t.Errorf("Resolve = %+v %+v", start, end)
	}
	if _, ok := file.LocateSpanFrom("<div></div>", int(span.End)); ok {
		t.Error("expected no second occurrence")
	}
}
