package source

import (
	"path/filepath"
	"testing"
)

func TestRelativePath(t *testing.T) {
	tmp := t.TempDir()
	base := filepath.Join(tmp, "base")

	inside, err := RelativePath(filepath.Join(base, "nested", "page.html"), base)
	if err != nil || inside != "nested/page.html" {
		t.Fatalf("inside = %q, %v", inside, err)
	}

	target := filepath.Join(tmp, "other", "page.html")
	outside, err := RelativePath(target, base)
	if err != nil {
		t.Fatalf("RelativePath: %v", err)
	}
	if outside != filepath.ToSlash(target) {
		t.Fatalf("outside base must stay absolute, got %q", outside)
	}
}

func TestFormatPath(t *testing.T) {
	f := &File{Path: "/srv/www/a/very/long/directory/name/for/pages/index.html"}
	if got := f.FormatPath("auto", ""); got != "index.html" {
		t.Fatalf("auto = %q", got)
	}
	if got := f.FormatPath("relative", "/srv/www"); got != "a/very/long/directory/name/for/pages/index.html" {
		t.Fatalf("relative = %q", got)
	}
	short := &File{Path: "pages/a.html"}
	if got := short.FormatPath("auto", ""); got != "pages/a.html" {
		t.Fatalf("auto short = %q", got)
	}
	if got := short.FormatPath("basename", ""); got != "a.html" {
		t.Fatalf("basename = %q", got)
	}
}

func TestStripBOM(t *testing.T) {
	if out, had := stripBOM([]byte("\xEF\xBB\xBFx")); !had || string(out) != "x" {
		t.Fatalf("stripBOM = %q, %v", out, had)
	}
	if out, had := stripBOM([]byte("xy")); had || string(out) != "xy" {
		t.Fatalf("stripBOM without mark = %q, %v", out, had)
	}
}
