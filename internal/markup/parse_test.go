package markup

import (
	"strings"
	"testing"
)

func TestParseRecordsExactSpans(t *testing.T) {
	src := "<!DOCTYPE html>\n<html>\n<head>\n  <script  src='a.js' DEFER></script>\n</head>\n<body>\n<div class=\"x\">hi</div>\n</body>\n</html>"
	doc := Parse(src)

	script := doc.Find("script")
	if script == nil {
		t.Fatal("expected script element")
	}
	if got := script.OuterHTML(); got != "<script  src='a.js' DEFER></script>" {
		t.Fatalf("OuterHTML = %q", got)
	}
	if got := script.StartTag(); got != "<script  src='a.js' DEFER>" {
		t.Fatalf("StartTag = %q", got)
	}
	if src, ok := script.Attr("src"); !ok || src != "a.js" {
		t.Fatalf("src = %q, %v", src, ok)
	}
	if !script.HasAttr("defer") {
		t.Fatal("expected valueless defer attribute to be present")
	}
	if script.HasAttr("async") {
		t.Fatal("unexpected async attribute")
	}

	div := doc.Body().Find("div")
	if div == nil || div.OuterHTML() != `<div class="x">hi</div>` {
		t.Fatalf("div = %+v", div)
	}
	if div.Parent.Tag != "body" {
		t.Fatalf("div parent = %q", div.Parent.Tag)
	}
}

func TestOuterHTMLMatchesSourceSlice(t *testing.T) {
	inputs := []string{
		"<body><div><div><div>x</div></div></div></body>",
		"<p>one<p>two<div>three</div>",
		"<ul><li>a<li>b</ul></span></div>",
		"<body><div>unterminated",
		"<script>if (a < b) { document.write('</div>') }</script><div></div>",
		"<<<>>> <div =x>",
		"",
	}
	for _, src := range inputs {
		doc := Parse(src)
		doc.Root.Walk(func(n *Node) bool {
			if n.Start < 0 || n.End > len(src) || n.Start > n.End {
				t.Fatalf("%q: bad span [%d,%d) for %s", src, n.Start, n.End, n.Tag)
			}
			if n.OuterHTML() != src[n.Start:n.End] {
				t.Fatalf("%q: OuterHTML differs from source slice", src)
			}
			return true
		})
	}
}

func TestParseImpliedAndStrayTags(t *testing.T) {
	src := "<ul><li>a<li>b</ul></span><p>x<div>y</div>"
	doc := Parse(src)

	items := doc.FindAll("li")
	if len(items) != 2 {
		t.Fatalf("expected 2 li, got %d", len(items))
	}
	if !items[0].Implied || items[0].OuterHTML() != "<li>a" {
		t.Fatalf("first li = %q implied=%v", items[0].OuterHTML(), items[0].Implied)
	}
	if items[1].OuterHTML() != "<li>b" {
		t.Fatalf("second li = %q", items[1].OuterHTML())
	}

	p := doc.Find("p")
	if p.OuterHTML() != "<p>x" {
		t.Fatalf("p = %q", p.OuterHTML())
	}
	div := doc.Find("div")
	if div.Parent != doc.Root {
		t.Fatalf("div should be a sibling of p, parent = %v", div.Parent.Tag)
	}
}

func TestBodyClosesOpenHead(t *testing.T) {
	cases := []string{
		"<html><head><title>t</title>\n<body>\n<script src=\"b.js\"></script></body></html>",
		"<head><meta charset=utf-8><div>x</div>",
	}
	for _, src := range cases {
		doc := Parse(src)
		head := doc.Head()
		if head == nil || !head.Implied {
			t.Fatalf("%q: head must be closed implicitly, got %+v", src, head)
		}
		for _, el := range head.Elements() {
			if !headContent[el.Tag] {
				t.Fatalf("%q: <%s> ended up inside head", src, el.Tag)
			}
		}
		if body := doc.Body(); body != nil && body.Parent.Tag == "head" {
			t.Fatalf("%q: body nested in head", src)
		}
	}
}

func TestParseDoesNotSynthesizeBody(t *testing.T) {
	doc := Parse("<div><div></div></div>")
	if doc.Body() != nil || doc.Head() != nil {
		t.Fatal("expected no implicit head/body")
	}
	if n := len(doc.FindAll("div")); n != 2 {
		t.Fatalf("expected 2 divs, got %d", n)
	}
}

func TestScriptContentIsRawText(t *testing.T) {
	doc := Parse("<body><script>var s = '<div>';</script></body>")
	if n := len(doc.FindAll("div")); n != 0 {
		t.Fatalf("script content must not produce elements, got %d divs", n)
	}
	script := doc.Find("script")
	if len(script.Children) != 1 || script.Children[0].Kind != TextNode {
		t.Fatalf("expected a single text child, got %+v", script.Children)
	}
}

func TestVoidAndSelfClosingElements(t *testing.T) {
	doc := Parse(`<body><img src=a.png><br/><div/><span>t</span></body>`)
	body := doc.Body()
	tags := make([]string, 0)
	for _, el := range body.Elements() {
		tags = append(tags, el.Tag)
	}
	if got := strings.Join(tags, ","); got != "img,br,div,span" {
		t.Fatalf("body children = %s", got)
	}
	if doc.Find("img").OuterHTML() != "<img src=a.png>" {
		t.Fatalf("img = %q", doc.Find("img").OuterHTML())
	}
}
