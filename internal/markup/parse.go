package markup

import (
	"strings"

	"golang.org/x/net/html"
)

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// blockStarters close an open <p>.
var blockStarters = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"details": true, "div": true, "dl": true, "fieldset": true,
	"figcaption": true, "figure": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hgroup": true, "hr": true, "main": true, "menu": true,
	"nav": true, "ol": true, "p": true, "pre": true, "section": true,
	"table": true, "ul": true,
}

// headContent are the elements that may appear inside <head>; any other
// start tag closes an open head, as when </head> is omitted.
var headContent = map[string]bool{
	"base": true, "link": true, "meta": true, "noscript": true,
	"script": true, "style": true, "template": true, "title": true,
}

// impliedEnd reports whether an open element named top is closed by a start tag named incoming.
func impliedEnd(top, incoming string) bool {
	switch top {
	case "head":
		return !headContent[incoming]
	case "p":
		return blockStarters[incoming]
	case "li":
		return incoming == "li"
	case "dt", "dd":
		return incoming == "dt" || incoming == "dd"
	case "option":
		return incoming == "option" || incoming == "optgroup"
	case "optgroup":
		return incoming == "optgroup"
	case "tr":
		return incoming == "tr"
	case "td", "th":
		return incoming == "td" || incoming == "th" || incoming == "tr"
	}
	return false
}

type builder struct {
	doc   *Document
	stack []*Node // stack[0] is the document root
}

// Parse builds a tree from src. It never fails: malformed input yields a
// best-effort tree whose nodes still carry exact source spans.
func Parse(src string) *Document {
	doc := &Document{Source: src}
	doc.Root = &Node{Kind: DocumentNode, Start: 0, End: len(src), doc: doc}
	b := &builder{doc: doc, stack: []*Node{doc.Root}}

	z := html.NewTokenizer(strings.NewReader(src))
	off := 0
	for {
		tt := z.Next()
		start := off
		off += len(z.Raw())

		switch tt {
		case html.ErrorToken:
			// io.EOF or a tokenizer failure: keep what we have
			b.closeAll(len(src))
			return doc
		case html.TextToken:
			b.leaf(TextNode, start, off)
		case html.CommentToken:
			b.leaf(CommentNode, start, off)
		case html.DoctypeToken:
			b.leaf(DoctypeNode, start, off)
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			tag := string(name)
			attrs := readAttrs(z, hasAttr)
			b.startTag(tag, attrs, start, off, tt == html.SelfClosingTagToken)
		case html.EndTagToken:
			name, _ := z.TagName()
			b.endTag(string(name), start, off)
		}
	}
}

func readAttrs(z *html.Tokenizer, more bool) []Attribute {
	var attrs []Attribute
	for more {
		var key, val []byte
		key, val, more = z.TagAttr()
		attrs = append(attrs, Attribute{Name: string(key), Value: string(val)})
	}
	return attrs
}

func (b *builder) top() *Node {
	return b.stack[len(b.stack)-1]
}

func (b *builder) appendChild(n *Node) {
	parent := b.top()
	n.Parent = parent
	n.doc = b.doc
	parent.Children = append(parent.Children, n)
}

func (b *builder) leaf(kind NodeKind, start, end int) {
	if start == end {
		return
	}
	b.appendChild(&Node{Kind: kind, Start: start, End: end})
}

func (b *builder) startTag(tag string, attrs []Attribute, start, end int, selfClosing bool) {
	for len(b.stack) > 1 && impliedEnd(b.top().Tag, tag) {
		b.pop(start, true)
	}

	n := &Node{
		Kind:        ElementNode,
		Tag:         tag,
		Attrs:       attrs,
		Start:       start,
		StartTagEnd: end,
	}
	b.appendChild(n)

	if selfClosing || voidElements[tag] {
		n.End = end
		return
	}
	b.stack = append(b.stack, n)
}

func (b *builder) endTag(tag string, start, end int) {
	idx := -1
	for i := len(b.stack) - 1; i > 0; i-- {
		if b.stack[i].Tag == tag {
			idx = i
			break
		}
	}
	if idx < 0 {
		// stray end tag
		return
	}
	for len(b.stack)-1 > idx {
		b.pop(start, true)
	}
	b.pop(end, false)
}

func (b *builder) pop(end int, implied bool) {
	n := b.top()
	n.End = end
	n.Implied = implied
	b.stack = b.stack[:len(b.stack)-1]
}

func (b *builder) closeAll(end int) {
	for len(b.stack) > 1 {
		b.pop(end, true)
	}
}
