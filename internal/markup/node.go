package markup

import "strings"

// NodeKind classifies tree nodes.
type NodeKind uint8

const (
	DocumentNode NodeKind = iota
	ElementNode
	TextNode
	CommentNode
	DoctypeNode
)

func (k NodeKind) String() string {
	switch k {
	case DocumentNode:
		return "document"
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	case CommentNode:
		return "comment"
	case DoctypeNode:
		return "doctype"
	}
	return "unknown"
}

// Attribute is a single name/value pair of a start tag. Names are
// lower-cased; values are unescaped. An attribute written without a value
// (`<script defer>`) has an empty Value but is still present.
type Attribute struct {
	Name  string
	Value string
}

// Node is an element, text, comment or doctype node of a parsed document.
type Node struct {
	Kind     NodeKind
	Tag      string // lower-cased, elements only
	Attrs    []Attribute
	Parent   *Node
	Children []*Node

	// Start/End cover the full outer range in bytes, half-open.
	Start int
	End   int
	// StartTagEnd is the offset just past the start tag (elements only).
	StartTagEnd int
	// Implied is set when the element was closed without its own end tag.
	Implied bool

	doc *Document
}

// Document is the result of Parse.
type Document struct {
	Root   *Node
	Source string
}

// IsElement reports whether n is an element with the given tag (any element if tag is empty).
func (n *Node) IsElement(tag string) bool {
	if n == nil || n.Kind != ElementNode {
		return false
	}
	return tag == "" || n.Tag == tag
}

// Attr returns the value of the named attribute and whether it is present.
func (n *Node) Attr(name string) (string, bool) {
	if n == nil {
		return "", false
	}
	name = strings.ToLower(name)
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// HasAttr reports whether the named attribute is present, with or without a value.
func (n *Node) HasAttr(name string) bool {
	_, ok := n.Attr(name)
	return ok
}

// OuterHTML returns the exact source text covered by the node.
func (n *Node) OuterHTML() string {
	if n == nil || n.doc == nil {
		return ""
	}
	return n.doc.Source[n.Start:n.End]
}

// StartTag returns the source text of the element's start tag.
func (n *Node) StartTag() string {
	if n == nil || n.doc == nil || n.Kind != ElementNode {
		return ""
	}
	return n.doc.Source[n.Start:n.StartTagEnd]
}

// Elements returns the element children of n in order.
func (n *Node) Elements() []*Node {
	if n == nil {
		return nil
	}
	out := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		if c.Kind == ElementNode {
			out = append(out, c)
		}
	}
	return out
}
