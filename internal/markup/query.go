package markup

// Walk visits the descendants of n depth-first in document order.
// Returning false from fn skips the children of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil {
		return
	}
	for _, c := range n.Children {
		if fn(c) {
			c.Walk(fn)
		}
	}
}

// Find returns the first descendant element with the given tag, or nil.
func (n *Node) Find(tag string) *Node {
	var found *Node
	n.Walk(func(c *Node) bool {
		if found != nil {
			return false
		}
		if c.IsElement(tag) {
			found = c
			return false
		}
		return true
	})
	return found
}

// FindAll returns every descendant element with the given tag in document order.
func (n *Node) FindAll(tag string) []*Node {
	var out []*Node
	n.Walk(func(c *Node) bool {
		if c.IsElement(tag) {
			out = append(out, c)
		}
		return true
	})
	return out
}

// Find returns the first element with the given tag anywhere in the document.
func (d *Document) Find(tag string) *Node {
	if d == nil {
		return nil
	}
	return d.Root.Find(tag)
}

// FindAll returns every element with the given tag in document order.
func (d *Document) FindAll(tag string) []*Node {
	if d == nil {
		return nil
	}
	return d.Root.FindAll(tag)
}

// Head returns the first head element, or nil.
func (d *Document) Head() *Node { return d.Find("head") }

// Body returns the first body element, or nil.
func (d *Document) Body() *Node { return d.Find("body") }
