package xmlstream

import (
	"encoding/xml"
	"strings"
)

// Node is one element of the partially built document tree.
// Only the active ancestor chain and not-yet-released siblings are resident.
type Node struct {
	Name     string
	Attr     []xml.Attr
	Children []*Node

	parent   *Node
	text     strings.Builder
	hasText  bool
	textDone bool // set once the first child element starts
}

// Parent returns the enclosing element, or nil for the document root
func (n *Node) Parent() *Node {
	return n.parent
}

// Text returns the character data that precedes the first child element.
// ok is false when the element has no character data at all (e.g. <Name/>).
func (n *Node) Text() (string, bool) {
	if n == nil || !n.hasText {
		return "", false
	}
	return n.text.String(), true
}

// AttrValue returns the value of the named attribute
func (n *Node) AttrValue(name string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// Find returns the first element matching a slash-separated child path.
// An empty path returns n itself.
func (n *Node) Find(path string) *Node {
	if n == nil {
		return nil
	}
	if path == "" {
		return n
	}

	step, rest, _ := strings.Cut(path, "/")
	for _, c := range n.Children {
		if c.Name != step {
			continue
		}
		if rest == "" {
			return c
		}
		if found := c.Find(rest); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every element matching a slash-separated child path, in document order
func (n *Node) FindAll(path string) []*Node {
	if n == nil || path == "" {
		return nil
	}

	step, rest, _ := strings.Cut(path, "/")
	var out []*Node
	for _, c := range n.Children {
		if c.Name != step {
			continue
		}
		if rest == "" {
			out = append(out, c)
			continue
		}
		out = append(out, c.FindAll(rest)...)
	}
	return out
}

// size counts n and all its descendants
func (n *Node) size() int {
	total := 1
	for _, c := range n.Children {
		total += c.size()
	}
	return total
}

// clear drops everything the node holds
func (n *Node) clear() {
	for _, c := range n.Children {
		c.clear()
		c.parent = nil
	}
	n.Children = nil
	n.Attr = nil
	n.text.Reset()
	n.hasText = false
	n.textDone = true
}

func (n *Node) appendText(b []byte) {
	if n.textDone {
		return
	}
	n.text.Write(b)
	n.hasText = true
}
