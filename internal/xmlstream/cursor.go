package xmlstream

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

// EventKind distinguishes element boundaries
type EventKind int

const (
	StartElement EventKind = iota + 1
	EndElement
)

func (k EventKind) String() string {
	switch k {
	case StartElement:
		return "start"
	case EndElement:
		return "end"
	default:
		return "unknown"
	}
}

// Event reports an element boundary. On StartElement the node has its name and
// attributes only; on EndElement its whole subtree is available.
type Event struct {
	Kind  EventKind
	Node  *Node
	Depth int // 1 for the document element
}

// SyntaxError reports input that cannot be parsed as XML
type SyntaxError struct {
	Offset int64
	Err    error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("malformed document at byte %d: %v", e.Offset, e.Err)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// Cursor is a forward-only pull cursor over an XML document. It builds the
// tree lazily and lets the caller release finished subtrees, so resident
// memory is bounded by the active ancestor chain rather than the document.
type Cursor struct {
	dec   *xml.Decoder
	root  *Node
	stack []*Node
	live  int
	peak  int
}

// NewCursor creates a cursor over r
func NewCursor(r io.Reader, opts ...Option) *Cursor {
	dec := xml.NewDecoder(r)
	for _, opt := range opts {
		opt(dec)
	}

	root := &Node{}
	return &Cursor{
		dec:   dec,
		root:  root,
		stack: []*Node{root},
	}
}

// Option configures the underlying decoder
type Option func(*xml.Decoder)

// WithCharsetReader installs a converter for non-UTF-8 encodings
func WithCharsetReader(fn func(charset string, input io.Reader) (io.Reader, error)) Option {
	return func(d *xml.Decoder) {
		d.CharsetReader = fn
	}
}

// Next returns the next element boundary, or io.EOF at the end of the document
func (c *Cursor) Next() (Event, error) {
	for {
		tok, err := c.dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				if len(c.stack) > 1 {
					return Event{}, &SyntaxError{Offset: c.dec.InputOffset(), Err: io.ErrUnexpectedEOF}
				}
				return Event{}, io.EOF
			}
			return Event{}, &SyntaxError{Offset: c.dec.InputOffset(), Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			t = t.Copy()
			top := c.stack[len(c.stack)-1]
			n := &Node{Name: t.Name.Local, Attr: t.Attr, parent: top}
			top.Children = append(top.Children, n)
			top.textDone = true
			c.stack = append(c.stack, n)
			c.live++
			if c.live > c.peak {
				c.peak = c.live
			}
			return Event{Kind: StartElement, Node: n, Depth: len(c.stack) - 1}, nil

		case xml.EndElement:
			n := c.stack[len(c.stack)-1]
			depth := len(c.stack) - 1
			c.stack = c.stack[:len(c.stack)-1]
			return Event{Kind: EndElement, Node: n, Depth: depth}, nil

		case xml.CharData:
			if len(c.stack) > 1 {
				c.stack[len(c.stack)-1].appendText(t)
			}
		}
	}
}

// Release discards a fully processed node: its content is cleared and it is
// removed from its parent together with every preceding sibling, all of which
// are necessarily finished. Releasing a node that is still open is a no-op.
func (c *Cursor) Release(n *Node) {
	if n == nil || c.isOpen(n) {
		return
	}

	p := n.parent
	if p == nil {
		c.live -= n.size()
		n.clear()
		return
	}

	idx := -1
	for i, sib := range p.Children {
		if sib == n {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}

	for _, sib := range p.Children[:idx+1] {
		c.live -= sib.size()
		sib.clear()
		sib.parent = nil
	}

	remaining := make([]*Node, len(p.Children)-idx-1)
	copy(remaining, p.Children[idx+1:])
	p.Children = remaining
}

// Live returns the number of element nodes currently resident
func (c *Cursor) Live() int {
	return c.live
}

// PeakLive returns the largest number of resident element nodes seen so far
func (c *Cursor) PeakLive() int {
	return c.peak
}

// Offset returns the decoder's current byte offset in the input
func (c *Cursor) Offset() int64 {
	return c.dec.InputOffset()
}

func (c *Cursor) isOpen(n *Node) bool {
	for _, open := range c.stack[1:] {
		if open == n {
			return true
		}
	}
	return false
}
