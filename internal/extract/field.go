package extract

import (
	"fmt"

	"github.com/ppiankov/iasflat/internal/model"
	"github.com/ppiankov/iasflat/internal/xmlstream"
)

// StructuralError reports a field the document format guarantees but which is absent
type StructuralError struct {
	Entity string
	Path   string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("structural violation: %s is missing required %s", e.Entity, e.Path)
}

// Text returns the text of the element at path below n, or null when the
// element is absent or empty. It never fails.
func Text(n *xmlstream.Node, path string) model.Value {
	s, ok := n.Find(path).Text()
	if !ok {
		return model.Null
	}
	return model.Text(s)
}

// RequireText is Text for fields the format guarantees
func RequireText(n *xmlstream.Node, entity, path string) (model.Value, error) {
	v := Text(n, path)
	if !v.Valid {
		return model.Null, &StructuralError{Entity: entity, Path: path}
	}
	return v, nil
}

// Attr returns the named attribute of n, or null
func Attr(n *xmlstream.Node, name string) model.Value {
	s, ok := n.AttrValue(name)
	if !ok {
		return model.Null
	}
	return model.Text(s)
}

// Field maps one output column to a location below a node.
// An empty Path means the node itself; a non-empty Attr reads an attribute
// of the located element instead of its text.
type Field struct {
	Column string
	Path   string
	Attr   string
}

// F is shorthand for a field whose column and child element share a name
func F(name string) Field {
	return Field{Column: name, Path: name}
}

// Get evaluates the field against n
func (f Field) Get(n *xmlstream.Node) model.Value {
	if f.Attr != "" {
		return Attr(n.Find(f.Path), f.Attr)
	}
	return Text(n, f.Path)
}

// Fields evaluates every field against n, in order
func Fields(n *xmlstream.Node, fields []Field) model.Row {
	row := make(model.Row, len(fields))
	for i, f := range fields {
		row[i] = f.Get(n)
	}
	return row
}

// Columns returns the column names of fields, in order
func Columns(fields []Field) []string {
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Column
	}
	return cols
}
