package convert

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/parquet-go/parquet-go"
)

// RootName is the name of the node holding the top-level columns.
const RootName = "schema"

const (
	Required = "REQUIRED"
	Optional = "OPTIONAL"
	Repeated = "REPEATED"
)

// SchemaNode is one field of a decoded file rendered for display.
type SchemaNode struct {
	Name string `json:"name"`
	// Type is the arrow type descriptor. Nested types keep their compound
	// form, e.g. struct<x: float64, y: float64>.
	Type string `json:"type"`
	// LogicalType is the parquet annotation of the field, if any.
	LogicalType string        `json:"logical_type,omitempty"`
	Repetition  string        `json:"repetition_type"`
	Nullable    bool          `json:"nullable"`
	Class       TypeClass     `json:"class"`
	Children    []*SchemaNode `json:"children"`

	// Only set on the root.
	NumColumns int `json:"num_columns,omitempty"`
	RowGroups  int `json:"row_groups,omitempty"`
}

// Project mirrors an arrow schema into a SchemaNode tree. fields are the
// top-level fields of the parquet schema the arrow schema was read from and
// only contribute logical type annotations and repetition; they may be nil.
func Project(schema *arrow.Schema, fields []parquet.Field, rowGroups int) *SchemaNode {
	root := &SchemaNode{
		Name:       RootName,
		Type:       "struct",
		Repetition: Required,
		Class:      ClassStruct,
		Children:   []*SchemaNode{},
		RowGroups:  rowGroups,
	}
	if schema == nil {
		return root
	}

	for i, f := range schema.Fields() {
		var pn parquet.Node
		if i < len(fields) && fields[i].Name() == f.Name {
			pn = fields[i]
		}
		root.Children = append(root.Children, projectField(f, pn))
	}
	root.NumColumns = len(root.Children)
	return root
}

func projectField(f arrow.Field, pn parquet.Node) *SchemaNode {
	typ := f.Type.String()
	n := &SchemaNode{
		Name:        f.Name,
		Type:        typ,
		LogicalType: logicalType(pn),
		Repetition:  repetition(f, pn),
		Class:       Classify(typ),
		Children:    []*SchemaNode{},
	}
	n.Nullable = n.Repetition != Required

	switch dt := f.Type.(type) {
	case *arrow.StructType:
		for _, c := range dt.Fields() {
			n.Children = append(n.Children, projectField(c, childByName(pn, c.Name)))
		}
	case *arrow.MapType:
		key, value := mapEntries(pn)
		n.Children = append(n.Children,
			projectField(dt.KeyField(), key),
			projectField(dt.ItemField(), value),
		)
	case arrow.ListLikeType:
		n.Children = append(n.Children, projectField(dt.ElemField(), listElement(pn)))
	}
	return n
}

func logicalType(n parquet.Node) string {
	if n == nil {
		return ""
	}
	t := n.Type()
	if t == nil || t.LogicalType() == nil {
		return ""
	}
	return t.String()
}

func repetition(f arrow.Field, n parquet.Node) string {
	switch {
	case n == nil && f.Nullable:
		return Optional
	case n == nil:
		return Required
	case n.Repeated():
		return Repeated
	case n.Required():
		return Required
	default:
		return Optional
	}
}

func childByName(n parquet.Node, name string) parquet.Node {
	if n == nil || n.Leaf() {
		return nil
	}
	for _, c := range n.Fields() {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

// listElement resolves the element node of a LIST group. Both the three-level
// layout and the legacy two-level layout are accepted.
func listElement(n parquet.Node) parquet.Node {
	if n == nil || n.Leaf() {
		return nil
	}
	fields := n.Fields()
	if len(fields) != 1 {
		return nil
	}
	rep := fields[0]
	if rep.Leaf() {
		return rep
	}
	if inner := rep.Fields(); len(inner) == 1 {
		return inner[0]
	}
	return rep
}

func mapEntries(n parquet.Node) (key, value parquet.Node) {
	if n == nil || n.Leaf() {
		return nil, nil
	}
	fields := n.Fields()
	if len(fields) != 1 || fields[0].Leaf() {
		return nil, nil
	}
	kv := fields[0].Fields()
	if len(kv) != 2 {
		return nil, nil
	}
	return kv[0], kv[1]
}

// Column describes one top-level column of a decoded table. Names are not
// unique; Position is the index of the column in the table.
type Column struct {
	Name        string    `json:"name"`
	Position    int       `json:"position"`
	Type        string    `json:"type"`
	LogicalType string    `json:"logical_type,omitempty"`
	Class       TypeClass `json:"class"`
}

// Columns returns one Column per child of root, in order.
func Columns(root *SchemaNode) []Column {
	if root == nil {
		return []Column{}
	}
	cols := make([]Column, 0, len(root.Children))
	for i, c := range root.Children {
		cols = append(cols, Column{
			Name:        c.Name,
			Position:    i,
			Type:        c.Type,
			LogicalType: c.LogicalType,
			Class:       c.Class,
		})
	}
	return cols
}

// Names returns the column names in order.
func Names(columns []Column) []string {
	names := make([]string, 0, len(columns))
	for _, c := range columns {
		names = append(names, c.Name)
	}
	return names
}
