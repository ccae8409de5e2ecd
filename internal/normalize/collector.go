// Package normalize flattens an enrollment document into one relational
// table per entity type, linked by surrogate ids and copied business keys.
package normalize

import (
	"fmt"

	"github.com/ppiankov/iasflat/internal/model"
)

// Collector accumulates rows per entity type in insertion order. It does not
// deduplicate, sort or check links.
type Collector struct {
	tables map[model.Entity]*model.Table
}

// NewCollector creates a collector with an empty table for every normalized entity
func NewCollector() *Collector {
	c := &Collector{tables: make(map[model.Entity]*model.Table, len(layouts))}
	for _, e := range model.NormalizedEntities {
		c.tables[e] = model.NewTable(e, layouts[e].columns())
	}
	return c
}

// Append adds a row to the table for e
func (c *Collector) Append(e model.Entity, row model.Row) {
	t, ok := c.tables[e]
	if !ok {
		panic(fmt.Sprintf("normalize: unknown entity %q", e))
	}
	t.Append(row)
}

// Table returns the table for e
func (c *Collector) Table(e model.Entity) *model.Table {
	return c.tables[e]
}

// Tables returns every table in flush order, including empty ones
func (c *Collector) Tables() []*model.Table {
	out := make([]*model.Table, 0, len(model.NormalizedEntities))
	for _, e := range model.NormalizedEntities {
		out = append(out, c.tables[e])
	}
	return out
}
