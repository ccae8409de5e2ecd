// Package denorm builds wide export rows: one row per positional slot of a
// member's (or benefit's) repeating child collections.
package denorm

import "github.com/ppiankov/iasflat/internal/model"

// Part is one repeating collection, already projected into fixed-width cell groups
type Part struct {
	Width int
	Slots []model.Row
}

// PositionalMerge combines parts index by index. It produces
// max(minRows, len(parts[0].Slots), len(parts[1].Slots), ...) rows; row i is
// base followed by slot i of every part, or Width blank cells where a part
// has fewer than i+1 slots.
//
// This is a zip with padding, not a join: slot i of one part has no relation
// to slot i of another beyond sharing the index.
func PositionalMerge(base model.Row, minRows int, parts ...Part) []model.Row {
	n := minRows
	width := len(base)
	for _, p := range parts {
		if len(p.Slots) > n {
			n = len(p.Slots)
		}
		width += p.Width
	}

	rows := make([]model.Row, n)
	for i := range rows {
		row := make(model.Row, 0, width)
		row = append(row, base...)
		for _, p := range parts {
			if i < len(p.Slots) {
				row = append(row, p.Slots[i]...)
			} else {
				row = append(row, blanks(p.Width)...)
			}
		}
		rows[i] = row
	}
	return rows
}

func blanks(n int) model.Row {
	row := make(model.Row, n)
	for i := range row {
		row[i] = model.Blank
	}
	return row
}
