package denorm

import (
	"testing"

	"github.com/ppiankov/iasflat/internal/model"
)

func slots(prefix string, n, width int) Part {
	p := Part{Width: width}
	for i := 0; i < n; i++ {
		row := make(model.Row, width)
		for j := range row {
			row[j] = model.Text(prefix + string(rune('1'+i)))
		}
		p.Slots = append(p.Slots, row)
	}
	return p
}

func TestPositionalMerge_PadsToLongest(t *testing.T) {
	base := model.Row{model.Text("base")}
	rows := PositionalMerge(base, 0,
		slots("a", 2, 2),
		slots("p", 1, 1),
		slots("e", 3, 1),
		slots("i", 0, 3),
	)

	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	want := [][]string{
		{"base", "a1", "a1", "p1", "e1", "", "", ""},
		{"base", "a2", "a2", "", "e2", "", "", ""},
		{"base", "", "", "", "e3", "", "", ""},
	}
	for i, row := range rows {
		if len(row) != len(want[i]) {
			t.Fatalf("row %d: expected %d cells, got %d", i, len(want[i]), len(row))
		}
		for j, cell := range row {
			if cell.String() != want[i][j] {
				t.Errorf("row %d cell %d: expected %q, got %q", i, j, want[i][j], cell.String())
			}
		}
	}
}

func TestPositionalMerge_BlankPaddingIsNotNull(t *testing.T) {
	rows := PositionalMerge(nil, 1, slots("x", 0, 2))
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	for j, cell := range rows[0] {
		if cell != model.Blank {
			t.Errorf("cell %d: expected blank padding, got %+v", j, cell)
		}
	}
}

func TestPositionalMerge_EmptyPartsYieldNothing(t *testing.T) {
	rows := PositionalMerge(model.Row{model.Text("base")}, 0, slots("a", 0, 1), slots("b", 0, 1))
	if len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}
}

func TestPositionalMerge_MinRows(t *testing.T) {
	rows := PositionalMerge(model.Row{model.Text("b")}, 1, slots("c", 0, 1), slots("d", 0, 1))
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if got := rows[0][0].String(); got != "b" {
		t.Errorf("expected base cell %q, got %q", "b", got)
	}
}

func TestPositionalMerge_DoesNotAliasBase(t *testing.T) {
	base := model.Row{model.Text("base")}
	rows := PositionalMerge(base, 0, slots("a", 2, 1))
	rows[0][0] = model.Text("changed")
	if rows[1][0].String() != "base" || base[0].String() != "base" {
		t.Error("rows share storage with each other or with base")
	}
}
