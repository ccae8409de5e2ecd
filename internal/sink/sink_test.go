package sink

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/iasflat/internal/model"
	"github.com/xuri/excelize/v2"
)

func sampleTable(name model.Entity, rows int) *model.Table {
	t := model.NewTable(name, []string{"Member_ID", "Name", "Note"})
	for i := 0; i < rows; i++ {
		t.Append(model.Row{model.Int(int64(i + 1)), model.Text("a\tb"), model.Null})
	}
	return t
}

func TestTSVWriter(t *testing.T) {
	var buf bytes.Buffer
	if err := (TSVWriter{}).Write(&buf, sampleTable(model.EntityMember, 2)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "Member_ID\tName\tNote\n1\t\"a\tb\"\t\n2\t\"a\tb\"\t\n"
	if got := buf.String(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestXLSXWriter(t *testing.T) {
	var buf bytes.Buffer
	if err := (XLSXWriter{}).Write(&buf, sampleTable(model.EntityMember, 3)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("failed to reopen workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(string(model.EntityMember))
	if err != nil {
		t.Fatalf("failed to read sheet: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows including header, got %d", len(rows))
	}
	if rows[0][0] != "Member_ID" || rows[3][0] != "3" {
		t.Errorf("unexpected sheet content %v", rows)
	}
}

func TestNewWriter(t *testing.T) {
	tests := map[string]string{"tsv": ".csv", "": ".csv", "XLSX": ".xlsx"}
	for format, ext := range tests {
		w, err := NewWriter(format)
		if err != nil {
			t.Errorf("NewWriter(%q): unexpected error: %v", format, err)
			continue
		}
		if w.Ext() != ext {
			t.Errorf("NewWriter(%q): expected %s, got %s", format, ext, w.Ext())
		}
	}
	if _, err := NewWriter("parquet"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestPublisher_WritesNonEmptyTables(t *testing.T) {
	dir := t.TempDir()
	p := NewPublisher(TSVWriter{}, dir, 2, nil)

	tables := []*model.Table{
		sampleTable(model.EntityContract, 1),
		sampleTable(model.EntityMember, 2),
		sampleTable(model.EntityEmailAddress, 0),
	}
	paths, err := p.Publish(context.Background(), tables)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{filepath.Join(dir, "Contracts.csv"), filepath.Join(dir, "Members.csv")}
	if len(paths) != len(want) || paths[0] != want[0] || paths[1] != want[1] {
		t.Errorf("expected %v, got %v", want, paths)
	}
	if names := listDir(t, dir); len(names) != 2 {
		t.Errorf("expected only published files in dir, got %v", names)
	}

	data, err := os.ReadFile(want[1])
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Count(string(data), "\n"); lines != 3 {
		t.Errorf("expected header plus 2 rows, got %d lines", lines)
	}
}

type failingWriter struct{ on model.Entity }

func (failingWriter) Ext() string { return ".csv" }

func (w failingWriter) Write(out io.Writer, t *model.Table) error {
	if t.Name == w.on {
		return errors.New("disk full")
	}
	return TSVWriter{}.Write(out, t)
}

func TestPublisher_FailurePublishesNothing(t *testing.T) {
	dir := t.TempDir()
	p := NewPublisher(failingWriter{on: model.EntityMember}, dir, 3, nil)

	tables := []*model.Table{
		sampleTable(model.EntityContract, 1),
		sampleTable(model.EntityMember, 1),
		sampleTable(model.EntityAddress, 1),
	}
	_, err := p.Publish(context.Background(), tables)
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected write failure, got %v", err)
	}
	if names := listDir(t, dir); len(names) != 0 {
		t.Errorf("expected empty output dir, got %v", names)
	}
}

func TestPublisher_CancelledPublishesNothing(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPublisher(TSVWriter{}, dir, 2, nil).Publish(ctx, []*model.Table{sampleTable(model.EntityMember, 1)})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if names := listDir(t, dir); len(names) != 0 {
		t.Errorf("expected empty output dir, got %v", names)
	}
}

func TestPublisher_NothingToWrite(t *testing.T) {
	paths, err := NewPublisher(TSVWriter{}, t.TempDir(), 1, nil).Publish(context.Background(),
		[]*model.Table{sampleTable(model.EntityMember, 0)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("expected no paths, got %v", paths)
	}
}

func TestPublisher_PrefixKeepsRunsApart(t *testing.T) {
	dir := t.TempDir()
	tables := []*model.Table{sampleTable(model.EntityDemoRecord, 1)}

	for _, prefix := range []string{"a_", "b_"} {
		if _, err := NewPublisher(TSVWriter{}, dir, 1, nil).WithPrefix(prefix).Publish(context.Background(), tables); err != nil {
			t.Fatalf("publish %s: %v", prefix, err)
		}
	}

	names := listDir(t, dir)
	if len(names) != 2 {
		t.Fatalf("expected 2 files, got %v", names)
	}
	for _, name := range []string{"a_Demo_Records.csv", "b_Demo_Records.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not published: %v", name, err)
		}
	}
}
