package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/ppiankov/iasflat/internal/cache"
	"github.com/ppiankov/iasflat/internal/extract"
	"github.com/ppiankov/iasflat/internal/model"
	"github.com/ppiankov/iasflat/internal/store"
	"github.com/ppiankov/iasflat/internal/worker"
)

const enrollment = `<?xml version="1.0" encoding="UTF-8"?>
<Enrollment>
  <FileMetaData><FileName>ias_20240131.xml</FileName></FileMetaData>
  <Sender><Name>ETF</Name><TaxID>39-1</TaxID></Sender>
  %s
</Enrollment>`

func sponsor(i int, transactionType string) string {
	tt := ""
	if transactionType != "" {
		tt = "<Metadata><TransactionType>" + transactionType + "</TransactionType></Metadata>"
	}
	return fmt.Sprintf(`<Sponsor><Name>S%d</Name><GroupIdentifier>G%d</GroupIdentifier>
    <Contract><SubscriberID>SUB%d</SubscriberID>%s
      <Member><UPID>U%d</UPID><PersonType>Subscriber</PersonType>
        <PhoneNumbers><PhoneNumber type="home">555-%d</PhoneNumber></PhoneNumbers>
        <Benefits><Benefit BenefitType="Medical"><ProductID>P%d</ProductID></Benefit></Benefits>
      </Member>
    </Contract></Sponsor>`, i, i, i, tt, i, i, i)
}

func document(sponsors ...string) string {
	return fmt.Sprintf(enrollment, strings.Join(sponsors, "\n"))
}

func writeDoc(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newPipeline(t *testing.T, opts ...Option) *Pipeline {
	t.Helper()
	cfg := model.DefaultConfig()
	p, err := NewPipeline(cfg, nil, opts...)
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}
	return p
}

type fakeLoader struct {
	tables []*model.Table
	err    error
}

func (l *fakeLoader) Load(ctx context.Context, tables []*model.Table) (int64, error) {
	if l.err != nil {
		return 0, l.err
	}
	l.tables = tables
	var n int64
	for _, t := range tables {
		n += int64(t.Len())
	}
	return n, nil
}

type fakeCatalog struct {
	entries map[string]store.Entry
	calls   int
}

func (c *fakeCatalog) Resolve(ctx context.Context, name string) (store.Entry, error) {
	c.calls++
	e, ok := c.entries[name]
	if !ok {
		return store.Entry{}, store.ErrNotFound
	}
	return e, nil
}

func TestNormalize_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	docPath := writeDoc(t, dir, "in.xml", []byte(document(sponsor(1, "Add"), sponsor(2, "Add"), sponsor(3, "Change"))))
	outDir := filepath.Join(dir, "out")

	loader := &fakeLoader{}
	summary, err := newPipeline(t, WithLoader(loader)).Normalize(context.Background(), docPath, outDir, true)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if summary.Sponsors != 3 || summary.Members != 3 || summary.Benefits != 3 {
		t.Errorf("unexpected summary counts %+v", summary)
	}
	if summary.Rows[model.EntitySponsor] != 3 {
		t.Errorf("expected 3 sponsor rows, got %d", summary.Rows[model.EntitySponsor])
	}
	if summary.RunID == "" {
		t.Error("expected run id")
	}
	if summary.Loaded != int64(summary.TotalRows()) {
		t.Errorf("expected %d loaded rows, got %d", summary.TotalRows(), summary.Loaded)
	}

	// Emails, Categories, Medicare, FinancialContributions, FinancialBenefitDetails,
	// AdditionalInsurances and Addresses are empty and skipped
	if len(summary.Files) != 7 {
		t.Errorf("expected 7 files, got %d: %v", len(summary.Files), summary.Files)
	}

	data, err := os.ReadFile(filepath.Join(outDir, "Members.csv"))
	if err != nil {
		t.Fatalf("Members.csv not written: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header and 3 members, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "Contract_ID\tMember_ID\tFirstName") {
		t.Errorf("unexpected header %q", lines[0])
	}
	if !strings.HasPrefix(lines[3], "3\t3\t") {
		t.Errorf("expected contract 3 member 3, got %q", lines[3])
	}
}

func TestNormalize_MissingTransactionTypeWritesNothing(t *testing.T) {
	dir := t.TempDir()
	docPath := writeDoc(t, dir, "in.xml", []byte(document(sponsor(1, ""))))
	outDir := filepath.Join(dir, "out")

	loader := &fakeLoader{}
	_, err := newPipeline(t, WithLoader(loader)).Normalize(context.Background(), docPath, outDir, true)

	var se *extract.StructuralError
	if !errors.As(err, &se) {
		t.Fatalf("expected structural error, got %v", err)
	}
	if _, statErr := os.Stat(outDir); !os.IsNotExist(statErr) {
		t.Error("expected no output directory after a failed traversal")
	}
	if loader.tables != nil {
		t.Error("loader should not be called")
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	dir := t.TempDir()
	docPath := writeDoc(t, dir, "in.xml", []byte(document(sponsor(1, "Add"), sponsor(2, "Add"))))
	p := newPipeline(t)

	var outputs [2]string
	for i := range outputs {
		outDir := filepath.Join(dir, fmt.Sprintf("out%d", i))
		if _, err := p.Normalize(context.Background(), docPath, outDir, false); err != nil {
			t.Fatalf("run %d failed: %v", i, err)
		}
		data, err := os.ReadFile(filepath.Join(outDir, "Benefit.csv"))
		if err != nil {
			t.Fatal(err)
		}
		outputs[i] = string(data)
	}
	if outputs[0] != outputs[1] {
		t.Errorf("runs differ:\n%s\n---\n%s", outputs[0], outputs[1])
	}
}

func TestNormalize_GzipInput(t *testing.T) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write([]byte(document(sponsor(1, "Add")))); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	docPath := writeDoc(t, dir, "in.xml.gz", buf.Bytes())
	summary, err := newPipeline(t).Normalize(context.Background(), docPath, filepath.Join(dir, "out"), false)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if summary.Members != 1 {
		t.Errorf("expected 1 member, got %d", summary.Members)
	}
}

func TestNormalize_LoadFailure(t *testing.T) {
	dir := t.TempDir()
	docPath := writeDoc(t, dir, "in.xml", []byte(document(sponsor(1, "Add"))))

	loader := &fakeLoader{err: errors.New("connection reset")}
	_, err := newPipeline(t, WithLoader(loader)).Normalize(context.Background(), docPath, filepath.Join(dir, "out"), true)
	if err == nil || !strings.HasPrefix(err.Error(), "load:") {
		t.Errorf("expected load error, got %v", err)
	}
}

func TestNormalize_Cancelled(t *testing.T) {
	dir := t.TempDir()
	docPath := writeDoc(t, dir, "in.xml", []byte(document(sponsor(1, "Add"))))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newPipeline(t).Normalize(ctx, docPath, filepath.Join(dir, "out"), false)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestWide_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "ias_20240131.xml", []byte(document(sponsor(1, "Add"), sponsor(2, "Add"))))

	catalog := &fakeCatalog{entries: map[string]store.Entry{
		"": {FileName: "ias_20240131.xml", Timestamp: time.Date(2024, 1, 31, 8, 30, 0, 0, time.UTC)},
	}}
	summary, err := newPipeline(t, WithCatalog(catalog)).Wide(context.Background(), "", dir)
	if err != nil {
		t.Fatalf("Wide failed: %v", err)
	}

	if summary.Rows[model.EntityDemoRecord] != 2 || summary.Rows[model.EntityBenefitRecord] != 2 {
		t.Errorf("unexpected row counts %v", summary.Rows)
	}

	data, err := os.ReadFile(filepath.Join(dir, "Demo_Records.csv"))
	if err != nil {
		t.Fatalf("Demo_Records.csv not written: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if !strings.HasPrefix(lines[1], "2024-01-31 08:30:00\tG1\tS1\tSUB1\tG1\tG1\t") {
		t.Errorf("unexpected first demo row %q", lines[1])
	}

	if _, err := os.Stat(filepath.Join(dir, "Benefit_Records.csv")); err != nil {
		t.Errorf("Benefit_Records.csv not written: %v", err)
	}
}

func TestWide_NotFound(t *testing.T) {
	dir := t.TempDir()
	catalog := &fakeCatalog{entries: map[string]store.Entry{}}

	_, err := newPipeline(t, WithCatalog(catalog)).Wide(context.Background(), "missing.xml", dir)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "missing.xml") || !strings.Contains(err.Error(), dir) {
		t.Errorf("error should name the reference and folder: %v", err)
	}
}

func TestWide_NoCatalog(t *testing.T) {
	if _, err := newPipeline(t).Wide(context.Background(), "", t.TempDir()); !errors.Is(err, ErrNoCatalog) {
		t.Errorf("expected ErrNoCatalog, got %v", err)
	}
}

func TestWideRunner_BatchWithMemoizedCatalog(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.xml", []byte(document(sponsor(1, "Add"))))
	writeDoc(t, dir, "b.xml", []byte(document(sponsor(2, "Add"))))

	ts := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	inner := &fakeCatalog{entries: map[string]store.Entry{
		"a.xml": {FileName: "a.xml", Timestamp: ts},
		"b.xml": {FileName: "b.xml", Timestamp: ts},
	}}
	p := newPipeline(t, WithCatalog(cache.NewMemoryCatalog(inner, time.Minute)))

	results := worker.NewBatchProcessor(p.WideRunner(dir)).ProcessRefs(context.Background(),
		[]string{"a.xml", "b.xml", "a.xml", "nope.xml"})

	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for i := 0; i < 3; i++ {
		if results[i].Error != nil {
			t.Errorf("%s: unexpected error %v", results[i].Ref, results[i].Error)
		}
	}
	if !errors.Is(results[3].Error, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for nope.xml, got %v", results[3].Error)
	}
	if inner.calls != 3 {
		t.Errorf("expected 3 catalog lookups (a, b, nope), got %d", inner.calls)
	}
	if results[0].Summary.Reused || !results[2].Summary.Reused {
		t.Errorf("expected only the repeated a.xml to be reused: %v %v", results[0].Summary.Reused, results[2].Summary.Reused)
	}
	if results[2].Summary.Document != results[0].Summary.Document {
		t.Errorf("reused summary points at %s, want %s", results[2].Summary.Document, results[0].Summary.Document)
	}
}

func TestWideRunner_ProcessFileKeepsEveryDocument(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.xml", []byte(document(sponsor(1, "Add"))))
	writeDoc(t, dir, "b.xml", []byte(document(sponsor(2, "Add"))))
	refs := writeDoc(t, t.TempDir(), "refs.txt", []byte("a.xml\nb.xml\na.xml\nb.xml\n"))

	ts := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	inner := &fakeCatalog{entries: map[string]store.Entry{
		"a.xml": {FileName: "a.xml", Timestamp: ts},
		"b.xml": {FileName: "b.xml", Timestamp: ts},
	}}
	p := newPipeline(t, WithCatalog(cache.NewMemoryCatalog(inner, time.Minute)))

	results, err := worker.NewBatchProcessor(p.WideRunner(dir)).ProcessFile(context.Background(), refs)
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Error != nil {
			t.Fatalf("%s: unexpected error %v", r.Ref, r.Error)
		}
	}
	if inner.calls != 2 {
		t.Errorf("expected repeated refs to be served from the memo, got %d catalog lookups", inner.calls)
	}
	if !results[2].Summary.Reused || !results[3].Summary.Reused {
		t.Error("expected repeated documents to be reused, not converted again")
	}

	for name, group := range map[string]string{"a_Demo_Records.csv": "\tG1\t", "b_Demo_Records.csv": "\tG2\t"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("%s not written: %v", name, err)
		}
		if !strings.Contains(string(data), group) {
			t.Errorf("%s does not contain its own sponsor %q", name, strings.TrimSpace(group))
		}
	}
	for _, name := range []string{"a_Benefit_Records.csv", "b_Benefit_Records.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "Demo_Records.csv")); !os.IsNotExist(err) {
		t.Errorf("batch should not write the shared Demo_Records.csv name")
	}
}

func TestDocumentStem(t *testing.T) {
	tests := map[string]string{
		"IAS_20240131.xml":     "IAS_20240131",
		"IAS_20240131.xml.gz":  "IAS_20240131",
		"IAS_20240131.XML.zst": "IAS_20240131",
		"nested/dir/feed.xml":  "feed",
		"no_extension":         "no_extension",
	}
	for in, want := range tests {
		if got := documentStem(in); got != want {
			t.Errorf("documentStem(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewPipeline_Validation(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Output.Format = "parquet"
	if _, err := NewPipeline(cfg, nil); err == nil {
		t.Error("expected error for unsupported format")
	}

	cfg = model.DefaultConfig()
	cfg.Input.Compression = "lz4"
	if _, err := NewPipeline(cfg, nil); err == nil {
		t.Error("expected error for unsupported compression")
	}
}
