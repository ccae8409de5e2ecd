// Package pipeline wires a document source through the traversal into the
// table sink and the warehouse.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/iasflat/internal/denorm"
	"github.com/ppiankov/iasflat/internal/keys"
	"github.com/ppiankov/iasflat/internal/model"
	"github.com/ppiankov/iasflat/internal/normalize"
	"github.com/ppiankov/iasflat/internal/sink"
	"github.com/ppiankov/iasflat/internal/store"
	"github.com/ppiankov/iasflat/internal/traverse"
	"github.com/ppiankov/iasflat/internal/worker"
	"github.com/ppiankov/iasflat/internal/xmlstream"
	"github.com/sirupsen/logrus"
)

// FileDateLayout formats the catalog timestamp in wide output
const FileDateLayout = "2006-01-02 15:04:05"

// Modes
const (
	ModeNormalized = "normalized"
	ModeWide       = "wide"
)

// ErrNoCatalog is returned by wide runs when no catalog is configured
var ErrNoCatalog = errors.New("no catalog configured")

// Pipeline orchestrates one document run
type Pipeline struct {
	config      *model.Config
	log         logrus.FieldLogger
	writer      sink.Writer
	compression xmlstream.Compression
	catalog     store.Catalog
	loader      store.Loader
}

// Option configures optional collaborators
type Option func(*Pipeline)

// WithCatalog sets the catalog used to resolve wide-mode references
func WithCatalog(c store.Catalog) Option {
	return func(p *Pipeline) { p.catalog = c }
}

// WithLoader sets the loader normalized runs load into
func WithLoader(l store.Loader) Option {
	return func(p *Pipeline) { p.loader = l }
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config, log logrus.FieldLogger, opts ...Option) (*Pipeline, error) {
	writer, err := sink.NewWriter(cfg.Output.Format)
	if err != nil {
		return nil, err
	}
	compression, err := xmlstream.ParseCompression(cfg.Input.Compression)
	if err != nil {
		return nil, err
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	p := &Pipeline{
		config:      cfg,
		log:         log,
		writer:      writer,
		compression: compression,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Transduce runs a single traversal of cur with a fresh key allocator
func Transduce(ctx context.Context, cur *xmlstream.Cursor, v traverse.Visitor, log logrus.FieldLogger) (traverse.Stats, error) {
	return traverse.NewEngine(keys.New(), log).Run(ctx, cur, v)
}

// Normalize converts the document at docPath into one table per entity,
// writes them to outDir and, when load is set and a loader is configured,
// bulk loads them
func (p *Pipeline) Normalize(ctx context.Context, docPath, outDir string, load bool) (*model.RunSummary, error) {
	summary := p.newSummary(ModeNormalized, docPath)
	log := p.log.WithFields(logrus.Fields{
		"run_id":   summary.RunID,
		"mode":     summary.Mode,
		"document": docPath,
	})

	// 1. Traverse
	collector := normalize.NewCollector()
	if err := p.transduceFile(ctx, docPath, normalize.NewFlattener(collector), summary, log); err != nil {
		return nil, err
	}
	tables := collector.Tables()

	// 2. Publish
	files, err := sink.NewPublisher(p.writer, outDir, p.config.Concurrency.FlushWorkers, log).Publish(ctx, tables)
	if err != nil {
		return nil, fmt.Errorf("publish: %w", err)
	}
	summary.Files = files
	summary.Rows = rowCounts(tables)

	// 3. Load
	if load && p.loader != nil {
		log.WithField("stage", "load").Info("loading tables")
		n, err := p.loader.Load(ctx, tables)
		if err != nil {
			return nil, fmt.Errorf("load: %w", err)
		}
		summary.Loaded = n
	}

	return p.finish(summary, log), nil
}

// ResolveDocument looks up a file reference in the catalog
func (p *Pipeline) ResolveDocument(ctx context.Context, ref string) (store.Entry, error) {
	if p.catalog == nil {
		return store.Entry{}, ErrNoCatalog
	}
	e, err := p.catalog.Resolve(ctx, ref)
	if err != nil {
		return store.Entry{}, err
	}
	return e, nil
}

// Wide resolves ref through the catalog, reads that document from dir and
// writes Demo_Records and Benefit_Records back into dir
func (p *Pipeline) Wide(ctx context.Context, ref, dir string) (*model.RunSummary, error) {
	entry, err := p.resolve(ctx, ref, dir)
	if err != nil {
		return nil, err
	}
	return p.wide(ctx, entry, dir, "")
}

func (p *Pipeline) resolve(ctx context.Context, ref, dir string) (store.Entry, error) {
	entry, err := p.ResolveDocument(ctx, ref)
	if err != nil {
		return store.Entry{}, fmt.Errorf("resolve %q (folder %s): %w", ref, dir, err)
	}
	return entry, nil
}

// wide converts one cataloged document; prefix is prepended to the output file names
func (p *Pipeline) wide(ctx context.Context, entry store.Entry, dir, prefix string) (*model.RunSummary, error) {
	docPath := filepath.Join(dir, entry.FileName)
	summary := p.newSummary(ModeWide, docPath)
	log := p.log.WithFields(logrus.Fields{
		"run_id":    summary.RunID,
		"mode":      summary.Mode,
		"document":  docPath,
		"file_date": entry.Timestamp.Format(FileDateLayout),
	})

	// 1. Traverse
	merger := denorm.NewMerger(model.Text(entry.Timestamp.Format(FileDateLayout)))
	if err := p.transduceFile(ctx, docPath, merger, summary, log); err != nil {
		return nil, err
	}
	tables := merger.Tables()

	// 2. Publish
	publisher := sink.NewPublisher(p.writer, dir, p.config.Concurrency.FlushWorkers, log).WithPrefix(prefix)
	files, err := publisher.Publish(ctx, tables)
	if err != nil {
		return nil, fmt.Errorf("publish: %w", err)
	}
	summary.Files = files
	summary.Rows = rowCounts(tables)

	return p.finish(summary, log), nil
}

// WideRunner adapts wide runs over dir to the batch processor. Each document
// is written under its own name (<stem>_Demo_Records, <stem>_Benefit_Records)
// so a batch never overwrites its own output. A reference that resolves to a
// document already converted by this runner returns the earlier summary,
// marked Reused, without converting it again.
func (p *Pipeline) WideRunner(dir string) worker.Runner {
	return &wideRunner{p: p, dir: dir, done: make(map[string]*model.RunSummary)}
}

type wideRunner struct {
	p   *Pipeline
	dir string

	mu   sync.Mutex
	done map[string]*model.RunSummary
}

func (r *wideRunner) Run(ctx context.Context, ref string) (*model.RunSummary, error) {
	entry, err := r.p.resolve(ctx, ref, r.dir)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.done[entry.FileName]; ok {
		reused := *prev
		reused.Reused = true
		r.p.log.WithFields(logrus.Fields{
			"ref":      ref,
			"document": prev.Document,
		}).Info("document already converted in this batch")
		return &reused, nil
	}

	summary, err := r.p.wide(ctx, entry, r.dir, documentStem(entry.FileName)+"_")
	if err != nil {
		return nil, err
	}
	r.done[entry.FileName] = summary
	return summary, nil
}

// documentStem is a file name without its directory, compression and .xml
// extensions
func documentStem(fileName string) string {
	stem := filepath.Base(fileName)
	for _, ext := range []string{".gz", ".gzip", ".zst", ".zstd"} {
		if strings.HasSuffix(strings.ToLower(stem), ext) {
			stem = stem[:len(stem)-len(ext)]
			break
		}
	}
	if strings.HasSuffix(strings.ToLower(stem), ".xml") {
		stem = stem[:len(stem)-len(".xml")]
	}
	return stem
}

func (p *Pipeline) transduceFile(ctx context.Context, docPath string, v traverse.Visitor, summary *model.RunSummary, log logrus.FieldLogger) error {
	doc, err := xmlstream.Open(docPath, p.compression)
	if err != nil {
		return err
	}
	defer func() { _ = doc.Close() }()

	log.WithFields(logrus.Fields{
		"stage":       "traverse",
		"compression": doc.Compression,
	}).Info("reading document")

	stats, err := Transduce(ctx, doc.Cursor(), v, log)
	if err != nil {
		return fmt.Errorf("traverse: %w", err)
	}

	summary.Sponsors = stats.Sponsors
	summary.Contracts = stats.Contracts
	summary.Members = stats.Members
	summary.Benefits = stats.Benefits
	summary.PeakNodes = stats.PeakNodes
	return nil
}

func (p *Pipeline) newSummary(mode, document string) *model.RunSummary {
	return &model.RunSummary{
		RunID:     uuid.NewString(),
		Mode:      mode,
		Document:  document,
		StartedAt: time.Now().UTC(),
	}
}

func (p *Pipeline) finish(summary *model.RunSummary, log logrus.FieldLogger) *model.RunSummary {
	summary.Duration = time.Since(summary.StartedAt)
	log.WithFields(logrus.Fields{
		"members":    summary.Members,
		"rows":       summary.TotalRows(),
		"files":      len(summary.Files),
		"loaded":     summary.Loaded,
		"peak_nodes": summary.PeakNodes,
		"elapsed":    summary.Duration.String(),
	}).Info("run complete")
	return summary
}

func rowCounts(tables []*model.Table) map[model.Entity]int {
	rows := make(map[model.Entity]int, len(tables))
	for _, t := range tables {
		rows[t.Name] = t.Len()
	}
	return rows
}
