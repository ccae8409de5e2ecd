package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ppiankov/iasflat/internal/model"
	"github.com/ppiankov/iasflat/internal/worker"
	"github.com/sirupsen/logrus"
)

// Publisher writes a set of tables into a directory as one unit: every file
// is written to a temporary name first and renamed into place only after all
// of them succeeded.
type Publisher struct {
	w       Writer
	dir     string
	prefix  string
	workers int
	log     logrus.FieldLogger
}

// NewPublisher creates a publisher writing into dir with up to workers
// tables in flight
func NewPublisher(w Writer, dir string, workers int, log logrus.FieldLogger) *Publisher {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Publisher{w: w, dir: dir, workers: workers, log: log}
}

// WithPrefix makes every published file name start with prefix
func (p *Publisher) WithPrefix(prefix string) *Publisher {
	p.prefix = prefix
	return p
}

// Path returns where table name is published
func (p *Publisher) Path(name model.Entity) string {
	return filepath.Join(p.dir, p.prefix+string(name)+p.w.Ext())
}

// writeJob writes one table to a temporary file
type writeJob struct {
	p     *Publisher
	table *model.Table
}

type writeResult struct {
	table *model.Table
	tmp   string
	err   error
}

func (r *writeResult) GetError() error { return r.err }

func (j *writeJob) Execute(ctx context.Context) worker.Result {
	res := &writeResult{table: j.table}
	if err := ctx.Err(); err != nil {
		res.err = err
		return res
	}

	f, err := os.CreateTemp(j.p.dir, "."+j.p.prefix+string(j.table.Name)+"-*.tmp")
	if err != nil {
		res.err = fmt.Errorf("create %s: %w", j.table.Name, err)
		return res
	}
	res.tmp = f.Name()

	if err := j.p.w.Write(f, j.table); err != nil {
		_ = f.Close()
		res.err = fmt.Errorf("write %s: %w", j.table.Name, err)
		return res
	}
	if err := f.Close(); err != nil {
		res.err = fmt.Errorf("close %s: %w", j.table.Name, err)
	}
	return res
}

// Publish writes every non-empty table and returns the published paths in
// table order. On any failure, including cancellation, no file is published
// and temporary files are removed.
func (p *Publisher) Publish(ctx context.Context, tables []*model.Table) ([]string, error) {
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	var jobs []worker.Job
	for _, t := range tables {
		if t.Len() == 0 {
			p.log.WithField("table", t.Name).Debug("empty table skipped")
			continue
		}
		jobs = append(jobs, &writeJob{p: p, table: t})
	}
	if len(jobs) == 0 {
		return nil, nil
	}

	results := worker.NewPool(ctx, p.workers).Run(jobs)

	written := make(map[model.Entity]*writeResult, len(results))
	var errs []error
	for _, r := range results {
		if r == nil {
			continue
		}
		wr := r.(*writeResult)
		written[wr.table.Name] = wr
		if wr.err != nil {
			errs = append(errs, wr.err)
		}
	}
	if len(written) != len(jobs) {
		errs = append(errs, fmt.Errorf("%d of %d tables not written", len(jobs)-len(written), len(jobs)))
	}
	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		removeTemps(written)
		return nil, errors.Join(errs...)
	}

	paths := make([]string, 0, len(jobs))
	for _, j := range jobs {
		t := j.(*writeJob).table
		final := p.Path(t.Name)
		if err := os.Rename(written[t.Name].tmp, final); err != nil {
			removeTemps(written)
			return paths, fmt.Errorf("publish %s: %w", t.Name, err)
		}
		written[t.Name].tmp = ""
		paths = append(paths, final)
		p.log.WithFields(logrus.Fields{
			"table": t.Name,
			"rows":  t.Len(),
			"path":  final,
		}).Info("table written")
	}
	return paths, nil
}

func removeTemps(written map[model.Entity]*writeResult) {
	for _, r := range written {
		if r.tmp != "" {
			_ = os.Remove(r.tmp)
		}
	}
}
