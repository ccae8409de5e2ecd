// Package store talks to the warehouse: it resolves documents through the
// FileMetaData catalog and bulk loads normalized tables.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ppiankov/iasflat/internal/model"
	"github.com/ppiankov/iasflat/internal/worker"
	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned when the catalog has no matching entry
var ErrNotFound = errors.New("catalog entry not found")

// Entry is one cataloged document
type Entry struct {
	FileName  string
	Timestamp time.Time
}

// Catalog resolves a logical file reference. An empty name resolves to the
// most recently cataloged entry.
type Catalog interface {
	Resolve(ctx context.Context, name string) (Entry, error)
}

// Loader bulk loads tables and returns the number of rows inserted
type Loader interface {
	Load(ctx context.Context, tables []*model.Table) (int64, error)
}

// Store is a catalog and loader over one connection pool
type Store interface {
	Catalog
	Loader
	Close() error
}

// Open connects to the configured warehouse
func Open(ctx context.Context, db model.DatabaseConfig, catalog model.CatalogConfig, log logrus.FieldLogger) (Store, error) {
	if db.Host == "" {
		return nil, errors.New("database host not set")
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	limiter := worker.NewLimiter(db.BatchesPerSecond, 1)

	switch strings.ToLower(db.Driver) {
	case "", "mysql":
		s, err := openMySQL(ctx, db, catalog, limiter, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres", "postgresql", "pgx":
		s, err := openPostgres(ctx, db, catalog, limiter, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s (supported: mysql, postgres)", db.Driver)
	}
}

// newEntry builds an Entry from a catalog row. A row without a file name or
// insert timestamp does not identify a usable document.
func newEntry(fileName *string, ts *time.Time) (Entry, error) {
	if fileName == nil || *fileName == "" || ts == nil {
		return Entry{}, ErrNotFound
	}
	return Entry{FileName: *fileName, Timestamp: *ts}, nil
}

// batches splits rows into consecutive chunks of at most size rows
func batches(rows []model.Row, size int) [][]model.Row {
	if size <= 0 {
		size = len(rows)
	}
	var out [][]model.Row
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		out = append(out, rows[start:end])
	}
	return out
}
