package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ppiankov/iasflat/internal/model"
	"github.com/ppiankov/iasflat/internal/worker"
	"github.com/sirupsen/logrus"
)

// Postgres is a Store backed by a pgx pool. Tables are loaded with COPY.
type Postgres struct {
	pool    *pgxpool.Pool
	cfg     model.DatabaseConfig
	catalog model.CatalogConfig
	limiter *worker.Limiter
	log     logrus.FieldLogger
}

// postgresDSN builds a postgres:// URL
func postgresDSN(cfg model.DatabaseConfig) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Path:   "/" + cfg.Name,
	}
	return u.String()
}

func openPostgres(ctx context.Context, cfg model.DatabaseConfig, catalog model.CatalogConfig, limiter *worker.Limiter, log logrus.FieldLogger) (*Postgres, error) {
	pgConfig, err := pgxpool.ParseConfig(postgresDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse PostgreSQL DSN: %w", err)
	}
	pgConfig.MaxConns = 4

	pool, err := pgxpool.NewWithConfig(ctx, pgConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create PostgreSQL connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	log.WithFields(logrus.Fields{
		"host":     cfg.Host,
		"database": cfg.Name,
	}).Debug("connected to postgres")

	return &Postgres{pool: pool, cfg: cfg, catalog: catalog, limiter: limiter, log: log}, nil
}

// Resolve implements Catalog
func (p *Postgres) Resolve(ctx context.Context, name string) (Entry, error) {
	query, args := postgresDialect.catalogQuery(p.catalog.Schema, p.catalog.Table, name)

	var (
		fileName *string
		ts       *time.Time
	)
	err := p.pool.QueryRow(ctx, query, args...).Scan(&fileName, &ts)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("query catalog: %w", err)
	}
	return newEntry(fileName, ts)
}

// Load implements Loader. All tables are copied in one transaction.
func (p *Postgres) Load(ctx context.Context, tables []*model.Table) (int64, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin load: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var loaded int64
	for _, t := range tables {
		if t.Len() == 0 {
			continue
		}
		target := pgx.Identifier{string(t.Name)}
		if p.cfg.Schema != "" {
			target = pgx.Identifier{p.cfg.Schema, string(t.Name)}
		}

		for _, batch := range batches(t.Rows, p.cfg.BatchSize) {
			if err := p.limiter.Wait(ctx, string(t.Name)); err != nil {
				return 0, err
			}
			n, err := tx.CopyFrom(ctx, target, t.Columns, pgx.CopyFromRows(toValues(batch)))
			if err != nil {
				return 0, fmt.Errorf("copy %s: %w", t.Name, err)
			}
			loaded += n
		}
		p.log.WithFields(logrus.Fields{
			"table": t.Name,
			"rows":  t.Len(),
		}).Debug("table loaded")
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit load: %w", err)
	}
	return loaded, nil
}

// Close implements Store
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func toValues(rows []model.Row) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		vals := make([]any, len(row))
		for j, v := range row {
			vals[j] = v.SQL()
		}
		out[i] = vals
	}
	return out
}
