package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ppiankov/iasflat/internal/model"
	"github.com/ppiankov/iasflat/internal/worker"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MySQL is a Store backed by gorm
type MySQL struct {
	db      *gorm.DB
	cfg     model.DatabaseConfig
	catalog model.CatalogConfig
	limiter *worker.Limiter
	log     logrus.FieldLogger
}

// mysqlDSN builds a go-sql-driver DSN
func mysqlDSN(cfg model.DatabaseConfig) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=UTC",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Name,
	)
}

func openMySQL(ctx context.Context, cfg model.DatabaseConfig, catalog model.CatalogConfig, limiter *worker.Limiter, log logrus.FieldLogger) (*MySQL, error) {
	db, err := gorm.Open(mysql.Open(mysqlDSN(cfg)), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect mysql: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("connect mysql: %w", err)
	}
	sqlDB.SetMaxOpenConns(4)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	log.WithFields(logrus.Fields{
		"host":     cfg.Host,
		"database": cfg.Name,
	}).Debug("connected to mysql")

	return &MySQL{db: db, cfg: cfg, catalog: catalog, limiter: limiter, log: log}, nil
}

type catalogRow struct {
	FileName  *string    `gorm:"column:FileName"`
	Timestamp *time.Time `gorm:"column:DW_Insert_Timestamp"`
}

// Resolve implements Catalog
func (m *MySQL) Resolve(ctx context.Context, name string) (Entry, error) {
	query, args := mysqlDialect.catalogQuery(m.catalog.Schema, m.catalog.Table, name)

	var rows []catalogRow
	if err := m.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return Entry{}, fmt.Errorf("query catalog: %w", err)
	}
	if len(rows) == 0 {
		return Entry{}, ErrNotFound
	}
	return newEntry(rows[0].FileName, rows[0].Timestamp)
}

// Load implements Loader. All tables are inserted in one transaction.
func (m *MySQL) Load(ctx context.Context, tables []*model.Table) (int64, error) {
	var loaded int64
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range tables {
			if t.Len() == 0 {
				continue
			}
			target := mysqlTable(m.cfg.Schema, string(t.Name))
			for _, batch := range batches(t.Rows, m.cfg.BatchSize) {
				if err := m.limiter.Wait(ctx, string(t.Name)); err != nil {
					return err
				}
				records := toMaps(t.Columns, batch)
				if err := tx.Table(target).Create(&records).Error; err != nil {
					return fmt.Errorf("insert %s: %w", t.Name, err)
				}
				loaded += int64(len(batch))
			}
			m.log.WithFields(logrus.Fields{
				"table": t.Name,
				"rows":  t.Len(),
			}).Debug("table loaded")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return loaded, nil
}

// Close implements Store
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// mysqlTable is the gorm table name for a load target; an empty schema is omitted
func mysqlTable(schema, table string) string {
	if schema == "" {
		return table
	}
	return schema + "." + table
}

func toMaps(columns []string, rows []model.Row) []map[string]interface{} {
	out := make([]map[string]interface{}, len(rows))
	for i, row := range rows {
		rec := make(map[string]interface{}, len(columns))
		for j, c := range columns {
			rec[c] = row[j].SQL()
		}
		out[i] = rec
	}
	return out
}
