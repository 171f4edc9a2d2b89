package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/waftester/apiprobe/pkg/duration"
	"github.com/waftester/apiprobe/pkg/finding"
	"github.com/waftester/apiprobe/pkg/target"
)

// batchSize is the insert batch for one scan's records.
const batchSize = 100

// MySQL returns a gorm dialector for dsn.
func MySQL(dsn string) gorm.Dialector {
	return mysql.Open(dsn)
}

// SQLite returns a pure-Go SQLite dialector for path (":memory:" for an
// in-memory database).
func SQLite(path string) gorm.Dialector {
	return sqlite.Open(path)
}

// GormSink stores records in the test_results table.
type GormSink struct {
	db     *gorm.DB
	now    func() time.Time
	logger *slog.Logger
}

// OpenGorm opens a database and migrates the schema.
func OpenGorm(d gorm.Dialector, l *slog.Logger) (*GormSink, error) {
	db, err := gorm.Open(d, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	return NewGormSink(db, l)
}

// NewGormSink wraps an open database and migrates the schema.
func NewGormSink(db *gorm.DB, l *slog.Logger) (*GormSink, error) {
	if l == nil {
		l = slog.Default()
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return &GormSink{db: db, now: time.Now, logger: l}, nil
}

// Save inserts the outcome in one transaction.
func (s *GormSink) Save(ctx context.Context, scanID, owner string, t *target.Target, outcome finding.Outcome) error {
	recs, err := RecordsOf(scanID, owner, t, outcome, s.now())
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, duration.StoreWrite)
	defer cancel()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(recs, batchSize).Error
	})
	if err != nil {
		return fmt.Errorf("store: insert scan %s: %w", scanID, err)
	}
	s.logger.Debug("results stored",
		slog.String("scan_id", scanID),
		slog.Int("records", len(recs)))
	return nil
}

// Records returns stored records in insertion order, filtered by owner
// when owner is set.
func (s *GormSink) Records(ctx context.Context, owner string) ([]Record, error) {
	q := s.db.WithContext(ctx).Order("id")
	if owner != "" {
		q = q.Where("owner = ?", owner)
	}
	var recs []Record
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("store: query: %w", err)
	}
	return recs, nil
}

// Close closes the underlying connection pool.
func (s *GormSink) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
