package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"market_watcher/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const statBatchSize = 200

// Store persists matched trades and stat batches.
type Store struct {
	db *gorm.DB
}

var _ domain.TradeStatStore = (*Store)(nil)

// Open connects with the named driver ("sqlite" or "postgres") and migrates.
func Open(driver, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		// Ensure directory exists
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create DB directory: %w", err)
			}
		}
		// Pure Go SQLite
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, &domain.ConfigError{Field: "storage.driver", Err: fmt.Errorf("unsupported driver %q", driver)}
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return NewStore(db)
}

// NewStore wraps an open connection and runs the migrations.
func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&TradeRecord{}, &StatRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Store{db: db}, nil
}

// SaveTrade inserts or replaces a trade by ID.
func (s *Store) SaveTrade(ctx context.Context, t domain.Trade) error {
	rec := newTradeRecord(t)
	if err := s.db.WithContext(ctx).Save(&rec).Error; err != nil {
		return fmt.Errorf("save trade %s: %w", t.ID, err)
	}
	return nil
}

// SaveStats inserts a batch of stats.
func (s *Store) SaveStats(ctx context.Context, stats []domain.Stat) error {
	if len(stats) == 0 {
		return nil
	}
	recs := make([]StatRecord, len(stats))
	for i, st := range stats {
		recs[i] = newStatRecord(st)
	}
	if err := s.db.WithContext(ctx).CreateInBatches(recs, statBatchSize).Error; err != nil {
		return fmt.Errorf("save %d stats: %w", len(stats), err)
	}
	return nil
}

// ListTrades returns the most recently opened trades, newest first.
func (s *Store) ListTrades(ctx context.Context, limit int) ([]domain.Trade, error) {
	var recs []TradeRecord
	q := s.db.WithContext(ctx).Order("opened_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&recs).Error; err != nil {
		return nil, err
	}

	trades := make([]domain.Trade, len(recs))
	for i, r := range recs {
		trades[i] = r.toDomain()
	}
	return trades, nil
}

// StatsSince returns stats created at or after since, oldest first.
func (s *Store) StatsSince(ctx context.Context, since time.Time, limit int) ([]domain.Stat, error) {
	var recs []StatRecord
	q := s.db.WithContext(ctx).Where("created_at >= ?", since).Order("created_at ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&recs).Error; err != nil {
		return nil, err
	}

	stats := make([]domain.Stat, len(recs))
	for i, r := range recs {
		stats[i] = r.toDomain()
	}
	return stats, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
