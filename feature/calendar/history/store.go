package history

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

const (
	// DefaultLimit is used when List is called without a positive limit.
	DefaultLimit = 20
	// MaxLimit caps a single List call.
	MaxLimit = 500
)

// Store persists run summaries.
type Store struct {
	db *gorm.DB
}

// NewStore creates a store backed by db.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying connection.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Migrate creates or updates the sync_runs table.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&SyncRun{}); err != nil {
		return fmt.Errorf("failed to migrate sync_runs: %w", err)
	}
	return nil
}

// Record inserts run.
func (s *Store) Record(ctx context.Context, run SyncRun) error {
	if err := s.db.WithContext(ctx).Create(&run).Error; err != nil {
		return fmt.Errorf("failed to record run %s: %w", run.RunID, err)
	}
	return nil
}

// List returns the most recent runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]SyncRun, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	var runs []SyncRun
	err := s.db.WithContext(ctx).
		Order("started_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// Get returns the run with runID or gorm.ErrRecordNotFound.
func (s *Store) Get(ctx context.Context, runID string) (*SyncRun, error) {
	var run SyncRun
	if err := s.db.WithContext(ctx).Where("run_id = ?", runID).First(&run).Error; err != nil {
		return nil, err
	}
	return &run, nil
}
