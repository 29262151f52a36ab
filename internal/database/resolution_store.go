package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/moshtv/moshport/internal/models"
)

// ResolutionStore persists resolved title → catalog id matches so repeat
// lookups skip the search proxy entirely. Reads go through a memory map
// first, then the database.
type ResolutionStore struct {
	db *sql.DB

	mu     sync.RWMutex
	memory map[string]models.CatalogMatch
}

// NewResolutionStore creates the store and its table.
func NewResolutionStore(db *sql.DB) (*ResolutionStore, error) {
	s := &ResolutionStore{
		db:     db,
		memory: make(map[string]models.CatalogMatch),
	}
	if err := s.initTables(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ResolutionStore) initTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS resolutions (
			title TEXT PRIMARY KEY,
			catalog_id TEXT NOT NULL,
			media_kind TEXT NOT NULL,
			resolved_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_resolutions_resolved ON resolutions(resolved_at)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// Get returns the stored match for a normalized title, or false.
func (s *ResolutionStore) Get(ctx context.Context, title string) (models.CatalogMatch, bool, error) {
	s.mu.RLock()
	if m, ok := s.memory[title]; ok {
		s.mu.RUnlock()
		return m, true, nil
	}
	s.mu.RUnlock()

	var m models.CatalogMatch
	err := s.db.QueryRowContext(ctx,
		"SELECT catalog_id, media_kind FROM resolutions WHERE title = $1",
		title,
	).Scan(&m.ID, &m.Kind)

	if err == sql.ErrNoRows {
		return models.CatalogMatch{}, false, nil
	}
	if err != nil {
		return models.CatalogMatch{}, false, err
	}

	s.mu.Lock()
	s.memory[title] = m
	s.mu.Unlock()

	return m, true, nil
}

// Set upserts a resolved match for a normalized title.
func (s *ResolutionStore) Set(ctx context.Context, title string, m models.CatalogMatch) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO resolutions (title, catalog_id, media_kind, resolved_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (title)
		 DO UPDATE SET catalog_id = $2, media_kind = $3, resolved_at = NOW()`,
		title, m.ID, string(m.Kind),
	)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.memory[title] = m
	s.mu.Unlock()

	return nil
}

// All returns every stored resolution keyed by normalized title.
func (s *ResolutionStore) All(ctx context.Context) (map[string]models.CatalogMatch, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT title, catalog_id, media_kind FROM resolutions ORDER BY title")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]models.CatalogMatch)
	for rows.Next() {
		var title string
		var m models.CatalogMatch
		if err := rows.Scan(&title, &m.ID, &m.Kind); err != nil {
			return nil, err
		}
		out[title] = m
	}

	return out, rows.Err()
}

// Prune removes resolutions older than maxAge, so a title whose catalog
// entry changed upstream is eventually re-resolved.
func (s *ResolutionStore) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM resolutions WHERE resolved_at < NOW() - $1::interval",
		fmt.Sprintf("%d seconds", int(maxAge.Seconds())),
	)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	s.memory = make(map[string]models.CatalogMatch)
	s.mu.Unlock()

	return res.RowsAffected()
}
