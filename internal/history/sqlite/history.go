// Package sqlite implements analysis history persistence on SQLite, used
// for single-node deployments and local development.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/prodlens/prodlens/internal/domain"
)

// Repository implements domain.HistoryRepository on SQLite.
type Repository struct {
	db *sql.DB
}

// Open opens the database file, enables WAL mode and ensures the schema.
func Open(path string) (*Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	repo := &Repository{db: db}
	if err := repo.ensureSchema(); err != nil {
		return nil, err
	}

	return repo, nil
}

func (r *Repository) ensureSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS product_history (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			search_query TEXT NOT NULL,
			product_name TEXT NOT NULL,
			product_rating REAL NOT NULL DEFAULT 0,
			summary TEXT,
			image_url TEXT,
			product_url TEXT,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_product_history_user ON product_history(user_id, created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_product_history_query ON product_history(search_query);
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// FindByQueryOrName returns the most recent record matching the text
// exactly on search query or product name, or (nil, nil) when none does.
func (r *Repository) FindByQueryOrName(ctx context.Context, text string) (*domain.HistoryRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, search_query, product_name, product_rating,
		       COALESCE(summary, ''), COALESCE(image_url, ''), COALESCE(product_url, ''), created_at
		FROM product_history
		WHERE search_query = ? OR product_name = ?
		ORDER BY created_at DESC
		LIMIT 1
	`, text, text)

	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}

	return record, nil
}

// Save persists a record.
func (r *Repository) Save(ctx context.Context, record *domain.HistoryRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO product_history
			(id, user_id, search_query, product_name, product_rating, summary, image_url, product_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.ID.String(), record.UserID, record.SearchQuery, record.ProductName,
		record.ProductRating, record.Summary, record.ImageURL, record.ProductURL,
		record.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save history record: %w", err)
	}
	return nil
}

// FindAllForUser retrieves a user's records, newest first.
func (r *Repository) FindAllForUser(ctx context.Context, userID string) ([]*domain.HistoryRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, search_query, product_name, product_rating,
		       COALESCE(summary, ''), COALESCE(image_url, ''), COALESCE(product_url, ''), created_at
		FROM product_history
		WHERE user_id = ?
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []*domain.HistoryRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// Close closes the underlying connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.HistoryRecord, error) {
	var (
		record    domain.HistoryRecord
		id        string
		createdAt string
	)

	err := row.Scan(
		&id, &record.UserID, &record.SearchQuery, &record.ProductName,
		&record.ProductRating, &record.Summary, &record.ImageURL, &record.ProductURL, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	if record.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid record id %q: %w", id, err)
	}
	if record.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("invalid created_at %q: %w", createdAt, err)
	}

	return &record, nil
}
