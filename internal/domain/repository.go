package domain

import "context"

// HistoryRepository defines the interface for analysis history persistence
type HistoryRepository interface {
	// FindByQueryOrName looks up the most recent record whose search query
	// or product name exactly matches the given text. Returns (nil, nil)
	// when no record matches.
	FindByQueryOrName(ctx context.Context, text string) (*HistoryRecord, error)

	// Save persists a record
	Save(ctx context.Context, record *HistoryRecord) error

	// FindAllForUser retrieves a user's records, newest first
	FindAllForUser(ctx context.Context, userID string) ([]*HistoryRecord, error)
}
