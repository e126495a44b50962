package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodlens/prodlens/internal/domain"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()

	repo, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	return repo
}

func record(userID, query, name string, createdAt time.Time) *domain.HistoryRecord {
	return &domain.HistoryRecord{
		ID:            uuid.New(),
		UserID:        userID,
		SearchQuery:   query,
		ProductName:   name,
		ProductRating: 7.5,
		Summary:       "solid",
		ProductURL:    "https://www.amazon.in/dp/B001",
		CreatedAt:     createdAt,
	}
}

func TestFindByQueryOrName(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, repo.Save(ctx, record("u1", "wireless mouse", "Mouse A", now.Add(-time.Hour))))
	require.NoError(t, repo.Save(ctx, record("u1", "wireless mouse", "Mouse B", now)))

	got, err := repo.FindByQueryOrName(ctx, "wireless mouse")
	require.NoError(t, err)
	require.NotNil(t, got)

	// Newest record wins.
	assert.Equal(t, "Mouse B", got.ProductName)
	assert.Equal(t, 7.5, got.ProductRating)

	// Product name matches too.
	got, err = repo.FindByQueryOrName(ctx, "Mouse A")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Mouse A", got.ProductName)
}

func TestFindByQueryOrNameMiss(t *testing.T) {
	repo := openTestRepo(t)

	got, err := repo.FindByQueryOrName(context.Background(), "never searched")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFindAllForUser(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, repo.Save(ctx, record("u1", "mouse", "Mouse A", now.Add(-2*time.Hour))))
	require.NoError(t, repo.Save(ctx, record("u1", "keyboard", "Keyboard B", now)))
	require.NoError(t, repo.Save(ctx, record("u2", "monitor", "Monitor C", now)))

	records, err := repo.FindAllForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Keyboard B", records[0].ProductName)
	assert.Equal(t, "Mouse A", records[1].ProductName)
}

func TestFindAllForUserEmpty(t *testing.T) {
	repo := openTestRepo(t)

	records, err := repo.FindAllForUser(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, records)
}
