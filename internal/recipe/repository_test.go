package recipe

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"grocery-planner/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db.SQL, zap.NewNop())
}

func TestRepository(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	salad := Recipe{
		ID:          "r1",
		Title:       "Salad",
		Ingredients: []Ingredient{{Description: "Tomato", Quantity: "2", Unit: "cup"}},
		UpdatedAt:   "2024-05-01T10:00:00Z",
	}
	soup := Recipe{
		ID:          "r2",
		Title:       "Soup",
		Ingredients: []Ingredient{{Description: "Onion", Quantity: "1"}},
	}

	require.NoError(t, repo.Save(ctx, salad))
	require.NoError(t, repo.Save(ctx, soup))

	t.Run("Get", func(t *testing.T) {
		got, err := repo.Get(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, salad, *got)
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, err := repo.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("GetByIDs", func(t *testing.T) {
		got, err := repo.GetByIDs(ctx, []string{"r1", "r2", "missing"})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("Count", func(t *testing.T) {
		n, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("UpdateReplacesDocument", func(t *testing.T) {
		updated := salad
		updated.Title = "Greek Salad"
		updated.UpdatedAt = "2024-05-02T10:00:00Z"
		require.NoError(t, repo.Save(ctx, updated))

		got, err := repo.Get(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, "Greek Salad", got.Title)

		n, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("Exists", func(t *testing.T) {
		ok, err := repo.Exists(ctx, "r1", time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.Exists(ctx, "r1", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = repo.Exists(ctx, "missing", time.Time{})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, "r2"))
		require.NoError(t, repo.Delete(ctx, "r2"))

		_, err := repo.Get(ctx, "r2")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("SaveRequiresID", func(t *testing.T) {
		assert.Error(t, repo.Save(ctx, Recipe{Title: "No id"}))
	})
}
