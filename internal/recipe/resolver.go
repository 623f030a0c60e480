package recipe

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Getter loads a single recipe.
type Getter interface {
	Get(ctx context.Context, id string) (*Recipe, error)
}

const defaultResolveConcurrency = 8

// Resolver fetches the recipes referenced by a meal plan.
type Resolver struct {
	store  Getter
	limit  int
	logger *zap.Logger
}

// NewResolver creates a Resolver that runs at most limit fetches at once.
func NewResolver(store Getter, limit int, logger *zap.Logger) *Resolver {
	if limit <= 0 {
		limit = defaultResolveConcurrency
	}
	return &Resolver{store: store, limit: limit, logger: logger}
}

// Resolve fetches every id concurrently and returns the ones that exist.
// A failed or missing fetch only drops that recipe.
func (r *Resolver) Resolve(ctx context.Context, ids []string) map[string]Recipe {
	var (
		mu       sync.Mutex
		resolved = make(map[string]Recipe, len(ids))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.limit)
	for _, id := range ids {
		g.Go(func() error {
			rec, err := r.store.Get(gctx, id)
			switch {
			case errors.Is(err, ErrNotFound) || (err == nil && rec == nil):
				r.logger.Warn("recipe referenced by meal plan not found", zap.String("recipe_id", id))
				return nil
			case err != nil:
				r.logger.Warn("failed to fetch recipe", zap.String("recipe_id", id), zap.Error(err))
				return nil
			}

			mu.Lock()
			resolved[id] = *rec
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return resolved
}
