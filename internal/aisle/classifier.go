package aisle

import (
	"context"
	"errors"

	"grocery-planner/internal/usda"

	"go.uber.org/zap"
)

// FoodSearcher is the remote food database used for classification.
type FoodSearcher interface {
	SearchFoods(ctx context.Context, query string, pageSize int) ([]usda.Food, error)
}

// Classifier resolves an ingredient description to exactly one aisle.
type Classifier struct {
	overrides Overrides
	searcher  FoodSearcher
	logger    *zap.Logger
}

// NewClassifier creates a Classifier. searcher may be nil, in which case only
// the override table is consulted.
func NewClassifier(overrides Overrides, searcher FoodSearcher, logger *zap.Logger) *Classifier {
	if overrides == nil {
		overrides = DefaultOverrides()
	}
	return &Classifier{
		overrides: overrides,
		searcher:  searcher,
		logger:    logger,
	}
}

// Classify returns the aisle for description. Order: override table, remote
// search of the food database, Extras. It never fails.
func (c *Classifier) Classify(ctx context.Context, session *Session, description string) Aisle {
	key := Normalize(description)

	if a, ok := c.overrides[key]; ok {
		classificationsTotal.WithLabelValues("override").Inc()
		return a.OrValid()
	}

	if c.searcher == nil || key == "" {
		classificationsTotal.WithLabelValues("fallback").Inc()
		return Extras
	}
	if session != nil && !session.Allow() {
		classificationsTotal.WithLabelValues("skipped").Inc()
		return Extras
	}

	if err := ctx.Err(); err != nil {
		if session != nil && errors.Is(err, context.DeadlineExceeded) {
			session.Exhaust()
		}
		classificationsTotal.WithLabelValues("skipped").Inc()
		return Extras
	}

	foods, err := c.searcher.SearchFoods(ctx, key, 1)
	if err != nil {
		c.recordError(ctx, session, description, err)
		classificationsTotal.WithLabelValues("fallback").Inc()
		return Extras
	}
	if session != nil {
		session.RecordSuccess()
	}

	if len(foods) == 0 {
		classificationsTotal.WithLabelValues("fallback").Inc()
		return Extras
	}

	// Match the food group as well as the description.
	a := Categorize(foods[0].Description + " " + foods[0].FoodCategory).OrValid()
	classificationsTotal.WithLabelValues("remote").Inc()
	c.logger.Debug("classified ingredient",
		zap.String("description", description),
		zap.String("match", foods[0].Description),
		zap.String("aisle", string(a)),
	)
	return a
}

func (c *Classifier) recordError(ctx context.Context, session *Session, description string, err error) {
	c.logger.Warn("aisle lookup failed, using Extras",
		zap.String("description", description),
		zap.Error(err),
	)
	if session == nil {
		return
	}
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		session.Exhaust()
	case ctx.Err() != nil:
		// Canceled by the caller; not a remote fault.
	case errors.Is(err, usda.ErrRateLimited):
		session.RecordRateLimited()
	case errors.Is(err, usda.ErrNotFound):
		session.RecordSuccess()
	default:
		session.RecordFailure()
	}
}
