package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"grocery-planner/internal/clipper"
	"grocery-planner/internal/recipe"
	"grocery-planner/internal/shared"
	"grocery-planner/internal/storage"

	"go.uber.org/zap"
)

var (
	errCatalogDisabled    = errors.New("ghost catalog is not configured")
	errExtractionDisabled = errors.New("recipe extraction is not configured: set GEMINI_API_KEY or GROQ_API_KEY")
)

// IngestReport counts what an ingestion run did.
type IngestReport struct {
	Fetched int
	Skipped int
	Saved   int
	Failed  int
	Pruned  int
}

// IngestRecipes pulls recipe posts from Ghost, extracts their ingredients and
// saves them to the catalog. Posts already stored at the same version are skipped.
// With prune set, catalog recipes no longer published are deleted; clipped recipes are kept.
func (a *App) IngestRecipes(ctx context.Context, prune bool) (IngestReport, error) {
	var report IngestReport
	if a.catalog == nil {
		return report, errCatalogDisabled
	}
	if a.textGen == nil {
		return report, errExtractionDisabled
	}

	posts, err := a.catalog.FetchRecipes(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to fetch recipes from ghost: %w", err)
	}
	report.Fetched = len(posts)
	a.logger.Info("fetched recipe posts", zap.Int("count", len(posts)))

	published := make(map[string]struct{}, len(posts))
	extracted := 0
	for _, post := range posts {
		published[post.ID] = struct{}{}

		upToDate, err := a.recipes.Exists(ctx, post.ID, recipe.Recipe{UpdatedAt: post.UpdatedAt}.UpdatedTime())
		if err != nil {
			return report, err
		}
		if upToDate {
			report.Skipped++
			continue
		}

		if extracted > 0 {
			if err := a.wait(ctx); err != nil {
				return report, err
			}
		}
		extracted++

		rec, meta, err := recipe.Extract(ctx, a.textGen, recipe.Source{
			ID:        post.ID,
			Title:     post.Title,
			HTML:      post.HTML,
			UpdatedAt: post.UpdatedAt,
		})
		a.recordMeta(ctx, meta)
		if err != nil {
			a.logger.Warn("failed to extract recipe", zap.String("id", post.ID), zap.String("title", post.Title), zap.Error(err))
			report.Failed++
			continue
		}

		if err := a.recipes.Save(ctx, rec); err != nil {
			a.logger.Error("failed to save recipe", zap.String("id", rec.ID), zap.Error(err))
			report.Failed++
			continue
		}
		a.backup(rec)
		report.Saved++
		a.logger.Info("recipe ingested", zap.String("id", rec.ID), zap.String("title", rec.Title))
	}

	if prune {
		n, err := a.prune(ctx, published)
		report.Pruned = n
		if err != nil {
			return report, err
		}
	}

	a.logger.Info("ingestion complete",
		zap.Int("saved", report.Saved),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Int("pruned", report.Pruned),
	)
	return report, nil
}

// ImportRecipes loads recipe snapshots from dir into the catalog. An empty dir
// means the configured backup directory. Returns how many recipes were written.
func (a *App) ImportRecipes(ctx context.Context, dir string) (int, error) {
	store := a.backups
	if dir != "" {
		var err error
		if store, err = storage.NewRecipeStore(dir); err != nil {
			return 0, err
		}
	}

	recipes, skipped, err := store.ListAll()
	if err != nil {
		return 0, err
	}
	for _, name := range skipped {
		a.logger.Warn("skipping unreadable recipe file", zap.String("file", name))
	}

	imported := 0
	for _, rec := range recipes {
		upToDate, err := a.recipes.Exists(ctx, rec.ID, rec.UpdatedTime())
		if err != nil {
			return imported, err
		}
		if upToDate {
			continue
		}
		if err := a.recipes.Save(ctx, rec); err != nil {
			return imported, err
		}
		imported++
	}

	a.logger.Info("recipes imported", zap.Int("imported", imported), zap.Int("files", len(recipes)+len(skipped)))
	return imported, nil
}

func (a *App) prune(ctx context.Context, published map[string]struct{}) (int, error) {
	stored, err := a.recipes.List(ctx)
	if err != nil {
		return 0, err
	}
	pruned := 0
	for _, rec := range stored {
		if _, ok := published[rec.ID]; ok || strings.HasPrefix(rec.ID, clipper.IDPrefix) {
			continue
		}
		if err := a.recipes.Delete(ctx, rec.ID); err != nil {
			return pruned, err
		}
		if err := a.backups.RemoveStaleVersions(rec.ID); err != nil {
			a.logger.Warn("failed to remove recipe backup", zap.String("id", rec.ID), zap.Error(err))
		}
		pruned++
		a.logger.Info("pruned unpublished recipe", zap.String("id", rec.ID), zap.String("title", rec.Title))
	}
	return pruned, nil
}

func (a *App) wait(ctx context.Context) error {
	if a.ingestDelay <= 0 {
		return nil
	}
	t := time.NewTimer(a.ingestDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (a *App) backup(rec recipe.Recipe) {
	if err := a.backups.Save(rec); err != nil {
		a.logger.Warn("failed to back up recipe", zap.String("id", rec.ID), zap.Error(err))
	}
}

func (a *App) recordMeta(ctx context.Context, meta shared.AgentMeta) {
	if err := a.metrics.RecordMeta(ctx, meta); err != nil {
		a.logger.Warn("failed to record usage metrics", zap.String("agent", meta.AgentName), zap.Error(err))
	}
}
