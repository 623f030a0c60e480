// Package app wires the grocery-planner components together for the CLI and the bot.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"grocery-planner/internal/aisle"
	"grocery-planner/internal/clipper"
	"grocery-planner/internal/config"
	"grocery-planner/internal/database"
	"grocery-planner/internal/ghost"
	"grocery-planner/internal/grocery"
	"grocery-planner/internal/llm"
	"grocery-planner/internal/mealplan"
	"grocery-planner/internal/metrics"
	"grocery-planner/internal/nutrition"
	"grocery-planner/internal/recipe"
	"grocery-planner/internal/share"
	"grocery-planner/internal/storage"
	"grocery-planner/internal/usda"

	"go.uber.org/zap"
)

// CatalogSource lists the recipe posts to ingest.
type CatalogSource interface {
	FetchRecipes(ctx context.Context) ([]ghost.Post, error)
}

// App holds the application's dependencies.
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *database.DB

	recipes   *recipe.Repository
	plans     *mealplan.Repository
	customs   *grocery.CustomRepository
	foods     *usda.Client
	grocery   *grocery.Service
	nutrition *nutrition.Calculator
	sharing   *share.Service
	metrics   *metrics.Store
	backups   *storage.RecipeStore

	catalog     CatalogSource
	posts       clipper.PostCreator
	textGen     llm.TextGenerator
	clipper     *clipper.Clipper
	ingestDelay time.Duration
}

// Option customizes an App.
type Option func(*App)

// WithCatalog replaces the Ghost recipe source.
func WithCatalog(src CatalogSource) Option {
	return func(a *App) { a.catalog = src }
}

// WithTextGenerator replaces the configured LLM provider.
func WithTextGenerator(tg llm.TextGenerator) Option {
	return func(a *App) { a.textGen = tg }
}

// WithIngestDelay sets the pause between LLM extractions during ingestion.
func WithIngestDelay(d time.Duration) Option {
	return func(a *App) { a.ingestDelay = d }
}

// New opens the database and builds every service from cfg.
// Ghost and the LLM provider are optional; without them ingestion and clipping are unavailable.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	overrides, err := aisle.LoadOverrides(cfg.AisleOverridesPath)
	if err != nil {
		return nil, err
	}

	backups, err := storage.NewRecipeStore(cfg.RecipeStoragePath)
	if err != nil {
		return nil, err
	}

	db, err := database.NewDB(cfg.DatabasePath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	a := &App{
		cfg:         cfg,
		logger:      logger,
		db:          db,
		recipes:     recipe.NewRepository(db.SQL, logger),
		plans:       mealplan.NewRepository(db.SQL),
		customs:     grocery.NewCustomRepository(db.SQL),
		foods:       usda.NewClient(cfg, logger),
		metrics:     metrics.NewStore(db.SQL),
		backups:     backups,
		ingestDelay: 5 * time.Second,
	}

	resolver := recipe.NewResolver(a.recipes, 0, logger)
	classifier := aisle.NewClassifier(overrides, a.foods, logger)
	a.grocery = grocery.NewService(a.plans, resolver, a.customs, classifier, cfg.USDAFailureThreshold, logger,
		grocery.WithLookupBudget(cfg.USDALookupBudget))
	a.nutrition = nutrition.NewCalculator(a.foods, resolver, logger)

	var publisher share.Publisher
	if cfg.GhostEnabled() {
		gc := ghost.NewClient(cfg)
		a.catalog = gc
		a.posts = gc
		publisher = gc
	}
	a.sharing = share.NewService(share.NewRepository(db.SQL), cfg.ShareBaseURL, publisher, logger)

	for _, opt := range opts {
		opt(a)
	}

	if a.textGen == nil {
		tg, err := llm.NewTextGenerator(ctx, cfg)
		if err != nil {
			logger.Warn("recipe extraction disabled", zap.Error(err))
		} else {
			a.textGen = tg
		}
	}
	if a.textGen != nil {
		a.clipper = clipper.NewClipper(a.recipes, a.posts, a.textGen)
	}

	return a, nil
}

// Close releases the LLM client and the database.
func (a *App) Close() error {
	var errs []error
	if c, ok := a.textGen.(llm.Closer); ok {
		errs = append(errs, c.Close())
	}
	errs = append(errs, a.db.Close())
	return errors.Join(errs...)
}

// DataDir is the directory holding the database and recipe backups.
func (a *App) DataDir() string {
	return filepath.Dir(a.cfg.DatabasePath)
}

// GroceryList builds the user's list for the week containing day.
func (a *App) GroceryList(ctx context.Context, userID string, day time.Time) (*grocery.List, error) {
	return a.grocery.BuildList(ctx, userID, mealplan.WeekOf(day))
}

// Plan returns the user's meal plan, or an empty one.
func (a *App) Plan(ctx context.Context, userID string) (*mealplan.MealPlan, error) {
	plan, err := a.plans.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		plan = mealplan.New(userID)
	}
	return plan, nil
}

// AddToPlan schedules a catalog recipe for a meal on date (YYYY-MM-DD).
func (a *App) AddToPlan(ctx context.Context, userID, mealType, recipeID, date string) error {
	mt, err := mealplan.ParseMealType(mealType)
	if err != nil {
		return err
	}
	if _, err := a.recipes.Get(ctx, recipeID); err != nil {
		return fmt.Errorf("failed to look up recipe %s: %w", recipeID, err)
	}
	return a.plans.AddEntry(ctx, userID, mt, mealplan.Entry{RecipeID: recipeID, Date: date})
}

// RemoveFromPlan unschedules a recipe.
func (a *App) RemoveFromPlan(ctx context.Context, userID, mealType, recipeID, date string) error {
	mt, err := mealplan.ParseMealType(mealType)
	if err != nil {
		return err
	}
	return a.plans.RemoveEntry(ctx, userID, mt, mealplan.Entry{RecipeID: recipeID, Date: date})
}

// Reschedule moves a planned recipe to another date.
func (a *App) Reschedule(ctx context.Context, userID, mealType, recipeID, date, newDate string) error {
	mt, err := mealplan.ParseMealType(mealType)
	if err != nil {
		return err
	}
	return a.plans.Reschedule(ctx, userID, mt, mealplan.Entry{RecipeID: recipeID, Date: date}, newDate)
}

// AddCustom stores a hand-entered grocery item.
func (a *App) AddCustom(ctx context.Context, userID, description, quantity, unit string) (grocery.CustomIngredient, error) {
	return a.grocery.AddCustom(ctx, userID, description, recipe.Quantity(quantity), unit)
}

// CheckCustom marks a hand-entered item as bought or not.
func (a *App) CheckCustom(ctx context.Context, userID, id string, checked bool) error {
	return a.customs.SetChecked(ctx, userID, id, checked)
}

// RemoveCustom deletes a hand-entered item.
func (a *App) RemoveCustom(ctx context.Context, userID, id string) error {
	return a.customs.Remove(ctx, userID, id)
}

// SearchIngredients looks up ingredient names in the food database.
func (a *App) SearchIngredients(ctx context.Context, query string) ([]usda.Food, error) {
	return a.foods.SearchIngredients(ctx, query)
}

// Share builds the user's list for the week containing day and shares it.
func (a *App) Share(ctx context.Context, userID string, day time.Time) (*share.Result, error) {
	list, err := a.GroceryList(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	return a.sharing.Share(ctx, userID, list)
}

// SharedList returns a previously shared list.
func (a *App) SharedList(ctx context.Context, id string) (*share.Record, error) {
	return a.sharing.Get(ctx, id)
}

// WeekNutrition sums the nutrition planned for the week containing day.
func (a *App) WeekNutrition(ctx context.Context, userID string, day time.Time) (nutrition.Summary, error) {
	plan, err := a.Plan(ctx, userID)
	if err != nil {
		return nutrition.Summary{}, err
	}
	return a.nutrition.ForWeek(ctx, plan, mealplan.WeekOf(day)), nil
}

// DayNutrition sums the nutrition planned on date (YYYY-MM-DD).
func (a *App) DayNutrition(ctx context.Context, userID, date string) (nutrition.Summary, error) {
	plan, err := a.Plan(ctx, userID)
	if err != nil {
		return nutrition.Summary{}, err
	}
	return a.nutrition.ForDay(ctx, plan, date), nil
}

// ClipURL extracts the recipe at pageURL into the catalog.
func (a *App) ClipURL(ctx context.Context, pageURL string) (*recipe.Recipe, error) {
	if a.clipper == nil {
		return nil, errExtractionDisabled
	}
	rec, meta, err := a.clipper.ClipURL(ctx, pageURL)
	a.recordMeta(ctx, meta)
	if rec != nil {
		a.backup(*rec)
	}
	return rec, err
}

// Usage returns LLM token usage for the last days.
func (a *App) Usage(ctx context.Context, days int) ([]metrics.DailyUsage, error) {
	return a.metrics.GetDailyUsage(ctx, days)
}

// CleanupMetrics deletes usage rows older than days.
func (a *App) CleanupMetrics(ctx context.Context, days int) (int64, error) {
	return a.metrics.Cleanup(ctx, days)
}
