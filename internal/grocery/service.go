package grocery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"grocery-planner/internal/aisle"
	"grocery-planner/internal/mealplan"
	"grocery-planner/internal/recipe"

	"go.uber.org/zap"
)

// MealPlanReader loads a user's plan. A nil plan means the user has none.
type MealPlanReader interface {
	Get(ctx context.Context, userID string) (*mealplan.MealPlan, error)
}

// RecipeResolver loads the recipes referenced by a plan, dropping any it cannot find.
type RecipeResolver interface {
	Resolve(ctx context.Context, ids []string) map[string]recipe.Recipe
}

// CustomStore is the persistence of hand-entered items.
type CustomStore interface {
	List(ctx context.Context, userID string) ([]CustomIngredient, error)
	Add(ctx context.Context, userID string, item CustomIngredient) (CustomIngredient, error)
}

// List is a built grocery list.
type List struct {
	UserID   string          `json:"userId"`
	Window   mealplan.Window `json:"window"`
	Sections []Section       `json:"sections"`
	Warnings []Warning       `json:"warnings,omitempty"`
	// Notice is a one-time, non-blocking message for the user, set when remote lookups were cut off.
	Notice string `json:"notice,omitempty"`
}

// Empty reports whether the list has no items.
func (l *List) Empty() bool {
	return l == nil || len(l.Sections) == 0
}

const (
	rateLimitedNotice = "Ingredient lookups are rate limited right now; some items were filed under Extras."
	unavailableNotice = "Ingredient lookups are unavailable right now; some items were filed under Extras."
)

// Service runs the whole grocery-list pipeline for a user.
type Service struct {
	plans            MealPlanReader
	resolver         RecipeResolver
	customs          CustomStore
	classifier       Classifier
	aggregator       *Aggregator
	failureThreshold int
	lookupBudget     time.Duration
	logger           *zap.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLookupBudget bounds the time one build spends classifying items remotely.
// When it runs out the session trips and the remaining items go to Extras.
func WithLookupBudget(d time.Duration) ServiceOption {
	return func(s *Service) { s.lookupBudget = d }
}

// NewService wires the pipeline. failureThreshold is how many consecutive remote
// failures stop further aisle lookups within one build.
func NewService(
	plans MealPlanReader,
	resolver RecipeResolver,
	customs CustomStore,
	classifier Classifier,
	failureThreshold int,
	logger *zap.Logger,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		plans:            plans,
		resolver:         resolver,
		customs:          customs,
		classifier:       classifier,
		aggregator:       NewAggregator(classifier, logger),
		failureThreshold: failureThreshold,
		logger:           logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BuildList reads the user's plan for the window, resolves and aggregates the
// planned recipes, adds the user's own items and groups everything by aisle.
// Only a failed plan read is fatal; the list returned with that error is empty.
func (s *Service) BuildList(ctx context.Context, userID string, window mealplan.Window) (*List, error) {
	list := &List{UserID: userID, Window: window, Sections: []Section{}}

	plan, err := s.plans.Get(ctx, userID)
	if err != nil {
		s.logger.Error("failed to read meal plan", zap.String("user_id", userID), zap.Error(err))
		return list, fmt.Errorf("failed to read meal plan: %w", err)
	}

	session := aisle.NewSession(s.failureThreshold)

	occurrences := mealplan.Occurrences(plan, window)
	ids := make([]string, len(occurrences))
	for i, occ := range occurrences {
		ids[i] = occ.RecipeID
	}
	recipes := s.resolver.Resolve(ctx, ids)

	lookupCtx := ctx
	if s.lookupBudget > 0 {
		var cancel context.CancelFunc
		lookupCtx, cancel = context.WithTimeout(ctx, s.lookupBudget)
		defer cancel()
	}

	items, warnings := s.aggregator.Aggregate(lookupCtx, session, occurrences, recipes)

	customs, err := s.customs.List(ctx, userID)
	if err != nil {
		s.logger.Warn("custom ingredients unavailable", zap.String("user_id", userID), zap.Error(err))
		warnings = append(warnings, Warning{Kind: WarnCustomUnavailable, Detail: err.Error()})
	} else {
		customItems, customWarnings := s.aggregator.MergeCustom(lookupCtx, session, customs)
		items = append(items, customItems...)
		warnings = append(warnings, customWarnings...)
	}

	list.Sections = BuildSections(items)
	list.Warnings = warnings
	if session.TakeNotice() {
		list.Notice = unavailableNotice
		if session.RateLimited() {
			list.Notice = rateLimitedNotice
		}
	}

	s.logger.Info("grocery list built",
		zap.String("user_id", userID),
		zap.String("start", window.Start),
		zap.String("end", window.End),
		zap.Int("recipes", len(recipes)),
		zap.Int("items", len(items)),
		zap.Int("warnings", len(warnings)),
	)
	return list, nil
}

// AddCustom classifies a hand-entered item and stores it.
func (s *Service) AddCustom(ctx context.Context, userID, description string, quantity recipe.Quantity, unit string) (CustomIngredient, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return CustomIngredient{}, fmt.Errorf("custom ingredient description is required")
	}

	item := CustomIngredient{
		Description: description,
		Quantity:    quantity,
		Unit:        strings.TrimSpace(unit),
		Aisle:       aisle.Extras,
	}
	if s.classifier != nil {
		item.Aisle = s.classifier.Classify(ctx, aisle.NewSession(s.failureThreshold), description).OrValid()
	}

	stored, err := s.customs.Add(ctx, userID, item)
	if err != nil {
		return CustomIngredient{}, fmt.Errorf("failed to add custom ingredient: %w", err)
	}
	return stored, nil
}
