package grocery

import (
	"context"
	"strings"

	"grocery-planner/internal/aisle"
	"grocery-planner/internal/mealplan"
	"grocery-planner/internal/recipe"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Classifier assigns an aisle to an ingredient description.
type Classifier interface {
	Classify(ctx context.Context, session *aisle.Session, description string) aisle.Aisle
}

// Aggregator sums planned ingredients and files every row under an aisle.
type Aggregator struct {
	classifier Classifier
	logger     *zap.Logger
	newID      func() string
}

// NewAggregator creates an Aggregator.
func NewAggregator(classifier Classifier, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		classifier: classifier,
		logger:     logger,
		newID:      uuid.NewString,
	}
}

// Aggregate flattens the ingredients of every planned recipe, scales them by
// how often the recipe occurs and merges rows with the same normalized
// description and unit. Each distinct row is classified exactly once.
// Items keep the order in which their key was first seen.
func (a *Aggregator) Aggregate(
	ctx context.Context,
	session *aisle.Session,
	occurrences []mealplan.Occurrence,
	recipes map[string]recipe.Recipe,
) ([]Item, []Warning) {
	var (
		items    []Item
		warnings []Warning
		index    = make(map[key]int)
	)

	for _, occ := range occurrences {
		rec, ok := recipes[occ.RecipeID]
		if !ok {
			warnings = append(warnings, Warning{Kind: WarnUnresolvedRecipe, RecipeID: occ.RecipeID})
			continue
		}
		if rec.IngredientsMalformed {
			a.logger.Warn("recipe ingredients are not a list, skipping", zap.String("recipe_id", rec.ID))
			warnings = append(warnings, Warning{Kind: WarnIngredientsNotList, RecipeID: occ.RecipeID})
			continue
		}

		for _, ing := range rec.Ingredients {
			description := strings.TrimSpace(ing.DisplayName())
			if description == "" {
				a.logger.Warn("ingredient has no description, skipping", zap.String("recipe_id", rec.ID))
				warnings = append(warnings, Warning{Kind: WarnMissingDescription, RecipeID: occ.RecipeID})
				continue
			}

			qty, defaulted := a.quantity(ing.Quantity)
			if defaulted {
				warnings = append(warnings, Warning{
					Kind:     WarnMalformedQuantity,
					RecipeID: occ.RecipeID,
					Subject:  description,
					Detail:   string(ing.Quantity),
				})
			}
			qty *= float64(occ.Count)

			k := keyOf(description, ing.Unit)
			if i, ok := index[k]; ok {
				items[i].Quantity += qty
				items[i].Defaulted = items[i].Defaulted || defaulted
				continue
			}

			index[k] = len(items)
			items = append(items, Item{
				ID:          a.newID(),
				Description: description,
				Quantity:    qty,
				Unit:        strings.TrimSpace(ing.Unit),
				Aisle:       a.classify(ctx, session, description),
				Defaulted:   defaulted,
			})
		}
	}

	return items, warnings
}

// MergeCustom prepares the user's own items for the list. They go through the
// same quantity parsing and classification as recipe rows but are never merged
// with them or with each other.
func (a *Aggregator) MergeCustom(ctx context.Context, session *aisle.Session, customs []CustomIngredient) ([]Item, []Warning) {
	var (
		items    []Item
		warnings []Warning
		aisles   = make(map[string]aisle.Aisle)
	)

	for _, c := range customs {
		description := strings.TrimSpace(c.Description)
		if description == "" {
			warnings = append(warnings, Warning{Kind: WarnMissingDescription, Subject: c.ID})
			continue
		}

		qty, defaulted := a.quantity(c.Quantity)
		if defaulted {
			warnings = append(warnings, Warning{Kind: WarnMalformedQuantity, Subject: description, Detail: string(c.Quantity)})
		}

		aisleName := c.Aisle
		if !aisleName.Valid() {
			k := aisle.Normalize(description)
			cached, ok := aisles[k]
			if !ok {
				cached = a.classify(ctx, session, description)
				aisles[k] = cached
			}
			aisleName = cached
		}

		id := c.ID
		if id == "" {
			id = a.newID()
		}
		items = append(items, Item{
			ID:          id,
			Description: description,
			Quantity:    qty,
			Unit:        strings.TrimSpace(c.Unit),
			Aisle:       aisleName,
			IsCustom:    true,
			Checked:     c.Checked,
			Defaulted:   defaulted,
		})
	}

	return items, warnings
}

func (a *Aggregator) quantity(q recipe.Quantity) (float64, bool) {
	v, err := ParseQuantity(q)
	if err != nil {
		a.logger.Warn("unreadable quantity, using default",
			zap.String("quantity", string(q)),
			zap.Float64("default", DefaultQuantity),
		)
		return DefaultQuantity, true
	}
	return v, false
}

func (a *Aggregator) classify(ctx context.Context, session *aisle.Session, description string) aisle.Aisle {
	if a.classifier == nil {
		return aisle.Extras
	}
	return a.classifier.Classify(ctx, session, description).OrValid()
}
