// Package nutrition estimates macro-nutrients for ingredients, recipes and
// planned days from USDA FoodData Central nutrient tables.
package nutrition

import (
	"context"
	"fmt"
	"strings"

	"grocery-planner/internal/grocery"
	"grocery-planner/internal/mealplan"
	"grocery-planner/internal/recipe"
	"grocery-planner/internal/usda"

	"go.uber.org/zap"
)

// FoodSource is the remote food database.
type FoodSource interface {
	SearchFoods(ctx context.Context, query string, pageSize int) ([]usda.Food, error)
	GetFood(ctx context.Context, fdcID int) (*usda.FoodDetail, error)
}

// RecipeResolver loads the recipes a plan refers to.
type RecipeResolver interface {
	Resolve(ctx context.Context, ids []string) map[string]recipe.Recipe
}

// DailyGoals are the reference intake targets for one day.
var DailyGoals = recipe.Nutrition{Calories: 2000, Protein: 50, Carbohydrates: 250, Fat: 70}

// WeeklyGoals are seven days of DailyGoals.
var WeeklyGoals = DailyGoals.Scale(7)

// unitGrams converts a unit to grams; nutrient amounts are per 100g.
var unitGrams = map[string]float64{
	"gram":       1,
	"kilogram":   1000,
	"ounce":      28.3495,
	"pound":      453.592,
	"cup":        240,
	"tablespoon": 15,
	"teaspoon":   5,
	"liter":      1000,
	"milliliter": 1,
}

// UnitFactor returns the grams in one unit. Unknown units count as grams.
func UnitFactor(unit string) float64 {
	u := strings.ToLower(strings.TrimSpace(unit))
	if f, ok := unitGrams[u]; ok {
		return f
	}
	if f, ok := unitGrams[strings.TrimSuffix(u, "s")]; ok {
		return f
	}
	return 1
}

// Summary is the nutrition planned for a date window.
type Summary struct {
	Window mealplan.Window  `json:"window"`
	Total  recipe.Nutrition `json:"total"`
	Goal   recipe.Nutrition `json:"goal"`
	// Missing lists planned recipes whose nutrition could not be determined.
	Missing []string `json:"missing,omitempty"`
}

// Progress returns the share of the goal reached for each macro, capped at 1.
func (s Summary) Progress() recipe.Nutrition {
	frac := func(v, goal float64) float64 {
		if goal <= 0 {
			return 0
		}
		if v/goal > 1 {
			return 1
		}
		return v / goal
	}
	return recipe.Nutrition{
		Calories:      frac(s.Total.Calories, s.Goal.Calories),
		Carbohydrates: frac(s.Total.Carbohydrates, s.Goal.Carbohydrates),
		Fat:           frac(s.Total.Fat, s.Goal.Fat),
		Protein:       frac(s.Total.Protein, s.Goal.Protein),
	}
}

// Calculator computes nutrition totals.
type Calculator struct {
	foods   FoodSource
	recipes RecipeResolver
	logger  *zap.Logger
}

// NewCalculator creates a Calculator.
func NewCalculator(foods FoodSource, recipes RecipeResolver, logger *zap.Logger) *Calculator {
	return &Calculator{foods: foods, recipes: recipes, logger: logger}
}

// ForIngredient looks up the best match for description and scales its
// per-100g nutrients to quantity of unit.
func (c *Calculator) ForIngredient(ctx context.Context, description string, quantity float64, unit string) (recipe.Nutrition, error) {
	query := strings.ToLower(strings.TrimSpace(description))
	foods, err := c.foods.SearchFoods(ctx, query, 1)
	if err != nil {
		return recipe.Nutrition{}, fmt.Errorf("failed to search food %q: %w", description, err)
	}
	if len(foods) == 0 {
		return recipe.Nutrition{}, fmt.Errorf("ingredient %q: %w", description, usda.ErrNotFound)
	}

	detail, err := c.foods.GetFood(ctx, foods[0].FdcID)
	if err != nil {
		return recipe.Nutrition{}, fmt.Errorf("failed to get food %d: %w", foods[0].FdcID, err)
	}
	if len(detail.FoodNutrients) == 0 {
		return recipe.Nutrition{}, fmt.Errorf("no nutrition information for %q", description)
	}

	scale := quantity * UnitFactor(unit) / 100
	var n recipe.Nutrition
	for _, fn := range detail.FoodNutrients {
		amount := fn.Amount * scale
		name := fn.Nutrient.Name
		switch {
		case strings.Contains(name, "Energy"):
			// FDC reports energy in both kcal and kJ.
			if u := fn.Nutrient.UnitName; u == "" || strings.EqualFold(u, "kcal") {
				n.Calories += amount
			}
		case strings.Contains(name, "Carbohydrate"):
			n.Carbohydrates += amount
		case strings.Contains(name, "Total lipid (fat)"):
			n.Fat += amount
		case strings.Contains(name, "Protein"):
			n.Protein += amount
		}
	}
	return n, nil
}

// ForRecipe sums every ingredient of rec. Ingredients that cannot be looked up
// are skipped and returned by description.
func (c *Calculator) ForRecipe(ctx context.Context, rec recipe.Recipe) (recipe.Nutrition, []string) {
	var (
		total   recipe.Nutrition
		skipped []string
	)
	for _, ing := range rec.Ingredients {
		description := strings.TrimSpace(ing.DisplayName())
		if description == "" {
			continue
		}
		qty, err := grocery.ParseQuantity(ing.Quantity)
		if err != nil {
			qty = grocery.DefaultQuantity
		}

		n, err := c.ForIngredient(ctx, description, qty, ing.Unit)
		if err != nil {
			c.logger.Warn("skipping ingredient without nutrition data",
				zap.String("recipe_id", rec.ID),
				zap.String("ingredient", description),
				zap.Error(err),
			)
			skipped = append(skipped, description)
			continue
		}
		total = total.Add(n)
	}
	return total, skipped
}

// ForWindow sums the nutrition of every recipe planned inside w. Each planned
// entry counts once. Stored recipe totals are used when present.
func (c *Calculator) ForWindow(ctx context.Context, plan *mealplan.MealPlan, w mealplan.Window, goal recipe.Nutrition) Summary {
	summary := Summary{Window: w, Goal: goal}

	occurrences := mealplan.Occurrences(plan, w)
	ids := make([]string, len(occurrences))
	for i, occ := range occurrences {
		ids[i] = occ.RecipeID
	}
	recipes := c.recipes.Resolve(ctx, ids)

	for _, occ := range occurrences {
		rec, ok := recipes[occ.RecipeID]
		if !ok {
			summary.Missing = append(summary.Missing, occ.RecipeID)
			continue
		}

		var n recipe.Nutrition
		if rec.TotalNutrition != nil {
			n = *rec.TotalNutrition
		} else {
			var skipped []string
			n, skipped = c.ForRecipe(ctx, rec)
			if len(skipped) == len(rec.Ingredients) {
				summary.Missing = append(summary.Missing, occ.RecipeID)
				continue
			}
		}
		summary.Total = summary.Total.Add(n.Scale(float64(occ.Count)))
	}

	summary.Total = summary.Total.Round()
	return summary
}

// ForDay sums the recipes planned on date against DailyGoals.
func (c *Calculator) ForDay(ctx context.Context, plan *mealplan.MealPlan, date string) Summary {
	return c.ForWindow(ctx, plan, mealplan.Window{Start: date, End: date}, DailyGoals)
}

// ForWeek sums the recipes planned in w against WeeklyGoals.
func (c *Calculator) ForWeek(ctx context.Context, plan *mealplan.MealPlan, w mealplan.Window) Summary {
	return c.ForWindow(ctx, plan, w, WeeklyGoals)
}
