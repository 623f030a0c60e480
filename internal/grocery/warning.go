package grocery

import "fmt"

// WarningKind names a recovered data problem.
type WarningKind string

const (
	WarnMissingDescription WarningKind = "missing_description"
	WarnMalformedQuantity  WarningKind = "malformed_quantity"
	WarnIngredientsNotList WarningKind = "ingredients_not_list"
	WarnUnresolvedRecipe   WarningKind = "unresolved_recipe"
	WarnCustomUnavailable  WarningKind = "custom_unavailable"
)

// Warning records a per-ingredient or per-recipe problem that was recovered
// locally. Warnings never abort a list build.
type Warning struct {
	Kind     WarningKind `json:"kind"`
	RecipeID string      `json:"recipeId,omitempty"`
	Subject  string      `json:"subject,omitempty"`
	Detail   string      `json:"detail,omitempty"`
}

func (w Warning) String() string {
	s := string(w.Kind)
	if w.RecipeID != "" {
		s += fmt.Sprintf(" recipe=%s", w.RecipeID)
	}
	if w.Subject != "" {
		s += fmt.Sprintf(" subject=%q", w.Subject)
	}
	if w.Detail != "" {
		s += ": " + w.Detail
	}
	return s
}
