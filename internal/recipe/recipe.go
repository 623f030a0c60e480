// Package recipe holds the recipe catalog: the stored recipe documents, their
// structured ingredients and the resolver that loads the recipes a plan refers to.
package recipe

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"time"
)

// Quantity is an ingredient amount as entered by the user. Stored documents
// hold either a JSON number or a string, so both decode into the raw text.
type Quantity string

// UnmarshalJSON accepts numbers, strings and null.
func (q *Quantity) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*q = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*q = Quantity(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			// Booleans, objects and arrays keep their raw text and fail quantity parsing later.
			*q = Quantity(b)
			return nil
		}
		*q = Quantity(n.String())
	}
	return nil
}

// Ingredient is one line of a recipe.
type Ingredient struct {
	Description string   `json:"description,omitempty"`
	Name        string   `json:"name,omitempty"`
	Quantity    Quantity `json:"quantity,omitempty"`
	Unit        string   `json:"unit,omitempty"`
}

// DisplayName returns the description, falling back to the name.
func (i Ingredient) DisplayName() string {
	if d := strings.TrimSpace(i.Description); d != "" {
		return i.Description
	}
	return i.Name
}

// Recipe is a catalog entry.
type Recipe struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Ingredients []Ingredient `json:"ingredients"`
	Tags        []string     `json:"tags,omitempty"`
	PrepTime    string       `json:"prep_time,omitempty"`
	Servings    string       `json:"servings,omitempty"`
	UpdatedAt   string       `json:"updated_at,omitempty"`

	// TotalNutrition is the macro total computed when the recipe was saved, if any.
	TotalNutrition *Nutrition `json:"totalNutrition,omitempty"`

	// IngredientsMalformed is set when the stored ingredients field is present but not a list.
	IngredientsMalformed bool `json:"-"`
}

// UnmarshalJSON decodes a recipe document, tolerating an ingredients field of the wrong shape.
func (r *Recipe) UnmarshalJSON(b []byte) error {
	type plain Recipe
	var doc struct {
		plain
		Ingredients json.RawMessage `json:"ingredients"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	*r = Recipe(doc.plain)
	r.Ingredients = nil

	raw := bytes.TrimSpace(doc.Ingredients)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] != '[' {
		r.IngredientsMalformed = true
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		r.IngredientsMalformed = true
		return nil
	}
	for _, item := range items {
		var ing Ingredient
		if err := json.Unmarshal(item, &ing); err != nil {
			// Non-object entries carry no description and are skipped downstream.
			r.Ingredients = append(r.Ingredients, Ingredient{})
			continue
		}
		r.Ingredients = append(r.Ingredients, ing)
	}
	return nil
}

// UpdatedTime parses UpdatedAt, returning the zero time when it is missing or malformed.
func (r Recipe) UpdatedTime() time.Time {
	t, err := time.Parse(time.RFC3339, r.UpdatedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Nutrition is a macro-nutrient total. Calories are kcal, the rest grams.
type Nutrition struct {
	Calories      float64 `json:"calories"`
	Carbohydrates float64 `json:"carbohydrates"`
	Fat           float64 `json:"fat"`
	Protein       float64 `json:"protein"`
}

// Add returns the sum of n and o.
func (n Nutrition) Add(o Nutrition) Nutrition {
	return Nutrition{
		Calories:      n.Calories + o.Calories,
		Carbohydrates: n.Carbohydrates + o.Carbohydrates,
		Fat:           n.Fat + o.Fat,
		Protein:       n.Protein + o.Protein,
	}
}

// Scale multiplies every value by f.
func (n Nutrition) Scale(f float64) Nutrition {
	return Nutrition{
		Calories:      n.Calories * f,
		Carbohydrates: n.Carbohydrates * f,
		Fat:           n.Fat * f,
		Protein:       n.Protein * f,
	}
}

// Round rounds every value to the nearest tenth.
func (n Nutrition) Round() Nutrition {
	r := func(v float64) float64 { return math.Round(v*10) / 10 }
	return Nutrition{
		Calories:      r(n.Calories),
		Carbohydrates: r(n.Carbohydrates),
		Fat:           r(n.Fat),
		Protein:       r(n.Protein),
	}
}
