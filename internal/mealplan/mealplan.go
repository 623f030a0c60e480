// Package mealplan stores per-user weekly meal plans and extracts the recipes
// scheduled inside a date window.
package mealplan

import (
	"fmt"
	"time"
)

// MealType is the slot a recipe is planned for.
type MealType string

const (
	Breakfast MealType = "breakfast"
	Lunch     MealType = "lunch"
	Dinner    MealType = "dinner"
	Dessert   MealType = "dessert"
	Snack     MealType = "snack"
)

// MealTypes lists every slot in scan order.
var MealTypes = []MealType{Breakfast, Lunch, Dinner, Dessert, Snack}

// ParseMealType validates a user-supplied meal type.
func ParseMealType(s string) (MealType, error) {
	for _, mt := range MealTypes {
		if string(mt) == s {
			return mt, nil
		}
	}
	return "", fmt.Errorf("unknown meal type %q", s)
}

// DateLayout is the ISO calendar-date format used for entry dates.
const DateLayout = "2006-01-02"

// Entry is a recipe scheduled on a day.
type Entry struct {
	RecipeID string `json:"recipeId"`
	Date     string `json:"date"`
}

// MealPlan is the whole per-user plan document. Writes replace it entirely.
type MealPlan struct {
	UserID    string               `json:"-"`
	Meals     map[MealType][]Entry `json:"meals"`
	UpdatedAt time.Time            `json:"-"`
}

// New returns an empty plan for userID.
func New(userID string) *MealPlan {
	return &MealPlan{UserID: userID, Meals: make(map[MealType][]Entry)}
}

// Add appends an entry to a meal slot.
func (p *MealPlan) Add(mealType MealType, e Entry) {
	if p.Meals == nil {
		p.Meals = make(map[MealType][]Entry)
	}
	p.Meals[mealType] = append(p.Meals[mealType], e)
}

// Remove deletes the first matching entry from a meal slot and reports whether one was found.
func (p *MealPlan) Remove(mealType MealType, e Entry) bool {
	entries := p.Meals[mealType]
	for i, existing := range entries {
		if existing == e {
			p.Meals[mealType] = append(entries[:i:i], entries[i+1:]...)
			return true
		}
	}
	return false
}
