package mealplan

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrEntryNotFound is returned when removing or rescheduling an entry that is not in the plan.
var ErrEntryNotFound = errors.New("meal plan entry not found")

// Repository is a database-backed store of meal-plan documents, one per user.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Get returns the user's plan, or nil if the user has never planned a meal.
func (r *Repository) Get(ctx context.Context, userID string) (*MealPlan, error) {
	var data string
	var updatedAt time.Time
	err := r.db.QueryRowContext(ctx,
		`SELECT data, updated_at FROM meal_plans WHERE user_id = ?`, userID,
	).Scan(&data, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // No plan yet
		}
		return nil, fmt.Errorf("failed to get meal plan for user %s: %w", userID, err)
	}

	plan := New(userID)
	if err := json.Unmarshal([]byte(data), plan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal meal plan for user %s: %w", userID, err)
	}
	plan.UserID = userID
	plan.UpdatedAt = updatedAt
	return plan, nil
}

// Save replaces the stored plan document. Concurrent writers are last-write-wins.
func (r *Repository) Save(ctx context.Context, plan *MealPlan) error {
	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to marshal meal plan: %w", err)
	}

	plan.UpdatedAt = time.Now().UTC()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO meal_plans (user_id, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		plan.UserID, string(data), plan.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save meal plan for user %s: %w", plan.UserID, err)
	}
	return nil
}

// AddEntry schedules a recipe on a day.
func (r *Repository) AddEntry(ctx context.Context, userID string, mealType MealType, e Entry) error {
	if e.RecipeID == "" {
		return fmt.Errorf("recipe id is required")
	}
	if _, err := time.Parse(DateLayout, e.Date); err != nil {
		return fmt.Errorf("invalid date %q: %w", e.Date, err)
	}

	plan, err := r.Get(ctx, userID)
	if err != nil {
		return err
	}
	if plan == nil {
		plan = New(userID)
	}
	plan.Add(mealType, e)
	return r.Save(ctx, plan)
}

// RemoveEntry deletes a scheduled recipe.
func (r *Repository) RemoveEntry(ctx context.Context, userID string, mealType MealType, e Entry) error {
	plan, err := r.Get(ctx, userID)
	if err != nil {
		return err
	}
	if plan == nil || !plan.Remove(mealType, e) {
		return ErrEntryNotFound
	}
	return r.Save(ctx, plan)
}

// Reschedule moves an entry to another day by deleting and reinserting it.
func (r *Repository) Reschedule(ctx context.Context, userID string, mealType MealType, e Entry, newDate string) error {
	if _, err := time.Parse(DateLayout, newDate); err != nil {
		return fmt.Errorf("invalid date %q: %w", newDate, err)
	}

	plan, err := r.Get(ctx, userID)
	if err != nil {
		return err
	}
	if plan == nil || !plan.Remove(mealType, e) {
		return ErrEntryNotFound
	}
	plan.Add(mealType, Entry{RecipeID: e.RecipeID, Date: newDate})
	return r.Save(ctx, plan)
}
