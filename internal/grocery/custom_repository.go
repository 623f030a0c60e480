package grocery

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrCustomNotFound is returned when a custom item id is not in the user's list.
var ErrCustomNotFound = errors.New("custom ingredient not found")

type customDocument struct {
	Items []CustomIngredient `json:"items"`
}

// CustomRepository stores each user's hand-entered items as one document.
type CustomRepository struct {
	db *sql.DB
}

// NewCustomRepository creates a new CustomRepository.
func NewCustomRepository(d *sql.DB) *CustomRepository {
	return &CustomRepository{db: d}
}

// List returns the user's custom items in insertion order.
func (r *CustomRepository) List(ctx context.Context, userID string) ([]CustomIngredient, error) {
	doc, err := r.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return doc.Items, nil
}

// Add appends an item unless one with the same id is already stored. Items
// without a description are rejected. The stored item is returned.
func (r *CustomRepository) Add(ctx context.Context, userID string, item CustomIngredient) (CustomIngredient, error) {
	item.Description = strings.TrimSpace(item.Description)
	if item.Description == "" {
		return CustomIngredient{}, fmt.Errorf("custom ingredient description is required")
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}

	doc, err := r.load(ctx, userID)
	if err != nil {
		return CustomIngredient{}, err
	}
	for _, existing := range doc.Items {
		if existing.ID == item.ID {
			return existing, nil
		}
	}
	doc.Items = append(doc.Items, item)
	return item, r.save(ctx, userID, doc)
}

// SetChecked marks an item as bought or not.
func (r *CustomRepository) SetChecked(ctx context.Context, userID, id string, checked bool) error {
	doc, err := r.load(ctx, userID)
	if err != nil {
		return err
	}
	for i := range doc.Items {
		if doc.Items[i].ID == id {
			doc.Items[i].Checked = checked
			return r.save(ctx, userID, doc)
		}
	}
	return ErrCustomNotFound
}

// Remove deletes an item.
func (r *CustomRepository) Remove(ctx context.Context, userID, id string) error {
	doc, err := r.load(ctx, userID)
	if err != nil {
		return err
	}
	for i := range doc.Items {
		if doc.Items[i].ID == id {
			doc.Items = append(doc.Items[:i], doc.Items[i+1:]...)
			return r.save(ctx, userID, doc)
		}
	}
	return ErrCustomNotFound
}

func (r *CustomRepository) load(ctx context.Context, userID string) (*customDocument, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT data FROM custom_ingredients WHERE user_id = ?`, userID).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return &customDocument{}, nil
		}
		return nil, fmt.Errorf("failed to get custom ingredients for user %s: %w", userID, err)
	}

	var doc customDocument
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal custom ingredients for user %s: %w", userID, err)
	}
	return &doc, nil
}

func (r *CustomRepository) save(ctx context.Context, userID string, doc *customDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal custom ingredients: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO custom_ingredients (user_id, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		userID, string(data), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save custom ingredients for user %s: %w", userID, err)
	}
	return nil
}
