package share

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// Repository stores shared grocery-list snapshots.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Save inserts a snapshot. Snapshots are immutable once shared.
func (r *Repository) Save(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal shared grocery list: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO shared_grocery_lists (id, owner, data, created_at) VALUES (?, ?, ?, ?)`,
		rec.ID, rec.Owner, string(data), rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save shared grocery list: %w", err)
	}
	return nil
}

// Get retrieves a snapshot by id.
func (r *Repository) Get(ctx context.Context, id string) (*Record, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT data FROM shared_grocery_lists WHERE id = ?`, id).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get shared grocery list: %w", err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shared grocery list: %w", err)
	}
	return &rec, nil
}

// ListByOwner returns the ids of every list a user shared, newest first.
func (r *Repository) ListByOwner(ctx context.Context, owner string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM shared_grocery_lists WHERE owner = ? ORDER BY created_at DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list shared grocery lists: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan shared grocery list id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
