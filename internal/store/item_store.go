package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dugoutapp/dugout/internal/domain"
)

type ItemStore struct {
	db *sql.DB
}

func NewItemStore(db *sql.DB) *ItemStore {
	return &ItemStore{db: db}
}

// Create inserts item with a freshly assigned id and timestamps. The id is a
// uuid string; timestamps are set here rather than by the database so that
// list ordering has sub-second resolution.
func (s *ItemStore) Create(ctx context.Context, item domain.Item) (*domain.Item, error) {
	item.ID = uuid.NewString()
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (id, kind, team, player, color_design, location, price_paid, image_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, item.ID, item.Kind, item.Team, item.Player, item.ColorDesign, item.Location,
		item.PricePaid, item.ImageURL, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	return s.GetByID(ctx, item.ID)
}

func (s *ItemStore) GetByID(ctx context.Context, id string) (*domain.Item, error) {
	item := &domain.Item{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, kind, team, player, color_design, location, price_paid, image_url, created_at, updated_at
		FROM items WHERE id = ?
	`, id).Scan(&item.ID, &item.Kind, &item.Team, &item.Player, &item.ColorDesign,
		&item.Location, &item.PricePaid, &item.ImageURL, &item.CreatedAt, &item.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	return item, nil
}

// ListByKind returns all items of one kind, newest first.
func (s *ItemStore) ListByKind(ctx context.Context, kind domain.Kind) ([]*domain.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, team, player, color_design, location, price_paid, image_url, created_at, updated_at
		FROM items WHERE kind = ? ORDER BY created_at DESC
	`, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var items []*domain.Item
	for rows.Next() {
		item := &domain.Item{}
		if err := rows.Scan(&item.ID, &item.Kind, &item.Team, &item.Player, &item.ColorDesign,
			&item.Location, &item.PricePaid, &item.ImageURL, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	return items, nil
}

// Update replaces the editable fields of the item and refreshes updated_at.
// The id, kind, and created_at never change.
func (s *ItemStore) Update(ctx context.Context, id string, item domain.Item) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE items
		SET team = ?, player = ?, color_design = ?, location = ?, price_paid = ?, image_url = ?, updated_at = ?
		WHERE id = ?
	`, item.Team, item.Player, item.ColorDesign, item.Location,
		item.PricePaid, item.ImageURL, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func (s *ItemStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM items WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}
