package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/denzelpenzel/rewear/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// itemColumns is the scan order shared by every item query.
const itemColumns = `id, title, description, category, item_type, size, condition,
	tags, images, owner_id, owner_name, points_value, status, approved, created_at`

// ItemService handles the listing catalog and its moderation
type ItemService struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewItemService creates a new item service
func NewItemService(db *pgxpool.Pool, logger *zap.Logger) *ItemService {
	return &ItemService{
		db:     db,
		logger: logger,
	}
}

// CreateItem creates a listing owned by the given user.
// New listings start available and approved.
func (s *ItemService) CreateItem(ctx context.Context, owner *models.User, in *models.ItemCreate) (*models.Item, error) {
	item := &models.Item{
		ID:          uuid.New(),
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Type:        in.Type,
		Size:        in.Size,
		Condition:   in.Condition,
		Tags:        in.Tags,
		Images:      in.Images,
		OwnerID:     owner.ID,
		OwnerName:   owner.Name,
		PointsValue: in.PointsValue,
		Status:      models.ItemStatusAvailable,
		Approved:    true,
		CreatedAt:   time.Now().UTC(),
	}

	if item.PointsValue <= 0 {
		item.PointsValue = models.DefaultPointsValue
	}
	if item.Tags == nil {
		item.Tags = []string{}
	}
	if item.Images == nil {
		item.Images = []string{}
	}

	query := `
		INSERT INTO items (id, title, description, category, item_type, size, condition,
			tags, images, owner_id, owner_name, points_value, status, approved, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := s.db.Exec(ctx, query,
		item.ID, item.Title, item.Description, item.Category, item.Type, item.Size,
		item.Condition, item.Tags, item.Images, item.OwnerID, item.OwnerName,
		item.PointsValue, item.Status, item.Approved, item.CreatedAt,
	)
	if err != nil {
		s.logger.Error("Failed to create item", zap.Error(err), zap.String("owner_id", owner.ID.String()))
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	s.logger.Info("Item created",
		zap.String("item_id", item.ID.String()),
		zap.String("owner_id", owner.ID.String()),
		zap.String("category", item.Category))

	return item, nil
}

// ListItems returns a page of available, approved listings, newest first.
// Category is an exact-match filter when non-empty.
func (s *ItemService) ListItems(ctx context.Context, category string, limit, skip int) ([]models.Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM items
		WHERE status = $1 AND approved = TRUE
	`
	args := []any{models.ItemStatusAvailable}

	if category != "" {
		query += ` AND category = $2`
		args = append(args, category)
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, skip)

	return s.queryItems(ctx, query, args...)
}

// FeaturedItems returns the six most recent available, approved listings
func (s *ItemService) FeaturedItems(ctx context.Context) ([]models.Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM items
		WHERE status = $1 AND approved = TRUE
		ORDER BY created_at DESC
		LIMIT 6
	`
	return s.queryItems(ctx, query, models.ItemStatusAvailable)
}

// GetItem fetches a single listing by id. Status and approval are not
// filtered here; a pending or unapproved item is still reachable by id.
func (s *ItemService) GetItem(ctx context.Context, itemID uuid.UUID) (*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`

	item := &models.Item{}
	err := s.db.QueryRow(ctx, query, itemID).Scan(
		&item.ID, &item.Title, &item.Description, &item.Category, &item.Type,
		&item.Size, &item.Condition, &item.Tags, &item.Images, &item.OwnerID,
		&item.OwnerName, &item.PointsValue, &item.Status, &item.Approved, &item.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		s.logger.Error("Failed to fetch item", zap.Error(err), zap.String("item_id", itemID.String()))
		return nil, fmt.Errorf("failed to fetch item: %w", err)
	}

	return item, nil
}

// ListByOwner returns a user's listings regardless of status or approval
func (s *ItemService) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM items
		WHERE owner_id = $1
		ORDER BY created_at DESC
		LIMIT 100
	`
	return s.queryItems(ctx, query, ownerID)
}

// ListAllItems returns the unfiltered catalog for moderation
func (s *ItemService) ListAllItems(ctx context.Context) ([]models.Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM items
		ORDER BY created_at DESC
		LIMIT 1000
	`
	return s.queryItems(ctx, query)
}

// ApproveItem marks a listing as approved. Approving an absent item is a no-op.
func (s *ItemService) ApproveItem(ctx context.Context, itemID uuid.UUID) error {
	_, err := s.db.Exec(ctx, `UPDATE items SET approved = TRUE WHERE id = $1`, itemID)
	if err != nil {
		s.logger.Error("Failed to approve item", zap.Error(err), zap.String("item_id", itemID.String()))
		return fmt.Errorf("failed to approve item: %w", err)
	}

	return nil
}

// DeleteItem removes a listing. Deleting an absent item is a no-op.
func (s *ItemService) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	_, err := s.db.Exec(ctx, `DELETE FROM items WHERE id = $1`, itemID)
	if err != nil {
		s.logger.Error("Failed to delete item", zap.Error(err), zap.String("item_id", itemID.String()))
		return fmt.Errorf("failed to delete item: %w", err)
	}

	s.logger.Info("Item deleted", zap.String("item_id", itemID.String()))
	return nil
}

func (s *ItemService) queryItems(ctx context.Context, query string, args ...any) ([]models.Item, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		s.logger.Error("Failed to query items", zap.Error(err))
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		var item models.Item
		if err := rows.Scan(
			&item.ID, &item.Title, &item.Description, &item.Category, &item.Type,
			&item.Size, &item.Condition, &item.Tags, &item.Images, &item.OwnerID,
			&item.OwnerName, &item.PointsValue, &item.Status, &item.Approved, &item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read items: %w", err)
	}

	return items, nil
}
