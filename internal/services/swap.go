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

const swapColumns = `id, item_id, requester_id, requester_name, owner_id,
	swap_type, offered_item_id, message, status, created_at`

// SwapService handles swap requests and their settlement.
//
// Accepting a points swap moves the item's point value from requester to
// owner and marks the item swapped, all inside one transaction. Accepting
// a direct swap records the decision only: the offered item is carried as
// an opaque reference and no endpoint drives a direct exchange step.
type SwapService struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewSwapService creates a new swap service
func NewSwapService(db *pgxpool.Pool, logger *zap.Logger) *SwapService {
	return &SwapService{
		db:     db,
		logger: logger,
	}
}

// CreateSwap files a swap request against another user's item
func (s *SwapService) CreateSwap(ctx context.Context, requester *models.User, in *models.SwapRequestCreate) (*models.SwapRequest, error) {
	if in.SwapType != models.SwapTypeDirect && in.SwapType != models.SwapTypePoints {
		return nil, ErrInvalidSwapType
	}

	var ownerID uuid.UUID
	var pointsValue int
	err := s.db.QueryRow(ctx, `SELECT owner_id, points_value FROM items WHERE id = $1`, in.ItemID).
		Scan(&ownerID, &pointsValue)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		s.logger.Error("Failed to fetch item for swap", zap.Error(err), zap.String("item_id", in.ItemID.String()))
		return nil, fmt.Errorf("failed to fetch item: %w", err)
	}

	if ownerID == requester.ID {
		return nil, ErrOwnItemSwap
	}

	if in.SwapType == models.SwapTypePoints && requester.Points < pointsValue {
		return nil, ErrInsufficientPoints
	}

	swap := &models.SwapRequest{
		ID:            uuid.New(),
		ItemID:        in.ItemID,
		RequesterID:   requester.ID,
		RequesterName: requester.Name,
		OwnerID:       ownerID,
		SwapType:      in.SwapType,
		OfferedItemID: in.OfferedItemID,
		Message:       in.Message,
		Status:        models.SwapStatusPending,
		CreatedAt:     time.Now().UTC(),
	}

	query := `
		INSERT INTO swap_requests (id, item_id, requester_id, requester_name, owner_id,
			swap_type, offered_item_id, message, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = s.db.Exec(ctx, query,
		swap.ID, swap.ItemID, swap.RequesterID, swap.RequesterName, swap.OwnerID,
		swap.SwapType, swap.OfferedItemID, swap.Message, swap.Status, swap.CreatedAt,
	)
	if err != nil {
		s.logger.Error("Failed to create swap request", zap.Error(err))
		return nil, fmt.Errorf("failed to create swap request: %w", err)
	}

	s.logger.Info("Swap request created",
		zap.String("swap_id", swap.ID.String()),
		zap.String("item_id", swap.ItemID.String()),
		zap.String("swap_type", swap.SwapType))

	return swap, nil
}

// AcceptSwap settles a pending swap request owned by the acting user.
//
// The swap row is locked first, so the status change, both balance moves
// and the item transition commit or roll back together. The requester's
// balance is re-checked by the debit's points guard; the value may have
// drifted since the request was created.
func (s *SwapService) AcceptSwap(ctx context.Context, swapID uuid.UUID, owner *models.User) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var itemID, requesterID uuid.UUID
	var swapType, status string
	err = tx.QueryRow(ctx, `
		SELECT item_id, requester_id, swap_type, status
		FROM swap_requests
		WHERE id = $1 AND owner_id = $2
		FOR UPDATE
	`, swapID, owner.ID).Scan(&itemID, &requesterID, &swapType, &status)

	// An existing swap owned by someone else reads as not-found on purpose
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrSwapNotFound
	}
	if err != nil {
		s.logger.Error("Failed to fetch swap request", zap.Error(err), zap.String("swap_id", swapID.String()))
		return fmt.Errorf("failed to fetch swap request: %w", err)
	}

	if status != models.SwapStatusPending {
		return ErrSwapSettled
	}

	if _, err := tx.Exec(ctx, `UPDATE swap_requests SET status = $1 WHERE id = $2`,
		models.SwapStatusAccepted, swapID); err != nil {
		return fmt.Errorf("failed to accept swap request: %w", err)
	}

	if swapType == models.SwapTypePoints {
		// Re-read the item under the lock, the listing may have been
		// repriced or claimed by another accepted swap
		var pointsValue int
		var itemStatus string
		err = tx.QueryRow(ctx, `SELECT points_value, status FROM items WHERE id = $1 FOR UPDATE`, itemID).
			Scan(&pointsValue, &itemStatus)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrItemNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to fetch item for settlement: %w", err)
		}

		if itemStatus == models.ItemStatusSwapped {
			return ErrItemUnavailable
		}

		tag, err := tx.Exec(ctx, `UPDATE users SET points = points - $1 WHERE id = $2 AND points >= $1`,
			pointsValue, requesterID)
		if err != nil {
			return fmt.Errorf("failed to debit requester: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrInsufficientPoints
		}

		if _, err := tx.Exec(ctx, `UPDATE users SET points = points + $1 WHERE id = $2`,
			pointsValue, owner.ID); err != nil {
			return fmt.Errorf("failed to credit owner: %w", err)
		}

		if _, err := tx.Exec(ctx, `UPDATE items SET status = $1 WHERE id = $2`,
			models.ItemStatusSwapped, itemID); err != nil {
			return fmt.Errorf("failed to mark item swapped: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit settlement: %w", err)
	}

	s.logger.Info("Swap request accepted",
		zap.String("swap_id", swapID.String()),
		zap.String("swap_type", swapType),
		zap.String("owner_id", owner.ID.String()))

	return nil
}

// RejectSwap rejects a pending swap request owned by the acting user
func (s *SwapService) RejectSwap(ctx context.Context, swapID uuid.UUID, owner *models.User) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE swap_requests
		SET status = $1
		WHERE id = $2 AND owner_id = $3 AND status = $4
	`, models.SwapStatusRejected, swapID, owner.ID, models.SwapStatusPending)
	if err != nil {
		s.logger.Error("Failed to reject swap request", zap.Error(err), zap.String("swap_id", swapID.String()))
		return fmt.Errorf("failed to reject swap request: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrSwapNotFound
	}

	s.logger.Info("Swap request rejected", zap.String("swap_id", swapID.String()))
	return nil
}

// ListIncoming returns swap requests against the user's items, newest first
func (s *SwapService) ListIncoming(ctx context.Context, ownerID uuid.UUID) ([]models.SwapRequest, error) {
	return s.querySwaps(ctx, `
		SELECT `+swapColumns+`
		FROM swap_requests
		WHERE owner_id = $1
		ORDER BY created_at DESC
		LIMIT 100
	`, ownerID)
}

// ListOutgoing returns swap requests the user has filed, newest first
func (s *SwapService) ListOutgoing(ctx context.Context, requesterID uuid.UUID) ([]models.SwapRequest, error) {
	return s.querySwaps(ctx, `
		SELECT `+swapColumns+`
		FROM swap_requests
		WHERE requester_id = $1
		ORDER BY created_at DESC
		LIMIT 100
	`, requesterID)
}

func (s *SwapService) querySwaps(ctx context.Context, query string, args ...any) ([]models.SwapRequest, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		s.logger.Error("Failed to query swap requests", zap.Error(err))
		return nil, fmt.Errorf("failed to query swap requests: %w", err)
	}
	defer rows.Close()

	swaps := []models.SwapRequest{}
	for rows.Next() {
		var swap models.SwapRequest
		if err := rows.Scan(
			&swap.ID, &swap.ItemID, &swap.RequesterID, &swap.RequesterName, &swap.OwnerID,
			&swap.SwapType, &swap.OfferedItemID, &swap.Message, &swap.Status, &swap.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan swap request: %w", err)
		}
		swaps = append(swaps, swap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read swap requests: %w", err)
	}

	return swaps, nil
}
