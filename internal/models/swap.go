package models

import (
	"time"

	"github.com/google/uuid"
)

// Swap types
const (
	SwapTypeDirect = "direct"
	SwapTypePoints = "points"
)

// Swap request statuses. Completed is kept for wire compatibility;
// no transition currently produces it.
const (
	SwapStatusPending   = "pending"
	SwapStatusAccepted  = "accepted"
	SwapStatusRejected  = "rejected"
	SwapStatusCompleted = "completed"
)

// SwapRequest represents a proposal to acquire another user's item,
// either by offering one of your own (direct) or by spending points.
type SwapRequest struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	ItemID        uuid.UUID  `json:"item_id" db:"item_id"`
	RequesterID   uuid.UUID  `json:"requester_id" db:"requester_id"`
	RequesterName string     `json:"requester_name" db:"requester_name"`
	OwnerID       uuid.UUID  `json:"owner_id" db:"owner_id"`
	SwapType      string     `json:"swap_type" db:"swap_type"`
	OfferedItemID *uuid.UUID `json:"offered_item_id,omitempty" db:"offered_item_id"` // direct swaps only
	Message       string     `json:"message" db:"message"`
	Status        string     `json:"status" db:"status"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

// SwapRequestCreate represents a swap creation request
type SwapRequestCreate struct {
	ItemID        uuid.UUID  `json:"item_id" validate:"required"`
	SwapType      string     `json:"swap_type" validate:"required"`
	OfferedItemID *uuid.UUID `json:"offered_item_id,omitempty"`
	Message       string     `json:"message"`
}
