package models

import (
	"time"

	"github.com/google/uuid"
)

// Item listing statuses
const (
	ItemStatusAvailable = "available"
	ItemStatusPending   = "pending"
	ItemStatusSwapped   = "swapped"
)

// DefaultPointsValue is used when a listing does not name a price.
const DefaultPointsValue = 10

// Item represents a clothing listing
type Item struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Category    string    `json:"category" db:"category"` // tops, bottoms, shoes, accessories, etc.
	Type        string    `json:"type" db:"item_type"`    // shirt, jeans, sneakers, etc.
	Size        string    `json:"size" db:"size"`
	Condition   string    `json:"condition" db:"condition"` // new, like-new, good, fair
	Tags        []string  `json:"tags" db:"tags"`
	Images      []string  `json:"images" db:"images"` // base64 encoded images, passed through opaquely
	OwnerID     uuid.UUID `json:"owner_id" db:"owner_id"`
	OwnerName   string    `json:"owner_name" db:"owner_name"`
	PointsValue int       `json:"points_value" db:"points_value"`
	Status      string    `json:"status" db:"status"`
	Approved    bool      `json:"approved" db:"approved"` // admin moderation flag
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ItemCreate represents an item creation request.
// Category/type/size/condition are caller-supplied strings and are not
// validated against an enum beyond presence.
type ItemCreate struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Category    string   `json:"category" validate:"required"`
	Type        string   `json:"type" validate:"required"`
	Size        string   `json:"size" validate:"required"`
	Condition   string   `json:"condition" validate:"required"`
	Tags        []string `json:"tags"`
	Images      []string `json:"images"`
	PointsValue int      `json:"points_value"`
}
