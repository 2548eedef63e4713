package services

import "errors"

// Service-level errors. The API layer maps these onto HTTP statuses;
// anything unrecognized becomes a generic 500.
var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrItemNotFound       = errors.New("item not found")
	ErrItemUnavailable    = errors.New("item is no longer available")
	ErrSwapNotFound       = errors.New("swap request not found")
	ErrOwnItemSwap        = errors.New("cannot swap your own item")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrInvalidSwapType    = errors.New("swap type must be direct or points")
	ErrSwapSettled        = errors.New("swap request already settled")
)
