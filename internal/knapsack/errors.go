package knapsack

import "errors"

var (
	// ErrInvalidCapacity is returned when the requested capacity is negative.
	ErrInvalidCapacity = errors.New("capacity must be a non-negative integer")
	// ErrCapacityTooLarge is returned when the capacity exceeds the configured limit.
	ErrCapacityTooLarge = errors.New("capacity exceeds the configured limit")
	// ErrNoItems is returned when no item types are provided.
	ErrNoItems = errors.New("at least one item type is required")
	// ErrInvalidItem is returned when an item definition has a non-positive weight,
	// a negative count or a negative value.
	ErrInvalidItem = errors.New("invalid item definition")
)
