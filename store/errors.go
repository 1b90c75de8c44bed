package store

import (
	"errors"
	"fmt"
)

var (
	// ErrParentNotFound is returned when a referenced entity doesn't exist or is deleted.
	ErrParentNotFound = errors.New("store: referenced entity not found")

	// ErrNotFound is returned when an entity doesn't exist or is deleted (has TTL <= now).
	ErrNotFound = errors.New("store: entity not found")

	// ErrAlreadyExists is returned when attempting to create an entity with an existing ID.
	ErrAlreadyExists = errors.New("store: entity already exists")

	// ErrHasChildren is returned when attempting to delete an entity with active children.
	ErrHasChildren = errors.New("store: entity has active children")

	// ErrConcurrentModification is returned when optimistic lock fails (version mismatch).
	ErrConcurrentModification = errors.New("store: entity was modified concurrently")

	// ErrDuplicateValue is returned when a unique constraint is violated.
	ErrDuplicateValue = errors.New("store: duplicate value for unique field")
)

// ReferenceError reports which foreign key failed its existence check.
type ReferenceError struct {
	// Entity is the referenced entity type (e.g. "submission").
	Entity string

	// ID is the referenced id supplied by the caller.
	ID string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s with id %s does not exist", e.Entity, e.ID)
}

func (e *ReferenceError) Unwrap() error { return ErrParentNotFound }
