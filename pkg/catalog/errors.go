package catalog

import "errors"

// Sentinel errors for catalog operations.
var (
	// ErrNotFound is returned when a database, collection, partition or
	// property does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when creating an object that already exists.
	ErrConflict = errors.New("already exists")

	// ErrProtected is returned when dropping the default partition.
	ErrProtected = errors.New("default partition cannot be dropped")

	// ErrInvalidName is returned for names the backend would reject.
	ErrInvalidName = errors.New("invalid name")

	// ErrTargetNotAllowed is returned when dialing an address outside the
	// configured allow list.
	ErrTargetNotAllowed = errors.New("target address not allowed")
)
