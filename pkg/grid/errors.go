package grid

import "errors"

// Sentinel errors returned by the grid package.
var (
	// ErrInvalidPageSize is returned when a page size is not a positive integer.
	ErrInvalidPageSize = errors.New("page size must be a positive integer")

	// ErrNoKeyFunc is returned when a controller is configured without a primary key function.
	ErrNoKeyFunc = errors.New("primary key function is required")

	// ErrNoColumns is returned when a controller is configured without columns.
	ErrNoColumns = errors.New("at least one column is required")

	// ErrDuplicateColumn is returned when two columns share an id.
	ErrDuplicateColumn = errors.New("duplicate column id")

	// ErrInvalidSortColumn is returned when an initial sort names a column
	// that does not exist or is not sortable.
	ErrInvalidSortColumn = errors.New("invalid sort column")

	// ErrUnknownToolbarItem is returned when a toolbar item id is not configured.
	ErrUnknownToolbarItem = errors.New("unknown toolbar item")

	// ErrMissingRenderer is returned when a custom column has no render function.
	ErrMissingRenderer = errors.New("custom column requires a render function")
)
