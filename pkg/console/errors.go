package console

import "errors"

var (
	// ErrUnknownAction indicates the view has no toolbar action with the given id.
	ErrUnknownAction = errors.New("unknown action")

	// ErrActionDisabled indicates the action's predicate rejects the current selection.
	ErrActionDisabled = errors.New("action disabled")

	// ErrInvalidParams indicates action params are missing or malformed.
	ErrInvalidParams = errors.New("invalid action params")

	// ErrViewNotFound indicates the view does not exist for the connection.
	ErrViewNotFound = errors.New("view not found")

	// ErrConnectionNotFound indicates the connection does not exist.
	ErrConnectionNotFound = errors.New("connection not found")

	// ErrUnknownViewKind indicates a view of an unsupported kind was requested.
	ErrUnknownViewKind = errors.New("unknown view kind")
)
