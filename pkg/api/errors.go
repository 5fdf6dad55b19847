package api

import "fmt"

// ErrorType represents the category of an API error.
type ErrorType string

const (
	ErrorTypeServerError     ErrorType = "server_error"
	ErrorTypeInvalidRequest  ErrorType = "invalid_request"
	ErrorTypeNotFound        ErrorType = "not_found"
	ErrorTypeUnauthorized    ErrorType = "unauthorized"
	ErrorTypeForbidden       ErrorType = "forbidden"
	ErrorTypeConflict        ErrorType = "conflict"
	ErrorTypeTooManyRequests ErrorType = "too_many_requests"
	ErrorTypeBackendError    ErrorType = "backend_error"
)

// Codes refine an error type for clients that react to specific console
// outcomes.
const (
	CodeActionDisabled   = "action_disabled"
	CodeProtected        = "protected"
	CodeTargetNotAllowed = "target_not_allowed"
	CodeUnknownAction    = "unknown_action"
	CodeConnectionClosed = "connection_closed"
)

// APIError represents a structured API error with type, code, param, and message.
type APIError struct {
	Type    ErrorType `json:"type"`
	Code    string    `json:"code,omitempty"`
	Param   string    `json:"param,omitempty"`
	Message string    `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: %s (param: %s)", e.Type, e.Message, e.Param)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorResponse wraps an APIError for JSON serialization as the top-level error response.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// NewInvalidRequestError creates an APIError for invalid request parameters.
func NewInvalidRequestError(param, message string) *APIError {
	return &APIError{Type: ErrorTypeInvalidRequest, Param: param, Message: message}
}

// NewNotFoundError creates an APIError for resources that cannot be found.
func NewNotFoundError(message string) *APIError {
	return &APIError{Type: ErrorTypeNotFound, Message: message}
}

// NewServerError creates an APIError for internal server errors.
func NewServerError(message string) *APIError {
	return &APIError{Type: ErrorTypeServerError, Message: message}
}

// NewUnauthorizedError creates an APIError for missing or invalid sessions.
func NewUnauthorizedError(message string) *APIError {
	return &APIError{Type: ErrorTypeUnauthorized, Message: message}
}

// NewConnectionClosedError creates an APIError for a session whose
// connection is gone. Clients reconnect instead of retrying.
func NewConnectionClosedError(message string) *APIError {
	return &APIError{Type: ErrorTypeUnauthorized, Code: CodeConnectionClosed, Message: message}
}

// NewForbiddenError creates an APIError for operations the caller may not
// perform, such as dropping the default partition.
func NewForbiddenError(code, message string) *APIError {
	return &APIError{Type: ErrorTypeForbidden, Code: code, Message: message}
}

// NewConflictError creates an APIError for objects that already exist.
func NewConflictError(message string) *APIError {
	return &APIError{Type: ErrorTypeConflict, Message: message}
}

// NewTooManyRequestsError creates an APIError for rate limiting.
func NewTooManyRequestsError(message string) *APIError {
	return &APIError{Type: ErrorTypeTooManyRequests, Message: message}
}

// NewBackendError creates an APIError for failures reported by the vector
// database.
func NewBackendError(message string) *APIError {
	return &APIError{Type: ErrorTypeBackendError, Message: message}
}
