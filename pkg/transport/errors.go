package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rhuss/vdbconsole/pkg/api"
	"github.com/rhuss/vdbconsole/pkg/auth"
	"github.com/rhuss/vdbconsole/pkg/catalog"
	"github.com/rhuss/vdbconsole/pkg/console"
	"github.com/rhuss/vdbconsole/pkg/grid"
)

// Error codes carried in APIError.Code.
const (
	CodeActionDisabled   = api.CodeActionDisabled
	CodeProtected        = api.CodeProtected
	CodeTargetNotAllowed = api.CodeTargetNotAllowed
	CodeUnknownAction    = api.CodeUnknownAction
	CodeConnectionClosed = api.CodeConnectionClosed
)

// HTTPStatusFromError maps an APIError type to the corresponding HTTP status
// code. Transport-level errors (body too large, unsupported content type)
// are handled separately by the HTTP adapter.
func HTTPStatusFromError(err *api.APIError) int {
	switch err.Type {
	case api.ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case api.ErrorTypeNotFound:
		return http.StatusNotFound
	case api.ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case api.ErrorTypeForbidden:
		return http.StatusForbidden
	case api.ErrorTypeConflict:
		return http.StatusConflict
	case api.ErrorTypeTooManyRequests:
		return http.StatusTooManyRequests
	case api.ErrorTypeBackendError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ToAPIError converts an error returned by the console into an APIError.
// Errors that already are APIErrors pass through unchanged; unknown errors
// become backend errors, since they originate in the vector database.
func ToAPIError(err error) *api.APIError {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	msg := err.Error()
	switch {
	case errors.Is(err, console.ErrUnknownAction):
		e := api.NewNotFoundError(msg)
		e.Code = CodeUnknownAction
		return e
	case errors.Is(err, console.ErrViewNotFound),
		errors.Is(err, catalog.ErrNotFound):
		return api.NewNotFoundError(msg)
	case errors.Is(err, console.ErrConnectionNotFound),
		errors.Is(err, auth.ErrConnectionClosed):
		return api.NewConnectionClosedError(msg)
	case errors.Is(err, auth.ErrUnauthenticated):
		return api.NewUnauthorizedError(msg)
	case errors.Is(err, auth.ErrTooManyRequests):
		return api.NewTooManyRequestsError(msg)
	case errors.Is(err, console.ErrActionDisabled):
		return api.NewForbiddenError(CodeActionDisabled, msg)
	case errors.Is(err, catalog.ErrProtected):
		return api.NewForbiddenError(CodeProtected, msg)
	case errors.Is(err, catalog.ErrTargetNotAllowed):
		return api.NewForbiddenError(CodeTargetNotAllowed, msg)
	case errors.Is(err, catalog.ErrConflict):
		return api.NewConflictError(msg)
	case errors.Is(err, console.ErrInvalidParams),
		errors.Is(err, console.ErrUnknownViewKind),
		errors.Is(err, catalog.ErrInvalidName),
		errors.Is(err, grid.ErrInvalidPageSize):
		return api.NewInvalidRequestError("", msg)
	default:
		return api.NewBackendError(msg)
	}
}

// WriteErrorResponse writes a JSON error response using the ErrorResponse
// wrapper format from pkg/api. It sets the Content-Type header and writes
// the HTTP status code.
func WriteErrorResponse(w http.ResponseWriter, apiErr *api.APIError, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(api.ErrorResponse{Error: apiErr})
}

// WriteAPIError writes an APIError response, deriving the HTTP status code
// from the error type.
func WriteAPIError(w http.ResponseWriter, apiErr *api.APIError) {
	WriteErrorResponse(w, apiErr, HTTPStatusFromError(apiErr))
}

// WriteError converts err with ToAPIError and writes it.
func WriteError(w http.ResponseWriter, err error) {
	WriteAPIError(w, ToAPIError(err))
}
