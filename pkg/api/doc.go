// Package api defines the wire types of the console HTTP API: request and
// response bodies, the structured error type, and ID generation.
//
// Request bodies carry go-playground/validator struct tags; Validate turns
// the first failing field into an *APIError whose Param is the JSON field
// name. The package performs no I/O.
package api
