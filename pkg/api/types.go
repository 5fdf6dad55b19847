package api

import "time"

// View kinds.
const (
	ViewPartitions = "partitions"
	ViewProperties = "properties"
)

// Property targets.
const (
	TargetCollection = "collection"
	TargetDatabase   = "database"
)

// VersionResponse is returned by GET /v1/version.
type VersionResponse struct {
	Version string `json:"version"`
	Backend string `json:"backend"`
}

// ConnectRequest opens a connection to a vector database.
type ConnectRequest struct {
	Address  string `json:"address" validate:"required,max=512"`
	Username string `json:"username,omitempty" validate:"max=256"`
	Password string `json:"password,omitempty" validate:"required_with=Username,max=256"`
	Token    string `json:"token,omitempty" validate:"max=4096"`
	Database string `json:"database,omitempty" validate:"omitempty,max=255"`
}

// ConnectResponse carries the session token for a new connection.
type ConnectResponse struct {
	ConnectionID string    `json:"connection_id"`
	Token        string    `json:"token"`
	ExpiresAt    time.Time `json:"expires_at"`
	Address      string    `json:"address"`
	Database     string    `json:"database"`
	Version      string    `json:"version"`
}

// ConnectionInfo describes the caller's connection.
type ConnectionInfo struct {
	ConnectionID string    `json:"connection_id"`
	Address      string    `json:"address"`
	Username     string    `json:"username,omitempty"`
	Database     string    `json:"database"`
	ConnectedAt  time.Time `json:"connected_at"`
	Views        int       `json:"views"`
}

// CreateViewRequest opens a grid view. Partition views need a collection;
// property views need a type and, for collections, a target name.
type CreateViewRequest struct {
	Kind       string `json:"kind" validate:"required,oneof=partitions properties"`
	Collection string `json:"collection,omitempty" validate:"required_if=Kind partitions,max=255"`
	Type       string `json:"type,omitempty" validate:"required_if=Kind properties,omitempty,oneof=collection database"`
	Target     string `json:"target,omitempty" validate:"max=255"`
	PageSize   int    `json:"page_size,omitempty" validate:"gte=0,lte=1000"`
}

// ViewList is returned by GET /v1/views.
type ViewList struct {
	Object string   `json:"object"`
	Data   []string `json:"data"`
}

// SortRequest toggles the sort when Order is empty, or sets it explicitly.
type SortRequest struct {
	Field string `json:"field" validate:"max=255"`
	Order string `json:"order,omitempty" validate:"omitempty,oneof=asc desc"`
}

// PageRequest moves to a page. Out-of-range pages are clamped.
type PageRequest struct {
	Page int `json:"page"`
}

// PageSizeRequest changes the page size.
type PageSizeRequest struct {
	PageSize int `json:"page_size" validate:"required,gt=0,lte=1000"`
}

// SelectionRequest replaces the selection with the given row keys.
type SelectionRequest struct {
	Keys []string `json:"keys" validate:"max=10000"`
}

// SearchRequest sets the search text of a view.
type SearchRequest struct {
	Text string `json:"text" validate:"max=256"`
}

// ActionRequest triggers a toolbar action. Without params the action's
// dialog opens; with params the action runs.
type ActionRequest struct {
	Params map[string]any `json:"params,omitempty"`
}
