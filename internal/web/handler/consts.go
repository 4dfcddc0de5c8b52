// Package handler holds constants and helpers shared by the REST handlers.
package handler

const (
	// RootPath is the root path of the route group.
	RootPath = "/"

	// ErrNilACDFatalLogMsg is used if app or cfg or db var pointer is nil.
	ErrNilACDFatalLogMsg = "app, cfg or db is nil"

	// DefaultPageSize for paginated list endpoints.
	DefaultPageSize = 25

	// MaxPageSize is the upper bound accepted for the pageSize query parameter.
	MaxPageSize = 100
)
