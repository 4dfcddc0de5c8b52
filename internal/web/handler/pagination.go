package handler

import (
	"github.com/gofiber/fiber/v2"
)

// PageQuery holds the normalized pagination and search query parameters.
type PageQuery struct {
	Page     int
	PageSize int
	Search   string
}

// ParsePageQuery reads page, pageSize and search from the request query,
// clamping out-of-range values to their defaults.
func ParsePageQuery(c *fiber.Ctx) PageQuery {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	pageSize := c.QueryInt("pageSize", DefaultPageSize)
	if pageSize < 1 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}

	return PageQuery{
		Page:     page,
		PageSize: pageSize,
		Search:   c.Query("search", ""),
	}
}

// Offset returns the row offset for the current page.
func (q PageQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}
