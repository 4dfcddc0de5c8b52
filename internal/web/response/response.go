// Package response implements the normalized JSON response envelope.
//
// Every endpoint answers {"success": true, "data": ...} or
// {"success": false, "error": {"code": ..., "message": ...}}.
package response

import (
	"github.com/gofiber/fiber/v2"
)

// Success writes a normalized success envelope.
func Success(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

// Fail writes a normalized error envelope.
func Fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error": fiber.Map{
			"code":    status,
			"message": message,
		},
	})
}

// Paginated writes a normalized success envelope with pagination metadata.
func Paginated(c *fiber.Ctx, data interface{}, page, pageSize int, totalItems int64) error {
	totalPages := int((totalItems + int64(pageSize) - 1) / int64(pageSize))
	if totalPages == 0 {
		totalPages = 1
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    data,
		"meta": fiber.Map{
			"page":       page,
			"pageSize":   pageSize,
			"totalItems": totalItems,
			"totalPages": totalPages,
		},
	})
}
