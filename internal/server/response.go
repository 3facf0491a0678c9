package server

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse is the error body shape for every handler.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError writes a structured error response. This is the only way
// handlers produce error bodies, so the shape stays consistent.
func writeError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(ErrorResponse{
		Code:    strconv.Itoa(status),
		Message: message,
	})
}

func internalServerError(c *fiber.Ctx) error {
	// Generic on purpose: internals never leak to callers.
	return writeError(c, fiber.StatusInternalServerError, "internal server error")
}

func serviceUnavailable(c *fiber.Ctx) error {
	return writeError(c, fiber.StatusServiceUnavailable, "storage temporarily unavailable, retry later")
}
