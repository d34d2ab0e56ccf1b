package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/astrozaddy/astrochart/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, computation_failed, internal_error, etc.
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, 400, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, 404, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, "internal_error", msg)
}

// errDomain maps the core's two disjoint failure kinds onto transport
// statuses: caller mistakes are 400s, ephemeris failures are 500s. The core
// itself never assigns status codes.
func errDomain(c *fiber.Ctx, err error) error {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return errBadRequest(c, vErr.Error())
	}
	var cErr *domain.ComputationError
	if errors.As(err, &cErr) {
		return newError(c, 500, "computation_failed", cErr.Error())
	}
	return errInternal(c, err.Error())
}
