package server

import (
	"bytes"

	"folio/internal/models"

	"github.com/gofiber/fiber/v2"
)

// respondError writes err with the status its type maps to.
func respondError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, models.StatusFor(err), err)
}

// parseID extracts a route parameter as a positive id.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 || id > 1<<32-1 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid post ID")
	}
	return uint(id), nil
}

// parsePage reads ?page=, defaulting to 1. The service clamps values below 1.
func parsePage(c *fiber.Ctx) int {
	return c.QueryInt("page", 1)
}

// parseJSON decodes a JSON body into out. An empty body leaves out untouched.
func parseJSON(c *fiber.Ctx, out any) error {
	body := bytes.TrimSpace(c.Body())
	if len(body) == 0 {
		return nil
	}
	if err := c.App().Config().JSONDecoder(body, out); err != nil {
		return models.NewValidationError("The request body must be a valid JSON object.")
	}
	return nil
}
