package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "tienda/internal/log"
	"tienda/internal/services"
	"tienda/internal/validate"
)

// StatusHandler renders the server-side order status page, looked up
// by the human-facing reference rather than the internal id.
type StatusHandler struct {
	Tx *services.TransactionService
}

func (h *StatusHandler) Show(c *fiber.Ctx) error {
	ref, ok := validate.Reference(c.Params("reference"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "reference"})
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Order not found"})
	}

	detail, err := h.Tx.GetByReference(ref)
	if err != nil {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Order not found"})
	}
	return c.Render("status", fiber.Map{"Tx": detail})
}
