package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "tienda/internal/log"
	"tienda/internal/services"
	"tienda/internal/validate"
)

type TransactionHandler struct {
	Tx *services.TransactionService
}

func (h *TransactionHandler) List(c *fiber.Ctx) error {
	rows, err := h.Tx.List()
	if err != nil {
		return err
	}
	return c.JSON(rows)
}

func (h *TransactionHandler) Create(c *fiber.Ctx) error {
	var in services.CreateTransactionInput
	if err := c.BodyParser(&in); err != nil {
		applog.Security(c, "transaction.create.badbody", map[string]any{"error": err.Error()})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid transaction payload",
			"details": []string{"body must be valid JSON"},
		})
	}

	rec, err := h.Tx.Create(in)
	if err != nil {
		return respondError(c, err)
	}
	applog.Audit(c, "transaction.create", map[string]any{
		"transaction_id": rec.ID,
		"reference":      rec.Reference,
	})
	return c.Status(fiber.StatusCreated).JSON(rec)
}

func (h *TransactionHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "transaction"})
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message":       "Transaction not found",
			"transactionId": c.Params("id"),
		})
	}

	var in services.UpdateTransactionInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid transaction payload",
			"details": []string{"body must be valid JSON"},
		})
	}

	rec, err := h.Tx.Update(id, in)
	if err != nil {
		return respondError(c, err)
	}
	applog.Audit(c, "transaction.update", map[string]any{
		"transaction_id": rec.ID,
		"status":         rec.Status,
	})
	return c.JSON(rec)
}
