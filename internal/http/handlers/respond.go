package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "tienda/internal/log"
	"tienda/internal/services"
)

// respondError maps each workflow error to its status family:
// 400 for payload/logic errors, 404 for not-found, 409 for stock
// conflicts. Anything outside the taxonomy bubbles up to the app
// error handler as a generic failure.
func respondError(c *fiber.Ctx, err error) error {
	var (
		invalidPayload *services.InvalidPayloadError
		productMissing *services.ProductNotFoundError
		stock          *services.InsufficientStockError
		mismatch       *services.AmountMismatchError
		txMissing      *services.TransactionNotFoundError
		badStatus      *services.InvalidStatusError
	)

	switch {
	case errors.As(err, &invalidPayload):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid transaction payload",
			"details": invalidPayload.Details,
		})
	case errors.As(err, &productMissing):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message":    "Product not found",
			"productIds": productMissing.ProductIDs,
		})
	case errors.As(err, &stock):
		applog.Security(c, "stock.conflict", map[string]any{"items": stock.Items})
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "Insufficient stock",
			"items":   stock.Items,
		})
	case errors.As(err, &mismatch):
		applog.Security(c, "amount.mismatch", map[string]any{
			"expected": mismatch.Expected, "actual": mismatch.Actual,
		})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message":  "Amount mismatch",
			"expected": mismatch.Expected,
			"actual":   mismatch.Actual,
		})
	case errors.As(err, &txMissing):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message":       "Transaction not found",
			"transactionId": txMissing.TransactionID,
		})
	case errors.As(err, &badStatus):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid transaction status",
			"status":  badStatus.Status,
		})
	case errors.Is(err, services.ErrNothingToUpdate):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "No fields provided to update",
		})
	}
	return err
}
