package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/gofiber/fiber/v2"

	"tienda/internal/domain"
	applog "tienda/internal/log"
	"tienda/internal/payment"
)

// PaymentHandler is the simulated provider endpoint the checkout flow
// posts to. It honors a valid decisionHint; without one the decision
// comes from the card number's last digit (even approves).
type PaymentHandler struct{}

func (h *PaymentHandler) Charge(c *fiber.Ctx) error {
	var req payment.ChargeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid payment payload"})
	}

	status := decide(req)
	id := "wompi_" + randomHex(8)

	applog.Audit(c, "payment.simulated", map[string]any{
		"reference": req.Reference,
		"amount":    req.AmountCents,
		"status":    status,
	})
	return c.JSON(fiber.Map{"id": id, "status": status})
}

func decide(req payment.ChargeRequest) domain.TransactionStatus {
	if st, ok := domain.ParseStatus(req.DecisionHint); ok && st != domain.StatusPending {
		return st
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, req.Card.Number)
	if digits == "" {
		return domain.StatusApproved
	}
	if (digits[len(digits)-1]-'0')%2 == 0 {
		return domain.StatusApproved
	}
	return domain.StatusDeclined
}

func randomHex(n int) string {
	b := make([]byte, (n+1)/2)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)[:n]
}
