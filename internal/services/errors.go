package services

import (
	"errors"
	"fmt"
	"strings"
)

// Workflow outcomes are typed errors, one per case, matched with
// errors.As at the HTTP boundary and mapped exhaustively to a status
// code. Persistence failures outside this set propagate as-is.

type InvalidPayloadError struct {
	Details []string
}

func (e *InvalidPayloadError) Error() string {
	return "invalid transaction payload: " + strings.Join(e.Details, "; ")
}

type ProductNotFoundError struct {
	ProductIDs []string
}

func (e *ProductNotFoundError) Error() string {
	return "product not found: " + strings.Join(e.ProductIDs, ", ")
}

// StockShortage describes one violating product; InsufficientStockError
// carries every violation, not just the first.
type StockShortage struct {
	ProductID string `json:"productId"`
	Requested int64  `json:"requested"`
	Available int64  `json:"available"`
}

type InsufficientStockError struct {
	Items []StockShortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Items))
	for _, it := range e.Items {
		parts = append(parts, fmt.Sprintf("%s (need %d, have %d)", it.ProductID, it.Requested, it.Available))
	}
	return "insufficient stock: " + strings.Join(parts, ", ")
}

type AmountMismatchError struct {
	Expected int64
	Actual   int64
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("amount mismatch: expected %d, got %d", e.Expected, e.Actual)
}

type TransactionNotFoundError struct {
	TransactionID string
}

func (e *TransactionNotFoundError) Error() string {
	return "transaction not found: " + e.TransactionID
}

type InvalidStatusError struct {
	Status string
}

func (e *InvalidStatusError) Error() string {
	return "invalid transaction status: " + e.Status
}

// ErrNothingToUpdate guards PATCH requests where every field is absent.
var ErrNothingToUpdate = errors.New("no fields provided to update")
