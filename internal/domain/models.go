package domain

import "strings"

// TransactionStatus is the 4-state order lifecycle. A transaction is
// created PENDING and later moves to APPROVED, DECLINED or ERROR.
type TransactionStatus string

const (
	StatusPending  TransactionStatus = "PENDING"
	StatusApproved TransactionStatus = "APPROVED"
	StatusDeclined TransactionStatus = "DECLINED"
	StatusError    TransactionStatus = "ERROR"
)

// ParseStatus normalizes a submitted status (trim + upper-case) and
// reports whether it is one of the known states.
func ParseStatus(s string) (TransactionStatus, bool) {
	st := TransactionStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case StatusPending, StatusApproved, StatusDeclined, StatusError:
		return st, true
	}
	return st, false
}

type Product struct {
	ID          string `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description,omitempty"`
	ImageURL    string `db:"image_url" json:"imageUrl,omitempty"`
	PriceCents  int64  `db:"price_cents" json:"priceCents"`
	Stock       int64  `db:"stock" json:"stock"`
	CreatedAt   string `db:"created_at" json:"createdAt"`
}

type Customer struct {
	ID       string `db:"id" json:"id"`
	FullName string `db:"full_name" json:"fullName"`
	Email    string `db:"email" json:"email"`
	Phone    string `db:"phone" json:"phone,omitempty"`
}

type Delivery struct {
	ID           string `db:"id" json:"id"`
	CustomerID   string `db:"customer_id" json:"customerId"`
	AddressLine1 string `db:"address_line1" json:"addressLine1"`
	City         string `db:"city" json:"city"`
	State        string `db:"state" json:"state,omitempty"`
	PostalCode   string `db:"postal_code" json:"postalCode,omitempty"`
	Notes        string `db:"notes" json:"notes,omitempty"`
	FeeCents     int64  `db:"fee_cents" json:"feeCents"`
}

// TransactionItem is a line-item snapshot taken from the catalog at
// creation time; later catalog edits never alter historical orders.
type TransactionItem struct {
	ProductID  string `db:"product_id" json:"productId"`
	Name       string `db:"name" json:"name"`
	ImageURL   string `db:"image_url" json:"imageUrl,omitempty"`
	PriceCents int64  `db:"price_cents" json:"priceCents"`
	Quantity   int64  `db:"quantity" json:"quantity"`
}
