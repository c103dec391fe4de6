package services

import (
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"tienda/internal/domain"
	"tienda/internal/repos"
	"tienda/internal/validate"
)

// TransactionStore is the persistence port for the workflow engine;
// *repos.TransactionRepo satisfies it. The engine never touches the
// DB directly, so it can run against any store honoring the atomic
// update+decrement contract.
type TransactionStore interface {
	Create(data repos.TransactionCreate) (repos.TransactionRecord, error)
	List() ([]repos.TransactionDetail, error)
	FindWithItems(id string) (repos.TransactionWithItems, error)
	FindByReference(reference string) (repos.TransactionDetail, error)
	Update(id string, patch repos.TransactionPatch) (repos.TransactionRecord, error)
	UpdateAndDecrementStock(id string, patch repos.TransactionPatch, adjustments []repos.StockAdjustment) (repos.TransactionRecord, error)
}

type TransactionService struct {
	Transactions TransactionStore
	Products     ProductStore
}

func NewTransactionService(transactions TransactionStore, products ProductStore) *TransactionService {
	return &TransactionService{Transactions: transactions, Products: products}
}

// ---------- Create ----------

type CreateItemInput struct {
	ProductID  string `json:"productId"`
	Name       string `json:"name"`
	PriceCents int64  `json:"priceCents"`
	Quantity   int64  `json:"quantity"`
	ImageURL   string `json:"imageUrl"`
}

type CustomerInput struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

type DeliveryInput struct {
	AddressLine1 string `json:"addressLine1"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postalCode"`
	Notes        string `json:"notes"`
}

type CreateTransactionInput struct {
	Items            []CreateItemInput `json:"items"`
	AmountCents      int64             `json:"amountCents"`
	BaseFeeCents     int64             `json:"baseFeeCents"`
	DeliveryFeeCents int64             `json:"deliveryFeeCents"`
	Customer         CustomerInput     `json:"customer"`
	Delivery         DeliveryInput     `json:"delivery"`
	CardBrand        string            `json:"cardBrand"`
	CardLast4        string            `json:"cardLast4"`
}

// Create validates the cart against live catalog stock and price,
// recomputes the total server-side, and persists the transaction as
// PENDING in one atomic unit. Stock is not touched here.
func (s *TransactionService) Create(in CreateTransactionInput) (repos.TransactionRecord, error) {
	normalized, err := validateCreatePayload(in)
	if err != nil {
		return repos.TransactionRecord{}, err
	}

	items := aggregateItems(normalized.Items)
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}

	products, err := s.Products.FindByIDs(ids)
	if err != nil {
		return repos.TransactionRecord{}, err
	}
	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	var missing []string
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return repos.TransactionRecord{}, &ProductNotFoundError{ProductIDs: missing}
	}

	var short []StockShortage
	for _, it := range items {
		if p := byID[it.ProductID]; p.Stock < it.Quantity {
			short = append(short, StockShortage{ProductID: it.ProductID, Requested: it.Quantity, Available: p.Stock})
		}
	}
	if len(short) > 0 {
		return repos.TransactionRecord{}, &InsufficientStockError{Items: short}
	}

	// The expected total comes from live catalog prices, never the
	// client-submitted line prices.
	expected := normalized.BaseFeeCents + normalized.DeliveryFeeCents
	for _, it := range items {
		expected += byID[it.ProductID].PriceCents * it.Quantity
	}
	if expected != normalized.AmountCents {
		return repos.TransactionRecord{}, &AmountMismatchError{Expected: expected, Actual: normalized.AmountCents}
	}

	reference, err := newReference()
	if err != nil {
		return repos.TransactionRecord{}, err
	}

	snapshots := make([]domain.TransactionItem, 0, len(items))
	for _, it := range items {
		p := byID[it.ProductID]
		imageURL := p.ImageURL
		if imageURL == "" {
			imageURL = it.ImageURL
		}
		snapshots = append(snapshots, domain.TransactionItem{
			ProductID:  p.ID,
			Name:       p.Name,
			ImageURL:   imageURL,
			PriceCents: p.PriceCents,
			Quantity:   it.Quantity,
		})
	}

	return s.Transactions.Create(repos.TransactionCreate{
		Reference:        reference,
		Status:           domain.StatusPending,
		AmountCents:      normalized.AmountCents,
		BaseFeeCents:     normalized.BaseFeeCents,
		DeliveryFeeCents: normalized.DeliveryFeeCents,
		CardBrand:        normalized.CardBrand,
		CardLast4:        normalized.CardLast4,
		PrimaryProductID: items[0].ProductID,
		Customer: repos.CustomerData{
			FullName: normalized.Customer.FullName,
			Email:    normalized.Customer.Email,
			Phone:    normalized.Customer.Phone,
		},
		Delivery: repos.DeliveryData{
			AddressLine1: normalized.Delivery.AddressLine1,
			City:         normalized.Delivery.City,
			State:        normalized.Delivery.State,
			PostalCode:   normalized.Delivery.PostalCode,
			Notes:        normalized.Delivery.Notes,
		},
		Items: snapshots,
	})
}

func validateCreatePayload(in CreateTransactionInput) (CreateTransactionInput, error) {
	details := []string{}

	if len(in.Items) == 0 {
		details = append(details, "items must include at least one item")
	}
	items := make([]CreateItemInput, 0, len(in.Items))
	for i, raw := range in.Items {
		it := CreateItemInput{
			ProductID:  strings.TrimSpace(raw.ProductID),
			Name:       strings.TrimSpace(raw.Name),
			PriceCents: raw.PriceCents,
			Quantity:   raw.Quantity,
			ImageURL:   strings.TrimSpace(raw.ImageURL),
		}
		if it.ProductID == "" {
			details = append(details, fmt.Sprintf("items[%d].productId is required", i))
		}
		if it.Name == "" {
			details = append(details, fmt.Sprintf("items[%d].name is required", i))
		}
		if it.PriceCents <= 0 {
			details = append(details, fmt.Sprintf("items[%d].priceCents must be > 0", i))
		}
		if it.Quantity <= 0 {
			details = append(details, fmt.Sprintf("items[%d].quantity must be > 0", i))
		}
		items = append(items, it)
	}

	if in.AmountCents <= 0 {
		details = append(details, "amountCents must be > 0")
	}
	if in.BaseFeeCents < 0 {
		details = append(details, "baseFeeCents must be >= 0")
	}
	if in.DeliveryFeeCents < 0 {
		details = append(details, "deliveryFeeCents must be >= 0")
	}

	fullName := strings.TrimSpace(in.Customer.FullName)
	if fullName == "" {
		details = append(details, "customer.fullName is required")
	}
	email, ok := validate.Email(in.Customer.Email)
	if !ok {
		details = append(details, "customer.email is invalid")
	}

	addressLine1 := strings.TrimSpace(in.Delivery.AddressLine1)
	if addressLine1 == "" {
		details = append(details, "delivery.addressLine1 is required")
	}
	city := strings.TrimSpace(in.Delivery.City)
	if city == "" {
		details = append(details, "delivery.city is required")
	}

	if len(details) > 0 {
		return CreateTransactionInput{}, &InvalidPayloadError{Details: details}
	}

	return CreateTransactionInput{
		Items:            items,
		AmountCents:      in.AmountCents,
		BaseFeeCents:     in.BaseFeeCents,
		DeliveryFeeCents: in.DeliveryFeeCents,
		Customer: CustomerInput{
			FullName: fullName,
			Email:    email,
			Phone:    strings.TrimSpace(in.Customer.Phone),
		},
		Delivery: DeliveryInput{
			AddressLine1: addressLine1,
			City:         city,
			State:        strings.TrimSpace(in.Delivery.State),
			PostalCode:   strings.TrimSpace(in.Delivery.PostalCode),
			Notes:        strings.TrimSpace(in.Delivery.Notes),
		},
		CardBrand: strings.TrimSpace(in.CardBrand),
		CardLast4: strings.TrimSpace(in.CardLast4),
	}, nil
}

// aggregateItems merges duplicate productIds, summing quantities. The
// first occurrence keeps its position, so items[0] stays the primary
// product for reporting.
func aggregateItems(items []CreateItemInput) []CreateItemInput {
	index := make(map[string]int, len(items))
	out := make([]CreateItemInput, 0, len(items))
	for _, it := range items {
		if i, ok := index[it.ProductID]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		index[it.ProductID] = len(out)
		out = append(out, it)
	}
	return out
}

// newReference generates the human-facing order code: REF- plus six
// uppercase hex characters from a cryptographically random source.
func newReference() (string, error) {
	var b [3]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return fmt.Sprintf("REF-%X", b[:]), nil
}

// ---------- Update ----------

type UpdateTransactionInput struct {
	Status       *string `json:"status"`
	Provider     *string `json:"provider"`
	ProviderTxID *string `json:"providerTxId"`
	CardBrand    *string `json:"cardBrand"`
	CardLast4    *string `json:"cardLast4"`
}

// Update applies a partial update. Stock is decremented exactly once,
// on the transition into APPROVED from any other status; re-approving
// an already-approved transaction is a plain field update.
func (s *TransactionService) Update(transactionID string, in UpdateTransactionInput) (repos.TransactionRecord, error) {
	patch, err := normalizeUpdatePayload(in)
	if err != nil {
		return repos.TransactionRecord{}, err
	}
	if patch.Empty() {
		return repos.TransactionRecord{}, ErrNothingToUpdate
	}

	existing, err := s.Transactions.FindWithItems(transactionID)
	if err != nil {
		if errors.Is(err, repos.ErrTransactionNotFound) {
			return repos.TransactionRecord{}, &TransactionNotFoundError{TransactionID: transactionID}
		}
		return repos.TransactionRecord{}, err
	}

	approval := patch.Status != nil &&
		*patch.Status == domain.StatusApproved &&
		existing.Status != domain.StatusApproved

	if approval && len(existing.Items) > 0 {
		adjustments := aggregateAdjustments(existing.Items)

		short, err := s.shortagesFor(adjustments)
		if err != nil {
			return repos.TransactionRecord{}, err
		}
		if len(short) > 0 {
			return repos.TransactionRecord{}, &InsufficientStockError{Items: short}
		}

		rec, err := s.Transactions.UpdateAndDecrementStock(transactionID, patch, adjustments)
		switch {
		case errors.Is(err, repos.ErrTransactionNotFound):
			return repos.TransactionRecord{}, &TransactionNotFoundError{TransactionID: transactionID}
		case errors.Is(err, repos.ErrInsufficientStock):
			// Lost a race with a concurrent approval; report the
			// shortage as the store sees it now.
			short, serr := s.shortagesFor(adjustments)
			if serr != nil {
				return repos.TransactionRecord{}, serr
			}
			return repos.TransactionRecord{}, &InsufficientStockError{Items: short}
		case err != nil:
			return repos.TransactionRecord{}, err
		}
		return rec, nil
	}

	rec, err := s.Transactions.Update(transactionID, patch)
	if err != nil {
		if errors.Is(err, repos.ErrTransactionNotFound) {
			return repos.TransactionRecord{}, &TransactionNotFoundError{TransactionID: transactionID}
		}
		return repos.TransactionRecord{}, err
	}
	return rec, nil
}

func normalizeUpdatePayload(in UpdateTransactionInput) (repos.TransactionPatch, error) {
	patch := repos.TransactionPatch{
		Provider:     normalizeField(in.Provider),
		ProviderTxID: normalizeField(in.ProviderTxID),
		CardBrand:    normalizeField(in.CardBrand),
		CardLast4:    normalizeField(in.CardLast4),
	}

	if in.Status != nil {
		raw := strings.TrimSpace(*in.Status)
		if raw != "" {
			st, ok := domain.ParseStatus(raw)
			if !ok {
				return repos.TransactionPatch{}, &InvalidStatusError{Status: string(st)}
			}
			patch.Status = &st
		}
	}
	return patch, nil
}

// normalizeField maps an omitted field to "no change" and a submitted
// empty string to NULL.
func normalizeField(v *string) *sql.NullString {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	return &sql.NullString{String: trimmed, Valid: trimmed != ""}
}

func aggregateAdjustments(items []domain.TransactionItem) []repos.StockAdjustment {
	index := make(map[string]int, len(items))
	out := make([]repos.StockAdjustment, 0, len(items))
	for _, it := range items {
		if i, ok := index[it.ProductID]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		index[it.ProductID] = len(out)
		out = append(out, repos.StockAdjustment{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return out
}

// shortagesFor compares requested quantities to live stock. A product
// missing from the catalog counts as available 0.
func (s *TransactionService) shortagesFor(adjustments []repos.StockAdjustment) ([]StockShortage, error) {
	ids := make([]string, 0, len(adjustments))
	for _, adj := range adjustments {
		ids = append(ids, adj.ProductID)
	}
	products, err := s.Products.FindByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	var short []StockShortage
	for _, adj := range adjustments {
		p, ok := byID[adj.ProductID]
		if !ok {
			short = append(short, StockShortage{ProductID: adj.ProductID, Requested: adj.Quantity, Available: 0})
			continue
		}
		if p.Stock < adj.Quantity {
			short = append(short, StockShortage{ProductID: adj.ProductID, Requested: adj.Quantity, Available: p.Stock})
		}
	}
	return short, nil
}

// ---------- Reads ----------

func (s *TransactionService) List() ([]repos.TransactionDetail, error) {
	return s.Transactions.List()
}

func (s *TransactionService) GetByReference(reference string) (repos.TransactionDetail, error) {
	return s.Transactions.FindByReference(reference)
}
