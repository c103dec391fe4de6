package repos

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"tienda/internal/domain"
)

var (
	// ErrTransactionNotFound is returned when the target row is gone,
	// including the case where it disappears between the service's
	// existence check and the write.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrInsufficientStock is returned when a conditional decrement
	// matches no row; the whole update is rolled back.
	ErrInsufficientStock = errors.New("insufficient stock")
)

type TransactionRepo struct{ db *sqlx.DB }

func NewTransactionRepo(db *sqlx.DB) *TransactionRepo { return &TransactionRepo{db: db} }

// CustomerData / DeliveryData are the create-time inputs; empty
// optional fields are stored as NULL.
type CustomerData struct {
	FullName string
	Email    string
	Phone    string
}

type DeliveryData struct {
	AddressLine1 string
	City         string
	State        string
	PostalCode   string
	Notes        string
}

type TransactionCreate struct {
	Reference        string
	Status           domain.TransactionStatus
	AmountCents      int64
	BaseFeeCents     int64
	DeliveryFeeCents int64
	CardBrand        string
	CardLast4        string
	PrimaryProductID string
	Customer         CustomerData
	Delivery         DeliveryData
	Items            []domain.TransactionItem
}

// TransactionPatch carries the PATCH semantics: a nil pointer means
// "leave the column alone", an invalid NullString means "set NULL".
type TransactionPatch struct {
	Status       *domain.TransactionStatus
	Provider     *sql.NullString
	ProviderTxID *sql.NullString
	CardBrand    *sql.NullString
	CardLast4    *sql.NullString
}

func (p TransactionPatch) Empty() bool {
	return p.Status == nil && p.Provider == nil && p.ProviderTxID == nil &&
		p.CardBrand == nil && p.CardLast4 == nil
}

type StockAdjustment struct {
	ProductID string
	Quantity  int64
}

type TransactionRecord struct {
	ID        string                   `json:"id"`
	Reference string                   `json:"reference,omitempty"`
	Status    domain.TransactionStatus `json:"status"`
}

type TransactionWithItems struct {
	ID     string
	Status domain.TransactionStatus
	Items  []domain.TransactionItem
}

// TransactionDetail is the denormalized read model for listings and
// the status page.
type TransactionDetail struct {
	ID               string                   `json:"id"`
	Reference        string                   `json:"reference"`
	Status           domain.TransactionStatus `json:"status"`
	AmountCents      int64                    `json:"amountCents"`
	BaseFeeCents     int64                    `json:"baseFeeCents"`
	DeliveryFeeCents int64                    `json:"deliveryFeeCents"`
	Provider         string                   `json:"provider,omitempty"`
	ProviderTxID     string                   `json:"providerTxId,omitempty"`
	CardBrand        string                   `json:"cardBrand,omitempty"`
	CardLast4        string                   `json:"cardLast4,omitempty"`
	CreatedAt        string                   `json:"createdAt"`
	Customer         domain.Customer          `json:"customer"`
	Delivery         domain.Delivery          `json:"delivery"`
	Items            []domain.TransactionItem `json:"items"`
}

// Create persists customer, delivery, transaction header and item
// snapshots as one DB transaction. No stock is touched at creation.
func (r *TransactionRepo) Create(data TransactionCreate) (TransactionRecord, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return TransactionRecord{}, err
	}
	defer func() { _ = tx.Rollback() }()

	customerID := uuid.NewString()
	if _, err := tx.Exec(`
	  INSERT INTO customers(id, full_name, email, phone)
	  VALUES(?, ?, ?, NULLIF(?,''))
	`, customerID, data.Customer.FullName, data.Customer.Email, data.Customer.Phone); err != nil {
		return TransactionRecord{}, err
	}

	deliveryID := uuid.NewString()
	if _, err := tx.Exec(`
	  INSERT INTO deliveries(id, customer_id, address_line1, city, state, postal_code, notes, fee_cents)
	  VALUES(?, ?, ?, ?, NULLIF(?,''), NULLIF(?,''), NULLIF(?,''), ?)
	`, deliveryID, customerID, data.Delivery.AddressLine1, data.Delivery.City,
		data.Delivery.State, data.Delivery.PostalCode, data.Delivery.Notes, data.DeliveryFeeCents); err != nil {
		return TransactionRecord{}, err
	}

	txID := uuid.NewString()
	if _, err := tx.Exec(`
	  INSERT INTO transactions(id, reference, status, product_id, amount_cents, base_fee_cents,
	    card_brand, card_last4, customer_id, delivery_id)
	  VALUES(?, ?, ?, ?, ?, ?, NULLIF(?,''), NULLIF(?,''), ?, ?)
	`, txID, data.Reference, data.Status, data.PrimaryProductID, data.AmountCents,
		data.BaseFeeCents, data.CardBrand, data.CardLast4, customerID, deliveryID); err != nil {
		return TransactionRecord{}, err
	}

	for _, it := range data.Items {
		if _, err := tx.Exec(`
		  INSERT INTO transaction_items(transaction_id, product_id, name, image_url, price_cents, quantity)
		  VALUES(?, ?, ?, NULLIF(?,''), ?, ?)
		`, txID, it.ProductID, it.Name, it.ImageURL, it.PriceCents, it.Quantity); err != nil {
			return TransactionRecord{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return TransactionRecord{}, err
	}
	return TransactionRecord{ID: txID, Reference: data.Reference, Status: data.Status}, nil
}

func (r *TransactionRepo) FindWithItems(id string) (TransactionWithItems, error) {
	var head struct {
		ID     string                   `db:"id"`
		Status domain.TransactionStatus `db:"status"`
	}
	if err := r.db.Get(&head, `SELECT id, status FROM transactions WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TransactionWithItems{}, ErrTransactionNotFound
		}
		return TransactionWithItems{}, err
	}

	items, err := r.itemsFor([]string{id})
	if err != nil {
		return TransactionWithItems{}, err
	}
	return TransactionWithItems{ID: head.ID, Status: head.Status, Items: items[id]}, nil
}

type detailRow struct {
	ID            string                   `db:"id"`
	Reference     string                   `db:"reference"`
	Status        domain.TransactionStatus `db:"status"`
	AmountCents   int64                    `db:"amount_cents"`
	BaseFeeCents  int64                    `db:"base_fee_cents"`
	Provider      string                   `db:"provider"`
	ProviderTxID  string                   `db:"provider_tx_id"`
	CardBrand     string                   `db:"card_brand"`
	CardLast4     string                   `db:"card_last4"`
	CreatedAt     string                   `db:"created_at"`
	CustomerID    string                   `db:"customer_id"`
	FullName      string                   `db:"full_name"`
	Email         string                   `db:"email"`
	Phone         string                   `db:"phone"`
	DeliveryID    string                   `db:"delivery_id"`
	AddressLine1  string                   `db:"address_line1"`
	City          string                   `db:"city"`
	State         string                   `db:"state"`
	PostalCode    string                   `db:"postal_code"`
	Notes         string                   `db:"notes"`
	DeliveryCents int64                    `db:"fee_cents"`
}

const detailQuery = `
  SELECT t.id, t.reference, t.status, t.amount_cents, t.base_fee_cents,
         COALESCE(t.provider,'') AS provider, COALESCE(t.provider_tx_id,'') AS provider_tx_id,
         COALESCE(t.card_brand,'') AS card_brand, COALESCE(t.card_last4,'') AS card_last4,
         t.created_at,
         c.id AS customer_id, c.full_name, c.email, COALESCE(c.phone,'') AS phone,
         d.id AS delivery_id, d.address_line1, d.city, COALESCE(d.state,'') AS state,
         COALESCE(d.postal_code,'') AS postal_code, COALESCE(d.notes,'') AS notes, d.fee_cents
  FROM transactions t
  JOIN customers  c ON c.id = t.customer_id
  JOIN deliveries d ON d.id = t.delivery_id`

func (r *TransactionRepo) detailFromRow(row detailRow, items []domain.TransactionItem) TransactionDetail {
	if items == nil {
		items = []domain.TransactionItem{}
	}
	return TransactionDetail{
		ID:               row.ID,
		Reference:        row.Reference,
		Status:           row.Status,
		AmountCents:      row.AmountCents,
		BaseFeeCents:     row.BaseFeeCents,
		DeliveryFeeCents: row.DeliveryCents,
		Provider:         row.Provider,
		ProviderTxID:     row.ProviderTxID,
		CardBrand:        row.CardBrand,
		CardLast4:        row.CardLast4,
		CreatedAt:        row.CreatedAt,
		Customer: domain.Customer{
			ID:       row.CustomerID,
			FullName: row.FullName,
			Email:    row.Email,
			Phone:    row.Phone,
		},
		Delivery: domain.Delivery{
			ID:           row.DeliveryID,
			CustomerID:   row.CustomerID,
			AddressLine1: row.AddressLine1,
			City:         row.City,
			State:        row.State,
			PostalCode:   row.PostalCode,
			Notes:        row.Notes,
			FeeCents:     row.DeliveryCents,
		},
		Items: items,
	}
}

// List returns every transaction, newest first, with customer,
// delivery and item data denormalized. No paging; full scan.
func (r *TransactionRepo) List() ([]TransactionDetail, error) {
	var rows []detailRow
	if err := r.db.Select(&rows, detailQuery+`
	  ORDER BY datetime(t.created_at) DESC, t.id
	`); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []TransactionDetail{}, nil
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	items, err := r.itemsFor(ids)
	if err != nil {
		return nil, err
	}

	out := make([]TransactionDetail, 0, len(rows))
	for _, row := range rows {
		out = append(out, r.detailFromRow(row, items[row.ID]))
	}
	return out, nil
}

func (r *TransactionRepo) FindByReference(reference string) (TransactionDetail, error) {
	var row detailRow
	if err := r.db.Get(&row, detailQuery+`
	  WHERE t.reference = ?
	`, reference); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TransactionDetail{}, ErrTransactionNotFound
		}
		return TransactionDetail{}, err
	}
	items, err := r.itemsFor([]string{row.ID})
	if err != nil {
		return TransactionDetail{}, err
	}
	return r.detailFromRow(row, items[row.ID]), nil
}

func (r *TransactionRepo) itemsFor(txIDs []string) (map[string][]domain.TransactionItem, error) {
	query, args, err := sqlx.In(`
	  SELECT transaction_id, product_id, name, COALESCE(image_url,'') AS image_url, price_cents, quantity
	  FROM transaction_items
	  WHERE transaction_id IN (?)
	  ORDER BY transaction_id, product_id
	`, txIDs)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		TransactionID string `db:"transaction_id"`
		domain.TransactionItem
	}
	if err := r.db.Select(&rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	out := make(map[string][]domain.TransactionItem, len(txIDs))
	for _, row := range rows {
		out[row.TransactionID] = append(out[row.TransactionID], row.TransactionItem)
	}
	return out, nil
}

func buildPatch(p TransactionPatch) (string, []any) {
	sets := []string{}
	args := []any{}
	if p.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *p.Status)
	}
	if p.Provider != nil {
		sets = append(sets, "provider = ?")
		args = append(args, *p.Provider)
	}
	if p.ProviderTxID != nil {
		sets = append(sets, "provider_tx_id = ?")
		args = append(args, *p.ProviderTxID)
	}
	if p.CardBrand != nil {
		sets = append(sets, "card_brand = ?")
		args = append(args, *p.CardBrand)
	}
	if p.CardLast4 != nil {
		sets = append(sets, "card_last4 = ?")
		args = append(args, *p.CardLast4)
	}
	return strings.Join(sets, ", "), args
}

func applyPatch(tx sqlx.Ext, id string, p TransactionPatch) (TransactionRecord, error) {
	set, args := buildPatch(p)
	args = append(args, id)
	res, err := tx.Exec(`UPDATE transactions SET `+set+` WHERE id = ?`, args...)
	if err != nil {
		return TransactionRecord{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return TransactionRecord{}, ErrTransactionNotFound
	}

	var out TransactionRecord
	if err := sqlx.Get(tx, &out, `SELECT id, reference, status FROM transactions WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TransactionRecord{}, ErrTransactionNotFound
		}
		return TransactionRecord{}, err
	}
	return out, nil
}

// Update applies the field patch alone (non-approval transitions).
func (r *TransactionRepo) Update(id string, patch TransactionPatch) (TransactionRecord, error) {
	return applyPatch(r.db, id, patch)
}

// UpdateAndDecrementStock applies the field patch and decrements each
// affected product's stock in the same DB transaction. Every decrement
// is conditional on remaining stock; a miss rolls back the whole unit,
// so two racing approvals cannot both pass the check.
func (r *TransactionRepo) UpdateAndDecrementStock(id string, patch TransactionPatch, adjustments []StockAdjustment) (TransactionRecord, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return TransactionRecord{}, err
	}
	defer func() { _ = tx.Rollback() }()

	rec, err := applyPatch(tx, id, patch)
	if err != nil {
		return TransactionRecord{}, err
	}

	for _, adj := range adjustments {
		res, err := tx.Exec(`
		  UPDATE products
		  SET stock = stock - ?
		  WHERE id = ? AND stock >= ?
		`, adj.Quantity, adj.ProductID, adj.Quantity)
		if err != nil {
			return TransactionRecord{}, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return TransactionRecord{}, ErrInsufficientStock
		}
	}

	if err := tx.Commit(); err != nil {
		return TransactionRecord{}, err
	}
	return rec, nil
}
