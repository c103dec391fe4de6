package repos

import (
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"tienda/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `
  id, name, COALESCE(description,'') AS description, COALESCE(image_url,'') AS image_url,
  price_cents, stock, created_at`

func (r *ProductRepo) List() ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.Select(&out, `
	  SELECT `+productCols+`
	  FROM products
	  ORDER BY datetime(created_at) DESC, id
	`)
	return out, err
}

func (r *ProductRepo) Get(id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.Get(&p, `
	  SELECT `+productCols+`
	  FROM products
	  WHERE id = ?
	`, id)
	return p, err
}

// FindByIDs returns the authoritative snapshots (name, price, image,
// stock) for the given product ids. Missing ids are simply absent from
// the result; callers decide whether that is an error.
func (r *ProductRepo) FindByIDs(ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`
	  SELECT `+productCols+`
	  FROM products
	  WHERE id IN (?)
	`, ids)
	if err != nil {
		return nil, err
	}
	var out []domain.Product
	err = r.db.Select(&out, r.db.Rebind(query), args...)
	return out, err
}

func (r *ProductRepo) Create(name, description, imageURL string, priceCents, stock int64) (domain.Product, error) {
	id := uuid.NewString()
	_, err := r.db.Exec(`
	  INSERT INTO products(id, name, description, image_url, price_cents, stock)
	  VALUES(?, ?, NULLIF(?,''), NULLIF(?,''), ?, ?)
	`, id, name, description, imageURL, priceCents, stock)
	if err != nil {
		return domain.Product{}, err
	}
	return r.Get(id)
}
