package services

import (
	"strings"

	"tienda/internal/domain"
)

// ProductStore is the catalog port; *repos.ProductRepo satisfies it.
type ProductStore interface {
	List() ([]domain.Product, error)
	Get(id string) (domain.Product, error)
	FindByIDs(ids []string) ([]domain.Product, error)
	Create(name, description, imageURL string, priceCents, stock int64) (domain.Product, error)
}

type CatalogService struct {
	Products ProductStore
}

func NewCatalogService(products ProductStore) *CatalogService {
	return &CatalogService{Products: products}
}

func (s *CatalogService) ListProducts() ([]domain.Product, error) {
	return s.Products.List()
}

func (s *CatalogService) GetProduct(id string) (domain.Product, error) {
	return s.Products.Get(id)
}

type CreateProductInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
	PriceCents  int64  `json:"priceCents"`
	Stock       int64  `json:"stock"`
}

func (s *CatalogService) CreateProduct(in CreateProductInput) (domain.Product, error) {
	details := []string{}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		details = append(details, "name is required")
	}
	if in.PriceCents <= 0 {
		details = append(details, "priceCents must be > 0")
	}
	if in.Stock < 0 {
		details = append(details, "stock must be >= 0")
	}
	if len(details) > 0 {
		return domain.Product{}, &InvalidPayloadError{Details: details}
	}
	return s.Products.Create(name, strings.TrimSpace(in.Description), strings.TrimSpace(in.ImageURL), in.PriceCents, in.Stock)
}
