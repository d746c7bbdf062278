package catalog

import (
	"context"
	"strings"

	"github.com/cotador/backend/internal/domain/catalog"
	"github.com/cotador/backend/internal/domain/shared"
	"github.com/cotador/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// defaultSearchLimit caps manual product search results
const defaultSearchLimit = 20

// ProductResponse is the API view of a catalog product
type ProductResponse struct {
	ID                uuid.UUID            `json:"id"`
	Code              string               `json:"code"`
	Name              string               `json:"name"`
	Description       string               `json:"description,omitempty"`
	PartNumber        string               `json:"part_number,omitempty"`
	TaxCode           string               `json:"tax_code,omitempty"`
	AverageCost       decimal.Decimal      `json:"average_cost"`
	PreferredCurrency valueobject.Currency `json:"preferred_currency"`
	Status            string               `json:"status"`
}

// ProductService exposes catalog reads for the reconciliation UI: the manual
// search box and product detail lookups. The catalog itself is maintained
// elsewhere; nothing here writes.
type ProductService struct {
	productRepo catalog.ProductRepository
}

// NewProductService creates a new ProductService
func NewProductService(productRepo catalog.ProductRepository) *ProductService {
	return &ProductService{productRepo: productRepo}
}

// GetByID returns a single product
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toProductResponse(*product)
	return &resp, nil
}

// Search finds active products by name, code or part number. An empty term is
// rejected rather than returning the whole catalog.
func (s *ProductService) Search(ctx context.Context, term string, limit int) ([]ProductResponse, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, shared.NewDomainError("INVALID_SEARCH", "Search term cannot be empty")
	}
	if limit <= 0 || limit > defaultSearchLimit {
		limit = defaultSearchLimit
	}

	products, err := s.productRepo.Search(ctx, term, limit)
	if err != nil {
		return nil, err
	}
	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	return out, nil
}

func toProductResponse(p catalog.Product) ProductResponse {
	return ProductResponse{
		ID:                p.ID,
		Code:              p.Code,
		Name:              p.Name,
		Description:       p.Description,
		PartNumber:        p.PartNumber,
		TaxCode:           p.TaxCode,
		AverageCost:       p.AverageCost,
		PreferredCurrency: p.PreferredCurrency,
		Status:            string(p.Status),
	}
}
