package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProductRepository defines read access to the product catalog.
// The reconciliation engine never writes products.
type ProductRepository interface {
	// FindByID finds a product by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByIDs finds products by a set of IDs; missing IDs are simply absent
	// from the result
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)

	// FindActive returns all active products
	FindActive(ctx context.Context) ([]Product, error)

	// Search finds active products whose name, code or part number matches the
	// given term (case-insensitive substring)
	Search(ctx context.Context, term string, limit int) ([]Product, error)
}
