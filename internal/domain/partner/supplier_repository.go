package partner

import (
	"context"

	"github.com/google/uuid"
)

// SupplierRepository defines read access to suppliers
type SupplierRepository interface {
	// FindByID finds a supplier by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Supplier, error)

	// FindAll returns all suppliers
	FindAll(ctx context.Context) ([]Supplier, error)
}
