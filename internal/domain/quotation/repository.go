package quotation

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repository defines persistence for quotations and their items.
//
// CreateWithItems and AppendItems are transactional: either the whole write
// lands or none of it does. Implementations must serialize the
// check-then-act around the one-active-quotation-per-supplier invariant at the
// database level (partial unique index for create, row lock for append); the
// application-level existence check is advisory only.
type Repository interface {
	// FindByID finds a quotation with its items
	FindByID(ctx context.Context, id uuid.UUID) (*Quotation, error)

	// FindByNumber finds a quotation by its human-readable number
	FindByNumber(ctx context.Context, number string) (*Quotation, error)

	// FindActiveBySupplier returns the supplier's active quotation, or
	// shared.ErrNotFound when the supplier has none
	FindActiveBySupplier(ctx context.Context, supplierID uuid.UUID) (*Quotation, error)

	// FindAll returns all quotations, newest first
	FindAll(ctx context.Context) ([]Quotation, error)

	// CreateWithItems inserts the header and all items in one transaction.
	// Returns shared.ErrConcurrencyConflict if another active quotation for
	// the same supplier already exists (partial unique index violation).
	CreateWithItems(ctx context.Context, q *Quotation) error

	// AppendItems appends items to an existing active quotation under a row
	// lock, recomputing the stored total and item count in the same
	// transaction. Returns the number of items written and the recomputed
	// quotation total.
	AppendItems(ctx context.Context, quotationID uuid.UUID, items []Item) (int, decimal.Decimal, error)

	// Save persists header mutations (close, terms)
	Save(ctx context.Context, q *Quotation) error

	// GenerateNumber generates the next quotation number for the current year
	// (e.g. COT-2026-00041)
	GenerateNumber(ctx context.Context) (string, error)
}
