package quotation

import (
	"fmt"
	"strings"
	"time"

	"github.com/cotador/backend/internal/domain/shared"
	"github.com/cotador/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle status of a purchase quotation.
// At most one active quotation may exist per supplier at any time; the database
// enforces this with a partial unique index on (supplier_id) where status='active'.
type Status string

const (
	StatusActive Status = "active"
	StatusClosed Status = "closed"
)

// IsValid checks if the status is a valid quotation Status
func (s Status) IsValid() bool {
	return s == StatusActive || s == StatusClosed
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}

// ItemStatus represents the review status of a quotation item
type ItemStatus string

const (
	ItemStatusPendente ItemStatus = "pendente" // manually added, not yet reviewed
	ItemStatusRevisar  ItemStatus = "revisar"  // linked below the high-confidence cutoff
	ItemStatusAprovado ItemStatus = "aprovado" // confirmed link
)

// IsValid checks if the status is a valid ItemStatus
func (s ItemStatus) IsValid() bool {
	switch s {
	case ItemStatusPendente, ItemStatusRevisar, ItemStatusAprovado:
		return true
	}
	return false
}

// Item represents a line item in a purchase quotation
type Item struct {
	ID                    uuid.UUID            `gorm:"type:uuid;primary_key"`
	QuotationID           uuid.UUID            `gorm:"type:uuid;not null;index"`
	ProductID             *uuid.UUID           `gorm:"type:uuid;index"` // nullable only for manually added items
	Description           string               `gorm:"type:varchar(500);not null"`
	PartNumber            string               `gorm:"type:varchar(100)"`
	TaxCode               string               `gorm:"type:varchar(20)"` // NCM
	Quantity              decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	UnitPrice             decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	TotalPrice            decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	Currency              valueobject.Currency `gorm:"type:varchar(3);not null"`
	OriginalValue         decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	ConvertedValueBRL     decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	DollarCost            decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	ImmediateAvailability bool                 `gorm:"not null;default:false"`
	Status                ItemStatus           `gorm:"type:varchar(20);not null;default:'pendente'"`
	Notes                 string               `gorm:"type:varchar(500)"`
	CreatedAt             time.Time            `gorm:"not null"`
	UpdatedAt             time.Time            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Item) TableName() string {
	return "quotation_items"
}

// ItemInput carries the values needed to build a quotation item.
// Monetary values arrive unrounded and are rounded to 2 decimal places here,
// at the persistence boundary.
type ItemInput struct {
	ProductID             *uuid.UUID
	Description           string
	PartNumber            string
	TaxCode               string
	Quantity              decimal.Decimal
	UnitPrice             decimal.Decimal
	Currency              valueobject.Currency
	OriginalValue         decimal.Decimal
	ConvertedValueBRL     decimal.Decimal
	DollarCost            decimal.Decimal
	ImmediateAvailability bool
	Status                ItemStatus
	Notes                 string
}

// NewReconciledItem builds an item from a committed reconciliation batch.
// The product link is mandatory: reconciliation output is never persisted
// unlinked.
func NewReconciledItem(in ItemInput) (*Item, error) {
	if in.ProductID == nil || *in.ProductID == uuid.Nil {
		return nil, shared.NewDomainError("UNLINKED_ITEM", "Reconciled item must reference a catalog product")
	}
	return newItem(in)
}

// NewManualItem builds an item added by hand through the quotation edit flow.
// Manual items may be persisted without a product link; they start as pendente.
func NewManualItem(in ItemInput) (*Item, error) {
	if in.Status == "" {
		in.Status = ItemStatusPendente
	}
	return newItem(in)
}

func newItem(in ItemInput) (*Item, error) {
	if strings.TrimSpace(in.Description) == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Item description cannot be empty")
	}
	if in.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Item quantity must be positive")
	}
	if in.UnitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Item unit price cannot be negative")
	}
	if !in.Currency.IsValid() {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Unsupported item currency")
	}
	if !in.Status.IsValid() {
		return nil, shared.NewDomainError("INVALID_ITEM_STATUS", fmt.Sprintf("Unknown item status %q", in.Status))
	}

	now := time.Now()
	return &Item{
		ID:                    uuid.New(),
		ProductID:             in.ProductID,
		Description:           strings.TrimSpace(in.Description),
		PartNumber:            strings.TrimSpace(in.PartNumber),
		TaxCode:               strings.TrimSpace(in.TaxCode),
		Quantity:              in.Quantity,
		UnitPrice:             in.UnitPrice,
		TotalPrice:            in.ConvertedValueBRL.Mul(in.Quantity).Round(2),
		Currency:              in.Currency,
		OriginalValue:         in.OriginalValue.Round(2),
		ConvertedValueBRL:     in.ConvertedValueBRL.Round(2),
		DollarCost:            in.DollarCost.Round(2),
		ImmediateAvailability: in.ImmediateAvailability,
		Status:                in.Status,
		Notes:                 in.Notes,
		CreatedAt:             now,
		UpdatedAt:             now,
	}, nil
}

// IsLinked returns true if the item references a catalog product
func (i *Item) IsLinked() bool {
	return i.ProductID != nil && *i.ProductID != uuid.Nil
}

// Quotation represents a purchase quotation aggregate root.
// It is created by the reconciliation commit and later mutated by the
// quotation edit flow.
type Quotation struct {
	shared.BaseAggregateRoot
	Number        string               `gorm:"type:varchar(50);not null;uniqueIndex"`
	SupplierID    uuid.UUID            `gorm:"type:uuid;not null;index"`
	SupplierName  string               `gorm:"type:varchar(200);not null"`
	Status        Status               `gorm:"type:varchar(20);not null;default:'active'"`
	Currency      valueobject.Currency `gorm:"type:varchar(3);not null;default:'BRL'"`
	ExchangeRate  *decimal.Decimal     `gorm:"type:decimal(12,6)"` // required iff Currency is USD
	PaymentTerms  string               `gorm:"type:varchar(200)"`
	DeliveryTerms string               `gorm:"type:varchar(200)"`
	QuotationDate time.Time            `gorm:"not null"`
	ValidUntil    *time.Time
	Notes         string          `gorm:"type:text"`
	TotalValue    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	ItemCount     int             `gorm:"not null;default:0"`
	Items         []Item          `gorm:"foreignKey:QuotationID;references:ID"`
	ClosedAt      *time.Time
}

// TableName returns the table name for GORM
func (Quotation) TableName() string {
	return "quotations"
}

// NewQuotation creates a new active quotation for a supplier
func NewQuotation(number string, supplierID uuid.UUID, supplierName string, currency valueobject.Currency, exchangeRate *decimal.Decimal) (*Quotation, error) {
	if strings.TrimSpace(number) == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Quotation number cannot be empty")
	}
	if supplierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SUPPLIER", "Supplier ID cannot be empty")
	}
	if strings.TrimSpace(supplierName) == "" {
		return nil, shared.NewDomainError("INVALID_SUPPLIER_NAME", "Supplier name cannot be empty")
	}
	if !currency.IsValid() {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Unsupported quotation currency")
	}
	if currency == valueobject.USD {
		if exchangeRate == nil || exchangeRate.LessThanOrEqual(decimal.Zero) {
			return nil, shared.NewDomainError("INVALID_EXCHANGE_RATE", "Exchange rate is required for USD quotations and must be positive")
		}
	}

	return &Quotation{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            strings.TrimSpace(number),
		SupplierID:        supplierID,
		SupplierName:      strings.TrimSpace(supplierName),
		Status:            StatusActive,
		Currency:          currency,
		ExchangeRate:      exchangeRate,
		QuotationDate:     time.Now(),
		TotalValue:        decimal.Zero,
		Items:             make([]Item, 0),
	}, nil
}

// SetTerms sets payment and delivery terms
func (q *Quotation) SetTerms(paymentTerms, deliveryTerms string) {
	q.PaymentTerms = strings.TrimSpace(paymentTerms)
	q.DeliveryTerms = strings.TrimSpace(deliveryTerms)
	q.UpdatedAt = time.Now()
}

// SetValidUntil sets the validity date
func (q *Quotation) SetValidUntil(validUntil time.Time) error {
	if validUntil.Before(q.QuotationDate) {
		return shared.NewDomainError("INVALID_VALIDITY", "Validity date cannot precede the quotation date")
	}
	q.ValidUntil = &validUntil
	q.UpdatedAt = time.Now()
	return nil
}

// SetNotes sets free-form notes
func (q *Quotation) SetNotes(notes string) {
	q.Notes = notes
	q.UpdatedAt = time.Now()
}

// IsActive returns true if the quotation is active
func (q *Quotation) IsActive() bool {
	return q.Status == StatusActive
}

// AppendItems adds items to an active quotation and recalculates totals
func (q *Quotation) AppendItems(items []Item) error {
	if !q.IsActive() {
		return shared.NewDomainError("QUOTATION_CLOSED", fmt.Sprintf("Cannot append items to quotation %s in %s status", q.Number, q.Status))
	}
	if len(items) == 0 {
		return shared.NewDomainError("NO_ITEMS", "Items to append cannot be empty")
	}

	for i := range items {
		items[i].QuotationID = q.ID
		q.Items = append(q.Items, items[i])
	}
	q.RecalculateTotals()
	q.UpdatedAt = time.Now()
	q.IncrementVersion()

	return nil
}

// RecalculateTotals recomputes the aggregate total and item count from the
// item list. The total is the sum of item total prices in BRL.
func (q *Quotation) RecalculateTotals() {
	total := decimal.Zero
	for _, item := range q.Items {
		total = total.Add(item.TotalPrice)
	}
	q.TotalValue = total.Round(2)
	q.ItemCount = len(q.Items)
}

// Close closes the quotation, releasing the supplier's active slot
func (q *Quotation) Close() error {
	if q.Status == StatusClosed {
		return shared.NewDomainError("ALREADY_CLOSED", fmt.Sprintf("Quotation %s is already closed", q.Number))
	}

	now := time.Now()
	q.Status = StatusClosed
	q.ClosedAt = &now
	q.UpdatedAt = now
	q.IncrementVersion()

	return nil
}
