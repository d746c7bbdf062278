package catalog

import (
	"strings"

	"github.com/cotador/backend/internal/domain/shared"
	"github.com/cotador/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductStatus represents the status of a product
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

// IsValid checks if the status is a valid ProductStatus
func (s ProductStatus) IsValid() bool {
	return s == ProductStatusActive || s == ProductStatusInactive
}

// Product represents a product/SKU in the catalog.
// The reconciliation engine only reads products; catalog maintenance lives in a
// separate back-office flow.
type Product struct {
	shared.BaseAggregateRoot
	Code              string               `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name              string               `gorm:"type:varchar(200);not null"`
	Description       string               `gorm:"type:text"`
	PartNumber        string               `gorm:"type:varchar(100);index"` // Manufacturer part number
	TaxCode           string               `gorm:"type:varchar(20);index"`  // NCM fiscal classification
	AverageCost       decimal.Decimal      `gorm:"type:decimal(18,4);not null;default:0"`
	PreferredCurrency valueobject.Currency `gorm:"type:varchar(3);not null;default:'BRL'"`
	BrandID           *uuid.UUID           `gorm:"type:uuid;index"`
	CategoryID        *uuid.UUID           `gorm:"type:uuid;index"`
	Status            ProductStatus        `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new catalog product
func NewProduct(code, name string) (*Product, error) {
	if strings.TrimSpace(code) == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Product code cannot be empty")
	}
	if len(code) > 50 {
		return nil, shared.NewDomainError("INVALID_CODE", "Product code cannot exceed 50 characters")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(strings.TrimSpace(code)),
		Name:              strings.TrimSpace(name),
		AverageCost:       decimal.Zero,
		PreferredCurrency: valueobject.DefaultCurrency,
		Status:            ProductStatusActive,
	}, nil
}

// SetPartNumber sets the manufacturer part number
func (p *Product) SetPartNumber(partNumber string) {
	p.PartNumber = strings.TrimSpace(partNumber)
}

// SetTaxCode sets the NCM fiscal classification code
func (p *Product) SetTaxCode(taxCode string) {
	p.TaxCode = strings.TrimSpace(taxCode)
}

// SetAverageCost updates the average cost
func (p *Product) SetAverageCost(cost decimal.Decimal) error {
	if cost.IsNegative() {
		return shared.NewDomainError("INVALID_COST", "Average cost cannot be negative")
	}
	p.AverageCost = cost
	return nil
}

// SetPreferredCurrency sets the preferred purchase currency
func (p *Product) SetPreferredCurrency(currency valueobject.Currency) error {
	if !currency.IsValid() {
		return shared.NewDomainError("INVALID_CURRENCY", "Unsupported currency")
	}
	p.PreferredCurrency = currency
	return nil
}

// IsActive returns true if the product is active
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive
}

// HasPartNumber returns true if a manufacturer part number is set
func (p *Product) HasPartNumber() bool {
	return p.PartNumber != ""
}

// MatchesPartNumber reports whether the given part number equals the product's,
// ignoring case and surrounding whitespace.
func (p *Product) MatchesPartNumber(partNumber string) bool {
	if p.PartNumber == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(partNumber), p.PartNumber)
}
