package quotation

import (
	"time"

	"github.com/cotador/backend/internal/domain/quotation"
	"github.com/cotador/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemResponse is the API view of a quotation item
type ItemResponse struct {
	ID                    uuid.UUID            `json:"id"`
	ProductID             *uuid.UUID           `json:"product_id,omitempty"`
	Description           string               `json:"description"`
	PartNumber            string               `json:"part_number,omitempty"`
	TaxCode               string               `json:"tax_code,omitempty"`
	Quantity              decimal.Decimal      `json:"quantity"`
	UnitPrice             decimal.Decimal      `json:"unit_price"`
	TotalPrice            decimal.Decimal      `json:"total_price"`
	Currency              valueobject.Currency `json:"currency"`
	OriginalValue         decimal.Decimal      `json:"original_value"`
	ConvertedValueBRL     decimal.Decimal      `json:"converted_value_brl"`
	DollarCost            decimal.Decimal      `json:"dollar_cost"`
	ImmediateAvailability bool                 `json:"immediate_availability"`
	Status                quotation.ItemStatus `json:"status"`
	Notes                 string               `json:"notes,omitempty"`
}

// QuotationResponse is the API view of a quotation
type QuotationResponse struct {
	ID            uuid.UUID            `json:"id"`
	Number        string               `json:"number"`
	SupplierID    uuid.UUID            `json:"supplier_id"`
	SupplierName  string               `json:"supplier_name"`
	Status        quotation.Status     `json:"status"`
	Currency      valueobject.Currency `json:"currency"`
	ExchangeRate  *decimal.Decimal     `json:"exchange_rate,omitempty"`
	PaymentTerms  string               `json:"payment_terms,omitempty"`
	DeliveryTerms string               `json:"delivery_terms,omitempty"`
	QuotationDate time.Time            `json:"quotation_date"`
	ValidUntil    *time.Time           `json:"valid_until,omitempty"`
	Notes         string               `json:"notes,omitempty"`
	TotalValue    decimal.Decimal      `json:"total_value"`
	ItemCount     int                  `json:"item_count"`
	Items         []ItemResponse       `json:"items,omitempty"`
	ClosedAt      *time.Time           `json:"closed_at,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// ListItem is the compact view used by the quotation list
type ListItem struct {
	ID            uuid.UUID            `json:"id"`
	Number        string               `json:"number"`
	SupplierID    uuid.UUID            `json:"supplier_id"`
	SupplierName  string               `json:"supplier_name"`
	Status        quotation.Status     `json:"status"`
	Currency      valueobject.Currency `json:"currency"`
	QuotationDate time.Time            `json:"quotation_date"`
	TotalValue    decimal.Decimal      `json:"total_value"`
	ItemCount     int                  `json:"item_count"`
}

// AddManualItemRequest adds a hand-entered line to an active quotation.
// A product link is optional here; unlinked manual items stay pendente.
type AddManualItemRequest struct {
	ProductID             *uuid.UUID           `json:"product_id"`
	Description           string               `json:"description"`
	PartNumber            string               `json:"part_number"`
	TaxCode               string               `json:"tax_code"`
	Quantity              decimal.Decimal      `json:"quantity"`
	UnitPrice             decimal.Decimal      `json:"unit_price"`
	Currency              valueobject.Currency `json:"currency"`
	ImmediateAvailability bool                 `json:"immediate_availability"`
	Notes                 string               `json:"notes"`
}

// UpdateTermsRequest updates header fields of an active quotation
type UpdateTermsRequest struct {
	PaymentTerms  *string    `json:"payment_terms"`
	DeliveryTerms *string    `json:"delivery_terms"`
	ValidUntil    *time.Time `json:"valid_until"`
	Notes         *string    `json:"notes"`
}

func toItemResponse(item quotation.Item) ItemResponse {
	return ItemResponse{
		ID:                    item.ID,
		ProductID:             item.ProductID,
		Description:           item.Description,
		PartNumber:            item.PartNumber,
		TaxCode:               item.TaxCode,
		Quantity:              item.Quantity,
		UnitPrice:             item.UnitPrice,
		TotalPrice:            item.TotalPrice,
		Currency:              item.Currency,
		OriginalValue:         item.OriginalValue,
		ConvertedValueBRL:     item.ConvertedValueBRL,
		DollarCost:            item.DollarCost,
		ImmediateAvailability: item.ImmediateAvailability,
		Status:                item.Status,
		Notes:                 item.Notes,
	}
}

func toQuotationResponse(q *quotation.Quotation) QuotationResponse {
	resp := QuotationResponse{
		ID:            q.ID,
		Number:        q.Number,
		SupplierID:    q.SupplierID,
		SupplierName:  q.SupplierName,
		Status:        q.Status,
		Currency:      q.Currency,
		ExchangeRate:  q.ExchangeRate,
		PaymentTerms:  q.PaymentTerms,
		DeliveryTerms: q.DeliveryTerms,
		QuotationDate: q.QuotationDate,
		ValidUntil:    q.ValidUntil,
		Notes:         q.Notes,
		TotalValue:    q.TotalValue,
		ItemCount:     q.ItemCount,
		ClosedAt:      q.ClosedAt,
		CreatedAt:     q.CreatedAt,
		UpdatedAt:     q.UpdatedAt,
	}
	for _, item := range q.Items {
		resp.Items = append(resp.Items, toItemResponse(item))
	}
	return resp
}

func toListItem(q quotation.Quotation) ListItem {
	return ListItem{
		ID:            q.ID,
		Number:        q.Number,
		SupplierID:    q.SupplierID,
		SupplierName:  q.SupplierName,
		Status:        q.Status,
		Currency:      q.Currency,
		QuotationDate: q.QuotationDate,
		TotalValue:    q.TotalValue,
		ItemCount:     q.ItemCount,
	}
}
