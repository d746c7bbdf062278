package reconciliation

import (
	"time"

	"github.com/cotador/backend/internal/domain/reconciliation"
	"github.com/cotador/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RawItemInput is one extracted supplier quotation line, as delivered by the
// external document/AI pipeline
type RawItemInput struct {
	Description           string               `json:"description"`
	PartNumber            string               `json:"part_number"`
	TaxCode               string               `json:"tax_code"`
	Quantity              decimal.Decimal      `json:"quantity"`
	UnitPrice             decimal.Decimal      `json:"unit_price"`
	Currency              valueobject.Currency `json:"currency"`
	ImmediateAvailability bool                 `json:"immediate_availability"`
}

// CreateSessionRequest starts a reconciliation session from an extracted batch
type CreateSessionRequest struct {
	SupplierID   uuid.UUID            `json:"supplier_id"`
	Currency     valueobject.Currency `json:"currency"`
	ExchangeRate decimal.Decimal      `json:"exchange_rate"`
	Items        []RawItemInput       `json:"items"`
}

// EditItemRequest is a partial update of a session item
type EditItemRequest struct {
	Description           *string               `json:"description"`
	PartNumber            *string               `json:"part_number"`
	TaxCode               *string               `json:"tax_code"`
	Quantity              *decimal.Decimal      `json:"quantity"`
	UnitPrice             *decimal.Decimal      `json:"unit_price"`
	Currency              *valueobject.Currency `json:"currency"`
	ImmediateAvailability *bool                 `json:"immediate_availability"`
}

// ItemResponse is the API view of one session item
type ItemResponse struct {
	ID                    uuid.UUID                       `json:"id"`
	Description           string                          `json:"description"`
	PartNumber            string                          `json:"part_number,omitempty"`
	TaxCode               string                          `json:"tax_code,omitempty"`
	Quantity              decimal.Decimal                 `json:"quantity"`
	UnitPrice             decimal.Decimal                 `json:"unit_price"`
	Currency              valueobject.Currency            `json:"currency"`
	ImmediateAvailability bool                            `json:"immediate_availability"`
	Status                reconciliation.ResolutionStatus `json:"status"`
	NeedsReview           bool                            `json:"needs_review"`
	ProductID             *uuid.UUID                      `json:"product_id,omitempty"`
	BestMatch             *reconciliation.MatchCandidate  `json:"best_match,omitempty"`
	Candidates            []reconciliation.MatchCandidate `json:"candidates,omitempty"`
	OriginalValue         decimal.Decimal                 `json:"original_value"`
	ConvertedValueBRL     decimal.Decimal                 `json:"converted_value_brl"`
	DollarCost            decimal.Decimal                 `json:"dollar_cost"`
}

// SessionResponse is the API view of a reconciliation session
type SessionResponse struct {
	ID           uuid.UUID            `json:"id"`
	SupplierID   uuid.UUID            `json:"supplier_id"`
	Currency     valueobject.Currency `json:"currency"`
	ExchangeRate decimal.Decimal      `json:"exchange_rate"`
	Items        []ItemResponse       `json:"items"`
	CanCommit    bool                 `json:"can_commit"`
	PendingCount int                  `json:"pending_count"`
	FlaggedCount int                  `json:"flagged_count"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// ReviewResponse lists every item that still needs operator attention, in one
// pass: the blocking ones and the linked-but-flagged ones
type ReviewResponse struct {
	Pending []ItemResponse `json:"pending"`
	Flagged []ItemResponse `json:"flagged"`
}

// CommitMode selects between appending to the supplier's active quotation and
// creating a new one. The choice belongs to the caller.
type CommitMode string

const (
	CommitModeAppend CommitMode = "append"
	CommitModeCreate CommitMode = "create"
)

// IsValid checks if the commit mode is known
func (m CommitMode) IsValid() bool {
	return m == CommitModeAppend || m == CommitModeCreate
}

// CommitRequest asks the coordinator to persist a committable session
type CommitRequest struct {
	SessionID     uuid.UUID  `json:"session_id"`
	Mode          CommitMode `json:"mode"`
	PaymentTerms  string     `json:"payment_terms"`
	DeliveryTerms string     `json:"delivery_terms"`
	ValidUntil    *time.Time `json:"valid_until"`
	Notes         string     `json:"notes"`
}

// CommitPlanResponse reports whether the append/create decision is needed
type CommitPlanResponse struct {
	SessionID          uuid.UUID           `json:"session_id"`
	SupplierID         uuid.UUID           `json:"supplier_id"`
	CanCommit          bool                `json:"can_commit"`
	PendingItemIDs     []uuid.UUID         `json:"pending_item_ids,omitempty"`
	HasActiveQuotation bool                `json:"has_active_quotation"`
	ActiveQuotation    *ActiveQuotationRef `json:"active_quotation,omitempty"`
}

// ActiveQuotationRef summarizes the supplier's current active quotation
type ActiveQuotationRef struct {
	ID         uuid.UUID       `json:"id"`
	Number     string          `json:"number"`
	ItemCount  int             `json:"item_count"`
	TotalValue decimal.Decimal `json:"total_value"`
}

// CommitResult reports the outcome of a successful commit
type CommitResult struct {
	QuotationID  uuid.UUID       `json:"quotation_id"`
	Number       string          `json:"number"`
	Mode         CommitMode      `json:"mode"`
	ItemsWritten int             `json:"items_written"`
	TotalValue   decimal.Decimal `json:"total_value"`
}

// toItemResponse maps a session item to its API view
func toItemResponse(item *reconciliation.Item) ItemResponse {
	return ItemResponse{
		ID:                    item.ID,
		Description:           item.Raw.Description,
		PartNumber:            item.Raw.PartNumber,
		TaxCode:               item.Raw.TaxCode,
		Quantity:              item.Raw.Quantity,
		UnitPrice:             item.Raw.UnitPrice,
		Currency:              item.Raw.Currency,
		ImmediateAvailability: item.Raw.ImmediateAvailability,
		Status:                item.Status,
		NeedsReview:           item.NeedsReview,
		ProductID:             item.ProductID,
		BestMatch:             item.BestMatch,
		Candidates:            item.Candidates,
		OriginalValue:         item.Amounts.Original,
		ConvertedValueBRL:     item.Amounts.ConvertedBRL,
		DollarCost:            item.Amounts.DollarCost,
	}
}

// toSessionResponse maps a session to its API view
func toSessionResponse(s *reconciliation.Session) SessionResponse {
	items := s.Items()
	resp := SessionResponse{
		ID:           s.ID,
		SupplierID:   s.SupplierID,
		Currency:     s.Currency,
		ExchangeRate: s.ExchangeRate,
		Items:        make([]ItemResponse, 0, len(items)),
		CanCommit:    s.CanCommit(),
		PendingCount: len(s.PendingItems()),
		FlaggedCount: len(s.FlaggedItems()),
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
	for _, item := range items {
		resp.Items = append(resp.Items, toItemResponse(item))
	}
	return resp
}
