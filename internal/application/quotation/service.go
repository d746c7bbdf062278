package quotation

import (
	"context"
	"errors"

	"github.com/cotador/backend/internal/domain/catalog"
	"github.com/cotador/backend/internal/domain/quotation"
	"github.com/cotador/backend/internal/domain/reconciliation"
	"github.com/cotador/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service handles quotation read and edit operations after the reconciliation
// commit has produced the rows
type Service struct {
	quotationRepo quotation.Repository
	productRepo   catalog.ProductRepository
	logger        *zap.Logger
}

// NewService creates a new quotation service
func NewService(quotationRepo quotation.Repository, productRepo catalog.ProductRepository, logger *zap.Logger) *Service {
	return &Service{
		quotationRepo: quotationRepo,
		productRepo:   productRepo,
		logger:        logger,
	}
}

// List returns all quotations, newest first
func (s *Service) List(ctx context.Context) ([]ListItem, error) {
	quotations, err := s.quotationRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ListItem, 0, len(quotations))
	for _, q := range quotations {
		out = append(out, toListItem(q))
	}
	return out, nil
}

// GetByID returns a quotation with its items
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*QuotationResponse, error) {
	q, err := s.quotationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toQuotationResponse(q)
	return &resp, nil
}

// GetActiveBySupplier returns the supplier's active quotation, if any
func (s *Service) GetActiveBySupplier(ctx context.Context, supplierID uuid.UUID) (*QuotationResponse, error) {
	q, err := s.quotationRepo.FindActiveBySupplier(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	resp := toQuotationResponse(q)
	return &resp, nil
}

// Close closes a quotation, releasing the supplier's active slot
func (s *Service) Close(ctx context.Context, id uuid.UUID) (*QuotationResponse, error) {
	q, err := s.quotationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := q.Close(); err != nil {
		return nil, err
	}
	if err := s.quotationRepo.Save(ctx, q); err != nil {
		return nil, err
	}

	s.logger.Info("quotation closed",
		zap.String("quotation_id", q.ID.String()),
		zap.String("number", q.Number))

	resp := toQuotationResponse(q)
	return &resp, nil
}

// AddManualItem appends a hand-entered line to an active quotation. If a
// product link is given it is verified against the catalog; unlinked items
// are allowed here and stay pendente.
func (s *Service) AddManualItem(ctx context.Context, quotationID uuid.UUID, req AddManualItemRequest) (*QuotationResponse, error) {
	q, err := s.quotationRepo.FindByID(ctx, quotationID)
	if err != nil {
		return nil, err
	}

	if req.ProductID != nil && *req.ProductID != uuid.Nil {
		if _, err := s.productRepo.FindByID(ctx, *req.ProductID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainError("INVALID_PRODUCT", "Product not found")
			}
			return nil, err
		}
	} else {
		req.ProductID = nil
	}

	rate := decimal.Zero
	if q.ExchangeRate != nil {
		rate = *q.ExchangeRate
	}
	amounts := reconciliation.Convert(req.UnitPrice, req.Currency, rate)

	item, err := quotation.NewManualItem(quotation.ItemInput{
		ProductID:             req.ProductID,
		Description:           req.Description,
		PartNumber:            req.PartNumber,
		TaxCode:               req.TaxCode,
		Quantity:              req.Quantity,
		UnitPrice:             req.UnitPrice,
		Currency:              req.Currency,
		OriginalValue:         amounts.Original,
		ConvertedValueBRL:     amounts.ConvertedBRL,
		DollarCost:            amounts.DollarCost,
		ImmediateAvailability: req.ImmediateAvailability,
		Notes:                 req.Notes,
	})
	if err != nil {
		return nil, err
	}

	if _, _, err := s.quotationRepo.AppendItems(ctx, q.ID, []quotation.Item{*item}); err != nil {
		return nil, err
	}

	// re-read so the response carries recomputed totals
	q, err = s.quotationRepo.FindByID(ctx, quotationID)
	if err != nil {
		return nil, err
	}
	resp := toQuotationResponse(q)
	return &resp, nil
}

// UpdateTerms updates header fields of an active quotation
func (s *Service) UpdateTerms(ctx context.Context, id uuid.UUID, req UpdateTermsRequest) (*QuotationResponse, error) {
	q, err := s.quotationRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !q.IsActive() {
		return nil, shared.NewDomainError("QUOTATION_CLOSED", "Cannot update a closed quotation")
	}

	payment := q.PaymentTerms
	delivery := q.DeliveryTerms
	if req.PaymentTerms != nil {
		payment = *req.PaymentTerms
	}
	if req.DeliveryTerms != nil {
		delivery = *req.DeliveryTerms
	}
	q.SetTerms(payment, delivery)

	if req.ValidUntil != nil {
		if err := q.SetValidUntil(*req.ValidUntil); err != nil {
			return nil, err
		}
	}
	if req.Notes != nil {
		q.SetNotes(*req.Notes)
	}

	if err := s.quotationRepo.Save(ctx, q); err != nil {
		return nil, err
	}
	resp := toQuotationResponse(q)
	return &resp, nil
}
