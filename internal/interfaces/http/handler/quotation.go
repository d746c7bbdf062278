package handler

import (
	"time"

	quotationapp "github.com/cotador/backend/internal/application/quotation"
	"github.com/cotador/backend/internal/domain/shared/valueobject"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuotationHandler handles quotation-related API endpoints
type QuotationHandler struct {
	BaseHandler
	quotationService *quotationapp.Service
}

// NewQuotationHandler creates a new QuotationHandler
func NewQuotationHandler(quotationService *quotationapp.Service) *QuotationHandler {
	return &QuotationHandler{
		quotationService: quotationService,
	}
}

// AddManualItemRequest adds a hand-entered line to an active quotation
type AddManualItemRequest struct {
	ProductID             *string `json:"product_id" binding:"omitempty,uuid"`
	Description           string  `json:"description" binding:"required,min=1,max=500"`
	PartNumber            string  `json:"part_number" binding:"max=100"`
	TaxCode               string  `json:"tax_code" binding:"max=20"`
	Quantity              float64 `json:"quantity" binding:"required,gt=0"`
	UnitPrice             float64 `json:"unit_price" binding:"required,gt=0"`
	Currency              string  `json:"currency" binding:"required,currency"`
	ImmediateAvailability bool    `json:"immediate_availability"`
	Notes                 string  `json:"notes" binding:"max=2000"`
}

// UpdateTermsRequest updates header fields of an active quotation
type UpdateTermsRequest struct {
	PaymentTerms  *string    `json:"payment_terms" binding:"omitempty,max=200"`
	DeliveryTerms *string    `json:"delivery_terms" binding:"omitempty,max=200"`
	ValidUntil    *time.Time `json:"valid_until"`
	Notes         *string    `json:"notes" binding:"omitempty,max=2000"`
}

// List returns all quotations, newest first
func (h *QuotationHandler) List(c *gin.Context) {
	quotations, err := h.quotationService.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, quotations)
}

// GetByID returns a quotation with its items
func (h *QuotationHandler) GetByID(c *gin.Context) {
	id, ok := uuidParam(&h.BaseHandler, c, "id")
	if !ok {
		return
	}

	q, err := h.quotationService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, q)
}

// Close closes a quotation, freeing the supplier's active slot
func (h *QuotationHandler) Close(c *gin.Context) {
	id, ok := uuidParam(&h.BaseHandler, c, "id")
	if !ok {
		return
	}

	q, err := h.quotationService.Close(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, q)
}

// AddItem appends a manual line to an active quotation
func (h *QuotationHandler) AddItem(c *gin.Context) {
	id, ok := uuidParam(&h.BaseHandler, c, "id")
	if !ok {
		return
	}

	var req AddManualItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := quotationapp.AddManualItemRequest{
		Description:           req.Description,
		PartNumber:            req.PartNumber,
		TaxCode:               req.TaxCode,
		Quantity:              decimal.NewFromFloat(req.Quantity),
		UnitPrice:             decimal.NewFromFloat(req.UnitPrice),
		Currency:              valueobject.Currency(req.Currency),
		ImmediateAvailability: req.ImmediateAvailability,
		Notes:                 req.Notes,
	}
	if req.ProductID != nil && *req.ProductID != "" {
		productID, err := uuid.Parse(*req.ProductID)
		if err != nil {
			h.BadRequest(c, "Invalid product ID format")
			return
		}
		appReq.ProductID = &productID
	}

	q, err := h.quotationService.AddManualItem(c.Request.Context(), id, appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, q)
}

// UpdateTerms updates payment/delivery terms, validity and notes
func (h *QuotationHandler) UpdateTerms(c *gin.Context) {
	id, ok := uuidParam(&h.BaseHandler, c, "id")
	if !ok {
		return
	}

	var req UpdateTermsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	q, err := h.quotationService.UpdateTerms(c.Request.Context(), id, quotationapp.UpdateTermsRequest{
		PaymentTerms:  req.PaymentTerms,
		DeliveryTerms: req.DeliveryTerms,
		ValidUntil:    req.ValidUntil,
		Notes:         req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, q)
}
