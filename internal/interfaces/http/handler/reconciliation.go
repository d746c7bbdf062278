package handler

import (
	"time"

	reconapp "github.com/cotador/backend/internal/application/reconciliation"
	"github.com/cotador/backend/internal/domain/shared/valueobject"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReconciliationHandler exposes the reconciliation session workflow: ingest a
// batch of extracted quotation lines, work through the matches, then commit.
type ReconciliationHandler struct {
	BaseHandler
	sessions *reconapp.SessionService
	commits  *reconapp.CommitService
}

// NewReconciliationHandler creates a new ReconciliationHandler
func NewReconciliationHandler(sessions *reconapp.SessionService, commits *reconapp.CommitService) *ReconciliationHandler {
	return &ReconciliationHandler{
		sessions: sessions,
		commits:  commits,
	}
}

// RawItemRequest is one extracted line in a session creation request
type RawItemRequest struct {
	Description           string  `json:"description" binding:"required,min=1,max=500"`
	PartNumber            string  `json:"part_number" binding:"max=100"`
	TaxCode               string  `json:"tax_code" binding:"max=20"`
	Quantity              float64 `json:"quantity" binding:"required,gt=0"`
	UnitPrice             float64 `json:"unit_price" binding:"required,gt=0"`
	Currency              string  `json:"currency" binding:"required,currency"`
	ImmediateAvailability bool    `json:"immediate_availability"`
}

// CreateSessionRequest starts a reconciliation session
type CreateSessionRequest struct {
	SupplierID   string           `json:"supplier_id" binding:"required,uuid"`
	Currency     string           `json:"currency" binding:"required,currency"`
	ExchangeRate float64          `json:"exchange_rate" binding:"omitempty,gt=0"`
	Items        []RawItemRequest `json:"items" binding:"required,min=1,dive"`
}

// EditItemRequest is a partial update of a session item
type EditItemRequest struct {
	Description           *string  `json:"description" binding:"omitempty,min=1,max=500"`
	PartNumber            *string  `json:"part_number" binding:"omitempty,max=100"`
	TaxCode               *string  `json:"tax_code" binding:"omitempty,max=20"`
	Quantity              *float64 `json:"quantity" binding:"omitempty,gt=0"`
	UnitPrice             *float64 `json:"unit_price" binding:"omitempty,gt=0"`
	Currency              *string  `json:"currency" binding:"omitempty,currency"`
	ImmediateAvailability *bool    `json:"immediate_availability"`
}

// LinkItemRequest links a session item to a catalog product
type LinkItemRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
}

// SetExchangeRateRequest replaces the session's USD/BRL exchange rate
type SetExchangeRateRequest struct {
	ExchangeRate float64 `json:"exchange_rate" binding:"required,gt=0"`
}

// CommitSessionRequest asks the coordinator to persist the session
type CommitSessionRequest struct {
	Mode          string     `json:"mode" binding:"required,oneof=append create"`
	PaymentTerms  string     `json:"payment_terms" binding:"max=200"`
	DeliveryTerms string     `json:"delivery_terms" binding:"max=200"`
	ValidUntil    *time.Time `json:"valid_until"`
	Notes         string     `json:"notes" binding:"max=2000"`
}

// Create starts a session from a batch of extracted lines
func (h *ReconciliationHandler) Create(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	supplierID, err := uuid.Parse(req.SupplierID)
	if err != nil {
		h.BadRequest(c, "Invalid supplier ID format")
		return
	}

	appReq := reconapp.CreateSessionRequest{
		SupplierID:   supplierID,
		Currency:     valueobject.Currency(req.Currency),
		ExchangeRate: decimal.NewFromFloat(req.ExchangeRate),
		Items:        make([]reconapp.RawItemInput, 0, len(req.Items)),
	}
	for _, item := range req.Items {
		appReq.Items = append(appReq.Items, reconapp.RawItemInput{
			Description:           item.Description,
			PartNumber:            item.PartNumber,
			TaxCode:               item.TaxCode,
			Quantity:              decimal.NewFromFloat(item.Quantity),
			UnitPrice:             decimal.NewFromFloat(item.UnitPrice),
			Currency:              valueobject.Currency(item.Currency),
			ImmediateAvailability: item.ImmediateAvailability,
		})
	}

	session, err := h.sessions.Create(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, session)
}

// Get returns the full session view
func (h *ReconciliationHandler) Get(c *gin.Context) {
	sessionID, ok := uuidParam(&h.BaseHandler, c, "id")
	if !ok {
		return
	}

	session, err := h.sessions.Get(sessionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, session)
}

// Review lists the items that still need operator attention
func (h *ReconciliationHandler) Review(c *gin.Context) {
	sessionID, ok := uuidParam(&h.BaseHandler, c, "id")
	if !ok {
		return
	}

	review, err := h.sessions.Review(sessionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, review)
}

// Discard drops the session without persisting anything
func (h *ReconciliationHandler) Discard(c *gin.Context) {
	sessionID, ok := uuidParam(&h.BaseHandler, c, "id")
	if !ok {
		return
	}

	if err := h.sessions.Discard(sessionID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// SetExchangeRate replaces the session rate and reprices every item
func (h *ReconciliationHandler) SetExchangeRate(c *gin.Context) {
	sessionID, ok := uuidParam(&h.BaseHandler, c, "id")
	if !ok {
		return
	}

	var req SetExchangeRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	session, err := h.sessions.SetExchangeRate(sessionID, decimal.NewFromFloat(req.ExchangeRate))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, session)
}

// LinkItem links a session item to an explicitly chosen product
func (h *ReconciliationHandler) LinkItem(c *gin.Context) {
	sessionID, itemID, ok := h.itemParams(c)
	if !ok {
		return
	}

	var req LinkItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		h.BadRequest(c, "Invalid product ID format")
		return
	}

	item, err := h.sessions.LinkItem(c.Request.Context(), sessionID, itemID, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, item)
}

// AcceptSuggestion links a session item to its best automatic match
func (h *ReconciliationHandler) AcceptSuggestion(c *gin.Context) {
	sessionID, itemID, ok := h.itemParams(c)
	if !ok {
		return
	}

	item, err := h.sessions.AcceptSuggestion(sessionID, itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, item)
}

// UnlinkItem removes an item's product link
func (h *ReconciliationHandler) UnlinkItem(c *gin.Context) {
	sessionID, itemID, ok := h.itemParams(c)
	if !ok {
		return
	}

	item, err := h.sessions.UnlinkItem(sessionID, itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, item)
}

// EditItem applies a partial update to an item's extracted fields
func (h *ReconciliationHandler) EditItem(c *gin.Context) {
	sessionID, itemID, ok := h.itemParams(c)
	if !ok {
		return
	}

	var req EditItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := reconapp.EditItemRequest{
		Description:           req.Description,
		PartNumber:            req.PartNumber,
		TaxCode:               req.TaxCode,
		ImmediateAvailability: req.ImmediateAvailability,
	}
	if req.Quantity != nil {
		qty := decimal.NewFromFloat(*req.Quantity)
		appReq.Quantity = &qty
	}
	if req.UnitPrice != nil {
		price := decimal.NewFromFloat(*req.UnitPrice)
		appReq.UnitPrice = &price
	}
	if req.Currency != nil {
		currency := valueobject.Currency(*req.Currency)
		appReq.Currency = &currency
	}

	item, err := h.sessions.EditItem(sessionID, itemID, appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, item)
}

// RematchItem rescores an item against the current catalog
func (h *ReconciliationHandler) RematchItem(c *gin.Context) {
	sessionID, itemID, ok := h.itemParams(c)
	if !ok {
		return
	}

	item, err := h.sessions.RematchItem(c.Request.Context(), sessionID, itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, item)
}

// DuplicateItem clones an item for split-line scenarios
func (h *ReconciliationHandler) DuplicateItem(c *gin.Context) {
	sessionID, itemID, ok := h.itemParams(c)
	if !ok {
		return
	}

	item, err := h.sessions.DuplicateItem(sessionID, itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, item)
}

// RemoveItem drops an item from the session
func (h *ReconciliationHandler) RemoveItem(c *gin.Context) {
	sessionID, itemID, ok := h.itemParams(c)
	if !ok {
		return
	}

	if err := h.sessions.RemoveItem(sessionID, itemID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// CommitPlan reports whether the session can commit and whether the supplier
// already has an active quotation
func (h *ReconciliationHandler) CommitPlan(c *gin.Context) {
	sessionID, ok := uuidParam(&h.BaseHandler, c, "id")
	if !ok {
		return
	}

	plan, err := h.commits.Plan(c.Request.Context(), sessionID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, plan)
}

// Commit persists the session in the chosen mode
func (h *ReconciliationHandler) Commit(c *gin.Context) {
	sessionID, ok := uuidParam(&h.BaseHandler, c, "id")
	if !ok {
		return
	}

	var req CommitSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.commits.Commit(c.Request.Context(), reconapp.CommitRequest{
		SessionID:     sessionID,
		Mode:          reconapp.CommitMode(req.Mode),
		PaymentTerms:  req.PaymentTerms,
		DeliveryTerms: req.DeliveryTerms,
		ValidUntil:    req.ValidUntil,
		Notes:         req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

func (h *ReconciliationHandler) itemParams(c *gin.Context) (sessionID, itemID uuid.UUID, ok bool) {
	sessionID, ok = uuidParam(&h.BaseHandler, c, "id")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	itemID, ok = uuidParam(&h.BaseHandler, c, "item_id")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return sessionID, itemID, true
}
