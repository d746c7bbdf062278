package handler

import (
	partnerapp "github.com/cotador/backend/internal/application/partner"
	quotationapp "github.com/cotador/backend/internal/application/quotation"
	"github.com/gin-gonic/gin"
)

// SupplierHandler handles supplier API endpoints
type SupplierHandler struct {
	BaseHandler
	supplierService  *partnerapp.SupplierService
	quotationService *quotationapp.Service
}

// NewSupplierHandler creates a new SupplierHandler
func NewSupplierHandler(supplierService *partnerapp.SupplierService, quotationService *quotationapp.Service) *SupplierHandler {
	return &SupplierHandler{
		supplierService:  supplierService,
		quotationService: quotationService,
	}
}

// List returns all suppliers
func (h *SupplierHandler) List(c *gin.Context) {
	suppliers, err := h.supplierService.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, suppliers)
}

// GetByID returns a supplier by ID
func (h *SupplierHandler) GetByID(c *gin.Context) {
	id, ok := uuidParam(&h.BaseHandler, c, "id")
	if !ok {
		return
	}

	supplier, err := h.supplierService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, supplier)
}

// GetActiveQuotation returns the supplier's single active quotation, 404 when
// the slot is free
func (h *SupplierHandler) GetActiveQuotation(c *gin.Context) {
	id, ok := uuidParam(&h.BaseHandler, c, "id")
	if !ok {
		return
	}

	q, err := h.quotationService.GetActiveBySupplier(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, q)
}
