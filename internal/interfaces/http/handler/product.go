package handler

import (
	"strconv"

	catalogapp "github.com/cotador/backend/internal/application/catalog"
	"github.com/gin-gonic/gin"
)

// ProductHandler handles catalog product API endpoints
type ProductHandler struct {
	BaseHandler
	productService *catalogapp.ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService *catalogapp.ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
	}
}

// GetByID returns a product by ID
func (h *ProductHandler) GetByID(c *gin.Context) {
	id, ok := uuidParam(&h.BaseHandler, c, "id")
	if !ok {
		return
	}

	product, err := h.productService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}

// Search searches active products by name, code or part number.
// Used by the reconciliation UI for manual linking.
func (h *ProductHandler) Search(c *gin.Context) {
	term := c.Query("term")

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			h.BadRequest(c, "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	products, err := h.productService.Search(c.Request.Context(), term, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, products)
}
