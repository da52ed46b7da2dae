package handlers

import (
	"github.com/gin-gonic/gin"

	"rasoi/internal/core/apperror"
	"rasoi/internal/domain/bom"
	"rasoi/internal/domain/catalogs/product"
	"rasoi/internal/infrastructure/http/v1/dto"
)

// ProductHandler serves the combo product catalog plus composition and
// availability operations.
type ProductHandler struct {
	*CatalogHandler[*product.Product, dto.CreateProductRequest, dto.UpdateProductRequest]
	service *product.Service
	bom     *bom.Service
}

// NewProductHandler creates a product handler.
func NewProductHandler(base *BaseHandler, service *product.Service, bomService *bom.Service) *ProductHandler {
	config := CatalogHandlerConfig[*product.Product, dto.CreateProductRequest, dto.UpdateProductRequest]{
		Service:    service.CatalogService,
		EntityName: "product",

		MapCreateDTO: func(req dto.CreateProductRequest) *product.Product {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdateProductRequest, existing *product.Product) *product.Product {
			req.ApplyTo(existing)
			return existing
		},
		MapToDTO: func(item *product.Product) any {
			return dto.FromProduct(item)
		},
	}

	return &ProductHandler{
		CatalogHandler: NewCatalogHandler(base, config),
		service:        service,
		bom:            bomService,
	}
}

// GetComposition handles GET /products/:id/composition.
func (h *ProductHandler) GetComposition(c *gin.Context) {
	ctx := c.Request.Context()

	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	lines, err := h.service.GetComposition(ctx, productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromComposition(productID, lines))
}

// UpdateComposition handles PUT /products/:id/composition - replace the
// composition and recompute the product cost in the same transaction.
func (h *ProductHandler) UpdateComposition(c *gin.Context) {
	ctx := c.Request.Context()

	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateCompositionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	lines, err := req.ToLines()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid prepared item id in composition").
			WithDetail("error", err.Error()))
		return
	}

	if err := h.service.UpdateComposition(ctx, productID, lines); err != nil {
		h.Error(c, err)
		return
	}

	updated, err := h.service.GetComposition(ctx, productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromComposition(productID, updated))
}

// GetAvailability handles GET /products/:id/availability.
func (h *ProductHandler) GetAvailability(c *gin.Context) {
	ctx := c.Request.Context()

	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	avail, err := h.bom.ProductAvailability(ctx, productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromAvailability(avail))
}
