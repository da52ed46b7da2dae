package handlers

import (
	"github.com/gin-gonic/gin"

	"rasoi/internal/core/apperror"
	"rasoi/internal/domain/bom"
	"rasoi/internal/domain/catalogs/prepareditem"
	"rasoi/internal/infrastructure/http/v1/dto"
)

// PreparedItemHandler serves the prepared item catalog plus recipe and
// availability operations.
type PreparedItemHandler struct {
	*CatalogHandler[*prepareditem.PreparedItem, dto.CreatePreparedItemRequest, dto.UpdatePreparedItemRequest]
	service *prepareditem.Service
	bom     *bom.Service
}

// NewPreparedItemHandler creates a prepared item handler.
func NewPreparedItemHandler(base *BaseHandler, service *prepareditem.Service, bomService *bom.Service) *PreparedItemHandler {
	config := CatalogHandlerConfig[*prepareditem.PreparedItem, dto.CreatePreparedItemRequest, dto.UpdatePreparedItemRequest]{
		Service:    service.CatalogService,
		EntityName: "prepared_item",

		MapCreateDTO: func(req dto.CreatePreparedItemRequest) *prepareditem.PreparedItem {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdatePreparedItemRequest, existing *prepareditem.PreparedItem) *prepareditem.PreparedItem {
			req.ApplyTo(existing)
			return existing
		},
		MapToDTO: func(item *prepareditem.PreparedItem) any {
			return dto.FromPreparedItem(item)
		},
	}

	return &PreparedItemHandler{
		CatalogHandler: NewCatalogHandler(base, config),
		service:        service,
		bom:            bomService,
	}
}

// GetRecipe handles GET /prepared-items/:id/recipe.
func (h *PreparedItemHandler) GetRecipe(c *gin.Context) {
	ctx := c.Request.Context()

	itemID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	lines, err := h.service.GetRecipe(ctx, itemID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromRecipe(itemID, lines))
}

// UpdateRecipe handles PUT /prepared-items/:id/recipe - replace the whole
// recipe and recompute dependent costs in the same transaction.
func (h *PreparedItemHandler) UpdateRecipe(c *gin.Context) {
	ctx := c.Request.Context()

	itemID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateRecipeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	lines, err := req.ToLines()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid ingredient id in recipe").
			WithDetail("error", err.Error()))
		return
	}

	if err := h.service.UpdateRecipe(ctx, itemID, lines); err != nil {
		h.Error(c, err)
		return
	}

	updated, err := h.service.GetRecipe(ctx, itemID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromRecipe(itemID, updated))
}

// GetAvailability handles GET /prepared-items/:id/availability.
func (h *PreparedItemHandler) GetAvailability(c *gin.Context) {
	ctx := c.Request.Context()

	itemID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	avail, err := h.bom.ItemAvailability(ctx, itemID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromAvailability(avail))
}
