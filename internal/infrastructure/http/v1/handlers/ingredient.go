package handlers

import (
	"github.com/gin-gonic/gin"

	"rasoi/internal/domain/catalogs/ingredient"
	"rasoi/internal/infrastructure/http/v1/dto"
)

// IngredientHandler serves the ingredient catalog plus price and
// activation operations on top of the generic CRUD set.
type IngredientHandler struct {
	*CatalogHandler[*ingredient.Ingredient, dto.CreateIngredientRequest, dto.UpdateIngredientRequest]
	service *ingredient.Service
}

// NewIngredientHandler creates an ingredient handler.
func NewIngredientHandler(base *BaseHandler, service *ingredient.Service) *IngredientHandler {
	config := CatalogHandlerConfig[*ingredient.Ingredient, dto.CreateIngredientRequest, dto.UpdateIngredientRequest]{
		Service:    service.CatalogService,
		EntityName: "ingredient",

		MapCreateDTO: func(req dto.CreateIngredientRequest) *ingredient.Ingredient {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdateIngredientRequest, existing *ingredient.Ingredient) *ingredient.Ingredient {
			req.ApplyTo(existing)
			return existing
		},
		MapToDTO: func(item *ingredient.Ingredient) any {
			return dto.FromIngredient(item)
		},
	}

	return &IngredientHandler{
		CatalogHandler: NewCatalogHandler(base, config),
		service:        service,
	}
}

// UpdatePrice handles POST /ingredients/:id/price - change the unit cost
// and cascade dependent costs in the same transaction.
func (h *IngredientHandler) UpdatePrice(c *gin.Context) {
	ctx := c.Request.Context()

	ingredientID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req ingredient.PriceUpdate
	if !h.BindJSON(c, &req) {
		return
	}

	updated, err := h.service.UpdateUnitCost(ctx, ingredientID, req)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromIngredient(updated))
}

// SetActive handles POST /ingredients/:id/active - toggle the active flag.
func (h *IngredientHandler) SetActive(c *gin.Context) {
	ctx := c.Request.Context()

	ingredientID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.SetActiveRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.SetActive(ctx, ingredientID, *req.Active); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "active flag updated")
}
