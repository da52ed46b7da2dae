package dto

import (
	"rasoi/internal/core/id"
	"rasoi/internal/core/types"
	"rasoi/internal/domain/catalogs/prepareditem"
	"rasoi/internal/domain/units"
)

// --- Request DTOs ---

// CreatePreparedItemRequest is the request body for creating a prepared item.
type CreatePreparedItemRequest struct {
	Code           string         `json:"code"`
	Name           string         `json:"name" binding:"required"`
	CustomerUnit   string         `json:"customerUnit" binding:"required"`
	ServingSize    types.Quantity `json:"servingSize" binding:"required"`
	ProductionMode string         `json:"productionMode"`
	BatchOutputQty types.Quantity `json:"batchOutputQty"`
	ComboPrice     types.Money    `json:"comboPrice"`
}

// ToEntity converts DTO to domain entity.
func (r *CreatePreparedItemRequest) ToEntity() *prepareditem.PreparedItem {
	item := prepareditem.New(r.Name, units.Unit(r.CustomerUnit), r.ServingSize)
	item.Code = r.Code
	if r.ProductionMode != "" {
		item.Mode = prepareditem.ProductionMode(r.ProductionMode)
	}
	item.BatchOutputQty = r.BatchOutputQty
	item.ComboPrice = r.ComboPrice
	return item
}

// UpdatePreparedItemRequest is the request body for updating a prepared item.
type UpdatePreparedItemRequest struct {
	Name           string         `json:"name" binding:"required"`
	CustomerUnit   string         `json:"customerUnit" binding:"required"`
	ServingSize    types.Quantity `json:"servingSize" binding:"required"`
	ProductionMode string         `json:"productionMode" binding:"required"`
	BatchOutputQty types.Quantity `json:"batchOutputQty"`
	ComboPrice     types.Money    `json:"comboPrice"`
	Active         bool           `json:"active"`
	Version        int            `json:"version" binding:"required,min=1"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdatePreparedItemRequest) ApplyTo(item *prepareditem.PreparedItem) {
	item.Name = r.Name
	item.CustomerUnit = units.Unit(r.CustomerUnit)
	item.ServingSize = r.ServingSize
	item.Mode = prepareditem.ProductionMode(r.ProductionMode)
	item.BatchOutputQty = r.BatchOutputQty
	item.ComboPrice = r.ComboPrice
	item.Active = r.Active
	item.Version = r.Version
}

// RecipeLineRequest is one recipe line in an update-recipe request.
type RecipeLineRequest struct {
	IngredientID string         `json:"ingredientId" binding:"required"`
	Quantity     types.Quantity `json:"quantity" binding:"required"`
	QuantityUnit string         `json:"quantityUnit" binding:"required"`
}

// UpdateRecipeRequest replaces the whole recipe atomically.
type UpdateRecipeRequest struct {
	Lines []RecipeLineRequest `json:"lines" binding:"required,min=1"`
}

// ToLines converts request lines to domain recipe lines. IDs and line
// numbers are assigned by the service.
func (r *UpdateRecipeRequest) ToLines() ([]prepareditem.RecipeLine, error) {
	lines := make([]prepareditem.RecipeLine, len(r.Lines))
	for i, l := range r.Lines {
		ingredientID, err := id.Parse(l.IngredientID)
		if err != nil {
			return nil, err
		}
		lines[i] = prepareditem.RecipeLine{
			IngredientID: ingredientID,
			Quantity:     l.Quantity,
			QuantityUnit: units.Unit(l.QuantityUnit),
		}
	}
	return lines, nil
}

// --- Response DTOs ---

// PreparedItemResponse is the response body for a prepared item.
type PreparedItemResponse struct {
	ID             string         `json:"id"`
	Code           string         `json:"code"`
	Name           string         `json:"name"`
	CustomerUnit   string         `json:"customerUnit"`
	ServingSize    types.Quantity `json:"servingSize"`
	ProductionMode string         `json:"productionMode"`
	BatchOutputQty types.Quantity `json:"batchOutputQty,omitempty"`
	ComboPrice     types.Money    `json:"comboPrice"`
	CachedCost     *types.Money   `json:"cachedCost,omitempty"`
	CostBlocked    bool           `json:"costBlocked"`
	Active         bool           `json:"active"`
	RecipeVersion  int            `json:"recipeVersion"`
	DeletionMark   bool           `json:"deletionMark"`
	Version        int            `json:"version"`
}

// FromPreparedItem creates response DTO from domain entity. A blocked
// cost is withheld entirely rather than exposed as a partial number.
func FromPreparedItem(item *prepareditem.PreparedItem) *PreparedItemResponse {
	resp := &PreparedItemResponse{
		ID:             item.ID.String(),
		Code:           item.Code,
		Name:           item.Name,
		CustomerUnit:   string(item.CustomerUnit),
		ServingSize:    item.ServingSize,
		ProductionMode: string(item.Mode),
		BatchOutputQty: item.BatchOutputQty,
		ComboPrice:     item.ComboPrice,
		CostBlocked:    item.CostBlocked,
		Active:         item.Active,
		RecipeVersion:  item.RecipeVersion,
		DeletionMark:   item.DeletionMark,
		Version:        item.Version,
	}
	if !item.CostBlocked {
		cost := item.CachedCost
		resp.CachedCost = &cost
	}
	return resp
}

// RecipeLineResponse is one recipe line in a recipe response.
type RecipeLineResponse struct {
	ID           string         `json:"id"`
	IngredientID string         `json:"ingredientId"`
	Quantity     types.Quantity `json:"quantity"`
	QuantityUnit string         `json:"quantityUnit"`
	LineNo       int            `json:"lineNo"`
}

// RecipeResponse is the response body for a recipe.
type RecipeResponse struct {
	PreparedItemID string               `json:"preparedItemId"`
	Lines          []RecipeLineResponse `json:"lines"`
}

// FromRecipe creates a recipe response from domain lines.
func FromRecipe(preparedItemID id.ID, lines []prepareditem.RecipeLine) *RecipeResponse {
	out := make([]RecipeLineResponse, len(lines))
	for i, l := range lines {
		out[i] = RecipeLineResponse{
			ID:           l.ID.String(),
			IngredientID: l.IngredientID.String(),
			Quantity:     l.Quantity,
			QuantityUnit: string(l.QuantityUnit),
			LineNo:       l.LineNo,
		}
	}
	return &RecipeResponse{
		PreparedItemID: preparedItemID.String(),
		Lines:          out,
	}
}
