package dto

import (
	"rasoi/internal/core/types"
	"rasoi/internal/domain/catalogs/ingredient"
	"rasoi/internal/domain/units"
)

// --- Request DTOs ---

// CreateIngredientRequest is the request body for creating an ingredient.
type CreateIngredientRequest struct {
	Code             string          `json:"code"`
	Name             string          `json:"name" binding:"required"`
	BaseUnit         string          `json:"baseUnit" binding:"required"`
	UnitCost         types.Money     `json:"unitCost"`
	FallbackUnitCost *types.Money    `json:"fallbackUnitCost"`
	Category         *string         `json:"category"`
	PreferredVendor  *string         `json:"preferredVendor"`
	ExpiryDays       *int            `json:"expiryDays"`
	LowStockLimit    *types.Quantity `json:"lowStockLimit"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateIngredientRequest) ToEntity() *ingredient.Ingredient {
	item := ingredient.New(r.Name, units.Unit(r.BaseUnit))
	item.Code = r.Code
	item.UnitCost = r.UnitCost
	item.FallbackUnitCost = r.FallbackUnitCost
	item.Category = r.Category
	item.PreferredVendor = r.PreferredVendor
	item.ExpiryDays = r.ExpiryDays
	if r.LowStockLimit != nil {
		item.LowStockLimit = *r.LowStockLimit
	}
	return item
}

// UpdateIngredientRequest is the request body for updating an ingredient.
// The base unit is intentionally absent: it is immutable after creation.
type UpdateIngredientRequest struct {
	Name            string          `json:"name" binding:"required"`
	Category        *string         `json:"category"`
	PreferredVendor *string         `json:"preferredVendor"`
	ExpiryDays      *int            `json:"expiryDays"`
	LowStockLimit   *types.Quantity `json:"lowStockLimit"`
	Version         int             `json:"version" binding:"required,min=1"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateIngredientRequest) ApplyTo(item *ingredient.Ingredient) {
	item.Name = r.Name
	item.Category = r.Category
	item.PreferredVendor = r.PreferredVendor
	item.ExpiryDays = r.ExpiryDays
	if r.LowStockLimit != nil {
		item.LowStockLimit = *r.LowStockLimit
	}
	item.Version = r.Version
}

// --- Response DTOs ---

// IngredientResponse is the response body for an ingredient.
type IngredientResponse struct {
	ID               string         `json:"id"`
	Code             string         `json:"code"`
	Name             string         `json:"name"`
	BaseUnit         string         `json:"baseUnit"`
	UnitCost         types.Money    `json:"unitCost"`
	FallbackUnitCost *types.Money   `json:"fallbackUnitCost,omitempty"`
	Active           bool           `json:"active"`
	Category         *string        `json:"category,omitempty"`
	PreferredVendor  *string        `json:"preferredVendor,omitempty"`
	ExpiryDays       *int           `json:"expiryDays,omitempty"`
	LowStockLimit    types.Quantity `json:"lowStockLimit"`
	DeletionMark     bool           `json:"deletionMark"`
	Version          int            `json:"version"`
}

// FromIngredient creates response DTO from domain entity.
func FromIngredient(item *ingredient.Ingredient) *IngredientResponse {
	return &IngredientResponse{
		ID:               item.ID.String(),
		Code:             item.Code,
		Name:             item.Name,
		BaseUnit:         string(item.BaseUnit),
		UnitCost:         item.UnitCost,
		FallbackUnitCost: item.FallbackUnitCost,
		Active:           item.Active,
		Category:         item.Category,
		PreferredVendor:  item.PreferredVendor,
		ExpiryDays:       item.ExpiryDays,
		LowStockLimit:    item.LowStockLimit,
		DeletionMark:     item.DeletionMark,
		Version:          item.Version,
	}
}
