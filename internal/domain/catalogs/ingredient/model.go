// Package ingredient provides the Ingredient catalog: raw materials the
// kitchen stocks, consumes and costs. Every ingredient is stocked in
// exactly one base unit (kg, ltr or pcs), fixed at creation.
package ingredient

import (
	"context"

	"rasoi/internal/core/apperror"
	"rasoi/internal/core/entity"
	"rasoi/internal/core/types"
	"rasoi/internal/domain/units"
)

// CodePrefix for auto-generated ingredient codes (ING-2026-00001).
const CodePrefix = "ING"

// Ingredient represents a raw material tracked in the stock ledger.
type Ingredient struct {
	entity.Catalog

	// BaseUnit is the stocking unit (kg, ltr, pcs). Immutable after the
	// first ledger entry exists; changing it would silently rescale
	// history.
	BaseUnit units.Unit `db:"base_unit" json:"baseUnit"`

	// UnitCost is the current cost per base unit.
	UnitCost types.Money `db:"unit_cost" json:"unitCost"`

	// FallbackUnitCost is an optional last-known-good price used for
	// costing when stock is zero and fallback pricing is allowed.
	FallbackUnitCost *types.Money `db:"fallback_unit_cost" json:"fallbackUnitCost,omitempty"`

	// Active controls whether the ingredient can appear in new recipes
	// and consumption transactions.
	Active bool `db:"active" json:"active"`

	// Category is a free-form grouping (dairy, spices, packaging).
	Category *string `db:"category" json:"category,omitempty"`

	// PreferredVendor is the usual supplier name.
	PreferredVendor *string `db:"preferred_vendor" json:"preferredVendor,omitempty"`

	// ExpiryDays is the typical shelf life after purchase.
	ExpiryDays *int `db:"expiry_days" json:"expiryDays,omitempty"`

	// LowStockLimit is the alert threshold in base units.
	LowStockLimit types.Quantity `db:"low_stock_limit" json:"lowStockLimit"`
}

// DefaultLowStockLimit returns the alert threshold for a base unit:
// 1.000 for kg and ltr, 10 for pcs.
func DefaultLowStockLimit(base units.Unit) types.Quantity {
	if base == units.Piece {
		return types.MustQuantity("10")
	}
	return types.MustQuantity("1")
}

// New creates an Ingredient with defaults. Code is generated on save.
func New(name string, baseUnit units.Unit) *Ingredient {
	return &Ingredient{
		Catalog:       entity.NewCatalog("", name),
		BaseUnit:      baseUnit,
		UnitCost:      types.ZeroMoney(),
		Active:        true,
		LowStockLimit: DefaultLowStockLimit(baseUnit),
	}
}

// Validate implements entity.Validatable.
func (i *Ingredient) Validate(ctx context.Context) error {
	if err := i.Catalog.Validate(ctx); err != nil {
		return err
	}

	if !units.IsBase(i.BaseUnit) {
		return apperror.NewValidation("base unit must be kg, ltr or pcs").
			WithDetail("field", "baseUnit").
			WithDetail("value", string(i.BaseUnit))
	}

	if i.UnitCost.IsNegative() {
		return apperror.NewValidation("unit cost cannot be negative").
			WithDetail("field", "unitCost")
	}

	if i.FallbackUnitCost != nil && i.FallbackUnitCost.IsNegative() {
		return apperror.NewValidation("fallback unit cost cannot be negative").
			WithDetail("field", "fallbackUnitCost")
	}

	if i.LowStockLimit.IsNegative() {
		return apperror.NewValidation("low stock limit cannot be negative").
			WithDetail("field", "lowStockLimit")
	}

	if i.ExpiryDays != nil && *i.ExpiryDays <= 0 {
		return apperror.NewValidation("expiry days must be positive").
			WithDetail("field", "expiryDays")
	}

	return nil
}

// HasFallbackPrice reports whether a usable fallback price is configured.
func (i *Ingredient) HasFallbackPrice() bool {
	return i.FallbackUnitCost != nil && i.FallbackUnitCost.IsPositive()
}
