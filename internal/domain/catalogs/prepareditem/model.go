// Package prepareditem provides the PreparedItem catalog: kitchen recipes
// that turn ingredients into sellable portions. A prepared item owns its
// recipe lines and a cached cost maintained by the cost cascade.
package prepareditem

import (
	"context"

	"rasoi/internal/core/apperror"
	"rasoi/internal/core/entity"
	"rasoi/internal/core/id"
	"rasoi/internal/core/types"
	"rasoi/internal/domain/units"
)

// CodePrefix for auto-generated prepared item codes (PI-2026-00001).
const CodePrefix = "PI"

// ProductionMode controls how recipe quantities scale with servings.
type ProductionMode string

const (
	// ModePerServing: the recipe describes exactly one serving.
	ModePerServing ProductionMode = "per_serving"

	// ModeBatch: the recipe describes one batch yielding BatchOutputQty
	// customer units; servings are cut from batches.
	ModeBatch ProductionMode = "batch"
)

// PreparedItem represents a recipe-backed menu component.
type PreparedItem struct {
	entity.Catalog

	// CustomerUnit is the unit a serving is sold in (e.g. pcs, ltr).
	CustomerUnit units.Unit `db:"customer_unit" json:"customerUnit"`

	// ServingSize is the quantity of CustomerUnit in one serving.
	ServingSize types.Quantity `db:"serving_size" json:"servingSize"`

	// Mode selects per-serving or batch production.
	Mode ProductionMode `db:"production_mode" json:"productionMode"`

	// BatchOutputQty is the customer-unit yield of one batch.
	// Required in batch mode, must be zero otherwise.
	BatchOutputQty types.Quantity `db:"batch_output_qty" json:"batchOutputQty,omitempty"`

	// ComboPrice is the selling price when sold inside a combo product.
	ComboPrice types.Money `db:"combo_price" json:"comboPrice"`

	// CachedCost is the per-serving ingredient cost, derived by the
	// cascade. Never set directly.
	CachedCost types.Money `db:"cached_cost" json:"cachedCost"`

	// CostBlocked is true when any recipe ingredient has zero stock under
	// strict costing. A blocked item never exposes a partial cost.
	CostBlocked bool `db:"cost_blocked" json:"costBlocked"`

	// Active controls menu visibility and consumption eligibility.
	Active bool `db:"active" json:"active"`

	// RecipeVersion increments on every recipe edit.
	RecipeVersion int `db:"recipe_version" json:"recipeVersion"`
}

// New creates a PreparedItem with defaults. Code is generated on save.
func New(name string, customerUnit units.Unit, servingSize types.Quantity) *PreparedItem {
	return &PreparedItem{
		Catalog:      entity.NewCatalog("", name),
		CustomerUnit: customerUnit,
		ServingSize:  servingSize,
		Mode:         ModePerServing,
		ComboPrice:   types.ZeroMoney(),
		CachedCost:   types.ZeroMoney(),
		Active:       true,
	}
}

// Validate implements entity.Validatable.
func (p *PreparedItem) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	if !units.IsBase(p.CustomerUnit) {
		return apperror.NewValidation("customer unit must be kg, ltr or pcs").
			WithDetail("field", "customerUnit").
			WithDetail("value", string(p.CustomerUnit))
	}

	if !p.ServingSize.IsPositive() {
		return apperror.NewValidation("serving size must be positive").
			WithDetail("field", "servingSize")
	}

	switch p.Mode {
	case ModePerServing:
		if !p.BatchOutputQty.IsZero() {
			return apperror.NewValidation("batch output quantity only applies to batch mode").
				WithDetail("field", "batchOutputQty")
		}
	case ModeBatch:
		if !p.BatchOutputQty.IsPositive() {
			return apperror.NewValidation("batch mode requires a positive batch output quantity").
				WithDetail("field", "batchOutputQty")
		}
		if p.BatchOutputQty.Int64Scaled() < p.ServingSize.Int64Scaled() {
			return apperror.NewValidation("batch output must cover at least one serving").
				WithDetail("field", "batchOutputQty")
		}
	default:
		return apperror.NewValidation("invalid production mode").
			WithDetail("field", "productionMode").
			WithDetail("value", string(p.Mode))
	}

	if p.ComboPrice.IsNegative() {
		return apperror.NewValidation("combo price cannot be negative").
			WithDetail("field", "comboPrice")
	}

	return nil
}

// ServingsPerBatch returns how many whole servings one batch yields.
// Zero for per-serving items.
func (p *PreparedItem) ServingsPerBatch() int64 {
	if p.Mode != ModeBatch {
		return 0
	}
	return p.BatchOutputQty.DivFloor(p.ServingSize)
}

// RecipeLine binds one ingredient quantity to a prepared item's recipe.
// Unique per (prepared item, ingredient).
type RecipeLine struct {
	ID             id.ID          `db:"id" json:"id"`
	PreparedItemID id.ID          `db:"prepared_item_id" json:"preparedItemId"`
	IngredientID   id.ID          `db:"ingredient_id" json:"ingredientId"`
	Quantity       types.Quantity `db:"quantity" json:"quantity"`
	QuantityUnit   units.Unit     `db:"quantity_unit" json:"quantityUnit"`

	// LineNo keeps recipe display and bottleneck resolution stable.
	LineNo int `db:"line_no" json:"lineNo"`
}

// Validate checks line invariants; base-unit convertibility is checked by
// the service against the ingredient catalog.
func (l *RecipeLine) Validate(ctx context.Context) error {
	if id.IsNil(l.IngredientID) {
		return apperror.NewValidation("ingredient is required").
			WithDetail("field", "ingredientId")
	}
	if !l.Quantity.IsPositive() {
		return apperror.NewValidation("recipe quantity must be positive").
			WithDetail("field", "quantity")
	}
	if _, err := units.Parse(string(l.QuantityUnit)); err != nil {
		return apperror.NewValidation("unknown recipe unit").
			WithDetail("field", "quantityUnit").
			WithDetail("value", string(l.QuantityUnit))
	}
	return nil
}
