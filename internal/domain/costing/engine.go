// Package costing resolves ingredient costs under the zero-stock policy.
// The rule: a price is only trustworthy while stock exists. Zero stock
// means the last purchase price may be stale, so costing either blocks
// or falls back to a configured price, never guesses.
package costing

import (
	"context"

	"rasoi/internal/core/apperror"
	"rasoi/internal/core/id"
	"rasoi/internal/core/types"
	"rasoi/internal/domain/catalogs/ingredient"
	"rasoi/internal/domain/registers/ledger"
	"rasoi/internal/domain/units"
	"rasoi/pkg/logger"
)

// Policy controls zero-stock behavior.
type Policy struct {
	// StrictCostIntegrity blocks zero-stock costing unconditionally.
	// Takes precedence over AllowFallbackPricing.
	StrictCostIntegrity bool

	// AllowFallbackPricing permits configured fallback prices when
	// strict mode is off.
	AllowFallbackPricing bool
}

// Engine computes ingredient costs.
type Engine struct {
	ingredients ingredient.Repository
	ledger      ledger.Repository
	policy      Policy
}

// NewEngine creates a costing engine.
func NewEngine(ingredients ingredient.Repository, ledgerRepo ledger.Repository, policy Policy) *Engine {
	return &Engine{
		ingredients: ingredients,
		ledger:      ledgerRepo,
		policy:      policy,
	}
}

// CostFor returns the cost of a quantity of an ingredient, rounded to
// currency precision. The quantity may be in any unit convertible to the
// ingredient's base unit.
func (e *Engine) CostFor(ctx context.Context, ingredientID id.ID, qty types.Quantity, unit units.Unit) (types.Money, error) {
	if qty.IsNegative() {
		return types.ZeroMoney(), apperror.NewValidation("quantity cannot be negative").
			WithDetail("field", "quantity")
	}

	ing, err := e.ingredients.GetByID(ctx, ingredientID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return types.ZeroMoney(), apperror.NewNotFound("ingredient", ingredientID.String())
		}
		return types.ZeroMoney(), err
	}

	qtyBase, err := units.ToBase(qty, unit, ing.BaseUnit)
	if err != nil {
		return types.ZeroMoney(), err
	}

	stock, err := e.ledger.SumStock(ctx, ingredientID)
	if err != nil {
		return types.ZeroMoney(), err
	}

	unitCost, err := e.EffectiveUnitCost(ctx, ing, stock)
	if err != nil {
		return types.ZeroMoney(), err
	}

	return types.RoundMoney(qtyBase.Decimal().Mul(unitCost)), nil
}

// EffectiveUnitCost resolves the per-base-unit price for an ingredient
// given its current stock, applying the zero-stock policy:
//
//   - stock > 0: the catalog unit cost is trusted as-is
//   - stock <= 0, strict: COST_BLOCKED, always
//   - stock <= 0, non-strict, fallback configured and allowed: the
//     fallback price, logged as degraded pricing
//   - otherwise: COST_BLOCKED
func (e *Engine) EffectiveUnitCost(ctx context.Context, ing *ingredient.Ingredient, stock types.Quantity) (types.Money, error) {
	if stock.IsPositive() {
		return ing.UnitCost, nil
	}

	if e.policy.StrictCostIntegrity {
		return types.ZeroMoney(), apperror.NewCostBlocked(ing.Name)
	}

	if e.policy.AllowFallbackPricing && ing.HasFallbackPrice() {
		logger.Warn(ctx, "degraded pricing: zero stock, using fallback price",
			"ingredient_id", ing.ID.String(),
			"ingredient", ing.Name,
			"fallback_unit_cost", ing.FallbackUnitCost.String(),
		)
		return *ing.FallbackUnitCost, nil
	}

	return types.ZeroMoney(), apperror.NewCostBlocked(ing.Name)
}
