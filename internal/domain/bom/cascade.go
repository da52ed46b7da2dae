package bom

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"rasoi/internal/core/apperror"
	"rasoi/internal/core/id"
	"rasoi/internal/core/types"
	"rasoi/internal/domain/catalogs/ingredient"
	"rasoi/internal/domain/catalogs/prepareditem"
	"rasoi/internal/domain/catalogs/product"
	"rasoi/internal/domain/costing"
	"rasoi/internal/domain/registers/ledger"
	"rasoi/pkg/logger"
)

// Service owns cost recomputation and availability over the BOM.
// It implements domain.CostCascader; catalog services call the cascade
// inside the transaction of the triggering write, so dependent reads
// never observe a stale or half-updated cost.
type Service struct {
	items       prepareditem.Repository
	products    product.Repository
	ingredients ingredient.Repository
	ledger      ledger.Repository
	costing     *costing.Engine
}

// NewService creates a bom service.
func NewService(
	items prepareditem.Repository,
	products product.Repository,
	ingredients ingredient.Repository,
	ledgerRepo ledger.Repository,
	costingEngine *costing.Engine,
) *Service {
	return &Service{
		items:       items,
		products:    products,
		ingredients: ingredients,
		ledger:      ledgerRepo,
		costing:     costingEngine,
	}
}

// RecomputePreparedItemCost recalculates an item's cached cost from its
// recipe: the sum of each line's cost under the zero-stock policy,
// rounded to currency precision. A CostBlocked line marks the whole item
// blocked; no partial sum is ever cached.
func (s *Service) RecomputePreparedItemCost(ctx context.Context, preparedItemID id.ID) error {
	item, err := s.items.GetByID(ctx, preparedItemID)
	if err != nil {
		return err
	}

	recipe, err := s.items.GetRecipe(ctx, preparedItemID)
	if err != nil {
		return err
	}

	cost, blocked, err := s.recipeCost(ctx, recipe)
	if err != nil {
		return err
	}

	if err := s.items.UpdateCachedCost(ctx, preparedItemID, cost, blocked); err != nil {
		return fmt.Errorf("update cached cost: %w", err)
	}

	if blocked {
		logger.Warn(ctx, "prepared item cost blocked",
			"prepared_item_id", preparedItemID.String(),
			"prepared_item", item.Name,
		)
	}
	return nil
}

// recipeCost sums line costs. Returns blocked=true when any line fails
// with CostBlocked; other errors propagate.
func (s *Service) recipeCost(ctx context.Context, recipe []prepareditem.RecipeLine) (types.Money, bool, error) {
	total := types.ZeroMoney()
	for _, line := range recipe {
		lineCost, err := s.costing.CostFor(ctx, line.IngredientID, line.Quantity, line.QuantityUnit)
		if err != nil {
			if apperror.IsCostBlocked(err) {
				return types.ZeroMoney(), true, nil
			}
			return types.ZeroMoney(), false, err
		}
		total = total.Add(lineCost)
	}
	return types.RoundMoney(total), false, nil
}

// RecomputeProductCost recalculates a product's cached cost: the sum of
// component cached costs times multipliers. Any blocked component blocks
// the product.
func (s *Service) RecomputeProductCost(ctx context.Context, productID id.ID) error {
	composition, err := s.products.GetComposition(ctx, productID)
	if err != nil {
		return err
	}

	total := types.ZeroMoney()
	blocked := false
	for _, line := range composition {
		item, err := s.items.GetByID(ctx, line.PreparedItemID)
		if err != nil {
			return err
		}
		if item.CostBlocked {
			blocked = true
			break
		}
		total = total.Add(item.CachedCost.Mul(decimal.NewFromInt(int64(line.Multiplier))))
	}

	if blocked {
		total = types.ZeroMoney()
	}

	if err := s.products.UpdateCachedCost(ctx, productID, types.RoundMoney(total), blocked); err != nil {
		return fmt.Errorf("update product cost: %w", err)
	}
	return nil
}

// CascadeIngredientChange recomputes every prepared item whose recipe
// uses the ingredient, then every product containing those items. Runs
// in the caller's transaction.
func (s *Service) CascadeIngredientChange(ctx context.Context, ingredientID id.ID) error {
	affectedItems, err := s.items.FindByIngredient(ctx, ingredientID)
	if err != nil {
		return err
	}

	affectedProducts := make(map[id.ID]bool)
	for _, item := range affectedItems {
		if err := s.RecomputePreparedItemCost(ctx, item.ID); err != nil {
			return fmt.Errorf("recompute prepared item %s: %w", item.ID, err)
		}

		containing, err := s.products.FindByPreparedItem(ctx, item.ID)
		if err != nil {
			return err
		}
		for _, p := range containing {
			affectedProducts[p.ID] = true
		}
	}

	for productID := range affectedProducts {
		if err := s.RecomputeProductCost(ctx, productID); err != nil {
			return fmt.Errorf("recompute product %s: %w", productID, err)
		}
	}

	logger.Debug(ctx, "ingredient cost cascade complete",
		"ingredient_id", ingredientID.String(),
		"prepared_items", len(affectedItems),
		"products", len(affectedProducts),
	)
	return nil
}

// CascadePreparedItemChange recomputes the item's own cost, then every
// product containing it.
func (s *Service) CascadePreparedItemChange(ctx context.Context, preparedItemID id.ID) error {
	if err := s.RecomputePreparedItemCost(ctx, preparedItemID); err != nil {
		return err
	}

	containing, err := s.products.FindByPreparedItem(ctx, preparedItemID)
	if err != nil {
		return err
	}
	for _, p := range containing {
		if err := s.RecomputeProductCost(ctx, p.ID); err != nil {
			return fmt.Errorf("recompute product %s: %w", p.ID, err)
		}
	}
	return nil
}

// CascadeProductChange recomputes a single product's cached cost.
func (s *Service) CascadeProductChange(ctx context.Context, productID id.ID) error {
	return s.RecomputeProductCost(ctx, productID)
}
