package bom

import (
	"context"

	"rasoi/internal/core/apperror"
	"rasoi/internal/core/id"
	"rasoi/internal/domain/catalogs/ingredient"
	"rasoi/internal/domain/catalogs/prepareditem"
)

// Availability is the result of an availability calculation.
type Availability struct {
	// Available is the number of whole servings (or combos) sellable
	// from current stock.
	Available int64 `json:"available"`

	// PerIngredient maps each recipe ingredient to its limiting value:
	// servings possible in per_serving mode, batches possible in batch
	// mode. Empty for products.
	PerIngredient map[id.ID]int64 `json:"perIngredient,omitempty"`

	// BottleneckIngredientID is the limiting ingredient for a prepared
	// item. Ties resolve to the first line in stable recipe order.
	BottleneckIngredientID *id.ID `json:"bottleneckIngredientId,omitempty"`

	// BottleneckPreparedItemID is the limiting component for a product.
	BottleneckPreparedItemID *id.ID `json:"bottleneckPreparedItemId,omitempty"`

	// Batches is the number of whole batches possible (batch mode only).
	Batches int64 `json:"batches,omitempty"`
}

// minTracker performs a min-reduction with an explicit unset state,
// instead of a large numeric sentinel.
type minTracker struct {
	set bool
	min int64
}

// observe updates the tracker and reports whether v became the new
// minimum. Ties keep the earlier observation, making the bottleneck
// deterministic in stable iteration order.
func (t *minTracker) observe(v int64) bool {
	if !t.set || v < t.min {
		t.set = true
		t.min = v
		return true
	}
	return false
}

func (t *minTracker) value() int64 {
	if !t.set {
		return 0
	}
	return t.min
}

// ItemAvailability computes how many whole servings of a prepared item
// current stock supports, with a per-ingredient breakdown and the
// bottleneck ingredient.
func (s *Service) ItemAvailability(ctx context.Context, preparedItemID id.ID) (*Availability, error) {
	item, err := s.items.GetByID(ctx, preparedItemID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("prepared_item", preparedItemID.String())
		}
		return nil, err
	}

	recipe, err := s.items.GetRecipe(ctx, preparedItemID)
	if err != nil {
		return nil, err
	}
	if len(recipe) == 0 {
		return nil, apperror.NewValidation("prepared item has no recipe").
			WithDetail("preparedItem", item.Name)
	}

	ingredients, err := s.loadIngredients(ctx, recipe)
	if err != nil {
		return nil, err
	}

	resolved, err := ResolveRecipe(recipe, ingredients)
	if err != nil {
		return nil, err
	}

	ids := make([]id.ID, 0, len(resolved))
	for _, line := range resolved {
		ids = append(ids, line.IngredientID)
	}
	stocks, err := s.ledger.SumStockMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	// In per_serving mode each line limits servings directly; in batch
	// mode lines limit whole batches, and servings come from batches.
	servingsPerBatch := int64(1)
	if item.Mode == prepareditem.ModeBatch {
		servingsPerBatch = item.ServingsPerBatch()
		if servingsPerBatch <= 0 {
			return nil, apperror.NewValidation("batch item is missing batch output configuration").
				WithDetail("preparedItem", item.Name)
		}
	}

	result := &Availability{PerIngredient: make(map[id.ID]int64, len(resolved))}
	var tracker minTracker
	for _, line := range resolved {
		if !line.QtyBase.IsPositive() {
			return nil, apperror.NewValidation("recipe line resolves to zero base quantity").
				WithDetail("ingredientId", line.IngredientID.String())
		}

		possible := stocks[line.IngredientID].DivFloor(line.QtyBase)
		result.PerIngredient[line.IngredientID] = possible
		if tracker.observe(possible) {
			ingID := line.IngredientID
			result.BottleneckIngredientID = &ingID
		}
	}

	limit := tracker.value()
	if item.Mode == prepareditem.ModeBatch {
		result.Batches = limit
		result.Available = limit * servingsPerBatch
	} else {
		result.Available = limit
	}
	return result, nil
}

// ProductAvailability computes how many whole combos current stock
// supports: the min over composition lines of each prepared item's
// availability divided by its multiplier.
func (s *Service) ProductAvailability(ctx context.Context, productID id.ID) (*Availability, error) {
	composition, err := s.products.GetComposition(ctx, productID)
	if err != nil {
		return nil, err
	}
	if len(composition) == 0 {
		return nil, apperror.NewValidation("product has no composition").
			WithDetail("productId", productID.String())
	}

	result := &Availability{}
	var tracker minTracker
	for _, line := range composition {
		// Multipliers are validated on write, but a bad row must stay a
		// loud error instead of a divide-by-zero.
		if line.Multiplier <= 0 {
			return nil, apperror.NewValidation("composition line has non-positive multiplier").
				WithDetail("preparedItemId", line.PreparedItemID.String())
		}

		itemAvail, err := s.ItemAvailability(ctx, line.PreparedItemID)
		if err != nil {
			return nil, err
		}

		possible := itemAvail.Available / int64(line.Multiplier)
		if tracker.observe(possible) {
			itemID := line.PreparedItemID
			result.BottleneckPreparedItemID = &itemID
		}
	}

	result.Available = tracker.value()
	return result, nil
}

// loadIngredients fetches all recipe ingredients into a map.
func (s *Service) loadIngredients(ctx context.Context, recipe []prepareditem.RecipeLine) (map[id.ID]*ingredient.Ingredient, error) {
	out := make(map[id.ID]*ingredient.Ingredient, len(recipe))
	for _, line := range recipe {
		if _, ok := out[line.IngredientID]; ok {
			continue
		}
		ing, err := s.ingredients.GetByID(ctx, line.IngredientID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return nil, apperror.NewValidation("recipe references unknown ingredient").
					WithDetail("ingredientId", line.IngredientID.String())
			}
			return nil, err
		}
		out[line.IngredientID] = ing
	}
	return out, nil
}
