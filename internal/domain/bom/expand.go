// Package bom implements the two-level bill of materials: prepared-item
// recipes over ingredients, and product compositions over prepared items.
// It owns the cost cascade, the availability calculator and the shared
// recipe expansion used by the consumption transaction.
package bom

import (
	"bytes"
	"sort"

	"rasoi/internal/core/apperror"
	"rasoi/internal/core/id"
	"rasoi/internal/core/types"
	"rasoi/internal/domain/catalogs/ingredient"
	"rasoi/internal/domain/catalogs/prepareditem"
	"rasoi/internal/domain/units"
)

// ResolvedLine is a recipe line with its quantity converted to the
// ingredient's base unit.
type ResolvedLine struct {
	IngredientID id.ID
	QtyBase      types.Quantity
}

// ResolveRecipe converts every recipe line into base units against the
// ingredient catalog. Fails with UNIT_MISMATCH on inconvertible lines.
func ResolveRecipe(lines []prepareditem.RecipeLine, ingredients map[id.ID]*ingredient.Ingredient) ([]ResolvedLine, error) {
	resolved := make([]ResolvedLine, 0, len(lines))
	for _, line := range lines {
		ing, ok := ingredients[line.IngredientID]
		if !ok {
			return nil, apperror.NewValidation("recipe references unknown ingredient").
				WithDetail("ingredientId", line.IngredientID.String())
		}

		qtyBase, err := units.ToBase(line.Quantity, line.QuantityUnit, ing.BaseUnit)
		if err != nil {
			return nil, err
		}

		resolved = append(resolved, ResolvedLine{
			IngredientID: line.IngredientID,
			QtyBase:      qtyBase,
		})
	}
	return resolved, nil
}

// Expand turns (prepared item, servings) into per-ingredient base-unit
// demand. This single function carries the production-mode math for both
// the availability calculator and the consumption transaction, so the
// two can never drift:
//
//   - per_serving: each line's quantity is one serving's worth, so
//     demand = line quantity × servings.
//   - batch: each line's quantity is one full batch's worth; servings
//     are cut from whole batches, so demand = line quantity ×
//     ceil(servings / servings_per_batch).
//
// The demand is accumulated into dst so a basket with many items shares
// one map. Fails with VALIDATION_ERROR if a batch-mode item is missing
// its batch output configuration.
func Expand(item *prepareditem.PreparedItem, resolved []ResolvedLine, servings int64, dst map[id.ID]types.Quantity) error {
	if servings <= 0 {
		return apperror.NewValidation("servings must be positive").
			WithDetail("preparedItem", item.Name)
	}

	multiplier := servings
	if item.Mode == prepareditem.ModeBatch {
		spb := item.ServingsPerBatch()
		if spb <= 0 {
			return apperror.NewValidation("batch item is missing batch output configuration").
				WithDetail("preparedItem", item.Name)
		}
		// Whole batches only: 51 servings from 50-serving batches costs 2 batches.
		multiplier = (servings + spb - 1) / spb
	}

	for _, line := range resolved {
		dst[line.IngredientID] = dst[line.IngredientID] + line.QtyBase.MulInt(multiplier)
	}
	return nil
}

// ExpandBatches accumulates demand for whole production batches,
// used by kitchen pre-production. For per-serving items one batch is
// one serving.
func ExpandBatches(item *prepareditem.PreparedItem, resolved []ResolvedLine, batches int64, dst map[id.ID]types.Quantity) error {
	if batches <= 0 {
		return apperror.NewValidation("batches must be positive").
			WithDetail("preparedItem", item.Name)
	}
	if item.Mode == prepareditem.ModeBatch && item.ServingsPerBatch() <= 0 {
		return apperror.NewValidation("batch item is missing batch output configuration").
			WithDetail("preparedItem", item.Name)
	}

	for _, line := range resolved {
		dst[line.IngredientID] = dst[line.IngredientID] + line.QtyBase.MulInt(batches)
	}
	return nil
}

// SortedIngredientIDs returns a demand map's keys in ascending byte
// order. The consumption transaction locks rows in exactly this order
// so concurrent transactions over overlapping ingredient sets cannot
// deadlock.
func SortedIngredientIDs(demand map[id.ID]types.Quantity) []id.ID {
	ids := make([]id.ID, 0, len(demand))
	for ingID := range demand {
		ids = append(ids, ingID)
	}
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
	return ids
}
