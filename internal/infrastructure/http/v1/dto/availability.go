package dto

import (
	"rasoi/internal/domain/bom"
)

// AvailabilityResponse reports how many whole servings or combos the
// current stock supports.
type AvailabilityResponse struct {
	Available                int64            `json:"available"`
	Batches                  int64            `json:"batches,omitempty"`
	PerIngredient            map[string]int64 `json:"perIngredient,omitempty"`
	BottleneckIngredientID   *string          `json:"bottleneckIngredientId,omitempty"`
	BottleneckPreparedItemID *string          `json:"bottleneckPreparedItemId,omitempty"`
}

// FromAvailability creates response DTO from an availability calculation.
func FromAvailability(a *bom.Availability) *AvailabilityResponse {
	resp := &AvailabilityResponse{
		Available: a.Available,
		Batches:   a.Batches,
	}
	if len(a.PerIngredient) > 0 {
		resp.PerIngredient = make(map[string]int64, len(a.PerIngredient))
		for ingredientID, possible := range a.PerIngredient {
			resp.PerIngredient[ingredientID.String()] = possible
		}
	}
	if a.BottleneckIngredientID != nil {
		s := a.BottleneckIngredientID.String()
		resp.BottleneckIngredientID = &s
	}
	if a.BottleneckPreparedItemID != nil {
		s := a.BottleneckPreparedItemID.String()
		resp.BottleneckPreparedItemID = &s
	}
	return resp
}
