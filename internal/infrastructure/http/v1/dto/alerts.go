package dto

import (
	"rasoi/internal/core/types"
	"rasoi/internal/domain/alerts"
)

// AlertResponse is one raised stock alert.
type AlertResponse struct {
	IngredientID   string         `json:"ingredientId"`
	IngredientName string         `json:"ingredientName"`
	Rule           string         `json:"rule"`
	Severity       string         `json:"severity"`
	Stock          types.Quantity `json:"stock"`
	Limit          types.Quantity `json:"limit"`
}

// FromAlerts creates response DTOs from domain alerts.
func FromAlerts(items []alerts.Alert) []AlertResponse {
	out := make([]AlertResponse, len(items))
	for i, a := range items {
		out[i] = AlertResponse{
			IngredientID:   a.IngredientID.String(),
			IngredientName: a.IngredientName,
			Rule:           a.Rule,
			Severity:       string(a.Severity),
			Stock:          a.Stock,
			Limit:          a.Limit,
		}
	}
	return out
}
