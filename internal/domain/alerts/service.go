package alerts

import (
	"context"

	"rasoi/internal/core/id"
	"rasoi/internal/core/types"
	"rasoi/internal/domain/catalogs/ingredient"
	"rasoi/internal/domain/registers/ledger"
	"rasoi/pkg/logger"
)

// Alert is one matched rule for one ingredient.
type Alert struct {
	IngredientID   id.ID          `json:"ingredientId"`
	IngredientName string         `json:"ingredientName"`
	Rule           string         `json:"rule"`
	Severity       Severity       `json:"severity"`
	Stock          types.Quantity `json:"stock"`
	Limit          types.Quantity `json:"limit"`
}

// Service scans the active ingredient catalog against a rule set.
type Service struct {
	ingredients ingredient.Repository
	ledger      ledger.Repository
	evaluator   *Evaluator
	rules       []Rule
}

// NewService creates an alert service with the given rules. Rules are
// compiled eagerly so a broken expression fails at startup, not during
// a scan.
func NewService(ingredients ingredient.Repository, ledgerRepo ledger.Repository, rules []Rule) (*Service, error) {
	evaluator, err := NewEvaluator()
	if err != nil {
		return nil, err
	}
	for _, rule := range rules {
		if err := evaluator.Compile(rule); err != nil {
			return nil, err
		}
	}
	return &Service{
		ingredients: ingredients,
		ledger:      ledgerRepo,
		evaluator:   evaluator,
		rules:       rules,
	}, nil
}

// Scan evaluates every rule against every active ingredient. At most one
// alert per ingredient is reported: the first matching rule in rule
// order, so critical rules should come first.
func (s *Service) Scan(ctx context.Context) ([]Alert, error) {
	ingredients, err := s.ingredients.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if len(ingredients) == 0 {
		return nil, nil
	}

	ids := make([]id.ID, len(ingredients))
	for i, ing := range ingredients {
		ids[i] = ing.ID
	}
	stocks, err := s.ledger.SumStockMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	var alerts []Alert
	for _, ing := range ingredients {
		stock := stocks[ing.ID]
		vars := map[string]any{
			"name":  ing.Name,
			"unit":  string(ing.BaseUnit),
			"stock": stock.Float64(),
			"limit": ing.LowStockLimit.Float64(),
		}

		for _, rule := range s.rules {
			matched, err := s.evaluator.Matches(rule, vars)
			if err != nil {
				return nil, err
			}
			if matched {
				alerts = append(alerts, Alert{
					IngredientID:   ing.ID,
					IngredientName: ing.Name,
					Rule:           rule.Name,
					Severity:       rule.Severity,
					Stock:          stock,
					Limit:          ing.LowStockLimit,
				})
				break
			}
		}
	}

	if len(alerts) > 0 {
		logger.Info(ctx, "stock alerts raised", "count", len(alerts))
	}
	return alerts, nil
}
