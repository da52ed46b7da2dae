package ingredient

import (
	"context"
	"fmt"
	"time"

	"rasoi/internal/core/apperror"
	"rasoi/internal/core/id"
	"rasoi/internal/core/tx"
	"rasoi/internal/core/types"
	"rasoi/internal/domain"
	"rasoi/pkg/logger"
	"rasoi/pkg/numerator"
)

// Service provides business logic for the Ingredient catalog.
// Uses composition with domain.CatalogService for common CRUD operations.
type Service struct {
	*domain.CatalogService[*Ingredient]
	repo      Repository
	txManager tx.Manager
	codes     *numerator.Service

	// cascader is wired after construction (the bom service needs the
	// catalog repos first). Nil cascader skips recomputation, used in
	// bootstrap and some tests.
	cascader domain.CostCascader
	audit    domain.AuditLogger
}

// NewService creates a new Ingredient service.
func NewService(repo Repository, txManager tx.Manager, codes *numerator.Service) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Ingredient]{
		Repo:       repo,
		TxManager:  txManager,
		Numerator:  codes,
		EntityName: "ingredient",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		txManager:      txManager,
		codes:          codes,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)
	base.Hooks().OnBeforeUpdate(svc.guardBaseUnit)

	return svc
}

// SetCascader wires the cost cascade, called once during bootstrap.
func (s *Service) SetCascader(c domain.CostCascader) { s.cascader = c }

// SetAuditLogger wires change auditing, called once during bootstrap.
func (s *Service) SetAuditLogger(a domain.AuditLogger) { s.audit = a }

// prepareForCreate generates the catalog code and checks name uniqueness.
func (s *Service) prepareForCreate(ctx context.Context, item *Ingredient) error {
	if item.Code == "" {
		code, err := s.codes.GetNextNumber(ctx, numerator.DefaultConfig(CodePrefix), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		item.Code = code
	}

	if item.LowStockLimit.IsZero() {
		item.LowStockLimit = DefaultLowStockLimit(item.BaseUnit)
	}

	return nil
}

// guardBaseUnit rejects base unit changes on update. The base unit anchors
// every ledger row and recipe line for the ingredient.
func (s *Service) guardBaseUnit(ctx context.Context, item *Ingredient) error {
	current, err := s.repo.GetByID(ctx, item.ID)
	if err != nil {
		return err
	}
	if current.BaseUnit != item.BaseUnit {
		return apperror.NewValidation("base unit is immutable").
			WithDetail("field", "baseUnit").
			WithDetail("current", string(current.BaseUnit)).
			WithDetail("requested", string(item.BaseUnit))
	}
	return nil
}

// PriceUpdate carries a unit cost change request.
type PriceUpdate struct {
	UnitCost         string  `json:"unitCost" binding:"required"`
	FallbackUnitCost *string `json:"fallbackUnitCost,omitempty"`
}

// UpdateUnitCost changes the ingredient's unit cost and recomputes every
// dependent prepared item and product cost in the same transaction.
func (s *Service) UpdateUnitCost(ctx context.Context, ingredientID id.ID, upd PriceUpdate) (*Ingredient, error) {
	newCost, err := parseMoney(upd.UnitCost, "unitCost")
	if err != nil {
		return nil, err
	}
	if newCost.IsNegative() {
		return nil, apperror.NewValidation("unit cost cannot be negative").
			WithDetail("field", "unitCost")
	}

	var updated *Ingredient
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		item, err := s.repo.GetForUpdate(ctx, ingredientID)
		if err != nil {
			return s.notFoundOr(err, ingredientID)
		}

		oldCost := item.UnitCost
		item.UnitCost = newCost

		if upd.FallbackUnitCost != nil {
			fallback, err := parseMoney(*upd.FallbackUnitCost, "fallbackUnitCost")
			if err != nil {
				return err
			}
			item.FallbackUnitCost = &fallback
		}

		if err := s.repo.Update(ctx, item); err != nil {
			return fmt.Errorf("update ingredient: %w", err)
		}

		if s.cascader != nil {
			if err := s.cascader.CascadeIngredientChange(ctx, ingredientID); err != nil {
				return fmt.Errorf("cascade ingredient change: %w", err)
			}
		}

		if s.audit != nil {
			changes := map[string]any{
				"unit_cost": map[string]any{"old": oldCost.String(), "new": newCost.String()},
			}
			if err := s.audit.LogChange(ctx, "ingredient", ingredientID, domain.AuditActionPriceSet, changes); err != nil {
				return fmt.Errorf("audit price change: %w", err)
			}
		}

		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "ingredient price updated",
		"ingredient_id", ingredientID.String(),
		"unit_cost", updated.UnitCost.String(),
	)
	return updated, nil
}

// SetActive toggles the active flag. Deactivated ingredients keep their
// ledger history but block new recipes and consumption.
func (s *Service) SetActive(ctx context.Context, ingredientID id.ID, active bool) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		item, err := s.repo.GetForUpdate(ctx, ingredientID)
		if err != nil {
			return s.notFoundOr(err, ingredientID)
		}
		if item.Active == active {
			return nil
		}
		item.Active = active
		return s.repo.Update(ctx, item)
	})
}

// ListActive retrieves all active ingredients.
func (s *Service) ListActive(ctx context.Context) ([]*Ingredient, error) {
	return s.repo.ListActive(ctx)
}

func (s *Service) notFoundOr(err error, ingredientID id.ID) error {
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound("ingredient", ingredientID.String())
	}
	return err
}

func parseMoney(s, field string) (types.Money, error) {
	m, err := types.NewMoneyFromString(s)
	if err != nil {
		return m, apperror.NewValidation("invalid money value").
			WithDetail("field", field).
			WithDetail("value", s)
	}
	return m, nil
}
