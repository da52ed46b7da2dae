package prepareditem

import (
	"context"
	"fmt"
	"time"

	"rasoi/internal/core/apperror"
	"rasoi/internal/core/id"
	"rasoi/internal/core/tx"
	"rasoi/internal/domain"
	"rasoi/internal/domain/catalogs/ingredient"
	"rasoi/internal/domain/units"
	"rasoi/pkg/logger"
	"rasoi/pkg/numerator"
)

// Service provides business logic for the PreparedItem catalog.
type Service struct {
	*domain.CatalogService[*PreparedItem]
	repo        Repository
	ingredients ingredient.Repository
	txManager   tx.Manager
	codes       *numerator.Service

	cascader domain.CostCascader
	audit    domain.AuditLogger
}

// NewService creates a new PreparedItem service.
func NewService(repo Repository, ingredients ingredient.Repository, txManager tx.Manager, codes *numerator.Service) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*PreparedItem]{
		Repo:       repo,
		TxManager:  txManager,
		Numerator:  codes,
		EntityName: "prepared_item",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		ingredients:    ingredients,
		txManager:      txManager,
		codes:          codes,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)

	return svc
}

// SetCascader wires the cost cascade, called once during bootstrap.
func (s *Service) SetCascader(c domain.CostCascader) { s.cascader = c }

// SetAuditLogger wires change auditing, called once during bootstrap.
func (s *Service) SetAuditLogger(a domain.AuditLogger) { s.audit = a }

func (s *Service) prepareForCreate(ctx context.Context, item *PreparedItem) error {
	if item.Code == "" {
		code, err := s.codes.GetNextNumber(ctx, numerator.DefaultConfig(CodePrefix), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		item.Code = code
	}
	return nil
}

// GetRecipe retrieves recipe lines for a prepared item.
func (s *Service) GetRecipe(ctx context.Context, preparedItemID id.ID) ([]RecipeLine, error) {
	if exists, err := s.repo.Exists(ctx, preparedItemID); err != nil {
		return nil, err
	} else if !exists {
		return nil, apperror.NewNotFound("prepared_item", preparedItemID.String())
	}
	return s.repo.GetRecipe(ctx, preparedItemID)
}

// UpdateRecipe atomically replaces the item's recipe lines, bumps the
// recipe version and recomputes the item's cost and every containing
// product's cost in the same transaction.
func (s *Service) UpdateRecipe(ctx context.Context, preparedItemID id.ID, lines []RecipeLine) error {
	if len(lines) == 0 {
		return apperror.NewValidation("recipe must have at least one line")
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		item, err := s.repo.GetForUpdate(ctx, preparedItemID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewNotFound("prepared_item", preparedItemID.String())
			}
			return err
		}

		if err := s.validateLines(ctx, preparedItemID, lines); err != nil {
			return err
		}

		for i := range lines {
			if id.IsNil(lines[i].ID) {
				lines[i].ID = id.New()
			}
			lines[i].PreparedItemID = preparedItemID
			lines[i].LineNo = i + 1
		}

		if err := s.repo.ReplaceRecipe(ctx, preparedItemID, lines); err != nil {
			return fmt.Errorf("replace recipe: %w", err)
		}

		item.RecipeVersion++
		if err := s.repo.Update(ctx, item); err != nil {
			return fmt.Errorf("bump recipe version: %w", err)
		}

		if s.cascader != nil {
			if err := s.cascader.CascadePreparedItemChange(ctx, preparedItemID); err != nil {
				return fmt.Errorf("cascade recipe change: %w", err)
			}
		}

		if s.audit != nil {
			changes := map[string]any{
				"recipe_version": item.RecipeVersion,
				"line_count":     len(lines),
			}
			if err := s.audit.LogChange(ctx, "prepared_item", preparedItemID, domain.AuditActionRecipeEdit, changes); err != nil {
				return fmt.Errorf("audit recipe change: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "recipe updated",
		"prepared_item_id", preparedItemID.String(),
		"lines", len(lines),
	)
	return nil
}

// validateLines checks line invariants against the ingredient catalog:
// no duplicate ingredients, active references only, and every quantity
// exactly convertible into the ingredient's base unit.
func (s *Service) validateLines(ctx context.Context, preparedItemID id.ID, lines []RecipeLine) error {
	seen := make(map[id.ID]bool, len(lines))
	for i := range lines {
		line := &lines[i]
		if err := line.Validate(ctx); err != nil {
			return err
		}

		if seen[line.IngredientID] {
			return apperror.NewValidation("duplicate ingredient in recipe").
				WithDetail("ingredientId", line.IngredientID.String())
		}
		seen[line.IngredientID] = true

		ing, err := s.ingredients.GetByID(ctx, line.IngredientID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewValidation("recipe references unknown ingredient").
					WithDetail("ingredientId", line.IngredientID.String())
			}
			return err
		}
		if !ing.Active || ing.DeletionMark {
			return apperror.NewValidation("recipe references inactive ingredient").
				WithDetail("ingredientId", line.IngredientID.String()).
				WithDetail("ingredient", ing.Name)
		}

		// Convert the real quantity, not just the unit pair: a line finer
		// than the conversion resolution must be rejected here, before it
		// can reach expansion.
		if _, err := units.ToBase(line.Quantity, line.QuantityUnit, ing.BaseUnit); err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				return appErr.WithDetail("ingredient", ing.Name)
			}
			return err
		}
	}
	return nil
}

// FindByIngredient retrieves prepared items whose recipes use the ingredient.
func (s *Service) FindByIngredient(ctx context.Context, ingredientID id.ID) ([]*PreparedItem, error) {
	return s.repo.FindByIngredient(ctx, ingredientID)
}

// ListActive retrieves all active prepared items.
func (s *Service) ListActive(ctx context.Context) ([]*PreparedItem, error) {
	return s.repo.ListActive(ctx)
}
