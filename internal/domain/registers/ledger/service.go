package ledger

import (
	"context"
	"fmt"
	"time"

	"rasoi/internal/core/apperror"
	"rasoi/internal/core/id"
	"rasoi/internal/core/tx"
	"rasoi/internal/core/types"
	"rasoi/internal/domain/catalogs/ingredient"
	"rasoi/pkg/logger"
)

// Service provides business operations for the stock ledger.
type Service struct {
	repo        Repository
	ingredients ingredient.Repository
	txManager   tx.Manager
}

// NewService creates a new ledger service.
func NewService(repo Repository, ingredients ingredient.Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:        repo,
		ingredients: ingredients,
		txManager:   txManager,
	}
}

// Append validates and records a single entry. The cached balance is
// updated in the same transaction.
func (s *Service) Append(ctx context.Context, entry *LedgerEntry) error {
	if err := entry.Validate(ctx); err != nil {
		return err
	}

	if exists, err := s.ingredients.Exists(ctx, entry.IngredientID); err != nil {
		return err
	} else if !exists {
		return apperror.NewNotFound("ingredient", entry.IngredientID.String())
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Append(ctx, entry); err != nil {
			return fmt.Errorf("append ledger entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "ledger entry recorded",
		"ingredient_id", entry.IngredientID.String(),
		"kind", string(entry.Kind),
		"quantity", entry.Quantity.String(),
	)
	return nil
}

// AppendAll validates and records multiple entries atomically.
func (s *Service) AppendAll(ctx context.Context, entries []*LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}

	for i, entry := range entries {
		if err := entry.Validate(ctx); err != nil {
			return apperror.NewValidation(fmt.Sprintf("entry %d: %v", i, err))
		}
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.AppendAll(ctx, entries); err != nil {
			return fmt.Errorf("append ledger entries: %w", err)
		}
		return nil
	})
}

// CurrentStock returns the authoritative balance for an ingredient.
func (s *Service) CurrentStock(ctx context.Context, ingredientID id.ID) (types.Quantity, error) {
	if exists, err := s.ingredients.Exists(ctx, ingredientID); err != nil {
		return 0, err
	} else if !exists {
		return 0, apperror.NewNotFound("ingredient", ingredientID.String())
	}
	return s.repo.SumStock(ctx, ingredientID)
}

// CurrentStockMany returns authoritative balances for several ingredients.
func (s *Service) CurrentStockMany(ctx context.Context, ingredientIDs []id.ID) (map[id.ID]types.Quantity, error) {
	return s.repo.SumStockMany(ctx, ingredientIDs)
}

// TotalValue returns current stock times the ingredient's unit cost,
// rounded to currency precision.
func (s *Service) TotalValue(ctx context.Context, ingredientID id.ID) (types.Money, error) {
	ing, err := s.ingredients.GetByID(ctx, ingredientID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return types.ZeroMoney(), apperror.NewNotFound("ingredient", ingredientID.String())
		}
		return types.ZeroMoney(), err
	}

	stock, err := s.repo.SumStock(ctx, ingredientID)
	if err != nil {
		return types.ZeroMoney(), err
	}

	return types.RoundMoney(stock.Decimal().Mul(ing.UnitCost)), nil
}

// History returns ledger entries for an ingredient, newest first.
func (s *Service) History(ctx context.Context, ingredientID id.ID, filter HistoryFilter) ([]LedgerEntry, error) {
	if exists, err := s.ingredients.Exists(ctx, ingredientID); err != nil {
		return nil, err
	} else if !exists {
		return nil, apperror.NewNotFound("ingredient", ingredientID.String())
	}
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	return s.repo.History(ctx, ingredientID, filter)
}

// GetTurnover calculates receipt/expense totals for a period.
func (s *Service) GetTurnover(ctx context.Context, filter TurnoverFilter) (Turnover, error) {
	if filter.ToDate.Before(filter.FromDate) {
		return Turnover{}, apperror.NewValidation("turnover period is inverted").
			WithDetail("from", filter.FromDate).
			WithDetail("to", filter.ToDate)
	}
	return s.repo.Turnover(ctx, filter)
}

// StockAtDate reconstructs the balance as of a point in time.
func (s *Service) StockAtDate(ctx context.Context, ingredientID id.ID, at time.Time) (types.Quantity, error) {
	return s.repo.StockAtDate(ctx, ingredientID, at)
}

// RecalculateBalance rebuilds the cached balance from the ledger,
// for reconciliation after manual intervention.
func (s *Service) RecalculateBalance(ctx context.Context, ingredientID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.RecalculateBalance(ctx, ingredientID)
	})
}
