package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"rasoi/internal/core/id"
	"rasoi/internal/core/types"
	"rasoi/internal/domain/catalogs/prepareditem"
	"rasoi/internal/infrastructure/storage/postgres"
)

const (
	preparedItemTable = "cat_prepared_items"
	recipeLineTable   = "cat_recipe_lines"
)

// Compile-time check.
var _ prepareditem.Repository = (*PreparedItemRepo)(nil)

// PreparedItemRepo implements prepareditem.Repository.
type PreparedItemRepo struct {
	*BaseCatalogRepo[*prepareditem.PreparedItem]
	txManager *postgres.TxManager
}

// NewPreparedItemRepo creates a new prepared item repository.
func NewPreparedItemRepo(txManager *postgres.TxManager) *PreparedItemRepo {
	return &PreparedItemRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			preparedItemTable,
			postgres.ExtractDBColumns[prepareditem.PreparedItem](),
			func() *prepareditem.PreparedItem { return &prepareditem.PreparedItem{} },
		),
		txManager: txManager,
	}
}

// GetRecipe retrieves recipe lines ordered by line_no.
func (r *PreparedItemRepo) GetRecipe(ctx context.Context, preparedItemID id.ID) ([]prepareditem.RecipeLine, error) {
	q := r.Builder().
		Select(postgres.ExtractDBColumns[prepareditem.RecipeLine]()...).
		From(recipeLineTable).
		Where(squirrel.Eq{"prepared_item_id": preparedItemID}).
		OrderBy("line_no ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build recipe query: %w", err)
	}

	var lines []prepareditem.RecipeLine
	if err := pgxscan.Select(ctx, r.Querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get recipe: %w", err)
	}

	return lines, nil
}

// ReplaceRecipe atomically replaces all recipe lines for an item.
// Must run inside a transaction.
func (r *PreparedItemRepo) ReplaceRecipe(ctx context.Context, preparedItemID id.ID, lines []prepareditem.RecipeLine) error {
	if r.txManager.GetTx(ctx) == nil {
		return fmt.Errorf("ReplaceRecipe requires transaction context")
	}

	delQ := r.Builder().
		Delete(recipeLineTable).
		Where(squirrel.Eq{"prepared_item_id": preparedItemID})

	sql, args, err := delQ.ToSql()
	if err != nil {
		return fmt.Errorf("build recipe delete: %w", err)
	}
	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete recipe lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	ins := r.Builder().
		Insert(recipeLineTable).
		Columns("id", "prepared_item_id", "ingredient_id", "quantity", "quantity_unit", "line_no")
	for _, line := range lines {
		ins = ins.Values(line.ID, line.PreparedItemID, line.IngredientID, line.Quantity, line.QuantityUnit, line.LineNo)
	}

	sql, args, err = ins.ToSql()
	if err != nil {
		return fmt.Errorf("build recipe insert: %w", err)
	}
	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert recipe lines: %w", err)
	}

	return nil
}

// FindByIngredient retrieves all prepared items whose recipe uses the
// ingredient, including inactive ones.
func (r *PreparedItemRepo) FindByIngredient(ctx context.Context, ingredientID id.ID) ([]*prepareditem.PreparedItem, error) {
	sub := fmt.Sprintf(
		"id IN (SELECT prepared_item_id FROM %s WHERE ingredient_id = ?)",
		recipeLineTable,
	)

	q := r.baseSelect().
		Where(squirrel.Expr(sub, ingredientID)).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("name ASC")

	return r.FindAll(ctx, q)
}

// UpdateCachedCost writes the derived cost and blocked flag. The
// optimistic-locking version is untouched: derived state is not a user
// edit.
func (r *PreparedItemRepo) UpdateCachedCost(ctx context.Context, preparedItemID id.ID, cost types.Money, blocked bool) error {
	q := r.Builder().
		Update(preparedItemTable).
		Set("cached_cost", cost).
		Set("cost_blocked", blocked).
		Where(squirrel.Eq{"id": preparedItemID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build cached cost update: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update cached cost: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("update cached cost: prepared item %s not found", preparedItemID)
	}

	return nil
}

// ListActive retrieves all active, non-deleted prepared items.
func (r *PreparedItemRepo) ListActive(ctx context.Context) ([]*prepareditem.PreparedItem, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"active": true}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("name ASC")

	return r.FindAll(ctx, q)
}
