package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"rasoi/internal/core/id"
	"rasoi/internal/domain/catalogs/ingredient"
	"rasoi/internal/infrastructure/storage/postgres"
)

const ingredientTable = "cat_ingredients"

// Compile-time check.
var _ ingredient.Repository = (*IngredientRepo)(nil)

// IngredientRepo implements ingredient.Repository.
type IngredientRepo struct {
	*BaseCatalogRepo[*ingredient.Ingredient]
	txManager *postgres.TxManager
}

// NewIngredientRepo creates a new ingredient repository.
func NewIngredientRepo(txManager *postgres.TxManager) *IngredientRepo {
	return &IngredientRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			ingredientTable,
			postgres.ExtractDBColumns[ingredient.Ingredient](),
			func() *ingredient.Ingredient { return &ingredient.Ingredient{} },
		),
		txManager: txManager,
	}
}

// LockByIDs locks the given ingredient rows FOR UPDATE in ascending id
// order. The fixed order keeps concurrent consumption transactions over
// overlapping ingredient sets deadlock-free.
func (r *IngredientRepo) LockByIDs(ctx context.Context, ids []id.ID) ([]*ingredient.Ingredient, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if r.txManager.GetTx(ctx) == nil {
		return nil, fmt.Errorf("LockByIDs requires transaction context")
	}

	q := r.baseSelect().
		Where(squirrel.Eq{"id": ids}).
		OrderBy("id ASC").
		Suffix("FOR UPDATE")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build lock query: %w", err)
	}

	var items []*ingredient.Ingredient
	if err := pgxscan.Select(ctx, r.Querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("lock ingredients: %w", err)
	}

	return items, nil
}

// ListActive retrieves all active, non-deleted ingredients.
func (r *IngredientRepo) ListActive(ctx context.Context) ([]*ingredient.Ingredient, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"active": true}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("name ASC")

	return r.FindAll(ctx, q)
}
