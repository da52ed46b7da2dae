package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"rasoi/internal/core/id"
	"rasoi/internal/core/types"
	"rasoi/internal/domain/catalogs/product"
	"rasoi/internal/infrastructure/storage/postgres"
)

const (
	productTable         = "cat_products"
	compositionLineTable = "cat_product_lines"
)

// Compile-time check.
var _ product.Repository = (*ProductRepo)(nil)

// ProductRepo implements product.Repository.
type ProductRepo struct {
	*BaseCatalogRepo[*product.Product]
	txManager *postgres.TxManager
}

// NewProductRepo creates a new product repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			productTable,
			postgres.ExtractDBColumns[product.Product](),
			func() *product.Product { return &product.Product{} },
		),
		txManager: txManager,
	}
}

// GetComposition retrieves composition lines ordered by line_no.
func (r *ProductRepo) GetComposition(ctx context.Context, productID id.ID) ([]product.CompositionLine, error) {
	q := r.Builder().
		Select(postgres.ExtractDBColumns[product.CompositionLine]()...).
		From(compositionLineTable).
		Where(squirrel.Eq{"product_id": productID}).
		OrderBy("line_no ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build composition query: %w", err)
	}

	var lines []product.CompositionLine
	if err := pgxscan.Select(ctx, r.Querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get composition: %w", err)
	}

	return lines, nil
}

// ReplaceComposition atomically replaces all composition lines.
// Must run inside a transaction.
func (r *ProductRepo) ReplaceComposition(ctx context.Context, productID id.ID, lines []product.CompositionLine) error {
	if r.txManager.GetTx(ctx) == nil {
		return fmt.Errorf("ReplaceComposition requires transaction context")
	}

	delQ := r.Builder().
		Delete(compositionLineTable).
		Where(squirrel.Eq{"product_id": productID})

	sql, args, err := delQ.ToSql()
	if err != nil {
		return fmt.Errorf("build composition delete: %w", err)
	}
	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete composition lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	ins := r.Builder().
		Insert(compositionLineTable).
		Columns("id", "product_id", "prepared_item_id", "multiplier", "line_no")
	for _, line := range lines {
		ins = ins.Values(line.ID, line.ProductID, line.PreparedItemID, line.Multiplier, line.LineNo)
	}

	sql, args, err = ins.ToSql()
	if err != nil {
		return fmt.Errorf("build composition insert: %w", err)
	}
	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert composition lines: %w", err)
	}

	return nil
}

// FindByPreparedItem retrieves all products containing the prepared item,
// including inactive ones.
func (r *ProductRepo) FindByPreparedItem(ctx context.Context, preparedItemID id.ID) ([]*product.Product, error) {
	sub := fmt.Sprintf(
		"id IN (SELECT product_id FROM %s WHERE prepared_item_id = ?)",
		compositionLineTable,
	)

	q := r.baseSelect().
		Where(squirrel.Expr(sub, preparedItemID)).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("name ASC")

	return r.FindAll(ctx, q)
}

// UpdateCachedCost writes the derived cost and blocked flag without
// touching the optimistic-locking version.
func (r *ProductRepo) UpdateCachedCost(ctx context.Context, productID id.ID, cost types.Money, blocked bool) error {
	q := r.Builder().
		Update(productTable).
		Set("cached_cost", cost).
		Set("cost_blocked", blocked).
		Where(squirrel.Eq{"id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build cached cost update: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update cached cost: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("update cached cost: product %s not found", productID)
	}

	return nil
}

// ListActive retrieves all active, non-deleted products.
func (r *ProductRepo) ListActive(ctx context.Context) ([]*product.Product, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"active": true}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("name ASC")

	return r.FindAll(ctx, q)
}
