// Package register_repo provides PostgreSQL implementations for register
// repositories. The stock ledger is append-only: entries are inserted,
// never updated, and the cached balance row is upserted in the same
// transaction.
package register_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"rasoi/internal/core/id"
	"rasoi/internal/core/types"
	"rasoi/internal/domain/registers/ledger"
	"rasoi/internal/infrastructure/storage/postgres"
)

const (
	stockLedgerTable   = "reg_stock_ledger"
	stockBalancesTable = "reg_stock_balances"
)

// Ensure interface compliance.
var _ ledger.Repository = (*LedgerRepo)(nil)

// LedgerRepo implements ledger.Repository.
type LedgerRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewLedgerRepo creates a new stock ledger repository.
func NewLedgerRepo(txManager *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

const balanceUpsertSQL = `
	INSERT INTO reg_stock_balances (ingredient_id, quantity, last_entry_at, updated_at)
	VALUES ($1, $2, $3, now())
	ON CONFLICT (ingredient_id) DO UPDATE SET
		quantity = reg_stock_balances.quantity + EXCLUDED.quantity,
		last_entry_at = EXCLUDED.last_entry_at,
		updated_at = now()
`

// Append inserts one entry and assigns its Seq. The cached balance row
// is upserted in the same statement batch.
func (r *LedgerRepo) Append(ctx context.Context, entry *ledger.LedgerEntry) error {
	sql := `
		INSERT INTO reg_stock_ledger (
			id, ingredient_id, quantity, kind,
			order_ref, prepared_item_ref, product_ref, note, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING seq
	`

	querier := r.txManager.GetQuerier(ctx)
	err := querier.QueryRow(ctx, sql,
		entry.ID, entry.IngredientID, entry.Quantity, entry.Kind,
		entry.OrderRef, entry.PreparedItemRef, entry.ProductRef, entry.Note,
		entry.CreatedAt,
	).Scan(&entry.Seq)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}

	if _, err := querier.Exec(ctx, balanceUpsertSQL, entry.IngredientID, entry.Quantity, entry.CreatedAt); err != nil {
		return fmt.Errorf("upsert balance: %w", err)
	}

	return nil
}

// AppendAll batch inserts entries via COPY and updates cached balances,
// one coalesced upsert per ingredient. Must run inside a transaction so
// entries and balances commit together.
func (r *LedgerRepo) AppendAll(ctx context.Context, entries []*ledger.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if r.txManager.GetTx(ctx) == nil {
		return fmt.Errorf("AppendAll requires transaction context")
	}

	inserter := postgres.NewBatchInserter(r.txManager)
	columns := []string{
		"id", "ingredient_id", "quantity", "kind",
		"order_ref", "prepared_item_ref", "product_ref", "note", "created_at",
	}
	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []any{
			e.ID, e.IngredientID, e.Quantity, e.Kind,
			e.OrderRef, e.PreparedItemRef, e.ProductRef, e.Note, e.CreatedAt,
		})
	}
	if _, err := inserter.CopyFromSlice(ctx, stockLedgerTable, columns, rows); err != nil {
		return fmt.Errorf("copy ledger entries: %w", err)
	}

	// Coalesce balance deltas per ingredient, then upsert in one batch.
	deltas := make(map[id.ID]types.Quantity, len(entries))
	lastAt := make(map[id.ID]time.Time, len(entries))
	for _, e := range entries {
		deltas[e.IngredientID] += e.Quantity
		if e.CreatedAt.After(lastAt[e.IngredientID]) {
			lastAt[e.IngredientID] = e.CreatedAt
		}
	}

	executor := postgres.NewBatchExecutor(r.txManager)
	queries := make([]postgres.BatchQuery, 0, len(deltas))
	for ingredientID, delta := range deltas {
		queries = append(queries, postgres.BatchQuery{
			SQL:  balanceUpsertSQL,
			Args: []any{ingredientID, delta, lastAt[ingredientID]},
		})
	}
	if err := executor.ExecuteBatch(ctx, queries); err != nil {
		return fmt.Errorf("upsert balances: %w", err)
	}

	return nil
}

// SumStock returns the authoritative balance: SUM(quantity) over all
// entries for the ingredient.
func (r *LedgerRepo) SumStock(ctx context.Context, ingredientID id.ID) (types.Quantity, error) {
	sql := `
		SELECT COALESCE(SUM(quantity), 0)
		FROM reg_stock_ledger
		WHERE ingredient_id = $1
	`

	var sumScaled int64
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, ingredientID).Scan(&sumScaled)
	if err != nil && err != pgx.ErrNoRows {
		return 0, fmt.Errorf("sum stock: %w", err)
	}

	return types.NewQuantityFromInt64Scaled(sumScaled), nil
}

// SumStockMany returns authoritative balances for several ingredients in
// one query. Missing ingredients map to zero.
func (r *LedgerRepo) SumStockMany(ctx context.Context, ingredientIDs []id.ID) (map[id.ID]types.Quantity, error) {
	out := make(map[id.ID]types.Quantity, len(ingredientIDs))
	if len(ingredientIDs) == 0 {
		return out, nil
	}
	for _, ingredientID := range ingredientIDs {
		out[ingredientID] = 0
	}

	sql := `
		SELECT ingredient_id, COALESCE(SUM(quantity), 0)
		FROM reg_stock_ledger
		WHERE ingredient_id = ANY($1)
		GROUP BY ingredient_id
	`

	rows, err := r.txManager.GetQuerier(ctx).Query(ctx, sql, ingredientIDs)
	if err != nil {
		return nil, fmt.Errorf("sum stock many: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ingredientID id.ID
		var sumScaled int64
		if err := rows.Scan(&ingredientID, &sumScaled); err != nil {
			return nil, fmt.Errorf("scan stock sum: %w", err)
		}
		out[ingredientID] = types.NewQuantityFromInt64Scaled(sumScaled)
	}

	return out, rows.Err()
}

// GetCachedBalance returns the cached balance row. Display only; stock
// decisions read the ledger sum.
func (r *LedgerRepo) GetCachedBalance(ctx context.Context, ingredientID id.ID) (ledger.StockBalance, error) {
	var balance ledger.StockBalance

	q := r.builder.Select(
		"ingredient_id", "quantity", "last_entry_at", "updated_at",
	).From(stockBalancesTable).
		Where(squirrel.Eq{"ingredient_id": ingredientID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return balance, fmt.Errorf("build query: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &balance, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return ledger.StockBalance{IngredientID: ingredientID}, nil
		}
		return balance, fmt.Errorf("get cached balance: %w", err)
	}

	return balance, nil
}

// History returns entries for an ingredient, newest first.
func (r *LedgerRepo) History(ctx context.Context, ingredientID id.ID, filter ledger.HistoryFilter) ([]ledger.LedgerEntry, error) {
	q := r.builder.Select(
		"id", "seq", "ingredient_id", "quantity", "kind",
		"order_ref", "prepared_item_ref", "product_ref", "note", "created_at",
	).From(stockLedgerTable).
		Where(squirrel.Eq{"ingredient_id": ingredientID})

	if filter.Kind != nil {
		q = q.Where(squirrel.Eq{"kind": *filter.Kind})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *filter.ToDate})
	}
	if filter.OrderRef != nil {
		q = q.Where(squirrel.Eq{"order_ref": *filter.OrderRef})
	}

	q = q.OrderBy("seq DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []ledger.LedgerEntry
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select history: %w", err)
	}

	return entries, nil
}

// Turnover calculates receipt and expense totals for a period, with the
// surrounding balances. Receipt is the sum of positive movements,
// expense the absolute sum of negative ones.
func (r *LedgerRepo) Turnover(ctx context.Context, filter ledger.TurnoverFilter) (ledger.Turnover, error) {
	result := ledger.Turnover{IngredientID: filter.IngredientID}

	sql := `
		SELECT
			COALESCE(SUM(CASE WHEN quantity > 0 THEN quantity ELSE 0 END), 0) AS receipt,
			COALESCE(SUM(CASE WHEN quantity < 0 THEN -quantity ELSE 0 END), 0) AS expense
		FROM reg_stock_ledger
		WHERE ingredient_id = $1 AND created_at >= $2 AND created_at < $3
	`

	querier := r.txManager.GetQuerier(ctx)
	var receiptScaled, expenseScaled int64
	err := querier.QueryRow(ctx, sql, filter.IngredientID, filter.FromDate, filter.ToDate).
		Scan(&receiptScaled, &expenseScaled)
	if err != nil && err != pgx.ErrNoRows {
		return result, fmt.Errorf("calculate turnover: %w", err)
	}
	result.Receipt = types.NewQuantityFromInt64Scaled(receiptScaled)
	result.Expense = types.NewQuantityFromInt64Scaled(expenseScaled)

	openingSQL := `
		SELECT COALESCE(SUM(quantity), 0)
		FROM reg_stock_ledger
		WHERE ingredient_id = $1 AND created_at < $2
	`

	var openingScaled int64
	err = querier.QueryRow(ctx, openingSQL, filter.IngredientID, filter.FromDate).Scan(&openingScaled)
	if err != nil && err != pgx.ErrNoRows {
		return result, fmt.Errorf("calculate opening balance: %w", err)
	}
	result.OpeningBalance = types.NewQuantityFromInt64Scaled(openingScaled)

	result.ClosingBalance = result.OpeningBalance + result.Receipt - result.Expense

	return result, nil
}

// StockAtDate reconstructs the balance as of a point in time.
func (r *LedgerRepo) StockAtDate(ctx context.Context, ingredientID id.ID, at time.Time) (types.Quantity, error) {
	sql := `
		SELECT COALESCE(SUM(quantity), 0)
		FROM reg_stock_ledger
		WHERE ingredient_id = $1 AND created_at <= $2
	`

	var sumScaled int64
	err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, ingredientID, at).Scan(&sumScaled)
	if err != nil && err != pgx.ErrNoRows {
		return 0, fmt.Errorf("stock at date: %w", err)
	}

	return types.NewQuantityFromInt64Scaled(sumScaled), nil
}

// RecalculateBalance rebuilds the cached balance row from the ledger,
// for reconciliation after manual intervention.
func (r *LedgerRepo) RecalculateBalance(ctx context.Context, ingredientID id.ID) error {
	sql := `
		INSERT INTO reg_stock_balances (ingredient_id, quantity, last_entry_at, updated_at)
		SELECT $1,
		       COALESCE(SUM(quantity), 0),
		       COALESCE(MAX(created_at), now()),
		       now()
		FROM reg_stock_ledger
		WHERE ingredient_id = $1
		ON CONFLICT (ingredient_id) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			last_entry_at = EXCLUDED.last_entry_at,
			updated_at = now()
	`

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, ingredientID); err != nil {
		return fmt.Errorf("recalculate balance: %w", err)
	}

	return nil
}
