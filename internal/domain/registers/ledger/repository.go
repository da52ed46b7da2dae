package ledger

import (
	"context"
	"time"

	"rasoi/internal/core/id"
	"rasoi/internal/core/types"
)

// Repository defines operations for the stock ledger register.
// Append operations also upsert the cached balance row; implementations
// must do both inside the caller's transaction.
type Repository interface {
	// Append inserts one entry and assigns its Seq.
	Append(ctx context.Context, entry *LedgerEntry) error

	// AppendAll batch inserts entries (COPY) and updates their balances.
	AppendAll(ctx context.Context, entries []*LedgerEntry) error

	// SumStock returns the authoritative balance: SUM(quantity) over all
	// entries for the ingredient. Used for every stock decision.
	SumStock(ctx context.Context, ingredientID id.ID) (types.Quantity, error)

	// SumStockMany returns authoritative balances for several ingredients
	// in one query. Missing ingredients map to zero.
	SumStockMany(ctx context.Context, ingredientIDs []id.ID) (map[id.ID]types.Quantity, error)

	// GetCachedBalance returns the cached balance row (display only).
	GetCachedBalance(ctx context.Context, ingredientID id.ID) (StockBalance, error)

	// History returns entries for an ingredient, newest first.
	History(ctx context.Context, ingredientID id.ID, filter HistoryFilter) ([]LedgerEntry, error)

	// Turnover calculates receipt and expense totals for a period.
	Turnover(ctx context.Context, filter TurnoverFilter) (Turnover, error)

	// StockAtDate reconstructs the balance as of a point in time.
	StockAtDate(ctx context.Context, ingredientID id.ID, at time.Time) (types.Quantity, error)

	// RecalculateBalance rebuilds the cached balance row from the ledger.
	RecalculateBalance(ctx context.Context, ingredientID id.ID) error
}

// HistoryFilter narrows ledger history queries.
type HistoryFilter struct {
	Kind     *EntryKind
	FromDate *time.Time
	ToDate   *time.Time
	OrderRef *string
	Limit    int
	Offset   int
}

// TurnoverFilter selects the turnover period for one ingredient.
type TurnoverFilter struct {
	IngredientID id.ID
	FromDate     time.Time
	ToDate       time.Time
}

// Turnover represents receipt/expense totals with surrounding balances.
type Turnover struct {
	IngredientID   id.ID          `json:"ingredientId"`
	OpeningBalance types.Quantity `json:"openingBalance"`
	Receipt        types.Quantity `json:"receipt"`
	Expense        types.Quantity `json:"expense"`
	ClosingBalance types.Quantity `json:"closingBalance"`
}
