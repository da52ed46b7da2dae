package dto

import (
	"time"

	"rasoi/internal/core/types"
	"rasoi/internal/domain/registers/ledger"
)

// --- Request DTOs ---

// AppendEntryRequest records one stock movement. The quantity sign must
// match the entry kind: receipts positive, expenses negative.
type AppendEntryRequest struct {
	IngredientID string         `json:"ingredientId" binding:"required"`
	Quantity     types.Quantity `json:"quantity" binding:"required"`
	Kind         string         `json:"kind" binding:"required"`
	OrderRef     *string        `json:"orderRef"`
	Note         *string        `json:"note"`
}

// HistoryQuery narrows ledger history requests.
type HistoryQuery struct {
	Kind     string     `form:"kind"`
	From     *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To       *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	OrderRef string     `form:"orderRef"`
	Limit    int        `form:"limit"`
	Offset   int        `form:"offset"`
}

// TurnoverQuery selects the turnover period.
type TurnoverQuery struct {
	From time.Time `form:"from" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	To   time.Time `form:"to" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
}

// --- Response DTOs ---

// LedgerEntryResponse is one ledger entry.
type LedgerEntryResponse struct {
	ID              string         `json:"id"`
	Seq             int64          `json:"seq"`
	IngredientID    string         `json:"ingredientId"`
	Quantity        types.Quantity `json:"quantity"`
	Kind            string         `json:"kind"`
	OrderRef        *string        `json:"orderRef,omitempty"`
	PreparedItemRef *string        `json:"preparedItemRef,omitempty"`
	ProductRef      *string        `json:"productRef,omitempty"`
	Note            *string        `json:"note,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
}

// FromLedgerEntry creates response DTO from a ledger entry.
func FromLedgerEntry(e *ledger.LedgerEntry) *LedgerEntryResponse {
	resp := &LedgerEntryResponse{
		ID:           e.ID.String(),
		Seq:          e.Seq,
		IngredientID: e.IngredientID.String(),
		Quantity:     e.Quantity,
		Kind:         string(e.Kind),
		OrderRef:     e.OrderRef,
		Note:         e.Note,
		CreatedAt:    e.CreatedAt,
	}
	if e.PreparedItemRef != nil {
		s := e.PreparedItemRef.String()
		resp.PreparedItemRef = &s
	}
	if e.ProductRef != nil {
		s := e.ProductRef.String()
		resp.ProductRef = &s
	}
	return resp
}

// StockResponse reports the current balance for an ingredient.
type StockResponse struct {
	IngredientID string         `json:"ingredientId"`
	Stock        types.Quantity `json:"stock"`
	Unit         string         `json:"unit"`
}

// StockValueResponse reports stock valued at the current unit cost.
type StockValueResponse struct {
	IngredientID string         `json:"ingredientId"`
	Stock        types.Quantity `json:"stock"`
	TotalValue   types.Money    `json:"totalValue"`
}

// TurnoverResponse reports receipt/expense totals with surrounding balances.
type TurnoverResponse struct {
	IngredientID   string         `json:"ingredientId"`
	From           time.Time      `json:"from"`
	To             time.Time      `json:"to"`
	OpeningBalance types.Quantity `json:"openingBalance"`
	Receipt        types.Quantity `json:"receipt"`
	Expense        types.Quantity `json:"expense"`
	ClosingBalance types.Quantity `json:"closingBalance"`
}

// FromTurnover creates response DTO from a turnover calculation.
func FromTurnover(t ledger.Turnover, from, to time.Time) *TurnoverResponse {
	return &TurnoverResponse{
		IngredientID:   t.IngredientID.String(),
		From:           from,
		To:             to,
		OpeningBalance: t.OpeningBalance,
		Receipt:        t.Receipt,
		Expense:        t.Expense,
		ClosingBalance: t.ClosingBalance,
	}
}
