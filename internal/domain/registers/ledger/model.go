// Package ledger provides the append-only stock ledger register.
// Every stock change is an immutable signed entry; current stock is the
// sum of entries, with a cached balance row maintained alongside.
package ledger

import (
	"context"
	"time"

	"rasoi/internal/core/apperror"
	"rasoi/internal/core/id"
	"rasoi/internal/core/types"
)

// EntryKind classifies a ledger entry.
type EntryKind string

const (
	// KindOpening seeds the initial balance. Positive.
	KindOpening EntryKind = "opening"
	// KindPurchase records goods received. Positive.
	KindPurchase EntryKind = "purchase"
	// KindConsumption records order fulfilment. Negative.
	KindConsumption EntryKind = "consumption"
	// KindAdjustment corrects stock in either direction; also used for
	// kitchen batch pre-production (negative).
	KindAdjustment EntryKind = "adjustment"
	// KindWastage records spoilage and breakage. Negative.
	KindWastage EntryKind = "wastage"
)

// IsValid reports whether k is a known entry kind.
func (k EntryKind) IsValid() bool {
	switch k {
	case KindOpening, KindPurchase, KindConsumption, KindAdjustment, KindWastage:
		return true
	}
	return false
}

// LedgerEntry is one immutable stock movement in base units.
// Entries are never updated or deleted; corrections are new adjustments.
type LedgerEntry struct {
	// ID is the entry primary key (UUIDv7).
	ID id.ID `db:"id" json:"id"`

	// Seq is a monotonic sequence assigned by the database on insert.
	// Gives a total order even when created_at collides.
	Seq int64 `db:"seq" json:"seq"`

	// IngredientID is the ingredient this entry moves.
	IngredientID id.ID `db:"ingredient_id" json:"ingredientId"`

	// Quantity is the signed movement in the ingredient's base unit.
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	// Kind classifies the movement.
	Kind EntryKind `db:"kind" json:"kind"`

	// OrderRef links consumption entries to the order that caused them.
	OrderRef *string `db:"order_ref" json:"orderRef,omitempty"`

	// PreparedItemRef links batch-prep adjustments to the prepared item.
	PreparedItemRef *id.ID `db:"prepared_item_ref" json:"preparedItemRef,omitempty"`

	// ProductRef links consumption entries to the combo product.
	ProductRef *id.ID `db:"product_ref" json:"productRef,omitempty"`

	// Note is a free-form annotation.
	Note *string `db:"note" json:"note,omitempty"`

	// CreatedAt is when the entry was recorded.
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewEntry creates a ledger entry with generated ID and timestamp.
// Seq is assigned by the database.
func NewEntry(ingredientID id.ID, qty types.Quantity, kind EntryKind) *LedgerEntry {
	return &LedgerEntry{
		ID:           id.New(),
		IngredientID: ingredientID,
		Quantity:     qty,
		Kind:         kind,
		CreatedAt:    time.Now().UTC(),
	}
}

// Validate checks entry invariants. Sign discipline is per kind:
// opening and purchase add stock, consumption and wastage remove it,
// adjustment goes either way. The resulting balance is deliberately not
// checked here; only the consumption transaction guards against
// overdraft.
func (e *LedgerEntry) Validate(ctx context.Context) error {
	if id.IsNil(e.IngredientID) {
		return apperror.NewValidation("ingredient is required").
			WithDetail("field", "ingredientId")
	}
	if !e.Kind.IsValid() {
		return apperror.NewValidation("invalid entry kind").
			WithDetail("field", "kind").
			WithDetail("value", string(e.Kind))
	}
	if e.Quantity.IsZero() {
		return apperror.NewValidation("quantity cannot be zero").
			WithDetail("field", "quantity")
	}

	switch e.Kind {
	case KindOpening, KindPurchase:
		if e.Quantity.IsNegative() {
			return apperror.NewValidation("receipt entries must be positive").
				WithDetail("kind", string(e.Kind))
		}
	case KindConsumption, KindWastage:
		if e.Quantity.IsPositive() {
			return apperror.NewValidation("expense entries must be negative").
				WithDetail("kind", string(e.Kind))
		}
	}

	return nil
}

// StockBalance is the cached per-ingredient balance row. It is upserted
// in the same transaction as every append; the ledger sum stays
// authoritative for decisions.
type StockBalance struct {
	IngredientID id.ID          `db:"ingredient_id" json:"ingredientId"`
	Quantity     types.Quantity `db:"quantity" json:"quantity"`

	LastEntryAt time.Time `db:"last_entry_at" json:"lastEntryAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}
