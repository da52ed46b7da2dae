// Package consumption implements the atomic stock deduction transaction:
// expand a sold basket through the bill of materials, lock the involved
// ingredients in a fixed order, validate sufficiency under the locks and
// append coalesced negative ledger entries — all or nothing.
package consumption

import (
	"context"

	"rasoi/internal/core/apperror"
	"rasoi/internal/core/id"
	"rasoi/internal/core/types"
)

// ItemLine is a purchased standalone prepared item or addon.
type ItemLine struct {
	PreparedItemID id.ID `json:"preparedItemId"`
	Quantity       int64 `json:"quantity"`
}

// ProductLine is a purchased combo, optionally with addon lines.
type ProductLine struct {
	ProductID id.ID      `json:"productId"`
	Quantity  int64      `json:"quantity"`
	Addons    []ItemLine `json:"addons,omitempty"`
}

// Basket describes one customer purchase to be consumed from stock.
type Basket struct {
	// OrderRef ties the resulting ledger entries back to the order.
	OrderRef string `json:"orderRef"`

	// Products are purchased combos.
	Products []ProductLine `json:"products,omitempty"`

	// Items are standalone prepared items purchased directly.
	Items []ItemLine `json:"items,omitempty"`
}

// Validate checks basket shape before any catalog read.
func (b *Basket) Validate(ctx context.Context) error {
	if len(b.Products) == 0 && len(b.Items) == 0 {
		return apperror.NewValidation("basket is empty")
	}
	if b.OrderRef == "" {
		return apperror.NewValidation("order reference is required").
			WithDetail("field", "orderRef")
	}

	for _, line := range b.Products {
		if id.IsNil(line.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "productId")
		}
		if line.Quantity <= 0 {
			return apperror.NewValidation("product quantity must be a positive integer").
				WithDetail("productId", line.ProductID.String())
		}
		for _, addon := range line.Addons {
			if err := addon.validate(); err != nil {
				return err
			}
		}
	}
	for _, line := range b.Items {
		if err := line.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (l *ItemLine) validate() error {
	if id.IsNil(l.PreparedItemID) {
		return apperror.NewValidation("prepared item is required").
			WithDetail("field", "preparedItemId")
	}
	if l.Quantity <= 0 {
		return apperror.NewValidation("item quantity must be a positive integer").
			WithDetail("preparedItemId", l.PreparedItemID.String())
	}
	return nil
}

// Status of a finished consumption attempt.
type Status string

const (
	StatusCommitted Status = "committed"
	StatusRejected  Status = "rejected"
)

// CommitResult reports a successful consumption.
type CommitResult struct {
	Status Status `json:"status"`

	// LedgerEntryIDs are the appended consumption entries, one per
	// ingredient.
	LedgerEntryIDs []id.ID `json:"ledgerEntryIds"`

	// Consumed is the per-ingredient base-unit demand that was deducted.
	Consumed map[id.ID]types.Quantity `json:"consumed"`
}
