// Package product provides the Product catalog: sellable combos composed
// of prepared items with integer multipliers.
package product

import (
	"context"

	"rasoi/internal/core/apperror"
	"rasoi/internal/core/entity"
	"rasoi/internal/core/id"
	"rasoi/internal/core/types"
)

// CodePrefix for auto-generated product codes (CMB-2026-00001).
const CodePrefix = "CMB"

// Product represents a sellable combo on the menu.
type Product struct {
	entity.Catalog

	// SellingPrice is the menu price of the combo.
	SellingPrice types.Money `db:"selling_price" json:"sellingPrice"`

	// ServePersons is how many people the combo serves.
	ServePersons int `db:"serve_persons" json:"servePersons"`

	// Featured marks the product for menu highlighting.
	Featured bool `db:"featured" json:"featured"`

	// Active controls menu visibility and order eligibility.
	Active bool `db:"active" json:"active"`

	// CachedCost is the derived total ingredient cost, maintained by the
	// cost cascade. Never set directly.
	CachedCost types.Money `db:"cached_cost" json:"cachedCost"`

	// CostBlocked is true when any component prepared item is blocked.
	CostBlocked bool `db:"cost_blocked" json:"costBlocked"`
}

// New creates a Product with defaults. Code is generated on save.
func New(name string, sellingPrice types.Money) *Product {
	return &Product{
		Catalog:      entity.NewCatalog("", name),
		SellingPrice: sellingPrice,
		ServePersons: 1,
		Active:       true,
		CachedCost:   types.ZeroMoney(),
	}
}

// Validate implements entity.Validatable.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	if p.SellingPrice.IsNegative() {
		return apperror.NewValidation("selling price cannot be negative").
			WithDetail("field", "sellingPrice")
	}

	if p.ServePersons <= 0 {
		return apperror.NewValidation("serve persons must be positive").
			WithDetail("field", "servePersons")
	}

	return nil
}

// Profit returns selling price minus cached cost. Only meaningful when
// the cost is not blocked.
func (p *Product) Profit() types.Money {
	return p.SellingPrice.Sub(p.CachedCost)
}

// CompositionLine binds a prepared item with an integer multiplier to a
// product. Unique per (product, prepared item).
type CompositionLine struct {
	ID             id.ID `db:"id" json:"id"`
	ProductID      id.ID `db:"product_id" json:"productId"`
	PreparedItemID id.ID `db:"prepared_item_id" json:"preparedItemId"`

	// Multiplier is how many servings of the prepared item one combo
	// contains. Always a positive integer.
	Multiplier int `db:"multiplier" json:"multiplier"`

	// LineNo keeps composition display and bottleneck resolution stable.
	LineNo int `db:"line_no" json:"lineNo"`
}

// Validate checks line invariants.
func (l *CompositionLine) Validate(ctx context.Context) error {
	if id.IsNil(l.PreparedItemID) {
		return apperror.NewValidation("prepared item is required").
			WithDetail("field", "preparedItemId")
	}
	if l.Multiplier <= 0 {
		return apperror.NewValidation("multiplier must be a positive integer").
			WithDetail("field", "multiplier")
	}
	return nil
}
