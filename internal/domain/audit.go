package domain

import (
	"context"

	"rasoi/internal/core/id"
)

// Audit actions recorded for catalog changes.
const (
	AuditActionCreate     = "create"
	AuditActionUpdate     = "update"
	AuditActionDelete     = "delete"
	AuditActionPriceSet   = "price_set"
	AuditActionRecipeEdit = "recipe_edit"
)

// AuditLogger records catalog changes. The postgres implementation
// compresses large payloads; domain code only sees this interface.
type AuditLogger interface {
	LogChange(ctx context.Context, entityType string, entityID id.ID, action string, changes map[string]any) error
}

// CostCascader recomputes cached recipe costs after a catalog change.
// Implemented by the bom service; catalog services call it inside the
// same transaction as the triggering write so no stale cost is ever
// visible.
type CostCascader interface {
	// CascadeIngredientChange recomputes every prepared item using the
	// ingredient, then every product containing those items.
	CascadeIngredientChange(ctx context.Context, ingredientID id.ID) error

	// CascadePreparedItemChange recomputes the prepared item's own cost,
	// then every product containing it.
	CascadePreparedItemChange(ctx context.Context, preparedItemID id.ID) error

	// CascadeProductChange recomputes a single product's cached cost.
	CascadeProductChange(ctx context.Context, productID id.ID) error
}
