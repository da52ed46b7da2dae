package prepareditem

import (
	"context"

	"rasoi/internal/core/id"
	"rasoi/internal/core/types"
	"rasoi/internal/domain"
)

// Repository defines the interface for PreparedItem persistence.
type Repository interface {
	domain.CatalogRepository[*PreparedItem]

	// GetForUpdate retrieves a prepared item with a row lock.
	GetForUpdate(ctx context.Context, id id.ID) (*PreparedItem, error)

	// GetRecipe retrieves recipe lines ordered by line_no.
	GetRecipe(ctx context.Context, preparedItemID id.ID) ([]RecipeLine, error)

	// ReplaceRecipe atomically replaces all recipe lines for an item.
	// Must run inside a transaction.
	ReplaceRecipe(ctx context.Context, preparedItemID id.ID, lines []RecipeLine) error

	// FindByIngredient retrieves all prepared items whose recipe uses the
	// ingredient, including inactive ones (their cached costs still exist).
	FindByIngredient(ctx context.Context, ingredientID id.ID) ([]*PreparedItem, error)

	// UpdateCachedCost writes the derived cost and blocked flag without
	// touching the optimistic-locking version.
	UpdateCachedCost(ctx context.Context, preparedItemID id.ID, cost types.Money, blocked bool) error

	// ListActive retrieves all active, non-deleted prepared items.
	ListActive(ctx context.Context) ([]*PreparedItem, error)
}
