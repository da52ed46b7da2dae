package product

import (
	"context"

	"rasoi/internal/core/id"
	"rasoi/internal/core/types"
	"rasoi/internal/domain"
)

// Repository defines the interface for Product persistence.
type Repository interface {
	domain.CatalogRepository[*Product]

	// GetForUpdate retrieves a product with a row lock.
	GetForUpdate(ctx context.Context, id id.ID) (*Product, error)

	// GetComposition retrieves composition lines ordered by line_no.
	GetComposition(ctx context.Context, productID id.ID) ([]CompositionLine, error)

	// ReplaceComposition atomically replaces all composition lines.
	// Must run inside a transaction.
	ReplaceComposition(ctx context.Context, productID id.ID, lines []CompositionLine) error

	// FindByPreparedItem retrieves all products containing the prepared item.
	FindByPreparedItem(ctx context.Context, preparedItemID id.ID) ([]*Product, error)

	// UpdateCachedCost writes the derived cost and blocked flag without
	// touching the optimistic-locking version.
	UpdateCachedCost(ctx context.Context, productID id.ID, cost types.Money, blocked bool) error

	// ListActive retrieves all active, non-deleted products.
	ListActive(ctx context.Context) ([]*Product, error)
}
