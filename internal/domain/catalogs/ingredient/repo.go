package ingredient

import (
	"context"

	"rasoi/internal/core/id"
	"rasoi/internal/domain"
)

// Repository defines the interface for Ingredient persistence.
type Repository interface {
	domain.CatalogRepository[*Ingredient]

	// GetForUpdate retrieves an ingredient with a row lock.
	GetForUpdate(ctx context.Context, id id.ID) (*Ingredient, error)

	// LockByIDs locks the given ingredient rows FOR UPDATE in ascending
	// id order and returns them. Consistent ordering keeps concurrent
	// consumption transactions deadlock-free. Must run inside a
	// transaction.
	LockByIDs(ctx context.Context, ids []id.ID) ([]*Ingredient, error)

	// ListActive retrieves all active, non-deleted ingredients.
	ListActive(ctx context.Context) ([]*Ingredient, error)
}
