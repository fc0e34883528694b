package cart

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	// GetOrCreateByUser returns the user's cart, creating an empty one on first access.
	GetOrCreateByUser(ctx context.Context, userID string) (*domain.Cart, error)
	// Save recomputes totals and replaces the persisted items with cart.Items.
	Save(ctx context.Context, cart *domain.Cart) error
}
