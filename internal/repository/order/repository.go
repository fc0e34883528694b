package order

import (
	"context"

	"storefront/internal/domain"
)

// ListFilter narrows order listings. Nil fields do not filter.
type ListFilter struct {
	UserID *string
	Status *domain.OrderStatus
}

type Repository interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, filter ListFilter, page domain.PageRequest) ([]domain.Order, int, error)
	// Update persists mutable order fields and appends newHistory, but only
	// while the stored status still equals loaded. A concurrent change makes
	// it fail with ErrInvalidState.
	Update(ctx context.Context, o *domain.Order, loaded domain.OrderStatus, newHistory []domain.StatusEntry) error
}
