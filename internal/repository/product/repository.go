package product

import (
	"context"

	"storefront/internal/domain"
)

// ListFilter narrows catalog listings. Empty fields do not filter.
type ListFilter struct {
	CategoryKey  string
	FeaturedOnly bool
	ActiveOnly   bool
	Search       string
}

type Repository interface {
	List(ctx context.Context, filter ListFilter, page domain.PageRequest) ([]domain.Product, int, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpsertKeepStock(ctx context.Context, product domain.Product) (*domain.Product, error)
	ReserveStock(ctx context.Context, changes []domain.StockChange) ([]domain.StockResult, error)
	RestoreStock(ctx context.Context, changes []domain.StockChange) ([]domain.StockResult, error)
}
