package product

import (
	"context"
	"strings"

	"storefront/internal/domain"
	productrepo "storefront/internal/repository/product"
)

type Service struct {
	repo productrepo.Repository
}

func New(repo productrepo.Repository) *Service {
	return &Service{repo: repo}
}

// ListQuery is the public catalog browse request.
type ListQuery struct {
	CategoryKey  string
	FeaturedOnly bool
	Search       string
	Page         int
	Limit        int
}

// List returns active products only, featured first.
func (s *Service) List(ctx context.Context, q ListQuery) ([]domain.Product, domain.PageInfo, error) {
	page := domain.NewPageRequest(q.Page, q.Limit)
	items, total, err := s.repo.List(ctx, productrepo.ListFilter{
		CategoryKey:  strings.TrimSpace(q.CategoryKey),
		FeaturedOnly: q.FeaturedOnly,
		ActiveOnly:   true,
		Search:       strings.TrimSpace(q.Search),
	}, page)
	if err != nil {
		return nil, domain.PageInfo{}, err
	}
	return items, page.Info(total), nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}
