package cart

import (
	"context"
	"io"
	"log"
	"sync"

	"storefront/internal/domain"
)

type cartRepo interface {
	GetOrCreateByUser(ctx context.Context, userID string) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

// Service applies cart mutations for a single user at a time. Each call
// reads the cart, mutates it through the domain methods and saves it.
type Service struct {
	repo     cartRepo
	products productRepo
	logger   *log.Logger
	locks    *userLocks
}

func New(repo cartRepo, products productRepo, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, products: products, logger: logger, locks: newUserLocks()}
}

func (s *Service) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	return s.repo.GetOrCreateByUser(ctx, userID)
}

func (s *Service) Summary(ctx context.Context, userID string) (domain.CartSummary, error) {
	cart, err := s.repo.GetOrCreateByUser(ctx, userID)
	if err != nil {
		return domain.CartSummary{}, err
	}
	return cart.Summary(), nil
}

// AddItem adds quantity units of productID, checking the product is active
// and that the resulting cart quantity is in stock.
func (s *Service) AddItem(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	if quantity < 1 {
		return nil, domain.Errorf(domain.ErrValidation, "Quantity must be at least 1")
	}
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, notFoundOr(err, "Product not found")
	}
	if !product.IsActive {
		return nil, domain.Errorf(domain.ErrNotFound, "Product not found")
	}

	return s.mutate(ctx, userID, func(cart *domain.Cart) error {
		want := quantity
		if item, ok := cart.Item(productID); ok {
			want += item.Quantity
		}
		if !product.HasStock(want) {
			return domain.Errorf(domain.ErrInsufficientStock, "Only %d of %s available", product.Stock, product.Name)
		}
		if cur := cart.Currency(); cur != "" && product.Currency != "" && product.Currency != cur {
			return domain.Errorf(domain.ErrValidation, "Cart items must share one currency (%s)", cur)
		}
		cart.AddItem(productID, quantity, product.PriceCents)
		return nil
	})
}

// UpdateItem sets the item's quantity; quantity <= 0 removes it.
func (s *Service) UpdateItem(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, userID, productID)
	}
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, notFoundOr(err, "Product not found")
	}

	return s.mutate(ctx, userID, func(cart *domain.Cart) error {
		if _, ok := cart.Item(productID); !ok {
			return domain.Errorf(domain.ErrNotFound, "Item not found in cart")
		}
		if !product.HasStock(quantity) {
			return domain.Errorf(domain.ErrInsufficientStock, "Only %d of %s available", product.Stock, product.Name)
		}
		cart.UpdateItemQuantity(productID, quantity)
		return nil
	})
}

func (s *Service) RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	return s.mutate(ctx, userID, func(cart *domain.Cart) error {
		cart.RemoveItem(productID)
		return nil
	})
}

func (s *Service) Clear(ctx context.Context, userID string) (*domain.Cart, error) {
	return s.mutate(ctx, userID, func(cart *domain.Cart) error {
		cart.Clear()
		return nil
	})
}

func (s *Service) mutate(ctx context.Context, userID string, fn func(*domain.Cart) error) (*domain.Cart, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	cart, err := s.repo.GetOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := fn(cart); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, cart); err != nil {
		s.logger.Printf("cart service: save user_id=%s error=%v", userID, err)
		return nil, err
	}
	// Reload so product details are joined for display.
	return s.repo.GetOrCreateByUser(ctx, userID)
}

func notFoundOr(err error, msg string) error {
	if domain.KindOf(err) == domain.ErrNotFound {
		return domain.Errorf(domain.ErrNotFound, "%s", msg)
	}
	return err
}

// userLocks hands out one mutex per user id, dropping it once unused.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*userLock)}
}

func (l *userLocks) lock(userID string) func() {
	l.mu.Lock()
	ul, ok := l.locks[userID]
	if !ok {
		ul = &userLock{}
		l.locks[userID] = ul
	}
	ul.refs++
	l.mu.Unlock()

	ul.mu.Lock()
	return func() {
		ul.mu.Unlock()
		l.mu.Lock()
		ul.refs--
		if ul.refs == 0 {
			delete(l.locks, userID)
		}
		l.mu.Unlock()
	}
}
