package order

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"storefront/internal/domain"
	orderrepo "storefront/internal/repository/order"

	"github.com/google/uuid"
)

type orderRepo interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, filter orderrepo.ListFilter, page domain.PageRequest) ([]domain.Order, int, error)
	Update(ctx context.Context, o *domain.Order, loaded domain.OrderStatus, newHistory []domain.StatusEntry) error
}

type productRepo interface {
	GetByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
	ReserveStock(ctx context.Context, changes []domain.StockChange) ([]domain.StockResult, error)
	RestoreStock(ctx context.Context, changes []domain.StockChange) ([]domain.StockResult, error)
}

type cartRepo interface {
	GetOrCreateByUser(ctx context.Context, userID string) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
}

// Service turns carts or client-supplied item lists into orders and drives
// the order lifecycle. Stock is reserved atomically before the order is
// stored and handed back if storing fails.
type Service struct {
	orders   orderRepo
	products productRepo
	carts    cartRepo
	logger   *log.Logger
	now      func() time.Time
	newID    func() string
}

func New(orders orderRepo, products productRepo, carts cartRepo, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{
		orders:   orders,
		products: products,
		carts:    carts,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// Actor identifies the caller. The zero value is an anonymous guest.
type Actor struct {
	UserID  string
	IsAdmin bool
}

// canAccess lets admins see everything, owners see their orders and anyone
// holding a guest order's id see that order.
func (a Actor) canAccess(o *domain.Order) bool {
	if a.IsAdmin || o.UserID == nil {
		return true
	}
	return a.UserID != "" && o.OwnedBy(a.UserID)
}

type ItemInput struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type CheckoutInput struct {
	ShippingAddress domain.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   domain.PaymentMethod   `json:"paymentMethod"`
	Notes           string                 `json:"notes,omitempty"`
}

// CreateFromCart places an order for everything in the user's cart and
// clears the cart once the order is stored.
func (s *Service) CreateFromCart(ctx context.Context, userID string, in CheckoutInput) (*domain.Order, error) {
	cart, err := s.carts.GetOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, domain.Errorf(domain.ErrEmptyCart, "Your cart is empty")
	}
	items := make([]ItemInput, 0, len(cart.Items))
	for _, it := range cart.Items {
		items = append(items, ItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	o, err := s.create(ctx, &userID, items, in)
	if err != nil {
		return nil, err
	}

	cart.Clear()
	if err := s.carts.Save(ctx, cart); err != nil {
		s.logger.Printf("order service: clear cart user_id=%s order_id=%s error=%v", userID, o.ID, err)
	}
	return o, nil
}

// CreateFromItems places an order from a client-supplied item list. userID
// is nil for guest checkout.
func (s *Service) CreateFromItems(ctx context.Context, userID *string, items []ItemInput, in CheckoutInput) (*domain.Order, error) {
	if len(items) == 0 {
		return nil, domain.Errorf(domain.ErrEmptyItemList, "No order items")
	}
	return s.create(ctx, userID, items, in)
}

func (s *Service) create(ctx context.Context, userID *string, items []ItemInput, in CheckoutInput) (*domain.Order, error) {
	if err := in.ShippingAddress.Validate(); err != nil {
		return nil, err
	}
	if !in.PaymentMethod.Valid() {
		return nil, domain.Errorf(domain.ErrValidation, "Unsupported payment method %q", in.PaymentMethod)
	}

	changes := make([]domain.StockChange, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.ProductID) == "" {
			return nil, domain.Errorf(domain.ErrValidation, "Order item is missing productId")
		}
		if it.Quantity < 1 {
			return nil, domain.Errorf(domain.ErrValidation, "Quantity must be at least 1")
		}
		changes = append(changes, domain.StockChange{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	changes = domain.MergeStockChanges(changes)

	ids := make([]string, len(changes))
	for i, ch := range changes {
		ids[i] = ch.ProductID
	}
	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	var currency string
	snapshot := make([]domain.OrderItem, 0, len(changes))
	for _, ch := range changes {
		p, ok := products[ch.ProductID]
		if !ok || !p.IsActive {
			return nil, domain.Errorf(domain.ErrNotFound, "Product not found: %s", ch.ProductID)
		}
		if !p.HasStock(ch.Quantity) {
			return nil, domain.Errorf(domain.ErrInsufficientStock, "Insufficient stock for %s: available %d, requested %d", p.Name, p.Stock, ch.Quantity)
		}
		if currency == "" {
			currency = p.Currency
		} else if p.Currency != currency {
			return nil, domain.Errorf(domain.ErrValidation, "Order items must share one currency")
		}
		snapshot = append(snapshot, domain.OrderItem{
			ProductID:  p.ID,
			Name:       p.Name,
			Image:      p.PrimaryImage(),
			PriceCents: p.PriceCents,
			Quantity:   ch.Quantity,
		})
	}

	if _, err := s.products.ReserveStock(ctx, changes); err != nil {
		return nil, err
	}

	o := domain.NewOrder(s.newID(), userID, snapshot, in.ShippingAddress, in.PaymentMethod, currency, s.now())
	o.Notes = strings.TrimSpace(in.Notes)
	if err := s.orders.Create(ctx, o); err != nil {
		s.logger.Printf("order service: persist order_id=%s error=%v", o.ID, err)
		if _, rerr := s.products.RestoreStock(ctx, changes); rerr != nil {
			s.logger.Printf("order service: release reserved stock order_id=%s error=%v", o.ID, rerr)
		}
		return nil, err
	}
	s.logger.Printf("order service: created order_id=%s items=%d total_cents=%d", o.ID, len(o.Items), o.TotalPriceCents)
	return o, nil
}

func (s *Service) Get(ctx context.Context, actor Actor, id string) (*domain.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, orderNotFoundOr(err)
	}
	if !actor.canAccess(o) {
		return nil, domain.Errorf(domain.ErrNotFound, "Order not found")
	}
	return o, nil
}

// ListQuery filters order listings. A nil UserID lists every user's orders.
type ListQuery struct {
	UserID *string
	Status string
	Page   int
	Limit  int
}

func (s *Service) List(ctx context.Context, q ListQuery) ([]domain.Order, domain.PageInfo, error) {
	filter := orderrepo.ListFilter{UserID: q.UserID}
	if strings.TrimSpace(q.Status) != "" {
		st, err := domain.ParseOrderStatus(q.Status)
		if err != nil {
			return nil, domain.PageInfo{}, err
		}
		filter.Status = &st
	}
	page := domain.NewPageRequest(q.Page, q.Limit)
	orders, total, err := s.orders.List(ctx, filter, page)
	if err != nil {
		return nil, domain.PageInfo{}, err
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, page.Info(total), nil
}

func (s *Service) MarkPaid(ctx context.Context, actor Actor, id string, result domain.PaymentResult) (*domain.Order, error) {
	o, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	loaded, before := o.Status, len(o.StatusHistory)
	if err := o.MarkPaid(result, s.now()); err != nil {
		return nil, err
	}
	if err := s.orders.Update(ctx, o, loaded, o.StatusHistory[before:]); err != nil {
		return nil, err
	}
	s.logger.Printf("order service: paid order_id=%s payment_id=%s", o.ID, result.ID)
	return o, nil
}

func (s *Service) MarkDelivered(ctx context.Context, id string) (*domain.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, orderNotFoundOr(err)
	}
	loaded, before := o.Status, len(o.StatusHistory)
	if err := o.MarkDelivered(s.now()); err != nil {
		return nil, err
	}
	if err := s.orders.Update(ctx, o, loaded, o.StatusHistory[before:]); err != nil {
		return nil, err
	}
	return o, nil
}

// CancelResult carries the cancelled order and the per-item stock outcome.
// Items whose product no longer exists have Applied=false.
type CancelResult struct {
	Order     *domain.Order        `json:"order"`
	Restocked []domain.StockResult `json:"restocked"`
}

func (s *Service) Cancel(ctx context.Context, actor Actor, id, reason string) (*CancelResult, error) {
	o, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	loaded, before := o.Status, len(o.StatusHistory)
	if err := o.Cancel(reason, s.now()); err != nil {
		return nil, err
	}
	release := o.HoldsStock()
	o.StockReleased = true
	if err := s.orders.Update(ctx, o, loaded, o.StatusHistory[before:]); err != nil {
		return nil, err
	}
	res := &CancelResult{Order: o, Restocked: []domain.StockResult{}}
	if release {
		if res.Restocked, err = s.restore(ctx, o); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// SetStatus is the admin override. It skips the transition table. Moving
// into cancelled returns held stock, moving to an active status takes
// released stock again, and refunded leaves stock where it is.
func (s *Service) SetStatus(ctx context.Context, id, status, note string) (*domain.Order, error) {
	next, err := domain.ParseOrderStatus(status)
	if err != nil {
		return nil, err
	}
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, orderNotFoundOr(err)
	}
	prev := o.Status
	if prev == next {
		return o, nil
	}

	release := next == domain.OrderCancelled && o.HoldsStock()
	reacquire := next != domain.OrderCancelled && next != domain.OrderRefunded && !o.HoldsStock()
	if reacquire {
		if _, err := s.products.ReserveStock(ctx, o.StockChanges()); err != nil {
			return nil, err
		}
		o.StockReleased = false
	}
	if release {
		o.StockReleased = true
	}

	before := len(o.StatusHistory)
	o.SetStatus(next, note, s.now())
	if err := s.orders.Update(ctx, o, prev, o.StatusHistory[before:]); err != nil {
		if reacquire {
			if _, rerr := s.products.RestoreStock(ctx, o.StockChanges()); rerr != nil {
				s.logger.Printf("order service: release reacquired stock order_id=%s error=%v", o.ID, rerr)
			}
		}
		return nil, err
	}
	s.logger.Printf("order service: status override order_id=%s from=%s to=%s", o.ID, prev, next)

	if release {
		if _, err := s.restore(ctx, o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (s *Service) restore(ctx context.Context, o *domain.Order) ([]domain.StockResult, error) {
	results, err := s.products.RestoreStock(ctx, o.StockChanges())
	if err != nil {
		s.logger.Printf("order service: restore stock order_id=%s error=%v", o.ID, err)
		return nil, fmt.Errorf("restore stock for order %s: %w", o.ID, err)
	}
	restored, skipped := 0, 0
	for _, r := range results {
		if r.Applied {
			restored++
		} else {
			skipped++
		}
	}
	s.logger.Printf("order service: cancelled order_id=%s restored=%d skipped=%d", o.ID, restored, skipped)
	return results, nil
}

func orderNotFoundOr(err error) error {
	if domain.KindOf(err) == domain.ErrNotFound {
		return domain.Errorf(domain.ErrNotFound, "Order not found")
	}
	return err
}
