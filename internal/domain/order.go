package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
	OrderRefunded   OrderStatus = "refunded"
)

// Money rules applied once at order creation.
const (
	FreeShippingThresholdCents int64 = 10000
	FlatShippingCents          int64 = 1000
)

// TaxRate is the fixed sales tax applied to itemsPrice.
var TaxRate = decimal.RequireFromString("0.08")

const DefaultCancelReason = "Cancelled by customer"

// orderTransitions is the guarded state machine. The admin override in
// SetStatus bypasses it.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderProcessing, OrderCancelled},
	OrderProcessing: {OrderShipped, OrderCancelled},
	OrderShipped:    {OrderDelivered},
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled, OrderRefunded:
		return st, nil
	}
	return "", Errorf(ErrValidation, "Unsupported order status %q", s)
}

// CanTransition reports whether the guarded state machine allows from -> to.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type PaymentMethod string

const (
	PaymentCreditCard     PaymentMethod = "credit_card"
	PaymentPayPal         PaymentMethod = "paypal"
	PaymentStripe         PaymentMethod = "stripe"
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCreditCard, PaymentPayPal, PaymentStripe, PaymentCashOnDelivery:
		return true
	}
	return false
}

type ShippingAddress struct {
	FullName string `json:"fullName"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	ZipCode  string `json:"zipCode"`
	Country  string `json:"country"`
	Phone    string `json:"phone,omitempty"`
}

// Validate checks that every required field is present.
func (a ShippingAddress) Validate() error {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"fullName", a.FullName},
		{"address", a.Address},
		{"city", a.City},
		{"state", a.State},
		{"zipCode", a.ZipCode},
		{"country", a.Country},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return Errorf(ErrValidation, "Shipping address is missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// PaymentResult is the payload returned by the payment gateway.
type PaymentResult struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	UpdateTime   string `json:"updateTime,omitempty"`
	EmailAddress string `json:"emailAddress,omitempty"`
}

// OrderItem is a frozen snapshot of what was purchased.
type OrderItem struct {
	ProductID  string `json:"productId"`
	Name       string `json:"name"`
	Image      string `json:"image,omitempty"`
	PriceCents int64  `json:"priceCents"`
	Quantity   int    `json:"quantity"`
}

type StatusEntry struct {
	Status    OrderStatus `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	Note      string      `json:"note,omitempty"`
}

type Order struct {
	ID                 string          `json:"id"`
	UserID             *string         `json:"userId,omitempty"`
	Items              []OrderItem     `json:"orderItems"`
	ShippingAddress    ShippingAddress `json:"shippingAddress"`
	PaymentMethod      PaymentMethod   `json:"paymentMethod"`
	PaymentResult      *PaymentResult  `json:"paymentResult,omitempty"`
	Currency           string          `json:"currency"`
	ItemsPriceCents    int64           `json:"itemsPriceCents"`
	TaxPriceCents      int64           `json:"taxPriceCents"`
	ShippingPriceCents int64           `json:"shippingPriceCents"`
	TotalPriceCents    int64           `json:"totalPriceCents"`
	Status             OrderStatus     `json:"orderStatus"`
	IsPaid             bool            `json:"isPaid"`
	PaidAt             *time.Time      `json:"paidAt,omitempty"`
	IsDelivered        bool            `json:"isDelivered"`
	DeliveredAt        *time.Time      `json:"deliveredAt,omitempty"`
	ShippedAt          *time.Time      `json:"shippedAt,omitempty"`
	StatusHistory      []StatusEntry   `json:"statusHistory"`
	StockReleased      bool            `json:"stockReleased"`
	Notes              string          `json:"notes,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// HoldsStock reports whether the order's quantities are still taken out of
// the catalog.
func (o *Order) HoldsStock() bool {
	return !o.StockReleased
}

type OrderTotals struct {
	ItemsCents    int64
	TaxCents      int64
	ShippingCents int64
	TotalCents    int64
}

// ComputeTotals applies the tax and shipping rules to the item snapshot.
func ComputeTotals(items []OrderItem) OrderTotals {
	var itemsCents int64
	for _, it := range items {
		itemsCents += it.PriceCents * int64(it.Quantity)
	}
	tax := decimal.NewFromInt(itemsCents).Mul(TaxRate).Round(0).IntPart()
	shipping := FlatShippingCents
	if itemsCents > FreeShippingThresholdCents {
		shipping = 0
	}
	return OrderTotals{
		ItemsCents:    itemsCents,
		TaxCents:      tax,
		ShippingCents: shipping,
		TotalCents:    itemsCents + tax + shipping,
	}
}

// NewOrder builds a pending, unpaid order with its first history entry.
func NewOrder(id string, userID *string, items []OrderItem, addr ShippingAddress, method PaymentMethod, currency string, now time.Time) *Order {
	totals := ComputeTotals(items)
	o := &Order{
		ID:                 id,
		UserID:             userID,
		Items:              items,
		ShippingAddress:    addr,
		PaymentMethod:      method,
		Currency:           currency,
		ItemsPriceCents:    totals.ItemsCents,
		TaxPriceCents:      totals.TaxCents,
		ShippingPriceCents: totals.ShippingCents,
		TotalPriceCents:    totals.TotalCents,
		Status:             OrderPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	o.StatusHistory = []StatusEntry{{Status: OrderPending, Timestamp: now, Note: "Order placed"}}
	return o
}

// OwnedBy reports whether the order belongs to userID.
func (o *Order) OwnedBy(userID string) bool {
	return o.UserID != nil && *o.UserID == userID
}

// StockChanges lists the per-item quantities held by this order.
func (o *Order) StockChanges() []StockChange {
	out := make([]StockChange, 0, len(o.Items))
	for _, it := range o.Items {
		out = append(out, StockChange{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return out
}

// changeStatus sets the status and appends one history entry when the
// value actually changes.
func (o *Order) changeStatus(status OrderStatus, note string, now time.Time) bool {
	if o.Status == status {
		return false
	}
	o.Status = status
	o.StatusHistory = append(o.StatusHistory, StatusEntry{Status: status, Timestamp: now, Note: note})
	o.UpdatedAt = now
	return true
}

func (o *Order) CanCancel() bool {
	return CanTransition(o.Status, OrderCancelled)
}

// MarkPaid records the payment and moves the order to processing.
func (o *Order) MarkPaid(result PaymentResult, now time.Time) error {
	if o.IsPaid {
		return Errorf(ErrInvalidState, "Order %s is already paid", o.ID)
	}
	if o.Status == OrderCancelled || o.Status == OrderRefunded {
		return Errorf(ErrInvalidState, "Cannot pay for a %s order", o.Status)
	}
	o.IsPaid = true
	paidAt := now
	o.PaidAt = &paidAt
	o.PaymentResult = &result
	o.UpdatedAt = now
	o.changeStatus(OrderProcessing, "Payment received", now)
	return nil
}

func (o *Order) MarkDelivered(now time.Time) error {
	if o.Status == OrderCancelled || o.Status == OrderRefunded {
		return Errorf(ErrInvalidState, "Cannot deliver a %s order", o.Status)
	}
	o.IsDelivered = true
	at := now
	o.DeliveredAt = &at
	o.UpdatedAt = now
	o.changeStatus(OrderDelivered, "Order delivered", now)
	return nil
}

// Cancel moves a pending or processing order to cancelled.
func (o *Order) Cancel(reason string, now time.Time) error {
	if !o.CanCancel() {
		return Errorf(ErrInvalidState, "Order cannot be cancelled while %s", o.Status)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultCancelReason
	}
	o.Notes = reason
	o.changeStatus(OrderCancelled, fmt.Sprintf("Order cancelled: %s", reason), now)
	return nil
}

// SetStatus is the privileged override: no transition table, only side
// effects. It reports whether the status changed.
func (o *Order) SetStatus(status OrderStatus, note string, now time.Time) bool {
	if strings.TrimSpace(note) == "" {
		note = fmt.Sprintf("Status set to %s", status)
	}
	changed := o.changeStatus(status, note, now)
	if !changed {
		return false
	}
	at := now
	switch status {
	case OrderShipped:
		o.ShippedAt = &at
	case OrderDelivered:
		o.IsDelivered = true
		o.DeliveredAt = &at
	}
	return true
}
