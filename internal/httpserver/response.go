package httpserver

import (
	"time"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
)

const defaultCurrency = "USD"

// money renders integer cents with two fraction digits.
type money struct {
	CentAmount     int64  `json:"centAmount"`
	CurrencyCode   string `json:"currencyCode"`
	FractionDigits int    `json:"fractionDigits"`
	Amount         string `json:"amount"`
}

func newMoney(cents int64, currency string) money {
	if currency == "" {
		currency = defaultCurrency
	}
	return money{
		CentAmount:     cents,
		CurrencyCode:   currency,
		FractionDigits: 2,
		Amount:         decimal.New(cents, -2).StringFixed(2),
	}
}

type pagedResponse struct {
	Results interface{} `json:"results"`
	Total   int         `json:"total"`
	Pages   int         `json:"pages"`
	Page    int         `json:"page"`
	Limit   int         `json:"limit"`
}

func paged(results interface{}, info domain.PageInfo) pagedResponse {
	return pagedResponse{Results: results, Total: info.Total, Pages: info.Pages, Page: info.Page, Limit: info.Limit}
}

type productResponse struct {
	ID          string                 `json:"id"`
	Key         string                 `json:"key"`
	SKU         string                 `json:"sku"`
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	CategoryKey string                 `json:"categoryKey,omitempty"`
	Price       money                  `json:"price"`
	Stock       int                    `json:"stock"`
	LowStock    bool                   `json:"lowStock"`
	IsActive    bool                   `json:"isActive"`
	IsFeatured  bool                   `json:"isFeatured"`
	Images      []domain.ProductImage  `json:"images"`
	Attributes  map[string]interface{} `json:"attributes,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
}

func toProductResponse(p domain.Product) productResponse {
	images := p.Images
	if images == nil {
		images = []domain.ProductImage{}
	}
	return productResponse{
		ID:          p.ID,
		Key:         p.Key,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		CategoryKey: p.CategoryKey,
		Price:       newMoney(p.PriceCents, p.Currency),
		Stock:       p.Stock,
		LowStock:    p.IsLowStock(),
		IsActive:    p.IsActive,
		IsFeatured:  p.IsFeatured,
		Images:      images,
		Attributes:  p.Attributes,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type cartProductResponse struct {
	Name         string `json:"name"`
	SKU          string `json:"sku"`
	Image        string `json:"image,omitempty"`
	CurrentPrice money  `json:"currentPrice"`
	Stock        int    `json:"stock"`
	IsActive     bool   `json:"isActive"`
}

type cartItemResponse struct {
	ProductID string               `json:"productId"`
	Quantity  int                  `json:"quantity"`
	Price     money                `json:"price"`
	LineTotal money                `json:"lineTotal"`
	AddedAt   time.Time            `json:"addedAt"`
	Product   *cartProductResponse `json:"product,omitempty"`
}

type cartSummaryResponse struct {
	TotalItems int   `json:"totalItems"`
	ItemCount  int   `json:"itemCount"`
	TotalPrice money `json:"totalPrice"`
}

type cartResponse struct {
	ID         string              `json:"id"`
	UserID     string              `json:"userId"`
	Items      []cartItemResponse  `json:"items"`
	TotalItems int                 `json:"totalItems"`
	TotalPrice money               `json:"totalPrice"`
	Summary    cartSummaryResponse `json:"summary"`
	UpdatedAt  time.Time           `json:"updatedAt"`
}

func cartCurrency(c domain.Cart) string {
	return currencyOr(c.Currency())
}

func currencyOr(currency string) string {
	if currency == "" {
		return defaultCurrency
	}
	return currency
}

func toCartSummaryResponse(s domain.CartSummary, currency string) cartSummaryResponse {
	return cartSummaryResponse{
		TotalItems: s.TotalItems,
		ItemCount:  s.ItemCount,
		TotalPrice: newMoney(s.TotalPriceCents, currency),
	}
}

func toCartResponse(c domain.Cart) cartResponse {
	currency := cartCurrency(c)
	items := make([]cartItemResponse, 0, len(c.Items))
	for _, it := range c.Items {
		item := cartItemResponse{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     newMoney(it.PriceCents, currency),
			LineTotal: newMoney(it.PriceCents*int64(it.Quantity), currency),
			AddedAt:   it.AddedAt,
		}
		if it.Product != nil {
			item.Product = &cartProductResponse{
				Name:         it.Product.Name,
				SKU:          it.Product.SKU,
				Image:        it.Product.Image,
				CurrentPrice: newMoney(it.Product.PriceCents, currency),
				Stock:        it.Product.Stock,
				IsActive:     it.Product.IsActive,
			}
		}
		items = append(items, item)
	}
	return cartResponse{
		ID:         c.ID,
		UserID:     c.UserID,
		Items:      items,
		TotalItems: c.TotalItems,
		TotalPrice: newMoney(c.TotalPriceCents, currency),
		Summary:    toCartSummaryResponse(c.Summary(), currency),
		UpdatedAt:  c.UpdatedAt,
	}
}

type orderItemResponse struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Image     string `json:"image,omitempty"`
	Price     money  `json:"price"`
	Quantity  int    `json:"quantity"`
}

type orderResponse struct {
	ID              string                 `json:"id"`
	UserID          *string                `json:"userId"`
	OrderItems      []orderItemResponse    `json:"orderItems"`
	ShippingAddress domain.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   domain.PaymentMethod   `json:"paymentMethod"`
	PaymentResult   *domain.PaymentResult  `json:"paymentResult,omitempty"`
	ItemsPrice      money                  `json:"itemsPrice"`
	TaxPrice        money                  `json:"taxPrice"`
	ShippingPrice   money                  `json:"shippingPrice"`
	TotalPrice      money                  `json:"totalPrice"`
	OrderStatus     domain.OrderStatus     `json:"orderStatus"`
	IsPaid          bool                   `json:"isPaid"`
	PaidAt          *time.Time             `json:"paidAt,omitempty"`
	IsDelivered     bool                   `json:"isDelivered"`
	DeliveredAt     *time.Time             `json:"deliveredAt,omitempty"`
	ShippedAt       *time.Time             `json:"shippedAt,omitempty"`
	StatusHistory   []domain.StatusEntry   `json:"statusHistory"`
	Notes           string                 `json:"notes,omitempty"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
}

func toOrderResponse(o domain.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemResponse{
			ProductID: it.ProductID,
			Name:      it.Name,
			Image:     it.Image,
			Price:     newMoney(it.PriceCents, o.Currency),
			Quantity:  it.Quantity,
		})
	}
	history := o.StatusHistory
	if history == nil {
		history = []domain.StatusEntry{}
	}
	return orderResponse{
		ID:              o.ID,
		UserID:          o.UserID,
		OrderItems:      items,
		ShippingAddress: o.ShippingAddress,
		PaymentMethod:   o.PaymentMethod,
		PaymentResult:   o.PaymentResult,
		ItemsPrice:      newMoney(o.ItemsPriceCents, o.Currency),
		TaxPrice:        newMoney(o.TaxPriceCents, o.Currency),
		ShippingPrice:   newMoney(o.ShippingPriceCents, o.Currency),
		TotalPrice:      newMoney(o.TotalPriceCents, o.Currency),
		OrderStatus:     o.Status,
		IsPaid:          o.IsPaid,
		PaidAt:          o.PaidAt,
		IsDelivered:     o.IsDelivered,
		DeliveredAt:     o.DeliveredAt,
		ShippedAt:       o.ShippedAt,
		StatusHistory:   history,
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func toOrderResponses(orders []domain.Order) []orderResponse {
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	return out
}
