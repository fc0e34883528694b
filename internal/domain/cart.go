package domain

import "time"

// Cart is the per-user pre-purchase item collection. TotalItems and
// TotalPriceCents are derived and recomputed after every mutation.
type Cart struct {
	ID              string     `json:"id"`
	UserID          string     `json:"userId"`
	Items           []CartItem `json:"items"`
	TotalItems      int        `json:"totalItems"`
	TotalPriceCents int64      `json:"totalPriceCents"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// CartItem keeps the unit price seen when the product was first added.
type CartItem struct {
	ProductID  string       `json:"productId"`
	Quantity   int          `json:"quantity"`
	PriceCents int64        `json:"priceCents"`
	AddedAt    time.Time    `json:"addedAt"`
	Product    *CartProduct `json:"product,omitempty"`
}

// CartProduct is the catalog view joined into cart reads for display.
type CartProduct struct {
	Name       string `json:"name"`
	SKU        string `json:"sku"`
	Image      string `json:"image,omitempty"`
	PriceCents int64  `json:"priceCents"`
	Currency   string `json:"currency"`
	Stock      int    `json:"stock"`
	IsActive   bool   `json:"isActive"`
}

type CartSummary struct {
	TotalItems      int    `json:"totalItems"`
	TotalPriceCents int64  `json:"totalPriceCents"`
	ItemCount       int    `json:"itemCount"`
	Currency        string `json:"currency,omitempty"`
}

func NewCart(userID string) *Cart {
	return &Cart{UserID: userID, Items: []CartItem{}}
}

// Item returns the item for productID, if present.
func (c *Cart) Item(productID string) (*CartItem, bool) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i], true
		}
	}
	return nil, false
}

// AddItem increments an existing item or appends a new one. The stored
// price of an existing item is not touched.
func (c *Cart) AddItem(productID string, quantity int, priceCents int64) {
	if item, ok := c.Item(productID); ok {
		item.Quantity += quantity
	} else {
		c.Items = append(c.Items, CartItem{
			ProductID:  productID,
			Quantity:   quantity,
			PriceCents: priceCents,
			AddedAt:    time.Now().UTC(),
		})
	}
	c.RecomputeTotals()
}

// UpdateItemQuantity replaces the quantity; quantity <= 0 removes the item.
func (c *Cart) UpdateItemQuantity(productID string, quantity int) {
	if quantity <= 0 {
		c.RemoveItem(productID)
		return
	}
	if item, ok := c.Item(productID); ok {
		item.Quantity = quantity
	}
	c.RecomputeTotals()
}

func (c *Cart) RemoveItem(productID string) {
	kept := c.Items[:0]
	for _, item := range c.Items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	c.Items = kept
	c.RecomputeTotals()
}

func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.RecomputeTotals()
}

func (c *Cart) RecomputeTotals() {
	totalItems := 0
	var totalPrice int64
	for _, item := range c.Items {
		totalItems += item.Quantity
		totalPrice += item.PriceCents * int64(item.Quantity)
	}
	c.TotalItems = totalItems
	c.TotalPriceCents = totalPrice
}

func (c *Cart) Summary() CartSummary {
	return CartSummary{
		TotalItems:      c.TotalItems,
		TotalPriceCents: c.TotalPriceCents,
		ItemCount:       len(c.Items),
		Currency:        c.Currency(),
	}
}

// Currency is the currency of the joined products, or "" when no item
// carries product details.
func (c *Cart) Currency() string {
	for _, item := range c.Items {
		if item.Product != nil && item.Product.Currency != "" {
			return item.Product.Currency
		}
	}
	return ""
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
