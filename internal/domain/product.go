package domain

import "time"

// StockDirection selects how UpdateStock moves a product's stock.
type StockDirection string

const (
	StockAdd      StockDirection = "add"
	StockSubtract StockDirection = "subtract"
)

type ProductImage struct {
	URL     string `json:"url"`
	AltText string `json:"altText,omitempty"`
}

type Product struct {
	ID                string                 `json:"id"`
	Key               string                 `json:"key"`
	SKU               string                 `json:"sku"`
	Name              string                 `json:"name"`
	Description       string                 `json:"description,omitempty"`
	CategoryKey       string                 `json:"categoryKey,omitempty"`
	PriceCents        int64                  `json:"priceCents"`
	Currency          string                 `json:"currency"`
	Stock             int                    `json:"stock"`
	LowStockThreshold int                    `json:"lowStockThreshold"`
	IsActive          bool                   `json:"isActive"`
	IsFeatured        bool                   `json:"isFeatured"`
	Images            []ProductImage         `json:"images,omitempty"`
	Attributes        map[string]interface{} `json:"attributes,omitempty"`
	CreatedAt         time.Time              `json:"createdAt"`
	UpdatedAt         time.Time              `json:"updatedAt"`
}

// PrimaryImage returns the first image URL, used when snapshotting into orders.
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0].URL
}

func (p Product) IsLowStock() bool {
	return p.Stock <= p.LowStockThreshold
}

// HasStock reports whether quantity units can be taken from stock.
func (p Product) HasStock(quantity int) bool {
	return quantity > 0 && p.Stock >= quantity
}

// UpdateStock applies a stock movement. Subtracting more than is available
// leaves the product untouched and returns ErrInsufficientStock.
func (p *Product) UpdateStock(quantity int, direction StockDirection) error {
	if quantity < 0 {
		return Errorf(ErrValidation, "Stock quantity must not be negative")
	}
	switch direction {
	case StockAdd:
		p.Stock += quantity
	case StockSubtract:
		if p.Stock < quantity {
			return Errorf(ErrInsufficientStock, "Insufficient stock for %s: available %d, requested %d", p.Name, p.Stock, quantity)
		}
		p.Stock -= quantity
	default:
		return Errorf(ErrValidation, "Unknown stock direction %q", direction)
	}
	return nil
}

// StockChange is one per-product stock movement in a batch.
type StockChange struct {
	ProductID string
	Quantity  int
}

// StockResult reports the outcome of one StockChange.
type StockResult struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Applied   bool   `json:"applied"`
	Stock     int    `json:"stock"`
}

// MergeStockChanges folds repeated product ids into one change each,
// keeping first-seen order.
func MergeStockChanges(changes []StockChange) []StockChange {
	idx := make(map[string]int, len(changes))
	out := make([]StockChange, 0, len(changes))
	for _, ch := range changes {
		if i, ok := idx[ch.ProductID]; ok {
			out[i].Quantity += ch.Quantity
			continue
		}
		idx[ch.ProductID] = len(out)
		out = append(out, ch)
	}
	return out
}
