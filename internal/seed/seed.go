package seed

import (
	"context"
	"fmt"
	"io"
	"log"

	"storefront/internal/domain"
)

// ProductWriter must not overwrite the stock of products that already exist.
type ProductWriter interface {
	UpsertKeepStock(ctx context.Context, product domain.Product) (*domain.Product, error)
}

type CategoryWriter interface {
	Upsert(ctx context.Context, category domain.Category) (*domain.Category, error)
}

type AdminCreator interface {
	CreateAdmin(ctx context.Context, email, password string) (*domain.Customer, error)
}

// Admin holds the credentials of the seeded admin account. An empty email
// skips admin creation.
type Admin struct {
	Email    string
	Password string
}

type productSeed struct {
	Key         string
	SKU         string
	Name        string
	Description string
	Category    string
	PriceCents  int64
	Stock       int
	Featured    bool
	Image       string
}

var categories = []domain.Category{
	{Key: "electronics", Name: "Electronics", Slug: "electronics", Description: "Gadgets and accessories"},
	{Key: "home-office", Name: "Home Office", Slug: "home-office", Description: "Desk and workspace essentials"},
	{Key: "apparel", Name: "Apparel", Slug: "apparel"},
}

var products = []productSeed{
	{
		Key:         "wireless-mouse",
		SKU:         "SKU-MOUSE-01",
		Name:        "Wireless Mouse",
		Description: "Silent two-button mouse with USB receiver",
		Category:    "electronics",
		PriceCents:  2500,
		Stock:       120,
		Featured:    true,
		Image:       "/images/wireless-mouse.jpg",
	},
	{
		Key:         "usb-c-hub",
		SKU:         "SKU-HUB-01",
		Name:        "USB-C Hub",
		Description: "Seven ports, pass-through charging",
		Category:    "electronics",
		PriceCents:  4999,
		Stock:       35,
		Image:       "/images/usb-c-hub.jpg",
	},
	{
		Key:         "desk-lamp",
		SKU:         "SKU-LAMP-01",
		Name:        "Desk Lamp",
		Description: "Dimmable LED lamp",
		Category:    "home-office",
		PriceCents:  3499,
		Stock:       8,
		Featured:    true,
		Image:       "/images/desk-lamp.jpg",
	},
	{
		Key:         "demo-shirt",
		SKU:         "SKU-DEMO-TSHIRT",
		Name:        "Demo T-Shirt",
		Description: "Soft cotton tee",
		Category:    "apparel",
		PriceCents:  1999,
		Stock:       60,
		Image:       "/images/demo-shirt.jpg",
	},
	{
		Key:         "demo-mug",
		SKU:         "SKU-DEMO-MUG",
		Name:        "Demo Mug",
		Description: "Ceramic mug with demo logo",
		Category:    "home-office",
		PriceCents:  1299,
		Stock:       0,
		Image:       "/images/demo-mug.jpg",
	},
}

// Apply inserts demo catalog data and the admin account. Every write is an
// upsert and existing stock levels are kept, so running it against a live
// database does not undo sales.
func Apply(ctx context.Context, cats CategoryWriter, prods ProductWriter, admins AdminCreator, admin Admin, logger *log.Logger) error {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	for _, c := range categories {
		if _, err := cats.Upsert(ctx, c); err != nil {
			return fmt.Errorf("upsert category %s: %w", c.Key, err)
		}
	}

	for _, p := range products {
		saved, err := prods.UpsertKeepStock(ctx, p.product())
		if err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Key, err)
		}
		logger.Printf("seed: product key=%s id=%s stock=%d", saved.Key, saved.ID, saved.Stock)
	}

	if admin.Email == "" || admins == nil {
		return nil
	}
	c, err := admins.CreateAdmin(ctx, admin.Email, admin.Password)
	if err != nil {
		return fmt.Errorf("create admin %s: %w", admin.Email, err)
	}
	if !c.IsAdmin {
		logger.Printf("seed: account %s exists without admin rights", c.Email)
	}
	return nil
}

func (p productSeed) product() domain.Product {
	out := domain.Product{
		Key:               p.Key,
		SKU:               p.SKU,
		Name:              p.Name,
		Description:       p.Description,
		CategoryKey:       p.Category,
		PriceCents:        p.PriceCents,
		Currency:          "USD",
		Stock:             p.Stock,
		LowStockThreshold: 10,
		IsActive:          true,
		IsFeatured:        p.Featured,
	}
	if p.Image != "" {
		out.Images = []domain.ProductImage{{URL: p.Image, AltText: p.Name}}
	}
	return out
}
