package order

import (
	"context"
	"os"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/migrate"
	cartrepo "storefront/internal/repository/cart"
	orderrepo "storefront/internal/repository/order"
	productrepo "storefront/internal/repository/product"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutAndCancel_Integration(t *testing.T) {
	ctx := context.Background()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()
	_, err = migrate.Apply(ctx, pool)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `TRUNCATE order_status_history, order_items, orders, cart_items, carts, tokens, customers, products RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	var userID string
	require.NoError(t, pool.QueryRow(ctx, `INSERT INTO customers (email, password_hash) VALUES ('buyer@example.com', 'x') RETURNING id::text`).Scan(&userID))

	products := productrepo.NewPostgres(pool, nil)
	widget, err := products.Upsert(ctx, domain.Product{Key: "widget", SKU: "W-1", Name: "Widget", PriceCents: 1500, Currency: "USD", Stock: 5, IsActive: true})
	require.NoError(t, err)
	gadget, err := products.Upsert(ctx, domain.Product{Key: "gadget", SKU: "G-1", Name: "Gadget", PriceCents: 500, Currency: "USD", Stock: 1, IsActive: true})
	require.NoError(t, err)

	carts := cartrepo.NewPostgres(pool)
	cart, err := carts.GetOrCreateByUser(ctx, userID)
	require.NoError(t, err)
	cart.AddItem(widget.ID, 2, widget.PriceCents)
	cart.AddItem(gadget.ID, 1, gadget.PriceCents)
	require.NoError(t, carts.Save(ctx, cart))

	svc := New(orderrepo.NewPostgres(pool, nil), products, carts, nil)

	_, err = svc.CreateFromItems(ctx, nil, []ItemInput{{ProductID: widget.ID, Quantity: 1}, {ProductID: gadget.ID, Quantity: 2}}, checkout())
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	o, err := svc.CreateFromCart(ctx, userID, checkout())
	require.NoError(t, err)
	assert.Equal(t, int64(4780), o.TotalPriceCents)

	w, err := products.GetByID(ctx, widget.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, w.Stock)

	emptied, err := carts.GetOrCreateByUser(ctx, userID)
	require.NoError(t, err)
	assert.True(t, emptied.IsEmpty())

	res, err := svc.Cancel(ctx, Actor{UserID: userID}, o.ID, "")
	require.NoError(t, err)
	assert.Len(t, res.Restocked, 2)

	w, err = products.GetByID(ctx, widget.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, w.Stock)
	g, err := products.GetByID(ctx, gadget.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, g.Stock)

	stored, err := svc.Get(ctx, Actor{UserID: userID}, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCancelled, stored.Status)
	assert.True(t, stored.StockReleased)
	assert.Len(t, stored.StatusHistory, 2)
}
