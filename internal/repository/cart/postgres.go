package cart

import (
	"context"
	"encoding/json"
	"errors"

	"storefront/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) GetOrCreateByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	if _, err := r.pool.Exec(ctx, `
INSERT INTO carts (user_id)
VALUES ($1)
ON CONFLICT (user_id) DO NOTHING
`, userID); err != nil {
		return nil, err
	}
	return r.fetchCart(ctx, userID)
}

func (r *postgresRepo) Save(ctx context.Context, cart *domain.Cart) error {
	cart.RecomputeTotals()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := tx.QueryRow(ctx, `
UPDATE carts
SET total_items = $1, total_price_cents = $2, updated_at = now()
WHERE id = $3
RETURNING updated_at
`, cart.TotalItems, cart.TotalPriceCents, cart.ID).Scan(&cart.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cart.ID); err != nil {
		return err
	}

	if len(cart.Items) > 0 {
		batch := &pgx.Batch{}
		for i, item := range cart.Items {
			addedAt := item.AddedAt
			if addedAt.IsZero() {
				addedAt = cart.UpdatedAt
			}
			batch.Queue(`
INSERT INTO cart_items (cart_id, product_id, quantity, price_cents, position, added_at)
VALUES ($1, $2, $3, $4, $5, $6)
`, cart.ID, item.ProductID, item.Quantity, item.PriceCents, i, addedAt)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *postgresRepo) fetchCart(ctx context.Context, userID string) (*domain.Cart, error) {
	cart := domain.Cart{Items: []domain.CartItem{}}
	err := r.pool.QueryRow(ctx, `
SELECT id::text, user_id::text, total_items, total_price_cents, created_at, updated_at
FROM carts
WHERE user_id = $1
`, userID).Scan(
		&cart.ID,
		&cart.UserID,
		&cart.TotalItems,
		&cart.TotalPriceCents,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	const itemsQuery = `
SELECT ci.product_id::text, ci.quantity, ci.price_cents, ci.added_at,
       p.name, p.sku, p.price_cents, p.currency, p.stock, p.is_active, p.images
FROM cart_items ci
LEFT JOIN products p ON p.id = ci.product_id
WHERE ci.cart_id = $1
ORDER BY ci.position ASC
`
	rows, err := r.pool.Query(ctx, itemsQuery, cart.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item       domain.CartItem
			name, sku  *string
			price      *int64
			currency   *string
			stock      *int
			active     *bool
			imagesJSON []byte
		)
		if err := rows.Scan(
			&item.ProductID,
			&item.Quantity,
			&item.PriceCents,
			&item.AddedAt,
			&name,
			&sku,
			&price,
			&currency,
			&stock,
			&active,
			&imagesJSON,
		); err != nil {
			return nil, err
		}
		if name != nil {
			item.Product = &domain.CartProduct{
				Name:       *name,
				SKU:        deref(sku),
				PriceCents: derefInt64(price),
				Currency:   deref(currency),
				Stock:      derefInt(stock),
				IsActive:   active != nil && *active,
				Image:      firstImage(imagesJSON),
			}
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &cart, nil
}

func firstImage(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var images []domain.ProductImage
	if err := json.Unmarshal(raw, &images); err != nil || len(images) == 0 {
		return ""
	}
	return images[0].URL
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func derefInt64(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
