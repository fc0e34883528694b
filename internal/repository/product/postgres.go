package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

const productColumns = `id::text, key, sku, name, COALESCE(description, ''), COALESCE(category_key, ''), price_cents, currency,
       stock, low_stock_threshold, is_active, is_featured, images, attributes, created_at, updated_at`

func (r *postgresRepo) List(ctx context.Context, filter ListFilter, page domain.PageRequest) ([]domain.Product, int, error) {
	where, args := buildWhere(filter)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM products`+where, args...).Scan(&total); err != nil {
		r.logger.Printf("product repo: count error=%v", err)
		return nil, 0, err
	}

	q := fmt.Sprintf(`
SELECT %s
FROM products%s
ORDER BY is_featured DESC, created_at DESC
LIMIT $%d OFFSET $%d
`, productColumns, where, len(args)+1, len(args)+2)
	rows, err := r.pool.Query(ctx, q, append(args, page.Limit, page.Skip())...)
	if err != nil {
		r.logger.Printf("product repo: list error=%v", err)
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Printf("product repo: list rows error=%v", err)
		return nil, 0, err
	}
	r.logger.Printf("product repo: list count=%d total=%d page=%d", len(result), total, page.Page)
	return result, total, nil
}

func buildWhere(filter ListFilter) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)
	if filter.CategoryKey != "" {
		args = append(args, filter.CategoryKey)
		clauses = append(clauses, fmt.Sprintf("category_key = $%d", len(args)))
	}
	if filter.FeaturedOnly {
		clauses = append(clauses, "is_featured")
	}
	if filter.ActiveOnly {
		clauses = append(clauses, "is_active")
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+s+"%")
		clauses = append(clauses, fmt.Sprintf("name ILIKE $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return "\nWHERE " + strings.Join(clauses, " AND "), args
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	q := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Printf("product repo: get id=%s not found", id)
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("product repo: get id=%s error=%v", id, err)
		return nil, err
	}
	return p, nil
}

// GetByIDs returns the products that exist among ids, keyed by id.
func (r *postgresRepo) GetByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	out := make(map[string]domain.Product, len(valid))
	if len(valid) == 0 {
		return out, nil
	}
	q := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1::uuid[])`
	rows, err := r.pool.Query(ctx, q, valid)
	if err != nil {
		r.logger.Printf("product repo: get many error=%v", err)
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = *p
	}
	return out, rows.Err()
}

func (r *postgresRepo) Upsert(ctx context.Context, product domain.Product) (*domain.Product, error) {
	return r.upsert(ctx, product, "EXCLUDED.stock")
}

// UpsertKeepStock writes catalog fields like Upsert but leaves the stock of
// an existing product alone. Stock only applies to new rows.
func (r *postgresRepo) UpsertKeepStock(ctx context.Context, product domain.Product) (*domain.Product, error) {
	return r.upsert(ctx, product, "products.stock")
}

func (r *postgresRepo) upsert(ctx context.Context, product domain.Product, stockOnConflict string) (*domain.Product, error) {
	images, err := json.Marshal(imagesOrEmpty(product.Images))
	if err != nil {
		return nil, err
	}
	q := `
INSERT INTO products (id, key, sku, name, description, category_key, price_cents, currency, stock, low_stock_threshold, is_active, is_featured, images, attributes)
VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9, $10, $11, $12, $13, COALESCE($14, '{}'::jsonb))
ON CONFLICT (key) DO UPDATE SET
    sku = EXCLUDED.sku,
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    category_key = EXCLUDED.category_key,
    price_cents = EXCLUDED.price_cents,
    currency = EXCLUDED.currency,
    stock = ` + stockOnConflict + `,
    low_stock_threshold = EXCLUDED.low_stock_threshold,
    is_active = EXCLUDED.is_active,
    is_featured = EXCLUDED.is_featured,
    images = EXCLUDED.images,
    attributes = EXCLUDED.attributes,
    updated_at = now()
RETURNING ` + productColumns
	res, err := scanProduct(r.pool.QueryRow(ctx, q,
		product.ID,
		product.Key,
		product.SKU,
		product.Name,
		product.Description,
		product.CategoryKey,
		product.PriceCents,
		product.Currency,
		product.Stock,
		product.LowStockThreshold,
		product.IsActive,
		product.IsFeatured,
		images,
		product.Attributes,
	))
	if err != nil {
		r.logger.Printf("product repo: upsert key=%s error=%v", product.Key, err)
		return nil, err
	}
	if product.ID != "" && res.ID != product.ID {
		return nil, fmt.Errorf("product repo: id mismatch for key=%s existing_id=%s import_id=%s", product.Key, res.ID, product.ID)
	}
	r.logger.Printf("product repo: upserted key=%s id=%s stock=%d", res.Key, res.ID, res.Stock)
	return res, nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p      domain.Product
		images []byte
	)
	if err := row.Scan(
		&p.ID,
		&p.Key,
		&p.SKU,
		&p.Name,
		&p.Description,
		&p.CategoryKey,
		&p.PriceCents,
		&p.Currency,
		&p.Stock,
		&p.LowStockThreshold,
		&p.IsActive,
		&p.IsFeatured,
		&images,
		&p.Attributes,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &p.Images); err != nil {
			return nil, fmt.Errorf("decode images id=%s: %w", p.ID, err)
		}
	}
	return &p, nil
}

func imagesOrEmpty(images []domain.ProductImage) []domain.ProductImage {
	if images == nil {
		return []domain.ProductImage{}
	}
	return images
}
