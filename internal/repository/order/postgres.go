package order

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

const orderColumns = `id::text, user_id::text, shipping_address, payment_method, payment_result, currency,
       items_price_cents, tax_price_cents, shipping_price_cents, total_price_cents,
       order_status, is_paid, paid_at, is_delivered, delivered_at, shipped_at, stock_released, notes, created_at, updated_at`

func (r *postgresRepo) Create(ctx context.Context, o *domain.Order) error {
	addr, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return err
	}
	payment, err := marshalPayment(o.PaymentResult)
	if err != nil {
		return err
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
INSERT INTO orders (
    id, user_id, shipping_address, payment_method, payment_result, currency,
    items_price_cents, tax_price_cents, shipping_price_cents, total_price_cents,
    order_status, is_paid, paid_at, is_delivered, delivered_at, shipped_at, stock_released, notes, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
`,
		o.ID, o.UserID, addr, string(o.PaymentMethod), payment, o.Currency,
		o.ItemsPriceCents, o.TaxPriceCents, o.ShippingPriceCents, o.TotalPriceCents,
		string(o.Status), o.IsPaid, o.PaidAt, o.IsDelivered, o.DeliveredAt, o.ShippedAt, o.StockReleased, o.Notes, o.CreatedAt, o.UpdatedAt,
	); err != nil {
		r.logger.Printf("order repo: insert order_id=%s error=%v", o.ID, err)
		return err
	}

	batch := &pgx.Batch{}
	for i, it := range o.Items {
		batch.Queue(`
INSERT INTO order_items (order_id, position, product_id, name, image, price_cents, quantity)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`, o.ID, i, it.ProductID, it.Name, it.Image, it.PriceCents, it.Quantity)
	}
	queueHistory(batch, o.ID, o.StatusHistory)
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		r.logger.Printf("order repo: insert items order_id=%s error=%v", o.ID, err)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	r.logger.Printf("order repo: created order_id=%s items=%d total_cents=%d", o.ID, len(o.Items), o.TotalPriceCents)
	return nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("order repo: get order_id=%s error=%v", id, err)
		return nil, err
	}
	orders := []domain.Order{*o}
	if err := r.loadChildren(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *postgresRepo) List(ctx context.Context, filter ListFilter, page domain.PageRequest) ([]domain.Order, int, error) {
	var (
		clauses []string
		args    []interface{}
	)
	if filter.UserID != nil {
		if _, err := uuid.Parse(*filter.UserID); err != nil {
			return []domain.Order{}, 0, nil
		}
		args = append(args, *filter.UserID)
		clauses = append(clauses, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		clauses = append(clauses, fmt.Sprintf("order_status = $%d", len(args)))
	}
	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := fmt.Sprintf(`SELECT %s FROM orders%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, orderColumns, where, len(args)+1, len(args)+2)
	rows, err := r.pool.Query(ctx, q, append(args, page.Limit, page.Skip())...)
	if err != nil {
		r.logger.Printf("order repo: list error=%v", err)
		return nil, 0, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if err := r.loadChildren(ctx, orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *postgresRepo) Update(ctx context.Context, o *domain.Order, loaded domain.OrderStatus, newHistory []domain.StatusEntry) error {
	payment, err := marshalPayment(o.PaymentResult)
	if err != nil {
		return err
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `
UPDATE orders
SET payment_result = $2,
    order_status = $3,
    is_paid = $4,
    paid_at = $5,
    is_delivered = $6,
    delivered_at = $7,
    shipped_at = $8,
    stock_released = $9,
    notes = $10,
    updated_at = $11
WHERE id = $1 AND order_status = $12
`, o.ID, payment, string(o.Status), o.IsPaid, o.PaidAt, o.IsDelivered, o.DeliveredAt, o.ShippedAt, o.StockReleased, o.Notes, o.UpdatedAt, string(loaded))
	if err != nil {
		r.logger.Printf("order repo: update order_id=%s error=%v", o.ID, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, o.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return domain.ErrNotFound
		}
		r.logger.Printf("order repo: stale update order_id=%s loaded=%s", o.ID, loaded)
		return domain.Errorf(domain.ErrInvalidState, "Order %s was changed by another request", o.ID)
	}

	if len(newHistory) > 0 {
		batch := &pgx.Batch{}
		queueHistory(batch, o.ID, newHistory)
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func queueHistory(batch *pgx.Batch, orderID string, entries []domain.StatusEntry) {
	for _, h := range entries {
		batch.Queue(`
INSERT INTO order_status_history (order_id, status, note, created_at)
VALUES ($1, $2, $3, $4)
`, orderID, string(h.Status), h.Note, h.Timestamp)
	}
}

// loadChildren fills items and status history for every order in place.
func (r *postgresRepo) loadChildren(ctx context.Context, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	index := make(map[string]int, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		index[orders[i].ID] = i
		orders[i].Items = []domain.OrderItem{}
		orders[i].StatusHistory = []domain.StatusEntry{}
	}

	rows, err := r.pool.Query(ctx, `
SELECT order_id::text, product_id::text, name, image, price_cents, quantity
FROM order_items
WHERE order_id = ANY($1::uuid[])
ORDER BY order_id, position
`, ids)
	if err != nil {
		return err
	}
	for rows.Next() {
		var orderID string
		var it domain.OrderItem
		if err := rows.Scan(&orderID, &it.ProductID, &it.Name, &it.Image, &it.PriceCents, &it.Quantity); err != nil {
			rows.Close()
			return err
		}
		o := &orders[index[orderID]]
		o.Items = append(o.Items, it)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.pool.Query(ctx, `
SELECT order_id::text, status, note, created_at
FROM order_status_history
WHERE order_id = ANY($1::uuid[])
ORDER BY order_id, id
`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var orderID, status string
		var h domain.StatusEntry
		if err := rows.Scan(&orderID, &status, &h.Note, &h.Timestamp); err != nil {
			return err
		}
		h.Status = domain.OrderStatus(status)
		o := &orders[index[orderID]]
		o.StatusHistory = append(o.StatusHistory, h)
	}
	return rows.Err()
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o       domain.Order
		addr    []byte
		payment []byte
		method  string
		status  string
	)
	if err := row.Scan(
		&o.ID,
		&o.UserID,
		&addr,
		&method,
		&payment,
		&o.Currency,
		&o.ItemsPriceCents,
		&o.TaxPriceCents,
		&o.ShippingPriceCents,
		&o.TotalPriceCents,
		&status,
		&o.IsPaid,
		&o.PaidAt,
		&o.IsDelivered,
		&o.DeliveredAt,
		&o.ShippedAt,
		&o.StockReleased,
		&o.Notes,
		&o.CreatedAt,
		&o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	o.PaymentMethod = domain.PaymentMethod(method)
	o.Status = domain.OrderStatus(status)
	if err := json.Unmarshal(addr, &o.ShippingAddress); err != nil {
		return nil, fmt.Errorf("decode shipping address order_id=%s: %w", o.ID, err)
	}
	if len(payment) > 0 {
		var pr domain.PaymentResult
		if err := json.Unmarshal(payment, &pr); err != nil {
			return nil, fmt.Errorf("decode payment result order_id=%s: %w", o.ID, err)
		}
		o.PaymentResult = &pr
	}
	return &o, nil
}

func marshalPayment(pr *domain.PaymentResult) ([]byte, error) {
	if pr == nil {
		return nil, nil
	}
	return json.Marshal(pr)
}
