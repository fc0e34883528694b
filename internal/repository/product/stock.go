package product

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/domain"

	"github.com/jackc/pgx/v5"
)

// ReserveStock decrements every product in one transaction. Each decrement
// only applies while stock covers the quantity; if any item falls short the
// whole batch is rolled back and ErrInsufficientStock is returned.
func (r *postgresRepo) ReserveStock(ctx context.Context, changes []domain.StockChange) ([]domain.StockResult, error) {
	changes = domain.MergeStockChanges(changes)
	if len(changes) == 0 {
		return nil, nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, ch := range changes {
		batch.Queue(`
UPDATE products
SET stock = stock - $2, updated_at = now()
WHERE id = $1 AND stock >= $2
RETURNING stock
`, ch.ProductID, ch.Quantity)
	}

	results, err := readStockBatch(tx.SendBatch(ctx, batch), changes)
	if err != nil {
		return nil, err
	}
	for _, res := range results {
		if !res.Applied {
			r.logger.Printf("product repo: reserve rejected product_id=%s quantity=%d", res.ProductID, res.Quantity)
			return nil, domain.Errorf(domain.ErrInsufficientStock, "Insufficient stock for product %s", res.ProductID)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	r.logger.Printf("product repo: reserved items=%d", len(results))
	return results, nil
}

// RestoreStock adds quantities back in one transaction. Products that no
// longer exist are reported with Applied=false and otherwise skipped.
func (r *postgresRepo) RestoreStock(ctx context.Context, changes []domain.StockChange) ([]domain.StockResult, error) {
	changes = domain.MergeStockChanges(changes)
	if len(changes) == 0 {
		return nil, nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, ch := range changes {
		batch.Queue(`
UPDATE products
SET stock = stock + $2, updated_at = now()
WHERE id = $1
RETURNING stock
`, ch.ProductID, ch.Quantity)
	}

	results, err := readStockBatch(tx.SendBatch(ctx, batch), changes)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return results, nil
}

func readStockBatch(br pgx.BatchResults, changes []domain.StockChange) ([]domain.StockResult, error) {
	results := make([]domain.StockResult, 0, len(changes))
	for _, ch := range changes {
		res := domain.StockResult{ProductID: ch.ProductID, Quantity: ch.Quantity}
		err := br.QueryRow().Scan(&res.Stock)
		switch {
		case err == nil:
			res.Applied = true
		case errors.Is(err, pgx.ErrNoRows):
		default:
			br.Close()
			return nil, fmt.Errorf("stock update product_id=%s: %w", ch.ProductID, err)
		}
		results = append(results, res)
	}
	if err := br.Close(); err != nil {
		return nil, err
	}
	return results, nil
}
