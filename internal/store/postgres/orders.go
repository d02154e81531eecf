package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/ec-shop-api/internal/domain/order"
	"github.com/example/ec-shop-api/internal/pagination"
	"github.com/shopspring/decimal"
)

type orderRepo struct{ s *Store }

const orderColumns = `id, order_number, user_id, items, shipping_address, shipping_method, payment_method,
	payment_status, status, items_total, shipping_cost, discount, grand_total, cancel_reason,
	created_at, updated_at, shipped_at, delivered_at, cancelled_at`

func scanOrder(row scanner) (*order.Order, error) {
	var (
		o           order.Order
		itemsJSON   []byte
		addressJSON []byte
	)
	err := row.Scan(&o.ID, &o.OrderNumber, &o.UserID, &itemsJSON, &addressJSON, &o.ShippingMethod,
		&o.PaymentMethod, &o.PaymentStatus, &o.Status, &o.ItemsTotal, &o.ShippingCost, &o.Discount,
		&o.GrandTotal, &o.CancelReason, &o.CreatedAt, &o.UpdatedAt, &o.ShippedAt, &o.DeliveredAt, &o.CancelledAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return nil, fmt.Errorf("decode order items: %w", err)
	}
	if err := json.Unmarshal(addressJSON, &o.ShippingAddress); err != nil {
		return nil, fmt.Errorf("decode shipping address: %w", err)
	}
	return &o, nil
}

// Place decrements stock with a conditional update per product and inserts
// the order, all in one transaction. Quantities come sorted by product id so
// concurrent placements lock rows in the same order.
func (r orderRepo) Place(ctx context.Context, o *order.Order) error {
	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("encode order items: %w", err)
	}
	addressJSON, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return fmt.Errorf("encode shipping address: %w", err)
	}

	return r.s.withTx(ctx, func(tx *sql.Tx) error {
		for _, q := range o.Quantities() {
			res, err := tx.ExecContext(ctx, `
				UPDATE products SET stock = stock - $2, sold = sold + $2, updated_at = NOW()
				WHERE id = $1 AND stock >= $2
			`, q.ProductID, q.Quantity)
			if err != nil {
				return dbError("decrement stock", err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return stockShortfall(ctx, tx, q)
			}
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO orders (`+orderColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		`, o.ID, o.OrderNumber, o.UserID, itemsJSON, addressJSON, o.ShippingMethod, o.PaymentMethod,
			o.PaymentStatus, o.Status, o.ItemsTotal, o.ShippingCost, o.Discount, o.GrandTotal, o.CancelReason,
			o.CreatedAt, o.UpdatedAt, o.ShippedAt, o.DeliveredAt, o.CancelledAt)
		if err != nil {
			return insertOrderError(err)
		}
		return nil
	})
}

// insertOrderError reports an order_number collision as a retryable conflict.
func insertOrderError(err error) error {
	if isUniqueViolation(err) {
		return order.ErrDuplicateOrderNumber
	}
	return dbError("insert order", err)
}

// stockShortfall explains why a conditional decrement matched no row.
func stockShortfall(ctx context.Context, tx *sql.Tx, q order.Quantity) error {
	var (
		name  string
		stock int
	)
	err := tx.QueryRowContext(ctx, `SELECT name, stock FROM products WHERE id = $1`, q.ProductID).Scan(&name, &stock)
	if errors.Is(err, sql.ErrNoRows) {
		return order.ErrProductNotFound
	}
	if err != nil {
		return dbError("read stock", err)
	}
	return &order.StockError{ProductID: q.ProductID, Name: name, Available: stock, Requested: q.Quantity}
}

func (r orderRepo) GetByID(ctx context.Context, id string) (*order.Order, error) {
	o, err := scanOrder(r.s.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return nil, notFound("get order", err, order.ErrOrderNotFound)
	}
	return o, nil
}

func (r orderRepo) List(ctx context.Context, filter order.ListFilter) ([]*order.Order, int, error) {
	var w where
	if filter.UserID != "" {
		w.add("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		w.add("status = ?", filter.Status)
	}

	var total int
	if err := r.s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, dbError("count orders", err)
	}

	p := pagination.New(filter.Page, filter.Limit)
	query := `SELECT ` + orderColumns + ` FROM orders` + w.String() + ` ORDER BY created_at DESC, id` + w.page(p.Limit, p.Offset())
	rows, err := r.s.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, 0, dbError("list orders", err)
	}
	defer rows.Close()

	orders := []*order.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, dbError("scan order", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dbError("list orders", err)
	}
	return orders, total, nil
}

// Transition is a compare-and-set on the status column; restocking runs in
// the same transaction.
func (r orderRepo) Transition(ctx context.Context, o *order.Order, from order.Status, restock bool) error {
	return r.s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE orders SET
				status = $3,
				payment_status = $4,
				cancel_reason = $5,
				updated_at = $6,
				shipped_at = $7,
				delivered_at = $8,
				cancelled_at = $9
			WHERE id = $1 AND status = $2
		`, o.ID, from, o.Status, o.PaymentStatus, o.CancelReason, o.UpdatedAt, o.ShippedAt, o.DeliveredAt, o.CancelledAt)
		if err != nil {
			return dbError("update order status", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			var exists bool
			if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, o.ID).Scan(&exists); err != nil {
				return dbError("check order", err)
			}
			if !exists {
				return order.ErrOrderNotFound
			}
			return order.ErrConcurrentUpdate
		}

		if !restock {
			return nil
		}
		for _, q := range o.Quantities() {
			_, err := tx.ExecContext(ctx, `
				UPDATE products SET stock = stock + $2, sold = GREATEST(sold - $2, 0), updated_at = NOW()
				WHERE id = $1
			`, q.ProductID, q.Quantity)
			if err != nil {
				return dbError("restore stock", err)
			}
		}
		return nil
	})
}

// HasPurchased uses JSONB containment against the GIN-indexed items column.
func (r orderRepo) HasPurchased(ctx context.Context, userID, productID string) (bool, error) {
	probe, err := json.Marshal([]map[string]string{{"product_id": productID}})
	if err != nil {
		return false, err
	}
	var ok bool
	err = r.s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM orders
			WHERE user_id = $1 AND payment_status = $2 AND items @> $3::jsonb
		)
	`, userID, order.PaymentCompleted, string(probe)).Scan(&ok)
	if err != nil {
		return false, dbError("check purchase", err)
	}
	return ok, nil
}

func (r orderRepo) Stats(ctx context.Context) (*order.Stats, error) {
	rows, err := r.s.db.QueryContext(ctx, `
		SELECT status, COUNT(*),
			COALESCE(SUM(grand_total) FILTER (WHERE payment_status = $1), 0)
		FROM orders
		GROUP BY status
	`, order.PaymentCompleted)
	if err != nil {
		return nil, dbError("order stats", err)
	}
	defer rows.Close()

	stats := &order.Stats{ByStatus: map[order.Status]int{}, Revenue: decimal.Zero}
	for rows.Next() {
		var (
			status  order.Status
			count   int
			revenue decimal.Decimal
		)
		if err := rows.Scan(&status, &count, &revenue); err != nil {
			return nil, dbError("scan order stats", err)
		}
		stats.Count += count
		stats.ByStatus[status] = count
		stats.Revenue = stats.Revenue.Add(revenue)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("order stats", err)
	}
	return stats, nil
}
