package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Order は有効な注文を表します。
type Order struct {
	ID          int64     `json:"orderId"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

const (
	createOrderQuery = `INSERT INTO orders (description) VALUES ($1) RETURNING order_id`

	getOrderQuery = `SELECT order_id, description, created_at
		FROM orders
		WHERE order_id = $1 AND is_active = TRUE`

	listOrdersQuery = `SELECT order_id, description, created_at
		FROM orders
		WHERE is_active = TRUE
		ORDER BY order_id`

	deactivateOrderQuery = `UPDATE orders SET is_active = FALSE WHERE order_id = $1 AND is_active = TRUE`
)

// Orders は注文の永続化を担います。
type Orders struct {
	db *sql.DB
}

// NewOrders は Orders を作成します。
func NewOrders(db *sql.DB) *Orders {
	return &Orders{db: db}
}

// Create は注文を登録し、採番された ID を返します。
func (r *Orders) Create(ctx context.Context, description string) (int64, error) {
	var id int64
	if err := r.db.QueryRowContext(ctx, createOrderQuery, description).Scan(&id); err != nil {
		return 0, fmt.Errorf("create order: %w", err)
	}
	return id, nil
}

// Get は有効な注文を1件取得します。
func (r *Orders) Get(ctx context.Context, id int64) (*Order, error) {
	order := &Order{}
	err := r.db.QueryRowContext(ctx, getOrderQuery, id).Scan(&order.ID, &order.Description, &order.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

// List は有効な注文を ID 順に返します。
func (r *Orders) List(ctx context.Context) ([]Order, error) {
	rows, err := r.db.QueryContext(ctx, listOrdersQuery)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.Description, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// Deactivate は注文を論理削除し、更新行数を返します。
func (r *Orders) Deactivate(ctx context.Context, id int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, deactivateOrderQuery, id)
	if err != nil {
		return 0, fmt.Errorf("deactivate order: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deactivate order: %w", err)
	}
	return n, nil
}
