package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alluvi/go-storefront-api/internal/model"
)

type OrderRepository interface {
	// CreateCheckout inserts the order with its snapshot items and clears the
	// user's cart in a single transaction.
	CreateCheckout(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
	Search(ctx context.Context, referenceQuery string) ([]model.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus, confirmedBy *uuid.UUID) error
	ListTotals(ctx context.Context) ([]model.OrderTotal, error)
}

type pgOrderRepo struct{ pool *pgxpool.Pool }

func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &pgOrderRepo{pool: pool}
}

func (r *pgOrderRepo) CreateCheckout(ctx context.Context, order *model.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	order.ID = uuid.New()
	err = tx.QueryRow(ctx,
		`INSERT INTO orders (id, user_id, reference_code, total_amount, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, NOW()) RETURNING created_at`,
		order.ID, order.UserID, order.ReferenceCode, order.TotalAmount, order.Status,
	).Scan(&order.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range order.Items {
		order.Items[i].ID = uuid.New()
		order.Items[i].OrderID = order.ID
		it := &order.Items[i]
		_, err = tx.Exec(ctx,
			`INSERT INTO order_items (id, order_id, product_id, product_name, quantity,
				unit_price, promotion_applied, discount_percentage, subtotal, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())`,
			it.ID, it.OrderID, it.ProductID, it.ProductName, it.Quantity,
			it.UnitPrice, it.PromotionApplied, it.DiscountPercentage, it.Subtotal,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if _, err = tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, order.UserID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *pgOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order := &model.Order{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, reference_code, total_amount, status, created_at, confirmed_at, confirmed_by
		 FROM orders WHERE id = $1`, id,
	).Scan(&order.ID, &order.UserID, &order.ReferenceCode, &order.TotalAmount,
		&order.Status, &order.CreatedAt, &order.ConfirmedAt, &order.ConfirmedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, product_id, product_name, quantity, unit_price, promotion_applied,
			discount_percentage, subtotal, created_at
		 FROM order_items WHERE order_id = $1 ORDER BY created_at`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it model.OrderItem
		err := rows.Scan(&it.ID, &it.ProductID, &it.ProductName, &it.Quantity, &it.UnitPrice,
			&it.PromotionApplied, &it.DiscountPercentage, &it.Subtotal, &it.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		it.OrderID = order.ID
		order.Items = append(order.Items, it)
	}
	return order, nil
}

func (r *pgOrderRepo) ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, reference_code, total_amount, status, created_at, confirmed_at, confirmed_by
		 FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		o.UserID = userID
		err := rows.Scan(&o.ID, &o.ReferenceCode, &o.TotalAmount, &o.Status,
			&o.CreatedAt, &o.ConfirmedAt, &o.ConfirmedBy)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// Search matches reference codes by case-insensitive substring. An empty
// query returns every order, newest first.
func (r *pgOrderRepo) Search(ctx context.Context, referenceQuery string) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, reference_code, total_amount, status, created_at, confirmed_at, confirmed_by
		 FROM orders
		 WHERE ($1 = '' OR reference_code ILIKE '%' || $1 || '%')
		 ORDER BY created_at DESC`, referenceQuery,
	)
	if err != nil {
		return nil, fmt.Errorf("search orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		err := rows.Scan(&o.ID, &o.UserID, &o.ReferenceCode, &o.TotalAmount, &o.Status,
			&o.CreatedAt, &o.ConfirmedAt, &o.ConfirmedBy)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (r *pgOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus, confirmedBy *uuid.UUID) error {
	var (
		ct  pgconn.CommandTag
		err error
	)
	if status == model.OrderStatusConfirmed {
		ct, err = r.pool.Exec(ctx,
			`UPDATE orders SET status = $2, confirmed_at = NOW(), confirmed_by = $3 WHERE id = $1`,
			id, status, confirmedBy,
		)
	} else {
		ct, err = r.pool.Exec(ctx,
			`UPDATE orders SET status = $2 WHERE id = $1`, id, status,
		)
	}
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *pgOrderRepo) ListTotals(ctx context.Context) ([]model.OrderTotal, error) {
	rows, err := r.pool.Query(ctx, `SELECT total_amount, status FROM orders`)
	if err != nil {
		return nil, fmt.Errorf("list order totals: %w", err)
	}
	defer rows.Close()

	var totals []model.OrderTotal
	for rows.Next() {
		var t model.OrderTotal
		if err := rows.Scan(&t.TotalAmount, &t.Status); err != nil {
			return nil, fmt.Errorf("scan order total: %w", err)
		}
		totals = append(totals, t)
	}
	return totals, nil
}
