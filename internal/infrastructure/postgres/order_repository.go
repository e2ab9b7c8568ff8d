package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dcevallos/restopos-api/internal/domain"
	"github.com/dcevallos/restopos-api/internal/domain/entity"
	"github.com/dcevallos/restopos-api/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo implementación de OrderRepository (usable con pool o tx).
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

// Create persiste la orden y sus líneas.
func (r *OrderRepo) Create(ctx context.Context, o *entity.Order, items []*entity.OrderItem) error {
	query := `
		INSERT INTO orders (id, restaurant_id, customer_name, type, status, number, billed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		o.ID, o.RestaurantID, nullIfEmpty(o.CustomerName), o.Type, o.Status, o.Number, o.Billed,
		o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return r.insertItems(ctx, o.ID, items)
}

// GetByID obtiene una orden por ID. Retorna (nil, nil) si no existe.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	row := r.q.QueryRow(ctx, `
		SELECT id, restaurant_id, customer_name, type, status, number, billed, created_at, updated_at
		FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

// GetItemsByOrderID obtiene las líneas de una orden.
func (r *OrderRepo) GetItemsByOrderID(ctx context.Context, orderID string) ([]*entity.OrderItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, order_id, name, quantity, price, prepared
		FROM order_items WHERE order_id = $1 ORDER BY created_at`, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	var items []*entity.OrderItem
	for rows.Next() {
		var it entity.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.Name, &it.Quantity, &it.Price, &it.Prepared); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

// Update reescribe cabecera y líneas completas.
func (r *OrderRepo) Update(ctx context.Context, o *entity.Order, items []*entity.OrderItem) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE orders SET customer_name = $2, type = $3, status = $4, updated_at = $5
		WHERE id = $1`,
		o.ID, nullIfEmpty(o.CustomerName), o.Type, o.Status, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, o.ID); err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}
	return r.insertItems(ctx, o.ID, items)
}

// UpdateStatus cambia solo el estado de sala.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id, status string) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkBilled marca o desmarca la orden como facturada.
func (r *OrderRepo) MarkBilled(ctx context.Context, id string, billed bool) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE orders SET billed = $2, updated_at = now() WHERE id = $1`, id, billed)
	if err != nil {
		return fmt.Errorf("mark order billed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UnmarkAllBilled desmarca todas las órdenes del restaurante (reset de facturación).
func (r *OrderRepo) UnmarkAllBilled(ctx context.Context, restaurantID string) error {
	if _, err := r.q.Exec(ctx,
		`UPDATE orders SET billed = FALSE, updated_at = now() WHERE restaurant_id = $1 AND billed`, restaurantID); err != nil {
		return fmt.Errorf("unmark billed orders: %w", err)
	}
	return nil
}

// ListByRestaurant lista órdenes del restaurante, más recientes primero.
func (r *OrderRepo) ListByRestaurant(ctx context.Context, restaurantID string, limit, offset int) ([]*entity.Order, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, restaurant_id, customer_name, type, status, number, billed, created_at, updated_at
		FROM orders WHERE restaurant_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, restaurantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []*entity.Order
	for rows.Next() {
		o, sErr := scanOrder(rows)
		if sErr != nil {
			return nil, sErr
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// CountByRestaurant cuenta las órdenes del restaurante.
func (r *OrderRepo) CountByRestaurant(ctx context.Context, restaurantID string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE restaurant_id = $1`, restaurantID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return n, nil
}

func (r *OrderRepo) insertItems(ctx context.Context, orderID string, items []*entity.OrderItem) error {
	for _, it := range items {
		_, err := r.q.Exec(ctx, `
			INSERT INTO order_items (id, order_id, name, quantity, price, prepared, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, now())`,
			it.ID, orderID, it.Name, it.Quantity, it.Price, it.Prepared,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

func scanOrder(row pgx.Row) (*entity.Order, error) {
	var o entity.Order
	var customerName *string
	err := row.Scan(&o.ID, &o.RestaurantID, &customerName, &o.Type, &o.Status, &o.Number, &o.Billed,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	o.CustomerName = derefStr(customerName)
	return &o, nil
}
