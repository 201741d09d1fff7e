package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"qrmenu/order-svc/internal/domain"
	"qrmenu/order-svc/internal/service"
)

const orderColumns = `id, restaurant_id, table_number, customer_name, customer_phone, total_amount, status, created_at, updated_at`

// CreateOrder writes the order and its items in one transaction.
func (r *PostgresRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, order.ID, order.RestaurantID, nullableInt(order.TableNumber),
		order.CustomerInfo.Name, order.CustomerInfo.Phone,
		order.TotalAmount, string(order.Status()), order.CreatedAt, order.UpdatedAt); err != nil {
		return err
	}

	for i, item := range order.Items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, position, item_id, name, price, quantity)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, order.ID, i, item.ID, item.Name, item.Price, item.Quantity); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *PostgresRepository) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	order, err := scanOrder(row)
	if err != nil {
		return nil, notFoundOr(err, "get order", "order", id)
	}

	items, err := r.loadItems(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	order.Items = items[id]
	return order, nil
}

// ListOrders returns the restaurant's orders newest first.
func (r *PostgresRepository) ListOrders(ctx context.Context, restaurantID string, status *domain.Status) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE restaurant_id = $1`
	args := []any{restaurantID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, string(*status))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []domain.Order{}
	var ids []string
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
		ids = append(ids, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return orders, nil
	}

	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, from, to domain.Status, at time.Time) (bool, error) {
	result, err := r.DB.ExecContext(ctx, `
		UPDATE orders SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`, string(to), at, id, string(from))
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *PostgresRepository) CountByStatus(ctx context.Context, restaurantID string) (map[domain.Status]int, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT status, COUNT(*)
		FROM orders
		WHERE restaurant_id = $1
		GROUP BY status
	`, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[domain.Status(status)] = n
	}
	return counts, rows.Err()
}

func (r *PostgresRepository) loadItems(ctx context.Context, orderIDs []string) (map[string][]domain.OrderItem, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT order_id, item_id, name, price, quantity
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, position
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make(map[string][]domain.OrderItem, len(orderIDs))
	for rows.Next() {
		var orderID string
		var item domain.OrderItem
		if err := rows.Scan(&orderID, &item.ID, &item.Name, &item.Price, &item.Quantity); err != nil {
			return nil, err
		}
		items[orderID] = append(items[orderID], item)
	}
	return items, rows.Err()
}

func scanOrder(row scanner) (*domain.Order, error) {
	var (
		order  domain.Order
		table  sql.NullInt64
		status string
	)
	if err := row.Scan(&order.ID, &order.RestaurantID, &table,
		&order.CustomerInfo.Name, &order.CustomerInfo.Phone,
		&order.TotalAmount, &status, &order.CreatedAt, &order.UpdatedAt); err != nil {
		return nil, err
	}
	order.TableNumber = intPtr(table)
	if err := order.Hydrate(domain.Status(status)); err != nil {
		return nil, err
	}
	return &order, nil
}

var _ service.OrderRepository = (*PostgresRepository)(nil)
