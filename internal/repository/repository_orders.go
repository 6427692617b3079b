package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"market/internal/models"
)

func (repo *Repository) prepOrdersQuery(limit, offset int, orderId, customerId, supplierId, partyId string, statuses []string) (query string, queryParams []interface{}) {
	query = `
	SELECT
		id, request_id, offer_id, customer_id, supplier_id, status, total_price, quantity, created_at
	FROM orders
	$conditions$
	ORDER BY created_at, id
	LIMIT $1
	OFFSET $2
	`

	queryParams = make([]interface{}, 0, 6)
	conditions := make([]string, 0, 4)

	if limit <= 0 {
		queryParams = append(queryParams, nil)
	} else {
		queryParams = append(queryParams, limit)
	}
	queryParams = append(queryParams, offset)

	if len(orderId) > 0 {
		queryParams = append(queryParams, orderId)
		conditions = append(conditions, "id = $$")
	}
	if len(customerId) > 0 {
		queryParams = append(queryParams, customerId)
		conditions = append(conditions, "customer_id = $$")
	}
	if len(supplierId) > 0 {
		queryParams = append(queryParams, supplierId)
		conditions = append(conditions, "supplier_id = $$")
	}
	if len(partyId) > 0 {
		queryParams = append(queryParams, partyId)
		conditions = append(conditions, "(customer_id = $$ OR supplier_id = $$)")
	}
	if len(statuses) > 0 {
		queryParams = append(queryParams, sliceToSQLList(statuses))
		conditions = append(conditions, "status = any($$::order_status[])")
	}

	condStr := ""
	if len(conditions) > 0 {
		for i := 0; i < len(conditions); i++ {
			conditions[i] = strings.Replace(conditions[i], "$$", "$"+strconv.Itoa(i+3), -1)
		}
		condStr = "WHERE " + strings.Join(conditions, " AND ")
	}
	query = strings.Replace(query, "$conditions$", condStr, -1)

	return query, queryParams
}

func (repo *Repository) scanOrders(ctx context.Context, query string, params []interface{}) ([]models.Order, error) {
	rows, err := repo.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("repository.Repository.scanOrders: %w", err)
	}
	defer rows.Close()

	var result []models.Order
	var order models.Order
	for rows.Next() {
		err = rows.Scan(&order.Id, &order.RequestId, &order.OfferId, &order.CustomerId, &order.SupplierId, &order.Status, &order.TotalPrice, &order.Quantity, &order.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository.Repository.scanOrders: rows scan error: %w", err)
		}
		result = append(result, order)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("repository.Repository.scanOrders: %w", rows.Err())
	}

	return result, nil
}

func (repo *Repository) GetOrderByUUID(ctx context.Context, UUID string) (models.Order, error) {
	var order models.Order
	query, params := repo.prepOrdersQuery(1, 0, UUID, "", "", "", nil)
	row := repo.db.QueryRowContext(ctx, query, params...)
	err := row.Scan(&order.Id, &order.RequestId, &order.OfferId, &order.CustomerId, &order.SupplierId, &order.Status, &order.TotalPrice, &order.Quantity, &order.CreatedAt)
	if err != nil {
		return order, fmt.Errorf("repository.Repository.GetOrderByUUID: %w", err)
	}
	return order, nil
}

// GetActiveOrders returns placed orders where the user is either party.
func (repo *Repository) GetActiveOrders(ctx context.Context, limit, offset int, userId string) ([]models.Order, error) {
	query, params := repo.prepOrdersQuery(limit, offset, "", "", "", userId, []string{string(models.OrderPlaced)})
	orders, err := repo.scanOrders(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("repository.Repository.GetActiveOrders: %w", err)
	}
	return orders, nil
}

// GetOrderHistory returns the customer's finished orders, delivered and
// cancelled both.
func (repo *Repository) GetOrderHistory(ctx context.Context, limit, offset int, customerId string) ([]models.Order, error) {
	query, params := repo.prepOrdersQuery(limit, offset, "", customerId, "", "", []string{string(models.OrderDelivered), string(models.OrderCancelled)})
	orders, err := repo.scanOrders(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("repository.Repository.GetOrderHistory: %w", err)
	}
	return orders, nil
}

// AdvanceOrder moves a placed order into a terminal status with a
// compare-and-swap; zero rows affected means the order left placed
// already and the transition is refused.
func (repo *Repository) AdvanceOrder(ctx context.Context, orderId string, status models.OrderStatus) error {
	query := `
	UPDATE orders
	SET status = $1
	WHERE id = $2 AND status = 'placed'
	`

	res, err := repo.db.ExecContext(ctx, query, status, orderId)
	if err != nil {
		return fmt.Errorf("repository.Repository.AdvanceOrder: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("repository.Repository.AdvanceOrder: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("repository.Repository.AdvanceOrder: %w", models.ErrInvalidTransition)
	}

	return nil
}
