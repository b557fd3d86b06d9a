package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Synerlabs/cohorts-orders-service/internal/apperrors"
	"github.com/Synerlabs/cohorts-orders-service/internal/logging"
	"github.com/Synerlabs/cohorts-orders-service/internal/models"
)

// PostgresOrderRepository implements OrderRepository using PostgreSQL.
type PostgresOrderRepository struct {
	db     *sql.DB
	logger *logging.Logger
}

// NewPostgresOrderRepository creates a new PostgreSQL order repository.
func NewPostgresOrderRepository(db *sql.DB, logger *logging.Logger) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		db:     db,
		logger: logger,
	}
}

var _ OrderRepository = (*PostgresOrderRepository)(nil)

const orderColumns = `id, buyer_id, type, status, amount, currency, created_at, completed_at`

// Create inserts a new order row.
func (r *PostgresOrderRepository) Create(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (id, buyer_id, type, status, amount, currency, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := q(ctx, r.db).ExecContext(ctx, query,
		order.ID,
		order.BuyerID,
		order.Type,
		order.Status,
		order.Amount,
		order.Currency,
		order.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create order", logging.Fields{
			"buyer_id": order.BuyerID,
			"error":    err.Error(),
		})
		return err
	}

	r.logger.Info("Order created", logging.Fields{
		"order_id": order.ID,
		"buyer_id": order.BuyerID,
		"amount":   order.Amount,
	})
	return nil
}

// GetByID retrieves an order by its unique identifier.
func (r *PostgresOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	var order models.Order
	var completedAt sql.NullTime

	err := q(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.BuyerID,
		&order.Type,
		&order.Status,
		&order.Amount,
		&order.Currency,
		&order.CreatedAt,
		&completedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("order", id)
	}
	if err != nil {
		r.logger.Error("Failed to fetch order", logging.Fields{
			"order_id": id,
			"error":    err.Error(),
		})
		return nil, err
	}

	if completedAt.Valid {
		order.CompletedAt = &completedAt.Time
	}
	return &order, nil
}

// List retrieves orders matching the filter, newest first.
func (r *PostgresOrderRepository) List(ctx context.Context, filter *models.OrderListFilter) ([]*models.Order, int, error) {
	baseQuery := ` FROM orders WHERE 1=1`
	args := make([]interface{}, 0)

	if filter.BuyerID != "" {
		args = append(args, filter.BuyerID)
		baseQuery += fmt.Sprintf(" AND buyer_id = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		baseQuery += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int
	if err := q(ctx, r.db).QueryRowContext(ctx, "SELECT COUNT(*)"+baseQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit)
	limitIdx := len(args)
	args = append(args, filter.Offset)
	offsetIdx := len(args)

	selectQuery := "SELECT " + orderColumns + baseQuery +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", limitIdx, offsetIdx)

	rows, err := q(ctx, r.db).QueryContext(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	orders := make([]*models.Order, 0)
	for rows.Next() {
		var order models.Order
		var completedAt sql.NullTime
		if err := rows.Scan(
			&order.ID,
			&order.BuyerID,
			&order.Type,
			&order.Status,
			&order.Amount,
			&order.Currency,
			&order.CreatedAt,
			&completedAt,
		); err != nil {
			return nil, 0, err
		}
		if completedAt.Valid {
			order.CompletedAt = &completedAt.Time
		}
		orders = append(orders, &order)
	}

	return orders, total, rows.Err()
}

// UpdateStatus writes a derived order status. completedAt is only set when
// the order completes.
func (r *PostgresOrderRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus, completedAt *time.Time) error {
	query := `
		UPDATE orders
		SET status = $2, completed_at = COALESCE($3, completed_at)
		WHERE id = $1
	`

	result, err := q(ctx, r.db).ExecContext(ctx, query, id, status, completedAt)
	if err != nil {
		r.logger.Error("Failed to update order status", logging.Fields{
			"order_id": id,
			"error":    err.Error(),
		})
		return err
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError("order", id)
	}

	r.logger.Info("Order status updated", logging.Fields{
		"order_id":   id,
		"new_status": status,
	})
	return nil
}

// Delete removes the order row. This is the orchestrator's compensating
// delete for a failed line-item insert, not a soft delete.
func (r *PostgresOrderRepository) Delete(ctx context.Context, id string) error {
	result, err := q(ctx, r.db).ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete order", logging.Fields{
			"order_id": id,
			"error":    err.Error(),
		})
		return err
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError("order", id)
	}

	r.logger.Info("Order deleted", logging.Fields{"order_id": id})
	return nil
}

// NewOrderID generates an order identifier.
func NewOrderID() string {
	return "ord_" + uuid.NewString()
}
