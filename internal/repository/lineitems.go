package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/Synerlabs/cohorts-orders-service/internal/apperrors"
	"github.com/Synerlabs/cohorts-orders-service/internal/logging"
	"github.com/Synerlabs/cohorts-orders-service/internal/models"
)

// PostgresLineItemRepository implements LineItemRepository using PostgreSQL.
// Metadata is stored as a JSONB column.
type PostgresLineItemRepository struct {
	db     *sql.DB
	logger *logging.Logger
}

// NewPostgresLineItemRepository creates a new PostgreSQL line-item repository.
func NewPostgresLineItemRepository(db *sql.DB, logger *logging.Logger) *PostgresLineItemRepository {
	return &PostgresLineItemRepository{
		db:     db,
		logger: logger,
	}
}

var _ LineItemRepository = (*PostgresLineItemRepository)(nil)

const lineItemColumns = `id, order_id, type, product_id, amount, currency, status, metadata,
	created_at, updated_at, completed_at, failed_at, cancelled_at`

// Create inserts a new line item row.
func (r *PostgresLineItemRepository) Create(ctx context.Context, item *models.LineItem) error {
	metadataJSON, err := json.Marshal(item.Metadata)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO line_items (id, order_id, type, product_id, amount, currency, status, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = q(ctx, r.db).ExecContext(ctx, query,
		item.ID,
		item.OrderID,
		item.Type,
		item.ProductID,
		item.Amount,
		item.Currency,
		item.Status,
		metadataJSON,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create line item", logging.Fields{
			"order_id": item.OrderID,
			"type":     item.Type,
			"error":    err.Error(),
		})
		return err
	}

	r.logger.Info("Line item created", logging.Fields{
		"line_item_id": item.ID,
		"order_id":     item.OrderID,
		"type":         item.Type,
	})
	return nil
}

// GetByID retrieves a line item by its unique identifier.
func (r *PostgresLineItemRepository) GetByID(ctx context.Context, id string) (*models.LineItem, error) {
	query := `SELECT ` + lineItemColumns + ` FROM line_items WHERE id = $1`

	item, err := r.scanLineItem(q(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("line item", id)
	}
	if err != nil {
		r.logger.Error("Failed to fetch line item", logging.Fields{
			"line_item_id": id,
			"error":        err.Error(),
		})
		return nil, err
	}
	return item, nil
}

// GetByOrderID retrieves all line items owned by an order.
func (r *PostgresLineItemRepository) GetByOrderID(ctx context.Context, orderID string) ([]*models.LineItem, error) {
	query := `SELECT ` + lineItemColumns + ` FROM line_items WHERE order_id = $1 ORDER BY created_at`

	rows, err := q(ctx, r.db).QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*models.LineItem, 0)
	for rows.Next() {
		item, err := r.scanLineItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Update persists the line item's status, metadata and lifecycle timestamps.
func (r *PostgresLineItemRepository) Update(ctx context.Context, item *models.LineItem) error {
	metadataJSON, err := json.Marshal(item.Metadata)
	if err != nil {
		return err
	}

	query := `
		UPDATE line_items
		SET status = $2, metadata = $3, updated_at = $4,
		    completed_at = $5, failed_at = $6, cancelled_at = $7
		WHERE id = $1
	`

	result, err := q(ctx, r.db).ExecContext(ctx, query,
		item.ID,
		item.Status,
		metadataJSON,
		item.UpdatedAt,
		item.CompletedAt,
		item.FailedAt,
		item.CancelledAt,
	)
	if err != nil {
		r.logger.Error("Failed to update line item", logging.Fields{
			"line_item_id": item.ID,
			"error":        err.Error(),
		})
		return err
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError("line item", item.ID)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *PostgresLineItemRepository) scanLineItem(row rowScanner) (*models.LineItem, error) {
	var item models.LineItem
	var metadataJSON []byte
	var completedAt, failedAt, cancelledAt sql.NullTime

	err := row.Scan(
		&item.ID,
		&item.OrderID,
		&item.Type,
		&item.ProductID,
		&item.Amount,
		&item.Currency,
		&item.Status,
		&metadataJSON,
		&item.CreatedAt,
		&item.UpdatedAt,
		&completedAt,
		&failedAt,
		&cancelledAt,
	)
	if err != nil {
		return nil, err
	}

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &item.Metadata); err != nil {
			return nil, err
		}
	}
	if item.Metadata == nil {
		item.Metadata = models.Metadata{}
	}

	if completedAt.Valid {
		item.CompletedAt = &completedAt.Time
	}
	if failedAt.Valid {
		item.FailedAt = &failedAt.Time
	}
	if cancelledAt.Valid {
		item.CancelledAt = &cancelledAt.Time
	}
	return &item, nil
}

// NewLineItemID generates a line item identifier.
func NewLineItemID() string {
	return "li_" + uuid.NewString()
}
