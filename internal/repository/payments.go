package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/Synerlabs/cohorts-orders-service/internal/apperrors"
	"github.com/Synerlabs/cohorts-orders-service/internal/logging"
	"github.com/Synerlabs/cohorts-orders-service/internal/models"
)

// PostgresPaymentRepository implements PaymentRepository using PostgreSQL.
type PostgresPaymentRepository struct {
	db     *sql.DB
	logger *logging.Logger
}

// NewPostgresPaymentRepository creates a new PostgreSQL payment repository.
func NewPostgresPaymentRepository(db *sql.DB, logger *logging.Logger) *PostgresPaymentRepository {
	return &PostgresPaymentRepository{
		db:     db,
		logger: logger,
	}
}

var _ PaymentRepository = (*PostgresPaymentRepository)(nil)

const paymentColumns = `id, order_id, amount, currency, status, type, notes,
	approved_by, approved_at, created_at, updated_at`

// Create inserts a new payment row.
func (r *PostgresPaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	query := `
		INSERT INTO payments (id, order_id, amount, currency, status, type, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := q(ctx, r.db).ExecContext(ctx, query,
		payment.ID,
		payment.OrderID,
		payment.Amount,
		payment.Currency,
		payment.Status,
		payment.Type,
		nullString(payment.Notes),
		payment.CreatedAt,
		payment.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create payment", logging.Fields{
			"order_id": payment.OrderID,
			"error":    err.Error(),
		})
		return err
	}

	r.logger.Info("Payment recorded", logging.Fields{
		"payment_id": payment.ID,
		"order_id":   payment.OrderID,
		"amount":     payment.Amount,
		"type":       payment.Type,
	})
	return nil
}

// GetByID retrieves a payment by its unique identifier.
func (r *PostgresPaymentRepository) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	payment, err := r.scanPayment(q(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("payment", id)
	}
	if err != nil {
		r.logger.Error("Failed to fetch payment", logging.Fields{
			"payment_id": id,
			"error":      err.Error(),
		})
		return nil, err
	}
	return payment, nil
}

// GetByOrderID retrieves all payments recorded against an order.
func (r *PostgresPaymentRepository) GetByOrderID(ctx context.Context, orderID string) ([]*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE order_id = $1 ORDER BY created_at`

	rows, err := q(ctx, r.db).QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]*models.Payment, 0)
	for rows.Next() {
		payment, err := r.scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}

// SumByStatus totals payment amounts for an order in the given status.
func (r *PostgresPaymentRepository) SumByStatus(ctx context.Context, orderID string, status models.PaymentStatus) (int64, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE order_id = $1 AND status = $2`

	var total int64
	if err := q(ctx, r.db).QueryRowContext(ctx, query, orderID, status).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// Update persists the payment's status, notes and approval fields.
func (r *PostgresPaymentRepository) Update(ctx context.Context, payment *models.Payment) error {
	query := `
		UPDATE payments
		SET status = $2, notes = $3, approved_by = $4, approved_at = $5, updated_at = $6
		WHERE id = $1
	`

	result, err := q(ctx, r.db).ExecContext(ctx, query,
		payment.ID,
		payment.Status,
		nullString(payment.Notes),
		nullString(payment.ApprovedBy),
		payment.ApprovedAt,
		payment.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update payment", logging.Fields{
			"payment_id": payment.ID,
			"error":      err.Error(),
		})
		return err
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError("payment", payment.ID)
	}

	r.logger.Info("Payment updated", logging.Fields{
		"payment_id": payment.ID,
		"status":     payment.Status,
	})
	return nil
}

func (r *PostgresPaymentRepository) scanPayment(row rowScanner) (*models.Payment, error) {
	var payment models.Payment
	var notes, approvedBy sql.NullString
	var approvedAt sql.NullTime

	err := row.Scan(
		&payment.ID,
		&payment.OrderID,
		&payment.Amount,
		&payment.Currency,
		&payment.Status,
		&payment.Type,
		&notes,
		&approvedBy,
		&approvedAt,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if notes.Valid {
		payment.Notes = notes.String
	}
	if approvedBy.Valid {
		payment.ApprovedBy = approvedBy.String
	}
	if approvedAt.Valid {
		payment.ApprovedAt = &approvedAt.Time
	}
	return &payment, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// NewPaymentID generates a payment identifier.
func NewPaymentID() string {
	return "pay_" + uuid.NewString()
}
