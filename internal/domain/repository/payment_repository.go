package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"codeprep/internal/common"
	"codeprep/internal/domain/model"
	"codeprep/internal/platform/database"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	FindByOrderID(ctx context.Context, tx *sql.Tx, orderID string) (*model.Payment, error)
	MarkPaid(ctx context.Context, tx *sql.Tx, orderID, paymentID string) error
	MarkFailed(ctx context.Context, orderID string) error
}

type pgPaymentRepository struct {
	db *sql.DB
}

func NewPgPaymentRepository(db *sql.DB) PaymentRepository {
	return &pgPaymentRepository{db: db}
}

func (r *pgPaymentRepository) Create(ctx context.Context, p *model.Payment) error {
	query := `INSERT INTO payments (id, user_id, order_id, plan, amount, currency, status)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, p.ID, p.UserID, p.OrderID, p.Plan, p.Amount, p.Currency, p.Status).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("order already recorded: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgPaymentRepository.Create: %w", err)
	}
	return nil
}

// FindByOrderID locks the row when called inside a transaction.
func (r *pgPaymentRepository) FindByOrderID(ctx context.Context, tx *sql.Tx, orderID string) (*model.Payment, error) {
	query := `SELECT id, user_id, order_id, payment_id, plan, amount, currency, status, created_at, updated_at
	          FROM payments WHERE order_id = $1`
	if tx != nil {
		query += ` FOR UPDATE`
	}
	p := &model.Payment{}
	var paymentID sql.NullString
	err := database.Conn(r.db, tx).QueryRowContext(ctx, query, orderID).Scan(
		&p.ID, &p.UserID, &p.OrderID, &paymentID, &p.Plan, &p.Amount, &p.Currency, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgPaymentRepository.FindByOrderID: %w", err)
	}
	if paymentID.Valid {
		p.PaymentID = &paymentID.String
	}
	return p, nil
}

func (r *pgPaymentRepository) MarkPaid(ctx context.Context, tx *sql.Tx, orderID, paymentID string) error {
	query := `UPDATE payments SET status = 'paid', payment_id = $1, updated_at = CURRENT_TIMESTAMP
	          WHERE order_id = $2`
	res, err := database.Conn(r.db, tx).ExecContext(ctx, query, paymentID, orderID)
	if err != nil {
		return fmt.Errorf("pgPaymentRepository.MarkPaid: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgPaymentRepository) MarkFailed(ctx context.Context, orderID string) error {
	query := `UPDATE payments SET status = 'failed', updated_at = CURRENT_TIMESTAMP
	          WHERE order_id = $1 AND status = 'created'`
	if _, err := r.db.ExecContext(ctx, query, orderID); err != nil {
		return fmt.Errorf("pgPaymentRepository.MarkFailed: %w", err)
	}
	return nil
}
