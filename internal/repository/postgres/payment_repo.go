package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"tipsettle/internal/domain"
	"tipsettle/internal/port"
)

type paymentRepo struct {
	db sqlx.ExtContext
}

// NewPaymentRepo creates a new PostgreSQL-backed PaymentRepository.
func NewPaymentRepo(db sqlx.ExtContext) port.PaymentRepository {
	return &paymentRepo{db: db}
}

func (r *paymentRepo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.Payment, error) {
	var p domain.Payment
	err := sqlx.GetContext(ctx, r.db, &p,
		"SELECT * FROM payments WHERE id = $1 AND organization_id = $2", id, orgID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("paymentRepo.GetByID: %w", err)
	}
	return &p, nil
}

func (r *paymentRepo) ListForPeriod(ctx context.Context, orgID, locationID uuid.UUID, from, to time.Time) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := sqlx.SelectContext(ctx, r.db, &payments,
		`SELECT * FROM payments
		 WHERE organization_id = $1 AND location_id = $2
		   AND payment_date >= $3 AND payment_date <= $4
		 ORDER BY payment_date, id`, orgID, locationID, from, to)
	if err != nil {
		return nil, fmt.Errorf("paymentRepo.ListForPeriod: %w", err)
	}
	return payments, nil
}
