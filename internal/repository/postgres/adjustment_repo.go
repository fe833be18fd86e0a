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

type adjustmentRepo struct {
	db sqlx.ExtContext
}

// NewAdjustmentRepo creates a new PostgreSQL-backed AdjustmentRepository.
func NewAdjustmentRepo(db sqlx.ExtContext) port.AdjustmentRepository {
	return &adjustmentRepo{db: db}
}

func (r *adjustmentRepo) Create(ctx context.Context, a *domain.Adjustment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO adjustments (id, organization_id, allocation_line_id, allocation_batch_id, employee_id,
			adjustment_type, adjustment_amount, reason, status, related_dispute_id, idempotency_key,
			created_by_email, approved_by_email, reviewed_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		a.ID, a.OrganizationID, a.AllocationLineID, a.AllocationBatchID, a.EmployeeID,
		a.AdjustmentType, a.AdjustmentAmount, a.Reason, a.Status, a.RelatedDisputeID, a.IdempotencyKey,
		a.CreatedByEmail, a.ApprovedByEmail, a.ReviewedAt, a.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("adjustmentRepo.Create: %w: duplicate idempotency key", domain.ErrStateConflict)
		}
		return fmt.Errorf("adjustmentRepo.Create: %w", err)
	}
	return nil
}

func (r *adjustmentRepo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.Adjustment, error) {
	var a domain.Adjustment
	err := sqlx.GetContext(ctx, r.db, &a,
		"SELECT * FROM adjustments WHERE id = $1 AND organization_id = $2", id, orgID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAdjustmentNotFound
		}
		return nil, fmt.Errorf("adjustmentRepo.GetByID: %w", err)
	}
	return &a, nil
}

func (r *adjustmentRepo) GetByIdempotencyKey(ctx context.Context, orgID uuid.UUID, key string) (*domain.Adjustment, error) {
	var a domain.Adjustment
	err := sqlx.GetContext(ctx, r.db, &a,
		"SELECT * FROM adjustments WHERE organization_id = $1 AND idempotency_key = $2", orgID, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAdjustmentNotFound
		}
		return nil, fmt.Errorf("adjustmentRepo.GetByIdempotencyKey: %w", err)
	}
	return &a, nil
}

func (r *adjustmentRepo) Review(ctx context.Context, orgID, id uuid.UUID, status domain.AdjustmentStatus, reviewerEmail string) (*domain.Adjustment, error) {
	var a domain.Adjustment
	err := sqlx.GetContext(ctx, r.db, &a,
		`UPDATE adjustments SET status = $1, approved_by_email = $2, reviewed_at = NOW()
		 WHERE id = $3 AND organization_id = $4 AND status = 'pending'
		 RETURNING *`, status, reviewerEmail, id, orgID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, getErr := r.GetByID(ctx, orgID, id); getErr != nil {
				return nil, getErr
			}
			return nil, domain.ErrAdjustmentNotPending
		}
		return nil, fmt.Errorf("adjustmentRepo.Review: %w", err)
	}
	return &a, nil
}

func (r *adjustmentRepo) SumByEmployee(ctx context.Context, orgID, employeeID uuid.UUID) (approved, pending int64, err error) {
	var sums struct {
		Approved int64 `db:"approved"`
		Pending  int64 `db:"pending"`
	}
	err = sqlx.GetContext(ctx, r.db, &sums,
		`SELECT
			COALESCE(SUM(adjustment_amount) FILTER (WHERE status = 'approved'), 0) AS approved,
			COALESCE(SUM(adjustment_amount) FILTER (WHERE status = 'pending'), 0) AS pending
		 FROM adjustments WHERE organization_id = $1 AND employee_id = $2`, orgID, employeeID)
	if err != nil {
		return 0, 0, fmt.Errorf("adjustmentRepo.SumByEmployee: %w", err)
	}
	return sums.Approved, sums.Pending, nil
}
