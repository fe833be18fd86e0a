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

type disputeRepo struct {
	db sqlx.ExtContext
}

// NewDisputeRepo creates a new PostgreSQL-backed DisputeRepository.
func NewDisputeRepo(db sqlx.ExtContext) port.DisputeRepository {
	return &disputeRepo{db: db}
}

func (r *disputeRepo) Create(ctx context.Context, d *domain.Dispute) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO disputes (id, organization_id, allocation_line_id, allocation_batch_id, employee_id,
			raised_by_email, dispute_category, description, expected_amount, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		d.ID, d.OrganizationID, d.AllocationLineID, d.AllocationBatchID, d.EmployeeID,
		d.RaisedByEmail, d.DisputeCategory, d.Description, d.ExpectedAmount, d.Status, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("disputeRepo.Create: %w", err)
	}
	return nil
}

func (r *disputeRepo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.Dispute, error) {
	var d domain.Dispute
	err := sqlx.GetContext(ctx, r.db, &d,
		"SELECT * FROM disputes WHERE id = $1 AND organization_id = $2", id, orgID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDisputeNotFound
		}
		return nil, fmt.Errorf("disputeRepo.GetByID: %w", err)
	}
	return &d, nil
}

func (r *disputeRepo) List(ctx context.Context, orgID uuid.UUID, status *domain.DisputeStatus, offset, limit int) ([]domain.Dispute, int, error) {
	var statusFilter *string
	if status != nil {
		s := string(*status)
		statusFilter = &s
	}

	var total int
	err := sqlx.GetContext(ctx, r.db, &total,
		`SELECT COUNT(*) FROM disputes
		 WHERE organization_id = $1 AND ($2::text IS NULL OR status = $2)`, orgID, statusFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("disputeRepo.List count: %w", err)
	}

	var disputes []domain.Dispute
	err = sqlx.SelectContext(ctx, r.db, &disputes,
		`SELECT * FROM disputes
		 WHERE organization_id = $1 AND ($2::text IS NULL OR status = $2)
		 ORDER BY created_at DESC LIMIT $3 OFFSET $4`, orgID, statusFilter, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("disputeRepo.List: %w", err)
	}
	return disputes, total, nil
}

func (r *disputeRepo) TransitionStatus(ctx context.Context, orgID, id uuid.UUID, from []domain.DisputeStatus, to domain.DisputeStatus) (*domain.Dispute, error) {
	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}
	var d domain.Dispute
	err := sqlx.GetContext(ctx, r.db, &d,
		`UPDATE disputes SET status = $1, updated_at = NOW()
		 WHERE id = $2 AND organization_id = $3 AND status = ANY($4::text[])
		 RETURNING *`, to, id, orgID, allowed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, getErr := r.GetByID(ctx, orgID, id); getErr != nil {
				return nil, getErr
			}
			return nil, domain.ErrDisputeClosed
		}
		return nil, fmt.Errorf("disputeRepo.TransitionStatus: %w", err)
	}
	return &d, nil
}

func (r *disputeRepo) Close(ctx context.Context, d *domain.Dispute) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE disputes
		 SET status = $1, resolution_notes = $2, resolved_by_email = $3, adjustment_id = $4,
		     resolved_at = $5, updated_at = $5
		 WHERE id = $6 AND organization_id = $7 AND status IN ('open', 'under_review')`,
		d.Status, d.ResolutionNotes, d.ResolvedByEmail, d.AdjustmentID, now, d.ID, d.OrganizationID)
	if err != nil {
		return fmt.Errorf("disputeRepo.Close: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrDisputeClosed
	}
	d.ResolvedAt = &now
	d.UpdatedAt = now
	return nil
}
