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

type batchRepo struct {
	db sqlx.ExtContext
}

// NewBatchRepo creates a new PostgreSQL-backed BatchRepository.
func NewBatchRepo(db sqlx.ExtContext) port.BatchRepository {
	return &batchRepo{db: db}
}

func (r *batchRepo) Create(ctx context.Context, b *domain.AllocationBatch) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO allocation_batches (id, organization_id, location_id, period_start, period_end,
			rule_set_id, rule_version, allocation_method, total_tips_collected, total_tips_allocated,
			remainder_amount, unassigned_amount, employee_count, status, immutable, idempotency_key,
			created_by_email, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		b.ID, b.OrganizationID, b.LocationID, b.PeriodStart, b.PeriodEnd,
		b.RuleSetID, b.RuleVersion, b.AllocationMethod, b.TotalTipsCollected, b.TotalTipsAllocated,
		b.RemainderAmount, b.UnassignedAmount, b.EmployeeCount, b.Status, b.Immutable, b.IdempotencyKey,
		b.CreatedByEmail, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("batchRepo.Create: %w: batch already exists for idempotency key", domain.ErrStateConflict)
		}
		return fmt.Errorf("batchRepo.Create: %w", err)
	}
	return nil
}

func (r *batchRepo) CreateLines(ctx context.Context, lines []domain.AllocationLine) error {
	now := time.Now().UTC()
	for i := range lines {
		l := &lines[i]
		if l.ID == uuid.Nil {
			l.ID = uuid.New()
		}
		l.CreatedAt = now
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO allocation_lines (id, batch_id, organization_id, payment_id, employee_id, gross_amount,
				allocation_method, pool_share_percentage, weight_factor, hours_worked, calculation_metadata,
				explanation, audit_hash, immutable, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
			l.ID, l.BatchID, l.OrganizationID, l.PaymentID, l.EmployeeID, l.GrossAmount,
			l.AllocationMethod, l.PoolSharePercentage, l.WeightFactor, l.HoursWorked,
			jsonOrNull(l.CalculationMetadata), l.Explanation, l.AuditHash, l.Immutable, l.CreatedAt)
		if err != nil {
			return fmt.Errorf("batchRepo.CreateLines line %d: %w", i, err)
		}
	}
	return nil
}

func (r *batchRepo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.AllocationBatch, error) {
	var b domain.AllocationBatch
	err := sqlx.GetContext(ctx, r.db, &b,
		"SELECT * FROM allocation_batches WHERE id = $1 AND organization_id = $2", id, orgID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBatchNotFound
		}
		return nil, fmt.Errorf("batchRepo.GetByID: %w", err)
	}
	return &b, nil
}

func (r *batchRepo) GetByIdempotencyKey(ctx context.Context, orgID uuid.UUID, key string) (*domain.AllocationBatch, error) {
	var b domain.AllocationBatch
	err := sqlx.GetContext(ctx, r.db, &b,
		"SELECT * FROM allocation_batches WHERE organization_id = $1 AND idempotency_key = $2", orgID, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBatchNotFound
		}
		return nil, fmt.Errorf("batchRepo.GetByIdempotencyKey: %w", err)
	}
	return &b, nil
}

func (r *batchRepo) List(ctx context.Context, orgID uuid.UUID, locationID *uuid.UUID, offset, limit int) ([]domain.AllocationBatch, int, error) {
	var total int
	err := sqlx.GetContext(ctx, r.db, &total,
		`SELECT COUNT(*) FROM allocation_batches
		 WHERE organization_id = $1 AND ($2::uuid IS NULL OR location_id = $2)`, orgID, locationID)
	if err != nil {
		return nil, 0, fmt.Errorf("batchRepo.List count: %w", err)
	}

	var batches []domain.AllocationBatch
	err = sqlx.SelectContext(ctx, r.db, &batches,
		`SELECT * FROM allocation_batches
		 WHERE organization_id = $1 AND ($2::uuid IS NULL OR location_id = $2)
		 ORDER BY period_start DESC, created_at DESC
		 LIMIT $3 OFFSET $4`, orgID, locationID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("batchRepo.List: %w", err)
	}
	return batches, total, nil
}

func (r *batchRepo) ListLines(ctx context.Context, orgID, batchID uuid.UUID) ([]domain.AllocationLine, error) {
	var lines []domain.AllocationLine
	err := sqlx.SelectContext(ctx, r.db, &lines,
		`SELECT * FROM allocation_lines
		 WHERE organization_id = $1 AND batch_id = $2
		 ORDER BY created_at, id`, orgID, batchID)
	if err != nil {
		return nil, fmt.Errorf("batchRepo.ListLines: %w", err)
	}
	return lines, nil
}

func (r *batchRepo) GetLine(ctx context.Context, orgID, lineID uuid.UUID) (*domain.AllocationLine, error) {
	var l domain.AllocationLine
	err := sqlx.GetContext(ctx, r.db, &l,
		"SELECT * FROM allocation_lines WHERE id = $1 AND organization_id = $2", lineID, orgID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrLineNotFound
		}
		return nil, fmt.Errorf("batchRepo.GetLine: %w", err)
	}
	return &l, nil
}

func (r *batchRepo) ListLinesByPayment(ctx context.Context, orgID, paymentID uuid.UUID) ([]domain.AllocationLine, error) {
	var lines []domain.AllocationLine
	err := sqlx.SelectContext(ctx, r.db, &lines,
		`SELECT * FROM allocation_lines
		 WHERE organization_id = $1 AND payment_id = $2
		 ORDER BY created_at, id`, orgID, paymentID)
	if err != nil {
		return nil, fmt.Errorf("batchRepo.ListLinesByPayment: %w", err)
	}
	return lines, nil
}

func (r *batchRepo) TransitionStatus(ctx context.Context, orgID, batchID uuid.UUID, from []domain.BatchStatus, to domain.BatchStatus, actorEmail string) (*domain.AllocationBatch, error) {
	allowed := make([]string, len(from))
	for i, s := range from {
		allowed[i] = string(s)
	}
	locked := to.IsLocked()

	var b domain.AllocationBatch
	err := sqlx.GetContext(ctx, r.db, &b,
		`UPDATE allocation_batches
		 SET status = $1,
		     immutable = immutable OR $2,
		     finalised_by_email = CASE WHEN $1 = 'finalised' THEN $3 ELSE finalised_by_email END,
		     finalised_at = CASE WHEN $1 = 'finalised' THEN NOW() ELSE finalised_at END,
		     exported_at = CASE WHEN $1 = 'exported' THEN NOW() ELSE exported_at END,
		     updated_at = NOW()
		 WHERE id = $4 AND organization_id = $5 AND status = ANY($6::text[])
		 RETURNING *`,
		to, locked, actorEmail, batchID, orgID, allowed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, getErr := r.GetByID(ctx, orgID, batchID); getErr != nil {
				return nil, getErr
			}
			return nil, domain.ErrBatchWrongStatus
		}
		return nil, fmt.Errorf("batchRepo.TransitionStatus: %w", err)
	}
	return &b, nil
}

func (r *batchRepo) LockLines(ctx context.Context, orgID, batchID uuid.UUID, hashes map[uuid.UUID]string) (int, error) {
	locked := 0
	for lineID, hash := range hashes {
		result, err := r.db.ExecContext(ctx,
			`UPDATE allocation_lines SET audit_hash = $1, immutable = TRUE
			 WHERE id = $2 AND batch_id = $3 AND organization_id = $4 AND NOT immutable`,
			hash, lineID, batchID, orgID)
		if err != nil {
			return locked, fmt.Errorf("batchRepo.LockLines: %w", err)
		}
		rows, _ := result.RowsAffected()
		locked += int(rows)
	}
	return locked, nil
}

func (r *batchRepo) UpdateDraftLineAmount(ctx context.Context, orgID, lineID uuid.UUID, amount int64) (*domain.AllocationLine, error) {
	var l domain.AllocationLine
	err := sqlx.GetContext(ctx, r.db, &l,
		`UPDATE allocation_lines SET gross_amount = $1
		 WHERE id = $2 AND organization_id = $3 AND NOT immutable
		 RETURNING *`, amount, lineID, orgID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, getErr := r.GetLine(ctx, orgID, lineID); getErr != nil {
				return nil, getErr
			}
			return nil, domain.ErrLineImmutable
		}
		return nil, fmt.Errorf("batchRepo.UpdateDraftLineAmount: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE allocation_batches b
		 SET total_tips_allocated = (SELECT COALESCE(SUM(gross_amount), 0) FROM allocation_lines WHERE batch_id = b.id),
		     updated_at = NOW()
		 WHERE b.id = $1 AND b.organization_id = $2`, l.BatchID, orgID)
	if err != nil {
		return nil, fmt.Errorf("batchRepo.UpdateDraftLineAmount totals: %w", err)
	}
	return &l, nil
}
