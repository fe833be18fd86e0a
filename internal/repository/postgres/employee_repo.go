package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"tipsettle/internal/domain"
	"tipsettle/internal/port"
)

type employeeRepo struct {
	db sqlx.ExtContext
}

// NewEmployeeRepo creates a new PostgreSQL-backed EmployeeRepository.
func NewEmployeeRepo(db sqlx.ExtContext) port.EmployeeRepository {
	return &employeeRepo{db: db}
}

func (r *employeeRepo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.Employee, error) {
	var e domain.Employee
	err := sqlx.GetContext(ctx, r.db, &e,
		"SELECT * FROM employees WHERE id = $1 AND organization_id = $2", id, orgID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("employeeRepo.GetByID: %w", err)
	}
	return &e, nil
}

func (r *employeeRepo) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]domain.Employee, error) {
	var emps []domain.Employee
	err := sqlx.SelectContext(ctx, r.db, &emps,
		"SELECT * FROM employees WHERE organization_id = $1 ORDER BY id", orgID)
	if err != nil {
		return nil, fmt.Errorf("employeeRepo.ListByOrganization: %w", err)
	}
	return emps, nil
}

func (r *employeeRepo) AddToBalances(ctx context.Context, orgID, employeeID uuid.UUID, pendingDelta, lifetimeDelta int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE employees
		 SET pending_tips = pending_tips + $1,
		     total_tips_earned_lifetime = total_tips_earned_lifetime + $2,
		     updated_at = NOW()
		 WHERE id = $3 AND organization_id = $4`,
		pendingDelta, lifetimeDelta, employeeID, orgID)
	if err != nil {
		return fmt.Errorf("employeeRepo.AddToBalances: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrEmployeeNotFound
	}
	return nil
}
