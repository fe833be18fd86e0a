package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"tipsettle/internal/domain"
	"tipsettle/internal/port"
)

type shiftRepo struct {
	db sqlx.ExtContext
}

// NewShiftRepo creates a new PostgreSQL-backed ShiftRepository.
func NewShiftRepo(db sqlx.ExtContext) port.ShiftRepository {
	return &shiftRepo{db: db}
}

func (r *shiftRepo) ListForPeriod(ctx context.Context, orgID, locationID uuid.UUID, from, to time.Time) ([]domain.Shift, error) {
	var shifts []domain.Shift
	err := sqlx.SelectContext(ctx, r.db, &shifts,
		`SELECT s.id, s.employee_id, s.location_id, s.start_at, s.end_at, s.hours_worked
		 FROM shifts s
		 JOIN employees e ON e.id = s.employee_id
		 WHERE e.organization_id = $1 AND s.location_id = $2
		   AND s.start_at <= $4 AND s.end_at >= $3
		 ORDER BY s.start_at, s.id`, orgID, locationID, from, to)
	if err != nil {
		return nil, fmt.Errorf("shiftRepo.ListForPeriod: %w", err)
	}
	return shifts, nil
}
