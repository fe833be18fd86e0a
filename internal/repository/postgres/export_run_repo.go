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

type exportRunRepo struct {
	db sqlx.ExtContext
}

// NewExportRunRepo creates a new PostgreSQL-backed ExportRunRepository.
func NewExportRunRepo(db sqlx.ExtContext) port.ExportRunRepository {
	return &exportRunRepo{db: db}
}

func (r *exportRunRepo) Create(ctx context.Context, run *domain.ExportRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	run.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO export_runs (id, organization_id, batch_id, format, artifact_key, line_count,
			total_amount, created_by_email, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		run.ID, run.OrganizationID, run.BatchID, run.Format, run.ArtifactKey, run.LineCount,
		run.TotalAmount, run.CreatedByEmail, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("exportRunRepo.Create: %w", err)
	}
	return nil
}
