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

type ruleSetRepo struct {
	db sqlx.ExtContext
}

// NewRuleSetRepo creates a new PostgreSQL-backed RuleSetRepository.
func NewRuleSetRepo(db sqlx.ExtContext) port.RuleSetRepository {
	return &ruleSetRepo{db: db}
}

func (r *ruleSetRepo) Create(ctx context.Context, rs *domain.RuleSet) error {
	if rs.ID == uuid.Nil {
		rs.ID = uuid.New()
	}
	rs.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tip_rule_sets (id, organization_id, location_id, name, version, is_current,
			allocation_method, rule_definition, created_by_email, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rs.ID, rs.OrganizationID, rs.LocationID, rs.Name, rs.Version, rs.IsCurrent,
		rs.AllocationMethod, jsonOrNull(rs.RuleDefinition), rs.CreatedByEmail, rs.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("ruleSetRepo.Create: %w: concurrent rule set version", domain.ErrStateConflict)
		}
		return fmt.Errorf("ruleSetRepo.Create: %w", err)
	}
	return nil
}

func (r *ruleSetRepo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.RuleSet, error) {
	var rs domain.RuleSet
	err := sqlx.GetContext(ctx, r.db, &rs,
		"SELECT * FROM tip_rule_sets WHERE id = $1 AND organization_id = $2", id, orgID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRuleSetNotFound
		}
		return nil, fmt.Errorf("ruleSetRepo.GetByID: %w", err)
	}
	return &rs, nil
}

func (r *ruleSetRepo) GetCurrent(ctx context.Context, orgID, locationID uuid.UUID) (*domain.RuleSet, error) {
	var rs domain.RuleSet
	err := sqlx.GetContext(ctx, r.db, &rs,
		`SELECT * FROM tip_rule_sets
		 WHERE organization_id = $1 AND location_id = $2 AND is_current`, orgID, locationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNoActiveRuleSet
		}
		return nil, fmt.Errorf("ruleSetRepo.GetCurrent: %w", err)
	}
	return &rs, nil
}

func (r *ruleSetRepo) ListByLocation(ctx context.Context, orgID, locationID uuid.UUID) ([]domain.RuleSet, error) {
	var sets []domain.RuleSet
	err := sqlx.SelectContext(ctx, r.db, &sets,
		`SELECT * FROM tip_rule_sets
		 WHERE organization_id = $1 AND location_id = $2
		 ORDER BY version DESC`, orgID, locationID)
	if err != nil {
		return nil, fmt.Errorf("ruleSetRepo.ListByLocation: %w", err)
	}
	return sets, nil
}

func (r *ruleSetRepo) SupersedeCurrent(ctx context.Context, orgID, locationID uuid.UUID) (int, error) {
	// Lock every version of the location so concurrent creators serialize on the max version.
	var version int
	err := sqlx.GetContext(ctx, r.db, &version,
		`SELECT COALESCE(MAX(version), 0) FROM (
			SELECT version FROM tip_rule_sets
			WHERE organization_id = $1 AND location_id = $2
			FOR UPDATE
		 ) v`, orgID, locationID)
	if err != nil {
		return 0, fmt.Errorf("ruleSetRepo.SupersedeCurrent max: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE tip_rule_sets SET is_current = FALSE
		 WHERE organization_id = $1 AND location_id = $2 AND is_current`, orgID, locationID)
	if err != nil {
		return 0, fmt.Errorf("ruleSetRepo.SupersedeCurrent: %w", err)
	}
	return version, nil
}
