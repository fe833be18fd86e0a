package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"tipsettle/internal/port"
)

type store struct {
	db *sqlx.DB
	q  sqlx.ExtContext
	tx *sqlx.Tx
}

// NewStore creates a PostgreSQL-backed port.Store.
func NewStore(db *sqlx.DB) port.Store {
	return &store{db: db, q: db}
}

func (s *store) RuleSets() port.RuleSetRepository       { return NewRuleSetRepo(s.q) }
func (s *store) Employees() port.EmployeeRepository     { return NewEmployeeRepo(s.q) }
func (s *store) Payments() port.PaymentRepository       { return NewPaymentRepo(s.q) }
func (s *store) Shifts() port.ShiftRepository           { return NewShiftRepo(s.q) }
func (s *store) Batches() port.BatchRepository          { return NewBatchRepo(s.q) }
func (s *store) Adjustments() port.AdjustmentRepository { return NewAdjustmentRepo(s.q) }
func (s *store) Disputes() port.DisputeRepository       { return NewDisputeRepo(s.q) }
func (s *store) ExportRuns() port.ExportRunRepository   { return NewExportRunRepo(s.q) }

func (s *store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx port.Store) error) (err error) {
	if s.tx != nil {
		return fn(ctx, s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store.WithinTx begin: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(ctx, &store{db: s.db, q: tx, tx: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("store.WithinTx commit: %w", err)
	}
	return nil
}
