package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tipsettle/internal/domain"
)

// Store groups the repositories behind one transactional boundary.
// Repositories obtained from the Store passed to WithinTx share that transaction.
type Store interface {
	RuleSets() RuleSetRepository
	Employees() EmployeeRepository
	Payments() PaymentRepository
	Shifts() ShiftRepository
	Batches() BatchRepository
	Adjustments() AdjustmentRepository
	Disputes() DisputeRepository
	ExportRuns() ExportRunRepository

	// WithinTx runs fn in a single transaction, committing when fn returns nil.
	// Nested calls reuse the outer transaction.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// RuleSetRepository persists versioned tip rule sets. Rule sets are never updated in place.
type RuleSetRepository interface {
	Create(ctx context.Context, rs *domain.RuleSet) error
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.RuleSet, error)
	GetCurrent(ctx context.Context, orgID, locationID uuid.UUID) (*domain.RuleSet, error)
	ListByLocation(ctx context.Context, orgID, locationID uuid.UUID) ([]domain.RuleSet, error)
	// SupersedeCurrent clears is_current on the location's current rule set and returns the
	// highest existing version (0 when none).
	SupersedeCurrent(ctx context.Context, orgID, locationID uuid.UUID) (int, error)
}

// EmployeeRepository reads employees and owns the balance counters.
type EmployeeRepository interface {
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.Employee, error)
	ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]domain.Employee, error)
	// AddToBalances atomically increments pending_tips and total_tips_earned_lifetime.
	AddToBalances(ctx context.Context, orgID, employeeID uuid.UUID, pendingDelta, lifetimeDelta int64) error
}

// PaymentRepository reads synced payments.
type PaymentRepository interface {
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.Payment, error)
	ListForPeriod(ctx context.Context, orgID, locationID uuid.UUID, from, to time.Time) ([]domain.Payment, error)
}

// ShiftRepository reads synced shifts.
type ShiftRepository interface {
	ListForPeriod(ctx context.Context, orgID, locationID uuid.UUID, from, to time.Time) ([]domain.Shift, error)
}

// BatchRepository persists allocation batches and their lines.
type BatchRepository interface {
	Create(ctx context.Context, batch *domain.AllocationBatch) error
	CreateLines(ctx context.Context, lines []domain.AllocationLine) error
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.AllocationBatch, error)
	GetByIdempotencyKey(ctx context.Context, orgID uuid.UUID, key string) (*domain.AllocationBatch, error)
	List(ctx context.Context, orgID uuid.UUID, locationID *uuid.UUID, offset, limit int) ([]domain.AllocationBatch, int, error)
	ListLines(ctx context.Context, orgID, batchID uuid.UUID) ([]domain.AllocationLine, error)
	GetLine(ctx context.Context, orgID, lineID uuid.UUID) (*domain.AllocationLine, error)
	ListLinesByPayment(ctx context.Context, orgID, paymentID uuid.UUID) ([]domain.AllocationLine, error)
	// TransitionStatus is a compare-and-set on status: it moves the batch to `to` only if its
	// current status is one of `from`, and returns domain.ErrBatchWrongStatus otherwise.
	TransitionStatus(ctx context.Context, orgID, batchID uuid.UUID, from []domain.BatchStatus, to domain.BatchStatus, actorEmail string) (*domain.AllocationBatch, error)
	// LockLines stamps each mutable line with its audit hash and marks it immutable.
	LockLines(ctx context.Context, orgID, batchID uuid.UUID, hashes map[uuid.UUID]string) (int, error)
	// UpdateDraftLineAmount changes gross_amount of a mutable line and refreshes batch totals.
	// It returns domain.ErrLineImmutable for locked lines.
	UpdateDraftLineAmount(ctx context.Context, orgID, lineID uuid.UUID, amount int64) (*domain.AllocationLine, error)
}

// AdjustmentRepository persists adjustments.
type AdjustmentRepository interface {
	Create(ctx context.Context, adj *domain.Adjustment) error
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.Adjustment, error)
	GetByIdempotencyKey(ctx context.Context, orgID uuid.UUID, key string) (*domain.Adjustment, error)
	// Review moves a pending adjustment to approved or rejected. Returns domain.ErrAdjustmentNotPending
	// if it is no longer pending.
	Review(ctx context.Context, orgID, id uuid.UUID, status domain.AdjustmentStatus, reviewerEmail string) (*domain.Adjustment, error)
	SumByEmployee(ctx context.Context, orgID, employeeID uuid.UUID) (approved, pending int64, err error)
}

// DisputeRepository persists disputes.
type DisputeRepository interface {
	Create(ctx context.Context, d *domain.Dispute) error
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*domain.Dispute, error)
	List(ctx context.Context, orgID uuid.UUID, status *domain.DisputeStatus, offset, limit int) ([]domain.Dispute, int, error)
	// TransitionStatus is a compare-and-set on dispute status.
	TransitionStatus(ctx context.Context, orgID, id uuid.UUID, from []domain.DisputeStatus, to domain.DisputeStatus) (*domain.Dispute, error)
	// Close sets a terminal status with resolution details if the dispute is not already terminal.
	Close(ctx context.Context, d *domain.Dispute) error
}

// ExportRunRepository persists payroll export runs.
type ExportRunRepository interface {
	Create(ctx context.Context, run *domain.ExportRun) error
}
