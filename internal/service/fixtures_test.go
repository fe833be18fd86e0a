package service_test

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"

	"tipsettle/internal/domain"
	"tipsettle/internal/service"
	"tipsettle/mocks"
)

var (
	orgID      = uuid.MustParse("00000000-0000-0000-0000-0000000000a1")
	locationID = uuid.MustParse("00000000-0000-0000-0000-0000000000b1")
	periodFrom = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	periodTo   = time.Date(2026, 3, 7, 23, 59, 59, 0, time.UTC)
)

func userCtx(role domain.UserRole, email string) domain.RequestContext {
	return domain.RequestContext{
		OrganizationID: orgID,
		ActorID:        uuid.New(),
		ActorEmail:     email,
		ActorType:      domain.ActorUser,
		Role:           role,
	}
}

func adminCtx() domain.RequestContext   { return userCtx(domain.RoleAdmin, "admin@bistro.test") }
func managerCtx() domain.RequestContext { return userCtx(domain.RoleManager, "manager@bistro.test") }

// auditTrail returns a real audit service over a mock repository that accepts every append.
func auditTrail(log logrus.FieldLogger) (service.AuditService, *mocks.MockAuditRepo) {
	repo := new(mocks.MockAuditRepo)
	repo.On("Append", mock.Anything, mock.Anything).Return(nil)
	return service.NewAuditService(repo, log), repo
}

func nullLogger() (*logrus.Logger, *test.Hook) {
	return test.NewNullLogger()
}

func pooledRuleSet() *domain.RuleSet {
	return &domain.RuleSet{
		ID:               uuid.New(),
		OrganizationID:   orgID,
		LocationID:       locationID,
		Name:             "Front of house pool",
		Version:          3,
		IsCurrent:        true,
		AllocationMethod: domain.MethodPooled,
		RuleDefinition:   json.RawMessage(`{"pool_roles":["server","bartender"]}`),
	}
}

func staff(n int, role string) []domain.Employee {
	out := make([]domain.Employee, n)
	for i := range out {
		out[i] = domain.Employee{
			ID:               uuid.New(),
			OrganizationID:   orgID,
			Role:             role,
			EmploymentStatus: domain.EmploymentActive,
		}
	}
	return out
}

func completedPayment(tip int64) domain.Payment {
	return domain.Payment{
		ID:             uuid.New(),
		OrganizationID: orgID,
		LocationID:     locationID,
		TipAmount:      tip,
		PaymentDate:    periodFrom.Add(26 * time.Hour),
		Status:         domain.PaymentStatusCompleted,
	}
}

func batchWithStatus(status domain.BatchStatus) *domain.AllocationBatch {
	return &domain.AllocationBatch{
		ID:                 uuid.New(),
		OrganizationID:     orgID,
		LocationID:         locationID,
		PeriodStart:        periodFrom,
		PeriodEnd:          periodTo,
		AllocationMethod:   domain.MethodPooled,
		TotalTipsCollected: 1000,
		TotalTipsAllocated: 1000,
		Status:             status,
		Immutable:          status.IsLocked(),
	}
}

func lineOf(batch *domain.AllocationBatch, employeeID uuid.UUID, amount int64) domain.AllocationLine {
	return domain.AllocationLine{
		ID:               uuid.New(),
		BatchID:          batch.ID,
		OrganizationID:   orgID,
		EmployeeID:       employeeID,
		GrossAmount:      amount,
		AllocationMethod: batch.AllocationMethod,
		Immutable:        batch.Status.IsLocked(),
	}
}
