package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tipsettle/internal/domain"
	"tipsettle/internal/service"
	"tipsettle/mocks"
)

func newDisputeService(store *mocks.MockStore) (service.DisputeService, *mocks.MockAuditRepo) {
	log, _ := nullLogger()
	trail, auditRepo := auditTrail(log)
	adjustments := service.NewAdjustmentService(store, trail, service.AdjustmentServiceConfig{AutoApproveAdmin: true}, log)
	return service.NewDisputeService(store, adjustments, trail, log), auditRepo
}

func openDispute(line *domain.AllocationLine, status domain.DisputeStatus) *domain.Dispute {
	return &domain.Dispute{
		ID:                uuid.New(),
		OrganizationID:    orgID,
		AllocationLineID:  line.ID,
		AllocationBatchID: line.BatchID,
		EmployeeID:        line.EmployeeID,
		DisputeCategory:   "missing_hours",
		Description:       "Tuesday close not counted",
		Status:            status,
	}
}

func int64Ptr(v int64) *int64 { return &v }

func TestDisputeService_Raise_OwnLine(t *testing.T) {
	store := mocks.NewMockStore()
	svc, auditRepo := newDisputeService(store)
	batch, line := lockedLineFixture(store, domain.BatchStatusFinalised, 333)

	rc := userCtx(domain.RoleEmployee, "server@bistro.test")
	rc.ActorID = line.EmployeeID

	var created *domain.Dispute
	store.DisputeRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Dispute")).
		Run(func(args mock.Arguments) { created = args.Get(1).(*domain.Dispute) }).
		Return(nil)

	result, err := svc.Raise(context.Background(), rc, &service.RaiseDisputeInput{
		AllocationLineID: line.ID,
		DisputeCategory:  "missing_hours",
		Description:      "Tuesday close not counted",
		ExpectedAmount:   int64Ptr(400),
	})

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, domain.DisputeOpen, result.Dispute.Status)
	assert.Equal(t, batch.ID, created.AllocationBatchID)
	assert.Equal(t, line.EmployeeID, created.EmployeeID)
	assert.Equal(t, "server@bistro.test", created.RaisedByEmail)
	require.Len(t, auditRepo.Events, 1)
	assert.Equal(t, domain.EventDisputeRaised, auditRepo.Events[0].EventType)
}

func TestDisputeService_Raise_OtherEmployeesLine(t *testing.T) {
	store := mocks.NewMockStore()
	svc, _ := newDisputeService(store)
	_, line := lockedLineFixture(store, domain.BatchStatusExported, 333)

	_, err := svc.Raise(context.Background(), userCtx(domain.RoleEmployee, "nosy@bistro.test"), &service.RaiseDisputeInput{
		AllocationLineID: line.ID,
		DisputeCategory:  "other",
		Description:      "looks low",
	})

	assert.ErrorIs(t, err, domain.ErrInsufficientRole)
	store.DisputeRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDisputeService_Raise_DraftBatch(t *testing.T) {
	store := mocks.NewMockStore()
	svc, _ := newDisputeService(store)
	_, line := lockedLineFixture(store, domain.BatchStatusDraft, 333)

	_, err := svc.Raise(context.Background(), managerCtx(), &service.RaiseDisputeInput{
		AllocationLineID: line.ID,
		DisputeCategory:  "other",
		Description:      "wrong pool",
	})

	assert.ErrorIs(t, err, domain.ErrBatchNotFinalised)
}

func TestDisputeService_Raise_Validation(t *testing.T) {
	store := mocks.NewMockStore()
	svc, _ := newDisputeService(store)

	_, err := svc.Raise(context.Background(), managerCtx(), &service.RaiseDisputeInput{AllocationLineID: uuid.New(), Description: "x"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Raise(context.Background(), managerCtx(), &service.RaiseDisputeInput{AllocationLineID: uuid.New(), DisputeCategory: "other"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDisputeService_StartReview(t *testing.T) {
	store := mocks.NewMockStore()
	svc, auditRepo := newDisputeService(store)
	batch := batchWithStatus(domain.BatchStatusExported)
	line := lineOf(batch, uuid.New(), 100)
	reviewing := openDispute(&line, domain.DisputeUnderReview)

	store.DisputeRepo.On("TransitionStatus", mock.Anything, orgID, reviewing.ID,
		[]domain.DisputeStatus{domain.DisputeOpen}, domain.DisputeUnderReview).Return(reviewing, nil)

	result, err := svc.StartReview(context.Background(), managerCtx(), reviewing.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.DisputeUnderReview, result.Dispute.Status)
	require.Len(t, auditRepo.Events, 1)
	assert.Equal(t, domain.EventDisputeReviewStarted, auditRepo.Events[0].EventType)
}

func TestDisputeService_Resolve_WithAdjustment(t *testing.T) {
	store := mocks.NewMockStore()
	svc, auditRepo := newDisputeService(store)
	rc := adminCtx()
	_, line := lockedLineFixture(store, domain.BatchStatusExported, 333)
	d := openDispute(line, domain.DisputeUnderReview)

	store.DisputeRepo.On("GetByID", mock.Anything, orgID, d.ID).Return(d, nil)
	store.AdjustmentRepo.On("GetByIdempotencyKey", mock.Anything, orgID, "dispute:"+d.ID.String()).Return(nil, domain.ErrAdjustmentNotFound)

	var adj *domain.Adjustment
	store.AdjustmentRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Adjustment")).
		Run(func(args mock.Arguments) { adj = args.Get(1).(*domain.Adjustment) }).
		Return(nil).Once()
	store.EmployeeRepo.On("AddToBalances", mock.Anything, orgID, line.EmployeeID, int64(200), int64(200)).Return(nil)

	var closed *domain.Dispute
	store.DisputeRepo.On("Close", mock.Anything, mock.AnythingOfType("*domain.Dispute")).
		Run(func(args mock.Arguments) { closed = args.Get(1).(*domain.Dispute) }).
		Return(nil)

	result, err := svc.Resolve(context.Background(), rc, &service.ResolveDisputeInput{
		DisputeID:        d.ID,
		Resolution:       domain.DisputeResolved,
		ResolutionNotes:  "Rota confirms the extra shift",
		CreateAdjustment: true,
		AdjustmentAmount: int64Ptr(200),
	})

	require.NoError(t, err)
	require.NotNil(t, adj)
	assert.Equal(t, int64(200), adj.AdjustmentAmount)
	assert.Equal(t, domain.AdjustmentDisputeResolution, adj.AdjustmentType)
	require.NotNil(t, adj.RelatedDisputeID)
	assert.Equal(t, d.ID, *adj.RelatedDisputeID)
	assert.Equal(t, "Rota confirms the extra shift", adj.Reason)
	store.AdjustmentRepo.AssertNumberOfCalls(t, "Create", 1)

	require.NotNil(t, closed)
	assert.Equal(t, domain.DisputeResolved, closed.Status)
	require.NotNil(t, closed.AdjustmentID)
	assert.Equal(t, adj.ID, *closed.AdjustmentID)
	require.NotNil(t, closed.ResolvedByEmail)
	assert.Equal(t, rc.ActorEmail, *closed.ResolvedByEmail)
	assert.NotNil(t, closed.ResolvedAt)

	require.NotNil(t, result.Adjustment)
	assert.Equal(t, adj.ID, result.Adjustment.ID)
	assert.Equal(t, d.ID, result.DisputeID)
	assert.Equal(t, domain.DisputeResolved, result.Resolution)
	require.NotNil(t, result.AdjustmentID)
	assert.Equal(t, adj.ID, *result.AdjustmentID)
	assert.Equal(t, 1, store.TxCount)

	require.Len(t, auditRepo.Events, 2)
	assert.Equal(t, domain.EventAdjustmentCreated, auditRepo.Events[0].EventType)
	assert.Equal(t, domain.EventDisputeResolved, auditRepo.Events[1].EventType)
	assert.True(t, auditRepo.Events[1].HMRCRelevant)
	assert.Equal(t, auditRepo.Events[0].ImmutableHash, auditRepo.Events[1].PrevHash)
}

func TestDisputeService_Resolve_RejectedNeverAdjusts(t *testing.T) {
	store := mocks.NewMockStore()
	svc, auditRepo := newDisputeService(store)
	batch := batchWithStatus(domain.BatchStatusExported)
	line := lineOf(batch, uuid.New(), 333)
	d := openDispute(&line, domain.DisputeOpen)

	store.DisputeRepo.On("GetByID", mock.Anything, orgID, d.ID).Return(d, nil)
	store.DisputeRepo.On("Close", mock.Anything, mock.Anything).Return(nil)

	result, err := svc.Resolve(context.Background(), managerCtx(), &service.ResolveDisputeInput{
		DisputeID:        d.ID,
		Resolution:       domain.DisputeRejected,
		ResolutionNotes:  "Shift was unpaid training",
		CreateAdjustment: true,
		AdjustmentAmount: int64Ptr(200),
	})

	require.NoError(t, err)
	assert.Equal(t, domain.DisputeRejected, result.Dispute.Status)
	assert.Equal(t, d.ID, result.DisputeID)
	assert.Equal(t, domain.DisputeRejected, result.Resolution)
	assert.Nil(t, result.AdjustmentID)
	assert.Nil(t, result.Adjustment)
	assert.Nil(t, result.Dispute.AdjustmentID)
	store.AdjustmentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	require.Len(t, auditRepo.Events, 1)
	assert.False(t, auditRepo.Events[0].HMRCRelevant)
}

func TestDisputeService_Resolve_AlreadyClosed(t *testing.T) {
	store := mocks.NewMockStore()
	svc, _ := newDisputeService(store)
	batch := batchWithStatus(domain.BatchStatusExported)
	line := lineOf(batch, uuid.New(), 333)
	d := openDispute(&line, domain.DisputeResolved)

	store.DisputeRepo.On("GetByID", mock.Anything, orgID, d.ID).Return(d, nil)

	_, err := svc.Resolve(context.Background(), adminCtx(), &service.ResolveDisputeInput{
		DisputeID:       d.ID,
		Resolution:      domain.DisputeRejected,
		ResolutionNotes: "duplicate",
	})

	assert.ErrorIs(t, err, domain.ErrDisputeClosed)
	assert.ErrorIs(t, err, domain.ErrStateConflict)
	store.DisputeRepo.AssertNotCalled(t, "Close", mock.Anything, mock.Anything)
}

func TestDisputeService_Resolve_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input service.ResolveDisputeInput
		want  error
	}{
		{"missing notes", service.ResolveDisputeInput{DisputeID: uuid.New(), Resolution: domain.DisputeResolved}, domain.ErrResolutionNotes},
		{"bad resolution", service.ResolveDisputeInput{DisputeID: uuid.New(), Resolution: domain.DisputeOpen, ResolutionNotes: "n"}, domain.ErrValidation},
		{"adjustment without amount", service.ResolveDisputeInput{DisputeID: uuid.New(), Resolution: domain.DisputeResolved, ResolutionNotes: "n", CreateAdjustment: true}, domain.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mocks.NewMockStore()
			svc, _ := newDisputeService(store)
			in := tt.input

			_, err := svc.Resolve(context.Background(), adminCtx(), &in)

			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, 0, store.TxCount)
		})
	}
}

func TestDisputeService_Resolve_EmployeeForbidden(t *testing.T) {
	store := mocks.NewMockStore()
	svc, _ := newDisputeService(store)

	_, err := svc.Resolve(context.Background(), userCtx(domain.RoleEmployee, "e@bistro.test"), &service.ResolveDisputeInput{
		DisputeID: uuid.New(), Resolution: domain.DisputeResolved, ResolutionNotes: "mine",
	})

	assert.ErrorIs(t, err, domain.ErrInsufficientRole)
}

func TestDisputeService_Get_HidesOtherEmployeesDisputes(t *testing.T) {
	store := mocks.NewMockStore()
	svc, _ := newDisputeService(store)
	batch := batchWithStatus(domain.BatchStatusExported)
	line := lineOf(batch, uuid.New(), 333)
	d := openDispute(&line, domain.DisputeOpen)

	store.DisputeRepo.On("GetByID", mock.Anything, orgID, d.ID).Return(d, nil)

	owner := userCtx(domain.RoleEmployee, "server@bistro.test")
	owner.ActorID = line.EmployeeID
	got, err := svc.Get(context.Background(), owner, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.ID, got.ID)

	_, err = svc.Get(context.Background(), userCtx(domain.RoleEmployee, "other@bistro.test"), d.ID)
	assert.ErrorIs(t, err, domain.ErrDisputeNotFound)
}

func TestDisputeService_List_ClampsPage(t *testing.T) {
	store := mocks.NewMockStore()
	svc, _ := newDisputeService(store)
	status := domain.DisputeOpen

	store.DisputeRepo.On("List", mock.Anything, orgID, &status, 0, 50).Return([]domain.Dispute{}, 0, nil)

	_, total, err := svc.List(context.Background(), managerCtx(), &status, -5, 1000)

	require.NoError(t, err)
	assert.Equal(t, 0, total)
	store.DisputeRepo.AssertExpectations(t)
}
