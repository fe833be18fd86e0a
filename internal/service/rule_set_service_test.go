package service_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tipsettle/internal/domain"
	"tipsettle/internal/service"
	"tipsettle/mocks"
)

func newRuleSetService(store *mocks.MockStore) (service.RuleSetService, *mocks.MockAuditRepo) {
	log, _ := nullLogger()
	trail, auditRepo := auditTrail(log)
	return service.NewRuleSetService(store, trail, log), auditRepo
}

func TestRuleSetService_Create_SupersedesCurrentVersion(t *testing.T) {
	store := mocks.NewMockStore()
	svc, auditRepo := newRuleSetService(store)
	rc := userCtx(domain.RoleOwner, "owner@bistro.test")

	store.RuleSetRepo.On("SupersedeCurrent", mock.Anything, orgID, locationID).Return(2, nil)
	var created *domain.RuleSet
	store.RuleSetRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.RuleSet")).
		Run(func(args mock.Arguments) { created = args.Get(1).(*domain.RuleSet) }).
		Return(nil)

	result, err := svc.Create(context.Background(), rc, &service.CreateRuleSetInput{
		LocationID:       locationID,
		Name:             "  Weighted FOH  ",
		AllocationMethod: domain.MethodWeighted,
		RuleDefinition:   json.RawMessage(`{"role_weights":{"server":"1.0","bartender":"1.5"}}`),
	})

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, 3, created.Version)
	assert.True(t, created.IsCurrent)
	assert.Equal(t, "Weighted FOH", created.Name)
	assert.Equal(t, rc.ActorEmail, created.CreatedByEmail)
	assert.Equal(t, 2, result.SupersededVersion)
	assert.Equal(t, 1, store.TxCount)
	require.Len(t, auditRepo.Events, 1)
	assert.Equal(t, domain.EventRuleSetCreated, auditRepo.Events[0].EventType)
}

func TestRuleSetService_Create_EmptyDefinitionDefaultsToObject(t *testing.T) {
	store := mocks.NewMockStore()
	svc, _ := newRuleSetService(store)

	store.RuleSetRepo.On("SupersedeCurrent", mock.Anything, orgID, locationID).Return(0, nil)
	store.RuleSetRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	result, err := svc.Create(context.Background(), adminCtx(), &service.CreateRuleSetInput{
		LocationID:       locationID,
		AllocationMethod: domain.MethodIndividual,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.RuleSet.Version)
	assert.JSONEq(t, `{}`, string(result.RuleSet.RuleDefinition))
}

func TestRuleSetService_Create_RejectsInvalidDefinition(t *testing.T) {
	tests := []struct {
		name   string
		method domain.AllocationMethod
		def    string
	}{
		{"unknown method", "lottery", `{}`},
		{"negative weight", domain.MethodWeighted, `{"role_weights":{"server":"-1"}}`},
		{"direct percentage above 100", domain.MethodHybrid, `{"direct_percentage":"120"}`},
		{"unknown remainder policy", domain.MethodPooled, `{"remainder_policy":"carry_forward"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mocks.NewMockStore()
			svc, _ := newRuleSetService(store)

			_, err := svc.Create(context.Background(), adminCtx(), &service.CreateRuleSetInput{
				LocationID:       locationID,
				AllocationMethod: tt.method,
				RuleDefinition:   json.RawMessage(tt.def),
			})

			assert.ErrorIs(t, err, domain.ErrInvalidRuleDefinition)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Equal(t, 0, store.TxCount)
		})
	}
}

func TestRuleSetService_Create_ManagerForbidden(t *testing.T) {
	store := mocks.NewMockStore()
	svc, _ := newRuleSetService(store)

	_, err := svc.Create(context.Background(), managerCtx(), &service.CreateRuleSetInput{
		LocationID:       locationID,
		AllocationMethod: domain.MethodPooled,
	})

	assert.ErrorIs(t, err, domain.ErrInsufficientRole)
}

func TestRuleSetService_GetCurrent(t *testing.T) {
	store := mocks.NewMockStore()
	svc, _ := newRuleSetService(store)
	rs := pooledRuleSet()

	store.RuleSetRepo.On("GetCurrent", mock.Anything, orgID, locationID).Return(rs, nil)

	got, err := svc.GetCurrent(context.Background(), managerCtx(), locationID)
	require.NoError(t, err)
	assert.Equal(t, rs.ID, got.ID)

	_, err = svc.GetCurrent(context.Background(), managerCtx(), uuid.Nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
