package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tipsettle/internal/domain"
	"tipsettle/internal/service"
	"tipsettle/mocks"
)

func recordN(t *testing.T, svc service.AuditService, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		err := svc.Record(context.Background(), adminCtx(), service.AuditRecord{
			EventType:  domain.EventAdjustmentCreated,
			EntityType: domain.EntityAdjustment,
			EntityID:   uuid.New(),
			Changes:    map[string]interface{}{"adjustment_amount": int64(100 * (i + 1)), "status": "approved"},
			Summary:    "adjustment",
		})
		require.NoError(t, err)
	}
}

func TestAuditService_Record_ChainsEvents(t *testing.T) {
	log, _ := nullLogger()
	svc, repo := auditTrail(log)

	recordN(t, svc, 3)

	require.Len(t, repo.Events, 3)
	assert.Equal(t, "", repo.Events[0].PrevHash)
	for i, ev := range repo.Events {
		assert.Equal(t, int64(i+1), ev.Sequence)
		assert.Len(t, ev.ImmutableHash, 64)
		assert.Equal(t, orgID, ev.OrganizationID)
		assert.Equal(t, domain.ActorUser, ev.ActorType)
		assert.Equal(t, domain.SeverityInfo, ev.Severity)
		if i > 0 {
			assert.Equal(t, repo.Events[i-1].ImmutableHash, ev.PrevHash)
		}
	}
}

func TestAuditService_Record_RepositoryFailure(t *testing.T) {
	log, _ := nullLogger()
	repo := new(mocks.MockAuditRepo)
	repo.On("Append", mock.Anything, mock.Anything).Return(errors.New("deadlock detected"))
	svc := service.NewAuditService(repo, log)

	err := svc.Record(context.Background(), adminCtx(), service.AuditRecord{
		EventType:  domain.EventBatchCreated,
		EntityType: domain.EntityAllocationBatch,
		EntityID:   uuid.New(),
	})

	assert.ErrorIs(t, err, domain.ErrAuditWrite)
}

func TestAuditService_VerifyChain_Intact(t *testing.T) {
	log, _ := nullLogger()
	svc, repo := auditTrail(log)
	recordN(t, svc, 4)
	repo.On("Chain", mock.Anything, orgID).Return(repo.Events, nil)

	res, err := svc.VerifyChain(context.Background(), adminCtx())

	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, 4, res.EventsChecked)
	assert.Equal(t, repo.Events[3].ImmutableHash, res.HeadHash)
	assert.Nil(t, res.BrokenAtSequence)
}

func TestAuditService_VerifyChain_SurvivesJSONBKeyReordering(t *testing.T) {
	log, _ := nullLogger()
	svc, repo := auditTrail(log)
	recordN(t, svc, 1)

	events := append([]domain.AuditEvent(nil), repo.Events...)
	// Postgres jsonb returns keys in its own order with added whitespace.
	events[0].Changes = json.RawMessage(`{"status": "approved", "adjustment_amount": 100}`)
	repo.On("Chain", mock.Anything, orgID).Return(events, nil)

	res, err := svc.VerifyChain(context.Background(), adminCtx())

	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestAuditService_VerifyChain_DetectsTampering(t *testing.T) {
	tests := []struct {
		name   string
		tamper func(events []domain.AuditEvent) []domain.AuditEvent
		broken int64
	}{
		{
			name: "edited changes",
			tamper: func(ev []domain.AuditEvent) []domain.AuditEvent {
				ev[1].Changes = json.RawMessage(`{"adjustment_amount":999999,"status":"approved"}`)
				return ev
			},
			broken: 2,
		},
		{
			name: "deleted event",
			tamper: func(ev []domain.AuditEvent) []domain.AuditEvent {
				return append(ev[:1], ev[2:]...)
			},
			broken: 3,
		},
		{
			name: "reordered events",
			tamper: func(ev []domain.AuditEvent) []domain.AuditEvent {
				ev[1], ev[2] = ev[2], ev[1]
				return ev
			},
			broken: 3,
		},
		{
			name: "backdated timestamp",
			tamper: func(ev []domain.AuditEvent) []domain.AuditEvent {
				ev[2].OccurredAt = ev[2].OccurredAt.Add(-time.Hour)
				return ev
			},
			broken: 3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, _ := nullLogger()
			svc, repo := auditTrail(log)
			recordN(t, svc, 3)

			events := tt.tamper(append([]domain.AuditEvent(nil), repo.Events...))
			repo.On("Chain", mock.Anything, orgID).Return(events, nil)

			res, err := svc.VerifyChain(context.Background(), adminCtx())

			require.NoError(t, err)
			assert.False(t, res.Valid)
			require.NotNil(t, res.BrokenAtSequence)
			assert.Equal(t, tt.broken, *res.BrokenAtSequence)
			assert.NotEmpty(t, res.Reason)
		})
	}
}

func TestAuditService_VerifyChain_RequiresOwnerOrAdmin(t *testing.T) {
	log, _ := nullLogger()
	svc, _ := auditTrail(log)

	_, err := svc.VerifyChain(context.Background(), managerCtx())

	assert.ErrorIs(t, err, domain.ErrInsufficientRole)
}

func TestAuditService_List(t *testing.T) {
	log, _ := nullLogger()
	svc, repo := auditTrail(log)
	entityID := uuid.New()

	repo.On("List", mock.Anything, orgID, domain.EntityDispute, &entityID, 0, 50).Return([]domain.AuditEvent{{ID: uuid.New()}}, 1, nil)

	events, total, err := svc.List(context.Background(), managerCtx(), service.AuditFilter{
		EntityType: domain.EntityDispute,
		EntityID:   &entityID,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, events, 1)

	_, _, err = svc.List(context.Background(), userCtx(domain.RoleEmployee, "e@bistro.test"), service.AuditFilter{})
	assert.ErrorIs(t, err, domain.ErrInsufficientRole)
}

func TestLineHash_DependsOnFinalisationTime(t *testing.T) {
	batch := batchWithStatus(domain.BatchStatusDraft)
	line := lineOf(batch, uuid.New(), 333)
	at := time.Date(2026, 3, 8, 9, 0, 0, 0, time.UTC)

	h1, err := service.LineHash(&line, at)
	require.NoError(t, err)
	h2, err := service.LineHash(&line, at)
	require.NoError(t, err)
	h3, err := service.LineHash(&line, at.Add(time.Second))
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)

	line.GrossAmount = 334
	h4, err := service.LineHash(&line, at)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h4)
}
