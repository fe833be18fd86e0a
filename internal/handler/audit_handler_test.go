package handler_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"tipsettle/internal/domain"
	"tipsettle/internal/handler"
	"tipsettle/internal/service"
	"tipsettle/mocks"
)

func newAuditHandler() (*handler.AuditHandler, *mocks.MockAuditService) {
	mockSvc := new(mocks.MockAuditService)
	return handler.NewAuditHandler(mockSvc), mockSvc
}

func TestAuditHandler_List(t *testing.T) {
	h, mockSvc := newAuditHandler()
	rc := callerCtx(domain.RoleManager)
	entityID := uuid.New()

	mockSvc.On("List", mock.Anything, rc, service.AuditFilter{
		EntityType: domain.EntityAdjustment,
		EntityID:   &entityID,
		Offset:     0,
		Limit:      50,
	}).Return([]domain.AuditEvent{{ID: uuid.New()}}, 1, nil)

	c, w := newContext(http.MethodGet, "/api/v1/audit-events?entity_type=adjustment&entity_id="+entityID.String()+"&limit=50", nil, &rc)
	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestAuditHandler_Verify_Broken(t *testing.T) {
	h, mockSvc := newAuditHandler()
	rc := callerCtx(domain.RoleOwner)
	seq := int64(7)

	mockSvc.On("VerifyChain", mock.Anything, rc).Return(&service.ChainVerification{
		Valid:            false,
		EventsChecked:    7,
		BrokenAtSequence: &seq,
		Reason:           "immutable_hash mismatch",
	}, nil)

	c, w := newContext(http.MethodGet, "/api/v1/audit-events/verify", nil, &rc)
	h.Verify(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w).Data.(map[string]interface{})
	assert.Equal(t, false, data["valid"])
	assert.Equal(t, float64(7), data["broken_at_sequence"])
}

func TestAuditHandler_Verify_RepositoryDown(t *testing.T) {
	h, mockSvc := newAuditHandler()
	rc := callerCtx(domain.RoleOwner)

	mockSvc.On("VerifyChain", mock.Anything, rc).Return(nil, errors.New("auditRepo.Chain: connection refused"))

	c, w := newContext(http.MethodGet, "/api/v1/audit-events/verify", nil, &rc)
	h.Verify(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "DEPENDENCY_FAILURE", decode(t, w).Error.Code)
}
