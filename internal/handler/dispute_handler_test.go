package handler_test

import (
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

func newDisputeHandler() (*handler.DisputeHandler, *mocks.MockDisputeService) {
	mockSvc := new(mocks.MockDisputeService)
	return handler.NewDisputeHandler(mockSvc), mockSvc
}

func TestDisputeHandler_Raise(t *testing.T) {
	h, mockSvc := newDisputeHandler()
	rc := callerCtx(domain.RoleEmployee)
	lineID := uuid.New()
	expected := int64(4200)

	mockSvc.On("Raise", mock.Anything, rc, &service.RaiseDisputeInput{
		AllocationLineID: lineID,
		DisputeCategory:  "missing_hours",
		Description:      "closed the bar on Friday",
		ExpectedAmount:   &expected,
	}).Return(&service.DisputeResult{Dispute: &domain.Dispute{ID: uuid.New(), Status: domain.DisputeOpen}}, nil)

	body := map[string]interface{}{
		"allocation_line_id": lineID,
		"dispute_category":   "missing_hours",
		"description":        "closed the bar on Friday",
		"expected_amount":    4200,
	}
	c, w := newContext(http.MethodPost, "/api/v1/disputes", body, &rc)
	h.Raise(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestDisputeHandler_Raise_OtherEmployeesLine(t *testing.T) {
	h, mockSvc := newDisputeHandler()
	rc := callerCtx(domain.RoleEmployee)

	mockSvc.On("Raise", mock.Anything, rc, mock.Anything).Return(nil, domain.ErrInsufficientRole)

	body := map[string]interface{}{"allocation_line_id": uuid.New(), "dispute_category": "other", "description": "x"}
	c, w := newContext(http.MethodPost, "/api/v1/disputes", body, &rc)
	h.Raise(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDisputeHandler_List_StatusFilter(t *testing.T) {
	h, mockSvc := newDisputeHandler()
	rc := callerCtx(domain.RoleManager)
	status := domain.DisputeUnderReview

	mockSvc.On("List", mock.Anything, rc, &status, 0, 20).Return([]domain.Dispute{{ID: uuid.New()}}, 1, nil)

	c, w := newContext(http.MethodGet, "/api/v1/disputes?status=under_review", nil, &rc)
	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode(t, w).Meta.Total)
	mockSvc.AssertExpectations(t)
}

func TestDisputeHandler_List_InvalidStatus(t *testing.T) {
	h, mockSvc := newDisputeHandler()
	rc := callerCtx(domain.RoleManager)

	c, w := newContext(http.MethodGet, "/api/v1/disputes?status=escalated", nil, &rc)
	h.List(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockSvc.AssertNotCalled(t, "List")
}

func TestDisputeHandler_Get_NotVisible(t *testing.T) {
	h, mockSvc := newDisputeHandler()
	rc := callerCtx(domain.RoleEmployee)
	disputeID := uuid.New()

	mockSvc.On("Get", mock.Anything, rc, disputeID).Return(nil, domain.ErrDisputeNotFound)

	c, w := newContext(http.MethodGet, "/api/v1/disputes/x", nil, &rc, param("id", disputeID))
	h.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDisputeHandler_StartReview(t *testing.T) {
	h, mockSvc := newDisputeHandler()
	rc := callerCtx(domain.RoleManager)
	disputeID := uuid.New()

	mockSvc.On("StartReview", mock.Anything, rc, disputeID).
		Return(&service.DisputeResult{Dispute: &domain.Dispute{ID: disputeID, Status: domain.DisputeUnderReview}}, nil)

	c, w := newContext(http.MethodPost, "/api/v1/disputes/x/review", nil, &rc, param("id", disputeID))
	h.StartReview(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDisputeHandler_Resolve(t *testing.T) {
	h, mockSvc := newDisputeHandler()
	rc := callerCtx(domain.RoleAdmin)
	disputeID := uuid.New()
	adjID := uuid.New()
	amount := int64(300)

	mockSvc.On("Resolve", mock.Anything, rc, &service.ResolveDisputeInput{
		DisputeID:        disputeID,
		Resolution:       domain.DisputeResolved,
		ResolutionNotes:  "shift log confirms",
		CreateAdjustment: true,
		AdjustmentAmount: &amount,
	}).Return(&service.DisputeResult{
		DisputeID:    disputeID,
		Resolution:   domain.DisputeResolved,
		AdjustmentID: &adjID,
		Dispute:      &domain.Dispute{ID: disputeID, Status: domain.DisputeResolved, AdjustmentID: &adjID},
		Adjustment:   &domain.Adjustment{ID: adjID, AdjustmentAmount: 300},
	}, nil)

	body := map[string]interface{}{
		"resolution":        "resolved",
		"resolution_notes":  "shift log confirms",
		"create_adjustment": true,
		"adjustment_amount": 300,
	}
	c, w := newContext(http.MethodPost, "/api/v1/disputes/x/resolve", body, &rc, param("id", disputeID))
	h.Resolve(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w).Data.(map[string]interface{})
	assert.Equal(t, disputeID.String(), data["dispute_id"])
	assert.Equal(t, "resolved", data["resolution"])
	assert.Equal(t, adjID.String(), data["adjustment_id"])
	assert.NotNil(t, data["adjustment"])
	mockSvc.AssertExpectations(t)
}

func TestDisputeHandler_Resolve_Closed(t *testing.T) {
	h, mockSvc := newDisputeHandler()
	rc := callerCtx(domain.RoleAdmin)

	mockSvc.On("Resolve", mock.Anything, rc, mock.Anything).Return(nil, domain.ErrDisputeClosed)

	body := map[string]interface{}{"resolution": "rejected", "resolution_notes": "duplicate"}
	c, w := newContext(http.MethodPost, "/api/v1/disputes/x/resolve", body, &rc, param("id", uuid.New()))
	h.Resolve(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "DISPUTE_CLOSED", decode(t, w).Error.Code)
}

func TestDisputeHandler_Resolve_RejectedHasNullAdjustmentID(t *testing.T) {
	h, mockSvc := newDisputeHandler()
	rc := callerCtx(domain.RoleAdmin)
	disputeID := uuid.New()

	mockSvc.On("Resolve", mock.Anything, rc, mock.Anything).Return(&service.DisputeResult{
		DisputeID:  disputeID,
		Resolution: domain.DisputeRejected,
		Dispute:    &domain.Dispute{ID: disputeID, Status: domain.DisputeRejected},
	}, nil)

	body := map[string]interface{}{"resolution": "rejected", "resolution_notes": "not on shift"}
	c, w := newContext(http.MethodPost, "/api/v1/disputes/x/resolve", body, &rc, param("id", disputeID))
	h.Resolve(c)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w).Data.(map[string]interface{})
	assert.Equal(t, "rejected", data["resolution"])
	assert.Contains(t, data, "adjustment_id")
	assert.Nil(t, data["adjustment_id"])
}
