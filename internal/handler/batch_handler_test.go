package handler_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"tipsettle/internal/domain"
	"tipsettle/internal/handler"
	"tipsettle/internal/service"
	"tipsettle/mocks"
)

func newBatchHandler() (*handler.BatchHandler, *mocks.MockBatchService) {
	mockSvc := new(mocks.MockBatchService)
	return handler.NewBatchHandler(mockSvc), mockSvc
}

func executeBody(locationID uuid.UUID) map[string]interface{} {
	return map[string]interface{}{
		"location_id":  locationID,
		"period_start": "2026-03-01T00:00:00Z",
		"period_end":   "2026-03-07T23:59:59Z",
	}
}

func TestBatchHandler_Execute_Created(t *testing.T) {
	h, mockSvc := newBatchHandler()
	rc := callerCtx(domain.RoleManager)
	locationID := uuid.New()
	batchID := uuid.New()

	mockSvc.On("Execute", mock.Anything, rc, mock.MatchedBy(func(in *service.ExecuteAllocationInput) bool {
		return in.LocationID == locationID &&
			in.PeriodStart.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) &&
			in.IdempotencyKey == "pos-sync-2026-w10" &&
			!in.PreviewOnly
	})).Return(&service.ExecuteAllocationResult{
		BatchID:            &batchID,
		Status:             domain.BatchStatusDraft,
		AllocationsCreated: 3,
		TotalAllocated:     999,
		Warnings:           []string{"audit trail write failed: allocation_batch_created event was not recorded"},
	}, nil)

	c, w := newContext(http.MethodPost, "/api/v1/allocations/execute", executeBody(locationID), &rc)
	c.Request.Header.Set("Idempotency-Key", "pos-sync-2026-w10")

	h.Execute(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decode(t, w)
	assert.True(t, resp.Success)
	assert.Len(t, resp.Warnings, 1)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(999), data["total_allocated"])
	mockSvc.AssertExpectations(t)
}

func TestBatchHandler_Execute_PreviewReturnsOK(t *testing.T) {
	h, mockSvc := newBatchHandler()
	rc := callerCtx(domain.RoleAdmin)

	mockSvc.On("Execute", mock.Anything, rc, mock.AnythingOfType("*service.ExecuteAllocationInput")).
		Return(&service.ExecuteAllocationResult{Preview: true, AllocationsCreated: 2}, nil)

	body := executeBody(uuid.New())
	body["preview_only"] = true
	c, w := newContext(http.MethodPost, "/api/v1/allocations/execute", body, &rc)

	h.Execute(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w).Warnings)
}

func TestBatchHandler_Execute_PassesRuleSetID(t *testing.T) {
	h, mockSvc := newBatchHandler()
	rc := callerCtx(domain.RoleManager)
	ruleSetID := uuid.New()

	mockSvc.On("Execute", mock.Anything, rc, mock.MatchedBy(func(in *service.ExecuteAllocationInput) bool {
		return in.RuleSetID != nil && *in.RuleSetID == ruleSetID
	})).Return(&service.ExecuteAllocationResult{Preview: true}, nil)

	body := executeBody(uuid.New())
	body["preview_only"] = true
	body["tip_rule_set_id"] = ruleSetID
	c, w := newContext(http.MethodPost, "/api/v1/allocations/execute", body, &rc)

	h.Execute(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestBatchHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"no rule set", domain.ErrNoActiveRuleSet, http.StatusNotFound, "NO_ACTIVE_RULE_SET"},
		{"no employees", domain.ErrNoEligibleEmployees, http.StatusBadRequest, "NO_ELIGIBLE_EMPLOYEES"},
		{"employee caller", domain.ErrInsufficientRole, http.StatusForbidden, "INSUFFICIENT_ROLE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mockSvc := newBatchHandler()
			rc := callerCtx(domain.RoleManager)
			mockSvc.On("Execute", mock.Anything, rc, mock.Anything).Return(nil, tt.err)

			c, w := newContext(http.MethodPost, "/api/v1/allocations/execute", executeBody(uuid.New()), &rc)
			h.Execute(c)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decode(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestBatchHandler_Execute_NoAuth(t *testing.T) {
	h, mockSvc := newBatchHandler()
	c, w := newContext(http.MethodPost, "/api/v1/allocations/execute", executeBody(uuid.New()), nil)

	h.Execute(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockSvc.AssertNotCalled(t, "Execute")
}

func TestBatchHandler_List_FiltersByLocation(t *testing.T) {
	h, mockSvc := newBatchHandler()
	rc := callerCtx(domain.RoleOwner)
	locationID := uuid.New()

	mockSvc.On("List", mock.Anything, rc, &locationID, 20, 10).
		Return([]domain.AllocationBatch{{ID: uuid.New()}}, 21, nil)

	c, w := newContext(http.MethodGet, "/api/v1/batches?location_id="+locationID.String()+"&offset=20&limit=10", nil, &rc)
	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, handler.PagMeta{Total: 21, Offset: 20, Limit: 10}, *resp.Meta)
}

func TestBatchHandler_Get_InvalidID(t *testing.T) {
	h, _ := newBatchHandler()
	rc := callerCtx(domain.RoleOwner)

	c, w := newContext(http.MethodGet, "/api/v1/batches/not-a-uuid", nil, &rc)
	c.Params = append(c.Params, ginParam("id", "not-a-uuid"))
	h.Get(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ID", decode(t, w).Error.Code)
}

func TestBatchHandler_Finalise(t *testing.T) {
	h, mockSvc := newBatchHandler()
	rc := callerCtx(domain.RoleAdmin)
	batchID := uuid.New()

	mockSvc.On("Finalise", mock.Anything, rc, batchID, service.ActionExport).Return(&service.BatchTransitionResult{
		Message:  "batch exported",
		BatchID:  batchID,
		Status:   domain.BatchStatusExported,
		Warnings: []string{"export artifact not stored: object storage is not configured"},
	}, nil)

	c, w := newContext(http.MethodPost, "/api/v1/batches/x/finalise", map[string]string{"action": " Export "}, &rc, param("id", batchID))
	h.Finalise(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "exported", data["status"])
	assert.Contains(t, data, "lines_locked")
	assert.Equal(t, float64(0), data["lines_locked"])
	assert.Len(t, resp.Warnings, 1)
	mockSvc.AssertExpectations(t)
}

func TestBatchHandler_Finalise_MissingAction(t *testing.T) {
	h, mockSvc := newBatchHandler()
	rc := callerCtx(domain.RoleAdmin)

	c, w := newContext(http.MethodPost, "/api/v1/batches/x/finalise", map[string]string{}, &rc, param("id", uuid.New()))
	h.Finalise(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockSvc.AssertNotCalled(t, "Finalise")
}

func TestBatchHandler_Finalise_AlreadyFinalised(t *testing.T) {
	h, mockSvc := newBatchHandler()
	rc := callerCtx(domain.RoleAdmin)
	batchID := uuid.New()

	mockSvc.On("Finalise", mock.Anything, rc, batchID, service.ActionFinalise).Return(nil, domain.ErrBatchWrongStatus)

	c, w := newContext(http.MethodPost, "/api/v1/batches/x/finalise", map[string]string{"action": "finalise"}, &rc, param("id", batchID))
	h.Finalise(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_BATCH_STATUS", decode(t, w).Error.Code)
}

func TestBatchHandler_UpdateLine(t *testing.T) {
	h, mockSvc := newBatchHandler()
	rc := callerCtx(domain.RoleManager)
	batchID, lineID := uuid.New(), uuid.New()

	mockSvc.On("UpdateDraftLine", mock.Anything, rc, &service.UpdateDraftLineInput{
		BatchID:     batchID,
		LineID:      lineID,
		GrossAmount: 0,
		Reason:      "left before close",
	}).Return(&service.LineUpdateResult{Line: &domain.AllocationLine{ID: lineID}}, nil)

	body := map[string]interface{}{"gross_amount": 0, "reason": "left before close"}
	c, w := newContext(http.MethodPatch, "/api/v1/batches/x/lines/y", body, &rc, param("id", batchID), param("line_id", lineID))
	h.UpdateLine(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestBatchHandler_UpdateLine_Immutable(t *testing.T) {
	h, mockSvc := newBatchHandler()
	rc := callerCtx(domain.RoleManager)

	mockSvc.On("UpdateDraftLine", mock.Anything, rc, mock.Anything).Return(nil, domain.ErrLineImmutable)

	body := map[string]interface{}{"gross_amount": 10, "reason": "typo"}
	c, w := newContext(http.MethodPatch, "/api/v1/batches/x/lines/y", body, &rc, param("id", uuid.New()), param("line_id", uuid.New()))
	h.UpdateLine(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "LINE_IMMUTABLE", decode(t, w).Error.Code)
}
