package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"tipsettle/internal/auth"
	"tipsettle/internal/domain"
	"tipsettle/internal/handler"
	"tipsettle/internal/router"
	"tipsettle/internal/service"
	"tipsettle/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

type testServer struct {
	engine  *gin.Engine
	batches *mocks.MockBatchService
	claims  *auth.Claims
}

func newTestServer(role domain.UserRole) *testServer {
	claims := &auth.Claims{
		OrganizationID: uuid.New(),
		UserID:         uuid.New(),
		Email:          string(role) + "@example.com",
		Role:           role,
	}
	validator := new(mocks.MockTokenValidator)
	validator.On("ValidateToken", "valid-token").Return(claims, nil)

	batches := new(mocks.MockBatchService)
	log, _ := test.NewNullLogger()

	engine := router.Setup(validator, router.Handlers{
		Health:     handler.NewHealthHandler(okPinger{}),
		Batch:      handler.NewBatchHandler(batches),
		Adjustment: handler.NewAdjustmentHandler(new(mocks.MockAdjustmentService)),
		Dispute:    handler.NewDisputeHandler(new(mocks.MockDisputeService)),
		RuleSet:    handler.NewRuleSetHandler(new(mocks.MockRuleSetService)),
		Audit:      handler.NewAuditHandler(new(mocks.MockAuditService)),
	}, []string{"http://localhost:3000"}, log)

	return &testServer{engine: engine, batches: batches, claims: claims}
}

func (s *testServer) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer valid-token")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func TestRouter_EmployeeCanExecuteAllocation(t *testing.T) {
	srv := newTestServer(domain.RoleEmployee)
	batchID := uuid.New()

	srv.batches.On("Execute", mock.Anything, srv.claims.RequestContext(), mock.AnythingOfType("*service.ExecuteAllocationInput")).
		Return(&service.ExecuteAllocationResult{BatchID: &batchID, Status: domain.BatchStatusDraft, AllocationsCreated: 2}, nil)

	w := srv.do(http.MethodPost, "/api/v1/allocations/execute", map[string]interface{}{
		"location_id":  uuid.New(),
		"period_start": "2026-03-01T00:00:00Z",
		"period_end":   "2026-03-07T23:59:59Z",
	})

	assert.NotEqual(t, http.StatusForbidden, w.Code)
	assert.Equal(t, http.StatusCreated, w.Code)
	srv.batches.AssertExpectations(t)
}

func TestRouter_EmployeeCannotListBatches(t *testing.T) {
	srv := newTestServer(domain.RoleEmployee)

	w := srv.do(http.MethodGet, "/api/v1/batches", nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
	srv.batches.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRouter_MissingTokenIsUnauthorized(t *testing.T) {
	srv := newTestServer(domain.RoleAdmin)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/allocations/execute", nil)
	w := httptest.NewRecorder()
	srv.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	srv.batches.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything, mock.Anything)
}

func TestRouter_HealthIsPublic(t *testing.T) {
	srv := newTestServer(domain.RoleEmployee)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	srv.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
