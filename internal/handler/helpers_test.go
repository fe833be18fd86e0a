package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"tipsettle/internal/domain"
	"tipsettle/internal/handler"
	"tipsettle/internal/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testOrgID = uuid.MustParse("4b6c0e64-31a2-4d5b-9a4e-0c2f7b7d9a11")

func callerCtx(role domain.UserRole) domain.RequestContext {
	return domain.RequestContext{
		OrganizationID: testOrgID,
		ActorID:        uuid.New(),
		ActorEmail:     string(role) + "@bistro.test",
		ActorType:      domain.ActorUser,
		Role:           role,
	}
}

// newContext builds a test context with the caller identity already set. A nil rc
// leaves the context unauthenticated.
func newContext(method, target string, body interface{}, rc *domain.RequestContext, params ...gin.Param) (*gin.Context, *httptest.ResponseRecorder) {
	var reader io.Reader = http.NoBody
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(method, target, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = params
	if rc != nil {
		c.Set(middleware.ContextKeyRequestContext, *rc)
	}
	return c, w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) handler.APIResponse {
	t.Helper()
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func param(key string, id uuid.UUID) gin.Param {
	return gin.Param{Key: key, Value: id.String()}
}

func ginParam(key, value string) gin.Param {
	return gin.Param{Key: key, Value: value}
}
