package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tipsettle/internal/service"
)

// AuditHandler handles audit trail endpoints.
type AuditHandler struct {
	auditService service.AuditService
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// List handles GET /api/v1/audit-events?entity_type=&entity_id=
// @Summary List audit events
// @Tags audit
// @Produce json
// @Param entity_type query string false "Filter by entity type"
// @Param entity_id query string false "Filter by entity ID"
// @Param offset query int false "Offset for pagination" default(0)
// @Param limit query int false "Limit for pagination (max 100)" default(20)
// @Success 200 {object} APIResponse{data=[]domain.AuditEvent,meta=PagMeta} "Audit events"
// @Failure 400 {object} APIResponse "Invalid entity_id"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 403 {object} APIResponse "Insufficient role"
// @Security BearerAuth
// @Router /audit-events [get]
func (h *AuditHandler) List(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}

	filter := service.AuditFilter{EntityType: c.Query("entity_type")}
	if raw := c.Query("entity_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid entity_id")
			return
		}
		filter.EntityID = &id
	}
	filter.Offset, filter.Limit = parsePagination(c)

	events, total, err := h.auditService.List(c.Request.Context(), rc, filter)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, events, PagMeta{Total: total, Offset: filter.Offset, Limit: filter.Limit})
}

// Verify handles GET /api/v1/audit-events/verify
// @Summary Verify the audit hash chain
// @Description Recomputes the organization's chain and reports the first broken sequence, if any.
// @Tags audit
// @Produce json
// @Success 200 {object} APIResponse{data=service.ChainVerification} "Verification result"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 403 {object} APIResponse "Insufficient role"
// @Security BearerAuth
// @Router /audit-events/verify [get]
func (h *AuditHandler) Verify(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}

	result, err := h.auditService.VerifyChain(c.Request.Context(), rc)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, result)
}
