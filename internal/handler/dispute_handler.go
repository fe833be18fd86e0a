package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tipsettle/internal/domain"
	"tipsettle/internal/service"
)

// DisputeHandler handles the dispute workflow endpoints.
type DisputeHandler struct {
	disputeService service.DisputeService
}

// NewDisputeHandler creates a new DisputeHandler.
func NewDisputeHandler(disputeService service.DisputeService) *DisputeHandler {
	return &DisputeHandler{disputeService: disputeService}
}

type raiseDisputeRequest struct {
	AllocationLineID uuid.UUID `json:"allocation_line_id"`
	DisputeCategory  string    `json:"dispute_category"`
	Description      string    `json:"description"`
	ExpectedAmount   *int64    `json:"expected_amount"`
}

// Raise handles POST /api/v1/disputes
// @Summary Raise a dispute against an allocation line
// @Tags disputes
// @Accept json
// @Produce json
// @Param request body raiseDisputeRequest true "Dispute details"
// @Success 201 {object} APIResponse{data=service.DisputeResult} "Dispute opened"
// @Failure 400 {object} APIResponse "Invalid request or batch not finalised"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 403 {object} APIResponse "Line belongs to another employee"
// @Failure 404 {object} APIResponse "Allocation line not found"
// @Security BearerAuth
// @Router /disputes [post]
func (h *DisputeHandler) Raise(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}

	var req raiseDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}

	result, err := h.disputeService.Raise(c.Request.Context(), rc, &service.RaiseDisputeInput{
		AllocationLineID: req.AllocationLineID,
		DisputeCategory:  req.DisputeCategory,
		Description:      req.Description,
		ExpectedAmount:   req.ExpectedAmount,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, result, result.Warnings)
}

// List handles GET /api/v1/disputes
// @Summary List disputes
// @Description Employees only see their own disputes.
// @Tags disputes
// @Produce json
// @Param status query string false "Filter by status" Enums(open, under_review, resolved, rejected)
// @Param offset query int false "Offset for pagination" default(0)
// @Param limit query int false "Limit for pagination (max 100)" default(20)
// @Success 200 {object} APIResponse{data=[]domain.Dispute,meta=PagMeta} "Disputes"
// @Failure 400 {object} APIResponse "Invalid status"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Security BearerAuth
// @Router /disputes [get]
func (h *DisputeHandler) List(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}

	var status *domain.DisputeStatus
	if raw := c.Query("status"); raw != "" {
		s := domain.DisputeStatus(raw)
		switch s {
		case domain.DisputeOpen, domain.DisputeUnderReview, domain.DisputeResolved, domain.DisputeRejected:
			status = &s
		default:
			RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid status filter")
			return
		}
	}
	offset, limit := parsePagination(c)

	disputes, total, err := h.disputeService.List(c.Request.Context(), rc, status, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, disputes, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// Get handles GET /api/v1/disputes/:id
// @Summary Get a dispute
// @Tags disputes
// @Produce json
// @Param id path string true "Dispute ID (UUID)"
// @Success 200 {object} APIResponse{data=domain.Dispute} "Dispute details"
// @Failure 400 {object} APIResponse "Invalid ID"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 404 {object} APIResponse "Dispute not found"
// @Security BearerAuth
// @Router /disputes/{id} [get]
func (h *DisputeHandler) Get(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}
	disputeID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	dispute, err := h.disputeService.Get(c.Request.Context(), rc, disputeID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, dispute)
}

// StartReview handles POST /api/v1/disputes/:id/review
// @Summary Start reviewing an open dispute
// @Tags disputes
// @Produce json
// @Param id path string true "Dispute ID (UUID)"
// @Success 200 {object} APIResponse{data=service.DisputeResult} "Dispute under review"
// @Failure 400 {object} APIResponse "Dispute not open"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 403 {object} APIResponse "Insufficient role"
// @Failure 404 {object} APIResponse "Dispute not found"
// @Security BearerAuth
// @Router /disputes/{id}/review [post]
func (h *DisputeHandler) StartReview(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}
	disputeID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.disputeService.StartReview(c.Request.Context(), rc, disputeID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOKWithWarnings(c, result, result.Warnings)
}

type resolveDisputeRequest struct {
	Resolution       domain.DisputeStatus `json:"resolution" binding:"required"`
	ResolutionNotes  string               `json:"resolution_notes"`
	CreateAdjustment bool                 `json:"create_adjustment"`
	AdjustmentAmount *int64               `json:"adjustment_amount"`
}

// Resolve handles POST /api/v1/disputes/:id/resolve
// @Summary Resolve or reject a dispute
// @Description A resolved dispute may produce a dispute_resolution adjustment in the same transaction.
// @Tags disputes
// @Accept json
// @Produce json
// @Param id path string true "Dispute ID (UUID)"
// @Param request body resolveDisputeRequest true "Resolution"
// @Success 200 {object} APIResponse{data=service.DisputeResult} "Dispute closed"
// @Failure 400 {object} APIResponse "Invalid request or dispute already closed"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 403 {object} APIResponse "Insufficient role"
// @Failure 404 {object} APIResponse "Dispute not found"
// @Security BearerAuth
// @Router /disputes/{id}/resolve [post]
func (h *DisputeHandler) Resolve(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}
	disputeID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req resolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "resolution is required; allowed: resolved, rejected")
		return
	}

	result, err := h.disputeService.Resolve(c.Request.Context(), rc, &service.ResolveDisputeInput{
		DisputeID:        disputeID,
		Resolution:       req.Resolution,
		ResolutionNotes:  req.ResolutionNotes,
		CreateAdjustment: req.CreateAdjustment,
		AdjustmentAmount: req.AdjustmentAmount,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOKWithWarnings(c, result, result.Warnings)
}
