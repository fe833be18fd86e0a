package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tipsettle/internal/service"
)

// BatchHandler handles allocation execution and the batch lifecycle endpoints.
type BatchHandler struct {
	batchService service.BatchService
}

// NewBatchHandler creates a new BatchHandler.
func NewBatchHandler(batchService service.BatchService) *BatchHandler {
	return &BatchHandler{batchService: batchService}
}

type executeAllocationRequest struct {
	LocationID     uuid.UUID  `json:"location_id"`
	PeriodStart    time.Time  `json:"period_start"`
	PeriodEnd      time.Time  `json:"period_end"`
	PreviewOnly    bool       `json:"preview_only"`
	RuleSetID      *uuid.UUID `json:"tip_rule_set_id"`
	IdempotencyKey string     `json:"idempotency_key"`
}

// Execute handles POST /api/v1/allocations/execute
// @Summary Execute a tip allocation
// @Description Allocates the period's tips under the current (or given) rule set. Preview runs persist nothing.
// @Tags batches
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Client idempotency key"
// @Param request body executeAllocationRequest true "Allocation parameters"
// @Success 201 {object} APIResponse{data=service.ExecuteAllocationResult} "Draft batch created"
// @Success 200 {object} APIResponse{data=service.ExecuteAllocationResult} "Preview or replay"
// @Failure 400 {object} APIResponse "Invalid period or nothing to allocate"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 404 {object} APIResponse "No active rule set"
// @Security BearerAuth
// @Router /allocations/execute [post]
func (h *BatchHandler) Execute(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}

	var req executeAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "location_id, period_start and period_end are required")
		return
	}
	key := req.IdempotencyKey
	if key == "" {
		key = c.GetHeader("Idempotency-Key")
	}

	result, err := h.batchService.Execute(c.Request.Context(), rc, &service.ExecuteAllocationInput{
		LocationID:     req.LocationID,
		PeriodStart:    req.PeriodStart,
		PeriodEnd:      req.PeriodEnd,
		PreviewOnly:    req.PreviewOnly,
		RuleSetID:      req.RuleSetID,
		IdempotencyKey: key,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	if result.Preview || result.Replayed {
		RespondOKWithWarnings(c, result, result.Warnings)
		return
	}
	RespondCreated(c, result, result.Warnings)
}

// List handles GET /api/v1/batches
// @Summary List allocation batches
// @Tags batches
// @Produce json
// @Param location_id query string false "Filter by location ID"
// @Param offset query int false "Offset for pagination" default(0)
// @Param limit query int false "Limit for pagination (max 100)" default(20)
// @Success 200 {object} APIResponse{data=[]domain.AllocationBatch,meta=PagMeta} "Batches"
// @Failure 400 {object} APIResponse "Invalid location_id"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 403 {object} APIResponse "Insufficient role"
// @Security BearerAuth
// @Router /batches [get]
func (h *BatchHandler) List(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}

	var locationID *uuid.UUID
	if raw := c.Query("location_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid location_id")
			return
		}
		locationID = &id
	}
	offset, limit := parsePagination(c)

	batches, total, err := h.batchService.List(c.Request.Context(), rc, locationID, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, batches, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// Get handles GET /api/v1/batches/:id
// @Summary Get a batch with its lines
// @Tags batches
// @Produce json
// @Param id path string true "Batch ID (UUID)"
// @Success 200 {object} APIResponse{data=service.BatchDetail} "Batch details"
// @Failure 400 {object} APIResponse "Invalid ID"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 403 {object} APIResponse "Insufficient role"
// @Failure 404 {object} APIResponse "Batch not found"
// @Security BearerAuth
// @Router /batches/{id} [get]
func (h *BatchHandler) Get(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}
	batchID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.batchService.Get(c.Request.Context(), rc, batchID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, detail)
}

// Submit handles POST /api/v1/batches/:id/submit
// @Summary Submit a draft batch for approval
// @Tags batches
// @Produce json
// @Param id path string true "Batch ID (UUID)"
// @Success 200 {object} APIResponse{data=service.BatchTransitionResult} "Batch pending approval"
// @Failure 400 {object} APIResponse "Batch is not a draft"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 403 {object} APIResponse "Insufficient role"
// @Failure 404 {object} APIResponse "Batch not found"
// @Security BearerAuth
// @Router /batches/{id}/submit [post]
func (h *BatchHandler) Submit(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}
	batchID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.batchService.Submit(c.Request.Context(), rc, batchID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOKWithWarnings(c, result, result.Warnings)
}

type finaliseBatchRequest struct {
	Action string `json:"action" binding:"required"`
}

// Finalise handles POST /api/v1/batches/:id/finalise
// @Summary Finalise or export a batch
// @Description finalise locks the lines and credits balances; export renders the payroll file.
// @Tags batches
// @Accept json
// @Produce json
// @Param id path string true "Batch ID (UUID)"
// @Param request body finaliseBatchRequest true "finalise or export"
// @Success 200 {object} APIResponse{data=service.BatchTransitionResult} "Batch transitioned"
// @Failure 400 {object} APIResponse "Unknown action or wrong batch status"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 403 {object} APIResponse "Insufficient role"
// @Failure 404 {object} APIResponse "Batch not found"
// @Security BearerAuth
// @Router /batches/{id}/finalise [post]
func (h *BatchHandler) Finalise(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}
	batchID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req finaliseBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "action is required; allowed: finalise, export")
		return
	}

	result, err := h.batchService.Finalise(c.Request.Context(), rc, batchID, strings.ToLower(strings.TrimSpace(req.Action)))
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOKWithWarnings(c, result, result.Warnings)
}

type updateLineRequest struct {
	GrossAmount *int64 `json:"gross_amount" binding:"required"`
	Reason      string `json:"reason"`
}

// UpdateLine handles PATCH /api/v1/batches/:id/lines/:line_id
// @Summary Correct a line of a draft batch
// @Tags batches
// @Accept json
// @Produce json
// @Param id path string true "Batch ID (UUID)"
// @Param line_id path string true "Line ID (UUID)"
// @Param request body updateLineRequest true "New gross amount"
// @Success 200 {object} APIResponse{data=service.LineUpdateResult} "Line updated"
// @Failure 400 {object} APIResponse "Invalid request or line immutable"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 403 {object} APIResponse "Insufficient role"
// @Failure 404 {object} APIResponse "Line not found"
// @Security BearerAuth
// @Router /batches/{id}/lines/{line_id} [patch]
func (h *BatchHandler) UpdateLine(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}
	batchID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	lineID, ok := parseIDParam(c, "line_id")
	if !ok {
		return
	}

	var req updateLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "gross_amount is required")
		return
	}

	result, err := h.batchService.UpdateDraftLine(c.Request.Context(), rc, &service.UpdateDraftLineInput{
		BatchID:     batchID,
		LineID:      lineID,
		GrossAmount: *req.GrossAmount,
		Reason:      req.Reason,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOKWithWarnings(c, result, result.Warnings)
}
