package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tipsettle/internal/domain"
	"tipsettle/internal/service"
)

// AdjustmentHandler handles the adjustment ledger endpoints.
type AdjustmentHandler struct {
	adjustmentService service.AdjustmentService
}

// NewAdjustmentHandler creates a new AdjustmentHandler.
func NewAdjustmentHandler(adjustmentService service.AdjustmentService) *AdjustmentHandler {
	return &AdjustmentHandler{adjustmentService: adjustmentService}
}

type createAdjustmentRequest struct {
	AllocationLineID uuid.UUID             `json:"allocation_line_id"`
	AdjustmentType   domain.AdjustmentType `json:"adjustment_type" binding:"required"`
	AdjustmentAmount *int64                `json:"adjustment_amount" binding:"required"`
	Reason           string                `json:"reason"`
	RelatedDisputeID *uuid.UUID            `json:"related_dispute_id"`
}

// Create handles POST /api/v1/adjustments
// @Summary Create an adjustment
// @Description Records a correction against a line of a finalised or exported batch. Admin adjustments may be approved immediately.
// @Tags adjustments
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Client idempotency key"
// @Param request body createAdjustmentRequest true "Adjustment details"
// @Success 201 {object} APIResponse{data=service.AdjustmentResult} "Adjustment created"
// @Success 200 {object} APIResponse{data=service.AdjustmentResult} "Replayed an earlier request"
// @Failure 400 {object} APIResponse "Invalid request or batch not finalised"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 403 {object} APIResponse "Insufficient role"
// @Failure 404 {object} APIResponse "Allocation line not found"
// @Security BearerAuth
// @Router /adjustments [post]
func (h *AdjustmentHandler) Create(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}

	var req createAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "adjustment_type and adjustment_amount are required")
		return
	}

	result, err := h.adjustmentService.Create(c.Request.Context(), rc, &service.CreateAdjustmentInput{
		AllocationLineID: req.AllocationLineID,
		AdjustmentType:   req.AdjustmentType,
		AdjustmentAmount: *req.AdjustmentAmount,
		Reason:           req.Reason,
		RelatedDisputeID: req.RelatedDisputeID,
		IdempotencyKey:   c.GetHeader("Idempotency-Key"),
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	if result.Replayed {
		RespondOKWithWarnings(c, result, result.Warnings)
		return
	}
	RespondCreated(c, result, result.Warnings)
}

type reviewAdjustmentRequest struct {
	Decision string `json:"decision" binding:"required"`
	Notes    string `json:"notes"`
}

// Review handles POST /api/v1/adjustments/:id/review
// @Summary Approve or reject a pending adjustment
// @Tags adjustments
// @Accept json
// @Produce json
// @Param id path string true "Adjustment ID (UUID)"
// @Param request body reviewAdjustmentRequest true "Review decision"
// @Success 200 {object} APIResponse{data=service.AdjustmentResult} "Adjustment reviewed"
// @Failure 400 {object} APIResponse "Invalid decision or adjustment not pending"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 403 {object} APIResponse "Insufficient role or self-approval"
// @Failure 404 {object} APIResponse "Adjustment not found"
// @Security BearerAuth
// @Router /adjustments/{id}/review [post]
func (h *AdjustmentHandler) Review(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}
	adjustmentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req reviewAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "decision is required; allowed: approve, reject")
		return
	}

	var approve bool
	switch strings.ToLower(strings.TrimSpace(req.Decision)) {
	case "approve":
		approve = true
	case "reject":
	default:
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "decision must be approve or reject")
		return
	}

	result, err := h.adjustmentService.Review(c.Request.Context(), rc, &service.ReviewAdjustmentInput{
		AdjustmentID: adjustmentID,
		Approve:      approve,
		Notes:        req.Notes,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOKWithWarnings(c, result, result.Warnings)
}

// RefundClawback handles POST /api/v1/payments/:id/refund-clawback
// @Summary Claw back tips of a refunded payment
// @Description Creates negative adjustments for every exported line the refunded payment contributed to.
// @Tags adjustments
// @Produce json
// @Param id path string true "Payment ID (UUID)"
// @Success 200 {object} APIResponse{data=service.RefundClawbackResult} "Clawback applied"
// @Failure 400 {object} APIResponse "Payment not refunded"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 403 {object} APIResponse "Insufficient role"
// @Failure 404 {object} APIResponse "Payment not found"
// @Security BearerAuth
// @Router /payments/{id}/refund-clawback [post]
func (h *AdjustmentHandler) RefundClawback(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}
	paymentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.adjustmentService.HandleRefundAfterExport(c.Request.Context(), rc, paymentID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOKWithWarnings(c, result, result.Warnings)
}

// EmployeeBalance handles GET /api/v1/employees/:id/balance
// @Summary Get an employee's tip balance
// @Tags employees
// @Produce json
// @Param id path string true "Employee ID (UUID)"
// @Success 200 {object} APIResponse{data=domain.EmployeeBalance} "Balance"
// @Failure 400 {object} APIResponse "Invalid ID"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 403 {object} APIResponse "Insufficient role"
// @Failure 404 {object} APIResponse "Employee not found"
// @Security BearerAuth
// @Router /employees/{id}/balance [get]
func (h *AdjustmentHandler) EmployeeBalance(c *gin.Context) {
	rc, ok := requestContext(c)
	if !ok {
		return
	}
	employeeID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	balance, err := h.adjustmentService.GetEmployeeBalance(c.Request.Context(), rc, employeeID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, balance)
}
