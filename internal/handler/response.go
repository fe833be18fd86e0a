package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"tipsettle/internal/domain"
	"tipsettle/internal/middleware"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success  bool        `json:"success"`
	Data     interface{} `json:"data,omitempty"`
	Error    *APIError   `json:"error,omitempty"`
	Meta     *PagMeta    `json:"meta,omitempty"`
	Warnings []string    `json:"warnings,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PagMeta holds pagination metadata.
type PagMeta struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondOKWithWarnings sends a 200 success response carrying non-fatal notices.
func RespondOKWithWarnings(c *gin.Context, data interface{}, warnings []string) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data, Warnings: warnings})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}, warnings []string) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data, Warnings: warnings})
}

// RespondPaginated sends a 200 success response with pagination metadata.
func RespondPaginated(c *gin.Context, data interface{}, meta PagMeta) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data, Meta: &meta})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
// Specific conditions are checked before the kind they wrap.
func MapDomainError(err error) (status int, code, msg string) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, "VALIDATION_ERROR", verr.Error()
	case errors.Is(err, domain.ErrNoActiveRuleSet):
		return http.StatusNotFound, "NO_ACTIVE_RULE_SET", err.Error()
	case errors.Is(err, domain.ErrNoEligibleEmployees):
		return http.StatusBadRequest, "NO_ELIGIBLE_EMPLOYEES", err.Error()
	case errors.Is(err, domain.ErrNothingToAllocate):
		return http.StatusBadRequest, "NOTHING_TO_ALLOCATE", err.Error()
	case errors.Is(err, domain.ErrInvalidPeriod):
		return http.StatusBadRequest, "INVALID_PERIOD", err.Error()
	case errors.Is(err, domain.ErrInvalidRuleDefinition):
		return http.StatusBadRequest, "INVALID_RULE_DEFINITION", err.Error()
	case errors.Is(err, domain.ErrReasonRequired):
		return http.StatusBadRequest, "REASON_REQUIRED", err.Error()
	case errors.Is(err, domain.ErrResolutionNotes):
		return http.StatusBadRequest, "RESOLUTION_NOTES_REQUIRED", err.Error()
	case errors.Is(err, domain.ErrPaymentNotRefunded):
		return http.StatusBadRequest, "PAYMENT_NOT_REFUNDED", err.Error()
	case errors.Is(err, domain.ErrBatchNotFinalised):
		return http.StatusBadRequest, "BATCH_NOT_FINALISED", err.Error()
	case errors.Is(err, domain.ErrBatchWrongStatus):
		return http.StatusBadRequest, "INVALID_BATCH_STATUS", err.Error()
	case errors.Is(err, domain.ErrLineImmutable):
		return http.StatusBadRequest, "LINE_IMMUTABLE", err.Error()
	case errors.Is(err, domain.ErrAdjustmentNotPending):
		return http.StatusBadRequest, "ADJUSTMENT_NOT_PENDING", err.Error()
	case errors.Is(err, domain.ErrDisputeClosed):
		return http.StatusBadRequest, "DISPUTE_CLOSED", err.Error()
	case errors.Is(err, domain.ErrSelfApproval):
		return http.StatusForbidden, "SELF_APPROVAL", err.Error()
	case errors.Is(err, domain.ErrInsufficientRole):
		return http.StatusForbidden, "INSUFFICIENT_ROLE", err.Error()
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "VALIDATION_ERROR", err.Error()
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", err.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN", "forbidden"
	case errors.Is(err, domain.ErrStateConflict):
		return http.StatusBadRequest, "STATE_CONFLICT", err.Error()
	default:
		return http.StatusInternalServerError, "DEPENDENCY_FAILURE", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		middleware.RequestLogger(c).WithFields(logrus.Fields{
			"path": c.FullPath(),
			"code": code,
		}).WithError(err).Error("internal error")
	}
	RespondError(c, status, code, msg)
}

// requestContext returns the caller identity. Returns false if it is missing
// (error response already written).
func requestContext(c *gin.Context) (domain.RequestContext, bool) {
	rc, err := middleware.GetRequestContext(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing organization context")
		return domain.RequestContext{}, false
	}
	return rc, true
}

// parseIDParam parses a UUID path parameter. Returns false if it is malformed
// (error response already written).
func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func parsePagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}
