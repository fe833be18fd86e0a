package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every specific error below wraps exactly one kind so callers can
// branch on either the kind or the specific condition with errors.Is.
var (
	ErrValidation    = errors.New("validation error")
	ErrNotFound      = errors.New("resource not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("permission denied")
	ErrStateConflict = errors.New("state conflict")
	ErrDependency    = errors.New("dependency failure")
	ErrAuditWrite    = errors.New("audit trail write failed")
)

var (
	ErrNoActiveRuleSet       = kindError(ErrNotFound, "no active tip rule set for location")
	ErrRuleSetNotFound       = kindError(ErrNotFound, "tip rule set not found")
	ErrBatchNotFound         = kindError(ErrNotFound, "allocation batch not found")
	ErrLineNotFound          = kindError(ErrNotFound, "allocation line not found")
	ErrAdjustmentNotFound    = kindError(ErrNotFound, "adjustment not found")
	ErrDisputeNotFound       = kindError(ErrNotFound, "dispute not found")
	ErrPaymentNotFound       = kindError(ErrNotFound, "payment not found")
	ErrEmployeeNotFound      = kindError(ErrNotFound, "employee not found")
	ErrNoEligibleEmployees   = kindError(ErrValidation, "no eligible employees for allocation")
	ErrNothingToAllocate     = kindError(ErrValidation, "no tips to allocate in period")
	ErrInvalidPeriod         = kindError(ErrValidation, "period_end must not be before period_start")
	ErrInvalidRuleDefinition = kindError(ErrValidation, "invalid rule definition")
	ErrReasonRequired        = kindError(ErrValidation, "reason is required")
	ErrResolutionNotes       = kindError(ErrValidation, "resolution_notes is required")
	ErrPaymentNotRefunded    = kindError(ErrValidation, "payment is not refunded")
	ErrInsufficientRole      = kindError(ErrForbidden, "insufficient role for this action")
	ErrSelfApproval          = kindError(ErrForbidden, "adjustment creator cannot approve it")
	ErrBatchNotFinalised     = kindError(ErrStateConflict, "batch is not finalised or exported")
	ErrBatchWrongStatus      = kindError(ErrStateConflict, "operation not allowed in current batch status")
	ErrLineImmutable         = kindError(ErrStateConflict, "allocation line is immutable")
	ErrAdjustmentNotPending  = kindError(ErrStateConflict, "adjustment is not pending")
	ErrDisputeClosed         = kindError(ErrStateConflict, "dispute is already resolved or rejected")
)

type kinded struct {
	kind error
	msg  string
}

func (e *kinded) Error() string { return e.msg }
func (e *kinded) Unwrap() error { return e.kind }

func kindError(kind error, msg string) error {
	return &kinded{kind: kind, msg: msg}
}

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid returns a ValidationError for field.
func Invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}
