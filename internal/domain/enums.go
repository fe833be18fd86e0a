package domain

// UserRole defines the role hierarchy within an organization.
type UserRole string

const (
	RoleOwner    UserRole = "owner"
	RoleAdmin    UserRole = "admin"
	RoleManager  UserRole = "manager"
	RoleEmployee UserRole = "employee"
)

// ValidUserRoles is the set of recognized roles.
var ValidUserRoles = map[UserRole]bool{
	RoleOwner:    true,
	RoleAdmin:    true,
	RoleManager:  true,
	RoleEmployee: true,
}

// ActorType identifies who performed an audited operation.
type ActorType string

const (
	ActorUser         ActorType = "user"
	ActorSystem       ActorType = "system"
	ActorScheduledJob ActorType = "scheduled_job"
)

// SystemActorEmail is recorded as the actor of system-initiated operations.
const SystemActorEmail = "system"

// AllocationMethod is the closed set of tip allocation policies.
type AllocationMethod string

const (
	MethodIndividual AllocationMethod = "individual"
	MethodPooled     AllocationMethod = "pooled"
	MethodWeighted   AllocationMethod = "weighted"
	MethodShiftBased AllocationMethod = "shift_based"
	MethodHybrid     AllocationMethod = "hybrid"
)

// Valid reports whether m is one of the supported allocation methods.
func (m AllocationMethod) Valid() bool {
	switch m {
	case MethodIndividual, MethodPooled, MethodWeighted, MethodShiftBased, MethodHybrid:
		return true
	}
	return false
}

// RemainderPolicy decides who receives the pence left over after flooring shares.
type RemainderPolicy string

const (
	// RemainderUnallocated reports the remainder on the batch without assigning it.
	RemainderUnallocated RemainderPolicy = "unallocated"

	// RemainderFirstRecipient gives the whole remainder to the recipient with the lowest employee id.
	RemainderFirstRecipient RemainderPolicy = "first_recipient"

	// RemainderLargestFraction hands out one unit each to the largest fractional shares.
	RemainderLargestFraction RemainderPolicy = "largest_remainder"
)

// Valid reports whether p is a supported remainder policy.
func (p RemainderPolicy) Valid() bool {
	switch p {
	case RemainderUnallocated, RemainderFirstRecipient, RemainderLargestFraction:
		return true
	}
	return false
}

// BatchStatus represents the lifecycle of an allocation batch. States only move forward.
type BatchStatus string

const (
	BatchStatusDraft           BatchStatus = "draft"
	BatchStatusPendingApproval BatchStatus = "pending_approval"
	BatchStatusFinalised       BatchStatus = "finalised"
	BatchStatusExported        BatchStatus = "exported"
)

// IsLocked reports whether the batch figures are final and only correctable via adjustments.
func (s BatchStatus) IsLocked() bool {
	return s == BatchStatusFinalised || s == BatchStatusExported
}

// EmploymentStatus is the employment state of an employee.
type EmploymentStatus string

const (
	EmploymentActive     EmploymentStatus = "active"
	EmploymentInactive   EmploymentStatus = "inactive"
	EmploymentTerminated EmploymentStatus = "terminated"
)

// PaymentStatus is the upstream processor status of a payment.
type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// AdjustmentType categorizes a correction against a locked allocation line.
type AdjustmentType string

const (
	AdjustmentCorrection        AdjustmentType = "correction"
	AdjustmentDisputeResolution AdjustmentType = "dispute_resolution"
	AdjustmentManualOverride    AdjustmentType = "manual_override"
	AdjustmentClawback          AdjustmentType = "clawback"
	AdjustmentBonus             AdjustmentType = "bonus"
)

// ValidAdjustmentTypes is the set of adjustment types accepted from callers.
var ValidAdjustmentTypes = map[AdjustmentType]bool{
	AdjustmentCorrection:        true,
	AdjustmentDisputeResolution: true,
	AdjustmentManualOverride:    true,
	AdjustmentClawback:          true,
	AdjustmentBonus:             true,
}

// AdjustmentStatus is the approval state of an adjustment.
type AdjustmentStatus string

const (
	AdjustmentPending  AdjustmentStatus = "pending"
	AdjustmentApproved AdjustmentStatus = "approved"
	AdjustmentRejected AdjustmentStatus = "rejected"
)

// DisputeStatus is the workflow state of a dispute.
type DisputeStatus string

const (
	DisputeOpen        DisputeStatus = "open"
	DisputeUnderReview DisputeStatus = "under_review"
	DisputeResolved    DisputeStatus = "resolved"
	DisputeRejected    DisputeStatus = "rejected"
)

// IsTerminal reports whether the dispute can no longer change.
func (s DisputeStatus) IsTerminal() bool {
	return s == DisputeResolved || s == DisputeRejected
}

// AuditSeverity grades an audit event.
type AuditSeverity string

const (
	SeverityInfo    AuditSeverity = "info"
	SeverityWarning AuditSeverity = "warning"
)

// Audit event types.
const (
	EventRuleSetCreated       = "rule_set_created"
	EventBatchCreated         = "allocation_batch_created"
	EventBatchSubmitted       = "allocation_batch_submitted"
	EventBatchFinalised       = "allocation_batch_finalised"
	EventDraftLineUpdated     = "allocation_line_updated"
	EventExportGenerated      = "export_generated"
	EventAdjustmentCreated    = "adjustment_created"
	EventAdjustmentReviewed   = "adjustment_reviewed"
	EventRefundClawback       = "refund_clawback_created"
	EventDisputeRaised        = "dispute_raised"
	EventDisputeReviewStarted = "dispute_review_started"
	EventDisputeResolved      = "dispute_resolved"
)

// Audited entity types.
const (
	EntityRuleSet         = "tip_rule_set"
	EntityAllocationBatch = "allocation_batch"
	EntityAllocationLine  = "allocation_line"
	EntityAdjustment      = "adjustment"
	EntityDispute         = "dispute"
	EntityExportRun       = "export_run"
)

// ExportFormat is the artifact format of a payroll export.
type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatXLSX ExportFormat = "xlsx"
)
