package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RuleSet is a versioned tip allocation policy for one location.
// Rule sets are never edited; a new version supersedes the current one.
type RuleSet struct {
	ID               uuid.UUID        `db:"id" json:"id"`
	OrganizationID   uuid.UUID        `db:"organization_id" json:"organization_id"`
	LocationID       uuid.UUID        `db:"location_id" json:"location_id"`
	Name             string           `db:"name" json:"name"`
	Version          int              `db:"version" json:"version"`
	IsCurrent        bool             `db:"is_current" json:"is_current"`
	AllocationMethod AllocationMethod `db:"allocation_method" json:"allocation_method"`
	RuleDefinition   json.RawMessage  `db:"rule_definition" json:"rule_definition"`
	CreatedByEmail   string           `db:"created_by_email" json:"created_by_email"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
}

// RuleDefinition holds the method-specific parameters of a rule set.
type RuleDefinition struct {
	PoolRoles        []string                   `json:"pool_roles,omitempty"`
	RoleWeights      map[string]decimal.Decimal `json:"role_weights,omitempty"`
	DirectPercentage *decimal.Decimal           `json:"direct_percentage,omitempty"`
	RemainderPolicy  RemainderPolicy            `json:"remainder_policy,omitempty"`
}

// Definition decodes the rule definition. An empty definition yields zero values.
func (r *RuleSet) Definition() (RuleDefinition, error) {
	var def RuleDefinition
	if len(r.RuleDefinition) == 0 || string(r.RuleDefinition) == "null" {
		return def, nil
	}
	if err := json.Unmarshal(r.RuleDefinition, &def); err != nil {
		return def, err
	}
	return def, nil
}

// Employee is a tip recipient. PendingTips and TotalTipsEarnedLifetime are
// maintained only by batch finalisation and the adjustment ledger.
type Employee struct {
	ID                      uuid.UUID        `db:"id" json:"id"`
	OrganizationID          uuid.UUID        `db:"organization_id" json:"organization_id"`
	Email                   string           `db:"email" json:"email"`
	FullName                string           `db:"full_name" json:"full_name"`
	Role                    string           `db:"role" json:"role"`
	RoleWeight              *decimal.Decimal `db:"role_weight" json:"role_weight"`
	EmploymentStatus        EmploymentStatus `db:"employment_status" json:"employment_status"`
	Locations               UUIDList         `db:"locations" json:"locations"`
	PendingTips             int64            `db:"pending_tips" json:"pending_tips"`
	TotalTipsEarnedLifetime int64            `db:"total_tips_earned_lifetime" json:"total_tips_earned_lifetime"`
	CreatedAt               time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time        `db:"updated_at" json:"updated_at"`
}

// WorksAt reports whether the employee is assigned to the location.
// Employees with no location assignments work everywhere in the organization.
func (e *Employee) WorksAt(locationID uuid.UUID) bool {
	if len(e.Locations) == 0 {
		return true
	}
	for _, id := range e.Locations {
		if id == locationID {
			return true
		}
	}
	return false
}

// Payment is a tip-bearing transaction synced from the payment processor. Read-only to this service.
type Payment struct {
	ID             uuid.UUID     `db:"id" json:"id"`
	OrganizationID uuid.UUID     `db:"organization_id" json:"organization_id"`
	LocationID     uuid.UUID     `db:"location_id" json:"location_id"`
	EmployeeID     *uuid.UUID    `db:"employee_id" json:"employee_id"`
	TipAmount      int64         `db:"tip_amount" json:"tip_amount"`
	PaymentDate    time.Time     `db:"payment_date" json:"payment_date"`
	Status         PaymentStatus `db:"status" json:"status"`
}

// Shift is a worked shift synced from the scheduling system. Read-only to this service.
type Shift struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	EmployeeID  uuid.UUID       `db:"employee_id" json:"employee_id"`
	LocationID  uuid.UUID       `db:"location_id" json:"location_id"`
	StartAt     time.Time       `db:"start_at" json:"start_at"`
	EndAt       time.Time       `db:"end_at" json:"end_at"`
	HoursWorked decimal.Decimal `db:"hours_worked" json:"hours_worked"`
}

// Overlaps reports whether the shift intersects the closed period [start, end].
func (s *Shift) Overlaps(start, end time.Time) bool {
	return !s.StartAt.After(end) && !s.EndAt.Before(start)
}

// AllocationBatch is one allocation run distributing a tip pool for a period and location.
type AllocationBatch struct {
	ID                 uuid.UUID        `db:"id" json:"id"`
	OrganizationID     uuid.UUID        `db:"organization_id" json:"organization_id"`
	LocationID         uuid.UUID        `db:"location_id" json:"location_id"`
	PeriodStart        time.Time        `db:"period_start" json:"period_start"`
	PeriodEnd          time.Time        `db:"period_end" json:"period_end"`
	RuleSetID          uuid.UUID        `db:"rule_set_id" json:"rule_set_id"`
	RuleVersion        int              `db:"rule_version" json:"rule_version"`
	AllocationMethod   AllocationMethod `db:"allocation_method" json:"allocation_method"`
	TotalTipsCollected int64            `db:"total_tips_collected" json:"total_tips_collected"`
	TotalTipsAllocated int64            `db:"total_tips_allocated" json:"total_tips_allocated"`
	RemainderAmount    int64            `db:"remainder_amount" json:"remainder_amount"`
	UnassignedAmount   int64            `db:"unassigned_amount" json:"unassigned_amount"`
	EmployeeCount      int              `db:"employee_count" json:"employee_count"`
	Status             BatchStatus      `db:"status" json:"status"`
	Immutable          bool             `db:"immutable" json:"immutable"`
	IdempotencyKey     string           `db:"idempotency_key" json:"-"`
	CreatedByEmail     string           `db:"created_by_email" json:"created_by_email"`
	FinalisedByEmail   *string          `db:"finalised_by_email" json:"finalised_by_email"`
	FinalisedAt        *time.Time       `db:"finalised_at" json:"finalised_at"`
	ExportedAt         *time.Time       `db:"exported_at" json:"exported_at"`
	CreatedAt          time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time        `db:"updated_at" json:"updated_at"`
}

// AllocationLine is one employee's share within a batch. Once Immutable is set,
// only AuditHash may be written; corrections go through Adjustments.
type AllocationLine struct {
	ID                  uuid.UUID        `db:"id" json:"id"`
	BatchID             uuid.UUID        `db:"batch_id" json:"batch_id"`
	OrganizationID      uuid.UUID        `db:"organization_id" json:"organization_id"`
	PaymentID           *uuid.UUID       `db:"payment_id" json:"payment_id"`
	EmployeeID          uuid.UUID        `db:"employee_id" json:"employee_id"`
	GrossAmount         int64            `db:"gross_amount" json:"gross_amount"`
	AllocationMethod    AllocationMethod `db:"allocation_method" json:"allocation_method"`
	PoolSharePercentage *decimal.Decimal `db:"pool_share_percentage" json:"pool_share_percentage"`
	WeightFactor        *decimal.Decimal `db:"weight_factor" json:"weight_factor"`
	HoursWorked         *decimal.Decimal `db:"hours_worked" json:"hours_worked"`
	CalculationMetadata json.RawMessage  `db:"calculation_metadata" json:"calculation_metadata"`
	Explanation         string           `db:"explanation" json:"explanation"`
	AuditHash           *string          `db:"audit_hash" json:"audit_hash"`
	Immutable           bool             `db:"immutable" json:"immutable"`
	CreatedAt           time.Time        `db:"created_at" json:"created_at"`
}

// Adjustment is a signed correction against a line of a finalised or exported batch.
// Immutable once approved.
type Adjustment struct {
	ID                uuid.UUID        `db:"id" json:"id"`
	OrganizationID    uuid.UUID        `db:"organization_id" json:"organization_id"`
	AllocationLineID  uuid.UUID        `db:"allocation_line_id" json:"allocation_line_id"`
	AllocationBatchID uuid.UUID        `db:"allocation_batch_id" json:"allocation_batch_id"`
	EmployeeID        uuid.UUID        `db:"employee_id" json:"employee_id"`
	AdjustmentType    AdjustmentType   `db:"adjustment_type" json:"adjustment_type"`
	AdjustmentAmount  int64            `db:"adjustment_amount" json:"adjustment_amount"`
	Reason            string           `db:"reason" json:"reason"`
	Status            AdjustmentStatus `db:"status" json:"status"`
	RelatedDisputeID  *uuid.UUID       `db:"related_dispute_id" json:"related_dispute_id"`
	IdempotencyKey    string           `db:"idempotency_key" json:"-"`
	CreatedByEmail    string           `db:"created_by_email" json:"created_by_email"`
	ApprovedByEmail   *string          `db:"approved_by_email" json:"approved_by_email"`
	ReviewedAt        *time.Time       `db:"reviewed_at" json:"reviewed_at"`
	CreatedAt         time.Time        `db:"created_at" json:"created_at"`
}

// Dispute is an employee challenge against an allocation line.
type Dispute struct {
	ID                uuid.UUID     `db:"id" json:"id"`
	OrganizationID    uuid.UUID     `db:"organization_id" json:"organization_id"`
	AllocationLineID  uuid.UUID     `db:"allocation_line_id" json:"allocation_line_id"`
	AllocationBatchID uuid.UUID     `db:"allocation_batch_id" json:"allocation_batch_id"`
	EmployeeID        uuid.UUID     `db:"employee_id" json:"employee_id"`
	RaisedByEmail     string        `db:"raised_by_email" json:"raised_by_email"`
	DisputeCategory   string        `db:"dispute_category" json:"dispute_category"`
	Description       string        `db:"description" json:"description"`
	ExpectedAmount    *int64        `db:"expected_amount" json:"expected_amount"`
	Status            DisputeStatus `db:"status" json:"status"`
	ResolutionNotes   *string       `db:"resolution_notes" json:"resolution_notes"`
	ResolvedByEmail   *string       `db:"resolved_by_email" json:"resolved_by_email"`
	AdjustmentID      *uuid.UUID    `db:"adjustment_id" json:"adjustment_id"`
	ResolvedAt        *time.Time    `db:"resolved_at" json:"resolved_at"`
	CreatedAt         time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time     `db:"updated_at" json:"updated_at"`
}

// ExportRun records a payroll export of a finalised batch.
type ExportRun struct {
	ID             uuid.UUID    `db:"id" json:"id"`
	OrganizationID uuid.UUID    `db:"organization_id" json:"organization_id"`
	BatchID        uuid.UUID    `db:"batch_id" json:"batch_id"`
	Format         ExportFormat `db:"format" json:"format"`
	ArtifactKey    *string      `db:"artifact_key" json:"artifact_key"`
	LineCount      int          `db:"line_count" json:"line_count"`
	TotalAmount    int64        `db:"total_amount" json:"total_amount"`
	CreatedByEmail string       `db:"created_by_email" json:"created_by_email"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
}

// AuditEvent is an append-only, hash-chained record of a state change.
type AuditEvent struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	OrganizationID uuid.UUID       `db:"organization_id" json:"organization_id"`
	Sequence       int64           `db:"sequence" json:"sequence"`
	EventType      string          `db:"event_type" json:"event_type"`
	EntityType     string          `db:"entity_type" json:"entity_type"`
	EntityID       uuid.UUID       `db:"entity_id" json:"entity_id"`
	ActorType      ActorType       `db:"actor_type" json:"actor_type"`
	ActorEmail     *string         `db:"actor_email" json:"actor_email"`
	BeforeSnapshot json.RawMessage `db:"before_snapshot" json:"before_snapshot,omitempty"`
	AfterSnapshot  json.RawMessage `db:"after_snapshot" json:"after_snapshot,omitempty"`
	ChangesSummary string          `db:"changes_summary" json:"changes_summary"`
	Changes        json.RawMessage `db:"changes" json:"changes,omitempty"`
	Reason         *string         `db:"reason" json:"reason"`
	HMRCRelevant   bool            `db:"hmrc_relevant" json:"hmrc_relevant"`
	Severity       AuditSeverity   `db:"severity" json:"severity"`
	PrevHash       string          `db:"prev_hash" json:"prev_hash"`
	ImmutableHash  string          `db:"immutable_hash" json:"immutable_hash"`
	OccurredAt     time.Time       `db:"occurred_at" json:"occurred_at"`
}

// EmployeeBalance is the effective tip position of an employee.
type EmployeeBalance struct {
	EmployeeID              uuid.UUID `json:"employee_id"`
	PendingTips             int64     `json:"pending_tips"`
	TotalTipsEarnedLifetime int64     `json:"total_tips_earned_lifetime"`
	ApprovedAdjustments     int64     `json:"approved_adjustments"`
	PendingAdjustments      int64     `json:"pending_adjustments"`
}
