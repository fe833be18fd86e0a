package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"tipsettle/internal/domain"
	"tipsettle/internal/port"
)

// AdjustmentServiceConfig holds the approval policy of the ledger.
type AdjustmentServiceConfig struct {
	// AutoApproveAdmin approves admin-created adjustments on creation.
	AutoApproveAdmin bool
}

// CreateAdjustmentInput is the DTO for correcting a locked allocation line.
type CreateAdjustmentInput struct {
	AllocationLineID uuid.UUID
	AdjustmentType   domain.AdjustmentType
	AdjustmentAmount int64
	Reason           string
	RelatedDisputeID *uuid.UUID
	// IdempotencyKey deduplicates retried requests. Derived from the inputs when empty.
	IdempotencyKey string
}

// ReviewAdjustmentInput is the DTO for approving or rejecting a pending adjustment.
type ReviewAdjustmentInput struct {
	AdjustmentID uuid.UUID
	Approve      bool
	Notes        string
}

// AdjustmentResult is a created or reviewed adjustment.
type AdjustmentResult struct {
	AdjustmentID uuid.UUID               `json:"adjustment_id"`
	Status       domain.AdjustmentStatus `json:"status"`
	Adjustment   *domain.Adjustment      `json:"adjustment"`
	Replayed     bool                    `json:"replayed,omitempty"`
	Warnings     []string                `json:"-"`
}

func newAdjustmentResult(adj *domain.Adjustment, replayed bool) *AdjustmentResult {
	return &AdjustmentResult{AdjustmentID: adj.ID, Status: adj.Status, Adjustment: adj, Replayed: replayed}
}

// RefundClawbackResult reports the clawbacks raised for a refunded payment.
type RefundClawbackResult struct {
	PaymentID          uuid.UUID           `json:"payment_id"`
	AdjustmentsCreated int                 `json:"adjustments_created"`
	TotalClawback      int64               `json:"total_clawback"`
	Adjustments        []domain.Adjustment `json:"adjustments"`
	Warnings           []string            `json:"-"`
}

// AdjustmentService is the ledger of corrections to finalised and exported figures.
type AdjustmentService interface {
	Create(ctx context.Context, rc domain.RequestContext, input *CreateAdjustmentInput) (*AdjustmentResult, error)
	// CreateInTx creates the adjustment inside tx without recording its audit event.
	// Callers own the transaction and record AdjustmentCreatedRecord after commit.
	CreateInTx(ctx context.Context, tx port.Store, rc domain.RequestContext, input *CreateAdjustmentInput) (*AdjustmentResult, error)
	Review(ctx context.Context, rc domain.RequestContext, input *ReviewAdjustmentInput) (*AdjustmentResult, error)
	HandleRefundAfterExport(ctx context.Context, rc domain.RequestContext, paymentID uuid.UUID) (*RefundClawbackResult, error)
	GetEmployeeBalance(ctx context.Context, rc domain.RequestContext, employeeID uuid.UUID) (*domain.EmployeeBalance, error)
}

type adjustmentService struct {
	store port.Store
	cfg   AdjustmentServiceConfig
	audit auditor
	log   logrus.FieldLogger
}

// NewAdjustmentService creates a new AdjustmentService implementation.
func NewAdjustmentService(store port.Store, trail AuditService, cfg AdjustmentServiceConfig, log logrus.FieldLogger) AdjustmentService {
	log = log.WithField("module", "adjustment_service")
	return &adjustmentService{store: store, cfg: cfg, audit: auditor{trail: trail, log: log}, log: log}
}

func (s *adjustmentService) Create(ctx context.Context, rc domain.RequestContext, input *CreateAdjustmentInput) (*AdjustmentResult, error) {
	var result *AdjustmentResult
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx port.Store) error {
		var err error
		result, err = s.CreateInTx(ctx, tx, rc, input)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrStateConflict) && input.IdempotencyKey != "" {
			// A concurrent retry inserted the same key first.
			if existing, getErr := s.store.Adjustments().GetByIdempotencyKey(ctx, rc.OrganizationID, input.IdempotencyKey); getErr == nil {
				return newAdjustmentResult(existing, true), nil
			}
		}
		return nil, err
	}
	if !result.Replayed {
		result.Warnings = s.audit.record(ctx, rc, AdjustmentCreatedRecord(result.Adjustment))
	}
	return result, nil
}

// CreateInTx validates, deduplicates and persists an adjustment. Admin-created adjustments are
// approved immediately when the policy allows it, and their amount is applied to the employee.
func (s *adjustmentService) CreateInTx(ctx context.Context, tx port.Store, rc domain.RequestContext, input *CreateAdjustmentInput) (*AdjustmentResult, error) {
	if err := requireRole(rc, rolesAdjust...); err != nil {
		return nil, err
	}
	if err := validateAdjustment(input); err != nil {
		return nil, err
	}
	input.Reason = strings.TrimSpace(input.Reason)
	derivedKey := input.IdempotencyKey == ""
	if derivedKey {
		input.IdempotencyKey = adjustmentKey(input)
	}

	// A derived key that matches a rejected adjustment is a resubmission, not a retry:
	// it gets a fresh key chained to the rejected one. A caller-supplied key always replays.
	for {
		existing, err := tx.Adjustments().GetByIdempotencyKey(ctx, rc.OrganizationID, input.IdempotencyKey)
		if errors.Is(err, domain.ErrAdjustmentNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}
		if derivedKey && existing.Status == domain.AdjustmentRejected {
			input.IdempotencyKey = adjustmentKey(input) + ":after:" + existing.ID.String()
			continue
		}
		s.log.WithField("adjustment_id", existing.ID).Info("adjustment request replayed")
		return newAdjustmentResult(existing, true), nil
	}

	line, batch, err := lockedLine(ctx, tx, rc.OrganizationID, input.AllocationLineID)
	if err != nil {
		return nil, err
	}
	if input.RelatedDisputeID != nil {
		d, err := tx.Disputes().GetByID(ctx, rc.OrganizationID, *input.RelatedDisputeID)
		if err != nil {
			return nil, err
		}
		if d.AllocationLineID != line.ID {
			return nil, domain.Invalid("related_dispute_id", "dispute concerns a different allocation line")
		}
	}

	adj := &domain.Adjustment{
		ID:                uuid.New(),
		OrganizationID:    rc.OrganizationID,
		AllocationLineID:  line.ID,
		AllocationBatchID: batch.ID,
		EmployeeID:        line.EmployeeID,
		AdjustmentType:    input.AdjustmentType,
		AdjustmentAmount:  input.AdjustmentAmount,
		Reason:            input.Reason,
		Status:            domain.AdjustmentPending,
		RelatedDisputeID:  input.RelatedDisputeID,
		IdempotencyKey:    input.IdempotencyKey,
		CreatedByEmail:    rc.ActorEmail,
	}
	if rc.HasRole(domain.RoleAdmin) && s.cfg.AutoApproveAdmin {
		approve(adj, rc.ActorEmail)
	}

	if err := tx.Adjustments().Create(ctx, adj); err != nil {
		return nil, err
	}
	if adj.Status == domain.AdjustmentApproved {
		if err := tx.Employees().AddToBalances(ctx, rc.OrganizationID, adj.EmployeeID, adj.AdjustmentAmount, adj.AdjustmentAmount); err != nil {
			return nil, err
		}
	}

	s.log.WithFields(logrus.Fields{
		"adjustment_id": adj.ID,
		"line_id":       adj.AllocationLineID,
		"type":          adj.AdjustmentType,
		"amount":        adj.AdjustmentAmount,
		"status":        adj.Status,
	}).Info("adjustment created")
	return newAdjustmentResult(adj, false), nil
}

func validateAdjustment(input *CreateAdjustmentInput) error {
	if input.AllocationLineID == uuid.Nil {
		return domain.Invalid("allocation_line_id", "is required")
	}
	if !domain.ValidAdjustmentTypes[input.AdjustmentType] {
		return domain.Invalid("adjustment_type", "must be one of correction, dispute_resolution, manual_override, clawback, bonus")
	}
	if strings.TrimSpace(input.Reason) == "" {
		return domain.ErrReasonRequired
	}
	if input.AdjustmentAmount == 0 {
		return domain.Invalid("adjustment_amount", "must not be zero")
	}
	if input.AdjustmentType == domain.AdjustmentClawback && input.AdjustmentAmount > 0 {
		return domain.Invalid("adjustment_amount", "a clawback must be negative")
	}
	return nil
}

// adjustmentKey derives a key from the logical inputs so a retried request cannot double-count.
func adjustmentKey(input *CreateAdjustmentInput) string {
	dispute := ""
	if input.RelatedDisputeID != nil {
		dispute = input.RelatedDisputeID.String()
	}
	digest := sha256Hex([]byte(fmt.Sprintf("%s|%s|%d|%s|%s",
		input.AllocationLineID, input.AdjustmentType, input.AdjustmentAmount, input.Reason, dispute)))
	return "adjustment:" + digest[:32]
}

// lockedLine loads a line and its batch and requires the batch to be finalised or exported.
func lockedLine(ctx context.Context, tx port.Store, orgID, lineID uuid.UUID) (*domain.AllocationLine, *domain.AllocationBatch, error) {
	line, err := tx.Batches().GetLine(ctx, orgID, lineID)
	if err != nil {
		return nil, nil, err
	}
	batch, err := tx.Batches().GetByID(ctx, orgID, line.BatchID)
	if err != nil {
		return nil, nil, err
	}
	if !batch.Status.IsLocked() {
		return nil, nil, domain.ErrBatchNotFinalised
	}
	return line, batch, nil
}

func approve(adj *domain.Adjustment, approver string) {
	now := nowUTC()
	adj.Status = domain.AdjustmentApproved
	adj.ApprovedByEmail = strPtr(approver)
	adj.ReviewedAt = &now
}

// AdjustmentCreatedRecord is the audit record of a new adjustment.
func AdjustmentCreatedRecord(adj *domain.Adjustment) AuditRecord {
	severity := domain.SeverityInfo
	if adj.AdjustmentAmount < 0 {
		severity = domain.SeverityWarning
	}
	return AuditRecord{
		EventType:  domain.EventAdjustmentCreated,
		EntityType: domain.EntityAdjustment,
		EntityID:   adj.ID,
		After:      adj,
		Changes: map[string]interface{}{
			"allocation_line_id": adj.AllocationLineID,
			"employee_id":        adj.EmployeeID,
			"adjustment_type":    adj.AdjustmentType,
			"adjustment_amount":  adj.AdjustmentAmount,
			"status":             adj.Status,
			"related_dispute_id": adj.RelatedDisputeID,
		},
		Summary:      fmt.Sprintf("%s adjustment of %d (%s)", adj.AdjustmentType, adj.AdjustmentAmount, adj.Status),
		Reason:       adj.Reason,
		HMRCRelevant: true,
		Severity:     severity,
	}
}

// Review approves or rejects a pending adjustment. The reviewer must not be its creator.
func (s *adjustmentService) Review(ctx context.Context, rc domain.RequestContext, input *ReviewAdjustmentInput) (*AdjustmentResult, error) {
	if err := requireRole(rc, rolesReview...); err != nil {
		return nil, err
	}
	status := domain.AdjustmentRejected
	if input.Approve {
		status = domain.AdjustmentApproved
	}

	var reviewed *domain.Adjustment
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx port.Store) error {
		adj, err := tx.Adjustments().GetByID(ctx, rc.OrganizationID, input.AdjustmentID)
		if err != nil {
			return err
		}
		if adj.Status != domain.AdjustmentPending {
			return domain.ErrAdjustmentNotPending
		}
		if strings.EqualFold(adj.CreatedByEmail, rc.ActorEmail) {
			return domain.ErrSelfApproval
		}
		reviewed, err = tx.Adjustments().Review(ctx, rc.OrganizationID, adj.ID, status, rc.ActorEmail)
		if err != nil {
			return err
		}
		if reviewed.Status == domain.AdjustmentApproved {
			return tx.Employees().AddToBalances(ctx, rc.OrganizationID, reviewed.EmployeeID, reviewed.AdjustmentAmount, reviewed.AdjustmentAmount)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"adjustment_id": reviewed.ID,
		"status":        reviewed.Status,
		"reviewer":      rc.ActorEmail,
	}).Info("adjustment reviewed")

	result := newAdjustmentResult(reviewed, false)
	result.Warnings = s.audit.record(ctx, rc, AuditRecord{
		EventType:  domain.EventAdjustmentReviewed,
		EntityType: domain.EntityAdjustment,
		EntityID:   reviewed.ID,
		After:      reviewed,
		Changes: map[string]interface{}{
			"status":            map[string]string{"from": string(domain.AdjustmentPending), "to": string(reviewed.Status)},
			"adjustment_amount": reviewed.AdjustmentAmount,
		},
		Summary:      fmt.Sprintf("Adjustment %s by %s", reviewed.Status, rc.ActorEmail),
		Reason:       strings.TrimSpace(input.Notes),
		HMRCRelevant: true,
	})
	return result, nil
}

// HandleRefundAfterExport claws back every exported line that allocated the refunded payment.
// Lines of batches not yet exported need no action. Clawbacks are approved by the system actor,
// and a repeated call creates nothing new.
func (s *adjustmentService) HandleRefundAfterExport(ctx context.Context, rc domain.RequestContext, paymentID uuid.UUID) (*RefundClawbackResult, error) {
	if !rc.IsSystem() && rc.ActorType != domain.ActorScheduledJob && !rc.HasRole(domain.RoleOwner, domain.RoleAdmin) {
		return nil, domain.ErrInsufficientRole
	}
	system := domain.SystemContext(rc.OrganizationID)

	payment, err := s.store.Payments().GetByID(ctx, rc.OrganizationID, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.Status != domain.PaymentStatusRefunded {
		return nil, domain.ErrPaymentNotRefunded
	}

	result := &RefundClawbackResult{PaymentID: paymentID, Adjustments: []domain.Adjustment{}}
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx port.Store) error {
		lines, err := tx.Batches().ListLinesByPayment(ctx, rc.OrganizationID, paymentID)
		if err != nil {
			return err
		}
		statuses := map[uuid.UUID]domain.BatchStatus{}
		for i := range lines {
			line := &lines[i]
			status, ok := statuses[line.BatchID]
			if !ok {
				batch, err := tx.Batches().GetByID(ctx, rc.OrganizationID, line.BatchID)
				if err != nil {
					return err
				}
				status = batch.Status
				statuses[line.BatchID] = status
			}
			if status != domain.BatchStatusExported || line.GrossAmount <= 0 {
				continue
			}

			key := "clawback:" + line.ID.String()
			if _, err := tx.Adjustments().GetByIdempotencyKey(ctx, rc.OrganizationID, key); err == nil {
				continue
			} else if !errors.Is(err, domain.ErrAdjustmentNotFound) {
				return err
			}

			adj := &domain.Adjustment{
				ID:                uuid.New(),
				OrganizationID:    rc.OrganizationID,
				AllocationLineID:  line.ID,
				AllocationBatchID: line.BatchID,
				EmployeeID:        line.EmployeeID,
				AdjustmentType:    domain.AdjustmentClawback,
				AdjustmentAmount:  -line.GrossAmount,
				Reason:            fmt.Sprintf("Payment %s refunded after export", paymentID),
				IdempotencyKey:    key,
				CreatedByEmail:    domain.SystemActorEmail,
			}
			approve(adj, domain.SystemActorEmail)
			if err := tx.Adjustments().Create(ctx, adj); err != nil {
				return err
			}
			if err := tx.Employees().AddToBalances(ctx, rc.OrganizationID, adj.EmployeeID, adj.AdjustmentAmount, adj.AdjustmentAmount); err != nil {
				return err
			}
			result.Adjustments = append(result.Adjustments, *adj)
			result.TotalClawback += line.GrossAmount
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.AdjustmentsCreated = len(result.Adjustments)

	s.log.WithFields(logrus.Fields{
		"payment_id":     paymentID,
		"clawbacks":      result.AdjustmentsCreated,
		"total_clawback": result.TotalClawback,
	}).Info("refund processed")

	for i := range result.Adjustments {
		rec := AdjustmentCreatedRecord(&result.Adjustments[i])
		rec.EventType = domain.EventRefundClawback
		rec.Changes.(map[string]interface{})["payment_id"] = paymentID
		result.Warnings = append(result.Warnings, s.audit.record(ctx, system, rec)...)
	}
	return result, nil
}

// GetEmployeeBalance returns an employee's running totals with their adjustment position.
// Employees may read only their own balance.
func (s *adjustmentService) GetEmployeeBalance(ctx context.Context, rc domain.RequestContext, employeeID uuid.UUID) (*domain.EmployeeBalance, error) {
	if !rc.HasRole(rolesStaffRead...) && rc.ActorID != employeeID {
		return nil, domain.ErrInsufficientRole
	}
	emp, err := s.store.Employees().GetByID(ctx, rc.OrganizationID, employeeID)
	if err != nil {
		return nil, err
	}
	approved, pending, err := s.store.Adjustments().SumByEmployee(ctx, rc.OrganizationID, employeeID)
	if err != nil {
		return nil, err
	}
	return &domain.EmployeeBalance{
		EmployeeID:              emp.ID,
		PendingTips:             emp.PendingTips,
		TotalTipsEarnedLifetime: emp.TotalTipsEarnedLifetime,
		ApprovedAdjustments:     approved,
		PendingAdjustments:      pending,
	}, nil
}
