package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"tipsettle/internal/domain"
	"tipsettle/internal/port"
)

// RaiseDisputeInput is the DTO for an employee challenging an allocation line.
type RaiseDisputeInput struct {
	AllocationLineID uuid.UUID
	DisputeCategory  string
	Description      string
	ExpectedAmount   *int64
}

// ResolveDisputeInput is the DTO for closing a dispute.
type ResolveDisputeInput struct {
	DisputeID        uuid.UUID
	Resolution       domain.DisputeStatus
	ResolutionNotes  string
	CreateAdjustment bool
	AdjustmentAmount *int64
}

// DisputeResult is a dispute after a workflow step, with the adjustment it produced if any.
type DisputeResult struct {
	DisputeID    uuid.UUID            `json:"dispute_id"`
	Resolution   domain.DisputeStatus `json:"resolution,omitempty"`
	AdjustmentID *uuid.UUID           `json:"adjustment_id"`
	Dispute      *domain.Dispute      `json:"dispute"`
	Adjustment   *domain.Adjustment   `json:"adjustment,omitempty"`
	Warnings     []string             `json:"-"`
}

func newDisputeResult(d *domain.Dispute) *DisputeResult {
	r := &DisputeResult{DisputeID: d.ID, AdjustmentID: d.AdjustmentID, Dispute: d}
	if d.Status.IsTerminal() {
		r.Resolution = d.Status
	}
	return r
}

// DisputeService runs the dispute workflow: open → under_review → resolved | rejected.
type DisputeService interface {
	Raise(ctx context.Context, rc domain.RequestContext, input *RaiseDisputeInput) (*DisputeResult, error)
	StartReview(ctx context.Context, rc domain.RequestContext, disputeID uuid.UUID) (*DisputeResult, error)
	Resolve(ctx context.Context, rc domain.RequestContext, input *ResolveDisputeInput) (*DisputeResult, error)
	Get(ctx context.Context, rc domain.RequestContext, disputeID uuid.UUID) (*domain.Dispute, error)
	List(ctx context.Context, rc domain.RequestContext, status *domain.DisputeStatus, offset, limit int) ([]domain.Dispute, int, error)
}

type disputeService struct {
	store       port.Store
	adjustments AdjustmentService
	audit       auditor
	log         logrus.FieldLogger
}

// NewDisputeService creates a new DisputeService implementation. Adjustments produced by
// resolutions go through the adjustment ledger.
func NewDisputeService(store port.Store, adjustments AdjustmentService, trail AuditService, log logrus.FieldLogger) DisputeService {
	log = log.WithField("module", "dispute_service")
	return &disputeService{store: store, adjustments: adjustments, audit: auditor{trail: trail, log: log}, log: log}
}

// Raise opens a dispute against a line of a finalised or exported batch. Employees may only
// dispute their own lines.
func (s *disputeService) Raise(ctx context.Context, rc domain.RequestContext, input *RaiseDisputeInput) (*DisputeResult, error) {
	if input.AllocationLineID == uuid.Nil {
		return nil, domain.Invalid("allocation_line_id", "is required")
	}
	category := strings.TrimSpace(input.DisputeCategory)
	if category == "" {
		return nil, domain.Invalid("dispute_category", "is required")
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, domain.Invalid("description", "is required")
	}

	line, batch, err := lockedLine(ctx, s.store, rc.OrganizationID, input.AllocationLineID)
	if err != nil {
		return nil, err
	}
	if rc.HasRole(domain.RoleEmployee) && line.EmployeeID != rc.ActorID {
		return nil, domain.ErrInsufficientRole
	}

	d := &domain.Dispute{
		ID:                uuid.New(),
		OrganizationID:    rc.OrganizationID,
		AllocationLineID:  line.ID,
		AllocationBatchID: batch.ID,
		EmployeeID:        line.EmployeeID,
		RaisedByEmail:     rc.ActorEmail,
		DisputeCategory:   category,
		Description:       description,
		ExpectedAmount:    input.ExpectedAmount,
		Status:            domain.DisputeOpen,
	}
	if err := s.store.Disputes().Create(ctx, d); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"dispute_id": d.ID,
		"line_id":    d.AllocationLineID,
	}).Info("dispute raised")

	result := newDisputeResult(d)
	result.Warnings = s.audit.record(ctx, rc, AuditRecord{
		EventType:  domain.EventDisputeRaised,
		EntityType: domain.EntityDispute,
		EntityID:   d.ID,
		After:      d,
		Changes: map[string]interface{}{
			"allocation_line_id": d.AllocationLineID,
			"dispute_category":   d.DisputeCategory,
			"expected_amount":    d.ExpectedAmount,
			"gross_amount":       line.GrossAmount,
		},
		Summary: fmt.Sprintf("Dispute raised (%s) against line of %d", d.DisputeCategory, line.GrossAmount),
	})
	return result, nil
}

// StartReview moves an open dispute to under_review.
func (s *disputeService) StartReview(ctx context.Context, rc domain.RequestContext, disputeID uuid.UUID) (*DisputeResult, error) {
	if err := requireRole(rc, rolesDispute...); err != nil {
		return nil, err
	}
	d, err := s.store.Disputes().TransitionStatus(ctx, rc.OrganizationID, disputeID,
		[]domain.DisputeStatus{domain.DisputeOpen}, domain.DisputeUnderReview)
	if err != nil {
		return nil, err
	}

	result := newDisputeResult(d)
	result.Warnings = s.audit.record(ctx, rc, AuditRecord{
		EventType:  domain.EventDisputeReviewStarted,
		EntityType: domain.EntityDispute,
		EntityID:   d.ID,
		Changes: map[string]interface{}{
			"status": map[string]string{"from": string(domain.DisputeOpen), "to": string(d.Status)},
		},
		Summary: "Dispute review started by " + rc.ActorEmail,
	})
	return result, nil
}

// Resolve closes a dispute. A resolved dispute may produce a dispute_resolution adjustment through
// the ledger; a rejected one never does. Closing and adjusting commit together.
func (s *disputeService) Resolve(ctx context.Context, rc domain.RequestContext, input *ResolveDisputeInput) (*DisputeResult, error) {
	if err := requireRole(rc, rolesDispute...); err != nil {
		return nil, err
	}
	if input.Resolution != domain.DisputeResolved && input.Resolution != domain.DisputeRejected {
		return nil, domain.Invalid("resolution", "must be resolved or rejected")
	}
	notes := strings.TrimSpace(input.ResolutionNotes)
	if notes == "" {
		return nil, domain.ErrResolutionNotes
	}
	withAdjustment := input.Resolution == domain.DisputeResolved && input.CreateAdjustment
	if withAdjustment && (input.AdjustmentAmount == nil || *input.AdjustmentAmount == 0) {
		return nil, domain.Invalid("adjustment_amount", "is required when create_adjustment is set")
	}

	var (
		before  domain.Dispute
		dispute *domain.Dispute
		adj     *AdjustmentResult
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx port.Store) error {
		d, err := tx.Disputes().GetByID(ctx, rc.OrganizationID, input.DisputeID)
		if err != nil {
			return err
		}
		if d.Status.IsTerminal() {
			return domain.ErrDisputeClosed
		}
		before = *d

		if withAdjustment {
			adj, err = s.adjustments.CreateInTx(ctx, tx, rc, &CreateAdjustmentInput{
				AllocationLineID: d.AllocationLineID,
				AdjustmentType:   domain.AdjustmentDisputeResolution,
				AdjustmentAmount: *input.AdjustmentAmount,
				Reason:           notes,
				RelatedDisputeID: &d.ID,
				IdempotencyKey:   "dispute:" + d.ID.String(),
			})
			if err != nil {
				return err
			}
			d.AdjustmentID = &adj.Adjustment.ID
		}

		now := nowUTC()
		d.Status = input.Resolution
		d.ResolutionNotes = &notes
		d.ResolvedByEmail = strPtr(rc.ActorEmail)
		d.ResolvedAt = &now
		if err := tx.Disputes().Close(ctx, d); err != nil {
			return err
		}
		dispute = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"dispute_id":      dispute.ID,
		"resolution":      dispute.Status,
		"adjustment_made": adj != nil,
	}).Info("dispute closed")

	result := newDisputeResult(dispute)
	if adj != nil {
		result.Adjustment = adj.Adjustment
		if !adj.Replayed {
			result.Warnings = append(result.Warnings, s.audit.record(ctx, rc, AdjustmentCreatedRecord(adj.Adjustment))...)
		}
	}
	changes := map[string]interface{}{
		"status":     map[string]string{"from": string(before.Status), "to": string(dispute.Status)},
		"resolution": dispute.Status,
	}
	if dispute.AdjustmentID != nil {
		changes["adjustment_id"] = dispute.AdjustmentID
		changes["adjustment_amount"] = result.Adjustment.AdjustmentAmount
	}
	result.Warnings = append(result.Warnings, s.audit.record(ctx, rc, AuditRecord{
		EventType:    domain.EventDisputeResolved,
		EntityType:   domain.EntityDispute,
		EntityID:     dispute.ID,
		Before:       before,
		After:        dispute,
		Changes:      changes,
		Summary:      fmt.Sprintf("Dispute %s", dispute.Status),
		Reason:       notes,
		HMRCRelevant: dispute.AdjustmentID != nil,
	})...)
	return result, nil
}

// Get returns a dispute. Employees may only read their own.
func (s *disputeService) Get(ctx context.Context, rc domain.RequestContext, disputeID uuid.UUID) (*domain.Dispute, error) {
	d, err := s.store.Disputes().GetByID(ctx, rc.OrganizationID, disputeID)
	if err != nil {
		return nil, err
	}
	if !rc.HasRole(rolesStaffRead...) && d.EmployeeID != rc.ActorID {
		return nil, domain.ErrDisputeNotFound
	}
	return d, nil
}

func (s *disputeService) List(ctx context.Context, rc domain.RequestContext, status *domain.DisputeStatus, offset, limit int) ([]domain.Dispute, int, error) {
	if err := requireRole(rc, rolesStaffRead...); err != nil {
		return nil, 0, err
	}
	offset, limit = clampPage(offset, limit)
	return s.store.Disputes().List(ctx, rc.OrganizationID, status, offset, limit)
}
