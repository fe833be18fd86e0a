package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"tipsettle/internal/allocation"
	"tipsettle/internal/domain"
	"tipsettle/internal/payrollexport"
	"tipsettle/internal/port"
)

// Batch finalisation actions.
const (
	ActionFinalise = "finalise"
	ActionExport   = "export"
)

// BatchServiceConfig holds the policy knobs of the batch manager.
type BatchServiceConfig struct {
	DefaultRemainderPolicy domain.RemainderPolicy
	ExportFormat           domain.ExportFormat
	ArtifactURLExpiry      time.Duration
}

// ExecuteAllocationInput is the DTO for running an allocation.
type ExecuteAllocationInput struct {
	LocationID     uuid.UUID
	PeriodStart    time.Time
	PeriodEnd      time.Time
	PreviewOnly    bool
	RuleSetID      *uuid.UUID
	IdempotencyKey string
}

// ExecuteAllocationResult is a committed batch or, in preview mode, the proposed allocation.
type ExecuteAllocationResult struct {
	Preview            bool                  `json:"preview"`
	BatchID            *uuid.UUID            `json:"batch_id,omitempty"`
	Status             domain.BatchStatus    `json:"status,omitempty"`
	AllocationsCreated int                   `json:"allocations_created"`
	TotalAllocated     int64                 `json:"total_allocated"`
	Replayed           bool                  `json:"replayed,omitempty"`
	Allocations        []allocation.Proposal `json:"allocations,omitempty"`
	Summary            *allocation.Summary   `json:"summary,omitempty"`
	Warnings           []string              `json:"-"`
}

// BatchDetail is a batch with its lines.
type BatchDetail struct {
	Batch *domain.AllocationBatch `json:"batch"`
	Lines []domain.AllocationLine `json:"lines"`
}

// BatchTransitionResult is the outcome of a lifecycle transition.
type BatchTransitionResult struct {
	Message     string                  `json:"message"`
	BatchID     uuid.UUID               `json:"batch_id"`
	Status      domain.BatchStatus      `json:"status"`
	LinesLocked int                     `json:"lines_locked"`
	ExportRunID *uuid.UUID              `json:"export_run_id,omitempty"`
	ExportRun   *domain.ExportRun       `json:"export_run,omitempty"`
	DownloadURL string                  `json:"download_url,omitempty"`
	Batch       *domain.AllocationBatch `json:"-"`
	Warnings    []string                `json:"-"`
}

// UpdateDraftLineInput is the DTO for correcting a line before finalisation.
type UpdateDraftLineInput struct {
	BatchID     uuid.UUID
	LineID      uuid.UUID
	GrossAmount int64
	Reason      string
}

// LineUpdateResult is an edited draft line.
type LineUpdateResult struct {
	Line     *domain.AllocationLine `json:"line"`
	Warnings []string               `json:"-"`
}

// BatchService owns the allocation batch lifecycle: draft → pending_approval → finalised → exported.
type BatchService interface {
	Execute(ctx context.Context, rc domain.RequestContext, input *ExecuteAllocationInput) (*ExecuteAllocationResult, error)
	Get(ctx context.Context, rc domain.RequestContext, batchID uuid.UUID) (*BatchDetail, error)
	List(ctx context.Context, rc domain.RequestContext, locationID *uuid.UUID, offset, limit int) ([]domain.AllocationBatch, int, error)
	Submit(ctx context.Context, rc domain.RequestContext, batchID uuid.UUID) (*BatchTransitionResult, error)
	Finalise(ctx context.Context, rc domain.RequestContext, batchID uuid.UUID, action string) (*BatchTransitionResult, error)
	UpdateDraftLine(ctx context.Context, rc domain.RequestContext, input *UpdateDraftLineInput) (*LineUpdateResult, error)
}

type batchService struct {
	store   port.Store
	storage port.ObjectStorage
	cfg     BatchServiceConfig
	audit   auditor
	log     logrus.FieldLogger
}

// NewBatchService creates a new BatchService implementation. storage may be nil, in which
// case exports are recorded without an artifact.
func NewBatchService(
	store port.Store,
	storage port.ObjectStorage,
	trail AuditService,
	cfg BatchServiceConfig,
	log logrus.FieldLogger,
) BatchService {
	if cfg.DefaultRemainderPolicy == "" {
		cfg.DefaultRemainderPolicy = domain.RemainderUnallocated
	}
	if cfg.ExportFormat == "" {
		cfg.ExportFormat = domain.ExportFormatCSV
	}
	if cfg.ArtifactURLExpiry <= 0 {
		cfg.ArtifactURLExpiry = 15 * time.Minute
	}
	log = log.WithField("module", "batch_service")
	return &batchService{
		store:   store,
		storage: storage,
		cfg:     cfg,
		audit:   auditor{trail: trail, log: log},
		log:     log,
	}
}

// Execute runs the calculator for the period and, unless previewing, persists the batch and
// its lines in one transaction. A repeated request with the same idempotency key returns
// the batch created the first time.
func (s *batchService) Execute(ctx context.Context, rc domain.RequestContext, input *ExecuteAllocationInput) (*ExecuteAllocationResult, error) {
	if input.LocationID == uuid.Nil {
		return nil, domain.Invalid("location_id", "is required")
	}
	if input.PeriodStart.IsZero() || input.PeriodEnd.IsZero() {
		return nil, domain.Invalid("period", "period_start and period_end are required")
	}
	if input.PeriodEnd.Before(input.PeriodStart) {
		return nil, domain.ErrInvalidPeriod
	}

	rs, err := s.resolveRuleSet(ctx, rc, input)
	if err != nil {
		return nil, err
	}

	key := strings.TrimSpace(input.IdempotencyKey)
	if key == "" {
		key = allocationKey(input, rs)
	}
	if !input.PreviewOnly {
		existing, err := s.store.Batches().GetByIdempotencyKey(ctx, rc.OrganizationID, key)
		if err == nil {
			return s.replay(ctx, rc, existing)
		}
		if !errors.Is(err, domain.ErrBatchNotFound) {
			return nil, err
		}
	}

	payments, err := s.store.Payments().ListForPeriod(ctx, rc.OrganizationID, input.LocationID, input.PeriodStart, input.PeriodEnd)
	if err != nil {
		return nil, err
	}
	employees, err := s.store.Employees().ListByOrganization(ctx, rc.OrganizationID)
	if err != nil {
		return nil, err
	}
	var shifts []domain.Shift
	if rs.AllocationMethod == domain.MethodShiftBased {
		shifts, err = s.store.Shifts().ListForPeriod(ctx, rc.OrganizationID, input.LocationID, input.PeriodStart, input.PeriodEnd)
		if err != nil {
			return nil, err
		}
	}

	calc, err := allocation.Calculate(allocation.Input{
		RuleSet:                rs,
		LocationID:             input.LocationID,
		PeriodStart:            input.PeriodStart,
		PeriodEnd:              input.PeriodEnd,
		Payments:               payments,
		Employees:              employees,
		Shifts:                 shifts,
		DefaultRemainderPolicy: s.cfg.DefaultRemainderPolicy,
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"location_id": input.LocationID,
			"rule_set_id": rs.ID,
		}).WithError(err).Info("allocation not computed")
		return nil, err
	}

	if input.PreviewOnly {
		return &ExecuteAllocationResult{
			Preview:        true,
			TotalAllocated: calc.Summary.TotalAllocated,
			Allocations:    calc.Allocations,
			Summary:        &calc.Summary,
		}, nil
	}
	if len(calc.Allocations) == 0 {
		return nil, domain.ErrNothingToAllocate
	}

	batch, lines, err := buildBatch(rc, input, rs, key, calc)
	if err != nil {
		return nil, err
	}
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx port.Store) error {
		if err := tx.Batches().Create(ctx, batch); err != nil {
			return err
		}
		return tx.Batches().CreateLines(ctx, lines)
	})
	if err != nil {
		if errors.Is(err, domain.ErrStateConflict) {
			// Lost a race with a concurrent request carrying the same key.
			if existing, getErr := s.store.Batches().GetByIdempotencyKey(ctx, rc.OrganizationID, key); getErr == nil {
				return s.replay(ctx, rc, existing)
			}
		}
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"batch_id":        batch.ID,
		"location_id":     batch.LocationID,
		"lines":           len(lines),
		"total_allocated": batch.TotalTipsAllocated,
		"remainder":       batch.RemainderAmount,
	}).Info("allocation batch created")

	result := &ExecuteAllocationResult{
		BatchID:            &batch.ID,
		Status:             batch.Status,
		AllocationsCreated: len(lines),
		TotalAllocated:     batch.TotalTipsAllocated,
		Summary:            &calc.Summary,
	}
	result.Warnings = s.audit.record(ctx, rc, AuditRecord{
		EventType:  domain.EventBatchCreated,
		EntityType: domain.EntityAllocationBatch,
		EntityID:   batch.ID,
		After:      batch,
		Changes: map[string]interface{}{
			"rule_set_id":          rs.ID,
			"rule_version":         rs.Version,
			"allocation_method":    rs.AllocationMethod,
			"total_tips_collected": batch.TotalTipsCollected,
			"total_tips_allocated": batch.TotalTipsAllocated,
			"remainder_amount":     batch.RemainderAmount,
			"unassigned_amount":    batch.UnassignedAmount,
			"lines":                len(lines),
		},
		Summary: fmt.Sprintf("Allocated %d of %d across %d employees (%s)",
			batch.TotalTipsAllocated, batch.TotalTipsCollected, batch.EmployeeCount, rs.AllocationMethod),
		HMRCRelevant: true,
	})
	return result, nil
}

func (s *batchService) resolveRuleSet(ctx context.Context, rc domain.RequestContext, input *ExecuteAllocationInput) (*domain.RuleSet, error) {
	if input.RuleSetID == nil {
		return s.store.RuleSets().GetCurrent(ctx, rc.OrganizationID, input.LocationID)
	}
	rs, err := s.store.RuleSets().GetByID(ctx, rc.OrganizationID, *input.RuleSetID)
	if err != nil {
		return nil, err
	}
	if rs.LocationID != input.LocationID {
		return nil, domain.Invalid("tip_rule_set_id", "rule set belongs to a different location")
	}
	return rs, nil
}

func (s *batchService) replay(ctx context.Context, rc domain.RequestContext, batch *domain.AllocationBatch) (*ExecuteAllocationResult, error) {
	lines, err := s.store.Batches().ListLines(ctx, rc.OrganizationID, batch.ID)
	if err != nil {
		return nil, err
	}
	s.log.WithField("batch_id", batch.ID).Info("allocation request replayed")
	return &ExecuteAllocationResult{
		BatchID:            &batch.ID,
		Status:             batch.Status,
		AllocationsCreated: len(lines),
		TotalAllocated:     batch.TotalTipsAllocated,
		Replayed:           true,
	}, nil
}

func allocationKey(input *ExecuteAllocationInput, rs *domain.RuleSet) string {
	return fmt.Sprintf("allocation:%s:%s:%s:%s:v%d",
		input.LocationID,
		input.PeriodStart.UTC().Format(time.RFC3339),
		input.PeriodEnd.UTC().Format(time.RFC3339),
		rs.ID, rs.Version)
}

func buildBatch(rc domain.RequestContext, input *ExecuteAllocationInput, rs *domain.RuleSet, key string, calc *allocation.Result) (*domain.AllocationBatch, []domain.AllocationLine, error) {
	batch := &domain.AllocationBatch{
		ID:                 uuid.New(),
		OrganizationID:     rc.OrganizationID,
		LocationID:         input.LocationID,
		PeriodStart:        input.PeriodStart,
		PeriodEnd:          input.PeriodEnd,
		RuleSetID:          rs.ID,
		RuleVersion:        rs.Version,
		AllocationMethod:   rs.AllocationMethod,
		TotalTipsCollected: calc.Summary.TotalTips,
		TotalTipsAllocated: calc.Summary.TotalAllocated,
		RemainderAmount:    calc.Summary.Remainder,
		UnassignedAmount:   calc.Summary.UnassignedTips,
		EmployeeCount:      calc.Summary.RecipientCount,
		Status:             domain.BatchStatusDraft,
		IdempotencyKey:     key,
		CreatedByEmail:     rc.ActorEmail,
	}
	lines := make([]domain.AllocationLine, 0, len(calc.Allocations))
	for i := range calc.Allocations {
		p := &calc.Allocations[i]
		meta, err := json.Marshal(p.Metadata)
		if err != nil {
			return nil, nil, fmt.Errorf("batchService: encoding calculation metadata: %w", err)
		}
		lines = append(lines, domain.AllocationLine{
			ID:                  uuid.New(),
			BatchID:             batch.ID,
			OrganizationID:      rc.OrganizationID,
			PaymentID:           p.PaymentID,
			EmployeeID:          p.EmployeeID,
			GrossAmount:         p.Amount,
			AllocationMethod:    p.Method,
			PoolSharePercentage: p.PoolSharePercentage,
			WeightFactor:        p.WeightFactor,
			HoursWorked:         p.HoursWorked,
			CalculationMetadata: meta,
			Explanation:         p.Explanation,
		})
	}
	return batch, lines, nil
}

func (s *batchService) Get(ctx context.Context, rc domain.RequestContext, batchID uuid.UUID) (*BatchDetail, error) {
	if err := requireRole(rc, rolesStaffRead...); err != nil {
		return nil, err
	}
	batch, err := s.store.Batches().GetByID(ctx, rc.OrganizationID, batchID)
	if err != nil {
		return nil, err
	}
	lines, err := s.store.Batches().ListLines(ctx, rc.OrganizationID, batchID)
	if err != nil {
		return nil, err
	}
	return &BatchDetail{Batch: batch, Lines: lines}, nil
}

func (s *batchService) List(ctx context.Context, rc domain.RequestContext, locationID *uuid.UUID, offset, limit int) ([]domain.AllocationBatch, int, error) {
	if err := requireRole(rc, rolesStaffRead...); err != nil {
		return nil, 0, err
	}
	offset, limit = clampPage(offset, limit)
	return s.store.Batches().List(ctx, rc.OrganizationID, locationID, offset, limit)
}

// Submit moves a draft batch to pending_approval.
func (s *batchService) Submit(ctx context.Context, rc domain.RequestContext, batchID uuid.UUID) (*BatchTransitionResult, error) {
	if err := requireRole(rc, rolesFinalise...); err != nil {
		return nil, err
	}
	batch, err := s.store.Batches().TransitionStatus(ctx, rc.OrganizationID, batchID,
		[]domain.BatchStatus{domain.BatchStatusDraft}, domain.BatchStatusPendingApproval, rc.ActorEmail)
	if err != nil {
		return nil, err
	}

	result := &BatchTransitionResult{
		Message: "batch submitted for approval",
		BatchID: batch.ID,
		Status:  batch.Status,
		Batch:   batch,
	}
	result.Warnings = s.audit.record(ctx, rc, AuditRecord{
		EventType:  domain.EventBatchSubmitted,
		EntityType: domain.EntityAllocationBatch,
		EntityID:   batch.ID,
		Changes: map[string]interface{}{
			"status": map[string]string{"from": string(domain.BatchStatusDraft), "to": string(batch.Status)},
		},
		Summary: "Batch submitted for approval",
	})
	return result, nil
}

// Finalise dispatches the finalise and export actions.
func (s *batchService) Finalise(ctx context.Context, rc domain.RequestContext, batchID uuid.UUID, action string) (*BatchTransitionResult, error) {
	switch action {
	case ActionFinalise:
		return s.finalise(ctx, rc, batchID)
	case ActionExport:
		return s.export(ctx, rc, batchID)
	default:
		return nil, domain.Invalid("action", "must be finalise or export")
	}
}

// finalise locks the batch and every line, stamping each line with its audit hash, and
// credits the employees. The status compare-and-set makes a second finalise fail instead
// of recomputing hashes.
func (s *batchService) finalise(ctx context.Context, rc domain.RequestContext, batchID uuid.UUID) (*BatchTransitionResult, error) {
	if err := requireRole(rc, rolesFinalise...); err != nil {
		return nil, err
	}

	var (
		batch    *domain.AllocationBatch
		locked   int
		credited = map[uuid.UUID]int64{}
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx port.Store) error {
		var err error
		batch, err = tx.Batches().TransitionStatus(ctx, rc.OrganizationID, batchID,
			[]domain.BatchStatus{domain.BatchStatusDraft, domain.BatchStatusPendingApproval},
			domain.BatchStatusFinalised, rc.ActorEmail)
		if err != nil {
			return err
		}
		lines, err := tx.Batches().ListLines(ctx, rc.OrganizationID, batchID)
		if err != nil {
			return err
		}

		finalisedAt := nowUTC()
		if batch.FinalisedAt != nil {
			finalisedAt = *batch.FinalisedAt
		}
		hashes := make(map[uuid.UUID]string, len(lines))
		for i := range lines {
			h, err := LineHash(&lines[i], finalisedAt)
			if err != nil {
				return fmt.Errorf("batchService.finalise: hashing line %s: %w", lines[i].ID, err)
			}
			hashes[lines[i].ID] = h
			credited[lines[i].EmployeeID] += lines[i].GrossAmount
		}
		locked, err = tx.Batches().LockLines(ctx, rc.OrganizationID, batchID, hashes)
		if err != nil {
			return err
		}

		// Fixed order keeps concurrent finalisations from deadlocking on employee rows.
		for _, empID := range sortedIDs(credited) {
			if err := tx.Employees().AddToBalances(ctx, rc.OrganizationID, empID, credited[empID], credited[empID]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"batch_id":     batch.ID,
		"lines_locked": locked,
		"finalised_by": rc.ActorEmail,
	}).Info("allocation batch finalised")

	result := &BatchTransitionResult{
		Message:     "batch finalised",
		BatchID:     batch.ID,
		Status:      batch.Status,
		LinesLocked: locked,
		Batch:       batch,
	}
	result.Warnings = s.audit.record(ctx, rc, AuditRecord{
		EventType:  domain.EventBatchFinalised,
		EntityType: domain.EntityAllocationBatch,
		EntityID:   batch.ID,
		After:      batch,
		Changes: map[string]interface{}{
			"status":               map[string]string{"to": string(batch.Status)},
			"lines_locked":         locked,
			"employees_credited":   len(credited),
			"total_tips_allocated": batch.TotalTipsAllocated,
		},
		Summary:      fmt.Sprintf("Batch finalised: %d lines locked", locked),
		HMRCRelevant: true,
	})
	return result, nil
}

// export renders the payroll artifact, stores it, records the ExportRun and marks the batch exported.
// A missing artifact is reported as a warning; the export itself still succeeds.
func (s *batchService) export(ctx context.Context, rc domain.RequestContext, batchID uuid.UUID) (*BatchTransitionResult, error) {
	if err := requireRole(rc, rolesExport...); err != nil {
		return nil, err
	}
	batch, err := s.store.Batches().GetByID(ctx, rc.OrganizationID, batchID)
	if err != nil {
		return nil, err
	}
	switch batch.Status {
	case domain.BatchStatusFinalised:
	case domain.BatchStatusExported:
		return nil, domain.ErrBatchWrongStatus
	default:
		return nil, domain.ErrBatchNotFinalised
	}
	lines, err := s.store.Batches().ListLines(ctx, rc.OrganizationID, batchID)
	if err != nil {
		return nil, err
	}

	art, err := payrollexport.Render(s.cfg.ExportFormat, batch, lines)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDependency, err)
	}

	var warnings []string
	var artifactKey *string
	if s.storage != nil {
		out, err := s.storage.Upload(ctx, port.UploadInput{
			Key:         path.Join(rc.OrganizationID.String(), art.Filename),
			Body:        bytes.NewReader(art.Body),
			ContentType: art.ContentType,
		})
		if err != nil {
			s.log.WithField("batch_id", batchID).WithError(err).Warn("export artifact upload failed")
			warnings = append(warnings, "export artifact was not stored: "+err.Error())
		} else {
			artifactKey = &out.Key
		}
	} else {
		warnings = append(warnings, "export storage is disabled; no artifact was stored")
	}

	run := &domain.ExportRun{
		ID:             uuid.New(),
		OrganizationID: rc.OrganizationID,
		BatchID:        batchID,
		Format:         s.cfg.ExportFormat,
		ArtifactKey:    artifactKey,
		LineCount:      art.LineCount,
		TotalAmount:    art.TotalAmount,
		CreatedByEmail: rc.ActorEmail,
	}
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx port.Store) error {
		var err error
		batch, err = tx.Batches().TransitionStatus(ctx, rc.OrganizationID, batchID,
			[]domain.BatchStatus{domain.BatchStatusFinalised}, domain.BatchStatusExported, rc.ActorEmail)
		if err != nil {
			return err
		}
		return tx.ExportRuns().Create(ctx, run)
	})
	if err != nil {
		if artifactKey != nil {
			if delErr := s.storage.Delete(ctx, *artifactKey); delErr != nil {
				s.log.WithField("artifact_key", *artifactKey).WithError(delErr).Warn("orphaned export artifact not removed")
			}
		}
		return nil, err
	}

	result := &BatchTransitionResult{
		Message:     "batch exported",
		BatchID:     batch.ID,
		Status:      batch.Status,
		ExportRunID: &run.ID,
		ExportRun:   run,
		Batch:       batch,
	}
	if artifactKey != nil {
		url, err := s.storage.PresignURL(ctx, *artifactKey, s.cfg.ArtifactURLExpiry)
		if err != nil {
			s.log.WithField("artifact_key", *artifactKey).WithError(err).Warn("presigning export artifact failed")
		} else {
			result.DownloadURL = url
		}
	}

	s.log.WithFields(logrus.Fields{
		"batch_id":      batch.ID,
		"export_run_id": run.ID,
		"lines":         run.LineCount,
	}).Info("allocation batch exported")

	warnings = append(warnings, s.audit.record(ctx, rc, AuditRecord{
		EventType:  domain.EventExportGenerated,
		EntityType: domain.EntityExportRun,
		EntityID:   run.ID,
		After:      run,
		Changes: map[string]interface{}{
			"batch_id":     batch.ID,
			"format":       run.Format,
			"line_count":   run.LineCount,
			"total_amount": run.TotalAmount,
			"artifact_key": run.ArtifactKey,
		},
		Summary:      fmt.Sprintf("Payroll export of %d lines totalling %d", run.LineCount, run.TotalAmount),
		HMRCRelevant: true,
	})...)
	result.Warnings = warnings
	return result, nil
}

// UpdateDraftLine corrects a line of a batch that has not been finalised.
func (s *batchService) UpdateDraftLine(ctx context.Context, rc domain.RequestContext, input *UpdateDraftLineInput) (*LineUpdateResult, error) {
	if err := requireRole(rc, rolesFinalise...); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, domain.ErrReasonRequired
	}
	if input.GrossAmount < 0 {
		return nil, domain.Invalid("gross_amount", "must not be negative")
	}

	var before, after *domain.AllocationLine
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx port.Store) error {
		batch, err := tx.Batches().GetByID(ctx, rc.OrganizationID, input.BatchID)
		if err != nil {
			return err
		}
		if batch.Status.IsLocked() || batch.Immutable {
			return domain.ErrLineImmutable
		}
		before, err = tx.Batches().GetLine(ctx, rc.OrganizationID, input.LineID)
		if err != nil {
			return err
		}
		if before.BatchID != batch.ID {
			return domain.ErrLineNotFound
		}
		if before.Immutable {
			return domain.ErrLineImmutable
		}
		after, err = tx.Batches().UpdateDraftLineAmount(ctx, rc.OrganizationID, input.LineID, input.GrossAmount)
		return err
	})
	if err != nil {
		return nil, err
	}

	result := &LineUpdateResult{Line: after}
	result.Warnings = s.audit.record(ctx, rc, AuditRecord{
		EventType:  domain.EventDraftLineUpdated,
		EntityType: domain.EntityAllocationLine,
		EntityID:   after.ID,
		Before:     before,
		After:      after,
		Changes: map[string]interface{}{
			"batch_id":     after.BatchID,
			"gross_amount": map[string]int64{"from": before.GrossAmount, "to": after.GrossAmount},
		},
		Summary: fmt.Sprintf("Draft line amount changed from %d to %d", before.GrossAmount, after.GrossAmount),
		Reason:  reason,
	})
	return result, nil
}

func sortedIDs(m map[uuid.UUID]int64) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}
