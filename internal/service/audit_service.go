package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"tipsettle/internal/domain"
	"tipsettle/internal/port"
)

// AuditRecord describes one state change to append to the audit trail.
type AuditRecord struct {
	EventType    string
	EntityType   string
	EntityID     uuid.UUID
	Before       interface{}
	After        interface{}
	Changes      interface{}
	Summary      string
	Reason       string
	HMRCRelevant bool
	Severity     domain.AuditSeverity
}

// AuditFilter narrows an audit listing.
type AuditFilter struct {
	EntityType string
	EntityID   *uuid.UUID
	Offset     int
	Limit      int
}

// ChainVerification reports the result of recomputing an organization's audit hash chain.
type ChainVerification struct {
	Valid            bool   `json:"valid"`
	EventsChecked    int    `json:"events_checked"`
	HeadHash         string `json:"head_hash"`
	BrokenAtSequence *int64 `json:"broken_at_sequence,omitempty"`
	Reason           string `json:"reason,omitempty"`
}

// AuditService is the append-only audit trail.
type AuditService interface {
	Record(ctx context.Context, rc domain.RequestContext, rec AuditRecord) error
	List(ctx context.Context, rc domain.RequestContext, filter AuditFilter) ([]domain.AuditEvent, int, error)
	VerifyChain(ctx context.Context, rc domain.RequestContext) (*ChainVerification, error)
}

type auditService struct {
	repo port.AuditRepository
	log  logrus.FieldLogger
}

// NewAuditService creates a new AuditService implementation.
func NewAuditService(repo port.AuditRepository, log logrus.FieldLogger) AuditService {
	return &auditService{repo: repo, log: log.WithField("module", "audit_service")}
}

// Record appends one event. Errors wrap domain.ErrAuditWrite.
func (s *auditService) Record(ctx context.Context, rc domain.RequestContext, rec AuditRecord) error {
	ev, err := s.build(rc, rec)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrAuditWrite, err)
	}
	err = s.repo.Append(ctx, ev, func(prevHash string, sequence int64) (string, error) {
		ev.Sequence = sequence
		ev.PrevHash = prevHash
		return EventHash(prevHash, ev)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrAuditWrite, err)
	}
	s.log.WithFields(logrus.Fields{
		"event_type": ev.EventType,
		"entity_id":  ev.EntityID,
		"sequence":   ev.Sequence,
	}).Debug("audit event recorded")
	return nil
}

func (s *auditService) build(rc domain.RequestContext, rec AuditRecord) (*domain.AuditEvent, error) {
	before, err := marshalOrNil(rec.Before)
	if err != nil {
		return nil, fmt.Errorf("before snapshot: %w", err)
	}
	after, err := marshalOrNil(rec.After)
	if err != nil {
		return nil, fmt.Errorf("after snapshot: %w", err)
	}
	changes, err := marshalOrNil(rec.Changes)
	if err != nil {
		return nil, fmt.Errorf("changes: %w", err)
	}

	actorType := rc.ActorType
	if actorType == "" {
		actorType = domain.ActorUser
	}
	var actorEmail *string
	if rc.ActorEmail != "" {
		actorEmail = strPtr(rc.ActorEmail)
	}
	var reason *string
	if rec.Reason != "" {
		reason = strPtr(rec.Reason)
	}
	severity := rec.Severity
	if severity == "" {
		severity = domain.SeverityInfo
	}

	return &domain.AuditEvent{
		ID:             uuid.New(),
		OrganizationID: rc.OrganizationID,
		EventType:      rec.EventType,
		EntityType:     rec.EntityType,
		EntityID:       rec.EntityID,
		ActorType:      actorType,
		ActorEmail:     actorEmail,
		BeforeSnapshot: before,
		AfterSnapshot:  after,
		ChangesSummary: rec.Summary,
		Changes:        changes,
		Reason:         reason,
		HMRCRelevant:   rec.HMRCRelevant,
		Severity:       severity,
		OccurredAt:     nowUTC(),
	}, nil
}

func (s *auditService) List(ctx context.Context, rc domain.RequestContext, filter AuditFilter) ([]domain.AuditEvent, int, error) {
	if err := requireRole(rc, rolesAuditRead...); err != nil {
		return nil, 0, err
	}
	offset, limit := clampPage(filter.Offset, filter.Limit)
	return s.repo.List(ctx, rc.OrganizationID, filter.EntityType, filter.EntityID, offset, limit)
}

// VerifyChain recomputes every hash of the organization's chain and reports the first broken link.
func (s *auditService) VerifyChain(ctx context.Context, rc domain.RequestContext) (*ChainVerification, error) {
	if err := requireRole(rc, rolesAuditCheck...); err != nil {
		return nil, err
	}
	events, err := s.repo.Chain(ctx, rc.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDependency, err)
	}
	return verifyChain(events), nil
}

func verifyChain(events []domain.AuditEvent) *ChainVerification {
	res := &ChainVerification{Valid: true}
	prev := ""
	for i := range events {
		ev := &events[i]
		broken := func(reason string) *ChainVerification {
			seq := ev.Sequence
			res.Valid = false
			res.BrokenAtSequence = &seq
			res.Reason = reason
			return res
		}
		if ev.Sequence != int64(i+1) {
			return broken(fmt.Sprintf("expected sequence %d", i+1))
		}
		if ev.PrevHash != prev {
			return broken("prev_hash does not match the preceding event")
		}
		hash, err := EventHash(prev, ev)
		if err != nil {
			return broken("event could not be serialized: " + err.Error())
		}
		if hash != ev.ImmutableHash {
			return broken("immutable_hash does not match event contents")
		}
		prev = ev.ImmutableHash
		res.EventsChecked++
	}
	res.HeadHash = prev
	return res
}
