package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"tipsettle/internal/allocation"
	"tipsettle/internal/domain"
	"tipsettle/internal/port"
)

// CreateRuleSetInput is the DTO for publishing a new rule set version.
type CreateRuleSetInput struct {
	LocationID       uuid.UUID
	Name             string
	AllocationMethod domain.AllocationMethod
	RuleDefinition   json.RawMessage
}

// RuleSetResult is a newly published rule set.
type RuleSetResult struct {
	RuleSet           *domain.RuleSet `json:"rule_set"`
	SupersededVersion int             `json:"superseded_version,omitempty"`
	Warnings          []string        `json:"-"`
}

// RuleSetService manages versioned tip rule sets.
type RuleSetService interface {
	Create(ctx context.Context, rc domain.RequestContext, input *CreateRuleSetInput) (*RuleSetResult, error)
	GetCurrent(ctx context.Context, rc domain.RequestContext, locationID uuid.UUID) (*domain.RuleSet, error)
	List(ctx context.Context, rc domain.RequestContext, locationID uuid.UUID) ([]domain.RuleSet, error)
}

type ruleSetService struct {
	store port.Store
	audit auditor
	log   logrus.FieldLogger
}

// NewRuleSetService creates a new RuleSetService implementation.
func NewRuleSetService(store port.Store, trail AuditService, log logrus.FieldLogger) RuleSetService {
	log = log.WithField("module", "rule_set_service")
	return &ruleSetService{store: store, audit: auditor{trail: trail, log: log}, log: log}
}

// Create publishes a new version for the location and supersedes the current one in the same transaction.
func (s *ruleSetService) Create(ctx context.Context, rc domain.RequestContext, input *CreateRuleSetInput) (*RuleSetResult, error) {
	if err := requireRole(rc, rolesRuleSet...); err != nil {
		return nil, err
	}
	if input.LocationID == uuid.Nil {
		return nil, domain.Invalid("location_id", "is required")
	}
	def := input.RuleDefinition
	if len(def) == 0 {
		def = json.RawMessage("{}")
	}
	rs := &domain.RuleSet{
		ID:               uuid.New(),
		OrganizationID:   rc.OrganizationID,
		LocationID:       input.LocationID,
		Name:             strings.TrimSpace(input.Name),
		IsCurrent:        true,
		AllocationMethod: input.AllocationMethod,
		RuleDefinition:   def,
		CreatedByEmail:   rc.ActorEmail,
	}
	if err := allocation.ValidateDefinition(rs); err != nil {
		return nil, err
	}

	var superseded int
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx port.Store) error {
		maxVersion, err := tx.RuleSets().SupersedeCurrent(ctx, rc.OrganizationID, input.LocationID)
		if err != nil {
			return err
		}
		superseded = maxVersion
		rs.Version = maxVersion + 1
		return tx.RuleSets().Create(ctx, rs)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"rule_set_id": rs.ID,
		"location_id": rs.LocationID,
		"version":     rs.Version,
	}).Info("rule set published")

	result := &RuleSetResult{RuleSet: rs, SupersededVersion: superseded}
	result.Warnings = s.audit.record(ctx, rc, AuditRecord{
		EventType:  domain.EventRuleSetCreated,
		EntityType: domain.EntityRuleSet,
		EntityID:   rs.ID,
		After:      rs,
		Changes: map[string]interface{}{
			"location_id":        rs.LocationID,
			"version":            rs.Version,
			"allocation_method":  rs.AllocationMethod,
			"superseded_version": superseded,
		},
		Summary: fmt.Sprintf("Published tip rule set version %d (%s)", rs.Version, rs.AllocationMethod),
	})
	return result, nil
}

func (s *ruleSetService) GetCurrent(ctx context.Context, rc domain.RequestContext, locationID uuid.UUID) (*domain.RuleSet, error) {
	if locationID == uuid.Nil {
		return nil, domain.Invalid("location_id", "is required")
	}
	return s.store.RuleSets().GetCurrent(ctx, rc.OrganizationID, locationID)
}

func (s *ruleSetService) List(ctx context.Context, rc domain.RequestContext, locationID uuid.UUID) ([]domain.RuleSet, error) {
	if locationID == uuid.Nil {
		return nil, domain.Invalid("location_id", "is required")
	}
	return s.store.RuleSets().ListByLocation(ctx, rc.OrganizationID, locationID)
}
