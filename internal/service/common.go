package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"tipsettle/internal/domain"
)

var (
	rolesFinalise   = []domain.UserRole{domain.RoleOwner, domain.RoleAdmin, domain.RoleManager}
	rolesExport     = []domain.UserRole{domain.RoleAdmin}
	rolesAdjust     = []domain.UserRole{domain.RoleAdmin, domain.RoleManager}
	rolesReview     = []domain.UserRole{domain.RoleAdmin}
	rolesRuleSet    = []domain.UserRole{domain.RoleOwner, domain.RoleAdmin}
	rolesDispute    = []domain.UserRole{domain.RoleAdmin, domain.RoleManager}
	rolesAuditRead  = []domain.UserRole{domain.RoleOwner, domain.RoleAdmin, domain.RoleManager}
	rolesAuditCheck = []domain.UserRole{domain.RoleOwner, domain.RoleAdmin}
	rolesStaffRead  = []domain.UserRole{domain.RoleOwner, domain.RoleAdmin, domain.RoleManager}
)

func requireRole(rc domain.RequestContext, roles ...domain.UserRole) error {
	if !rc.HasRole(roles...) {
		return domain.ErrInsufficientRole
	}
	return nil
}

// auditor records audit events on behalf of a service. A failed write never fails the
// caller's operation: it is logged and handed back as a warning for the response.
type auditor struct {
	trail AuditService
	log   logrus.FieldLogger
}

func (a auditor) record(ctx context.Context, rc domain.RequestContext, rec AuditRecord) []string {
	if a.trail == nil {
		return nil
	}
	err := a.trail.Record(ctx, rc, rec)
	if err == nil {
		return nil
	}
	a.log.WithFields(logrus.Fields{
		"event_type":      rec.EventType,
		"entity_type":     rec.EntityType,
		"entity_id":       rec.EntityID,
		"organization_id": rc.OrganizationID,
	}).WithError(err).Warn("audit event not recorded")
	return []string{fmt.Sprintf("%s: %s event was not recorded", domain.ErrAuditWrite, rec.EventType)}
}

func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func strPtr(s string) *string { return &s }

func marshalOrNil(v interface{}) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(v)
}

func clampPage(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return offset, limit
}
