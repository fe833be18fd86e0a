package domain

import "github.com/google/uuid"

// RequestContext carries the caller identity and organization scope into every core operation.
// It is built once at the boundary and never reconstructed from ambient state.
type RequestContext struct {
	OrganizationID uuid.UUID
	ActorID        uuid.UUID
	ActorEmail     string
	ActorType      ActorType
	Role           UserRole
}

// SystemContext returns a RequestContext for operations triggered by an authoritative upstream signal.
func SystemContext(orgID uuid.UUID) RequestContext {
	return RequestContext{
		OrganizationID: orgID,
		ActorEmail:     SystemActorEmail,
		ActorType:      ActorSystem,
	}
}

// HasRole reports whether the caller holds one of roles.
func (rc RequestContext) HasRole(roles ...UserRole) bool {
	for _, r := range roles {
		if rc.Role == r {
			return true
		}
	}
	return false
}

// IsSystem reports whether the caller is the system actor.
func (rc RequestContext) IsSystem() bool {
	return rc.ActorType == ActorSystem
}
