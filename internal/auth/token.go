// Package auth validates bearer tokens issued by the identity provider and turns
// them into the caller identity carried through every core operation.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"tipsettle/internal/config"
	"tipsettle/internal/domain"
)

const audienceAccess = "access"

// Claims represents the JWT claims with organization context.
type Claims struct {
	jwt.RegisteredClaims
	OrganizationID uuid.UUID        `json:"organization_id"`
	UserID         uuid.UUID        `json:"user_id"`
	Email          string           `json:"email"`
	Role           domain.UserRole  `json:"role"`
	ActorType      domain.ActorType `json:"actor_type,omitempty"`
}

// RequestContext converts the claims into the caller identity.
func (c *Claims) RequestContext() domain.RequestContext {
	actor := c.ActorType
	if actor == "" {
		actor = domain.ActorUser
	}
	return domain.RequestContext{
		OrganizationID: c.OrganizationID,
		ActorID:        c.UserID,
		ActorEmail:     c.Email,
		ActorType:      actor,
		Role:           c.Role,
	}
}

// TokenValidator validates access tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// JWT signs and validates HS256 access tokens.
type JWT struct {
	cfg config.JWTConfig
}

// NewJWT creates a JWT validator from config.
func NewJWT(cfg config.JWTConfig) *JWT {
	return &JWT{cfg: cfg}
}

// Issue signs an access token for the identity. Used by service-to-service callers
// such as the payment sync job, and by tests.
func (j *JWT) Issue(rc domain.RequestContext, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   rc.ActorID.String(),
			Issuer:    j.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.New().String(),
			Audience:  jwt.ClaimStrings{audienceAccess},
		},
		OrganizationID: rc.OrganizationID,
		UserID:         rc.ActorID,
		Email:          rc.ActorEmail,
		Role:           rc.Role,
		ActorType:      rc.ActorType,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(j.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing access token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies an access token.
func (j *JWT) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{jwt.WithAudience(audienceAccess)}
	if j.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.cfg.Issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(j.cfg.Secret), nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if !token.Valid {
		return nil, domain.ErrUnauthorized
	}
	if claims.OrganizationID == uuid.Nil {
		return nil, fmt.Errorf("%w: token has no organization", domain.ErrUnauthorized)
	}
	if !domain.ValidUserRoles[claims.Role] && claims.ActorType != domain.ActorSystem && claims.ActorType != domain.ActorScheduledJob {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrUnauthorized, claims.Role)
	}
	return claims, nil
}
