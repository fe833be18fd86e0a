package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tipsettle/internal/auth"
	"tipsettle/internal/domain"
)

const (
	ContextKeyOrganizationID = "organization_id"
	ContextKeyUserID         = "user_id"
	ContextKeyEmail          = "email"
	ContextKeyRole           = "role"
	ContextKeyRequestContext = "request_context"
)

// AuthMiddleware returns Gin middleware that validates bearer tokens and injects
// the caller identity.
func AuthMiddleware(validator auth.TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "missing or invalid authorization header"},
			})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := validator.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "UNAUTHORIZED", "message": "invalid or expired token"},
			})
			return
		}

		rc := claims.RequestContext()
		c.Set(ContextKeyOrganizationID, rc.OrganizationID)
		c.Set(ContextKeyUserID, rc.ActorID)
		c.Set(ContextKeyEmail, rc.ActorEmail)
		c.Set(ContextKeyRole, string(rc.Role))
		c.Set(ContextKeyRequestContext, rc)
		c.Next()
	}
}

// RequireRole returns middleware that checks the user's role against allowed roles.
func RequireRole(roles ...domain.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleStr, exists := c.Get(ContextKeyRole)
		if !exists {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   gin.H{"code": "FORBIDDEN", "message": "role not found in context"},
			})
			return
		}

		userRole := domain.UserRole(roleStr.(string))
		for _, r := range roles {
			if userRole == r {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success": false,
			"error":   gin.H{"code": "FORBIDDEN", "message": "insufficient permissions"},
		})
	}
}

// GetRequestContext returns the caller identity set by AuthMiddleware.
func GetRequestContext(c *gin.Context) (domain.RequestContext, error) {
	val, exists := c.Get(ContextKeyRequestContext)
	if !exists {
		return domain.RequestContext{}, domain.ErrUnauthorized
	}
	rc, ok := val.(domain.RequestContext)
	if !ok || rc.OrganizationID == uuid.Nil {
		return domain.RequestContext{}, domain.ErrUnauthorized
	}
	return rc, nil
}

// GetRole extracts the user role string from the Gin context.
func GetRole(c *gin.Context) string {
	val, exists := c.Get(ContextKeyRole)
	if !exists {
		return ""
	}
	return val.(string)
}
