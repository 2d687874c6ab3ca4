package middleware

import (
	"context"  // Request context for store lookups
	"net/http" // HTTP status codes
	"slices"   // Role membership

	"assetmarket/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin" // Gin web framework
)

// ActorKey holds the authenticated domain.Actor in the gin context
const ActorKey = "actor"

// UserLookup loads users by id
type UserLookup interface {
	FindUser(ctx context.Context, id uint) (*domain.User, error)
}

// RequireRole lets the request through only if the caller holds one of roles
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authorized"})
			return
		}
		if !slices.Contains(roles, actor.Role) {
			msg := "Seller access required"
			if len(roles) == 1 && roles[0] == domain.RoleAdmin {
				msg = "Admin access required"
			}
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": msg})
			return
		}
		c.Next()
	}
}

// ActorFrom returns the actor stored by Authenticate
func ActorFrom(c *gin.Context) (domain.Actor, bool) {
	v, exists := c.Get(ActorKey)
	if !exists {
		return domain.Actor{}, false
	}
	actor, ok := v.(domain.Actor)
	return actor, ok
}
