package middleware

import (
	"net/http" // HTTP status codes
	"strings"  // Header parsing

	"assetmarket/internal/domain" // Importing domain models
	"assetmarket/internal/utils"  // JWT utility functions

	"github.com/gin-gonic/gin" // Gin web framework
	"github.com/sirupsen/logrus"
)

// bearerToken extracts the credential from an "Authorization: Bearer <token>" header.
// The scheme is matched case-insensitively.
func bearerToken(c *gin.Context) (string, bool) {
	scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Authenticate verifies the bearer token, then loads the caller from the store
// so role changes and deleted accounts take effect without reissuing tokens
func Authenticate(secret string, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authorized, no token"})
			return
		}
		claims, err := utils.ParseJWT(token, secret)
		if err != nil {
			logrus.WithField("error", err.Error()).Debug("Rejected bearer token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authorized, token failed"})
			return
		}
		user, err := users.FindUser(c.Request.Context(), claims.UserID)
		switch {
		case domain.KindOf(err) == domain.KindNotFound:
			// Token outlived its user
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authorized, user not found"})
			return
		case err != nil:
			logrus.WithFields(logrus.Fields{"user_id": claims.UserID, "error": err.Error()}).Error("Failed to load caller")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Server Error"})
			return
		}
		c.Set(ActorKey, domain.Actor{UserID: user.ID, Role: user.Role})
		c.Next()
	}
}
