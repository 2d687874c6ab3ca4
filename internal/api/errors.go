package api

import (
	"net/http" // HTTP status codes
	"strconv"  // Identifier parsing

	"assetmarket/internal/domain" // Error taxonomy
	"assetmarket/internal/middleware"

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// statusOf maps an error kind to its HTTP status
func statusOf(kind domain.Kind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"error": message}. Unclassified errors are logged
// and answered with a generic message.
func respondError(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	if kind == domain.KindServerFault {
		logrus.WithFields(logrus.Fields{
			"method": c.Request.Method, // HTTP method
			"path":   c.FullPath(),     // Route pattern
			"error":  err.Error(),      // Underlying cause
		}).Error("Request failed")
	}
	c.JSON(statusOf(kind), gin.H{"error": domain.MessageOf(err)})
}

// idParam parses a numeric path parameter. Malformed identifiers are reported
// with notFound, the same as a missing record.
func idParam(c *gin.Context, name string, notFound error) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondError(c, notFound)
		return 0, false
	}
	return uint(id), true
}

// actor returns the authenticated caller or answers 401
func actor(c *gin.Context) (domain.Actor, bool) {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authorized"})
	}
	return a, ok
}
