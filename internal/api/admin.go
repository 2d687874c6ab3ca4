package api

import (
	"net/http" // HTTP status codes

	"assetmarket/internal/domain"     // Importing domain models
	"assetmarket/internal/moderation" // Moderation state machine

	"github.com/gin-gonic/gin" // Gin web framework
)

// RoleRequest is the body of a role change
type RoleRequest struct {
	Role domain.Role `json:"role" binding:"required"` // Target role
}

// ListUsersHandler returns every user
func ListUsersHandler(svc *moderation.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := actor(c)
		if !ok {
			return
		}
		users, err := svc.ListUsers(c.Request.Context(), caller)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, users)
	}
}

// DeleteUserHandler removes a user and everything they own
func DeleteUserHandler(svc *moderation.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := actor(c)
		if !ok {
			return
		}
		id, ok := idParam(c, "id", domain.ErrUserNotFound)
		if !ok {
			return
		}
		if err := svc.DeleteUser(c.Request.Context(), caller, id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "User removed"})
	}
}

// SetRoleHandler changes a user's role
func SetRoleHandler(svc *moderation.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := actor(c)
		if !ok {
			return
		}
		id, ok := idParam(c, "id", domain.ErrUserNotFound)
		if !ok {
			return
		}
		var req RoleRequest // Unknown roles fail while decoding
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Valid role is required"})
			return
		}
		user, err := svc.SetRole(c.Request.Context(), caller, id, req.Role)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// ListAdminAssetsHandler returns every asset for review
func ListAdminAssetsHandler(svc *moderation.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := actor(c)
		if !ok {
			return
		}
		rows, err := svc.ListAssets(c.Request.Context(), caller)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

// ModerateHandler applies one moderation action to an asset
func ModerateHandler(svc *moderation.Service, action moderation.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := actor(c)
		if !ok {
			return
		}
		id, ok := idParam(c, "id", domain.ErrAssetNotFound)
		if !ok {
			return
		}
		var (
			asset *domain.Asset
			err   error
		)
		switch action {
		case moderation.ActionApprove:
			asset, err = svc.Approve(c.Request.Context(), caller, id)
		case moderation.ActionReject:
			asset, err = svc.Reject(c.Request.Context(), caller, id)
		default:
			asset, err = svc.ToggleFeature(c.Request.Context(), caller, id)
		}
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": moderationMessage(action, asset), "asset": asset})
	}
}

func moderationMessage(action moderation.Action, a *domain.Asset) string {
	switch action {
	case moderation.ActionApprove:
		return "Asset approved"
	case moderation.ActionReject:
		return "Asset rejected"
	}
	if a.IsFeatured {
		return "Asset featured"
	}
	return "Asset unfeatured"
}

// StatsHandler returns platform statistics
func StatsHandler(svc *moderation.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := actor(c)
		if !ok {
			return
		}
		stats, err := svc.Stats(c.Request.Context(), caller)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}
