package api

import (
	"net/http" // HTTP status codes

	"assetmarket/internal/account"  // Profiles
	"assetmarket/internal/catalog"  // Seller listings
	"assetmarket/internal/domain"   // Importing domain models
	"assetmarket/internal/wishlist" // Wishlist consistency layer

	"github.com/gin-gonic/gin" // Gin web framework
)

// ProfileHandler returns the caller's own profile
func ProfileHandler(accounts *account.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := actor(c)
		if !ok {
			return
		}
		user, err := accounts.Profile(c.Request.Context(), caller.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// UpdateProfileHandler edits the caller's profile
func UpdateProfileHandler(accounts *account.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := actor(c)
		if !ok {
			return
		}
		var req account.ProfileInput // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		user, err := accounts.UpdateProfile(c.Request.Context(), caller.UserID, req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// MyAssetsHandler returns every asset the caller sells, approved or not
func MyAssetsHandler(svc *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := actor(c)
		if !ok {
			return
		}
		items, err := svc.SellerAssets(c.Request.Context(), caller.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

// PurchasesHandler is a placeholder until payments exist; it always returns an empty list
func PurchasesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, []catalog.AssetSummary{})
	}
}

// WishlistHandler returns the caller's wishlist
func WishlistHandler(svc *wishlist.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := actor(c)
		if !ok {
			return
		}
		items, err := svc.List(c.Request.Context(), caller.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
	}
}

// AddWishlistHandler saves an asset and returns it with its seller
func AddWishlistHandler(svc *wishlist.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := actor(c)
		if !ok {
			return
		}
		assetID, ok := idParam(c, "assetId", domain.ErrAssetNotFound)
		if !ok {
			return
		}
		item, err := svc.Add(c.Request.Context(), caller.UserID, assetID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, item)
	}
}

// RemoveWishlistHandler drops an asset from the caller's wishlist
func RemoveWishlistHandler(svc *wishlist.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := actor(c)
		if !ok {
			return
		}
		assetID, ok := idParam(c, "assetId", domain.ErrNotInWishlist)
		if !ok {
			return
		}
		if err := svc.Remove(c.Request.Context(), caller.UserID, assetID); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Asset removed from wishlist"})
	}
}
