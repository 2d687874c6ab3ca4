package api

import (
	"assetmarket/internal/account"    // Accounts and profiles
	"assetmarket/internal/catalog"    // Catalog query engine
	"assetmarket/internal/domain"     // Importing domain models
	"assetmarket/internal/middleware" // Auth and role middleware
	"assetmarket/internal/moderation" // Moderation state machine
	"assetmarket/internal/wishlist"   // Wishlist consistency layer

	"github.com/gin-gonic/gin" // Gin web framework
)

// Deps bundles everything the routes need
type Deps struct {
	Accounts   *account.Service      // Registration, login and profiles
	Catalog    *catalog.Service      // Asset listings and downloads
	Moderation *moderation.Service   // Admin operations
	Wishlist   *wishlist.Service     // Saved assets
	Users      middleware.UserLookup // Resolves the caller's current role
	Files      Uploader              // Upload storage
	UploadDir  string                // Served under /uploads
	JWTSecret  string                // JWT secret key
}

// RegisterRoutes mounts the marketplace API on r
func RegisterRoutes(r *gin.Engine, d Deps) {
	if d.UploadDir != "" {
		r.Static("/uploads", d.UploadDir) // Stored archives and previews
	}

	// Auth routes
	r.POST("/auth/register", RegisterHandler(d.Accounts, d.JWTSecret)) // Registration endpoint
	r.POST("/auth/login", LoginHandler(d.Accounts, d.JWTSecret))       // Login endpoint

	// Public catalog routes
	r.GET("/assets", ListAssetsHandler(d.Catalog))              // Paginated listing
	r.GET("/assets/featured", FeaturedAssetsHandler(d.Catalog)) // Homepage promotions
	r.GET("/assets/:id", GetAssetHandler(d.Catalog))            // Asset detail

	// Everything below requires a valid token and a live account
	authed := r.Group("")
	authed.Use(middleware.Authenticate(d.JWTSecret, d.Users))

	authed.POST("/assets/:id/download", DownloadHandler(d.Catalog))   // Download counter
	authed.POST("/assets/:id/reviews", AddReviewHandler(d.Catalog))   // Ratings
	authed.PUT("/assets/:id", UpdateAssetHandler(d.Catalog, d.Files)) // Owner or admin
	authed.DELETE("/assets/:id", DeleteAssetHandler(d.Catalog))       // Owner or admin

	sellers := authed.Group("")
	sellers.Use(middleware.RequireRole(domain.RoleSeller, domain.RoleAdmin))
	sellers.POST("/assets", CreateAssetHandler(d.Catalog, d.Files)) // New pending asset

	// User routes
	users := authed.Group("/users")
	users.GET("/profile", ProfileHandler(d.Accounts))                     // Own profile
	users.PUT("/profile", UpdateProfileHandler(d.Accounts))               // Edit profile
	users.GET("/assets", MyAssetsHandler(d.Catalog))                      // Own listings
	users.GET("/purchases", PurchasesHandler())                           // Always empty
	users.GET("/wishlist", WishlistHandler(d.Wishlist))                   // Saved assets
	users.POST("/wishlist/:assetId", AddWishlistHandler(d.Wishlist))      // Save asset
	users.DELETE("/wishlist/:assetId", RemoveWishlistHandler(d.Wishlist)) // Unsave asset

	// Admin routes (protected, admin only)
	admin := authed.Group("/admin")
	admin.Use(middleware.RequireRole(domain.RoleAdmin))
	admin.GET("/users", ListUsersHandler(d.Moderation))                                             // List users
	admin.DELETE("/users/:id", DeleteUserHandler(d.Moderation))                                     // Remove user
	admin.PUT("/users/:id/role", SetRoleHandler(d.Moderation))                                      // Change role
	admin.GET("/assets", ListAdminAssetsHandler(d.Moderation))                                      // Review queue
	admin.PUT("/assets/:id/approve", ModerateHandler(d.Moderation, moderation.ActionApprove))       // Approve
	admin.PUT("/assets/:id/reject", ModerateHandler(d.Moderation, moderation.ActionReject))         // Reject
	admin.PUT("/assets/:id/feature", ModerateHandler(d.Moderation, moderation.ActionToggleFeature)) // Toggle feature
	admin.GET("/stats", StatsHandler(d.Moderation))                                                 // Platform stats
}
