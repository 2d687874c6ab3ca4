package api

import (
	"net/http" // HTTP status codes

	"assetmarket/internal/account" // Account service
	"assetmarket/internal/domain"  // Importing domain models
	"assetmarket/internal/utils"   // Utility functions

	"github.com/gin-gonic/gin" // Gin web framework
)

// Request struct for registration
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`     // Display name must be provided
	Email    string `json:"email" binding:"required"`    // Email must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
}

// Request struct for login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`    // Email must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
}

// Response struct for authentication
type AuthResponse struct {
	Token string       `json:"token"` // JWT token
	User  *domain.User `json:"user"`  // Authenticated user
}

// RegisterHandler creates a buyer account and returns a token for it
func RegisterHandler(accounts *account.Service, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		user, err := accounts.Register(c.Request.Context(), req.Name, req.Email, req.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		issueToken(c, http.StatusCreated, user, jwtSecret)
	}
}

// LoginHandler authenticates a user and returns a JWT token
func LoginHandler(accounts *account.Service, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		user, err := accounts.Authenticate(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		issueToken(c, http.StatusOK, user, jwtSecret)
	}
}

func issueToken(c *gin.Context, status int, user *domain.User, jwtSecret string) {
	token, err := utils.GenerateJWT(user.ID, jwtSecret)
	if err != nil {
		// If token generation fails, return internal server error
		respondError(c, err)
		return
	}
	c.JSON(status, AuthResponse{Token: token, User: user})
}
