package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/taskhub/backend/internal/policy"
	"github.com/taskhub/backend/internal/utils"
	"github.com/taskhub/backend/pkg/response"
)

const (
	ContextUserID  = "user_id"
	ContextEmail   = "email"
	ContextName    = "name"
	ContextIsAdmin = "is_admin"
	ContextTokenID = "token_id"
)

// TokenChecker reports whether an issued token id is still usable.
type TokenChecker interface {
	TokenActive(tokenID string) bool
}

// AuthRequired is a middleware that checks for a valid JWT token. When checker
// is non-nil the token must also still be active (not logged out).
func AuthRequired(checker TokenChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "")
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			response.Unauthorized(c, "")
			return
		}

		claims, err := utils.ParseToken(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Unauthorized(c, "")
			return
		}

		if checker != nil && !checker.TokenActive(claims.ID) {
			response.Unauthorized(c, "")
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextName, claims.Name)
		c.Set(ContextIsAdmin, claims.IsAdmin)
		c.Set(ContextTokenID, claims.ID)

		c.Next()
	}
}

// AdminRequired is a middleware that checks for the admin flag
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			response.Forbidden(c, "")
			return
		}
		c.Next()
	}
}

// GetUserID gets the current user ID from context
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextUserID); exists {
		if uid, ok := id.(uint); ok {
			return uid
		}
	}
	return 0
}

// GetEmail gets the current user email from context
func GetEmail(c *gin.Context) string {
	return c.GetString(ContextEmail)
}

// GetTokenID gets the id of the bearer token used for the request
func GetTokenID(c *gin.Context) string {
	return c.GetString(ContextTokenID)
}

// IsAdmin reports whether the current user is an administrator
func IsAdmin(c *gin.Context) bool {
	return c.GetBool(ContextIsAdmin)
}

// GetActor returns the acting user, nil when unauthenticated
func GetActor(c *gin.Context) *policy.Actor {
	return policy.NewActor(GetUserID(c))
}
