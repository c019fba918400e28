package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/LovationAdmin/financas-api/utils"
)

const (
	contextUserID = "user_id"
	contextEmail  = "email"
)

// AuthMiddleware requires a valid "Authorization: Bearer <jwt>" header and
// stores the caller's identity in the gin context.
func AuthMiddleware(tokens *utils.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			return
		}

		claims, err := tokens.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		SetIdentity(c, claims.UserID, claims.Email)
		c.Next()
	}
}

// SetIdentity records the authenticated user on the request.
func SetIdentity(c *gin.Context, userID int64, email string) {
	c.Set(contextUserID, userID)
	c.Set(contextEmail, email)
}

// GetUserID returns the authenticated user's id, or 0 outside AuthMiddleware.
func GetUserID(c *gin.Context) int64 {
	return c.GetInt64(contextUserID)
}

func GetUserEmail(c *gin.Context) string {
	return c.GetString(contextEmail)
}
