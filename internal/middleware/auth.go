package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dentaheal/booking-api/internal/utils"
)

// Context keys set by Protect for handlers to read.
const (
	CtxUserID   = "userID"
	CtxUserRole = "userRole"
)

// Protect rejects requests without a valid bearer token and stores the
// caller's id and role on the context.
func Protect(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Authorization header required"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := utils.ValidateJWT(secret, tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid token"})
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxUserRole, claims.Role)

		c.Next()
	}
}

// Authorize allows only callers whose role is in the given set. It must run
// after Protect.
func Authorize(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		role, _ := c.Get(CtxUserRole)
		if r, ok := role.(string); !ok || !allowed[r] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "Role is not authorized to access this route"})
			return
		}
		c.Next()
	}
}
