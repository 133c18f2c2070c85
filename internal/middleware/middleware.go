// Package middleware holds the gin middleware shared by every route group.
package middleware

import "github.com/gin-gonic/gin"

// Context keys set by the auth middleware
const (
	ContextUserID   = "userID"
	ContextUsername = "username"
)

// GetUserID returns the authenticated user's ID set by JWTAuth or OptionalAuth
func GetUserID(c *gin.Context) (int64, bool) {
	v, exists := c.Get(ContextUserID)
	if !exists {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok && id > 0
}

// GetUsername returns the authenticated user's name
func GetUsername(c *gin.Context) string {
	return c.GetString(ContextUsername)
}
