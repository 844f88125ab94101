package middleware

import (
	"net/http"
	"strings"

	"pizza-backend/authz"
	"pizza-backend/models"
	"pizza-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuthMiddleware authenticates the bearer token and stores the resolved
// caller in the request context. Tokens surrendered via logout are rejected.
func AuthMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthenticated"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthenticated"})
			c.Abort()
			return
		}

		token := parts[1]
		claims, err := utils.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthenticated"})
			c.Abort()
			return
		}

		if db != nil {
			var revoked int64
			db.Model(&models.RevokedToken{}).Where("token = ?", token).Count(&revoked)
			if revoked > 0 {
				c.JSON(http.StatusUnauthorized, gin.H{"message": "unauthenticated"})
				c.Abort()
				return
			}
		}

		caller := authz.Caller{ID: claims.UserID}
		for _, r := range claims.Roles {
			caller.Roles = append(caller.Roles, authz.RoleGrant{Role: r.Role, FranchiseID: r.FranchiseID})
		}

		c.Set("user_id", claims.UserID)
		c.Set("caller", caller)
		c.Set("token", token)
		c.Next()
	}
}

// AdminMiddleware requires the caller to hold the admin role.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := GetCaller(c)
		if !ok || !caller.IsAdmin() {
			c.JSON(http.StatusForbidden, gin.H{"message": "unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetCaller returns the authenticated caller set by AuthMiddleware.
func GetCaller(c *gin.Context) (authz.Caller, bool) {
	v, exists := c.Get("caller")
	if !exists {
		return authz.Caller{}, false
	}
	caller, ok := v.(authz.Caller)
	return caller, ok
}
