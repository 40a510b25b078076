package middleware

import (
	"net/http"
	"strings"

	"github.com/RecordKit/lifemap-go/internal/application/services"
	"github.com/gin-gonic/gin"
)

// bearerToken pulls the JWT out of the Authorization header.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

// AdminAuthMiddleware guards metamodel mutation endpoints: admin only.
func AdminAuthMiddleware(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantCtx, exists := GetTenantContext(c)
		if !exists {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context required"})
			c.Abort()
			return
		}

		if !authService.ValidateAdminToken(bearerToken(c), tenantCtx) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "admin authentication required"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// OptionalConsoleAuth records the console role when a valid token is
// present and lets anonymous traffic pass. Surfaces downstream decide what
// an empty role means.
func OptionalConsoleAuth(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tenantCtx, exists := GetTenantContext(c); exists {
			if role := authService.ConsoleRole(bearerToken(c), tenantCtx); role != "" {
				c.Set("consoleRole", role)
			}
		}
		c.Next()
	}
}

// ConsoleAuthMiddleware guards console endpoints: admin or editor.
func ConsoleAuthMiddleware(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantCtx, exists := GetTenantContext(c)
		if !exists {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context required"})
			c.Abort()
			return
		}

		role := authService.ConsoleRole(bearerToken(c), tenantCtx)
		if role == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "console authentication required"})
			c.Abort()
			return
		}

		c.Set("consoleRole", role)
		c.Next()
	}
}
