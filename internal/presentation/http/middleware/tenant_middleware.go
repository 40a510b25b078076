// Package middleware provides HTTP middleware for the presentation layer.
package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/performance"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/tenant"
)

// TenantMiddleware resolves the request's tenant and attaches its context.
// Requests that name no tenant are rejected; a request for the default
// tenant on a fresh install passes through flagged for setup instead.
func TenantMiddleware(tenantManager *tenant.Manager, perfTracker *performance.Tracker) gin.HandlerFunc {
	logger := tenantManager.GetLogger()

	return func(c *gin.Context) {
		marker := perfTracker.StartOperation("middleware_tenant_resolution", "unknown")
		defer func() {
			marker.Complete()
			if perfTracker.IsSlow(marker) {
				logger.Perf().Warn("Slow tenant resolution",
					"tenantId", marker.TenantID,
					"duration", marker.Duration,
					"path", c.Request.URL.Path)
			}
		}()

		marker.AddMetadata("path", c.Request.URL.Path)
		marker.AddMetadata("method", c.Request.Method)

		tenantID := c.GetHeader("X-Tenant-ID")
		if tenantID == "" {
			tenantID = c.Query("tenantId") // EventSource cannot set headers
		}
		if tenantID == "" {
			errMsg := "X-Tenant-ID header or tenantId query param is required"
			logger.Tenant().Warn(errMsg, "path", c.Request.URL.Path)
			marker.SetError(fmt.Errorf("%s", errMsg))
			c.JSON(http.StatusBadRequest, gin.H{"error": errMsg})
			c.Abort()
			return
		}
		marker.TenantID = tenantID

		tenantCtx, err := tenantManager.GetContext(c)
		if err != nil {
			if setupPassthrough(c, tenantManager, tenantID) {
				marker.SetSuccess(true)
				c.Next()
				return
			}

			logger.Tenant().Error("Tenant resolution failed", "error", err, "tenantId", tenantID)
			marker.SetError(err)
			c.JSON(http.StatusNotFound, gin.H{"error": "tenant not found"})
			c.Abort()
			return
		}

		logger.Tenant().Debug("Tenant context resolved",
			"tenantId", tenantCtx.TenantID,
			"database", tenantCtx.GetDatabaseInfo(),
		)
		marker.SetSuccess(true)
		c.Set("tenant", tenantCtx)
		c.Next()
	}
}

// setupPassthrough lets requests for an inactive default tenant through so
// the fresh-install endpoints can answer. The handlers see the setupNeeded
// flag instead of a tenant context.
func setupPassthrough(c *gin.Context, tenantManager *tenant.Manager, tenantID string) bool {
	if tenantID != "default" {
		return false
	}
	if tenantManager.GetDetector().GetTenantStatus("default") != "inactive" {
		return false
	}
	c.Set("setupNeeded", true)
	c.Set("tenantId", "default")
	return true
}

// GetTenantContext retrieves the tenant context from gin context.
func GetTenantContext(c *gin.Context) (*tenant.Context, bool) {
	tenantCtx, exists := c.Get("tenant")
	if !exists {
		return nil, false
	}
	ctx, ok := tenantCtx.(*tenant.Context)
	return ctx, ok
}
