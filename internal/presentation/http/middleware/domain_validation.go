package middleware

import (
	"net"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/RecordKit/lifemap-go/internal/infrastructure/tenant"
)

// DomainValidationMiddleware rejects widget traffic from origins a tenant
// has not registered. Preflight requests pass through untouched so CORS can
// answer them, and loopback hosts are always allowed for local development.
func DomainValidationMiddleware(tenantManager *tenant.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		if isLoopback(c.Request.Host) {
			c.Next()
			return
		}

		tenantCtx, exists := GetTenantContext(c)
		if !exists {
			c.JSON(http.StatusForbidden, gin.H{"error": "tenant context required"})
			c.Abort()
			return
		}

		domain := requestDomain(c)
		if !tenantManager.GetDetector().ValidateDomain(tenantCtx.TenantID, domain) {
			tenantCtx.Logger.Tenant().Warn("Rejected request from unregistered domain",
				"tenantId", tenantCtx.TenantID, "domain", domain)
			c.JSON(http.StatusForbidden, gin.H{"error": "domain not allowed for tenant"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// requestDomain prefers the Origin header (what the embedding page actually
// is) over the Host header (what the widget endpoint was addressed as).
func requestDomain(c *gin.Context) string {
	if origin := c.GetHeader("Origin"); origin != "" {
		if originURL, err := url.Parse(origin); err == nil && originURL.Hostname() != "" {
			return originURL.Hostname()
		}
	}
	return hostOnly(c.Request.Host)
}

func isLoopback(host string) bool {
	h := hostOnly(host)
	return h == "localhost" || h == "127.0.0.1" || h == "::1"
}

func hostOnly(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}
