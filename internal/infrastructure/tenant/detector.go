// Package tenant provides tenant detection and validation.
package tenant

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/logging"
)

// Detector resolves which tenant a request addresses and answers domain and
// status questions from the registry.
type Detector struct {
	registry    *TenantRegistry
	multiTenant bool
	logger      *logging.ChanneledLogger
}

// NewDetector loads the registry and reads the multi-tenant switch.
func NewDetector(logger *logging.ChanneledLogger) (*Detector, error) {
	registry, err := LoadTenantRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant registry: %w", err)
	}

	multiTenant, _ := strconv.ParseBool(os.Getenv("ENABLE_MULTI_TENANT"))

	return &Detector{
		registry:    registry,
		multiTenant: multiTenant,
		logger:      logger,
	}, nil
}

// DetectTenant resolves the tenant ID for a request. Unknown tenants are
// auto-registered when they already have a config directory on disk, so an
// operator can provision a tenant by dropping files without restarting.
func (d *Detector) DetectTenant(c *gin.Context) (string, error) {
	tenantID, err := d.requestTenantID(c)
	if err != nil {
		return "", err
	}

	if _, known := d.registry.Tenants[tenantID]; known {
		return tenantID, nil
	}

	if tenantID != "default" && !d.hasConfigDirectory(tenantID) {
		return "", fmt.Errorf("unknown tenant: %s", tenantID)
	}

	d.registry.Tenants[tenantID] = defaultTenantInfo(tenantID)
	if d.logger != nil {
		d.logger.Tenant().Info("Auto-registered tenant", "tenantId", tenantID)
	}
	return tenantID, nil
}

// requestTenantID reads the tenant ID off the request. The state change
// stream connects through EventSource, which cannot set headers, so the
// query parameter is accepted as a fallback.
func (d *Detector) requestTenantID(c *gin.Context) (string, error) {
	if !d.multiTenant {
		return "default", nil
	}

	if id := c.GetHeader("X-Tenant-ID"); id != "" {
		return id, nil
	}
	if id := c.Query("tenantId"); id != "" {
		return id, nil
	}
	return "", fmt.Errorf("missing tenant ID header in multi-tenant mode")
}

func (d *Detector) hasConfigDirectory(tenantID string) bool {
	dataDir, err := DataDir()
	if err != nil {
		return false
	}
	_, err = os.Stat(tenantConfigDir(dataDir, tenantID))
	return err == nil
}

// ValidateDomain reports whether a domain may embed the tenant's widgets.
// A registered "*" entry admits every domain.
func (d *Detector) ValidateDomain(tenantID, domain string) bool {
	tenantInfo, exists := d.registry.Tenants[tenantID]
	if !exists {
		return false
	}

	for _, allowed := range tenantInfo.Domains {
		if allowed == "*" || strings.EqualFold(allowed, domain) {
			return true
		}
	}
	return false
}

// GetTenantStatus returns the registry status for a tenant.
func (d *Detector) GetTenantStatus(tenantID string) string {
	if tenantInfo, exists := d.registry.Tenants[tenantID]; exists {
		return tenantInfo.Status
	}
	return "unknown"
}

// UpdateTenantStatus updates the in-memory registry entry.
func (d *Detector) UpdateTenantStatus(tenantID, status, dbType string) {
	tenantInfo, exists := d.registry.Tenants[tenantID]
	if !exists {
		return
	}
	tenantInfo.Status = status
	if dbType != "" {
		tenantInfo.DatabaseType = dbType
	}
	d.registry.Tenants[tenantID] = tenantInfo
}

// RefreshRegistry reloads the registry from disk.
func (d *Detector) RefreshRegistry() error {
	registry, err := LoadTenantRegistry()
	if err != nil {
		return fmt.Errorf("failed to refresh tenant registry: %w", err)
	}
	d.registry = registry
	return nil
}

// GetRegistry returns the current registry.
func (d *Detector) GetRegistry() *TenantRegistry {
	return d.registry
}
