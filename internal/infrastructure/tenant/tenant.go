// Package tenant manages tenant-specific configurations and context,
// isolating multi-tenancy logic from the rest of the application.
package tenant

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/RecordKit/lifemap-go/internal/infrastructure/caching/manager"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/logging"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/persistence/database"
)

// Manager resolves requests to tenant contexts. A context is built once per
// tenant and reused; per-tenant mutexes keep concurrent first requests from
// racing to build the same context.
type Manager struct {
	detector       *Detector
	cacheManager   *manager.Manager
	contexts       map[string]*Context
	contextMutexes sync.Map
	globalMutex    sync.RWMutex
	logger         *logging.ChanneledLogger
}

// NewManager creates and initializes a new tenant manager.
func NewManager(logger *logging.ChanneledLogger) *Manager {
	detector, err := NewDetector(logger)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize tenant detector: %v", err))
	}

	return &Manager{
		detector:     detector,
		cacheManager: manager.NewManager(logger),
		contexts:     make(map[string]*Context),
		logger:       logger,
	}
}

// GetContext resolves the request's tenant and returns its context, building
// one on first use.
func (m *Manager) GetContext(c *gin.Context) (*Context, error) {
	tenantID, err := m.detector.DetectTenant(c)
	if err != nil {
		return nil, fmt.Errorf("tenant detection failed: %w", err)
	}

	if ctx := m.cachedContext(tenantID); ctx != nil {
		return ctx, nil
	}

	lock, _ := m.contextMutexes.LoadOrStore(tenantID, &sync.Mutex{})
	tenantMutex := lock.(*sync.Mutex)
	tenantMutex.Lock()
	defer tenantMutex.Unlock()

	// Another request may have built the context while we waited.
	if ctx := m.cachedContext(tenantID); ctx != nil {
		return ctx, nil
	}
	return m.createContext(tenantID)
}

// cachedContext returns the stored context if it exists and still holds a
// live connection; a context whose connection was torn down gets rebuilt.
func (m *Manager) cachedContext(tenantID string) *Context {
	m.globalMutex.RLock()
	defer m.globalMutex.RUnlock()

	ctx, exists := m.contexts[tenantID]
	if exists && ctx.Database != nil && ctx.Database.Conn != nil {
		return ctx
	}
	return nil
}

// NewContextFromID builds a tenant context outside the request path, for
// provisioning and startup code that has no gin context.
func (m *Manager) NewContextFromID(tenantID string) (*Context, error) {
	return m.createContext(tenantID)
}

func (m *Manager) createContext(tenantID string) (*Context, error) {
	config, err := LoadTenantConfig(tenantID, m.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant config: %w", err)
	}

	db, err := NewDatabase(config, m.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}

	if err := database.EnsureMetamodelSchema(db.Conn, m.logger); err != nil {
		return nil, fmt.Errorf("failed to prepare tenant database: %w", err)
	}

	m.cacheManager.InitializeTenant(tenantID)
	m.cacheManager.SetWidgetSettings(tenantID, config.WidgetSettings)

	ctx := &Context{
		TenantID:     tenantID,
		Config:       config,
		Database:     db,
		Status:       m.detector.GetTenantStatus(tenantID),
		CacheManager: m.cacheManager,
		Logger:       m.logger,
	}

	m.globalMutex.Lock()
	m.contexts[tenantID] = ctx
	m.globalMutex.Unlock()

	return ctx, nil
}

// PreActivateAllTenants builds contexts for every registered tenant at
// startup so the first request never pays the activation cost. Failures are
// collected rather than aborting on the first bad tenant.
func (m *Manager) PreActivateAllTenants() error {
	registry, err := LoadTenantRegistry()
	if err != nil {
		return fmt.Errorf("failed to load tenant registry for pre-activation: %w", err)
	}
	if len(registry.Tenants) == 0 {
		return nil
	}

	var failed []string
	for tenantID, info := range registry.Tenants {
		if info.Status == "active" {
			continue
		}
		if err := m.preActivate(tenantID); err != nil {
			m.logger.Tenant().Error("Tenant pre-activation failed", "tenantId", tenantID, "error", err)
			failed = append(failed, tenantID)
		}
	}

	if err := m.detector.RefreshRegistry(); err != nil {
		return fmt.Errorf("failed to refresh detector registry: %w", err)
	}
	if len(failed) > 0 {
		return fmt.Errorf("pre-activation failed for tenants: %v", failed)
	}
	return nil
}

func (m *Manager) preActivate(tenantID string) error {
	ctx, err := m.createContext(tenantID)
	if err != nil {
		return fmt.Errorf("failed to create context for tenant %s: %w", tenantID, err)
	}

	if err := ctx.Database.Conn.Ping(); err != nil {
		return fmt.Errorf("database connection test failed for tenant %s: %w", tenantID, err)
	}

	dbType := "sqlite3"
	if ctx.Database.UseTurso {
		dbType = "turso"
	}
	m.detector.UpdateTenantStatus(tenantID, "active", dbType)
	return nil
}

// ValidatePreActivation confirms no registered tenant is left inactive once
// pre-activation has run. Reserved tenants are fine; they are waiting on
// their activation link.
func (m *Manager) ValidatePreActivation() error {
	registry, err := LoadTenantRegistry()
	if err != nil {
		return fmt.Errorf("failed to load registry for validation: %w", err)
	}

	var active, reserved, inactive []string
	for tenantID, info := range registry.Tenants {
		switch info.Status {
		case "active":
			active = append(active, tenantID)
		case "reserved":
			reserved = append(reserved, tenantID)
		default:
			inactive = append(inactive, tenantID)
		}
	}

	if m.logger != nil {
		m.logger.Tenant().Info("Pre-activation validated", "active", active, "reserved", reserved)
	}
	if len(inactive) > 0 {
		return fmt.Errorf("validation failed - %d tenants still inactive: %v", len(inactive), inactive)
	}
	return nil
}

// GetActiveTenantCount returns the number of active tenants in the registry.
func (m *Manager) GetActiveTenantCount() (int, error) {
	registry, err := LoadTenantRegistry()
	if err != nil {
		return 0, fmt.Errorf("failed to load tenant registry: %w", err)
	}

	count := 0
	for _, info := range registry.Tenants {
		if info.Status == "active" {
			count++
		}
	}
	return count, nil
}

func (m *Manager) GetCacheManager() *manager.Manager {
	return m.cacheManager
}

func (m *Manager) GetDetector() *Detector {
	return m.detector
}

// GetLogger returns the logger for middleware access.
func (m *Manager) GetLogger() *logging.ChanneledLogger {
	return m.logger
}

// Close tears down every tenant context and its database connection.
func (m *Manager) Close() error {
	m.globalMutex.Lock()
	defer m.globalMutex.Unlock()

	for tenantID, ctx := range m.contexts {
		if err := ctx.Close(); err != nil {
			m.logger.Shutdown().Warn("Failed to close tenant context", "tenantId", tenantID, "error", err)
		}
	}
	m.contexts = make(map[string]*Context)
	return nil
}
