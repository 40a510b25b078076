// Package stores provides concrete cache store implementations
package stores

import (
	"sync"
	"time"

	"github.com/RecordKit/lifemap-go/internal/infrastructure/caching/types"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/logging"
)

// ConfigStore caches per-tenant widget settings. Settings have no TTL; they
// are loaded once and held until a settings change invalidates them.
type ConfigStore struct {
	tenantCaches map[string]*types.TenantConfigCache
	mu           sync.RWMutex
	logger       *logging.ChanneledLogger
}

// NewConfigStore creates a new configuration cache store.
func NewConfigStore(logger *logging.ChanneledLogger) *ConfigStore {
	if logger != nil {
		logger.Cache().Info("Initializing configuration cache store")
	}
	return &ConfigStore{
		tenantCaches: make(map[string]*types.TenantConfigCache),
		logger:       logger,
	}
}

// InitializeTenant creates cache structures for a tenant.
func (cs *ConfigStore) InitializeTenant(tenantID string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.tenantCaches[tenantID] != nil {
		return
	}
	cs.tenantCaches[tenantID] = &types.TenantConfigCache{
		LastUpdated: time.Now().UTC(),
	}
	if cs.logger != nil {
		cs.logger.Cache().Info("Tenant configuration cache initialized", "tenantId", tenantID)
	}
}

// GetTenantCache safely retrieves a tenant's config cache.
func (cs *ConfigStore) GetTenantCache(tenantID string) (*types.TenantConfigCache, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	cache, exists := cs.tenantCaches[tenantID]
	return cache, exists
}

// GetWidgetSettings retrieves cached widget configuration.
func (cs *ConfigStore) GetWidgetSettings(tenantID string) (*types.WidgetSettings, bool) {
	cache, exists := cs.GetTenantCache(tenantID)
	if !exists {
		cs.logMiss(tenantID, "tenant_not_initialized")
		return nil, false
	}

	cache.Mu.RLock()
	defer cache.Mu.RUnlock()

	if cache.WidgetSettings == nil {
		cs.logMiss(tenantID, "nil")
		return nil, false
	}
	return cache.WidgetSettings, true
}

// SetWidgetSettings stores widget configuration.
func (cs *ConfigStore) SetWidgetSettings(tenantID string, settings *types.WidgetSettings) {
	cache, exists := cs.GetTenantCache(tenantID)
	if !exists {
		cs.InitializeTenant(tenantID)
		cache, _ = cs.GetTenantCache(tenantID)
	}

	now := time.Now().UTC()
	cache.Mu.Lock()
	cache.WidgetSettings = settings
	cache.WidgetSettingsLastUpdated = now
	cache.LastUpdated = now
	cache.Mu.Unlock()

	if cs.logger != nil {
		cs.logger.Cache().Debug("Cache operation", "operation", "set", "type", "widget_settings", "tenantId", tenantID)
	}
}

// InvalidateConfigCache clears all configuration cache for a tenant.
func (cs *ConfigStore) InvalidateConfigCache(tenantID string) {
	cache, exists := cs.GetTenantCache(tenantID)
	if !exists {
		return
	}

	cache.Mu.Lock()
	cache.WidgetSettings = nil
	cache.WidgetSettingsLastUpdated = time.Time{}
	cache.LastUpdated = time.Now().UTC()
	cache.Mu.Unlock()

	if cs.logger != nil {
		cs.logger.Cache().Info("Configuration cache invalidated", "tenantId", tenantID)
	}
}

func (cs *ConfigStore) logMiss(tenantID, reason string) {
	if cs.logger != nil {
		cs.logger.Cache().Debug("Cache operation", "operation", "get", "type", "widget_settings", "tenantId", tenantID, "hit", false, "reason", reason)
	}
}
