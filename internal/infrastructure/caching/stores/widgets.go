// Package stores provides concrete cache store implementations
package stores

import (
	"fmt"
	"sync"
	"time"

	"github.com/RecordKit/lifemap-go/internal/domain/entities/widgets"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/caching/types"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/logging"
)

// WidgetsStore implements live widget instance caching with tenant isolation
type WidgetsStore struct {
	tenantCaches map[string]*types.TenantWidgetCache
	mu           sync.RWMutex
	logger       *logging.ChanneledLogger
}

// NewWidgetsStore creates a new widget instance store
func NewWidgetsStore(logger *logging.ChanneledLogger) *WidgetsStore {
	if logger != nil {
		logger.Cache().Info("Initializing widget instance store")
	}
	return &WidgetsStore{
		tenantCaches: make(map[string]*types.TenantWidgetCache),
		logger:       logger,
	}
}

// InitializeTenant creates cache structures for a tenant
func (ws *WidgetsStore) InitializeTenant(tenantID string) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.tenantCaches[tenantID] == nil {
		ws.tenantCaches[tenantID] = &types.TenantWidgetCache{
			Instances: make(map[string]*widgets.Instance),
			ByBinding: make(map[string]string),
		}

		if ws.logger != nil {
			ws.logger.Cache().Info("Tenant widget store initialized", "tenantId", tenantID)
		}
	}
}

// GetTenantCache safely retrieves a tenant's widget cache
func (ws *WidgetsStore) GetTenantCache(tenantID string) (*types.TenantWidgetCache, bool) {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	cache, exists := ws.tenantCaches[tenantID]
	return cache, exists
}

// BindingKey builds the lookup key for one bound element under a session
func (ws *WidgetsStore) BindingKey(sessionID string, ctx widgets.ObjectLifecycleContext) string {
	return fmt.Sprintf("%s:%s", sessionID, ctx.Key())
}

// GetWidget retrieves a live widget instance by ID
func (ws *WidgetsStore) GetWidget(tenantID, instanceID string) (*widgets.Instance, bool) {
	cache, exists := ws.GetTenantCache(tenantID)
	if !exists {
		return nil, false
	}

	cache.Mu.RLock()
	defer cache.Mu.RUnlock()
	instance, found := cache.Instances[instanceID]
	return instance, found
}

// GetWidgetByBinding retrieves the instance bound to an element under a session
func (ws *WidgetsStore) GetWidgetByBinding(tenantID, sessionID string, ctx widgets.ObjectLifecycleContext) (*widgets.Instance, bool) {
	cache, exists := ws.GetTenantCache(tenantID)
	if !exists {
		return nil, false
	}

	cache.Mu.RLock()
	defer cache.Mu.RUnlock()

	instanceID, found := cache.ByBinding[ws.BindingKey(sessionID, ctx)]
	if !found {
		return nil, false
	}
	instance, found := cache.Instances[instanceID]
	return instance, found
}

// SetWidget stores a widget instance and indexes its binding
func (ws *WidgetsStore) SetWidget(tenantID string, instance *widgets.Instance) {
	cache, exists := ws.GetTenantCache(tenantID)
	if !exists {
		ws.InitializeTenant(tenantID)
		cache, _ = ws.GetTenantCache(tenantID)
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	cache.Instances[instance.ID] = instance
	cache.ByBinding[instance.BindingKey()] = instance.ID
}

// RemoveWidget deletes a widget instance and its binding index entry
func (ws *WidgetsStore) RemoveWidget(tenantID, instanceID string) {
	cache, exists := ws.GetTenantCache(tenantID)
	if !exists {
		return
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	instance, found := cache.Instances[instanceID]
	if !found {
		return
	}

	delete(cache.Instances, instanceID)
	delete(cache.ByBinding, instance.BindingKey())
}

// GetAllWidgetIDs returns all live widget instance IDs for a tenant
func (ws *WidgetsStore) GetAllWidgetIDs(tenantID string) []string {
	cache, exists := ws.GetTenantCache(tenantID)
	if !exists {
		return []string{}
	}

	cache.Mu.RLock()
	defer cache.Mu.RUnlock()

	ids := make([]string, 0, len(cache.Instances))
	for id := range cache.Instances {
		ids = append(ids, id)
	}
	return ids
}

// CountWidgetsBySession counts live instances held for a session
func (ws *WidgetsStore) CountWidgetsBySession(tenantID, sessionID string) int {
	cache, exists := ws.GetTenantCache(tenantID)
	if !exists {
		return 0
	}

	cache.Mu.RLock()
	defer cache.Mu.RUnlock()

	count := 0
	for _, instance := range cache.Instances {
		if instance.SessionID == sessionID {
			count++
		}
	}
	return count
}

// CountWidgetsByState aggregates instance counts per lifecycle state
func (ws *WidgetsStore) CountWidgetsByState(tenantID string) map[string]int {
	cache, exists := ws.GetTenantCache(tenantID)
	if !exists {
		return map[string]int{}
	}

	cache.Mu.RLock()
	defer cache.Mu.RUnlock()

	counts := make(map[string]int)
	for _, instance := range cache.Instances {
		counts[string(instance.State())]++
	}
	return counts
}

// EvictStale destroys and removes instances idle beyond the TTL. Returns the
// number of evicted instances.
func (ws *WidgetsStore) EvictStale(tenantID string, ttl time.Duration) int {
	cache, exists := ws.GetTenantCache(tenantID)
	if !exists {
		return 0
	}

	cutoff := time.Now().Add(-ttl)

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	evicted := 0
	for id, instance := range cache.Instances {
		if instance.LastActivity().Before(cutoff) {
			instance.Destroy()
			delete(cache.Instances, id)
			delete(cache.ByBinding, instance.BindingKey())
			evicted++
		}
	}

	if evicted > 0 && ws.logger != nil {
		ws.logger.Cache().Info("Evicted stale widget instances", "tenantId", tenantID, "count", evicted)
	}
	return evicted
}

// InvalidateWidgetCache destroys and clears all instances for a tenant
func (ws *WidgetsStore) InvalidateWidgetCache(tenantID string) {
	start := time.Now()
	cache, exists := ws.GetTenantCache(tenantID)
	if !exists {
		return
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	for _, instance := range cache.Instances {
		instance.Destroy()
	}
	cache.Instances = make(map[string]*widgets.Instance)
	cache.ByBinding = make(map[string]string)

	if ws.logger != nil {
		ws.logger.Cache().Info("Widget store invalidated", "tenantId", tenantID, "duration", time.Since(start))
	}
}
