// Package stores provides concrete cache store implementations
package stores

import (
	"fmt"
	"sync"
	"time"

	"github.com/RecordKit/lifemap-go/internal/infrastructure/caching/types"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/logging"
	"github.com/RecordKit/lifemap-go/pkg/config"
)

// FragmentsStore implements rendered diagram fragment caching with tenant isolation
type FragmentsStore struct {
	tenantCaches map[string]*types.TenantFragmentCache
	mu           sync.RWMutex
	logger       *logging.ChanneledLogger
}

// NewFragmentsStore creates a new fragment cache store
func NewFragmentsStore(logger *logging.ChanneledLogger) *FragmentsStore {
	if logger != nil {
		logger.Cache().Info("Initializing fragment cache store")
	}
	return &FragmentsStore{
		tenantCaches: make(map[string]*types.TenantFragmentCache),
		logger:       logger,
	}
}

// InitializeTenant creates cache structures for a tenant
func (fs *FragmentsStore) InitializeTenant(tenantID string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if fs.tenantCaches[tenantID] == nil {
		fs.tenantCaches[tenantID] = &types.TenantFragmentCache{
			Fragments: make(map[string]*types.DiagramFragment),
			Deps:      make(map[string][]string),
		}

		if fs.logger != nil {
			fs.logger.Cache().Info("Tenant fragment cache initialized", "tenantId", tenantID)
		}
	}
}

// GetTenantCache safely retrieves a tenant's fragment cache
func (fs *FragmentsStore) GetTenantCache(tenantID string) (*types.TenantFragmentCache, bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	cache, exists := fs.tenantCaches[tenantID]
	return cache, exists
}

// BuildFragmentKey builds the cache key for one diagram rendering
func (fs *FragmentsStore) BuildFragmentKey(className, variant, currentState string) string {
	return fmt.Sprintf("%s:%s:%s", className, variant, currentState)
}

// GetDiagramFragment retrieves a cached rendered diagram, honoring the TTL
func (fs *FragmentsStore) GetDiagramFragment(tenantID, className, variant, currentState string) (*types.DiagramFragment, bool) {
	cache, exists := fs.GetTenantCache(tenantID)
	if !exists {
		return nil, false
	}

	key := fs.BuildFragmentKey(className, variant, currentState)

	cache.Mu.RLock()
	fragment, found := cache.Fragments[key]
	cache.Mu.RUnlock()

	if !found {
		return nil, false
	}

	if time.Since(fragment.LastUpdated) > config.DiagramFragmentTTL {
		fs.invalidateKey(tenantID, key)
		return nil, false
	}

	return fragment, true
}

// SetDiagramFragment stores a rendered diagram and tracks its class dependency
func (fs *FragmentsStore) SetDiagramFragment(tenantID string, fragment *types.DiagramFragment) {
	cache, exists := fs.GetTenantCache(tenantID)
	if !exists {
		fs.InitializeTenant(tenantID)
		cache, _ = fs.GetTenantCache(tenantID)
	}

	key := fs.BuildFragmentKey(fragment.ClassName, fragment.Variant, fragment.CurrentState)

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	if _, known := cache.Fragments[key]; !known {
		cache.Deps[fragment.ClassName] = append(cache.Deps[fragment.ClassName], key)
	}
	fragment.LastUpdated = time.Now().UTC()
	cache.Fragments[key] = fragment
}

func (fs *FragmentsStore) invalidateKey(tenantID, key string) {
	cache, exists := fs.GetTenantCache(tenantID)
	if !exists {
		return
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()
	delete(cache.Fragments, key)
}

// InvalidateByClass drops every cached rendering that depends on a class.
// Called when the class's lifecycle definition changes.
func (fs *FragmentsStore) InvalidateByClass(tenantID, className string) {
	cache, exists := fs.GetTenantCache(tenantID)
	if !exists {
		return
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	for _, key := range cache.Deps[className] {
		delete(cache.Fragments, key)
	}
	delete(cache.Deps, className)

	if fs.logger != nil {
		fs.logger.Cache().Debug("Fragment cache invalidated for class", "tenantId", tenantID, "className", className)
	}
}

// GetAllFragmentKeys returns all cached fragment keys for a tenant
func (fs *FragmentsStore) GetAllFragmentKeys(tenantID string) []string {
	cache, exists := fs.GetTenantCache(tenantID)
	if !exists {
		return []string{}
	}

	cache.Mu.RLock()
	defer cache.Mu.RUnlock()

	keys := make([]string, 0, len(cache.Fragments))
	for key := range cache.Fragments {
		keys = append(keys, key)
	}
	return keys
}

// InvalidateFragmentCache clears all fragments for a tenant
func (fs *FragmentsStore) InvalidateFragmentCache(tenantID string) {
	start := time.Now()
	cache, exists := fs.GetTenantCache(tenantID)
	if !exists {
		return
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	cache.Fragments = make(map[string]*types.DiagramFragment)
	cache.Deps = make(map[string][]string)

	if fs.logger != nil {
		fs.logger.Cache().Info("Fragment cache invalidated", "tenantId", tenantID, "duration", time.Since(start))
	}
}
