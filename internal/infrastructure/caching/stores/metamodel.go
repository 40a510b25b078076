// Package stores provides concrete cache store implementations
package stores

import (
	"sync"
	"time"

	"github.com/RecordKit/lifemap-go/internal/domain/entities/metamodel"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/caching/types"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/logging"
)

// MetamodelStore implements class registry caching operations with tenant isolation
type MetamodelStore struct {
	tenantCaches map[string]*types.TenantMetamodelCache
	mu           sync.RWMutex
	logger       *logging.ChanneledLogger
}

// NewMetamodelStore creates a new metamodel cache store
func NewMetamodelStore(logger *logging.ChanneledLogger) *MetamodelStore {
	if logger != nil {
		logger.Cache().Info("Initializing metamodel cache store")
	}
	return &MetamodelStore{
		tenantCaches: make(map[string]*types.TenantMetamodelCache),
		logger:       logger,
	}
}

// InitializeTenant creates cache structures for a tenant
func (ms *MetamodelStore) InitializeTenant(tenantID string) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.tenantCaches[tenantID] == nil {
		ms.tenantCaches[tenantID] = &types.TenantMetamodelCache{
			Classes:          make(map[string]*metamodel.Class),
			Lifecycles:       make(map[string]*metamodel.Lifecycle),
			ChildrenByParent: make(map[string][]string),
			LastUpdated:      time.Now().UTC(),
		}

		if ms.logger != nil {
			ms.logger.Cache().Info("Tenant metamodel cache initialized", "tenantId", tenantID)
		}
	}
}

// GetTenantCache safely retrieves a tenant's metamodel cache
func (ms *MetamodelStore) GetTenantCache(tenantID string) (*types.TenantMetamodelCache, bool) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	cache, exists := ms.tenantCaches[tenantID]
	return cache, exists
}

// GetAllTenantIDs returns all tenant IDs with an initialized cache
func (ms *MetamodelStore) GetAllTenantIDs() []string {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	ids := make([]string, 0, len(ms.tenantCaches))
	for tenantID := range ms.tenantCaches {
		ids = append(ids, tenantID)
	}
	return ids
}

// GetClass retrieves a cached class definition
func (ms *MetamodelStore) GetClass(tenantID, className string) (*metamodel.Class, bool) {
	cache, exists := ms.GetTenantCache(tenantID)
	if !exists {
		return nil, false
	}

	cache.Mu.RLock()
	defer cache.Mu.RUnlock()
	class, found := cache.Classes[className]
	return class, found
}

// SetClass stores a class definition and maintains the hierarchy indices
func (ms *MetamodelStore) SetClass(tenantID string, class *metamodel.Class) {
	cache, exists := ms.GetTenantCache(tenantID)
	if !exists {
		ms.InitializeTenant(tenantID)
		cache, _ = ms.GetTenantCache(tenantID)
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	if _, known := cache.Classes[class.Name]; !known {
		if class.IsRoot() {
			cache.RootClasses = append(cache.RootClasses, class.Name)
		} else {
			cache.ChildrenByParent[class.ParentName] = append(cache.ChildrenByParent[class.ParentName], class.Name)
		}
	}
	cache.Classes[class.Name] = class
	cache.LastUpdated = time.Now().UTC()
}

// GetLifecycle retrieves a cached lifecycle definition
func (ms *MetamodelStore) GetLifecycle(tenantID, className string) (*metamodel.Lifecycle, bool) {
	cache, exists := ms.GetTenantCache(tenantID)
	if !exists {
		return nil, false
	}

	cache.Mu.RLock()
	defer cache.Mu.RUnlock()
	lifecycle, found := cache.Lifecycles[className]
	return lifecycle, found
}

// SetLifecycle stores a lifecycle definition
func (ms *MetamodelStore) SetLifecycle(tenantID string, lifecycle *metamodel.Lifecycle) {
	cache, exists := ms.GetTenantCache(tenantID)
	if !exists {
		ms.InitializeTenant(tenantID)
		cache, _ = ms.GetTenantCache(tenantID)
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	cache.Lifecycles[lifecycle.ClassName] = lifecycle
	cache.LastUpdated = time.Now().UTC()
}

// GetEligibleRecords retrieves the cached eligibility enumeration
func (ms *MetamodelStore) GetEligibleRecords(tenantID string) ([]metamodel.EligibilityRecord, bool) {
	cache, exists := ms.GetTenantCache(tenantID)
	if !exists {
		return nil, false
	}

	cache.Mu.RLock()
	defer cache.Mu.RUnlock()

	if cache.EligibleRecords == nil {
		return nil, false
	}

	records := make([]metamodel.EligibilityRecord, len(cache.EligibleRecords))
	copy(records, cache.EligibleRecords)
	return records, true
}

// SetEligibleRecords stores the eligibility enumeration; order is preserved
func (ms *MetamodelStore) SetEligibleRecords(tenantID string, records []metamodel.EligibilityRecord) {
	cache, exists := ms.GetTenantCache(tenantID)
	if !exists {
		ms.InitializeTenant(tenantID)
		cache, _ = ms.GetTenantCache(tenantID)
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	cache.EligibleRecords = records
	cache.EligibleLastUpdated = time.Now().UTC()
	cache.LastUpdated = time.Now().UTC()
}

// InvalidateMetamodelCache clears all metamodel cache for a tenant
func (ms *MetamodelStore) InvalidateMetamodelCache(tenantID string) {
	start := time.Now()
	cache, exists := ms.GetTenantCache(tenantID)
	if !exists {
		return
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	cache.Classes = make(map[string]*metamodel.Class)
	cache.Lifecycles = make(map[string]*metamodel.Lifecycle)
	cache.ChildrenByParent = make(map[string][]string)
	cache.RootClasses = nil
	cache.EligibleRecords = nil
	cache.EligibleLastUpdated = time.Time{}
	cache.LastUpdated = time.Now().UTC()

	if ms.logger != nil {
		ms.logger.Cache().Info("Metamodel cache invalidated", "tenantId", tenantID, "duration", time.Since(start))
	}
}
