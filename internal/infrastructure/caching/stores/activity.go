// Package stores provides concrete cache store implementations
package stores

import (
	"sync"
	"time"

	"github.com/RecordKit/lifemap-go/internal/infrastructure/caching/types"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/logging"
)

// tenantActivity holds per-tenant sysop activity data
type tenantActivity struct {
	bins      map[string]*types.HourlyActivityBin // hourKey -> bin
	dashboard *types.DashboardCache
	mu        sync.RWMutex
}

// ActivityStore implements sysop activity caching with tenant isolation
type ActivityStore struct {
	tenantCaches map[string]*tenantActivity
	mu           sync.RWMutex
	logger       *logging.ChanneledLogger
}

// NewActivityStore creates a new activity cache store
func NewActivityStore(logger *logging.ChanneledLogger) *ActivityStore {
	if logger != nil {
		logger.Cache().Info("Initializing activity cache store")
	}
	return &ActivityStore{
		tenantCaches: make(map[string]*tenantActivity),
		logger:       logger,
	}
}

// InitializeTenant creates cache structures for a tenant
func (as *ActivityStore) InitializeTenant(tenantID string) {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.tenantCaches[tenantID] == nil {
		as.tenantCaches[tenantID] = &tenantActivity{
			bins: make(map[string]*types.HourlyActivityBin),
		}
	}
}

func (as *ActivityStore) getTenantCache(tenantID string) (*tenantActivity, bool) {
	as.mu.RLock()
	defer as.mu.RUnlock()
	cache, exists := as.tenantCaches[tenantID]
	return cache, exists
}

// GetHourlyActivityBin retrieves a cached activity bin
func (as *ActivityStore) GetHourlyActivityBin(tenantID, hourKey string) (*types.HourlyActivityBin, bool) {
	cache, exists := as.getTenantCache(tenantID)
	if !exists {
		return nil, false
	}

	cache.mu.RLock()
	defer cache.mu.RUnlock()
	bin, found := cache.bins[hourKey]
	return bin, found
}

// SetHourlyActivityBin stores an activity bin
func (as *ActivityStore) SetHourlyActivityBin(tenantID, hourKey string, bin *types.HourlyActivityBin) {
	cache, exists := as.getTenantCache(tenantID)
	if !exists {
		as.InitializeTenant(tenantID)
		cache, _ = as.getTenantCache(tenantID)
	}

	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.bins[hourKey] = bin
}

// GetDashboardData retrieves the cached dashboard snapshot, honoring its TTL
func (as *ActivityStore) GetDashboardData(tenantID string) (*types.DashboardData, bool) {
	cache, exists := as.getTenantCache(tenantID)
	if !exists {
		return nil, false
	}

	cache.mu.RLock()
	defer cache.mu.RUnlock()

	if cache.dashboard == nil {
		return nil, false
	}
	if cache.dashboard.TTL > 0 && time.Since(cache.dashboard.LastComputed) > cache.dashboard.TTL {
		return nil, false
	}
	return cache.dashboard.Data, true
}

// SetDashboardData stores a freshly computed dashboard snapshot
func (as *ActivityStore) SetDashboardData(tenantID string, data *types.DashboardData) {
	cache, exists := as.getTenantCache(tenantID)
	if !exists {
		as.InitializeTenant(tenantID)
		cache, _ = as.getTenantCache(tenantID)
	}

	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.dashboard = &types.DashboardCache{
		Data:         data,
		LastComputed: time.Now().UTC(),
		TTL:          time.Minute,
	}
}

// PurgeExpiredBins drops activity bins older than the given hour key
func (as *ActivityStore) PurgeExpiredBins(tenantID string, olderThan string) {
	cache, exists := as.getTenantCache(tenantID)
	if !exists {
		return
	}

	cache.mu.Lock()
	defer cache.mu.Unlock()

	for hourKey := range cache.bins {
		if hourKey < olderThan {
			delete(cache.bins, hourKey)
		}
	}
}

// InvalidateActivityCache clears all activity data for a tenant
func (as *ActivityStore) InvalidateActivityCache(tenantID string) {
	cache, exists := as.getTenantCache(tenantID)
	if !exists {
		return
	}

	cache.mu.Lock()
	defer cache.mu.Unlock()

	cache.bins = make(map[string]*types.HourlyActivityBin)
	cache.dashboard = nil

	if as.logger != nil {
		as.logger.Cache().Info("Activity cache invalidated", "tenantId", tenantID)
	}
}
