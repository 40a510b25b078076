// Package stores provides concrete cache store implementations
package stores

import (
	"sync"
	"time"

	"github.com/RecordKit/lifemap-go/internal/infrastructure/caching/types"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/logging"
	"github.com/RecordKit/lifemap-go/pkg/config"
)

// SessionsStore implements session state caching operations with tenant isolation
type SessionsStore struct {
	tenantCaches map[string]*types.TenantSessionCache
	mu           sync.RWMutex
	logger       *logging.ChanneledLogger
}

// NewSessionsStore creates a new session cache store
func NewSessionsStore(logger *logging.ChanneledLogger) *SessionsStore {
	if logger != nil {
		logger.Cache().Info("Initializing session cache store")
	}
	return &SessionsStore{
		tenantCaches: make(map[string]*types.TenantSessionCache),
		logger:       logger,
	}
}

// InitializeTenant creates cache structures for a tenant
func (ss *SessionsStore) InitializeTenant(tenantID string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if ss.tenantCaches[tenantID] == nil {
		ss.tenantCaches[tenantID] = &types.TenantSessionCache{
			SessionStates:    make(map[string]*types.SessionData),
			WidgetsBySession: make(map[string][]string),
			LastLoaded:       time.Now().UTC(),
		}

		if ss.logger != nil {
			ss.logger.Cache().Info("Tenant session cache initialized", "tenantId", tenantID)
		}
	}
}

// GetTenantCache safely retrieves a tenant's session cache
func (ss *SessionsStore) GetTenantCache(tenantID string) (*types.TenantSessionCache, bool) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	cache, exists := ss.tenantCaches[tenantID]
	return cache, exists
}

// ensureTenant returns the tenant's cache, creating it on first touch.
func (ss *SessionsStore) ensureTenant(tenantID string) *types.TenantSessionCache {
	if cache, exists := ss.GetTenantCache(tenantID); exists {
		return cache
	}
	ss.InitializeTenant(tenantID)
	cache, _ := ss.GetTenantCache(tenantID)
	return cache
}

// GetSession retrieves a session, expiring it lazily
func (ss *SessionsStore) GetSession(tenantID, sessionID string) (*types.SessionData, bool) {
	cache, exists := ss.GetTenantCache(tenantID)
	if !exists {
		return nil, false
	}

	cache.Mu.RLock()
	session, found := cache.SessionStates[sessionID]
	cache.Mu.RUnlock()

	if !found {
		return nil, false
	}

	if time.Now().UTC().After(session.ExpiresAt) {
		session.IsExpired = true
		ss.RemoveSession(tenantID, sessionID)
		return nil, false
	}

	return session, true
}

// SetSession stores session data, enforcing the per-tenant session cap
func (ss *SessionsStore) SetSession(tenantID string, sessionData *types.SessionData) {
	cache := ss.ensureTenant(tenantID)

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	if _, known := cache.SessionStates[sessionData.SessionID]; !known && len(cache.SessionStates) >= config.MaxSessionsPerTenant {
		ss.evictOldestLocked(cache)
	}

	cache.SessionStates[sessionData.SessionID] = sessionData
}

// evictOldestLocked removes the least recently active session. Caller holds the lock.
func (ss *SessionsStore) evictOldestLocked(cache *types.TenantSessionCache) {
	var oldestID string
	var oldestActivity time.Time
	for id, session := range cache.SessionStates {
		if oldestID == "" || session.LastActivity.Before(oldestActivity) {
			oldestID = id
			oldestActivity = session.LastActivity
		}
	}
	if oldestID != "" {
		delete(cache.SessionStates, oldestID)
		delete(cache.WidgetsBySession, oldestID)
	}
}

// RemoveSession deletes a session and its widget index entry
func (ss *SessionsStore) RemoveSession(tenantID, sessionID string) {
	cache, exists := ss.GetTenantCache(tenantID)
	if !exists {
		return
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	delete(cache.SessionStates, sessionID)
	delete(cache.WidgetsBySession, sessionID)
}

// GetAllSessionIDs returns all live session IDs for a tenant
func (ss *SessionsStore) GetAllSessionIDs(tenantID string) []string {
	cache, exists := ss.GetTenantCache(tenantID)
	if !exists {
		return []string{}
	}

	cache.Mu.RLock()
	defer cache.Mu.RUnlock()

	ids := make([]string, 0, len(cache.SessionStates))
	for id := range cache.SessionStates {
		ids = append(ids, id)
	}
	return ids
}

// GetWidgetIDsBySession returns the widget instance IDs bound under a session
func (ss *SessionsStore) GetWidgetIDsBySession(tenantID, sessionID string) []string {
	cache, exists := ss.GetTenantCache(tenantID)
	if !exists {
		return []string{}
	}

	cache.Mu.RLock()
	defer cache.Mu.RUnlock()

	ids := cache.WidgetsBySession[sessionID]
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// AddWidgetToSession records a widget instance under its session
func (ss *SessionsStore) AddWidgetToSession(tenantID, sessionID, instanceID string) {
	cache := ss.ensureTenant(tenantID)

	cache.Mu.Lock()
	defer cache.Mu.Unlock()
	cache.WidgetsBySession[sessionID] = append(cache.WidgetsBySession[sessionID], instanceID)
}

// RemoveWidgetFromSession drops a widget instance from its session index
func (ss *SessionsStore) RemoveWidgetFromSession(tenantID, sessionID, instanceID string) {
	cache, exists := ss.GetTenantCache(tenantID)
	if !exists {
		return
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	ids := cache.WidgetsBySession[sessionID]
	for i, id := range ids {
		if id == instanceID {
			cache.WidgetsBySession[sessionID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
}

// InvalidateSessionCache clears all session state for a tenant
func (ss *SessionsStore) InvalidateSessionCache(tenantID string) {
	start := time.Now()
	cache, exists := ss.GetTenantCache(tenantID)
	if !exists {
		return
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	cache.SessionStates = make(map[string]*types.SessionData)
	cache.WidgetsBySession = make(map[string][]string)
	cache.LastLoaded = time.Now().UTC()

	if ss.logger != nil {
		ss.logger.Cache().Info("Session cache invalidated", "tenantId", tenantID, "duration", time.Since(start))
	}
}
