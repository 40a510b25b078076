// Package manager provides centralized cache operations with proper tenant isolation
package manager

import (
	"fmt"
	"sync"
	"time"

	"github.com/RecordKit/lifemap-go/internal/domain/entities/metamodel"
	"github.com/RecordKit/lifemap-go/internal/domain/entities/widgets"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/caching/interfaces"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/caching/stores"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/caching/types"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/logging"
	"github.com/RecordKit/lifemap-go/pkg/config"
)

// Interface assertion to ensure Manager implements all required interfaces.
var _ interfaces.Cache = (*Manager)(nil)

// Manager provides centralized cache operations with proper tenant isolation by delegating to specialized stores.
type Manager struct {
	Mu             sync.RWMutex
	LastAccessed   map[string]time.Time
	metamodelStore *stores.MetamodelStore
	configStore    *stores.ConfigStore
	sessionsStore  *stores.SessionsStore
	widgetsStore   *stores.WidgetsStore
	fragmentsStore *stores.FragmentsStore
	activityStore  *stores.ActivityStore
	logger         *logging.ChanneledLogger
}

func NewManager(logger *logging.ChanneledLogger) *Manager {
	if logger != nil {
		logger.Cache().Info("Initializing cache manager", "stores", []string{"metamodel", "config", "sessions", "widgets", "fragments", "activity"})
	}

	return &Manager{
		LastAccessed:   make(map[string]time.Time),
		metamodelStore: stores.NewMetamodelStore(logger),
		configStore:    stores.NewConfigStore(logger),
		sessionsStore:  stores.NewSessionsStore(logger),
		widgetsStore:   stores.NewWidgetsStore(logger),
		fragmentsStore: stores.NewFragmentsStore(logger),
		activityStore:  stores.NewActivityStore(logger),
		logger:         logger,
	}
}

func (m *Manager) GetTenantMetamodelCache(tenantID string) (*types.TenantMetamodelCache, error) {
	cache, exists := m.metamodelStore.GetTenantCache(tenantID)
	if !exists {
		return nil, fmt.Errorf("tenant %s metamodel cache not initialized", tenantID)
	}
	return cache, nil
}

func (m *Manager) GetTenantSessionCache(tenantID string) (*types.TenantSessionCache, error) {
	cache, exists := m.sessionsStore.GetTenantCache(tenantID)
	if !exists {
		return nil, fmt.Errorf("tenant %s session cache not initialized", tenantID)
	}
	return cache, nil
}

func (m *Manager) GetTenantWidgetCache(tenantID string) (*types.TenantWidgetCache, error) {
	cache, exists := m.widgetsStore.GetTenantCache(tenantID)
	if !exists {
		return nil, fmt.Errorf("tenant %s widget cache not initialized", tenantID)
	}
	return cache, nil
}

func (m *Manager) GetTenantFragmentCache(tenantID string) (*types.TenantFragmentCache, error) {
	cache, exists := m.fragmentsStore.GetTenantCache(tenantID)
	if !exists {
		return nil, fmt.Errorf("tenant %s fragment cache not initialized", tenantID)
	}
	return cache, nil
}

func (m *Manager) updateTenantAccessTime(tenantID string) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.LastAccessed[tenantID] = time.Now().UTC()
}

func (m *Manager) InitializeTenant(tenantID string) {
	start := time.Now()

	m.metamodelStore.InitializeTenant(tenantID)
	m.configStore.InitializeTenant(tenantID)
	m.sessionsStore.InitializeTenant(tenantID)
	m.widgetsStore.InitializeTenant(tenantID)
	m.fragmentsStore.InitializeTenant(tenantID)
	m.activityStore.InitializeTenant(tenantID)
	m.updateTenantAccessTime(tenantID)

	if m.logger != nil {
		m.logger.Cache().Info("Tenant cache initialized", "tenantId", tenantID, "duration", time.Since(start))
	}
}

// =============================================================================
// Metamodel Operations
// =============================================================================

func (m *Manager) GetClass(tenantID, className string) (*metamodel.Class, bool) {
	return m.metamodelStore.GetClass(tenantID, className)
}

func (m *Manager) SetClass(tenantID string, class *metamodel.Class) {
	m.metamodelStore.SetClass(tenantID, class)
	m.updateTenantAccessTime(tenantID)
}

func (m *Manager) GetAllClassNames(tenantID string) ([]string, bool) {
	cache, err := m.GetTenantMetamodelCache(tenantID)
	if err != nil {
		return nil, false
	}
	cache.Mu.RLock()
	defer cache.Mu.RUnlock()
	if len(cache.AllClassNames) == 0 {
		return nil, false
	}
	names := make([]string, len(cache.AllClassNames))
	copy(names, cache.AllClassNames)
	return names, true
}

func (m *Manager) SetAllClassNames(tenantID string, names []string) {
	cache, err := m.GetTenantMetamodelCache(tenantID)
	if err != nil {
		return
	}
	cache.Mu.Lock()
	defer cache.Mu.Unlock()
	cache.AllClassNames = names
}

func (m *Manager) GetRootClassNames(tenantID string) ([]string, bool) {
	cache, err := m.GetTenantMetamodelCache(tenantID)
	if err != nil {
		return nil, false
	}
	cache.Mu.RLock()
	defer cache.Mu.RUnlock()
	if len(cache.RootClasses) == 0 {
		return nil, false
	}
	names := make([]string, len(cache.RootClasses))
	copy(names, cache.RootClasses)
	return names, true
}

func (m *Manager) GetChildClassNames(tenantID, parentName string) []string {
	cache, err := m.GetTenantMetamodelCache(tenantID)
	if err != nil {
		return []string{}
	}
	cache.Mu.RLock()
	defer cache.Mu.RUnlock()
	children := cache.ChildrenByParent[parentName]
	out := make([]string, len(children))
	copy(out, children)
	return out
}

func (m *Manager) GetLifecycle(tenantID, className string) (*metamodel.Lifecycle, bool) {
	return m.metamodelStore.GetLifecycle(tenantID, className)
}

func (m *Manager) SetLifecycle(tenantID string, lifecycle *metamodel.Lifecycle) {
	m.metamodelStore.SetLifecycle(tenantID, lifecycle)
	m.updateTenantAccessTime(tenantID)
}

func (m *Manager) GetEligibleRecords(tenantID string) ([]metamodel.EligibilityRecord, bool) {
	return m.metamodelStore.GetEligibleRecords(tenantID)
}

func (m *Manager) SetEligibleRecords(tenantID string, records []metamodel.EligibilityRecord) {
	m.metamodelStore.SetEligibleRecords(tenantID, records)
	m.updateTenantAccessTime(tenantID)
}

func (m *Manager) InvalidateMetamodelCache(tenantID string) {
	m.metamodelStore.InvalidateMetamodelCache(tenantID)
	// Lifecycle definitions feed rendered diagrams, so those go too.
	m.fragmentsStore.InvalidateFragmentCache(tenantID)
	m.updateTenantAccessTime(tenantID)
}

// =============================================================================
// Session Operations
// =============================================================================

func (m *Manager) GetSession(tenantID, sessionID string) (*types.SessionData, bool) {
	return m.sessionsStore.GetSession(tenantID, sessionID)
}

func (m *Manager) SetSession(tenantID string, sessionData *types.SessionData) {
	m.sessionsStore.SetSession(tenantID, sessionData)
	m.updateTenantAccessTime(tenantID)
}

func (m *Manager) RemoveSession(tenantID, sessionID string) {
	// Destroy the session's widget instances before dropping the index.
	for _, instanceID := range m.sessionsStore.GetWidgetIDsBySession(tenantID, sessionID) {
		if instance, found := m.widgetsStore.GetWidget(tenantID, instanceID); found {
			instance.Destroy()
		}
		m.widgetsStore.RemoveWidget(tenantID, instanceID)
	}
	m.sessionsStore.RemoveSession(tenantID, sessionID)
	m.updateTenantAccessTime(tenantID)
}

func (m *Manager) GetAllSessionIDs(tenantID string) []string {
	return m.sessionsStore.GetAllSessionIDs(tenantID)
}

func (m *Manager) GetWidgetIDsBySession(tenantID, sessionID string) []string {
	return m.sessionsStore.GetWidgetIDsBySession(tenantID, sessionID)
}

// =============================================================================
// Widget Instance Operations
// =============================================================================

func (m *Manager) GetWidget(tenantID, instanceID string) (*widgets.Instance, bool) {
	return m.widgetsStore.GetWidget(tenantID, instanceID)
}

func (m *Manager) SetWidget(tenantID string, instance *widgets.Instance) {
	m.widgetsStore.SetWidget(tenantID, instance)
	m.sessionsStore.AddWidgetToSession(tenantID, instance.SessionID, instance.ID)
	m.updateTenantAccessTime(tenantID)
}

func (m *Manager) GetWidgetByBinding(tenantID, sessionID string, ctx widgets.ObjectLifecycleContext) (*widgets.Instance, bool) {
	return m.widgetsStore.GetWidgetByBinding(tenantID, sessionID, ctx)
}

func (m *Manager) RemoveWidget(tenantID, instanceID string) {
	if instance, found := m.widgetsStore.GetWidget(tenantID, instanceID); found {
		m.sessionsStore.RemoveWidgetFromSession(tenantID, instance.SessionID, instanceID)
	}
	m.widgetsStore.RemoveWidget(tenantID, instanceID)
	m.updateTenantAccessTime(tenantID)
}

func (m *Manager) GetAllWidgetIDs(tenantID string) []string {
	return m.widgetsStore.GetAllWidgetIDs(tenantID)
}

func (m *Manager) CountWidgetsBySession(tenantID, sessionID string) int {
	return m.widgetsStore.CountWidgetsBySession(tenantID, sessionID)
}

func (m *Manager) CountWidgetsByState(tenantID string) map[string]int {
	return m.widgetsStore.CountWidgetsByState(tenantID)
}

// EvictStaleWidgets removes instances idle beyond the configured TTL.
func (m *Manager) EvictStaleWidgets(tenantID string) int {
	return m.widgetsStore.EvictStale(tenantID, config.WidgetInstanceTTL)
}

func (m *Manager) InvalidateWidgetCache(tenantID string) {
	m.widgetsStore.InvalidateWidgetCache(tenantID)
	m.updateTenantAccessTime(tenantID)
}

// =============================================================================
// Fragment Operations
// =============================================================================

func (m *Manager) GetDiagramFragment(tenantID, className, variant, currentState string) (*types.DiagramFragment, bool) {
	return m.fragmentsStore.GetDiagramFragment(tenantID, className, variant, currentState)
}

func (m *Manager) SetDiagramFragment(tenantID string, fragment *types.DiagramFragment) {
	m.fragmentsStore.SetDiagramFragment(tenantID, fragment)
	m.updateTenantAccessTime(tenantID)
}

func (m *Manager) InvalidateByClass(tenantID, className string) {
	m.fragmentsStore.InvalidateByClass(tenantID, className)
	m.updateTenantAccessTime(tenantID)
}

func (m *Manager) InvalidateFragmentCache(tenantID string) {
	m.fragmentsStore.InvalidateFragmentCache(tenantID)
	m.updateTenantAccessTime(tenantID)
}

func (m *Manager) GetAllFragmentKeys(tenantID string) []string {
	return m.fragmentsStore.GetAllFragmentKeys(tenantID)
}

// =============================================================================
// Config Operations
// =============================================================================

func (m *Manager) GetWidgetSettings(tenantID string) (*types.WidgetSettings, bool) {
	return m.configStore.GetWidgetSettings(tenantID)
}

func (m *Manager) SetWidgetSettings(tenantID string, settings *types.WidgetSettings) {
	m.configStore.SetWidgetSettings(tenantID, settings)
	// Disabled classes shape eligibility; cached records and rendered
	// fragments must not outlive the settings that produced them.
	m.metamodelStore.InvalidateMetamodelCache(tenantID)
	m.fragmentsStore.InvalidateFragmentCache(tenantID)
	m.updateTenantAccessTime(tenantID)
}

func (m *Manager) InvalidateConfigCache(tenantID string) {
	m.configStore.InvalidateConfigCache(tenantID)
	// Disabled classes and chrome settings shape eligibility and renderings.
	m.metamodelStore.InvalidateMetamodelCache(tenantID)
	m.fragmentsStore.InvalidateFragmentCache(tenantID)
	m.updateTenantAccessTime(tenantID)
}

// =============================================================================
// Activity Operations
// =============================================================================

func (m *Manager) GetHourlyActivityBin(tenantID, hourKey string) (*types.HourlyActivityBin, bool) {
	return m.activityStore.GetHourlyActivityBin(tenantID, hourKey)
}

func (m *Manager) SetHourlyActivityBin(tenantID, hourKey string, bin *types.HourlyActivityBin) {
	m.activityStore.SetHourlyActivityBin(tenantID, hourKey, bin)
	m.updateTenantAccessTime(tenantID)
}

func (m *Manager) GetDashboardData(tenantID string) (*types.DashboardData, bool) {
	return m.activityStore.GetDashboardData(tenantID)
}

func (m *Manager) SetDashboardData(tenantID string, data *types.DashboardData) {
	m.activityStore.SetDashboardData(tenantID, data)
	m.updateTenantAccessTime(tenantID)
}

func (m *Manager) PurgeExpiredBins(tenantID string, olderThan string) {
	m.activityStore.PurgeExpiredBins(tenantID, olderThan)
	m.updateTenantAccessTime(tenantID)
}

func (m *Manager) InvalidateActivityCache(tenantID string) {
	m.activityStore.InvalidateActivityCache(tenantID)
	m.updateTenantAccessTime(tenantID)
}

// =============================================================================
// Cache Management Operations
// =============================================================================

func (m *Manager) InvalidateTenant(tenantID string) {
	start := time.Now()

	m.metamodelStore.InvalidateMetamodelCache(tenantID)
	m.configStore.InvalidateConfigCache(tenantID)
	m.sessionsStore.InvalidateSessionCache(tenantID)
	m.widgetsStore.InvalidateWidgetCache(tenantID)
	m.fragmentsStore.InvalidateFragmentCache(tenantID)
	m.activityStore.InvalidateActivityCache(tenantID)
	m.updateTenantAccessTime(tenantID)

	if m.logger != nil {
		m.logger.Cache().Info("Tenant cache invalidated", "tenantId", tenantID, "duration", time.Since(start))
	}
}

func (m *Manager) GetTenantStats(tenantID string) interfaces.CacheStats {
	return interfaces.CacheStats{
		Size: int64(len(m.widgetsStore.GetAllWidgetIDs(tenantID)) + len(m.fragmentsStore.GetAllFragmentKeys(tenantID))),
	}
}

func (m *Manager) GetMemoryStats() map[string]any {
	m.Mu.RLock()
	defer m.Mu.RUnlock()

	stats := make(map[string]any)
	for tenantID, lastAccessed := range m.LastAccessed {
		stats[tenantID] = map[string]any{
			"lastAccessed": lastAccessed,
			"widgets":      len(m.widgetsStore.GetAllWidgetIDs(tenantID)),
			"sessions":     len(m.sessionsStore.GetAllSessionIDs(tenantID)),
			"fragments":    len(m.fragmentsStore.GetAllFragmentKeys(tenantID)),
		}
	}
	return stats
}

func (m *Manager) InvalidateAll() {
	for _, tenantID := range m.metamodelStore.GetAllTenantIDs() {
		m.InvalidateTenant(tenantID)
	}
}

func (m *Manager) Health() map[string]any {
	return map[string]any{"status": "ok"}
}
