// Package interfaces defines cache operation contracts for multi-tenant widget state management.
package interfaces

import (
	"time"

	"github.com/RecordKit/lifemap-go/internal/domain/entities/metamodel"
	"github.com/RecordKit/lifemap-go/internal/domain/entities/widgets"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/caching/types"
)

// MetamodelCache defines operations for class registry caching
type MetamodelCache interface {
	GetClass(tenantID, className string) (*metamodel.Class, bool)
	SetClass(tenantID string, class *metamodel.Class)
	GetAllClassNames(tenantID string) ([]string, bool)
	SetAllClassNames(tenantID string, names []string)
	GetRootClassNames(tenantID string) ([]string, bool)
	GetChildClassNames(tenantID, parentName string) []string
	GetLifecycle(tenantID, className string) (*metamodel.Lifecycle, bool)
	SetLifecycle(tenantID string, lifecycle *metamodel.Lifecycle)
	GetEligibleRecords(tenantID string) ([]metamodel.EligibilityRecord, bool)
	SetEligibleRecords(tenantID string, records []metamodel.EligibilityRecord)
	InvalidateMetamodelCache(tenantID string)
}

// SessionCache defines operations for session state caching
type SessionCache interface {
	GetSession(tenantID, sessionID string) (*types.SessionData, bool)
	SetSession(tenantID string, sessionData *types.SessionData)
	RemoveSession(tenantID, sessionID string)
	GetAllSessionIDs(tenantID string) []string
	GetWidgetIDsBySession(tenantID, sessionID string) []string
}

// WidgetCache defines operations for live widget instance caching
type WidgetCache interface {
	GetWidget(tenantID, instanceID string) (*widgets.Instance, bool)
	SetWidget(tenantID string, instance *widgets.Instance)
	GetWidgetByBinding(tenantID, sessionID string, ctx widgets.ObjectLifecycleContext) (*widgets.Instance, bool)
	RemoveWidget(tenantID, instanceID string)
	GetAllWidgetIDs(tenantID string) []string
	CountWidgetsBySession(tenantID, sessionID string) int
	CountWidgetsByState(tenantID string) map[string]int
	InvalidateWidgetCache(tenantID string)
}

// FragmentCache defines operations for rendered diagram fragment caching
type FragmentCache interface {
	GetDiagramFragment(tenantID, className, variant, currentState string) (*types.DiagramFragment, bool)
	SetDiagramFragment(tenantID string, fragment *types.DiagramFragment)
	InvalidateByClass(tenantID, className string)
	InvalidateFragmentCache(tenantID string)
	GetAllFragmentKeys(tenantID string) []string
}

// ConfigCache defines operations for tenant configuration caching
type ConfigCache interface {
	GetWidgetSettings(tenantID string) (*types.WidgetSettings, bool)
	SetWidgetSettings(tenantID string, settings *types.WidgetSettings)
	InvalidateConfigCache(tenantID string)
}

// ActivityCache defines operations for sysop activity caching
type ActivityCache interface {
	GetHourlyActivityBin(tenantID, hourKey string) (*types.HourlyActivityBin, bool)
	SetHourlyActivityBin(tenantID, hourKey string, bin *types.HourlyActivityBin)
	GetDashboardData(tenantID string) (*types.DashboardData, bool)
	SetDashboardData(tenantID string, data *types.DashboardData)
	PurgeExpiredBins(tenantID string, olderThan string)
	InvalidateActivityCache(tenantID string)
}

// Cache is the main interface that combines all cache operations
type Cache interface {
	MetamodelCache
	SessionCache
	WidgetCache
	FragmentCache
	ConfigCache
	ActivityCache
	InvalidateTenant(tenantID string)
	GetTenantStats(tenantID string) CacheStats
	GetMemoryStats() map[string]any
	InvalidateAll()
	Health() map[string]any
}

type CacheStats struct {
	Hits   int   `json:"hits"`
	Misses int   `json:"misses"`
	Size   int64 `json:"size"`
}

type CacheTTL time.Duration

const (
	TTLNever    CacheTTL = CacheTTL(0)
	TTL1Minute  CacheTTL = CacheTTL(time.Minute)
	TTL5Minutes CacheTTL = CacheTTL(5 * time.Minute)
	TTL1Hour    CacheTTL = CacheTTL(time.Hour)
	TTL24Hours  CacheTTL = CacheTTL(24 * time.Hour)
	TTL7Days    CacheTTL = CacheTTL(7 * 24 * time.Hour)
)
