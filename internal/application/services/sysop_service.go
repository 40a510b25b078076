package services

import (
	"github.com/RecordKit/lifemap-go/internal/infrastructure/caching/types"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/logging"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/tenant"
)

// SysOpService aggregates the operational metrics shown on the sysop
// dashboard. Results are cached briefly so a busy dashboard does not walk
// the stores on every request.
type SysOpService struct {
	logger *logging.ChanneledLogger
}

// NewSysOpService creates a new sysop service
func NewSysOpService(logger *logging.ChanneledLogger) *SysOpService {
	return &SysOpService{logger: logger}
}

// GetDashboard computes the tenant's dashboard snapshot.
func (s *SysOpService) GetDashboard(tenantCtx *tenant.Context) *types.DashboardData {
	cacheManager := tenantCtx.CacheManager

	if data, found := cacheManager.GetDashboardData(tenantCtx.TenantID); found {
		return data
	}

	eventCounts := make(map[string]int)
	if bin, found := cacheManager.GetHourlyActivityBin(tenantCtx.TenantID, CurrentHourKey()); found {
		for event, count := range bin.Data.EventCounts {
			eventCounts[event] = count
		}
	}

	data := &types.DashboardData{
		ActiveSessions:  len(cacheManager.GetAllSessionIDs(tenantCtx.TenantID)),
		LiveWidgets:     len(cacheManager.GetAllWidgetIDs(tenantCtx.TenantID)),
		WidgetsByState:  cacheManager.CountWidgetsByState(tenantCtx.TenantID),
		CachedFragments: len(cacheManager.GetAllFragmentKeys(tenantCtx.TenantID)),
		EventCounts:     eventCounts,
	}

	cacheManager.SetDashboardData(tenantCtx.TenantID, data)
	return data
}
