// Package services provides application-level orchestration services
package services

import (
	"fmt"

	"github.com/RecordKit/lifemap-go/internal/domain/entities/metamodel"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/caching/types"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/logging"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/performance"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/tenant"
)

// EligibilityService decides whether a class qualifies for the lifecycle
// widget and enumerates the qualifying classes. All reads go through the
// tenant context's class repository and widget settings; nothing here holds
// mutable state of its own.
type EligibilityService struct {
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewEligibilityService creates a new eligibility service
func NewEligibilityService(logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *EligibilityService {
	return &EligibilityService{
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// IsEligible reports whether a class supports the lifecycle widget. A class
// in the tenant's disabled set or without a state attribute is not eligible.
// A state-attribute lookup failure on an inconsistent metamodel propagates as
// an error; that is broken host configuration, not a recoverable condition.
func (s *EligibilityService) IsEligible(tenantCtx *tenant.Context, className string) (bool, error) {
	marker := s.perfTracker.StartOperation("eligibility_check", tenantCtx.TenantID)
	defer marker.Complete()

	settings := s.widgetSettings(tenantCtx)
	if settings.DisabledClassSet()[className] {
		return false, nil
	}

	code, err := tenantCtx.ClassRepo().StateAttributeCode(tenantCtx.TenantID, className)
	if err != nil {
		marker.SetError(err)
		s.logger.Metamodel().Error("State attribute lookup failed", "error", err, "tenantId", tenantCtx.TenantID, "className", className)
		return false, fmt.Errorf("state attribute lookup for class %s: %w", className, err)
	}

	return code != "", nil
}

// EnumEligibleClasses enumerates every eligible class paired with its state
// attribute code. Traversal is pre-order over the class hierarchy: roots in
// registry encounter order, each root before its descendants. The order is a
// contract, so the result is an ordered slice.
func (s *EligibilityService) EnumEligibleClasses(tenantCtx *tenant.Context) ([]metamodel.EligibilityRecord, error) {
	marker := s.perfTracker.StartOperation("eligibility_enumeration", tenantCtx.TenantID)
	defer marker.Complete()

	cacheManager := tenantCtx.CacheManager
	if records, found := cacheManager.GetEligibleRecords(tenantCtx.TenantID); found {
		marker.AddCacheHit()
		return records, nil
	}
	marker.AddCacheMiss()

	classRepo := tenantCtx.ClassRepo()
	disabled := s.widgetSettings(tenantCtx).DisabledClassSet()

	roots, err := classRepo.FindRoots(tenantCtx.TenantID)
	if err != nil {
		marker.SetError(err)
		return nil, fmt.Errorf("enumerating root classes: %w", err)
	}

	records := make([]metamodel.EligibilityRecord, 0, len(roots))
	for _, root := range roots {
		records, err = s.collectEligible(tenantCtx, root, disabled, records)
		if err != nil {
			marker.SetError(err)
			return nil, err
		}
	}

	cacheManager.SetEligibleRecords(tenantCtx.TenantID, records)
	return records, nil
}

// collectEligible appends the class and its descendants, pre-order.
func (s *EligibilityService) collectEligible(tenantCtx *tenant.Context, class *metamodel.Class, disabled map[string]bool, records []metamodel.EligibilityRecord) ([]metamodel.EligibilityRecord, error) {
	if class.HasStateAttribute() && !disabled[class.Name] {
		records = append(records, metamodel.EligibilityRecord{
			ClassName:          class.Name,
			StateAttributeCode: class.StateAttributeCode,
		})
	}

	children, err := tenantCtx.ClassRepo().FindChildren(tenantCtx.TenantID, class.Name)
	if err != nil {
		return nil, fmt.Errorf("enumerating children of class %s: %w", class.Name, err)
	}

	for _, child := range children {
		records, err = s.collectEligible(tenantCtx, child, disabled, records)
		if err != nil {
			return nil, err
		}
	}
	return records, nil
}

// widgetSettings resolves the tenant's widget settings, falling back to
// defaults when the config cache has nothing for the tenant.
func (s *EligibilityService) widgetSettings(tenantCtx *tenant.Context) *types.WidgetSettings {
	if settings, found := tenantCtx.CacheManager.GetWidgetSettings(tenantCtx.TenantID); found {
		return settings
	}
	return tenant.DefaultWidgetSettings()
}
