package services

import (
	"fmt"

	"github.com/RecordKit/lifemap-go/internal/domain/entities/metamodel"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/logging"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/performance"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/tenant"
)

// MetamodelService handles admin mutations of the class registry and
// lifecycle definitions. Every mutation invalidates the derived caches:
// eligibility records and rendered diagram fragments.
type MetamodelService struct {
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewMetamodelService creates a new metamodel service
func NewMetamodelService(logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *MetamodelService {
	return &MetamodelService{
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// SaveClass stores or updates a class definition.
func (s *MetamodelService) SaveClass(tenantCtx *tenant.Context, class *metamodel.Class) error {
	marker := s.perfTracker.StartOperation("metamodel_save_class", tenantCtx.TenantID)
	defer marker.Complete()

	if class.Name == "" {
		return fmt.Errorf("class name is required")
	}

	classRepo := tenantCtx.ClassRepo()
	existing, err := classRepo.FindByName(tenantCtx.TenantID, class.Name)
	if err != nil {
		marker.SetError(err)
		return fmt.Errorf("checking class %s: %w", class.Name, err)
	}

	if existing == nil {
		err = classRepo.Store(tenantCtx.TenantID, class)
	} else {
		err = classRepo.Update(tenantCtx.TenantID, class)
	}
	if err != nil {
		marker.SetError(err)
		return fmt.Errorf("saving class %s: %w", class.Name, err)
	}

	tenantCtx.CacheManager.InvalidateMetamodelCache(tenantCtx.TenantID)
	s.logger.Metamodel().Info("Class saved", "tenantId", tenantCtx.TenantID, "className", class.Name)
	return nil
}

// DeleteClass removes a class, its lifecycle, and its cached artifacts.
func (s *MetamodelService) DeleteClass(tenantCtx *tenant.Context, className string) error {
	marker := s.perfTracker.StartOperation("metamodel_delete_class", tenantCtx.TenantID)
	defer marker.Complete()

	if err := tenantCtx.LifecycleRepo().Delete(tenantCtx.TenantID, className); err != nil {
		marker.SetError(err)
		return fmt.Errorf("deleting lifecycle for class %s: %w", className, err)
	}
	if err := tenantCtx.ClassRepo().Delete(tenantCtx.TenantID, className); err != nil {
		marker.SetError(err)
		return fmt.Errorf("deleting class %s: %w", className, err)
	}

	tenantCtx.CacheManager.InvalidateMetamodelCache(tenantCtx.TenantID)
	s.logger.Metamodel().Info("Class deleted", "tenantId", tenantCtx.TenantID, "className", className)
	return nil
}

// SaveLifecycle stores a class's lifecycle definition and drops every
// fragment rendered from the previous definition.
func (s *MetamodelService) SaveLifecycle(tenantCtx *tenant.Context, lifecycle *metamodel.Lifecycle) error {
	marker := s.perfTracker.StartOperation("metamodel_save_lifecycle", tenantCtx.TenantID)
	defer marker.Complete()

	if lifecycle.ClassName == "" {
		return fmt.Errorf("lifecycle class name is required")
	}
	if len(lifecycle.States) == 0 {
		return fmt.Errorf("lifecycle for class %s declares no states", lifecycle.ClassName)
	}
	if !lifecycle.HasState(lifecycle.InitialState) {
		return fmt.Errorf("initial state %q is not among the declared states", lifecycle.InitialState)
	}
	for _, stim := range lifecycle.Stimuli {
		if !lifecycle.HasState(stim.From) || !lifecycle.HasState(stim.To) {
			return fmt.Errorf("stimulus %q references undeclared states", stim.Name)
		}
	}

	if err := tenantCtx.LifecycleRepo().Store(tenantCtx.TenantID, lifecycle); err != nil {
		marker.SetError(err)
		return fmt.Errorf("saving lifecycle for class %s: %w", lifecycle.ClassName, err)
	}

	tenantCtx.CacheManager.InvalidateByClass(tenantCtx.TenantID, lifecycle.ClassName)
	s.logger.Metamodel().Info("Lifecycle saved", "tenantId", tenantCtx.TenantID, "className", lifecycle.ClassName, "states", len(lifecycle.States))
	return nil
}
