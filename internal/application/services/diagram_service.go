package services

import (
	"fmt"

	"github.com/RecordKit/lifemap-go/internal/domain/entities/widgets"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/caching/types"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/logging"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/performance"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/tenant"
	templates "github.com/RecordKit/lifemap-go/internal/presentation/templates/elements/widgets"
)

// DiagramService produces rendered lifecycle diagram fragments. Fragments
// are cached per tenant keyed by (class, variant, currentState) with TTL and
// invalidated when the lifecycle definition changes.
type DiagramService struct {
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewDiagramService creates a new diagram service
func NewDiagramService(logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *DiagramService {
	return &DiagramService{
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// RenderDiagram returns the ready-to-inject diagram fragment for a class at
// a given current state.
func (s *DiagramService) RenderDiagram(tenantCtx *tenant.Context, className, currentState string, variant widgets.VariantID) (string, error) {
	marker := s.perfTracker.StartOperation("diagram_render", tenantCtx.TenantID)
	defer marker.Complete()
	marker.AddMetadata("className", className)

	cacheManager := tenantCtx.CacheManager
	if fragment, found := cacheManager.GetDiagramFragment(tenantCtx.TenantID, className, string(variant), currentState); found {
		marker.AddCacheHit()
		return fragment.HTML, nil
	}
	marker.AddCacheMiss()

	lifecycle, err := tenantCtx.LifecycleRepo().FindByClass(tenantCtx.TenantID, className)
	if err != nil {
		marker.SetError(err)
		return "", fmt.Errorf("loading lifecycle for class %s: %w", className, err)
	}
	if lifecycle == nil {
		return "", fmt.Errorf("class %s has no lifecycle definition", className)
	}

	hideInternal := true
	if settings, found := cacheManager.GetWidgetSettings(tenantCtx.TenantID); found {
		hideInternal = settings.HideInternalStimuli
	}

	html, err := templates.RenderLifecycleDiagram(lifecycle, currentState, variant, hideInternal)
	if err != nil {
		marker.SetError(err)
		return "", err
	}

	cacheManager.SetDiagramFragment(tenantCtx.TenantID, &types.DiagramFragment{
		HTML:         html,
		ClassName:    className,
		Variant:      string(variant),
		CurrentState: currentState,
	})

	s.logger.Widget().Debug("Diagram fragment rendered", "tenantId", tenantCtx.TenantID, "className", className, "currentState", currentState, "variant", variant)
	return html, nil
}

// RenderForObject renders the diagram for a bound object context.
func (s *DiagramService) RenderForObject(tenantCtx *tenant.Context, objCtx widgets.ObjectLifecycleContext, variant widgets.VariantID) (string, error) {
	return s.RenderDiagram(tenantCtx, objCtx.ObjectClass, objCtx.CurrentState, variant)
}

// InvalidateClass drops every cached fragment for a class. Called when the
// class's lifecycle definition changes.
func (s *DiagramService) InvalidateClass(tenantCtx *tenant.Context, className string) {
	tenantCtx.CacheManager.InvalidateByClass(tenantCtx.TenantID, className)
}
