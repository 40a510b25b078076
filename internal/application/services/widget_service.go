package services

import (
	"fmt"

	"github.com/RecordKit/lifemap-go/internal/domain/entities/widgets"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/logging"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/performance"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/security"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/tenant"
	templates "github.com/RecordKit/lifemap-go/internal/presentation/templates/elements/widgets"
	"github.com/RecordKit/lifemap-go/pkg/config"
)

// Widget interaction events posted by the browser.
const (
	EventShow        = "show"
	EventClose       = "close"
	EventDestroy     = "destroy"
	EventReconfigure = "reconfigure"
)

// BindResult carries everything a surface needs after binding a widget.
type BindResult struct {
	InstanceID  string                      `json:"instanceId"`
	Variant     widgets.VariantID           `json:"variant"`
	Instruction *widgets.BindingInstruction `json:"instruction"`
	ButtonHTML  string                      `json:"buttonHtml"`
}

// EventResult carries the fragment (if any) produced by a widget event.
type EventResult struct {
	InstanceID string        `json:"instanceId"`
	State      widgets.State `json:"state"`
	HTML       string        `json:"html,omitempty"`
}

// WidgetService orchestrates server-resident widget instances: binding,
// interaction events, and teardown. Instances live in the per-tenant widget
// store keyed by session and bound object.
type WidgetService struct {
	logger         *logging.ChanneledLogger
	perfTracker    *performance.Tracker
	bindingService *BindingService
	diagramService *DiagramService
}

// NewWidgetService creates a new widget service
func NewWidgetService(logger *logging.ChanneledLogger, perfTracker *performance.Tracker, bindingService *BindingService, diagramService *DiagramService) *WidgetService {
	return &WidgetService{
		logger:         logger,
		perfTracker:    perfTracker,
		bindingService: bindingService,
		diagramService: diagramService,
	}
}

// Bind initializes a widget instance for a session and bound object, and
// returns the binding instruction plus the rendered marker and show button.
// Binding the same object twice under one session returns the existing
// instance; rebinding requires an explicit destroy first.
func (s *WidgetService) Bind(tenantCtx *tenant.Context, sessionID string, objCtx widgets.ObjectLifecycleContext, variant widgets.VariantID) (*BindResult, error) {
	marker := s.perfTracker.StartOperation("widget_bind", tenantCtx.TenantID)
	defer marker.Complete()

	cacheManager := tenantCtx.CacheManager

	if existing, found := cacheManager.GetWidgetByBinding(tenantCtx.TenantID, sessionID, objCtx); found && existing.State() != widgets.StateDestroyed {
		instruction, err := s.bindingService.BuildBinding(tenantCtx, existing.Context, existing.Variant)
		if err != nil {
			return nil, err
		}
		return &BindResult{
			InstanceID:  existing.ID,
			Variant:     existing.Variant,
			Instruction: instruction,
			ButtonHTML:  templates.RenderShowButton(existing),
		}, nil
	}

	if count := cacheManager.CountWidgetsBySession(tenantCtx.TenantID, sessionID); count >= config.MaxWidgetsPerSession {
		err := fmt.Errorf("session %s holds %d widget instances, limit is %d", sessionID, count, config.MaxWidgetsPerSession)
		marker.SetError(err)
		return nil, err
	}

	instruction, err := s.bindingService.BuildBinding(tenantCtx, objCtx, variant)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	instance := widgets.NewInstance(security.GenerateULID(), sessionID, objCtx, instruction.Config, variant)
	cacheManager.SetWidget(tenantCtx.TenantID, instance)
	s.recordActivity(tenantCtx, sessionID, "bind")

	s.logger.Widget().Info("Widget instance bound", "tenantId", tenantCtx.TenantID, "sessionId", sessionID, "instanceId", instance.ID, "objectClass", objCtx.ObjectClass, "objectId", objCtx.ObjectID)

	return &BindResult{
		InstanceID:  instance.ID,
		Variant:     variant,
		Instruction: instruction,
		ButtonHTML:  templates.RenderShowButton(instance),
	}, nil
}

// HandleEvent drives an instance's state machine with a browser interaction
// event and returns the fragment the surface should inject, if any.
func (s *WidgetService) HandleEvent(tenantCtx *tenant.Context, sessionID, instanceID, event string, options *widgets.ConfigPatch) (*EventResult, error) {
	marker := s.perfTracker.StartOperation("widget_event", tenantCtx.TenantID)
	defer marker.Complete()
	marker.AddMetadata("event", event)

	cacheManager := tenantCtx.CacheManager

	instance, found := cacheManager.GetWidget(tenantCtx.TenantID, instanceID)
	if !found {
		return nil, fmt.Errorf("widget instance %s not found", instanceID)
	}
	if instance.SessionID != sessionID {
		return nil, fmt.Errorf("widget instance %s does not belong to session", instanceID)
	}

	result := &EventResult{InstanceID: instanceID}

	switch event {
	case EventShow:
		resolve := func() (string, error) {
			return s.diagramService.RenderForObject(tenantCtx, instance.Context, instance.Variant)
		}
		if err := instance.Open(resolve); err != nil {
			marker.SetError(err)
			return nil, err
		}
		result.HTML = templates.RenderModal(instance)

	case EventClose:
		if err := instance.Close(); err != nil {
			marker.SetError(err)
			return nil, err
		}

	case EventDestroy:
		instance.Destroy()
		cacheManager.RemoveWidget(tenantCtx.TenantID, instanceID)

	case EventReconfigure:
		if options == nil {
			return nil, fmt.Errorf("reconfigure event requires options")
		}
		if err := instance.SetOptions(*options); err != nil {
			marker.SetError(err)
			return nil, err
		}
		result.HTML = templates.RenderShowButton(instance)

	default:
		return nil, fmt.Errorf("unknown widget event %q", event)
	}

	result.State = instance.State()
	s.recordActivity(tenantCtx, sessionID, event)
	return result, nil
}

// recordActivity counts the event into the tenant's current hourly bin.
func (s *WidgetService) recordActivity(tenantCtx *tenant.Context, sessionID, event string) {
	cacheManager := tenantCtx.CacheManager
	hourKey := CurrentHourKey()

	bin, found := cacheManager.GetHourlyActivityBin(tenantCtx.TenantID, hourKey)
	if !found {
		bin = NewHourlyActivityBin()
	}

	bin.Data.Sessions[sessionID] = true
	bin.Data.EventCounts[event]++
	if event == "bind" {
		bin.Data.Bindings++
	}
	cacheManager.SetHourlyActivityBin(tenantCtx.TenantID, hourKey, bin)
}
