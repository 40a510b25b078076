package services

import (
	"fmt"

	"github.com/RecordKit/lifemap-go/internal/domain/entities/metamodel"
	"github.com/RecordKit/lifemap-go/internal/domain/entities/widgets"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/messaging"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/logging"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/performance"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/tenant"
)

// StateChangeEvent is an object lifecycle transition posted by the host.
type StateChangeEvent struct {
	ObjectClass  string `json:"objectClass"`
	ObjectID     string `json:"objectId"`
	CurrentState string `json:"currentState"`
	TargetState  string `json:"targetState"`
	Stimulus     string `json:"stimulus,omitempty"`
}

// StateService validates object lifecycle transitions and keeps live widget
// instances in step: bound instances advance to the new state and the
// sessions holding them get an SSE refresh notice.
type StateService struct {
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
	broadcaster messaging.Broadcaster
}

// NewStateService creates a new state service
func NewStateService(logger *logging.ChanneledLogger, perfTracker *performance.Tracker, broadcaster messaging.Broadcaster) *StateService {
	return &StateService{
		logger:      logger,
		perfTracker: perfTracker,
		broadcaster: broadcaster,
	}
}

// ProcessStateChange validates a transition against the class's lifecycle
// definition, applies it to every bound widget instance, and notifies the
// holding sessions.
func (s *StateService) ProcessStateChange(tenantCtx *tenant.Context, event StateChangeEvent) error {
	marker := s.perfTracker.StartOperation("state_change", tenantCtx.TenantID)
	defer marker.Complete()
	marker.AddMetadata("className", event.ObjectClass)

	if event.ObjectClass == "" || event.ObjectID == "" {
		return fmt.Errorf("state change event requires objectClass and objectId")
	}

	lifecycle, err := tenantCtx.LifecycleRepo().FindByClass(tenantCtx.TenantID, event.ObjectClass)
	if err != nil {
		marker.SetError(err)
		return fmt.Errorf("loading lifecycle for class %s: %w", event.ObjectClass, err)
	}
	if lifecycle == nil {
		return fmt.Errorf("class %s has no lifecycle definition", event.ObjectClass)
	}

	if !lifecycle.HasState(event.TargetState) {
		return fmt.Errorf("class %s declares no state %q", event.ObjectClass, event.TargetState)
	}
	if err := metamodel.ValidateTransition(lifecycle.TransitionTable(), event.CurrentState, event.TargetState); err != nil {
		marker.SetError(err)
		return err
	}

	s.advanceBoundInstances(tenantCtx, event)
	s.recordTransition(tenantCtx, event)

	s.logger.Widget().Info("Object state change applied",
		"tenantId", tenantCtx.TenantID,
		"objectClass", event.ObjectClass,
		"objectId", event.ObjectID,
		"from", event.CurrentState,
		"to", event.TargetState,
		"stimulus", event.Stimulus)
	return nil
}

// advanceBoundInstances moves every live instance bound to the object onto
// the new state and sends each holding session a refresh notice.
func (s *StateService) advanceBoundInstances(tenantCtx *tenant.Context, event StateChangeEvent) {
	cacheManager := tenantCtx.CacheManager
	objCtx := widgets.ObjectLifecycleContext{
		ObjectClass: event.ObjectClass,
		ObjectID:    event.ObjectID,
	}

	for _, sessionID := range cacheManager.GetAllSessionIDs(tenantCtx.TenantID) {
		instance, found := cacheManager.GetWidgetByBinding(tenantCtx.TenantID, sessionID, objCtx)
		if !found {
			continue
		}

		instance.AdvanceState(event.TargetState)

		if s.broadcaster != nil {
			s.broadcaster.BroadcastObjectStateChange(
				tenantCtx.TenantID, sessionID,
				event.ObjectClass, event.ObjectID, event.TargetState,
				[]string{instance.ID},
			)
		}
	}
}

// recordTransition counts the transition into the tenant's hourly bin.
func (s *StateService) recordTransition(tenantCtx *tenant.Context, event StateChangeEvent) {
	cacheManager := tenantCtx.CacheManager
	hourKey := CurrentHourKey()

	bin, found := cacheManager.GetHourlyActivityBin(tenantCtx.TenantID, hourKey)
	if !found {
		bin = NewHourlyActivityBin()
	}

	stimulus := event.Stimulus
	if stimulus == "" {
		stimulus = event.TargetState
	}
	bin.Data.Transitions[event.ObjectClass+":"+stimulus]++
	cacheManager.SetHourlyActivityBin(tenantCtx.TenantID, hourKey, bin)
}
