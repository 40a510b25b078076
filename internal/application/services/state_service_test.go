package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RecordKit/lifemap-go/internal/domain/entities/metamodel"
	"github.com/RecordKit/lifemap-go/internal/domain/entities/widgets"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/performance"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/tenant"
)

type recordedBroadcast struct {
	sessionID   string
	objectClass string
	objectID    string
	newState    string
	widgetIDs   []string
}

// fakeBroadcaster records state change notifications instead of pushing SSE.
type fakeBroadcaster struct {
	broadcasts []recordedBroadcast
}

func (f *fakeBroadcaster) AddClientWithSession(tenantID, sessionID string) chan string { return nil }
func (f *fakeBroadcaster) RemoveClientWithSession(ch chan string, tenantID, sessionID string) {}
func (f *fakeBroadcaster) GetSessionConnectionCount(tenantID, sessionID string) int    { return 0 }
func (f *fakeBroadcaster) HasListeningSessions(tenantID string) bool                   { return false }

func (f *fakeBroadcaster) BroadcastObjectStateChange(tenantID, sessionID, objectClass, objectID, newState string, widgetIDs []string) {
	f.broadcasts = append(f.broadcasts, recordedBroadcast{
		sessionID:   sessionID,
		objectClass: objectClass,
		objectID:    objectID,
		newState:    newState,
		widgetIDs:   widgetIDs,
	})
}

func seedDocumentLifecycle(tenantCtx *tenant.Context) {
	tenantCtx.CacheManager.SetLifecycle(tenantCtx.TenantID, &metamodel.Lifecycle{
		ClassName:    "document",
		InitialState: "draft",
		States:       []string{"draft", "review", "published"},
		Stimuli: []metamodel.Stimulus{
			{Name: "submit", From: "draft", To: "review"},
			{Name: "approve", From: "review", To: "published"},
			{Name: "reject", From: "review", To: "draft"},
		},
	})
}

func newStateTestContext(t *testing.T) (*tenant.Context, *fakeBroadcaster, *StateService) {
	t.Helper()
	tenantCtx := newTestTenantContext(t)
	tenantCtx.Database = &tenant.Database{TenantID: tenantCtx.TenantID}
	seedDocumentLifecycle(tenantCtx)

	broadcaster := &fakeBroadcaster{}
	svc := NewStateService(tenantCtx.Logger, performance.NewTracker(), broadcaster)
	return tenantCtx, broadcaster, svc
}

func TestProcessStateChange_ValidTransition(t *testing.T) {
	tenantCtx, _, svc := newStateTestContext(t)

	err := svc.ProcessStateChange(tenantCtx, StateChangeEvent{
		ObjectClass:  "document",
		ObjectID:     "doc-1",
		CurrentState: "draft",
		TargetState:  "review",
		Stimulus:     "submit",
	})
	require.NoError(t, err)

	bin, found := tenantCtx.CacheManager.GetHourlyActivityBin(tenantCtx.TenantID, CurrentHourKey())
	require.True(t, found)
	assert.Equal(t, 1, bin.Data.Transitions["document:submit"])
}

func TestProcessStateChange_InvalidTransition(t *testing.T) {
	tenantCtx, _, svc := newStateTestContext(t)

	err := svc.ProcessStateChange(tenantCtx, StateChangeEvent{
		ObjectClass:  "document",
		ObjectID:     "doc-1",
		CurrentState: "draft",
		TargetState:  "published",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not allowed")
}

func TestProcessStateChange_UnknownTargetState(t *testing.T) {
	tenantCtx, _, svc := newStateTestContext(t)

	err := svc.ProcessStateChange(tenantCtx, StateChangeEvent{
		ObjectClass:  "document",
		ObjectID:     "doc-1",
		CurrentState: "draft",
		TargetState:  "deleted",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declares no state")
}

func TestProcessStateChange_MissingIdentity(t *testing.T) {
	tenantCtx, _, svc := newStateTestContext(t)

	err := svc.ProcessStateChange(tenantCtx, StateChangeEvent{
		CurrentState: "draft",
		TargetState:  "review",
	})
	assert.Error(t, err)
}

func TestProcessStateChange_AdvancesBoundWidgets(t *testing.T) {
	tenantCtx, broadcaster, svc := newStateTestContext(t)

	session := NewSessionService(tenantCtx.Logger).GetOrCreateSession(tenantCtx, "", widgets.SurfacePortal, "")
	instance := widgets.NewInstance("w-1", session.SessionID, documentContext("doc-1"), widgets.WidgetConfig{
		ObjectClass: "document",
		ObjectID:    "doc-1",
		ObjectState: "draft",
	}, widgets.VariantPortal)
	tenantCtx.CacheManager.SetWidget(tenantCtx.TenantID, instance)

	err := svc.ProcessStateChange(tenantCtx, StateChangeEvent{
		ObjectClass:  "document",
		ObjectID:     "doc-1",
		CurrentState: "draft",
		TargetState:  "review",
		Stimulus:     "submit",
	})
	require.NoError(t, err)

	assert.Equal(t, "review", instance.Context.CurrentState)
	assert.False(t, instance.ModalBuilt())

	require.Len(t, broadcaster.broadcasts, 1)
	notice := broadcaster.broadcasts[0]
	assert.Equal(t, session.SessionID, notice.sessionID)
	assert.Equal(t, "document", notice.objectClass)
	assert.Equal(t, "doc-1", notice.objectID)
	assert.Equal(t, "review", notice.newState)
	assert.Equal(t, []string{"w-1"}, notice.widgetIDs)
}

func TestProcessStateChange_UnboundObjectBroadcastsNothing(t *testing.T) {
	tenantCtx, broadcaster, svc := newStateTestContext(t)

	err := svc.ProcessStateChange(tenantCtx, StateChangeEvent{
		ObjectClass:  "document",
		ObjectID:     "doc-9",
		CurrentState: "draft",
		TargetState:  "review",
	})
	require.NoError(t, err)
	assert.Empty(t, broadcaster.broadcasts)
}
