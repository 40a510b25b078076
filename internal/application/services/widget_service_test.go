package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RecordKit/lifemap-go/internal/domain/entities/widgets"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/caching/types"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/performance"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/tenant"
)

func newTestWidgetService(tenantCtx *tenant.Context) *WidgetService {
	perfTracker := performance.NewTracker()
	bindingService := NewBindingService(tenantCtx.Logger, perfTracker)
	diagramService := NewDiagramService(tenantCtx.Logger, perfTracker)
	return NewWidgetService(tenantCtx.Logger, perfTracker, bindingService, diagramService)
}

func documentContext(objectID string) widgets.ObjectLifecycleContext {
	return widgets.ObjectLifecycleContext{
		ObjectClass:        "document",
		ObjectID:           objectID,
		StateAttributeCode: "status",
		CurrentState:       "draft",
	}
}

// seedFragment primes the diagram fragment cache so show events resolve
// without a database.
func seedFragment(tenantCtx *tenant.Context, variant widgets.VariantID, html string) {
	tenantCtx.CacheManager.SetDiagramFragment(tenantCtx.TenantID, &types.DiagramFragment{
		HTML:         html,
		ClassName:    "document",
		Variant:      string(variant),
		CurrentState: "draft",
	})
}

func TestBind_CreatesInstance(t *testing.T) {
	tenantCtx := newTestTenantContext(t)
	svc := newTestWidgetService(tenantCtx)

	result, err := svc.Bind(tenantCtx, "sess-1", documentContext("doc-1"), widgets.VariantBackoffice)
	require.NoError(t, err)

	assert.NotEmpty(t, result.InstanceID)
	assert.Equal(t, widgets.VariantBackoffice, result.Variant)
	require.NotNil(t, result.Instruction)
	assert.Contains(t, result.Instruction.Fragment, "lifemap-binding")
	assert.Contains(t, result.ButtonHTML, `data-widget-action="show"`)

	instance, found := tenantCtx.CacheManager.GetWidget(tenantCtx.TenantID, result.InstanceID)
	require.True(t, found)
	assert.Equal(t, widgets.StateCollapsed, instance.State())
}

func TestBind_SameObjectReturnsExistingInstance(t *testing.T) {
	tenantCtx := newTestTenantContext(t)
	svc := newTestWidgetService(tenantCtx)

	first, err := svc.Bind(tenantCtx, "sess-1", documentContext("doc-1"), widgets.VariantPortal)
	require.NoError(t, err)
	second, err := svc.Bind(tenantCtx, "sess-1", documentContext("doc-1"), widgets.VariantPortal)
	require.NoError(t, err)

	assert.Equal(t, first.InstanceID, second.InstanceID)
}

func TestBind_DistinctObjectsGetDistinctInstances(t *testing.T) {
	tenantCtx := newTestTenantContext(t)
	svc := newTestWidgetService(tenantCtx)

	first, err := svc.Bind(tenantCtx, "sess-1", documentContext("doc-1"), widgets.VariantPortal)
	require.NoError(t, err)
	second, err := svc.Bind(tenantCtx, "sess-1", documentContext("doc-2"), widgets.VariantPortal)
	require.NoError(t, err)

	assert.NotEqual(t, first.InstanceID, second.InstanceID)
}

func TestBind_InvalidContext(t *testing.T) {
	tenantCtx := newTestTenantContext(t)
	svc := newTestWidgetService(tenantCtx)

	_, err := svc.Bind(tenantCtx, "sess-1", widgets.ObjectLifecycleContext{ObjectID: "doc-1"}, widgets.VariantPortal)
	assert.Error(t, err)
}

func TestHandleEvent_ShowRendersModal(t *testing.T) {
	tenantCtx := newTestTenantContext(t)
	svc := newTestWidgetService(tenantCtx)
	seedFragment(tenantCtx, widgets.VariantBackoffice, "<ol>diagram</ol>")

	bound, err := svc.Bind(tenantCtx, "sess-1", documentContext("doc-1"), widgets.VariantBackoffice)
	require.NoError(t, err)

	result, err := svc.HandleEvent(tenantCtx, "sess-1", bound.InstanceID, EventShow, nil)
	require.NoError(t, err)

	assert.Equal(t, widgets.StateOpen, result.State)
	assert.Contains(t, result.HTML, `role="dialog"`)
	assert.Contains(t, result.HTML, "<ol>diagram</ol>")
}

func TestHandleEvent_CloseThenReopen(t *testing.T) {
	tenantCtx := newTestTenantContext(t)
	svc := newTestWidgetService(tenantCtx)
	seedFragment(tenantCtx, widgets.VariantPortal, "<ol>diagram</ol>")

	bound, err := svc.Bind(tenantCtx, "sess-1", documentContext("doc-1"), widgets.VariantPortal)
	require.NoError(t, err)

	_, err = svc.HandleEvent(tenantCtx, "sess-1", bound.InstanceID, EventShow, nil)
	require.NoError(t, err)

	closed, err := svc.HandleEvent(tenantCtx, "sess-1", bound.InstanceID, EventClose, nil)
	require.NoError(t, err)
	assert.Equal(t, widgets.StateClosed, closed.State)
	assert.Empty(t, closed.HTML)

	reopened, err := svc.HandleEvent(tenantCtx, "sess-1", bound.InstanceID, EventShow, nil)
	require.NoError(t, err)
	assert.Equal(t, widgets.StateOpen, reopened.State)
}

func TestHandleEvent_DestroyRemovesInstance(t *testing.T) {
	tenantCtx := newTestTenantContext(t)
	svc := newTestWidgetService(tenantCtx)

	bound, err := svc.Bind(tenantCtx, "sess-1", documentContext("doc-1"), widgets.VariantPortal)
	require.NoError(t, err)

	result, err := svc.HandleEvent(tenantCtx, "sess-1", bound.InstanceID, EventDestroy, nil)
	require.NoError(t, err)
	assert.Equal(t, widgets.StateDestroyed, result.State)

	_, err = svc.HandleEvent(tenantCtx, "sess-1", bound.InstanceID, EventShow, nil)
	assert.Error(t, err)
}

func TestHandleEvent_SessionMismatch(t *testing.T) {
	tenantCtx := newTestTenantContext(t)
	svc := newTestWidgetService(tenantCtx)

	bound, err := svc.Bind(tenantCtx, "sess-1", documentContext("doc-1"), widgets.VariantPortal)
	require.NoError(t, err)

	_, err = svc.HandleEvent(tenantCtx, "sess-2", bound.InstanceID, EventShow, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not belong to session")
}

func TestHandleEvent_ReconfigureRequiresOptions(t *testing.T) {
	tenantCtx := newTestTenantContext(t)
	svc := newTestWidgetService(tenantCtx)

	bound, err := svc.Bind(tenantCtx, "sess-1", documentContext("doc-1"), widgets.VariantPortal)
	require.NoError(t, err)

	_, err = svc.HandleEvent(tenantCtx, "sess-1", bound.InstanceID, EventReconfigure, nil)
	assert.Error(t, err)

	classes := []string{"btn-lg"}
	result, err := svc.HandleEvent(tenantCtx, "sess-1", bound.InstanceID, EventReconfigure, &widgets.ConfigPatch{
		ShowButtonCSSClasses: &classes,
	})
	require.NoError(t, err)
	assert.Contains(t, result.HTML, "btn-lg")
}

func TestHandleEvent_UnknownEvent(t *testing.T) {
	tenantCtx := newTestTenantContext(t)
	svc := newTestWidgetService(tenantCtx)

	bound, err := svc.Bind(tenantCtx, "sess-1", documentContext("doc-1"), widgets.VariantPortal)
	require.NoError(t, err)

	_, err = svc.HandleEvent(tenantCtx, "sess-1", bound.InstanceID, "wiggle", nil)
	assert.Error(t, err)
}

func TestHandleEvent_RecordsActivity(t *testing.T) {
	tenantCtx := newTestTenantContext(t)
	svc := newTestWidgetService(tenantCtx)
	seedFragment(tenantCtx, widgets.VariantPortal, "<ol>diagram</ol>")

	bound, err := svc.Bind(tenantCtx, "sess-1", documentContext("doc-1"), widgets.VariantPortal)
	require.NoError(t, err)
	_, err = svc.HandleEvent(tenantCtx, "sess-1", bound.InstanceID, EventShow, nil)
	require.NoError(t, err)

	bin, found := tenantCtx.CacheManager.GetHourlyActivityBin(tenantCtx.TenantID, CurrentHourKey())
	require.True(t, found)
	assert.Equal(t, 1, bin.Data.EventCounts["bind"])
	assert.Equal(t, 1, bin.Data.EventCounts["show"])
	assert.True(t, bin.Data.Sessions["sess-1"])
}
