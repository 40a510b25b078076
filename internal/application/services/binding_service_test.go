package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RecordKit/lifemap-go/internal/domain/entities/widgets"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/caching/types"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/performance"
)

func newTestBindingService(t *testing.T) *BindingService {
	t.Helper()
	return NewBindingService(newQuietLogger(t), performance.NewTracker())
}

func TestBuildBinding_Defaults(t *testing.T) {
	tenantCtx := newTestTenantContext(t)
	svc := newTestBindingService(t)

	instruction, err := svc.BuildBinding(tenantCtx, documentContext("doc-1"), widgets.VariantBackoffice)
	require.NoError(t, err)

	assert.Contains(t, instruction.Selector, `data-object-class="document"`)
	assert.Equal(t, widgets.VariantBackoffice, instruction.Variant)
	assert.Equal(t, defaultLifecycleEndpoint, instruction.Config.Endpoint)
	assert.Equal(t, "draft", instruction.Config.ObjectState)
	assert.NotEmpty(t, instruction.Fragment)
	// Backoffice bindings carry a tooltip delay; the portal stays minimal.
	assert.Positive(t, instruction.Config.TooltipDelayMS)
}

func TestBuildBinding_PortalHasNoTooltipDelay(t *testing.T) {
	tenantCtx := newTestTenantContext(t)
	svc := newTestBindingService(t)

	instruction, err := svc.BuildBinding(tenantCtx, documentContext("doc-1"), widgets.VariantPortal)
	require.NoError(t, err)
	assert.Zero(t, instruction.Config.TooltipDelayMS)
}

func TestBuildBinding_TenantSettings(t *testing.T) {
	tenantCtx := newTestTenantContext(t)
	svc := newTestBindingService(t)

	tenantCtx.CacheManager.SetWidgetSettings(tenantCtx.TenantID, &types.WidgetSettings{
		ShowButtonCSSClasses: "btn btn-outline",
		LifecycleEndpoint:    "/tenant/fragments",
		Lexicon: map[string]string{
			"modal_title": "Workflow",
		},
	})

	instruction, err := svc.BuildBinding(tenantCtx, documentContext("doc-1"), widgets.VariantPortal)
	require.NoError(t, err)

	assert.Equal(t, []string{"btn", "btn-outline"}, instruction.Config.ShowButtonCSSClasses)
	assert.Equal(t, "/tenant/fragments", instruction.Config.Endpoint)
	assert.Equal(t, "Workflow", instruction.Config.Dict.ModalTitle)
	// Keys without overrides keep their defaults.
	assert.Equal(t, "Close", instruction.Config.Dict.ModalCloseButtonLabel)
}

func TestBuildBinding_InvalidContext(t *testing.T) {
	tenantCtx := newTestTenantContext(t)
	svc := newTestBindingService(t)

	_, err := svc.BuildBinding(tenantCtx, widgets.ObjectLifecycleContext{}, widgets.VariantPortal)
	assert.Error(t, err)
}
