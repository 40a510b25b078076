package services

import (
	"fmt"

	"github.com/RecordKit/lifemap-go/internal/domain/entities/widgets"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/logging"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/performance"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/tenant"
	templates "github.com/RecordKit/lifemap-go/internal/presentation/templates/elements/widgets"
	"github.com/RecordKit/lifemap-go/pkg/config"
)

// defaultLifecycleEndpoint is the module-scoped fragment endpoint used when
// the tenant configures no override. Stable per deployment.
const defaultLifecycleEndpoint = "/api/v1/fragments/lifecycle"

// BindingService assembles the binding instruction that attaches a widget
// to an object's read-only state field: the DOM selector, the widget
// configuration, and the embeddable fragment.
type BindingService struct {
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewBindingService creates a new binding service
func NewBindingService(logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *BindingService {
	return &BindingService{
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// BuildBinding constructs the binding instruction for an object context and
// variant. Localized strings and CSS class tokenization happen here, at
// build time; the instruction is self-contained from this point on.
func (s *BindingService) BuildBinding(tenantCtx *tenant.Context, objCtx widgets.ObjectLifecycleContext, variant widgets.VariantID) (*widgets.BindingInstruction, error) {
	marker := s.perfTracker.StartOperation("binding_build", tenantCtx.TenantID)
	defer marker.Complete()

	if err := objCtx.Validate(); err != nil {
		marker.SetError(err)
		return nil, fmt.Errorf("invalid binding context: %w", err)
	}

	settings, found := tenantCtx.CacheManager.GetWidgetSettings(tenantCtx.TenantID)
	if !found {
		settings = tenant.DefaultWidgetSettings()
	}

	endpoint := settings.LifecycleEndpoint
	if endpoint == "" {
		endpoint = defaultLifecycleEndpoint
	}

	widgetConfig := widgets.WidgetConfig{
		ObjectClass:          objCtx.ObjectClass,
		ObjectID:             objCtx.ObjectID,
		ObjectState:          objCtx.CurrentState,
		ShowButtonCSSClasses: templates.SplitCSSClasses(settings.ShowButtonCSSClasses),
		Endpoint:             endpoint,
		Dict:                 templates.ResolveDictionary(settings.Lexicon),
	}
	if widgets.ParamsFor(variant).ShowsTooltip {
		widgetConfig.TooltipDelayMS = config.TooltipDelayMS
	}

	instruction := &widgets.BindingInstruction{
		Selector: widgets.BindingSelector(objCtx),
		Variant:  variant,
		Config:   widgetConfig,
	}

	fragment, err := templates.RenderBindingSnippet(*instruction)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}
	instruction.Fragment = fragment

	s.logger.Binding().Debug("Binding instruction built", "tenantId", tenantCtx.TenantID, "objectClass", objCtx.ObjectClass, "objectId", objCtx.ObjectID, "variant", variant)
	return instruction, nil
}
