// Package types defines configuration cache data structures
package types

import (
	"sync"
	"time"
)

// TenantConfigCache stores configuration data for a tenant
type TenantConfigCache struct {
	// Widget module configuration
	WidgetSettings            *WidgetSettings `json:"widgetSettings"`
	WidgetSettingsLastUpdated time.Time       `json:"widgetSettingsLastUpdated"`

	// Cache metadata
	LastUpdated time.Time    `json:"lastUpdated"`
	Mu          sync.RWMutex `json:"-"`
}

// WidgetSettings holds tenant-specific lifecycle widget configuration,
// loaded from widgets.json alongside env.json.
type WidgetSettings struct {
	// DisabledClasses lists class names whose lifecycle widgets are
	// suppressed even when the class metadata qualifies.
	DisabledClasses []string `json:"DISABLED_CLASSES"`

	// ShowButtonCSSClasses is a whitespace-separated CSS class string
	// applied to every show button the tenant renders.
	ShowButtonCSSClasses string `json:"SHOW_BUTTON_CSS_CLASSES"`

	// HideInternalStimuli removes internally-triggered transitions from
	// rendered diagrams.
	HideInternalStimuli bool `json:"HIDE_INTERNAL_STIMULI"`

	// LifecycleEndpoint overrides the default diagram fragment endpoint.
	LifecycleEndpoint string `json:"LIFECYCLE_ENDPOINT,omitempty"`

	// Lexicon holds per-tenant overrides for widget display strings,
	// keyed by lexicon entry name.
	Lexicon map[string]string `json:"LEXICON,omitempty"`
}

// DisabledClassSet returns the disabled classes as a lookup set.
func (w *WidgetSettings) DisabledClassSet() map[string]bool {
	set := make(map[string]bool, len(w.DisabledClasses))
	for _, name := range w.DisabledClasses {
		set[name] = true
	}
	return set
}
