// Package widgets provides domain entities for lifecycle widget state management.
package widgets

import "fmt"

// ObjectLifecycleContext identifies which object and state field a widget
// instance targets. Immutable once bound; rebinding requires destroying and
// recreating the instance.
type ObjectLifecycleContext struct {
	ObjectClass        string `json:"objectClass"`
	ObjectID           string `json:"objectId"`
	StateAttributeCode string `json:"stateAttributeCode"`
	CurrentState       string `json:"currentState"`
}

// Validate checks that the binding context carries every identity field.
func (c ObjectLifecycleContext) Validate() error {
	if c.ObjectClass == "" {
		return fmt.Errorf("objectClass is required")
	}
	if c.ObjectID == "" {
		return fmt.Errorf("objectId is required")
	}
	if c.StateAttributeCode == "" {
		return fmt.Errorf("stateAttributeCode is required")
	}
	return nil
}

// Key returns the object identity key used for cache and broadcast addressing.
func (c ObjectLifecycleContext) Key() string {
	return c.ObjectClass + ":" + c.ObjectID
}

// Dictionary holds the localized strings baked into a widget configuration
// at binding build time.
type Dictionary struct {
	ShowButtonTooltip     string `json:"show_button_tooltip"`
	ModalTitle            string `json:"modal_title"`
	ModalCloseButtonLabel string `json:"modal_close_button_label"`
}

// WidgetConfig is the wire contract into the client widget constructor.
// Built once per binding and passed opaquely; a widget instance keeps
// exactly one WidgetConfig for its lifetime.
type WidgetConfig struct {
	ObjectClass          string     `json:"object_class"`
	ObjectID             string     `json:"object_id"`
	ObjectState          string     `json:"object_state"`
	ShowButtonCSSClasses []string   `json:"show_button_css_classes"`
	Endpoint             string     `json:"endpoint"`
	Dict                 Dictionary `json:"dict"`
	PreloadedContent     string     `json:"preloaded_content,omitempty"`
	TooltipDelayMS       int        `json:"tooltip_delay_ms,omitempty"`
}

// BindingInstruction is the resolved, ready-to-execute instruction that
// attaches a widget to a DOM region with its configuration.
type BindingInstruction struct {
	Selector string       `json:"selector"`
	Variant  VariantID    `json:"variant"`
	Config   WidgetConfig `json:"config"`
	Fragment string       `json:"fragment,omitempty"` // embeddable binding snippet
}

// BindingSelector constructs the DOM target selector for a bound object's
// read-only state field.
func BindingSelector(ctx ObjectLifecycleContext) string {
	return fmt.Sprintf(
		`[data-object-class=%q][data-object-id=%q] [data-attribute-code=%q][data-attribute-flag-read-only="true"]`,
		ctx.ObjectClass, ctx.ObjectID, ctx.StateAttributeCode,
	)
}
