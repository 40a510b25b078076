package templates

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RecordKit/lifemap-go/internal/domain/entities/metamodel"
	"github.com/RecordKit/lifemap-go/internal/domain/entities/widgets"
	"github.com/RecordKit/lifemap-go/pkg/config"
)

func TestSplitCSSClasses(t *testing.T) {
	assert.Equal(t, []string{"btn", "btn-sm"}, SplitCSSClasses("btn btn-sm"))
	assert.Equal(t, []string{"btn"}, SplitCSSClasses("  btn  "))
	assert.Empty(t, SplitCSSClasses("   "))
	assert.Empty(t, SplitCSSClasses(""))
	assert.Equal(t, []string{"a", "b", "c"}, SplitCSSClasses("a\tb\n c"))
}

func TestResolveDictionary_Defaults(t *testing.T) {
	dict := ResolveDictionary(nil)
	assert.Equal(t, "Show lifecycle diagram", dict.ShowButtonTooltip)
	assert.Equal(t, "Lifecycle", dict.ModalTitle)
	assert.Equal(t, "Close", dict.ModalCloseButtonLabel)
}

func TestResolveDictionary_Overrides(t *testing.T) {
	dict := ResolveDictionary(map[string]string{
		LexiconModalTitle:            "Estado del ciclo",
		LexiconModalCloseButtonLabel: "",
	})
	assert.Equal(t, "Estado del ciclo", dict.ModalTitle)
	// Empty overrides fall back to the default.
	assert.Equal(t, "Close", dict.ModalCloseButtonLabel)
	assert.Equal(t, "Show lifecycle diagram", dict.ShowButtonTooltip)
}

func TestRenderBindingSnippet(t *testing.T) {
	instruction := widgets.BindingInstruction{
		Selector: `[data-object-class="document"][data-object-id="doc-1"]`,
		Variant:  widgets.VariantBackoffice,
		Config: widgets.WidgetConfig{
			ObjectClass: "document",
			ObjectID:    "doc-1",
			ObjectState: "draft",
			Endpoint:    "/api/v1/fragments/lifecycle",
		},
	}

	snippet, err := RenderBindingSnippet(instruction)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(snippet, `<template class="lifemap-binding"`))
	assert.Contains(t, snippet, `data-widget-variant="backoffice"`)
	assert.Contains(t, snippet, `<script type="application/json" data-widget-config>`)
	assert.Contains(t, snippet, `"object_class":"document"`)
	assert.Contains(t, snippet, `"object_state":"draft"`)
}

func TestRenderBindingSnippet_EscapesHostileIdentifiers(t *testing.T) {
	instruction := widgets.BindingInstruction{
		Selector: `[data-object-id="doc-1"]`,
		Variant:  widgets.VariantPortal,
		Config: widgets.WidgetConfig{
			ObjectClass: "document",
			ObjectID:    `</script><script>alert(1)</script>`,
			ObjectState: "draft",
		},
	}

	snippet, err := RenderBindingSnippet(instruction)
	require.NoError(t, err)

	// json.Marshal turns < and > into \u sequences, so the payload cannot
	// terminate the script element.
	assert.NotContains(t, snippet, "</script><script>alert(1)")
	assert.Contains(t, snippet, `</script>`)
}

func TestRenderLifecycleDiagram(t *testing.T) {
	lifecycle := &metamodel.Lifecycle{
		ClassName:    "document",
		InitialState: "draft",
		States:       []string{"draft", "review", "published"},
		Stimuli: []metamodel.Stimulus{
			{Name: "submit", From: "draft", To: "review"},
			{Name: "approve", From: "review", To: "published"},
			{Name: "expire", From: "published", To: "draft", Internal: true},
		},
	}

	html, err := RenderLifecycleDiagram(lifecycle, "review", widgets.VariantBackoffice, false)
	require.NoError(t, err)

	assert.Contains(t, html, `data-class-name="document"`)
	assert.Contains(t, html, `data-current-state="review"`)
	assert.Contains(t, html, `lifemap-diagram--backoffice`)

	// Only the current state carries the highlight and aria-current.
	assert.Contains(t, html, `lifemap-diagram-state--current" data-state="review" aria-current="step"`)
	assert.Equal(t, 1, strings.Count(html, "lifemap-diagram-state--current"))
	assert.Contains(t, html, `lifemap-diagram-state--initial" data-state="draft"`)

	// Transitions out of the current state are flagged as available.
	assert.Contains(t, html, `lifemap-diagram-transition--available" data-stimulus="approve"`)
	assert.Contains(t, html, `data-stimulus="submit"`)
	assert.Contains(t, html, `data-stimulus="expire"`)
}

func TestRenderLifecycleDiagram_HidesInternalStimuli(t *testing.T) {
	lifecycle := &metamodel.Lifecycle{
		ClassName:    "document",
		InitialState: "draft",
		States:       []string{"draft", "published"},
		Stimuli: []metamodel.Stimulus{
			{Name: "publish", From: "draft", To: "published"},
			{Name: "expire", From: "published", To: "draft", Internal: true},
		},
	}

	html, err := RenderLifecycleDiagram(lifecycle, "draft", widgets.VariantPortal, true)
	require.NoError(t, err)

	assert.Contains(t, html, `data-stimulus="publish"`)
	assert.NotContains(t, html, `data-stimulus="expire"`)
}

func TestRenderLifecycleDiagram_NilLifecycle(t *testing.T) {
	_, err := RenderLifecycleDiagram(nil, "draft", widgets.VariantPortal, false)
	assert.Error(t, err)
}

func TestRenderShowButton(t *testing.T) {
	inst := widgets.NewInstance("w-1", "sess-1", widgets.ObjectLifecycleContext{
		ObjectClass:        "document",
		ObjectID:           "doc-1",
		StateAttributeCode: "status",
		CurrentState:       "draft",
	}, widgets.WidgetConfig{
		ObjectClass:          "document",
		ObjectID:             "doc-1",
		ShowButtonCSSClasses: []string{"btn", "btn-sm"},
		Dict:                 ResolveDictionary(nil),
		TooltipDelayMS:       500,
	}, widgets.VariantBackoffice)

	html := RenderShowButton(inst)

	assert.Contains(t, html, `lifemap-widget--backoffice`)
	assert.Contains(t, html, `data-widget-id="w-1"`)
	assert.Contains(t, html, `data-widget-action="show"`)
	assert.Contains(t, html, `class="lifemap-show-button btn btn-sm"`)
	// The backoffice variant shows a tooltip.
	assert.Contains(t, html, `title="Show lifecycle diagram"`)
	assert.Contains(t, html, `data-tooltip-delay-ms="500"`)
}

func TestRenderShowButton_PortalHasNoTooltip(t *testing.T) {
	inst := widgets.NewInstance("w-2", "sess-1", widgets.ObjectLifecycleContext{
		ObjectClass:        "document",
		ObjectID:           "doc-2",
		StateAttributeCode: "status",
	}, widgets.WidgetConfig{
		ObjectClass: "document",
		ObjectID:    "doc-2",
		Dict:        ResolveDictionary(nil),
	}, widgets.VariantPortal)

	html := RenderShowButton(inst)

	assert.Contains(t, html, `lifemap-widget--portal`)
	assert.NotContains(t, html, `title=`)
	assert.NotContains(t, html, `data-tooltip-delay-ms`)
}

func TestRenderModal(t *testing.T) {
	inst := widgets.NewInstance("w-1", "sess-1", widgets.ObjectLifecycleContext{
		ObjectClass:        "document",
		ObjectID:           "doc-1",
		StateAttributeCode: "status",
		CurrentState:       "draft",
	}, widgets.WidgetConfig{
		ObjectClass:      "document",
		ObjectID:         "doc-1",
		Dict:             ResolveDictionary(nil),
		PreloadedContent: "<ol>diagram</ol>",
	}, widgets.VariantBackoffice)

	require.NoError(t, inst.Open(nil))

	html := RenderModal(inst)

	assert.Contains(t, html, `role="dialog"`)
	assert.Contains(t, html, `aria-modal="true"`)
	assert.Contains(t, html, `lifemap-modal--backoffice`)
	assert.Contains(t, html, `<ol>diagram</ol>`)
	assert.Contains(t, html, `data-widget-action="close"`)
	assert.Contains(t, html, `aria-label="Close"`)
}

func TestRenderModal_GeometryUsesFullViewportHeight(t *testing.T) {
	inst := widgets.NewInstance("w-1", "sess-1", widgets.ObjectLifecycleContext{
		ObjectClass:        "document",
		ObjectID:           "doc-1",
		StateAttributeCode: "status",
	}, widgets.WidgetConfig{
		ObjectClass:      "document",
		ObjectID:         "doc-1",
		Dict:             ResolveDictionary(nil),
		PreloadedContent: "<ol>diagram</ol>",
	}, widgets.VariantBackoffice)

	require.NoError(t, inst.Open(nil))

	html := RenderModal(inst)

	// Width scales with the viewport ratio; height is the viewport minus the
	// fixed top margin.
	assert.Contains(t, html, fmt.Sprintf("width:%dvw", config.ModalViewportRatio))
	assert.Contains(t, html, fmt.Sprintf("max-height:calc(100vh - %dpx)", config.ModalTopMarginPX))
}

func TestRenderModal_ResolutionFailureShowsError(t *testing.T) {
	inst := widgets.NewInstance("w-1", "sess-1", widgets.ObjectLifecycleContext{
		ObjectClass:        "document",
		ObjectID:           "doc-1",
		StateAttributeCode: "status",
	}, widgets.WidgetConfig{
		ObjectClass: "document",
		ObjectID:    "doc-1",
		Dict:        ResolveDictionary(nil),
	}, widgets.VariantPortal)

	// No preloaded content and no resolver: the open records a content error.
	require.NoError(t, inst.Open(nil))

	html := RenderModal(inst)

	assert.Contains(t, html, `lifemap-modal__body--error`)
	assert.Contains(t, html, `role="alert"`)
	assert.NotContains(t, html, `lifemap-modal__body">`)
}
