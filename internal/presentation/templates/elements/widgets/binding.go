// Package templates provides the widget binding snippet implementation
package templates

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/RecordKit/lifemap-go/internal/domain/entities/widgets"
)

var bindingTmpl = template.Must(template.New("bindingSnippet").Parse(
	`<template class="lifemap-binding" data-widget-selector="{{.Selector}}" data-widget-variant="{{.Variant}}">` +
		`<script type="application/json" data-widget-config>{{.ConfigJSON}}</script>` +
		`</template>`,
))

type bindingSnippetData struct {
	Selector   string
	Variant    widgets.VariantID
	ConfigJSON template.JS
}

// RenderBindingSnippet produces the embeddable fragment that attaches a
// widget to its DOM target. The selector and configuration are always built
// through the template and the JSON encoder; identifiers containing quotes
// or angle brackets come out escaped, never spliced.
func RenderBindingSnippet(instruction widgets.BindingInstruction) (string, error) {
	// json.Marshal escapes <, >, and & to \u sequences, which keeps the
	// payload inert inside the script element.
	configJSON, err := json.Marshal(instruction.Config)
	if err != nil {
		return "", fmt.Errorf("failed to serialize widget config: %w", err)
	}

	var buf bytes.Buffer
	err = bindingTmpl.Execute(&buf, bindingSnippetData{
		Selector:   instruction.Selector,
		Variant:    instruction.Variant,
		ConfigJSON: template.JS(configJSON),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render binding snippet: %w", err)
	}

	return buf.String(), nil
}
