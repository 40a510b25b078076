// Package templates provides the show button widget implementation
package templates

import (
	"bytes"
	"html/template"
	"log"

	"github.com/RecordKit/lifemap-go/internal/domain/entities/widgets"
)

var showButtonTmpl = template.Must(template.New("showButton").Parse(
	`{{define "marker"}}<span class="{{.MarkerClass}}" data-widget-id="{{.InstanceID}}" data-object-class="{{.ObjectClass}}" data-object-id="{{.ObjectID}}">{{end}}` +

		`{{define "button"}}
    <button type="button"
            class="{{.ButtonClasses}}"
            data-widget-id="{{.InstanceID}}"
            data-widget-action="show"
            {{if .ShowsTooltip}}title="{{.Tooltip}}" data-tooltip-delay-ms="{{.TooltipDelayMS}}"{{end}}
            aria-haspopup="dialog"
            aria-label="{{.Tooltip}}">
        <span aria-hidden="true">&#9432;</span>
    </button>{{end}}`,
))

type (
	showButtonMarkerData struct{ MarkerClass, InstanceID, ObjectClass, ObjectID string }
	showButtonData       struct {
		ButtonClasses, InstanceID, Tooltip string
		TooltipDelayMS                     int
		ShowsTooltip                       bool
	}
)

// RenderShowButton renders the marker span and show button for a bound
// element. The marker classes identify the variant; the tenant's configured
// button classes are appended to the variant defaults.
func RenderShowButton(instance *widgets.Instance) string {
	config := instance.Config()

	buttonClasses := append([]string{"lifemap-show-button"}, config.ShowButtonCSSClasses...)

	var buf bytes.Buffer

	executeShowButtonTemplate(&buf, "marker", showButtonMarkerData{
		MarkerClass: instance.Params.MarkerClass,
		InstanceID:  instance.ID,
		ObjectClass: config.ObjectClass,
		ObjectID:    config.ObjectID,
	})

	executeShowButtonTemplate(&buf, "button", showButtonData{
		ButtonClasses:  joinClasses(buttonClasses),
		InstanceID:     instance.ID,
		Tooltip:        config.Dict.ShowButtonTooltip,
		TooltipDelayMS: config.TooltipDelayMS,
		ShowsTooltip:   instance.Params.ShowsTooltip,
	})

	buf.WriteString(`</span>`)

	return buf.String()
}

// executeShowButtonTemplate is a helper to render a named template and handle errors
func executeShowButtonTemplate(buf *bytes.Buffer, name string, data any) {
	err := showButtonTmpl.ExecuteTemplate(buf, name, data)
	if err != nil {
		log.Printf("ERROR: Failed to execute show button template '%s': %v", name, err)
		buf.WriteString("<!-- template error -->")
	}
}
