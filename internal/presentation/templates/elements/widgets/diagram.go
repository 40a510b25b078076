// Package templates provides the lifecycle diagram fragment implementation
package templates

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/RecordKit/lifemap-go/internal/domain/entities/metamodel"
	"github.com/RecordKit/lifemap-go/internal/domain/entities/widgets"
)

var diagramTmpl = template.Must(template.New("lifecycleDiagram").Parse(`
{{define "diagram"}}<div class="lifemap-diagram lifemap-diagram--{{.Variant}}" data-class-name="{{.ClassName}}" data-current-state="{{.CurrentState}}">
<ol class="lifemap-diagram-states" role="list">
{{range .States}}{{template "state" .}}{{end}}</ol>
{{if .Transitions}}<ul class="lifemap-diagram-transitions" role="list">
{{range .Transitions}}{{template "transition" .}}{{end}}</ul>
{{end}}</div>{{end}}

{{define "state"}}<li class="lifemap-diagram-state{{if .IsCurrent}} lifemap-diagram-state--current{{end}}{{if .IsInitial}} lifemap-diagram-state--initial{{end}}" data-state="{{.Name}}"{{if .IsCurrent}} aria-current="step"{{end}}>{{.Name}}</li>
{{end}}

{{define "transition"}}<li class="lifemap-diagram-transition{{if .FromCurrent}} lifemap-diagram-transition--available{{end}}" data-stimulus="{{.Name}}" data-from="{{.From}}" data-to="{{.To}}"><span class="lifemap-diagram-transition-from">{{.From}}</span><span class="lifemap-diagram-transition-label">{{.Name}}</span><span class="lifemap-diagram-transition-to">{{.To}}</span></li>
{{end}}
`))

type diagramStateData struct {
	Name      string
	IsCurrent bool
	IsInitial bool
}

type diagramTransitionData struct {
	Name        string
	From        string
	To          string
	FromCurrent bool
}

type diagramData struct {
	ClassName    string
	CurrentState string
	Variant      widgets.VariantID
	States       []diagramStateData
	Transitions  []diagramTransitionData
}

// RenderLifecycleDiagram renders a lifecycle definition as an HTML fragment
// with the object's current state highlighted. States and transitions keep
// definition order. When hideInternal is set, system-fired stimuli are
// omitted from the rendering.
func RenderLifecycleDiagram(lifecycle *metamodel.Lifecycle, currentState string, variant widgets.VariantID, hideInternal bool) (string, error) {
	if lifecycle == nil {
		return "", fmt.Errorf("lifecycle is required")
	}

	data := diagramData{
		ClassName:    lifecycle.ClassName,
		CurrentState: currentState,
		Variant:      variant,
		States:       make([]diagramStateData, 0, len(lifecycle.States)),
	}

	for _, state := range lifecycle.States {
		data.States = append(data.States, diagramStateData{
			Name:      state,
			IsCurrent: state == currentState,
			IsInitial: state == lifecycle.InitialState,
		})
	}

	for _, stim := range lifecycle.VisibleStimuli(hideInternal) {
		data.Transitions = append(data.Transitions, diagramTransitionData{
			Name:        stim.Name,
			From:        stim.From,
			To:          stim.To,
			FromCurrent: stim.From == currentState,
		})
	}

	var buf bytes.Buffer
	if err := diagramTmpl.ExecuteTemplate(&buf, "diagram", data); err != nil {
		return "", fmt.Errorf("failed to render lifecycle diagram: %w", err)
	}

	return buf.String(), nil
}
