// Package templates provides the widget modal implementation
package templates

import (
	"bytes"
	"fmt"
	"html/template"
	"log"

	"github.com/RecordKit/lifemap-go/internal/domain/entities/widgets"
	"github.com/RecordKit/lifemap-go/pkg/config"
)

var modalTmpl = template.Must(template.New("widgetModal").Parse(
	`{{define "wrapper"}}<div class="{{.ChromeClass}}" role="dialog" aria-modal="true" aria-labelledby="{{.TitleID}}" data-widget-id="{{.InstanceID}}" style="{{.Geometry}}">{{end}}` +

		`{{define "header"}}
    <div class="lifemap-modal__header">
        <h2 id="{{.TitleID}}" class="lifemap-modal__title">{{.Title}}</h2>
        <button type="button"
                class="lifemap-modal__close"
                data-widget-id="{{.InstanceID}}"
                data-widget-action="close"
                aria-label="{{.CloseLabel}}">&times;</button>
    </div>{{end}}` +

		`{{define "body"}}
    <div class="lifemap-modal__body">{{.Content}}</div>{{end}}` +

		`{{define "error"}}
    <div class="lifemap-modal__body lifemap-modal__body--error" role="alert">{{.Message}}</div>{{end}}`,
))

type (
	modalWrapperData struct {
		ChromeClass, TitleID, InstanceID string
		Geometry                         template.CSS
	}
	modalHeaderData struct{ TitleID, Title, InstanceID, CloseLabel string }
	modalBodyData   struct{ Content template.HTML }
	modalErrorData  struct{ Message string }
)

// modalGeometry builds the inline sizing style. Width takes a ratio of the
// viewport; height runs the full viewport minus the fixed top margin, so the
// modal floats top-center without overflowing.
func modalGeometry() template.CSS {
	ratio := config.ModalViewportRatio
	margin := config.ModalTopMarginPX
	return template.CSS(fmt.Sprintf(
		"width:%dvw;max-height:calc(100vh - %dpx);margin:%dpx auto 0 auto;",
		ratio, margin, margin,
	))
}

// RenderModal renders the modal shell and content for an open widget
// instance. When content resolution failed, the body carries a visible error
// notice instead of silently staying blank.
func RenderModal(instance *widgets.Instance) string {
	cfg := instance.Config()
	content, contentErr := instance.Content()
	titleID := "lifemap-modal-title-" + instance.ID

	var buf bytes.Buffer

	executeModalTemplate(&buf, "wrapper", modalWrapperData{
		ChromeClass: instance.Params.ChromeClass,
		TitleID:     titleID,
		InstanceID:  instance.ID,
		Geometry:    modalGeometry(),
	})

	executeModalTemplate(&buf, "header", modalHeaderData{
		TitleID:    titleID,
		Title:      cfg.Dict.ModalTitle,
		InstanceID: instance.ID,
		CloseLabel: cfg.Dict.ModalCloseButtonLabel,
	})

	if contentErr != nil {
		executeModalTemplate(&buf, "error", modalErrorData{
			Message: "The lifecycle diagram could not be loaded. Close and reopen to retry.",
		})
	} else {
		executeModalTemplate(&buf, "body", modalBodyData{Content: template.HTML(content)})
	}

	buf.WriteString(`</div>`)

	return buf.String()
}

// executeModalTemplate is a helper to render a named template and handle errors
func executeModalTemplate(buf *bytes.Buffer, name string, data any) {
	err := modalTmpl.ExecuteTemplate(buf, name, data)
	if err != nil {
		log.Printf("ERROR: Failed to execute modal template '%s': %v", name, err)
		buf.WriteString("<!-- template error -->")
	}
}
