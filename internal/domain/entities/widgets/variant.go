// Package widgets provides domain entities for lifecycle widget state
// management: the widget variants, binding context, and the per-instance
// state machine the host surfaces drive through interaction events.
package widgets

// VariantID identifies which widget flavor a surface renders. The two
// variants share one state machine; only DOM classing and default chrome
// differ, carried as VariantParams.
type VariantID string

const (
	VariantBackoffice VariantID = "backoffice"
	VariantPortal     VariantID = "portal"
)

// Surface identifies which host surface is rendering the widget.
type Surface string

const (
	SurfaceConsole Surface = "console"
	SurfacePortal  Surface = "portal"
)

// SelectVariant maps an execution-context surface to a widget variant.
// Pure function: the same surface always yields the same variant.
func SelectVariant(surface Surface) VariantID {
	if surface == SurfaceConsole {
		return VariantBackoffice
	}
	return VariantPortal
}

// VariantParams carries the variant-only differences consumed by the shared
// state machine and templates.
type VariantParams struct {
	MarkerClass  string `json:"markerClass"`  // CSS marker attached to the bound element
	ChromeClass  string `json:"chromeClass"`  // default modal chrome
	ShowsTooltip bool   `json:"showsTooltip"` // portal keeps chrome minimal
}

// ParamsFor returns the chrome parameters for a variant.
func ParamsFor(variant VariantID) VariantParams {
	if variant == VariantPortal {
		return VariantParams{
			MarkerClass:  "lifemap-widget lifemap-widget--portal",
			ChromeClass:  "lifemap-modal lifemap-modal--portal",
			ShowsTooltip: false,
		}
	}
	return VariantParams{
		MarkerClass:  "lifemap-widget lifemap-widget--backoffice",
		ChromeClass:  "lifemap-modal lifemap-modal--backoffice",
		ShowsTooltip: true,
	}
}
