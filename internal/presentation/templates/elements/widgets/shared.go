// Package templates provides shared widget types and utilities
package templates

import (
	"strings"

	"github.com/RecordKit/lifemap-go/internal/domain/entities/widgets"
)

// Default lexicon entries. Tenants override these per key in widgets.json.
const (
	LexiconShowButtonTooltip     = "show_button_tooltip"
	LexiconModalTitle            = "modal_title"
	LexiconModalCloseButtonLabel = "modal_close_button_label"
)

var defaultLexicon = map[string]string{
	LexiconShowButtonTooltip:     "Show lifecycle diagram",
	LexiconModalTitle:            "Lifecycle",
	LexiconModalCloseButtonLabel: "Close",
}

// ResolveDictionary merges tenant lexicon overrides over the defaults.
func ResolveDictionary(overrides map[string]string) widgets.Dictionary {
	lookup := func(key string) string {
		if overrides != nil {
			if val, ok := overrides[key]; ok && val != "" {
				return val
			}
		}
		return defaultLexicon[key]
	}

	return widgets.Dictionary{
		ShowButtonTooltip:     lookup(LexiconShowButtonTooltip),
		ModalTitle:            lookup(LexiconModalTitle),
		ModalCloseButtonLabel: lookup(LexiconModalCloseButtonLabel),
	}
}

// SplitCSSClasses tokenizes a whitespace-separated class string. Leading,
// trailing, and repeated whitespace produce no empty tokens.
func SplitCSSClasses(classes string) []string {
	return strings.Fields(classes)
}

// joinClasses renders a class list for a single class attribute.
func joinClasses(classes []string) string {
	return strings.Join(classes, " ")
}
