package cleanup

import (
	"time"

	"github.com/RecordKit/lifemap-go/pkg/config"
)

// Config holds cleanup worker configuration, sourced from the central config package.
type Config struct {
	CleanupInterval  time.Duration
	VerboseReporting bool
	WidgetTTL        time.Duration
	SessionTTL       time.Duration
	FragmentTTL      time.Duration
}

// NewConfig creates a new cleanup configuration by reading values
// from the already-initialized variables in the centralized /pkg/config package.
func NewConfig() *Config {
	return &Config{
		CleanupInterval:  config.CleanupInterval,
		VerboseReporting: config.CleanupVerbose,
		WidgetTTL:        config.WidgetInstanceTTL,
		SessionTTL:       config.SessionTTL,
		FragmentTTL:      config.DiagramFragmentTTL,
	}
}
