package cleanup

import (
	"fmt"
	"strings"
	"time"

	"github.com/RecordKit/lifemap-go/internal/infrastructure/caching/interfaces"
)

// One Dark terminal palette for the periodic cleanup report.
const (
	cyan       = "\033[38;2;86;182;194m"
	cyanBright = "\033[38;2;97;228;240m"
	dimCyan    = "\033[38;2;47;91;102m"
	grey       = "\033[38;2;110;118;129m"
	dimGrey    = "\033[38;2;75;82;99m"
	teal       = "\033[38;2;62;130;144m"
	red        = "\033[38;2;224;108;117m"
	white      = "\033[38;2;171;178;191m"
	whiteHi    = "\033[38;2;220;225;230m"
	purple     = "\033[38;2;198;120;221m"
	dimPurple  = "\033[38;2;142;87;158m"
	reset      = "\033[0m"
	bold       = "\033[1m"
)

// Reporter renders the cleanup worker's console output: stage banners,
// outcome lines, and the per-tenant cache activity snapshot.
type Reporter struct {
	cache interfaces.Cache
}

func NewReporter(cache interfaces.Cache) *Reporter {
	return &Reporter{cache: cache}
}

func (r *Reporter) LogStage(message string, args ...any) {
	fmt.Printf("%s%s✦ %s%s%s\n", teal, bold, grey, fmt.Sprintf(message, args...), reset)
}

func (r *Reporter) LogSuccess(message string, args ...any) {
	fmt.Printf("%s%s✦ %s%s%s\n", teal, bold, white, fmt.Sprintf(message, args...), reset)
}

func (r *Reporter) LogInfo(message string, args ...any) {
	fmt.Printf("%s▶ %s%s%s\n", dimGrey, grey, fmt.Sprintf(message, args...), reset)
}

func (r *Reporter) LogError(message string, err error) {
	fmt.Printf("%s%s✖ ERROR: %s%s: %v%s\n", bold, red, grey, message, err, reset)
}

// GenerateTenantReport renders one tenant's cache state: whether the
// metamodel mirror and eligibility records are loaded, and the live counts
// of sessions, widget instances, and diagram fragments.
func (r *Reporter) GenerateTenantReport(tenantID string) string {
	var report strings.Builder
	timestamp := time.Now().UTC().Format("2006-01-02 15:04:05 MST")

	report.WriteString(fmt.Sprintf("%s%s▓ %s | Tenant: %s%s %s\n",
		bold, dimCyan, timestamp, whiteHi, tenantID, reset))

	if classNames, ok := r.cache.GetAllClassNames(tenantID); ok {
		report.WriteString(fmt.Sprintf("%s✦ %sMetamodel: %s%d classes%s",
			teal, grey, cyanBright, len(classNames), reset))
	} else {
		report.WriteString(fmt.Sprintf("%s✖ %sMetamodel: %sNOT LOADED%s",
			red, grey, red, reset))
	}
	report.WriteString("  ")
	if _, ok := r.cache.GetEligibleRecords(tenantID); ok {
		report.WriteString(fmt.Sprintf("%s✦ %sEligibility: %sREADY%s\n",
			teal, grey, white, reset))
	} else {
		report.WriteString(fmt.Sprintf("%s○ %sEligibility: %sPRIMED%s\n",
			dimGrey, grey, cyan, reset))
	}

	report.WriteString(fmt.Sprintf("%s✦ activity:%s", purple, reset))
	counter := func(label string, count int) string {
		if count > 0 {
			return fmt.Sprintf(" %s%s:%s%d", dimPurple, label, white, count)
		}
		return fmt.Sprintf(" %s%s:%s--", dimGrey, label, dimGrey)
	}
	report.WriteString(counter("sessions", len(r.cache.GetAllSessionIDs(tenantID))))
	report.WriteString(counter("widgets", len(r.cache.GetAllWidgetIDs(tenantID))))
	report.WriteString(counter("fragments", len(r.cache.GetAllFragmentKeys(tenantID))))
	for state, count := range r.cache.CountWidgetsByState(tenantID) {
		report.WriteString(counter(state, count))
	}
	report.WriteString("\n")

	return report.String()
}
