package performance

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	markerRetention = time.Hour
	maxMarkers      = 10000
)

// Tracker retains recent markers per tenant and knows the duration thresholds
// beyond which an operation counts as slow.
type Tracker struct {
	mu         sync.RWMutex
	markers    map[string]*Marker
	thresholds map[string]time.Duration
	fallback   time.Duration
	started    time.Time
}

// NewTracker creates a tracker with default thresholds. The keys are matched
// as substrings of the operation name, so "eligibility_check" and
// "eligibility_enumeration" share the "eligibility" budget.
func NewTracker() *Tracker {
	return &Tracker{
		markers: make(map[string]*Marker),
		thresholds: map[string]time.Duration{
			"auth":        200 * time.Millisecond,
			"fragment":    100 * time.Millisecond,
			"diagram":     100 * time.Millisecond,
			"eligibility": 50 * time.Millisecond,
			"database":    50 * time.Millisecond,
		},
		fallback: 500 * time.Millisecond,
		started:  time.Now(),
	}
}

// StartOperation opens a marker for an operation on behalf of a tenant.
func (t *Tracker) StartOperation(operation, tenantID string) *Marker {
	marker := &Marker{
		Operation: operation,
		TenantID:  tenantID,
		StartTime: time.Now(),
		Success:   true,
	}

	id := fmt.Sprintf("%s_%s_%d", tenantID, operation, marker.StartTime.UnixNano())

	t.mu.Lock()
	t.markers[id] = marker
	t.mu.Unlock()

	return marker
}

// IsSlow reports whether a completed marker exceeded its operation's budget.
func (t *Tracker) IsSlow(marker *Marker) bool {
	if marker == nil || !marker.Completed {
		return false
	}
	for key, budget := range t.thresholds {
		if strings.Contains(marker.Operation, key) {
			return marker.Duration > budget
		}
	}
	return marker.Duration > t.fallback
}

// RecentMetrics returns a tenant's markers completed within the window,
// copied so callers never see a marker mid-mutation.
func (t *Tracker) RecentMetrics(tenantID string, within time.Duration) []Marker {
	t.mu.RLock()
	defer t.mu.RUnlock()

	cutoff := time.Now().Add(-within)
	var out []Marker
	for _, m := range t.markers {
		if m.TenantID == tenantID && m.Completed && m.EndTime.After(cutoff) {
			out = append(out, *m)
		}
	}
	return out
}

// Cleanup drops markers older than the retention window and, if the map is
// still over budget, halves it. Run it from a periodic worker.
func (t *Tracker) Cleanup() {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := time.Now().Add(-markerRetention)
	for id, m := range t.markers {
		if m.Completed && m.EndTime.Before(cutoff) {
			delete(t.markers, id)
		}
	}

	if len(t.markers) > maxMarkers {
		n := 0
		for id := range t.markers {
			if n > maxMarkers/2 {
				delete(t.markers, id)
			}
			n++
		}
	}
}

// Stats summarizes the tracker for the sysop dashboard.
func (t *Tracker) Stats() map[string]any {
	t.mu.RLock()
	defer t.mu.RUnlock()

	active, completed := 0, 0
	for _, m := range t.markers {
		if m.Completed {
			completed++
		} else {
			active++
		}
	}

	return map[string]any{
		"trackerUptime":       time.Since(t.started).String(),
		"totalMarkers":        len(t.markers),
		"activeOperations":    active,
		"completedOperations": completed,
	}
}
