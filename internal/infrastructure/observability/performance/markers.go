// Package performance tracks per-operation timings across tenants. Services
// open a marker when a unit of work starts (an eligibility check, a fragment
// render, a state change) and complete it when the work finishes; the tracker
// retains recent markers and flags the slow ones.
package performance

import "time"

// Marker measures a single operation for a single tenant.
type Marker struct {
	Operation   string
	TenantID    string
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
	Success     bool
	Error       string
	Metadata    map[string]any
	CacheHits   int
	CacheMisses int
	Completed   bool
}

// Complete freezes the marker. Calling it twice is a no-op so deferred
// completion stays safe alongside early returns.
func (m *Marker) Complete() {
	if m.Completed {
		return
	}
	m.EndTime = time.Now()
	m.Duration = m.EndTime.Sub(m.StartTime)
	m.Completed = true
}

// SetSuccess records whether the operation succeeded.
func (m *Marker) SetSuccess(success bool) {
	m.Success = success
}

// SetError records a failure; a nil error leaves the marker untouched.
func (m *Marker) SetError(err error) {
	if err == nil {
		return
	}
	m.Error = err.Error()
	m.Success = false
}

// AddMetadata attaches operation-specific context, like the class name of a
// diagram render or the event code of a widget stimulus.
func (m *Marker) AddMetadata(key string, value any) {
	if m.Metadata == nil {
		m.Metadata = make(map[string]any)
	}
	m.Metadata[key] = value
}

// AddCacheHit counts a cache hit during the operation.
func (m *Marker) AddCacheHit() { m.CacheHits++ }

// AddCacheMiss counts a cache miss during the operation.
func (m *Marker) AddCacheMiss() { m.CacheMisses++ }
