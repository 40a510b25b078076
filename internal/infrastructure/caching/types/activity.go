// Package types defines activity data structures for the sysop dashboard.
package types

import (
	"time"
)

// HourlyActivityBin contains widget activity data for a specific hour
type HourlyActivityBin struct {
	Data       *HourlyActivityData `json:"data"`
	ComputedAt time.Time           `json:"computedAt"`
	TTL        time.Duration       `json:"ttl"`
}

// HourlyActivityData contains the core widget activity counters
type HourlyActivityData struct {
	Sessions    map[string]bool `json:"sessions"` // Set of session IDs
	Bindings    int             `json:"bindings"`
	EventCounts map[string]int  `json:"eventCounts"` // event name -> count
	Transitions map[string]int  `json:"transitions"` // "className:stimulus" -> count
}

// DashboardCache contains computed dashboard metrics
type DashboardCache struct {
	Data         *DashboardData `json:"data"`
	LastComputed time.Time      `json:"computedAt"`
	TTL          time.Duration  `json:"ttl"`
}

// DashboardData contains high-level dashboard metrics.
type DashboardData struct {
	ActiveSessions  int            `json:"activeSessions"`
	LiveWidgets     int            `json:"liveWidgets"`
	WidgetsByState  map[string]int `json:"widgetsByState"`
	CachedFragments int            `json:"cachedFragments"`
	EventCounts     map[string]int `json:"eventCounts"`
}
