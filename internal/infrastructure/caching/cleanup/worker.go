// Package cleanup runs the periodic background sweep over tenant caches:
// widget instances idle past their TTL, sessions past their lifetime, stale
// diagram fragments, and expired activity bins.
package cleanup

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/RecordKit/lifemap-go/internal/infrastructure/caching/interfaces"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/caching/manager"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/performance"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/tenant"
)

// Worker sweeps expired cache entries for every active tenant on a fixed
// interval and prunes retained performance markers on the same cadence.
type Worker struct {
	cache       interfaces.Cache
	detector    *tenant.Detector
	perfTracker *performance.Tracker
	config      *Config
}

func NewWorker(cache interfaces.Cache, detector *tenant.Detector, perfTracker *performance.Tracker, config *Config) *Worker {
	return &Worker{
		cache:       cache,
		detector:    detector,
		perfTracker: perfTracker,
		config:      config,
	}
}

// Start blocks until the context is cancelled, sweeping on the configured
// interval. Run it in its own goroutine.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.config.CleanupInterval)
	defer ticker.Stop()

	log.Printf("Cache cleanup worker started (interval: %v, verbose: %v)",
		w.config.CleanupInterval, w.config.VerboseReporting)

	for {
		select {
		case <-ctx.Done():
			log.Println("Cache cleanup worker stopping...")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *Worker) sweep(ctx context.Context) {
	start := time.Now()
	reporter := NewReporter(w.cache)

	tenants, err := w.activeTenants()
	if err != nil {
		reporter.LogError("Cache cleanup failed to get active tenants", err)
		return
	}

	if w.config.VerboseReporting {
		reporter.LogStage("PERIODIC CACHE CLEANUP")
		for _, tenantID := range tenants {
			fmt.Print(reporter.GenerateTenantReport(tenantID))
		}
	}

	var cleaned int
	for _, tenantID := range tenants {
		select {
		case <-ctx.Done():
			return
		default:
			cleaned += w.sweepTenant(tenantID)
		}
	}

	// Performance markers and dead database connections age out on the same
	// cadence as cache entries.
	w.perfTracker.Cleanup()
	tenant.CleanupStaleConnections()

	duration := time.Since(start)
	switch {
	case cleaned > 0:
		reporter.LogSuccess("Cache cleanup finished: %d items cleaned from %d tenants in %v",
			cleaned, len(tenants), duration)
	case w.config.VerboseReporting:
		reporter.LogInfo("Cache cleanup completed - no expired items found (%v)", duration)
	}
}

// sweepTenant performs TTL-based eviction for a single tenant and returns
// the number of items removed.
func (w *Worker) sweepTenant(tenantID string) int {
	var cleaned int
	now := time.Now().UTC()

	// Activity bins carry their own TTL; anything older is gone regardless
	// of the concrete cache implementation.
	w.cache.PurgeExpiredBins(tenantID, "expired")

	mgr, ok := w.cache.(*manager.Manager)
	if !ok {
		return cleaned
	}

	cleaned += mgr.EvictStaleWidgets(tenantID)

	// Sessions past their lifetime. Widgets held by an evicted session go
	// with it so they cannot leak once the session can never return.
	sessionCache, err := mgr.GetTenantSessionCache(tenantID)
	if err == nil && sessionCache != nil {
		var expired []string
		sessionCache.Mu.RLock()
		for sessionID, session := range sessionCache.SessionStates {
			if now.Sub(session.LastActivity) > w.config.SessionTTL {
				expired = append(expired, sessionID)
			}
		}
		sessionCache.Mu.RUnlock()

		for _, sessionID := range expired {
			for _, instanceID := range mgr.GetWidgetIDsBySession(tenantID, sessionID) {
				mgr.RemoveWidget(tenantID, instanceID)
				cleaned++
			}
			mgr.RemoveSession(tenantID, sessionID)
			cleaned++
		}
	}

	// Rendered diagram fragments past their TTL.
	fragmentCache, err := mgr.GetTenantFragmentCache(tenantID)
	if err == nil && fragmentCache != nil {
		fragmentCache.Mu.Lock()
		for key, fragment := range fragmentCache.Fragments {
			if now.Sub(fragment.LastUpdated) > w.config.FragmentTTL {
				delete(fragmentCache.Fragments, key)
				cleaned++
			}
		}
		fragmentCache.Mu.Unlock()
	}

	return cleaned
}

func (w *Worker) activeTenants() ([]string, error) {
	registry, err := tenant.LoadTenantRegistry()
	if err != nil {
		return nil, err
	}

	active := make([]string, 0)
	for tenantID, info := range registry.Tenants {
		if info.Status == "active" {
			active = append(active, tenantID)
		}
	}
	return active, nil
}
