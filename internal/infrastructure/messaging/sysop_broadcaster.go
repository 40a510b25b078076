package messaging

import (
	"encoding/json"
	"log"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/RecordKit/lifemap-go/internal/infrastructure/caching/manager"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/tenant"
	"github.com/RecordKit/lifemap-go/pkg/config"
)

// SysOpClient represents a single connected sysop dashboard client.
type SysOpClient struct {
	Conn     *websocket.Conn
	TenantID string
	Send     chan []byte
}

// SessionState is one session's dot on the dashboard session map.
type SessionState struct {
	IsConsole    bool      `json:"isConsole"`
	HasWidgets   bool      `json:"hasWidgets"`
	LastActivity time.Time `json:"lastActivity"`
}

// SessionStatePayload is the full frame sent to the dashboard on each tick.
type SessionStatePayload struct {
	SessionStates    []SessionState `json:"sessionStates"`
	DisplayMode      string         `json:"displayMode"` // "1:1" or "PROPORTIONAL"
	TotalCount       int            `json:"totalCount"`
	ConsoleCount     int            `json:"consoleCount"`
	ActiveCount      int            `json:"activeCount"`
	DormantCount     int            `json:"dormantCount"`
	WithWidgetsCount int            `json:"withWidgetsCount"`
	WidgetsByState   map[string]int `json:"widgetsByState"`
	CachedFragments  int            `json:"cachedFragments"`
}

type sessionStats struct{ Total, Console, Active, Dormant, WithWidgets int }

// Above this many sessions the dashboard stops drawing one dot per session
// and scales the mix down to a fixed display count.
const proportionalThreshold = 200

// SysOpBroadcaster pushes session-map frames to every connected dashboard
// over websocket, one frame per tick per tenant.
type SysOpBroadcaster struct {
	tenantClients map[string]map[*SysOpClient]bool
	register      chan *SysOpClient
	unregister    chan *SysOpClient
	cacheManager  *manager.Manager
	tenantManager *tenant.Manager
	mu            sync.RWMutex
}

// NewSysOpBroadcaster creates a new broadcaster instance.
func NewSysOpBroadcaster(tm *tenant.Manager, cm *manager.Manager) *SysOpBroadcaster {
	return &SysOpBroadcaster{
		tenantClients: make(map[string]map[*SysOpClient]bool),
		register:      make(chan *SysOpClient),
		unregister:    make(chan *SysOpClient),
		cacheManager:  cm,
		tenantManager: tm,
	}
}

// Run starts the broadcaster's main loop. This should be run as a goroutine.
func (b *SysOpBroadcaster) Run() {
	ticker := time.NewTicker(config.SysOpTickInterval)
	defer ticker.Stop()

	for {
		select {
		case client := <-b.register:
			b.mu.Lock()
			if _, ok := b.tenantClients[client.TenantID]; !ok {
				b.tenantClients[client.TenantID] = make(map[*SysOpClient]bool)
			}
			b.tenantClients[client.TenantID][client] = true
			b.mu.Unlock()
			log.Printf("SysOp client registered for tenant: %s", client.TenantID)

		case client := <-b.unregister:
			b.mu.Lock()
			if clients, ok := b.tenantClients[client.TenantID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.Send)
					if len(clients) == 0 {
						delete(b.tenantClients, client.TenantID)
					}
				}
			}
			b.mu.Unlock()
			log.Printf("SysOp client unregistered for tenant: %s", client.TenantID)

		case <-ticker.C:
			b.broadcastSessionMaps()
		}
	}
}

// Register queues a client for registration.
func (b *SysOpBroadcaster) Register(client *SysOpClient) {
	b.register <- client
}

// Unregister queues a client for unregistration.
func (b *SysOpBroadcaster) Unregister(client *SysOpClient) {
	b.unregister <- client
}

func (b *SysOpBroadcaster) broadcastSessionMaps() {
	b.mu.RLock()
	tenantIDs := make([]string, 0, len(b.tenantClients))
	for tenantID := range b.tenantClients {
		tenantIDs = append(tenantIDs, tenantID)
	}
	b.mu.RUnlock()

	for _, tenantID := range tenantIDs {
		payload := b.buildPayload(tenantID)
		message, err := json.Marshal(payload)
		if err != nil {
			log.Printf("Error marshaling session state for tenant %s: %v", tenantID, err)
			continue
		}

		b.mu.RLock()
		for client := range b.tenantClients[tenantID] {
			select {
			case client.Send <- message:
			default:
			}
		}
		b.mu.RUnlock()
	}
}

func (b *SysOpBroadcaster) buildPayload(tenantID string) SessionStatePayload {
	states := b.sessionStates(tenantID)
	stats := tallySessions(states)

	displayStates := states
	displayMode := "1:1"
	if stats.Total > proportionalThreshold {
		displayMode = "PROPORTIONAL"
		displayStates = scaleToDisplay(states, proportionalThreshold)
	}

	return SessionStatePayload{
		SessionStates:    displayStates,
		DisplayMode:      displayMode,
		TotalCount:       stats.Total,
		ConsoleCount:     stats.Console,
		ActiveCount:      stats.Active,
		DormantCount:     stats.Dormant,
		WithWidgetsCount: stats.WithWidgets,
		WidgetsByState:   b.cacheManager.CountWidgetsByState(tenantID),
		CachedFragments:  len(b.cacheManager.GetAllFragmentKeys(tenantID)),
	}
}

func (b *SysOpBroadcaster) sessionStates(tenantID string) []SessionState {
	sessionCache, err := b.cacheManager.GetTenantSessionCache(tenantID)
	if err != nil {
		log.Printf("SysOp broadcaster could not get session cache for tenant %s: %v", tenantID, err)
		return []SessionState{}
	}

	sessionCache.Mu.RLock()
	defer sessionCache.Mu.RUnlock()

	states := make([]SessionState, 0, len(sessionCache.SessionStates))
	for sessionID, session := range sessionCache.SessionStates {
		states = append(states, SessionState{
			IsConsole:    session.Surface == "console",
			HasWidgets:   len(sessionCache.WidgetsBySession[sessionID]) > 0,
			LastActivity: session.LastActivity,
		})
	}
	return states
}

func tallySessions(states []SessionState) (stats sessionStats) {
	stats.Total = len(states)
	now := time.Now()
	for _, s := range states {
		if s.HasWidgets {
			stats.WithWidgets++
		}
		if s.IsConsole {
			stats.Console++
		}
		if now.Sub(s.LastActivity).Minutes() <= 45 {
			stats.Active++
		} else {
			stats.Dormant++
		}
	}
	return stats
}

// Activity tiers for the session map, most recent first. The representative
// age is what the scaled-down dots carry so the frontend picks the right CSS.
var activityTiers = []struct {
	name   string
	within time.Duration
	repAge time.Duration
}{
	{"ultra", time.Minute, 0},
	{"bright", 15 * time.Minute, 10 * time.Minute},
	{"medium", 30 * time.Minute, 20 * time.Minute},
	{"light", 45 * time.Minute, 40 * time.Minute},
	{"dormant", math.MaxInt64, 60 * time.Minute},
}

var sessionCategories = []string{"console", "portalWidgets", "portal"}

func categorize(s SessionState) string {
	switch {
	case s.IsConsole:
		return "console"
	case s.HasWidgets:
		return "portalWidgets"
	default:
		return "portal"
	}
}

// scaleToDisplay buckets sessions by category and activity tier, then emits
// a fixed number of representative dots preserving the mix.
func scaleToDisplay(states []SessionState, displayCount int) []SessionState {
	total := len(states)
	if total == 0 {
		return []SessionState{}
	}
	now := time.Now()

	type bucket struct{ category, tier string }
	counts := make(map[bucket]int)
	for _, s := range states {
		age := now.Sub(s.LastActivity)
		for _, t := range activityTiers {
			if age < t.within {
				counts[bucket{categorize(s), t.name}]++
				break
			}
		}
	}

	scaled := make([]SessionState, 0, displayCount)
	for _, category := range sessionCategories {
		for _, t := range activityTiers {
			n := counts[bucket{category, t.name}]
			if n == 0 {
				continue
			}
			template := SessionState{
				IsConsole:    category == "console",
				HasWidgets:   category == "portalWidgets",
				LastActivity: now.Add(-t.repAge),
			}
			blocks := int(math.Round(float64(n) / float64(total) * float64(displayCount)))
			for i := 0; i < blocks; i++ {
				scaled = append(scaled, template)
			}
		}
	}

	// Rounding can land over or under the display budget; trim or pad with
	// the quietest kind of dot.
	sort.SliceStable(scaled, func(i, j int) bool {
		if scaled[i].IsConsole != scaled[j].IsConsole {
			return scaled[i].IsConsole
		}
		return scaled[i].HasWidgets
	})
	if len(scaled) > displayCount {
		return scaled[:displayCount]
	}
	dormantAge := activityTiers[len(activityTiers)-1].repAge
	for len(scaled) < displayCount {
		scaled = append(scaled, SessionState{LastActivity: now.Add(-dormantAge)})
	}
	return scaled
}
