// Package types defines session and widget instance state data structures.
package types

import (
	"sync"
	"time"

	"github.com/RecordKit/lifemap-go/internal/domain/entities/widgets"
)

// TenantSessionCache holds session state data for a single tenant
type TenantSessionCache struct {
	SessionStates    map[string]*SessionData // sessionId -> session data
	WidgetsBySession map[string][]string     // sessionId -> []instanceId

	// Cache metadata
	LastLoaded time.Time
	Mu         sync.RWMutex // Exported for access
}

// SessionData represents ephemeral session state and serves as the coordination hub.
// Sessions link browser interactions to the widget instances the server holds for them.
type SessionData struct {
	SessionID    string    `json:"sessionId"`
	Role         string    `json:"role,omitempty"`
	Surface      string    `json:"surface"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
	ExpiresAt    time.Time `json:"expiresAt"`
	IsExpired    bool      `json:"isExpired"`
}

// TenantWidgetCache holds live widget instances for a single tenant
type TenantWidgetCache struct {
	Instances map[string]*widgets.Instance // instanceId -> instance
	ByBinding map[string]string            // "sessionId:objectClass:objectId" -> instanceId
	Mu        sync.RWMutex                 // Exported for access
}
