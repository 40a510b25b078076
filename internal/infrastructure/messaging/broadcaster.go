// Package messaging provides the concrete implementation of the SSE broadcaster.
package messaging

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/logging"
)

// sessionKey identifies one browser session within one tenant. Broadcasts
// are scoped this tightly so a state change never leaks across sessions.
type sessionKey struct {
	tenantID  string
	sessionID string
}

// SSEBroadcaster fans widget update events out to the SSE connections a
// session holds open.
type SSEBroadcaster struct {
	clients map[sessionKey][]chan string
	mu      sync.Mutex
	logger  *logging.ChanneledLogger
}

var (
	globalBroadcaster *SSEBroadcaster
	once              sync.Once
)

// NewSSEBroadcaster creates the singleton SSEBroadcaster instance.
func NewSSEBroadcaster(logger *logging.ChanneledLogger) *SSEBroadcaster {
	once.Do(func() {
		globalBroadcaster = &SSEBroadcaster{
			clients: make(map[sessionKey][]chan string),
			logger:  logger,
		}
	})
	return globalBroadcaster
}

// AddClientWithSession registers a new SSE client for a tenant session and
// returns the channel the handler drains into the response stream.
func (b *SSEBroadcaster) AddClientWithSession(tenantID, sessionID string) chan string {
	ch := make(chan string, 10)
	key := sessionKey{tenantID, sessionID}

	b.mu.Lock()
	b.clients[key] = append(b.clients[key], ch)
	b.mu.Unlock()

	b.logger.SSE().Debug("SSE client registered", "tenantId", tenantID, "sessionId", sessionID)
	return ch
}

// RemoveClientWithSession drops a client channel once its connection closes.
func (b *SSEBroadcaster) RemoveClientWithSession(ch chan string, tenantID, sessionID string) {
	key := sessionKey{tenantID, sessionID}

	b.mu.Lock()
	remaining := b.clients[key][:0]
	for _, client := range b.clients[key] {
		if client != ch {
			remaining = append(remaining, client)
		}
	}
	if len(remaining) == 0 {
		delete(b.clients, key)
	} else {
		b.clients[key] = remaining
	}
	b.mu.Unlock()

	b.logger.SSE().Debug("SSE client unregistered", "tenantId", tenantID, "sessionId", sessionID)
}

// GetSessionConnectionCount returns the connection count for a tenant session.
func (b *SSEBroadcaster) GetSessionConnectionCount(tenantID, sessionID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients[sessionKey{tenantID, sessionID}])
}

// objectStateChangePayload is the wire payload of a widgets_updated event.
type objectStateChangePayload struct {
	ObjectClass string   `json:"objectClass"`
	ObjectID    string   `json:"objectId"`
	NewState    string   `json:"newState"`
	WidgetIDs   []string `json:"widgetIds"`
}

// BroadcastObjectStateChange notifies one session that an object it has
// widgets bound to changed lifecycle state. Clients re-render the affected
// widgets in place.
func (b *SSEBroadcaster) BroadcastObjectStateChange(tenantID, sessionID, objectClass, objectID, newState string, widgetIDs []string) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.SSE().Error("Panic recovered in BroadcastObjectStateChange", "error", r, "tenantId", tenantID, "sessionId", sessionID)
		}
	}()

	payload, err := json.Marshal(objectStateChangePayload{
		ObjectClass: objectClass,
		ObjectID:    objectID,
		NewState:    newState,
		WidgetIDs:   widgetIDs,
	})
	if err != nil {
		b.logger.SSE().Error("Failed to marshal state change payload", "error", err, "tenantId", tenantID)
		return
	}
	message := fmt.Sprintf("event: widgets_updated\ndata: %s\n\n", payload)

	b.mu.Lock()
	targets := b.clients[sessionKey{tenantID, sessionID}]
	delivered := 0
	for _, ch := range targets {
		select {
		case ch <- message:
			delivered++
		default:
			b.logger.SSE().Warn("SSE channel full, message dropped", "tenantId", tenantID, "sessionId", sessionID)
		}
	}
	b.mu.Unlock()

	b.logger.LogSSEEvent("widgets_updated", tenantID, sessionID, delivered)
}

// HasListeningSessions checks if any session for the tenant holds an open
// SSE connection.
func (b *SSEBroadcaster) HasListeningSessions(tenantID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for key := range b.clients {
		if key.tenantID == tenantID {
			return true
		}
	}
	return false
}
