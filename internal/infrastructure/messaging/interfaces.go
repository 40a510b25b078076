// Package messaging defines interfaces for real-time communication.
package messaging

// Broadcaster delivers widget update events to the SSE connections a
// session holds open. Services depend on this interface; the concrete
// SSEBroadcaster lives alongside it.
type Broadcaster interface {
	AddClientWithSession(tenantID, sessionID string) chan string
	RemoveClientWithSession(ch chan string, tenantID, sessionID string)
	GetSessionConnectionCount(tenantID, sessionID string) int
	BroadcastObjectStateChange(tenantID, sessionID, objectClass, objectID, newState string, widgetIDs []string)
	HasListeningSessions(tenantID string) bool
}
