// Package handlers provides HTTP request handlers for the presentation layer.
package handlers

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/RecordKit/lifemap-go/internal/application/services"
	"github.com/RecordKit/lifemap-go/internal/domain/entities/widgets"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/messaging"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/logging"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/performance"
	"github.com/RecordKit/lifemap-go/internal/presentation/http/middleware"
	"github.com/RecordKit/lifemap-go/pkg/config"
	"github.com/gin-gonic/gin"
)

// Connection limits to prevent file descriptor exhaustion
const maxSSEConnections = 1000

var activeSSEConnections int64

// AuthHandlers contains console authentication and session streaming handlers
type AuthHandlers struct {
	authService    *services.AuthService
	sessionService *services.SessionService
	broadcaster    *messaging.SSEBroadcaster
	logger         *logging.ChanneledLogger
	perfTracker    *performance.Tracker
}

// NewAuthHandlers creates a new auth handlers instance
func NewAuthHandlers(authService *services.AuthService, sessionService *services.SessionService, broadcaster *messaging.SSEBroadcaster, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *AuthHandlers {
	return &AuthHandlers{
		authService:    authService,
		sessionService: sessionService,
		broadcaster:    broadcaster,
		logger:         logger,
		perfTracker:    perfTracker,
	}
}

// LoginRequest represents the structure for console login requests
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// PostLogin handles POST /api/v1/auth/login - authenticates console users
func (h *AuthHandlers) PostLogin(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	start := time.Now()
	marker := h.perfTracker.StartOperation("post_login_request", tenantCtx.TenantID)
	defer marker.Complete()
	h.logger.Auth().Debug("Received login request", "method", c.Request.Method, "path", c.Request.URL.Path, "tenantId", tenantCtx.TenantID)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		marker.SetError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "password is required"})
		return
	}

	result := h.authService.AuthenticateConsole(req.Password, tenantCtx)
	if !result.Success {
		marker.SetSuccess(false)
		h.logger.Auth().Warn("Console login rejected", "tenantId", tenantCtx.TenantID)
		c.JSON(http.StatusUnauthorized, gin.H{"error": result.Error})
		return
	}

	// An authenticated console session gets the backoffice widget surface.
	sessionID := c.GetHeader("X-Lifemap-Session-ID")
	session := h.sessionService.GetOrCreateSession(tenantCtx, sessionID, widgets.SurfaceConsole, result.Role)
	c.Header("X-Lifemap-Session-ID", session.SessionID)

	marker.SetSuccess(true)
	h.logger.Auth().Info("Console login succeeded", "tenantId", tenantCtx.TenantID, "role", result.Role, "sessionId", session.SessionID)
	h.logger.Perf().Info("Performance for login request", "duration", time.Since(start), "tenantId", tenantCtx.TenantID, "success", true)

	c.JSON(http.StatusOK, gin.H{
		"token":     result.Token,
		"role":      result.Role,
		"sessionId": session.SessionID,
	})
}

// GetSSE handles GET /api/v1/auth/sse - establishes a Server-Sent Events stream
// that pushes widgets_updated notifications for the caller's session.
func (h *AuthHandlers) GetSSE(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	start := time.Now()
	marker := h.perfTracker.StartOperation("get_sse_request", tenantCtx.TenantID)
	defer marker.Complete()
	h.logger.SSE().Debug("Received SSE connection request", "method", c.Request.Method, "path", c.Request.URL.Path, "tenantId", tenantCtx.TenantID)

	sessionID := c.Query("sessionId")
	if sessionID == "" {
		h.logger.SSE().Error("SSE connection request missing session ID", "tenantId", tenantCtx.TenantID)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Session ID required for SSE connection"})
		return
	}

	// Check connection limits
	currentConnections := atomic.LoadInt64(&activeSSEConnections)
	if currentConnections >= maxSSEConnections {
		h.logger.SSE().Warn("SSE connection limit reached",
			"tenantId", tenantCtx.TenantID,
			"sessionId", sessionID,
			"currentConnections", currentConnections,
			"maxConnections", maxSSEConnections)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "SSE connection limit reached. Please try again later.",
		})
		return
	}

	// Set SSE headers
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Headers", "Cache-Control")

	messageChan := h.broadcaster.AddClientWithSession(tenantCtx.TenantID, sessionID)

	atomic.AddInt64(&activeSSEConnections, 1)
	defer func() {
		atomic.AddInt64(&activeSSEConnections, -1)
		h.broadcaster.RemoveClientWithSession(messageChan, tenantCtx.TenantID, sessionID)
	}()

	// Send initial connection confirmation
	connected := fmt.Sprintf("data: {\"type\":\"connected\",\"sessionId\":\"%s\",\"timestamp\":\"%s\"}\n\n", sessionID, time.Now().Format(time.RFC3339))
	if _, err := c.Writer.WriteString(connected); err != nil {
		h.logger.SSE().Warn("SSE initial message failed", "tenantId", tenantCtx.TenantID, "sessionId", sessionID, "error", err.Error())
		return
	}
	c.Writer.Flush()

	clientCtx := c.Request.Context()

	h.logger.SSE().Info("SSE connection established",
		"tenantId", tenantCtx.TenantID,
		"sessionId", sessionID,
		"totalConnections", atomic.LoadInt64(&activeSSEConnections),
		"setupDuration", time.Since(start))

	marker.SetSuccess(true)
	h.logger.Perf().Info("Performance for GetSSE request", "duration", marker.Duration, "tenantId", tenantCtx.TenantID, "success", true)

	ticker := time.NewTicker(time.Duration(config.SSEHeartbeatIntervalSeconds) * time.Second)
	defer ticker.Stop()

	connectionStart := time.Now()
	for {
		select {
		case <-clientCtx.Done():
			h.logger.SSE().Info("SSE client disconnected",
				"tenantId", tenantCtx.TenantID,
				"sessionId", sessionID,
				"connectionDuration", time.Since(connectionStart))
			return

		case message, ok := <-messageChan:
			if !ok {
				h.logger.SSE().Info("SSE connection channel closed",
					"tenantId", tenantCtx.TenantID,
					"sessionId", sessionID,
					"connectionDuration", time.Since(connectionStart))
				return
			}

			if _, err := c.Writer.WriteString(message); err != nil {
				h.logger.SSE().Error("SSE write failed",
					"tenantId", tenantCtx.TenantID,
					"sessionId", sessionID,
					"error", err.Error())
				return
			}
			c.Writer.Flush()

		case <-ticker.C:
			heartbeat := fmt.Sprintf("data: {\"type\":\"heartbeat\",\"timestamp\":\"%s\"}\n\n", time.Now().Format(time.RFC3339))
			if _, err := c.Writer.WriteString(heartbeat); err != nil {
				h.logger.SSE().Error("SSE heartbeat failed",
					"tenantId", tenantCtx.TenantID,
					"sessionId", sessionID,
					"error", err.Error())
				return
			}
			c.Writer.Flush()
		}
	}
}
