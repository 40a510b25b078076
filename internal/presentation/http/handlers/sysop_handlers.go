// Package handlers provides HTTP handlers for the presentation layer.
package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/RecordKit/lifemap-go/internal/application/container"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/messaging"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/logging"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/security"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/tenant"
	"github.com/RecordKit/lifemap-go/pkg/config"
)

var sysopUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The dashboard is served from the same origin; the route itself is
		// protected by the SysOp auth middleware.
		return true
	},
}

// SysOpHandlers handles SysOp dashboard authentication and data streaming
type SysOpHandlers struct {
	container *container.Container
}

// NewSysOpHandlers creates new SysOp handlers
func NewSysOpHandlers(container *container.Container) *SysOpHandlers {
	return &SysOpHandlers{
		container: container,
	}
}

// AuthCheck checks if SysopPassword is set and validates session
func (h *SysOpHandlers) AuthCheck(c *gin.Context) {
	sysopPassword := config.SysopPassword
	response := map[string]any{
		"passwordRequired": sysopPassword != "",
		"authenticated":    false,
	}

	if sysopPassword == "" {
		response["message"] = "Set SYSOP_PASSWORD to protect the system dashboard"
	}

	// Also check for a valid token in the header
	auth := c.GetHeader("Authorization")
	if sysopPassword != "" && auth == "Bearer "+sysopPassword {
		response["authenticated"] = true
	}

	c.JSON(http.StatusOK, response)
}

// Login handles SysOp authentication
func (h *SysOpHandlers) Login(c *gin.Context) {
	var request struct {
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	sysopPassword := config.SysopPassword
	if sysopPassword == "" {
		c.JSON(http.StatusOK, gin.H{"success": true, "token": "no-auth-required"})
		return
	}
	if request.Password != sysopPassword {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "token": sysopPassword})
}

// GetTenants returns available tenants
func (h *SysOpHandlers) GetTenants(c *gin.Context) {
	registry := h.container.TenantManager.GetDetector().GetRegistry()
	if registry == nil || registry.Tenants == nil {
		c.JSON(http.StatusOK, map[string]any{"tenants": []string{}})
		return
	}

	// Extract the keys (tenant IDs) from the registry map
	tenants := make([]string, 0, len(registry.Tenants))
	for tenantID := range registry.Tenants {
		tenants = append(tenants, tenantID)
	}

	c.JSON(http.StatusOK, map[string]any{"tenants": tenants})
}

// GetActivityMetrics fetches live widget activity counts from the cache manager.
func (h *SysOpHandlers) GetActivityMetrics(c *gin.Context) {
	tenantID := c.Query("tenant")
	if tenantID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tenant query parameter is required"})
		return
	}
	cacheManager := h.container.CacheManager
	sessions := len(cacheManager.GetAllSessionIDs(tenantID))
	widgetInstances := len(cacheManager.GetAllWidgetIDs(tenantID))
	fragments := len(cacheManager.GetAllFragmentKeys(tenantID))
	c.JSON(http.StatusOK, gin.H{
		"sessions":       sessions,
		"widgets":        widgetInstances,
		"widgetsByState": cacheManager.CountWidgetsByState(tenantID),
		"fragments":      fragments,
	})
}

// GetDashboard handles GET /api/sysop/dashboard - returns aggregate widget
// activity for a tenant.
func (h *SysOpHandlers) GetDashboard(c *gin.Context) {
	tenantID := c.Query("tenant")
	if tenantID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tenant query parameter is required"})
		return
	}

	tenantCtx, err := h.container.TenantManager.NewContextFromID(tenantID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Tenant not found or could not be initialized"})
		return
	}
	defer tenantCtx.Close()

	c.JSON(http.StatusOK, h.container.SysOpService.GetDashboard(tenantCtx))
}

// GetTenantToken is the secure token broker endpoint.
// It leverages the fact that the SysOp is already authenticated via middleware
// to generate a short-lived, admin-level console token for the requested tenant.
func (h *SysOpHandlers) GetTenantToken(c *gin.Context) {
	var req struct {
		TenantID string `json:"tenantId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: tenantId is required"})
		return
	}

	tenantCtx, err := h.container.TenantManager.NewContextFromID(req.TenantID)
	if err != nil {
		h.container.Logger.System().Error("SysOp failed to create context for token generation", "error", err, "tenantId", req.TenantID)
		c.JSON(http.StatusNotFound, gin.H{"error": "Tenant not found or could not be initialized"})
		return
	}
	defer tenantCtx.Close()

	token, err := security.GenerateConsoleToken("admin", tenantCtx.Config.TenantID, tenantCtx.Config.JWTSecret)
	if err != nil {
		h.container.Logger.System().Error("SysOp failed to generate token for tenant", "error", err, "tenantId", req.TenantID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tenant token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
		"role":    "admin",
	})
}

// GetSystemStats handles GET /api/sysop/system - connection pool health,
// performance tracker totals, and optionally a tenant's recent operation
// timings.
func (h *SysOpHandlers) GetSystemStats(c *gin.Context) {
	response := gin.H{
		"connectionPools": tenant.GetConnectionPoolInfo(),
		"perf":            h.container.PerfTracker.Stats(),
	}
	if tenantID := c.Query("tenant"); tenantID != "" {
		response["recentOperations"] = h.container.PerfTracker.RecentMetrics(tenantID, 5*time.Minute)
	}
	c.JSON(http.StatusOK, response)
}

// SysOpAuthMiddleware protects SysOp-specific endpoints.
func (h *SysOpHandlers) SysOpAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sysopPassword := config.SysopPassword
		if sysopPassword == "" {
			c.Next() // No password set, allow access
			return
		}

		authHeader := c.GetHeader("Authorization")
		token := ""
		if len(authHeader) > 7 && strings.HasPrefix(authHeader, "Bearer ") {
			token = authHeader[7:]
		}

		if token != sysopPassword {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// DashboardWS handles GET /api/sysop/ws - upgrades to a websocket and streams
// periodic session-map payloads from the SysOp broadcaster.
func (h *SysOpHandlers) DashboardWS(c *gin.Context) {
	tenantID := c.DefaultQuery("tenant", "default")

	conn, err := sysopUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.container.Logger.System().Error("SysOp websocket upgrade failed", "error", err)
		return
	}

	client := &messaging.SysOpClient{
		Conn:     conn,
		TenantID: tenantID,
		Send:     make(chan []byte, 16),
	}

	broadcaster := h.container.SysOpBroadcaster
	broadcaster.Register(client)

	// Writer pump. The broadcaster closes Send on unregister.
	go func() {
		defer conn.Close()
		for message := range client.Send {
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		}
		conn.WriteMessage(websocket.CloseMessage, []byte{})
	}()

	// Reader pump detects disconnects; the dashboard never sends data.
	go func() {
		defer broadcaster.Unregister(client)
		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(120 * time.Second))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// StreamLogs handles the SSE connection for live log streaming.
func (h *SysOpHandlers) StreamLogs(c *gin.Context) {
	broadcaster := h.container.LogBroadcaster
	if broadcaster == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Log broadcaster not available"})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("Access-Control-Allow-Origin", "*")

	logLevel, _ := logging.ParseLevel(c.DefaultQuery("level", "INFO"))
	filters := logging.AppliedFilters{
		Channel: logging.Channel(c.DefaultQuery("channel", "all")),
		Level:   logLevel,
	}

	client := broadcaster.NewClient(filters)
	broadcaster.RegisterClient(client)
	defer broadcaster.UnregisterClient(client)

	fmt.Fprintf(c.Writer, ": connection established\n\n")
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case message, ok := <-client.Channel:
			if !ok {
				return false
			}
			fmt.Fprintf(w, "data: %s\n\n", message)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// GetLogLevels handles GET /sysop-logs/levels - returns current log levels for all channels.
func (h *SysOpHandlers) GetLogLevels(c *gin.Context) {
	logger := h.container.Logger
	if logger == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Logger not available"})
		return
	}
	levels := logger.GetChannelLevels()
	c.JSON(http.StatusOK, levels)
}

// SetLogLevel handles POST /sysop-logs/levels - sets the log level for a specific channel.
func (h *SysOpHandlers) SetLogLevel(c *gin.Context) {
	logger := h.container.Logger
	if logger == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Logger not available"})
		return
	}

	var req struct {
		Channel string `json:"channel" binding:"required"`
		Level   string `json:"level" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	level, ok := logging.ParseLevel(req.Level)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid log level specified"})
		return
	}

	if err := logger.SetChannelLevel(logging.Channel(req.Channel), level); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to set log level", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": fmt.Sprintf("Log level for channel '%s' set to '%s'", req.Channel, req.Level)})
}
