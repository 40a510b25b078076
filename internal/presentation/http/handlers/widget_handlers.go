package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/RecordKit/lifemap-go/internal/application/services"
	"github.com/RecordKit/lifemap-go/internal/domain/entities/widgets"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/logging"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/performance"
	"github.com/RecordKit/lifemap-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// WidgetHandlers drives server-resident widget instances from browser
// interaction events.
type WidgetHandlers struct {
	widgetService  *services.WidgetService
	sessionService *services.SessionService
	logger         *logging.ChanneledLogger
	perfTracker    *performance.Tracker
}

// NewWidgetHandlers creates a new widget handlers instance
func NewWidgetHandlers(widgetService *services.WidgetService, sessionService *services.SessionService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *WidgetHandlers {
	return &WidgetHandlers{
		widgetService:  widgetService,
		sessionService: sessionService,
		logger:         logger,
		perfTracker:    perfTracker,
	}
}

// BindWidgetRequest is the request body for widget initialization.
type BindWidgetRequest struct {
	ObjectClass        string `json:"objectClass" binding:"required"`
	ObjectID           string `json:"objectId" binding:"required"`
	StateAttributeCode string `json:"stateAttributeCode" binding:"required"`
	CurrentState       string `json:"currentState"`
}

// PostBind handles POST /api/v1/widgets/bind
func (h *WidgetHandlers) PostBind(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	start := time.Now()

	var req BindWidgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	role := c.GetString("consoleRole")
	surface := surfaceFromHeader(c)
	if role == "" {
		// Only an authenticated console session gets the backoffice variant.
		surface = widgets.SurfacePortal
	}

	session := h.sessionService.GetOrCreateSession(tenantCtx, c.GetHeader("X-Lifemap-Session-ID"), surface, role)
	variant := widgets.SelectVariant(widgets.Surface(session.Surface))

	objCtx := widgets.ObjectLifecycleContext{
		ObjectClass:        req.ObjectClass,
		ObjectID:           req.ObjectID,
		StateAttributeCode: req.StateAttributeCode,
		CurrentState:       req.CurrentState,
	}

	result, err := h.widgetService.Bind(tenantCtx, session.SessionID, objCtx, variant)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.logger.Widget().Debug("Widget bind request completed", "tenantId", tenantCtx.TenantID, "instanceId", result.InstanceID, "duration", time.Since(start))

	c.Header("X-Lifemap-Session-ID", session.SessionID)
	c.JSON(http.StatusOK, result)
}

// WidgetEventRequest is the request body for widget interaction events.
type WidgetEventRequest struct {
	InstanceID string               `json:"instanceId" binding:"required"`
	Event      string               `json:"event" binding:"required"`
	Options    *widgets.ConfigPatch `json:"options,omitempty"`
}

// PostEvent handles POST /api/v1/widgets/event
func (h *WidgetHandlers) PostEvent(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	sessionID := c.GetHeader("X-Lifemap-Session-ID")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session ID required"})
		return
	}

	var req WidgetEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.widgetService.HandleEvent(tenantCtx, sessionID, req.InstanceID, req.Event, req.Options)
	if err != nil {
		if errors.Is(err, widgets.ErrDestroyed) {
			c.JSON(http.StatusGone, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// surfaceFromHeader maps the declared rendering surface to the widget
// surface enum, defaulting to the portal.
func surfaceFromHeader(c *gin.Context) widgets.Surface {
	if c.GetHeader("X-Lifemap-Surface") == string(widgets.SurfaceConsole) {
		return widgets.SurfaceConsole
	}
	return widgets.SurfacePortal
}
