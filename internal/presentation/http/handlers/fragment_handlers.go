package handlers

import (
	"net/http"
	"time"

	"github.com/RecordKit/lifemap-go/internal/application/services"
	"github.com/RecordKit/lifemap-go/internal/domain/entities/widgets"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/logging"
	"github.com/RecordKit/lifemap-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// FragmentHandlers serves rendered lifecycle diagram fragments.
// This is a thin wrapper around DiagramService following the established pattern.
type FragmentHandlers struct {
	diagramService *services.DiagramService
	sessionService *services.SessionService
	logger         *logging.ChanneledLogger
}

// NewFragmentHandlers creates a new fragment handlers instance
func NewFragmentHandlers(diagramService *services.DiagramService, sessionService *services.SessionService, logger *logging.ChanneledLogger) *FragmentHandlers {
	return &FragmentHandlers{
		diagramService: diagramService,
		sessionService: sessionService,
		logger:         logger,
	}
}

// GetLifecycleFragment handles GET /api/v1/fragments/lifecycle/:className/:objectId
// It returns the ready-to-inject rendered diagram fragment.
func (h *FragmentHandlers) GetLifecycleFragment(c *gin.Context) {
	start := time.Now()
	h.logger.Widget().Debug("Received get fragment request", "method", c.Request.Method, "path", c.Request.URL.Path)

	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	className := c.Param("className")
	objectID := c.Param("objectId")
	if className == "" || objectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "class name and object ID are required"})
		return
	}

	currentState := c.Query("currentState")
	if currentState == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "currentState query parameter is required"})
		return
	}

	sessionID := c.GetHeader("X-Lifemap-Session-ID")
	variant := widgets.SelectVariant(h.sessionService.SurfaceFor(tenantCtx, sessionID))

	html, err := h.diagramService.RenderDiagram(tenantCtx, className, currentState, variant)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.logger.Widget().Info("Get fragment request completed", "duration", time.Since(start))

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}
