package handlers

import (
	"net/http"
	"time"

	"github.com/RecordKit/lifemap-go/internal/application/services"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/logging"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/performance"
	"github.com/RecordKit/lifemap-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// StateHandlers processes host-record state change notifications.
type StateHandlers struct {
	stateService *services.StateService
	logger       *logging.ChanneledLogger
	perfTracker  *performance.Tracker
}

// NewStateHandlers creates a new state handlers instance
func NewStateHandlers(stateService *services.StateService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *StateHandlers {
	return &StateHandlers{
		stateService: stateService,
		logger:       logger,
		perfTracker:  perfTracker,
	}
}

// StateChangeRequest represents the structure for state change requests
type StateChangeRequest struct {
	ObjectClass  string `json:"objectClass" binding:"required"`
	ObjectID     string `json:"objectId" binding:"required"`
	CurrentState string `json:"currentState"`
	TargetState  string `json:"targetState" binding:"required"`
	Stimulus     string `json:"stimulus"`
}

// PostState handles POST /api/v1/state - applies a lifecycle transition to a
// host record and pushes updates to any sessions with bound widgets.
func (h *StateHandlers) PostState(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	start := time.Now()
	marker := h.perfTracker.StartOperation("post_state_request", tenantCtx.TenantID)
	defer marker.Complete()
	h.logger.Widget().Debug("Received state change request", "method", c.Request.Method, "path", c.Request.URL.Path, "tenantId", tenantCtx.TenantID)

	var req StateChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		marker.SetError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "objectClass, objectId, and targetState are required"})
		return
	}

	event := services.StateChangeEvent{
		ObjectClass:  req.ObjectClass,
		ObjectID:     req.ObjectID,
		CurrentState: req.CurrentState,
		TargetState:  req.TargetState,
		Stimulus:     req.Stimulus,
	}

	if err := h.stateService.ProcessStateChange(tenantCtx, event); err != nil {
		marker.SetError(err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	marker.SetSuccess(true)
	h.logger.Perf().Info("Performance for state change request", "duration", time.Since(start), "tenantId", tenantCtx.TenantID, "success", true)

	c.JSON(http.StatusOK, gin.H{
		"objectClass": req.ObjectClass,
		"objectId":    req.ObjectID,
		"state":       req.TargetState,
	})
}
