// Package handlers provides HTTP request handlers for the presentation layer.
package handlers

import (
	"net/http"
	"time"

	"github.com/RecordKit/lifemap-go/internal/application/services"
	"github.com/RecordKit/lifemap-go/internal/domain/entities/widgets"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/logging"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/performance"
	"github.com/RecordKit/lifemap-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// LifecycleHandlers handles eligibility queries and binding construction.
// Thin wrappers around EligibilityService and BindingService.
type LifecycleHandlers struct {
	eligibilityService *services.EligibilityService
	bindingService     *services.BindingService
	sessionService     *services.SessionService
	logger             *logging.ChanneledLogger
	perfTracker        *performance.Tracker
}

// NewLifecycleHandlers creates a new lifecycle handlers instance
func NewLifecycleHandlers(eligibilityService *services.EligibilityService, bindingService *services.BindingService, sessionService *services.SessionService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *LifecycleHandlers {
	return &LifecycleHandlers{
		eligibilityService: eligibilityService,
		bindingService:     bindingService,
		sessionService:     sessionService,
		logger:             logger,
		perfTracker:        perfTracker,
	}
}

// GetEligibility handles GET /api/v1/lifecycle/eligibility/:className
func (h *LifecycleHandlers) GetEligibility(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	className := c.Param("className")
	if className == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "class name is required"})
		return
	}

	eligible, err := h.eligibilityService.IsEligible(tenantCtx, className)
	if err != nil {
		// An unresolvable state attribute is broken host configuration.
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"className": className,
		"eligible":  eligible,
	})
}

// GetEligibleClasses handles GET /api/v1/lifecycle/classes
func (h *LifecycleHandlers) GetEligibleClasses(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	start := time.Now()
	records, err := h.eligibilityService.EnumEligibleClasses(tenantCtx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.logger.Metamodel().Debug("Eligible class enumeration completed", "tenantId", tenantCtx.TenantID, "count", len(records), "duration", time.Since(start))

	c.JSON(http.StatusOK, gin.H{
		"classes": records,
		"count":   len(records),
	})
}

// BindingRequest is the request body for binding construction.
type BindingRequest struct {
	ObjectClass        string `json:"objectClass" binding:"required"`
	ObjectID           string `json:"objectId" binding:"required"`
	StateAttributeCode string `json:"stateAttributeCode" binding:"required"`
	CurrentState       string `json:"currentState"`
}

// PostBinding handles POST /api/v1/lifecycle/bindings
func (h *LifecycleHandlers) PostBinding(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	var req BindingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	eligible, err := h.eligibilityService.IsEligible(tenantCtx, req.ObjectClass)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !eligible {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "class is not eligible for the lifecycle widget"})
		return
	}

	sessionID := c.GetHeader("X-Lifemap-Session-ID")
	surface := h.sessionService.SurfaceFor(tenantCtx, sessionID)
	variant := widgets.SelectVariant(surface)

	objCtx := widgets.ObjectLifecycleContext{
		ObjectClass:        req.ObjectClass,
		ObjectID:           req.ObjectID,
		StateAttributeCode: req.StateAttributeCode,
		CurrentState:       req.CurrentState,
	}

	instruction, err := h.bindingService.BuildBinding(tenantCtx, objCtx, variant)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, instruction)
}
