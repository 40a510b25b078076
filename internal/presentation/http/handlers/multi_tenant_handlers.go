// Package handlers provides HTTP handlers for tenant lifecycle management.
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/RecordKit/lifemap-go/internal/application/services"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/logging"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/performance"
)

// SetupRequest is the fresh-install payload: everything needed to stand up
// the default tenant in one call.
type SetupRequest struct {
	AdminEmail       string `json:"adminEmail" binding:"required"`
	AdminPassword    string `json:"adminPassword" binding:"required"`
	TursoDatabaseURL string `json:"tursoDatabaseURL,omitempty"`
	TursoAuthToken   string `json:"tursoAuthToken,omitempty"`
}

// MultiTenantHandlers exposes the tenant provisioning lifecycle over HTTP.
type MultiTenantHandlers struct {
	service     *services.MultiTenantService
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewMultiTenantHandlers creates a new MultiTenantHandlers instance.
func NewMultiTenantHandlers(
	service *services.MultiTenantService,
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
) *MultiTenantHandlers {
	return &MultiTenantHandlers{
		service:     service,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// HandleProvisionTenant handles POST /api/v1/tenant/provision. On success the
// tenant is reserved and its activation token returned.
func (h *MultiTenantHandlers) HandleProvisionTenant(c *gin.Context) {
	marker := h.perfTracker.StartOperation("handler_provision_tenant", "system")
	defer marker.Complete()

	var req services.ProvisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		marker.SetError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	marker.TenantID = req.TenantID

	activationToken, err := h.service.ProvisionTenant(req)
	if err != nil {
		marker.SetError(err)
		h.logger.Tenant().Error("Tenant provisioning failed", "error", err, "tenantId", req.TenantID)
		// Business failures like a taken tenant ID are conflicts, not 500s.
		c.JSON(http.StatusConflict, gin.H{"error": "Tenant provisioning failed", "details": err.Error()})
		return
	}

	marker.SetSuccess(true)
	c.JSON(http.StatusCreated, gin.H{
		"status":  "ok",
		"message": "Tenant provisioned successfully. Activation email sent.",
		"token":   activationToken,
	})
}

// HandleActivateTenant handles POST /api/v1/tenant/activation.
func (h *MultiTenantHandlers) HandleActivateTenant(c *gin.Context) {
	marker := h.perfTracker.StartOperation("handler_activate_tenant", "system")
	defer marker.Complete()

	var req services.ActivationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		marker.SetError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.service.ActivateTenant(req.Token); err != nil {
		marker.SetError(err)
		h.logger.Tenant().Error("Tenant activation failed", "error", err)
		c.JSON(http.StatusConflict, gin.H{"error": "Tenant activation failed", "details": err.Error()})
		return
	}

	marker.SetSuccess(true)
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Tenant activated successfully."})
}

// HandleGetCapacity handles GET /api/v1/tenant/capacity.
func (h *MultiTenantHandlers) HandleGetCapacity(c *gin.Context) {
	marker := h.perfTracker.StartOperation("handler_get_capacity", "system")
	defer marker.Complete()

	capacity, err := h.service.GetCapacity()
	if err != nil {
		marker.SetError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get capacity", "details": err.Error()})
		return
	}

	marker.SetSuccess(true)
	c.JSON(http.StatusOK, capacity)
}

// HandleSetupInitialize handles POST /api/v1/setup/initialize: a fresh
// install provisions and activates the default tenant in one step. Only
// available while the default tenant is still inactive.
func (h *MultiTenantHandlers) HandleSetupInitialize(c *gin.Context) {
	marker := h.perfTracker.StartOperation("handler_setup_initialize", "default")
	defer marker.Complete()

	registry := h.service.GetTenantManager().GetDetector().GetRegistry()
	defaultInfo, exists := registry.Tenants["default"]
	if !exists || defaultInfo.Status != "inactive" {
		marker.SetError(fmt.Errorf("setup not available, default tenant status: %s", defaultInfo.Status))
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Setup not available",
			"details": "System is already configured or not in fresh install state",
		})
		return
	}

	var req SetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		marker.SetError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	h.logger.Tenant().Info("Starting fresh install setup", "tenantId", "default")

	activationToken, err := h.service.ProvisionTenant(services.ProvisionRequest{
		TenantID:         "default",
		AdminEmail:       req.AdminEmail,
		AdminPassword:    req.AdminPassword,
		Domains:          []string{"*"},
		TursoDatabaseURL: req.TursoDatabaseURL,
		TursoAuthToken:   req.TursoAuthToken,
	})
	if err != nil {
		marker.SetError(err)
		h.logger.Tenant().Error("Setup provisioning failed", "error", err)
		c.JSON(http.StatusConflict, gin.H{"error": "Setup failed", "details": err.Error()})
		return
	}

	if err := h.service.ActivateTenant(activationToken); err != nil {
		marker.SetError(err)
		h.logger.Tenant().Error("Setup activation failed", "error", err)
		c.JSON(http.StatusConflict, gin.H{"error": "Activation failed", "details": err.Error()})
		return
	}

	marker.SetSuccess(true)
	h.logger.Tenant().Info("Fresh install setup completed")
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Setup completed successfully"})
}
