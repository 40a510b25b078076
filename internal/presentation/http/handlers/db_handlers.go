// Package handlers provides HTTP request handlers for the presentation layer.
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/RecordKit/lifemap-go/internal/application/services"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/logging"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/performance"
	"github.com/RecordKit/lifemap-go/internal/presentation/http/middleware"
)

// DatabaseHandlers exposes the metamodel mirror status and health endpoints.
type DatabaseHandlers struct {
	dbService   *services.DBService
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewDBHandlers creates database handlers with injected dependencies.
func NewDBHandlers(dbService *services.DBService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *DatabaseHandlers {
	return &DatabaseHandlers{
		dbService:   dbService,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// GetDatabaseStatus handles GET /api/v1/db/status. A broken mirror still
// answers 200 with status "error" in the body; the endpoint reports, the
// caller decides.
func (h *DatabaseHandlers) GetDatabaseStatus(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	marker := h.perfTracker.StartOperation("database_status_request", tenantCtx.TenantID)
	defer marker.Complete()

	status := h.dbService.CheckStatus(tenantCtx)
	if status.Status == "error" {
		marker.SetError(fmt.Errorf("%s", status.Error))
		h.logger.Database().Error("Mirror status check failed",
			"tenantId", tenantCtx.TenantID, "error", status.Error)
	} else {
		marker.SetSuccess(true)
		h.logger.Database().Info("Mirror status check completed",
			"tenantId", tenantCtx.TenantID, "status", status.Status)
	}

	c.JSON(http.StatusOK, status)
}

// GetDatabaseHealth handles GET /api/v1/db/health: the status check plus
// class, lifecycle, and integrity counts.
func (h *DatabaseHandlers) GetDatabaseHealth(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	marker := h.perfTracker.StartOperation("database_health_request", tenantCtx.TenantID)
	defer marker.Complete()

	health := h.dbService.PerformHealthCheck(tenantCtx)
	marker.SetSuccess(health.Status == "healthy")
	h.logger.Database().Info("Mirror health check completed",
		"tenantId", tenantCtx.TenantID,
		"status", health.Status,
		"classes", health.ClassCount,
		"danglingAttributeRefs", health.DanglingAttributeRefs)

	c.JSON(http.StatusOK, health)
}
