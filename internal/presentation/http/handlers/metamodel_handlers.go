package handlers

import (
	"net/http"
	"time"

	"github.com/RecordKit/lifemap-go/internal/application/services"
	"github.com/RecordKit/lifemap-go/internal/domain/entities/metamodel"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/logging"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/performance"
	"github.com/RecordKit/lifemap-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// MetamodelHandlers exposes admin CRUD over the class registry and lifecycle
// definitions. These routes change what the widget system considers eligible,
// so they sit behind admin authentication.
type MetamodelHandlers struct {
	metamodelService *services.MetamodelService
	logger           *logging.ChanneledLogger
	perfTracker      *performance.Tracker
}

// NewMetamodelHandlers creates a new metamodel handlers instance
func NewMetamodelHandlers(metamodelService *services.MetamodelService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *MetamodelHandlers {
	return &MetamodelHandlers{
		metamodelService: metamodelService,
		logger:           logger,
		perfTracker:      perfTracker,
	}
}

// GetClasses handles GET /api/v1/metamodel/classes
func (h *MetamodelHandlers) GetClasses(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	classes, err := tenantCtx.ClassRepo().FindAll(tenantCtx.TenantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"classes": classes, "count": len(classes)})
}

// GetClass handles GET /api/v1/metamodel/classes/:className
func (h *MetamodelHandlers) GetClass(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	className := c.Param("className")
	class, err := tenantCtx.ClassRepo().FindByName(tenantCtx.TenantID, className)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if class == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "class not found"})
		return
	}

	lifecycle, err := tenantCtx.LifecycleRepo().FindByClass(tenantCtx.TenantID, className)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"class": class, "lifecycle": lifecycle})
}

// PutClass handles PUT /api/v1/metamodel/classes/:className
func (h *MetamodelHandlers) PutClass(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	start := time.Now()
	marker := h.perfTracker.StartOperation("put_class_request", tenantCtx.TenantID)
	defer marker.Complete()

	var class metamodel.Class
	if err := c.ShouldBindJSON(&class); err != nil {
		marker.SetError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid class payload"})
		return
	}
	class.Name = c.Param("className")

	if err := h.metamodelService.SaveClass(tenantCtx, &class); err != nil {
		marker.SetError(err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	marker.SetSuccess(true)
	h.logger.Perf().Info("Performance for put class request", "duration", time.Since(start), "tenantId", tenantCtx.TenantID, "success", true)
	c.JSON(http.StatusOK, gin.H{"class": class})
}

// DeleteClass handles DELETE /api/v1/metamodel/classes/:className
func (h *MetamodelHandlers) DeleteClass(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	className := c.Param("className")
	if err := h.metamodelService.DeleteClass(tenantCtx, className); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": className})
}

// PutLifecycle handles PUT /api/v1/metamodel/classes/:className/lifecycle
func (h *MetamodelHandlers) PutLifecycle(c *gin.Context) {
	tenantCtx, exists := middleware.GetTenantContext(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	start := time.Now()
	marker := h.perfTracker.StartOperation("put_lifecycle_request", tenantCtx.TenantID)
	defer marker.Complete()

	var lifecycle metamodel.Lifecycle
	if err := c.ShouldBindJSON(&lifecycle); err != nil {
		marker.SetError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lifecycle payload"})
		return
	}
	lifecycle.ClassName = c.Param("className")

	if err := h.metamodelService.SaveLifecycle(tenantCtx, &lifecycle); err != nil {
		marker.SetError(err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	marker.SetSuccess(true)
	h.logger.Perf().Info("Performance for put lifecycle request", "duration", time.Since(start), "tenantId", tenantCtx.TenantID, "success", true)
	c.JSON(http.StatusOK, gin.H{"lifecycle": lifecycle})
}
