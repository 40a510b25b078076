// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"github.com/RecordKit/lifemap-go/internal/application/container"
	"github.com/RecordKit/lifemap-go/internal/presentation/http/handlers"
	"github.com/RecordKit/lifemap-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	// Serve static SysOp dashboard files from the /sysop URL.
	r.Static("/sysop", "web/sysop")
	r.StaticFile("/favicon.ico", "web/sysop/favicon.ico")

	// Initialize handlers
	lifecycleHandlers := handlers.NewLifecycleHandlers(container.EligibilityService, container.BindingService, container.SessionService, container.Logger, container.PerfTracker)
	widgetHandlers := handlers.NewWidgetHandlers(container.WidgetService, container.SessionService, container.Logger, container.PerfTracker)
	fragmentHandlers := handlers.NewFragmentHandlers(container.DiagramService, container.SessionService, container.Logger)
	metamodelHandlers := handlers.NewMetamodelHandlers(container.MetamodelService, container.Logger, container.PerfTracker)
	authHandlers := handlers.NewAuthHandlers(container.AuthService, container.SessionService, container.Broadcaster, container.Logger, container.PerfTracker)
	stateHandlers := handlers.NewStateHandlers(container.StateService, container.Logger, container.PerfTracker)
	dbHandlers := handlers.NewDBHandlers(container.DBService, container.Logger, container.PerfTracker)
	sysopHandlers := handlers.NewSysOpHandlers(container)
	multiTenantHandlers := handlers.NewMultiTenantHandlers(container.MultiTenantService, container.Logger, container.PerfTracker)

	// SysOp API endpoints moved to /api/sysop to avoid conflict with static file serving
	sysopAPI := r.Group("/api/sysop")
	{
		sysopAPI.GET("/auth", sysopHandlers.AuthCheck)
		sysopAPI.POST("/login", sysopHandlers.Login)

		// SysOp Authenticated endpoints
		sysopAPI.Use(sysopHandlers.SysOpAuthMiddleware())
		{
			sysopAPI.GET("/tenants", sysopHandlers.GetTenants)
			sysopAPI.GET("/activity", sysopHandlers.GetActivityMetrics)
			sysopAPI.GET("/dashboard", sysopHandlers.GetDashboard)
			sysopAPI.GET("/ws", sysopHandlers.DashboardWS)
			sysopAPI.GET("/system", sysopHandlers.GetSystemStats)
			sysopAPI.POST("/tenant-token", sysopHandlers.GetTenantToken)
			sysopAPI.GET("/logs/levels", sysopHandlers.GetLogLevels)
			sysopAPI.POST("/logs/levels", sysopHandlers.SetLogLevel)
		}
	}

	// Log streaming is a special case and can remain at top level
	r.GET("/sysop-logs/stream", sysopHandlers.StreamLogs)

	// Public, non-tenant-specific admin routes for provisioning.
	tenantAPI := r.Group("/api/v1/tenant")
	{
		tenantAPI.POST("/provision", multiTenantHandlers.HandleProvisionTenant)
		tenantAPI.POST("/activation", multiTenantHandlers.HandleActivateTenant)
		tenantAPI.GET("/capacity", multiTenantHandlers.HandleGetCapacity)
	}

	// Fresh-install setup for the default tenant.
	r.POST("/api/v1/setup/initialize", multiTenantHandlers.HandleSetupInitialize)

	// API routes with tenant middleware
	api := r.Group("/api/v1")
	api.Use(middleware.TenantMiddleware(container.TenantManager, container.PerfTracker))
	api.Use(middleware.DomainValidationMiddleware(container.TenantManager))
	{
		// Authentication and system routes
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandlers.PostLogin)
			auth.GET("/sse", authHandlers.GetSSE)
		}

		// Eligibility and binding instructions for host record views
		lifecycle := api.Group("/lifecycle")
		lifecycle.Use(middleware.OptionalConsoleAuth(container.AuthService))
		{
			lifecycle.GET("/eligibility/:className", lifecycleHandlers.GetEligibility)
			lifecycle.GET("/classes", lifecycleHandlers.GetEligibleClasses)
			lifecycle.POST("/bindings", lifecycleHandlers.PostBinding)
		}

		// Widget instance lifecycle
		widgets := api.Group("/widgets")
		widgets.Use(middleware.OptionalConsoleAuth(container.AuthService))
		{
			widgets.POST("/bind", widgetHandlers.PostBind)
			widgets.POST("/event", widgetHandlers.PostEvent)
		}

		// Rendered diagram fragments
		api.GET("/fragments/lifecycle/:className/:objectId", fragmentHandlers.GetLifecycleFragment)

		// Host record state changes (separate from auth)
		api.POST("/state", stateHandlers.PostState)

		// Metamodel administration
		metamodel := api.Group("/metamodel")
		metamodel.Use(middleware.AdminAuthMiddleware(container.AuthService))
		{
			metamodel.GET("/classes", metamodelHandlers.GetClasses)
			metamodel.GET("/classes/:className", metamodelHandlers.GetClass)
			metamodel.PUT("/classes/:className", metamodelHandlers.PutClass)
			metamodel.DELETE("/classes/:className", metamodelHandlers.DeleteClass)
			metamodel.PUT("/classes/:className/lifecycle", metamodelHandlers.PutLifecycle)
		}

		// Database status
		api.GET("/db/status", dbHandlers.GetDatabaseStatus)
		api.GET("/db/health", dbHandlers.GetDatabaseHealth)
	}

	return r
}
