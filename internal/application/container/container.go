// Package container provides dependency injection for all singleton services
package container

import (
	"github.com/RecordKit/lifemap-go/internal/application/services"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/caching/manager"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/email"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/messaging"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/logging"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/performance"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/tenant"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Widget Services (stateless singletons)
	EligibilityService *services.EligibilityService
	DiagramService     *services.DiagramService
	BindingService     *services.BindingService
	WidgetService      *services.WidgetService
	StateService       *services.StateService
	MetamodelService   *services.MetamodelService

	// Session and Auth Services
	SessionService *services.SessionService
	AuthService    *services.AuthService

	// System Services
	SysOpService       *services.SysOpService
	DBService          *services.DBService
	MultiTenantService *services.MultiTenantService

	// Infrastructure Dependencies
	TenantManager    *tenant.Manager
	CacheManager     *manager.Manager
	Logger           *logging.ChanneledLogger
	PerfTracker      *performance.Tracker
	Broadcaster      *messaging.SSEBroadcaster
	SysOpBroadcaster *messaging.SysOpBroadcaster
	LogBroadcaster   *logging.LogBroadcaster
}

// NewContainer creates and wires all singleton services
func NewContainer(tenantManager *tenant.Manager, cacheManager *manager.Manager, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *Container {
	broadcaster := messaging.NewSSEBroadcaster(logger)
	sysopBroadcaster := messaging.NewSysOpBroadcaster(tenantManager, cacheManager)

	// Tenant provisioning emails are optional; without credentials the
	// provisioning flow still works, the operator just relays the
	// activation link manually.
	emailService, err := email.NewService()
	if err != nil {
		logger.Startup().Warn("Email service unavailable, activation emails disabled", "reason", err.Error())
		emailService = email.NewNoopService()
	}

	bindingService := services.NewBindingService(logger, perfTracker)
	diagramService := services.NewDiagramService(logger, perfTracker)

	return &Container{
		EligibilityService: services.NewEligibilityService(logger, perfTracker),
		DiagramService:     diagramService,
		BindingService:     bindingService,
		WidgetService:      services.NewWidgetService(logger, perfTracker, bindingService, diagramService),
		StateService:       services.NewStateService(logger, perfTracker, broadcaster),
		MetamodelService:   services.NewMetamodelService(logger, perfTracker),

		SessionService: services.NewSessionService(logger),
		AuthService:    services.NewAuthService(logger, perfTracker),

		SysOpService:       services.NewSysOpService(logger),
		DBService:          services.NewDBService(logger, perfTracker),
		MultiTenantService: services.NewMultiTenantService(tenantManager, emailService, logger, perfTracker),

		TenantManager:    tenantManager,
		CacheManager:     cacheManager,
		Logger:           logger,
		PerfTracker:      perfTracker,
		Broadcaster:      broadcaster,
		SysOpBroadcaster: sysopBroadcaster,
		LogBroadcaster:   logging.GetBroadcaster(),
	}
}
