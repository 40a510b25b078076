// Package startup boots the lifemap server: tenant pre-activation, cache
// priming, the dependency container, background workers, and the HTTP
// listener, then blocks until a shutdown signal.
package startup

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/RecordKit/lifemap-go/internal/application/container"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/caching/cleanup"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/logging"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/performance"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/tenant"
	"github.com/RecordKit/lifemap-go/internal/presentation/http/server"
	"github.com/RecordKit/lifemap-go/pkg/config"
)

const banner = "\033[32m" + `

  ██   ▀▀ ██▀▀ ██▀▀ ██▄ ▄██ ▄▀▀▄ ██▀▄
  ██   ██ ██▀  ██▀  ██ █ ██ ██▀█ ██▀
  ██▄▄ ██ ██   ██▄▄ ██   ██ ██ █ ██
` + "\033[97m" + `
  lifecycle widgets for your records
` + "\033[0m"

// Initialize runs the full startup sequence and blocks until shutdown.
func Initialize() error {
	setupLogging()
	start := time.Now().UTC()

	ctx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()

	log.Println(banner)
	log.Println("Initializing...")

	logger, err := logging.NewChanneledLogger(logging.DefaultLoggerConfig())
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	perfTracker := performance.NewTracker()
	tenantManager := tenant.NewManager(logger)

	registry, err := bootstrapTenants(tenantManager)
	if err != nil {
		return err
	}

	activeCount, err := tenantManager.GetActiveTenantCount()
	if err != nil {
		return fmt.Errorf("failed to get active tenant count: %w", err)
	}
	log.Printf("✓ %d active tenant connections verified", activeCount)

	cacheManager := tenantManager.GetCacheManager()
	for tenantID, info := range registry.Tenants {
		if info.Status == "active" {
			log.Printf("✓ Initializing cache for tenant: %s", tenantID)
			cacheManager.InitializeTenant(tenantID)
		}
	}

	appContainer := container.NewContainer(tenantManager, cacheManager, logger, perfTracker)
	logger.Startup().Info("Container initialization complete - switching to channeled logging")

	logger.Startup().Info("Starting SysOp dashboard broadcaster...")
	go appContainer.SysOpBroadcaster.Run()

	logger.Startup().Info("Starting background cleanup worker...")
	cleanupWorker := cleanup.NewWorker(cacheManager, tenantManager.GetDetector(), perfTracker, cleanup.NewConfig())
	go cleanupWorker.Start(ctx)

	httpServer := server.New(config.Port, appContainer)
	go func() {
		logger.System().Info("Starting HTTP server", "address", ":"+config.Port)
		if err := httpServer.Start(); err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
		}
	}()

	logger.Startup().Info("Application startup complete",
		"totalDuration", time.Since(start),
		"activeTenants", activeCount,
		"port", config.Port)

	waitForShutdown()
	logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")
	shutdownStart := time.Now()

	cancelBackground()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	} else {
		logger.Shutdown().Info("HTTP server stopped")
	}

	if err := tenantManager.Close(); err != nil {
		logger.Shutdown().Error("Error closing tenant manager", "error", err.Error())
	} else {
		logger.Shutdown().Info("Tenant manager closed")
	}

	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", time.Since(start),
		"shutdownDuration", time.Since(shutdownStart))

	return nil
}

// bootstrapTenants loads the registry, seeds the default tenant on a fresh
// install, and pre-activates every registered tenant.
func bootstrapTenants(manager *tenant.Manager) (*tenant.TenantRegistry, error) {
	registry, err := tenant.LoadTenantRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant registry: %w", err)
	}

	if len(registry.Tenants) == 0 {
		log.Println("No tenants found in registry - creating default tenant")
		if err := tenant.RegisterTenant("default"); err != nil {
			return nil, fmt.Errorf("failed to register default tenant: %w", err)
		}
		if registry, err = tenant.LoadTenantRegistry(); err != nil {
			return nil, fmt.Errorf("failed to reload registry: %w", err)
		}
	}
	log.Printf("Found %d tenants in registry", len(registry.Tenants))

	if err := manager.PreActivateAllTenants(); err != nil {
		return nil, fmt.Errorf("tenant pre-activation failed: %w", err)
	}
	if err := manager.ValidatePreActivation(); err != nil {
		return nil, fmt.Errorf("tenant validation failed: %w", err)
	}
	return registry, nil
}

func waitForShutdown() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
}

func setupLogging() {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
