package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RecordKit/lifemap-go/internal/domain/entities/widgets"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/caching/manager"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/logging"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/tenant"
)

func newQuietLogger(t *testing.T) *logging.ChanneledLogger {
	t.Helper()
	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{
		OutputToFile:    false,
		OutputToConsole: false,
	})
	require.NoError(t, err)
	return logger
}

func newTestTenantContext(t *testing.T) *tenant.Context {
	t.Helper()
	logger := newQuietLogger(t)
	cacheManager := manager.NewManager(logger)
	cacheManager.InitializeTenant("test")
	return &tenant.Context{
		TenantID:     "test",
		Status:       "active",
		CacheManager: cacheManager,
		Logger:       logger,
	}
}

func TestGetOrCreateSession_NewSession(t *testing.T) {
	tenantCtx := newTestTenantContext(t)
	svc := NewSessionService(tenantCtx.Logger)

	session := svc.GetOrCreateSession(tenantCtx, "", widgets.SurfaceConsole, "admin")
	require.NotNil(t, session)
	assert.NotEmpty(t, session.SessionID)
	assert.Equal(t, "admin", session.Role)
	assert.Equal(t, string(widgets.SurfaceConsole), session.Surface)
	assert.True(t, session.ExpiresAt.After(session.CreatedAt))
}

func TestGetOrCreateSession_ResumesExisting(t *testing.T) {
	tenantCtx := newTestTenantContext(t)
	svc := NewSessionService(tenantCtx.Logger)

	first := svc.GetOrCreateSession(tenantCtx, "", widgets.SurfacePortal, "")
	resumed := svc.GetOrCreateSession(tenantCtx, first.SessionID, widgets.SurfaceConsole, "admin")

	assert.Equal(t, first.SessionID, resumed.SessionID)
	// The surface is sticky: resuming from another surface does not rewrite it.
	assert.Equal(t, string(widgets.SurfacePortal), resumed.Surface)
}

func TestGetOrCreateSession_UnknownIDMintsNew(t *testing.T) {
	tenantCtx := newTestTenantContext(t)
	svc := NewSessionService(tenantCtx.Logger)

	session := svc.GetOrCreateSession(tenantCtx, "no-such-session", widgets.SurfacePortal, "")
	assert.NotEmpty(t, session.SessionID)
	assert.NotEqual(t, "no-such-session", session.SessionID)
}

func TestSurfaceFor(t *testing.T) {
	tenantCtx := newTestTenantContext(t)
	svc := NewSessionService(tenantCtx.Logger)

	console := svc.GetOrCreateSession(tenantCtx, "", widgets.SurfaceConsole, "admin")
	portal := svc.GetOrCreateSession(tenantCtx, "", widgets.SurfacePortal, "")

	assert.Equal(t, widgets.SurfaceConsole, svc.SurfaceFor(tenantCtx, console.SessionID))
	assert.Equal(t, widgets.SurfacePortal, svc.SurfaceFor(tenantCtx, portal.SessionID))
	// Unknown sessions degrade to the portal surface.
	assert.Equal(t, widgets.SurfacePortal, svc.SurfaceFor(tenantCtx, "missing"))
}

func TestEndSession(t *testing.T) {
	tenantCtx := newTestTenantContext(t)
	svc := NewSessionService(tenantCtx.Logger)

	session := svc.GetOrCreateSession(tenantCtx, "", widgets.SurfacePortal, "")
	svc.EndSession(tenantCtx, session.SessionID)

	_, found := tenantCtx.CacheManager.GetSession(tenantCtx.TenantID, session.SessionID)
	assert.False(t, found)
}
