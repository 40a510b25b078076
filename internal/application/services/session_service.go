package services

import (
	"time"

	"github.com/RecordKit/lifemap-go/internal/domain/entities/widgets"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/caching/types"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/logging"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/security"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/tenant"
)

// sessionLifetime bounds how long a session stays resumable without activity.
const sessionLifetime = 24 * time.Hour

// SessionService manages the ephemeral sessions widget instances hang off.
type SessionService struct {
	logger *logging.ChanneledLogger
}

// NewSessionService creates a new session service
func NewSessionService(logger *logging.ChanneledLogger) *SessionService {
	return &SessionService{logger: logger}
}

// GetOrCreateSession resumes a known session or mints a new one for the
// surface. The surface is sticky for the session's lifetime; it is what
// variant selection keys on.
func (s *SessionService) GetOrCreateSession(tenantCtx *tenant.Context, sessionID string, surface widgets.Surface, role string) *types.SessionData {
	cacheManager := tenantCtx.CacheManager

	if sessionID != "" {
		if session, found := cacheManager.GetSession(tenantCtx.TenantID, sessionID); found {
			session.LastActivity = time.Now().UTC()
			cacheManager.SetSession(tenantCtx.TenantID, session)
			return session
		}
	}

	now := time.Now().UTC()
	session := &types.SessionData{
		SessionID:    security.GenerateULID(),
		Role:         role,
		Surface:      string(surface),
		CreatedAt:    now,
		LastActivity: now,
		ExpiresAt:    now.Add(sessionLifetime),
	}
	cacheManager.SetSession(tenantCtx.TenantID, session)

	s.logger.Widget().Debug("Session created", "tenantId", tenantCtx.TenantID, "sessionId", session.SessionID, "surface", surface)
	return session
}

// SurfaceFor returns the surface recorded for a session, defaulting to the
// portal for unknown sessions.
func (s *SessionService) SurfaceFor(tenantCtx *tenant.Context, sessionID string) widgets.Surface {
	if session, found := tenantCtx.CacheManager.GetSession(tenantCtx.TenantID, sessionID); found {
		if session.Surface == string(widgets.SurfaceConsole) {
			return widgets.SurfaceConsole
		}
	}
	return widgets.SurfacePortal
}

// EndSession removes a session; its widget instances are destroyed with it.
func (s *SessionService) EndSession(tenantCtx *tenant.Context, sessionID string) {
	tenantCtx.CacheManager.RemoveSession(tenantCtx.TenantID, sessionID)
	s.logger.Widget().Debug("Session ended", "tenantId", tenantCtx.TenantID, "sessionId", sessionID)
}
