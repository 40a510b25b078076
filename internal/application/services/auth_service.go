// Package services provides application-level orchestration services
package services

import (
	"slices"

	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/logging"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/performance"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/security"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/tenant"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles console authentication and JWT validation. An
// authenticated console session is what selects the backoffice widget
// variant; anonymous portal traffic never passes through here.
type AuthService struct {
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewAuthService creates a new authentication service
func NewAuthService(logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *AuthService {
	return &AuthService{
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// AuthResult holds authentication result data
type AuthResult struct {
	Token   string `json:"token"`
	Role    string `json:"role"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// AuthenticateConsole validates admin or editor credentials and generates
// a console JWT.
func (a *AuthService) AuthenticateConsole(password string, tenantCtx *tenant.Context) *AuthResult {
	marker := a.perfTracker.StartOperation("console_auth", tenantCtx.TenantID)
	defer marker.Complete()

	var role string

	if tenantCtx.Config.AdminPassword != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(tenantCtx.Config.AdminPassword), []byte(password)); err == nil {
			role = "admin"
		}
	}

	if role == "" && tenantCtx.Config.EditorPassword != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(tenantCtx.Config.EditorPassword), []byte(password)); err == nil {
			role = "editor"
		}
	}

	// Fallback for plaintext passwords during transition/testing
	if role == "" {
		if tenantCtx.Config.AdminPassword != "" && password == tenantCtx.Config.AdminPassword {
			role = "admin"
		} else if tenantCtx.Config.EditorPassword != "" && password == tenantCtx.Config.EditorPassword {
			role = "editor"
		}
	}

	if role == "" {
		a.logger.Auth().Warn("Console authentication failed", "tenantId", tenantCtx.TenantID)
		marker.SetSuccess(false)
		return &AuthResult{Success: false, Error: "Invalid credentials"}
	}

	token, err := security.GenerateConsoleToken(role, tenantCtx.TenantID, tenantCtx.Config.JWTSecret)
	if err != nil {
		a.logger.Auth().Error("Console token generation failed", "error", err, "tenantId", tenantCtx.TenantID)
		return &AuthResult{Success: false, Error: "Token generation failed"}
	}

	a.logger.Auth().Info("Console user authenticated", "tenantId", tenantCtx.TenantID, "role", role)
	return &AuthResult{Token: token, Role: role, Success: true}
}

// ValidateAdminToken checks if a token belongs to an admin user
func (a *AuthService) ValidateAdminToken(tokenString string, tenantCtx *tenant.Context) bool {
	return a.ValidateTokenWithRoles(tokenString, tenantCtx, []string{"admin"})
}

// ValidateAdminOrEditorToken checks if a token belongs to an admin or editor user
func (a *AuthService) ValidateAdminOrEditorToken(tokenString string, tenantCtx *tenant.Context) bool {
	return a.ValidateTokenWithRoles(tokenString, tenantCtx, []string{"admin", "editor"})
}

// ValidateTokenWithRoles validates a token and checks if the role is in the allowed list
func (a *AuthService) ValidateTokenWithRoles(tokenString string, tenantCtx *tenant.Context, allowedRoles []string) bool {
	if tokenString == "" {
		return false
	}

	claims, err := security.ValidateJWT(tokenString, tenantCtx.Config.JWTSecret)
	if err != nil {
		return false
	}

	tokenType, ok := claims["type"].(string)
	if !ok || tokenType != "console_auth" {
		return false
	}

	tokenTenantID, ok := claims["tenantId"].(string)
	if !ok || tokenTenantID != tenantCtx.TenantID {
		return false
	}

	return slices.Contains(allowedRoles, security.RoleFromClaims(claims))
}

// ConsoleRole returns the validated console role carried by a token, or an
// empty string for anonymous or invalid tokens.
func (a *AuthService) ConsoleRole(tokenString string, tenantCtx *tenant.Context) string {
	if !a.ValidateAdminOrEditorToken(tokenString, tenantCtx) {
		return ""
	}
	claims, err := security.ValidateJWT(tokenString, tenantCtx.Config.JWTSecret)
	if err != nil {
		return ""
	}
	return security.RoleFromClaims(claims)
}
