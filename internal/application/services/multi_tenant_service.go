// Package services provides application-level orchestration services
package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"golang.org/x/crypto/bcrypt"

	"github.com/RecordKit/lifemap-go/internal/infrastructure/database"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/email"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/logging"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/performance"
	persistence "github.com/RecordKit/lifemap-go/internal/infrastructure/persistence/database"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/security"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/tenant"
	"github.com/RecordKit/lifemap-go/pkg/config"
)

var tenantIDPattern = regexp.MustCompile(`^[a-z0-9-]{3,12}$`)

// MultiTenantService walks a tenant through its provisioning lifecycle:
// reserve (config written, activation token issued), activate (mirror schema
// created and seeded), serve.
type MultiTenantService struct {
	tenantManager *tenant.Manager
	emailService  email.Service
	logger        *logging.ChanneledLogger
	perfTracker   *performance.Tracker
}

// NewMultiTenantService creates a new MultiTenantService.
func NewMultiTenantService(
	tenantManager *tenant.Manager,
	emailService email.Service,
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
) *MultiTenantService {
	return &MultiTenantService{
		tenantManager: tenantManager,
		emailService:  emailService,
		logger:        logger,
		perfTracker:   perfTracker,
	}
}

// ProvisionRequest defines the input for creating a new tenant.
type ProvisionRequest struct {
	TenantID         string   `json:"tenantId"`
	AdminEmail       string   `json:"adminEmail"`
	AdminPassword    string   `json:"adminPassword"`
	Domains          []string `json:"domains"`
	TursoDatabaseURL string   `json:"tursoDatabaseURL"`
	TursoAuthToken   string   `json:"tursoAuthToken"`
}

// ActivationRequest defines the input for activating a tenant.
type ActivationRequest struct {
	Token string `json:"token"`
}

// CapacityResult defines the output for the capacity check.
type CapacityResult struct {
	Available      bool `json:"available"`
	CurrentTenants int  `json:"currentTenants"`
	MaxTenants     int  `json:"maxTenants"`
	AvailableSlots int  `json:"availableSlots"`
}

// GetTenantManager exposes the tenant manager for setup status checks.
func (s *MultiTenantService) GetTenantManager() *tenant.Manager {
	return s.tenantManager
}

// ProvisionTenant reserves a new tenant: validates the request, probes the
// Turso credentials when given, writes the tenant config with fresh secrets,
// and mails the activation link. The activation token is returned so
// fresh-install setup can activate immediately.
func (s *MultiTenantService) ProvisionTenant(req ProvisionRequest) (string, error) {
	marker := s.perfTracker.StartOperation("service_provision_tenant", req.TenantID)
	defer marker.Complete()

	if err := s.validateProvisionRequest(req); err != nil {
		marker.SetError(err)
		return "", err
	}

	useTurso := req.TursoDatabaseURL != "" && req.TursoAuthToken != ""
	if useTurso {
		if err := persistence.TestTursoConnection(req.TursoDatabaseURL, req.TursoAuthToken); err != nil {
			marker.SetError(err)
			return "", fmt.Errorf("turso credentials rejected: %w", err)
		}
	}

	cfg, activationToken, err := s.buildTenantConfig(req, useTurso)
	if err != nil {
		marker.SetError(err)
		return "", err
	}

	if err := s.saveTenantConfig(cfg); err != nil {
		marker.SetError(err)
		return "", err
	}
	if err := s.updateRegistryEntry(req.TenantID, "reserved", req.Domains); err != nil {
		marker.SetError(err)
		return "", err
	}

	activationURL := fmt.Sprintf("https://%s/activate?token=%s", req.Domains[0], activationToken)
	if err := s.emailService.SendTenantActivationEmail(req.AdminEmail, req.TenantID, activationURL); err != nil {
		// The reservation stands; the operator can relay the link by hand.
		s.logger.Tenant().Error("Failed to send activation email", "error", err, "tenantId", req.TenantID)
	}

	marker.SetSuccess(true)
	s.logger.Tenant().Info("Tenant reserved", "tenantId", req.TenantID, "turso", useTurso)
	return activationToken, nil
}

// ActivateTenant finalizes tenant setup: creates and seeds the metamodel
// mirror schema, marks the tenant active, and burns the activation token.
func (s *MultiTenantService) ActivateTenant(token string) error {
	marker := s.perfTracker.StartOperation("service_activate_tenant", "unknown")
	defer marker.Complete()

	tenantID, err := s.findTenantByActivationToken(token)
	if err != nil {
		marker.SetError(err)
		return err
	}
	marker.TenantID = tenantID

	ctx, err := s.tenantManager.NewContextFromID(tenantID)
	if err != nil {
		marker.SetError(err)
		return fmt.Errorf("failed to create context for activation: %w", err)
	}
	defer ctx.Close()

	creator := database.NewTableCreator()
	if err := creator.CreateSchema(ctx.Database.Conn); err != nil {
		marker.SetError(err)
		return fmt.Errorf("database schema creation failed: %w", err)
	}
	if err := creator.SeedInitialContent(ctx.Database.Conn); err != nil {
		marker.SetError(err)
		return fmt.Errorf("database seeding failed: %w", err)
	}

	if err := s.updateRegistryEntry(tenantID, "active", nil); err != nil {
		marker.SetError(err)
		return err
	}

	ctx.Config.ActivationToken = ""
	if err := s.saveTenantConfig(ctx.Config); err != nil {
		s.logger.Tenant().Warn("Failed to clear activation token after activation", "error", err, "tenantId", tenantID)
	}

	marker.SetSuccess(true)
	s.logger.Tenant().Info("Tenant activated", "tenantId", tenantID)
	return nil
}

// GetCapacity checks the system's capacity for new tenants.
func (s *MultiTenantService) GetCapacity() (*CapacityResult, error) {
	registry, err := tenant.LoadTenantRegistry()
	if err != nil {
		return nil, fmt.Errorf("could not load tenant registry: %w", err)
	}

	current := len(registry.Tenants)
	slots := config.MaxTenants - current
	if slots < 0 {
		slots = 0
	}

	return &CapacityResult{
		Available:      slots > 0,
		CurrentTenants: current,
		MaxTenants:     config.MaxTenants,
		AvailableSlots: slots,
	}, nil
}

func (s *MultiTenantService) validateProvisionRequest(req ProvisionRequest) error {
	if !tenantIDPattern.MatchString(req.TenantID) {
		return fmt.Errorf("invalid tenant ID format: must be 3-12 lowercase alphanumeric characters or hyphens")
	}
	if len(req.AdminPassword) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	if len(req.Domains) == 0 || req.Domains[0] == "" {
		return fmt.Errorf("at least one domain is required")
	}

	registry, err := tenant.LoadTenantRegistry()
	if err != nil {
		return fmt.Errorf("could not load tenant registry for validation")
	}
	if _, exists := registry.Tenants[req.TenantID]; exists {
		return fmt.Errorf("tenant ID '%s' already exists", req.TenantID)
	}
	return nil
}

func (s *MultiTenantService) buildTenantConfig(req ProvisionRequest, useTurso bool) (*tenant.Config, string, error) {
	jwtSecret, err := security.GenerateSecureKey(64)
	if err != nil {
		return nil, "", fmt.Errorf("secret generation failed: %w", err)
	}
	activationToken, err := security.GenerateSecureToken(32)
	if err != nil {
		return nil, "", fmt.Errorf("token generation failed: %w", err)
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Auth().Error("Failed to hash admin password during provisioning", "error", err, "tenantId", req.TenantID)
		return nil, "", fmt.Errorf("password hashing failed")
	}

	return &tenant.Config{
		TenantID:        req.TenantID,
		TursoDatabase:   req.TursoDatabaseURL,
		TursoToken:      req.TursoAuthToken,
		JWTSecret:       jwtSecret,
		TursoEnabled:    useTurso,
		AdminPassword:   string(hashedPassword),
		ActivationToken: activationToken,
	}, activationToken, nil
}

func (s *MultiTenantService) saveTenantConfig(cfg *tenant.Config) error {
	dataDir, err := tenant.DataDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(dataDir, "config", cfg.TenantID, "env.json")
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	// The config carries secrets; keep it owner-readable only.
	return os.WriteFile(configPath, data, 0600)
}

func (s *MultiTenantService) updateRegistryEntry(tenantID, status string, domains []string) error {
	registry, err := tenant.LoadTenantRegistry()
	if err != nil {
		return fmt.Errorf("failed to load registry to update: %w", err)
	}

	info, exists := registry.Tenants[tenantID]
	if !exists {
		info = tenant.TenantInfo{TenantID: tenantID}
	}
	info.Status = status
	if domains != nil {
		info.Domains = domains
	}
	registry.Tenants[tenantID] = info

	return tenant.SaveTenantRegistry(registry)
}

func (s *MultiTenantService) findTenantByActivationToken(token string) (string, error) {
	registry, err := tenant.LoadTenantRegistry()
	if err != nil {
		return "", err
	}

	for tenantID, info := range registry.Tenants {
		if info.Status != "reserved" {
			continue
		}
		cfg, err := tenant.LoadTenantConfig(tenantID, s.logger)
		if err != nil {
			s.logger.Tenant().Warn("Could not load config for reserved tenant during activation check", "tenantId", tenantID)
			continue
		}
		if cfg.ActivationToken == token {
			return tenantID, nil
		}
	}

	return "", fmt.Errorf("invalid or expired activation token")
}
