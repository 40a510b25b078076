// Package tenant handles loading and providing tenant-specific configurations.
package tenant

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecordKit/lifemap-go/internal/infrastructure/caching/types"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/logging"
)

// Config is one tenant's provisioning record, read from its env.json.
type Config struct {
	TenantID        string                `json:"tenantId"`
	Domains         []string              `json:"domains"`
	Status          string                `json:"status"`
	DatabaseType    string                `json:"databaseType"`
	TursoDatabase   string                `json:"TURSO_DATABASE_URL"`
	TursoToken      string                `json:"TURSO_AUTH_TOKEN"`
	JWTSecret       string                `json:"JWT_SECRET"`
	TursoEnabled    bool                  `json:"TURSO_ENABLED"`
	AdminPassword   string                `json:"ADMIN_PASSWORD,omitempty"`
	EditorPassword  string                `json:"EDITOR_PASSWORD,omitempty"`
	ActivationToken string                `json:"ACTIVATION_TOKEN,omitempty"`
	SQLitePath      string                `json:"-"`
	WidgetSettings  *types.WidgetSettings `json:"-"`
}

// DataDir resolves the server's on-disk root, ~/lifemap-go-server. Tenant
// configs live under config/<tenantID>/, mirror databases under db/<tenantID>/.
func DataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find user home directory: %w", err)
	}
	return filepath.Join(homeDir, "lifemap-go-server"), nil
}

func tenantConfigDir(dataDir, tenantID string) string {
	return filepath.Join(dataDir, "config", tenantID)
}

// LoadTenantConfig reads a tenant's env.json and attaches the computed
// fields: the sqlite mirror path and the widget settings.
func LoadTenantConfig(tenantID string, logger *logging.ChanneledLogger) (*Config, error) {
	dataDir, err := DataDir()
	if err != nil {
		return nil, err
	}

	configPath := filepath.Join(tenantConfigDir(dataDir, tenantID), "env.json")
	raw, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("tenant config file not found at %s", configPath)
	}
	if err != nil {
		return nil, fmt.Errorf("could not read tenant config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("could not parse tenant config json: %w", err)
	}

	cfg.TenantID = tenantID
	cfg.SQLitePath = filepath.Join(dataDir, "db", tenantID, "lifemap.db")
	cfg.WidgetSettings = LoadWidgetSettings(tenantID, logger)

	return &cfg, nil
}

// DefaultWidgetSettings returns the widget settings used when a tenant has no
// widgets.json or when its contents cannot be parsed.
func DefaultWidgetSettings() *types.WidgetSettings {
	return &types.WidgetSettings{
		DisabledClasses:      []string{},
		ShowButtonCSSClasses: "",
		HideInternalStimuli:  true,
		LifecycleEndpoint:    "",
		Lexicon:              map[string]string{},
	}
}

// LoadWidgetSettings loads widget configuration for a specific tenant.
// A malformed or missing widgets.json degrades to defaults instead of
// failing the tenant: widgets stay functional, the disabled set is empty.
func LoadWidgetSettings(tenantID string, logger *logging.ChanneledLogger) *types.WidgetSettings {
	dataDir, err := DataDir()
	if err != nil {
		return DefaultWidgetSettings()
	}

	widgetsPath := filepath.Join(tenantConfigDir(dataDir, tenantID), "widgets.json")
	data, err := os.ReadFile(widgetsPath)
	if err != nil {
		if !os.IsNotExist(err) && logger != nil {
			logger.Tenant().Warn("Could not read widget settings, using defaults", "tenantId", tenantID, "error", err.Error())
		}
		return DefaultWidgetSettings()
	}

	var settings types.WidgetSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		if logger != nil {
			logger.Tenant().Warn("Malformed widget settings, using defaults", "tenantId", tenantID, "error", err.Error())
		}
		return DefaultWidgetSettings()
	}

	if settings.DisabledClasses == nil {
		settings.DisabledClasses = []string{}
	}
	if settings.Lexicon == nil {
		settings.Lexicon = map[string]string{}
	}
	return &settings
}

// TenantRegistry is the system-wide tenant index, one entry per provisioned
// tenant, persisted at config/system/tenants.json.
type TenantRegistry struct {
	Tenants map[string]TenantInfo `json:"tenants"`
}

// TenantInfo holds the registry's metadata for one tenant.
type TenantInfo struct {
	TenantID     string   `json:"tenantId"`
	Domains      []string `json:"domains"`
	Status       string   `json:"status"`       // "unknown", "inactive", "reserved", "active"
	DatabaseType string   `json:"databaseType"` // "turso", "sqlite3"
}

func registryPath() (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "config", "system", "tenants.json"), nil
}

func defaultTenantInfo(tenantID string) TenantInfo {
	return TenantInfo{
		TenantID: tenantID,
		Domains:  []string{"*"},
		Status:   "inactive",
	}
}

// LoadTenantRegistry loads the tenant index. A missing file yields an
// in-memory registry holding only the default tenant; nothing is written
// until a tenant is registered.
func LoadTenantRegistry() (*TenantRegistry, error) {
	path, err := registryPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &TenantRegistry{
			Tenants: map[string]TenantInfo{"default": defaultTenantInfo("default")},
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read tenant registry: %w", err)
	}

	var registry TenantRegistry
	if err := json.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("failed to parse tenant registry: %w", err)
	}
	return &registry, nil
}

// SaveTenantRegistry writes the tenant index back to disk.
func SaveTenantRegistry(registry *TenantRegistry) error {
	path, err := registryPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create registry directory: %w", err)
	}

	data, err := json.MarshalIndent(registry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write registry: %w", err)
	}
	return nil
}

// RegisterTenant adds a tenant to the registry. Registering an existing
// tenant is a no-op.
func RegisterTenant(tenantID string) error {
	registry, err := LoadTenantRegistry()
	if err != nil {
		return err
	}

	if _, exists := registry.Tenants[tenantID]; exists {
		return nil
	}

	registry.Tenants[tenantID] = defaultTenantInfo(tenantID)
	return SaveTenantRegistry(registry)
}
