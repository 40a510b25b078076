// Package config provides centralized default values for lifemap
package config

import (
	"bufio"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var envLoaded sync.Once

// loadEnvFile applies .env lines as environment defaults. Real environment
// variables win over the file.
func loadEnvFile() {
	envLoaded.Do(func() {
		file, err := os.Open(".env")
		if err != nil {
			return
		}
		defer file.Close()

		log.Println("Loading configuration overrides from .env file...")
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			key, value, found := strings.Cut(line, "=")
			if !found {
				continue
			}
			key, value = strings.TrimSpace(key), strings.TrimSpace(value)
			if os.Getenv(key) == "" {
				os.Setenv(key, value)
			}
		}
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
		}
		return val
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

var (
	// Server. No write timeout: the state change stream and the sysop
	// websocket hold their connections open indefinitely.
	Port              string
	ServerReadTimeout time.Duration
	ServerIdleTimeout time.Duration

	// Tenant capacity
	MaxTenants           int
	MaxSessionsPerTenant int
	MaxWidgetsPerSession int

	// Database pool
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeMinutes int
	DBConnMaxIdleMinutes     int
	SlowQueryThreshold       time.Duration

	// State change stream
	SSEHeartbeatIntervalSeconds int

	// Cache TTLs
	DiagramFragmentTTL time.Duration
	WidgetInstanceTTL  time.Duration
	SessionTTL         time.Duration

	// Cleanup worker
	CleanupInterval time.Duration
	CleanupVerbose  bool

	// Widget chrome defaults
	TooltipDelayMS     int
	ModalViewportRatio int
	ModalTopMarginPX   int

	// SysOp dashboard
	SysOpTickInterval time.Duration
	SysopPassword     string
)

func init() {
	loadEnvFile()

	Port = getEnvString("PORT", "8080")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)

	MaxTenants = getEnvInt("MAX_TENANTS", 5)
	MaxSessionsPerTenant = getEnvInt("MAX_SESSIONS_PER_TENANT", 5000)
	MaxWidgetsPerSession = getEnvInt("MAX_WIDGETS_PER_SESSION", 50)

	DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 3)
	DBConnMaxLifetimeMinutes = getEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", 30)
	DBConnMaxIdleMinutes = getEnvInt("DB_CONN_MAX_IDLE_MINUTES", 3)
	SlowQueryThreshold = getEnvDuration("SLOW_QUERY_THRESHOLD", 100*time.Millisecond)

	SSEHeartbeatIntervalSeconds = getEnvInt("SSE_HEARTBEAT_INTERVAL_SECONDS", 30)

	DiagramFragmentTTL = time.Duration(getEnvInt("DIAGRAM_FRAGMENT_TTL_HOURS", 1)) * time.Hour
	WidgetInstanceTTL = time.Duration(getEnvInt("WIDGET_INSTANCE_TTL_HOURS", 2)) * time.Hour
	SessionTTL = time.Duration(getEnvInt("SESSION_TTL_HOURS", 24)) * time.Hour

	CleanupInterval = time.Duration(getEnvInt("CACHE_CLEANUP_INTERVAL_MINUTES", 30)) * time.Minute
	CleanupVerbose = getEnvString("CACHE_CLEANUP_VERBOSE", "") != ""

	TooltipDelayMS = getEnvInt("TOOLTIP_DELAY_MS", 400)
	ModalViewportRatio = getEnvInt("MODAL_VIEWPORT_RATIO", 90)
	ModalTopMarginPX = getEnvInt("MODAL_TOP_MARGIN_PX", 48)

	SysOpTickInterval = getEnvDuration("SYSOP_TICK_INTERVAL", 20*time.Second)
	SysopPassword = getEnvString("SYSOP_PASSWORD", "")
}
