package tenant

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"

	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/logging"
	"github.com/RecordKit/lifemap-go/pkg/config"
)

// Connections are shared process-wide per backing store, so two contexts for
// the same tenant never hold separate pools against one sqlite file.
var (
	connectionPools = make(map[string]*sql.DB)
	poolMutex       sync.RWMutex
)

// Database is a tenant's handle on its metamodel mirror.
type Database struct {
	Conn     *sql.DB
	TenantID string
	UseTurso bool
	isPooled bool
}

// NewDatabase opens (or reuses) the connection for a tenant's configured
// backing store: Turso when the tenant carries credentials, a local sqlite
// file otherwise.
func NewDatabase(cfg *Config, logger *logging.ChanneledLogger) (*Database, error) {
	poolKey := poolKeyFor(cfg)

	poolMutex.Lock()
	defer poolMutex.Unlock()

	if pooled, exists := connectionPools[poolKey]; exists {
		if err := pooled.Ping(); err == nil {
			return &Database{
				Conn:     pooled,
				TenantID: cfg.TenantID,
				UseTurso: cfg.TursoDatabase != "",
				isPooled: true,
			}, nil
		}
		pooled.Close()
		delete(connectionPools, poolKey)
	}

	var (
		conn     *sql.DB
		err      error
		useTurso = cfg.TursoEnabled && cfg.TursoDatabase != "" && cfg.TursoToken != ""
	)
	if useTurso {
		conn, err = openTurso(cfg)
	} else {
		conn, err = openSQLite(cfg)
	}
	if err != nil {
		return nil, err
	}

	conn.SetMaxOpenConns(config.DBMaxOpenConns)
	conn.SetMaxIdleConns(config.DBMaxIdleConns)
	conn.SetConnMaxLifetime(time.Duration(config.DBConnMaxLifetimeMinutes) * time.Minute)
	conn.SetConnMaxIdleTime(time.Duration(config.DBConnMaxIdleMinutes) * time.Minute)
	connectionPools[poolKey] = conn

	if logger != nil {
		logger.Database().Info("Opened tenant database", "tenantId", cfg.TenantID, "turso", useTurso)
	}

	return &Database{
		Conn:     conn,
		TenantID: cfg.TenantID,
		UseTurso: useTurso,
		isPooled: true,
	}, nil
}

func openTurso(cfg *Config) (*sql.DB, error) {
	conn, err := sql.Open("libsql", cfg.TursoDatabase+"?authToken="+cfg.TursoToken)
	if err != nil || conn.Ping() != nil {
		return nil, fmt.Errorf("tenant %s degraded: turso connection failed", cfg.TenantID)
	}
	return conn, nil
}

func openSQLite(cfg *Config) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection failed: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite database ping failed: %w", err)
	}
	return conn, nil
}

func poolKeyFor(cfg *Config) string {
	if cfg.TursoDatabase != "" {
		return "turso:" + cfg.TenantID
	}
	return "sqlite:" + cfg.SQLitePath
}

// Close is a no-op for pooled handles; the shared connection outlives any
// single context.
func (db *Database) Close() error {
	if db.isPooled || db.Conn == nil {
		return nil
	}
	return db.Conn.Close()
}

// GetConnectionInfo describes the connection for log lines.
func (db *Database) GetConnectionInfo() string {
	kind := "SQLite"
	if db.UseTurso {
		kind = "Turso"
	}
	suffix := ""
	if db.isPooled {
		suffix = " (pooled)"
	}
	return fmt.Sprintf("%s (tenant: %s)%s", kind, db.TenantID, suffix)
}

// CleanupStaleConnections drops pooled connections that no longer answer a
// ping. Run from the background cleanup worker.
func CleanupStaleConnections() {
	poolMutex.Lock()
	defer poolMutex.Unlock()

	for key, conn := range connectionPools {
		if err := conn.Ping(); err != nil {
			conn.Close()
			delete(connectionPools, key)
		}
	}
}

// GetConnectionPoolInfo snapshots per-pool statistics for the sysop
// dashboard.
func GetConnectionPoolInfo() map[string]map[string]any {
	poolMutex.RLock()
	defer poolMutex.RUnlock()

	info := make(map[string]map[string]any, len(connectionPools))
	for key, conn := range connectionPools {
		stats := conn.Stats()
		info[key] = map[string]any{
			"healthy":      conn.Ping() == nil,
			"maxOpen":      stats.MaxOpenConnections,
			"open":         stats.OpenConnections,
			"inUse":        stats.InUse,
			"idle":         stats.Idle,
			"waitCount":    stats.WaitCount,
			"waitDuration": stats.WaitDuration.String(),
		}
	}
	return info
}
