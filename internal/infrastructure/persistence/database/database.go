// Package database prepares and probes the per-tenant metamodel mirror
// databases.
package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"

	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/logging"
)

// TestTursoConnection verifies that a Turso database is reachable with the
// given credentials. Used during provisioning before the tenant is reserved.
func TestTursoConnection(databaseURL, authToken string) error {
	db, err := sql.Open("libsql", fmt.Sprintf("%s?authToken=%s", databaseURL, authToken))
	if err != nil {
		return fmt.Errorf("failed to open connection: %w", err)
	}
	defer db.Close()

	var result int
	if err := db.QueryRow("SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("connection test query failed: %w", err)
	}
	if result != 1 {
		return fmt.Errorf("unexpected query result: %d", result)
	}
	return nil
}

// EnsureMetamodelSchema creates the class registry tables when they do not
// exist yet. Runs once per tenant database during startup.
func EnsureMetamodelSchema(db *sql.DB, logger *logging.ChanneledLogger) error {
	start := time.Now()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS classes (
			name TEXT PRIMARY KEY,
			parent_name TEXT,
			state_attribute_id TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS attributes (
			id TEXT PRIMARY KEY,
			class_name TEXT NOT NULL,
			code TEXT NOT NULL,
			read_only INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS lifecycles (
			class_name TEXT PRIMARY KEY,
			initial_state TEXT NOT NULL,
			states TEXT NOT NULL,
			stimuli TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_classes_parent ON classes(parent_name)`,
		`CREATE INDEX IF NOT EXISTS idx_attributes_class ON attributes(class_name)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			if logger != nil {
				logger.Database().Error("Schema statement failed", "error", err.Error())
			}
			return fmt.Errorf("failed to ensure metamodel schema: %w", err)
		}
	}

	if logger != nil {
		logger.Database().Info("Metamodel schema ensured", "duration", time.Since(start))
	}
	return nil
}
