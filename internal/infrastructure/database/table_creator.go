// Package database provides tenant instantiation
package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/RecordKit/lifemap-go/internal/infrastructure/security"
)

// TableCreator handles the creation of the database schema for a new tenant.
type TableCreator struct{}

// NewTableCreator creates a new TableCreator.
func NewTableCreator() *TableCreator {
	return &TableCreator{}
}

// CreateSchema executes all necessary queries to build the tenant's database tables and indexes.
func (tc *TableCreator) CreateSchema(db *sql.DB) error {
	for _, tableSQL := range tables {
		if _, err := db.Exec(tableSQL); err != nil {
			return fmt.Errorf("failed to create table for query [%s]: %w", tableSQL, err)
		}
	}

	for _, indexSQL := range indexes {
		if _, err := db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index for query [%s]: %w", indexSQL, err)
		}
	}
	return nil
}

// SeedInitialContent adds the starter metamodel a new tenant needs to see a
// working widget: one stateful class with a minimal lifecycle.
func (tc *TableCreator) SeedInitialContent(db *sql.DB) error {
	// Idempotently create the "document" starter class.
	var className string
	err := db.QueryRow("SELECT name FROM classes WHERE name = 'document'").Scan(&className)
	if err == sql.ErrNoRows {
		attrID := security.GenerateULID()
		if _, err := db.Exec(`INSERT INTO classes (name, parent_name, state_attribute_id) VALUES (?, '', ?)`, "document", attrID); err != nil {
			return fmt.Errorf("failed to insert starter class: %w", err)
		}
		if _, err := db.Exec(`INSERT INTO attributes (id, class_name, code, read_only) VALUES (?, ?, ?, 1)`, attrID, "document", "status"); err != nil {
			return fmt.Errorf("failed to insert starter state attribute: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("failed to check for starter class: %w", err)
	}

	// Idempotently create its lifecycle definition.
	var lifecycleExists bool
	err = db.QueryRow("SELECT EXISTS(SELECT 1 FROM lifecycles WHERE class_name = 'document')").Scan(&lifecycleExists)
	if err != nil {
		return fmt.Errorf("failed to check for starter lifecycle: %w", err)
	}

	if !lifecycleExists {
		states, _ := json.Marshal([]string{"draft", "review", "published", "archived"})
		stimuli, _ := json.Marshal([]map[string]any{
			{"name": "submit", "from": "draft", "to": "review", "internal": false},
			{"name": "approve", "from": "review", "to": "published", "internal": false},
			{"name": "reject", "from": "review", "to": "draft", "internal": false},
			{"name": "archive", "from": "published", "to": "archived", "internal": false},
			{"name": "expire", "from": "published", "to": "archived", "internal": true},
		})
		_, err = db.Exec(`INSERT INTO lifecycles (class_name, initial_state, states, stimuli) VALUES (?, ?, ?, ?)`,
			"document", "draft", string(states), string(stimuli))
		if err != nil {
			return fmt.Errorf("failed to insert starter lifecycle: %w", err)
		}
	}

	return nil
}

// Schema for the host metamodel mirror: the class hierarchy, state
// attributes, and lifecycle definitions the widget system reads.
var tables = []string{
	`CREATE TABLE IF NOT EXISTS classes (name TEXT PRIMARY KEY, parent_name TEXT NOT NULL DEFAULT '', state_attribute_id TEXT)`,
	`CREATE TABLE IF NOT EXISTS attributes (id TEXT PRIMARY KEY, class_name TEXT NOT NULL REFERENCES classes(name), code TEXT NOT NULL, read_only BOOLEAN DEFAULT 0)`,
	`CREATE TABLE IF NOT EXISTS lifecycles (class_name TEXT PRIMARY KEY REFERENCES classes(name), initial_state TEXT NOT NULL, states TEXT NOT NULL, stimuli TEXT NOT NULL)`,
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_classes_parent_name ON classes(parent_name)`,
	`CREATE INDEX IF NOT EXISTS idx_attributes_class_name ON attributes(class_name)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_attributes_class_code ON attributes(class_name, code)`,
}
