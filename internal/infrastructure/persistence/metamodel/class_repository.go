// Package metamodel provides class registry repositories
package metamodel

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/RecordKit/lifemap-go/internal/domain/entities/metamodel"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/caching/interfaces"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/logging"
	"github.com/RecordKit/lifemap-go/pkg/config"
)

type ClassRepository struct {
	db     *sql.DB
	cache  interfaces.MetamodelCache
	logger *logging.ChanneledLogger
}

func NewClassRepository(db *sql.DB, cache interfaces.MetamodelCache, logger *logging.ChanneledLogger) *ClassRepository {
	return &ClassRepository{
		db:     db,
		cache:  cache,
		logger: logger,
	}
}

func (r *ClassRepository) FindByName(tenantID, name string) (*metamodel.Class, error) {
	if class, found := r.cache.GetClass(tenantID, name); found {
		return class, nil
	}

	class, err := r.loadFromDB(name)
	if err != nil {
		return nil, err
	}
	if class == nil {
		return nil, nil
	}

	r.cache.SetClass(tenantID, class)
	return class, nil
}

// FindAll retrieves all classes for a tenant, employing a cache-first strategy.
func (r *ClassRepository) FindAll(tenantID string) ([]*metamodel.Class, error) {
	if names, found := r.cache.GetAllClassNames(tenantID); found {
		return r.findByNames(tenantID, names)
	}

	names, err := r.loadAllNamesFromDB()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return []*metamodel.Class{}, nil
	}

	r.cache.SetAllClassNames(tenantID, names)

	return r.findByNames(tenantID, names)
}

// FindRoots returns the classes with no parent, in name order.
func (r *ClassRepository) FindRoots(tenantID string) ([]*metamodel.Class, error) {
	all, err := r.FindAll(tenantID)
	if err != nil {
		return nil, err
	}

	var roots []*metamodel.Class
	for _, class := range all {
		if class.IsRoot() {
			roots = append(roots, class)
		}
	}
	return roots, nil
}

// FindChildren returns the direct descendants of a class, in name order.
func (r *ClassRepository) FindChildren(tenantID, parentName string) ([]*metamodel.Class, error) {
	all, err := r.FindAll(tenantID)
	if err != nil {
		return nil, err
	}

	var children []*metamodel.Class
	for _, class := range all {
		if class.ParentName == parentName {
			children = append(children, class)
		}
	}
	return children, nil
}

// StateAttributeCode resolves the class's designated state attribute code.
// A class whose metadata points at a missing attribute row is a registry
// corruption and returns an error rather than an empty code.
func (r *ClassRepository) StateAttributeCode(tenantID, className string) (string, error) {
	class, err := r.FindByName(tenantID, className)
	if err != nil {
		return "", err
	}
	if class == nil {
		return "", fmt.Errorf("unknown class: %s", className)
	}
	return class.StateAttributeCode, nil
}

func (r *ClassRepository) Store(tenantID string, class *metamodel.Class) error {
	start := time.Now()
	r.logger.Database().Debug("Executing class insert", "name", class.Name)

	attributeID, err := r.ensureStateAttribute(class)
	if err != nil {
		return err
	}

	query := `INSERT INTO classes (name, parent_name, state_attribute_id) VALUES (?, ?, ?)`
	_, err = r.db.Exec(query, class.Name, class.ParentName, attributeID)
	if err != nil {
		r.logger.Database().Error("Class insert failed", "error", err.Error(), "name", class.Name)
		return fmt.Errorf("failed to insert class: %w", err)
	}

	r.logger.Database().Info("Class insert completed", "name", class.Name, "duration", time.Since(start))
	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration, tenantID)
	}
	r.cache.InvalidateMetamodelCache(tenantID)
	return nil
}

func (r *ClassRepository) Update(tenantID string, class *metamodel.Class) error {
	start := time.Now()
	r.logger.Database().Debug("Executing class update", "name", class.Name)

	attributeID, err := r.ensureStateAttribute(class)
	if err != nil {
		return err
	}

	query := `UPDATE classes SET parent_name = ?, state_attribute_id = ? WHERE name = ?`
	_, err = r.db.Exec(query, class.ParentName, attributeID, class.Name)
	if err != nil {
		r.logger.Database().Error("Class update failed", "error", err.Error(), "name", class.Name)
		return fmt.Errorf("failed to update class: %w", err)
	}

	r.logger.Database().Info("Class update completed", "name", class.Name, "duration", time.Since(start))
	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration, tenantID)
	}
	r.cache.InvalidateMetamodelCache(tenantID)
	return nil
}

func (r *ClassRepository) Delete(tenantID, name string) error {
	start := time.Now()
	r.logger.Database().Debug("Executing class delete", "name", name)

	query := `DELETE FROM classes WHERE name = ?`
	_, err := r.db.Exec(query, name)
	if err != nil {
		r.logger.Database().Error("Class delete failed", "error", err.Error(), "name", name)
		return fmt.Errorf("failed to delete class: %w", err)
	}

	if _, err := r.db.Exec(`DELETE FROM attributes WHERE class_name = ?`, name); err != nil {
		return fmt.Errorf("failed to delete class attributes: %w", err)
	}

	r.logger.Database().Info("Class delete completed", "name", name, "duration", time.Since(start))
	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration, tenantID)
	}
	r.cache.InvalidateMetamodelCache(tenantID)
	return nil
}

// ensureStateAttribute upserts the attribute row a stored class references.
func (r *ClassRepository) ensureStateAttribute(class *metamodel.Class) (any, error) {
	if !class.HasStateAttribute() {
		return nil, nil
	}

	attributeID := class.Name + "." + class.StateAttributeCode
	query := `INSERT INTO attributes (id, class_name, code, read_only) VALUES (?, ?, ?, 1)
	          ON CONFLICT(id) DO UPDATE SET code = excluded.code`
	if _, err := r.db.Exec(query, attributeID, class.Name, class.StateAttributeCode); err != nil {
		return nil, fmt.Errorf("failed to upsert state attribute: %w", err)
	}
	return attributeID, nil
}

func (r *ClassRepository) findByNames(tenantID string, names []string) ([]*metamodel.Class, error) {
	var result []*metamodel.Class
	for _, name := range names {
		class, err := r.FindByName(tenantID, name)
		if err != nil {
			return nil, err
		}
		if class != nil {
			result = append(result, class)
		}
	}
	return result, nil
}

func (r *ClassRepository) loadAllNamesFromDB() ([]string, error) {
	query := `SELECT name FROM classes ORDER BY name`

	start := time.Now()
	r.logger.Database().Debug("Loading all class names from database")

	rows, err := r.db.Query(query)
	if err != nil {
		r.logger.Database().Error("Failed to query class names", "error", err.Error())
		return nil, fmt.Errorf("failed to query classes: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan class name: %w", err)
		}
		names = append(names, name)
	}

	r.logger.Database().Info("Loaded class names from database", "count", len(names), "duration", time.Since(start))
	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration, "system")
	}
	return names, rows.Err()
}

func (r *ClassRepository) loadFromDB(name string) (*metamodel.Class, error) {
	query := `SELECT c.name, c.parent_name, c.state_attribute_id, a.code
	          FROM classes c LEFT JOIN attributes a ON a.id = c.state_attribute_id
	          WHERE c.name = ?`

	start := time.Now()
	r.logger.Database().Debug("Loading class from database", "name", name)

	row := r.db.QueryRow(query, name)

	var class metamodel.Class
	var parentName sql.NullString
	var attributeID sql.NullString
	var attributeCode sql.NullString

	err := row.Scan(&class.Name, &parentName, &attributeID, &attributeCode)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Database().Error("Failed to scan class", "error", err.Error(), "name", name)
		return nil, fmt.Errorf("failed to scan class: %w", err)
	}

	if parentName.Valid {
		class.ParentName = parentName.String
	}

	if attributeID.Valid && attributeID.String != "" {
		// A dangling attribute reference is registry corruption, not
		// a class without a lifecycle.
		if !attributeCode.Valid {
			r.logger.Database().Error("Class references missing attribute", "name", name, "attributeId", attributeID.String)
			return nil, fmt.Errorf("class %s references missing attribute %s", name, attributeID.String)
		}
		class.StateAttributeCode = attributeCode.String
	}

	r.logger.Database().Info("Class loaded from database", "name", name, "duration", time.Since(start))
	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration, "system")
	}
	return &class, nil
}
