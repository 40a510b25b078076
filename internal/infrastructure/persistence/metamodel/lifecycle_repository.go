// Package metamodel provides class registry repositories
package metamodel

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/RecordKit/lifemap-go/internal/domain/entities/metamodel"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/caching/interfaces"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/logging"
	"github.com/RecordKit/lifemap-go/pkg/config"
)

type LifecycleRepository struct {
	db     *sql.DB
	cache  interfaces.MetamodelCache
	logger *logging.ChanneledLogger
}

func NewLifecycleRepository(db *sql.DB, cache interfaces.MetamodelCache, logger *logging.ChanneledLogger) *LifecycleRepository {
	return &LifecycleRepository{
		db:     db,
		cache:  cache,
		logger: logger,
	}
}

func (r *LifecycleRepository) FindByClass(tenantID, className string) (*metamodel.Lifecycle, error) {
	if lifecycle, found := r.cache.GetLifecycle(tenantID, className); found {
		return lifecycle, nil
	}

	lifecycle, err := r.loadFromDB(className)
	if err != nil {
		return nil, err
	}
	if lifecycle == nil {
		return nil, nil
	}

	r.cache.SetLifecycle(tenantID, lifecycle)
	return lifecycle, nil
}

func (r *LifecycleRepository) Store(tenantID string, lifecycle *metamodel.Lifecycle) error {
	statesJSON, _ := json.Marshal(lifecycle.States)
	stimuliJSON, _ := json.Marshal(lifecycle.Stimuli)

	query := `INSERT INTO lifecycles (class_name, initial_state, states, stimuli) VALUES (?, ?, ?, ?)
	          ON CONFLICT(class_name) DO UPDATE SET initial_state = excluded.initial_state,
	          states = excluded.states, stimuli = excluded.stimuli`

	start := time.Now()
	r.logger.Database().Debug("Executing lifecycle upsert", "className", lifecycle.ClassName)

	_, err := r.db.Exec(query, lifecycle.ClassName, lifecycle.InitialState, string(statesJSON), string(stimuliJSON))
	if err != nil {
		r.logger.Database().Error("Lifecycle upsert failed", "error", err.Error(), "className", lifecycle.ClassName)
		return fmt.Errorf("failed to upsert lifecycle: %w", err)
	}

	r.logger.Database().Info("Lifecycle upsert completed", "className", lifecycle.ClassName, "duration", time.Since(start))
	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration, tenantID)
	}
	r.cache.SetLifecycle(tenantID, lifecycle)
	return nil
}

func (r *LifecycleRepository) Delete(tenantID, className string) error {
	query := `DELETE FROM lifecycles WHERE class_name = ?`

	start := time.Now()
	r.logger.Database().Debug("Executing lifecycle delete", "className", className)

	_, err := r.db.Exec(query, className)
	if err != nil {
		r.logger.Database().Error("Lifecycle delete failed", "error", err.Error(), "className", className)
		return fmt.Errorf("failed to delete lifecycle: %w", err)
	}

	r.logger.Database().Info("Lifecycle delete completed", "className", className, "duration", time.Since(start))
	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration, tenantID)
	}
	r.cache.InvalidateMetamodelCache(tenantID)
	return nil
}

func (r *LifecycleRepository) loadFromDB(className string) (*metamodel.Lifecycle, error) {
	query := `SELECT class_name, initial_state, states, stimuli FROM lifecycles WHERE class_name = ?`

	start := time.Now()
	r.logger.Database().Debug("Loading lifecycle from database", "className", className)

	row := r.db.QueryRow(query, className)

	var lifecycle metamodel.Lifecycle
	var statesStr string
	var stimuliStr string

	err := row.Scan(&lifecycle.ClassName, &lifecycle.InitialState, &statesStr, &stimuliStr)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Database().Error("Failed to scan lifecycle", "error", err.Error(), "className", className)
		return nil, fmt.Errorf("failed to scan lifecycle: %w", err)
	}

	if err := json.Unmarshal([]byte(statesStr), &lifecycle.States); err != nil {
		return nil, fmt.Errorf("failed to parse lifecycle states: %w", err)
	}
	if err := json.Unmarshal([]byte(stimuliStr), &lifecycle.Stimuli); err != nil {
		return nil, fmt.Errorf("failed to parse lifecycle stimuli: %w", err)
	}

	r.logger.Database().Info("Lifecycle loaded from database", "className", className, "duration", time.Since(start))
	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration, "system")
	}
	return &lifecycle, nil
}
