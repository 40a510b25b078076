package services

import (
	"fmt"
	"time"

	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/logging"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/performance"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/tenant"
)

// mirrorTables are the tables every tenant's metamodel mirror must carry.
var mirrorTables = []string{"classes", "attributes", "lifecycles"}

// MirrorStatus reports whether a tenant's metamodel mirror is reachable and
// carries the expected schema.
type MirrorStatus struct {
	TenantID  string          `json:"tenantId"`
	Status    string          `json:"status"` // healthy | degraded | error
	Tables    map[string]bool `json:"tables,omitempty"`
	Error     string          `json:"error,omitempty"`
	CheckedAt time.Time       `json:"checkedAt"`
}

// MirrorHealth extends MirrorStatus with content-level integrity counts.
type MirrorHealth struct {
	MirrorStatus
	ClassCount           int `json:"classCount"`
	LifecycleCount       int `json:"lifecycleCount"`
	StatelessClasses     int `json:"statelessClasses"`
	DanglingAttributeRefs int `json:"danglingAttributeRefs"`
}

// DBService checks connectivity and integrity of per-tenant metamodel mirrors.
type DBService struct {
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewDBService creates a new database service.
func NewDBService(logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *DBService {
	return &DBService{
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// CheckStatus pings the tenant's mirror and verifies its schema.
func (d *DBService) CheckStatus(tenantCtx *tenant.Context) MirrorStatus {
	status := MirrorStatus{
		TenantID:  tenantCtx.TenantID,
		Status:    "healthy",
		CheckedAt: time.Now().UTC(),
	}

	if tenantCtx.Database == nil || tenantCtx.Database.Conn == nil {
		status.Status = "error"
		status.Error = "no database connection"
		return status
	}

	var probe int
	if err := tenantCtx.Database.Conn.QueryRow("SELECT 1").Scan(&probe); err != nil {
		status.Status = "error"
		status.Error = fmt.Sprintf("connection test failed: %v", err)
		return status
	}

	status.Tables = make(map[string]bool, len(mirrorTables))
	for _, table := range mirrorTables {
		exists := d.tableExists(tenantCtx, table)
		status.Tables[table] = exists
		if !exists {
			status.Status = "degraded"
		}
	}
	return status
}

// PerformHealthCheck runs the status check and, when the schema is intact,
// adds content-level counts. Dangling state-attribute references and classes
// without a state attribute are reported as counts rather than failures; the
// eligibility service decides what each means for an individual class.
func (d *DBService) PerformHealthCheck(tenantCtx *tenant.Context) MirrorHealth {
	health := MirrorHealth{MirrorStatus: d.CheckStatus(tenantCtx)}
	if health.Status == "error" {
		return health
	}

	conn := tenantCtx.Database.Conn
	counts := []struct {
		dest  *int
		query string
	}{
		{&health.ClassCount, `SELECT COUNT(*) FROM classes`},
		{&health.LifecycleCount, `SELECT COUNT(*) FROM lifecycles`},
		{&health.StatelessClasses,
			`SELECT COUNT(*) FROM classes WHERE state_attribute_id IS NULL OR state_attribute_id = ''`},
		{&health.DanglingAttributeRefs,
			`SELECT COUNT(*) FROM classes c
			 WHERE c.state_attribute_id IS NOT NULL AND c.state_attribute_id != ''
			   AND NOT EXISTS (SELECT 1 FROM attributes a WHERE a.id = c.state_attribute_id)`},
	}
	for _, q := range counts {
		if err := conn.QueryRow(q.query).Scan(q.dest); err != nil {
			health.Status = "degraded"
			health.Error = fmt.Sprintf("integrity query failed: %v", err)
			return health
		}
	}

	// A dangling reference means the mirror no longer matches the registry
	// it was built from.
	if health.DanglingAttributeRefs > 0 {
		health.Status = "degraded"
	}
	return health
}

func (d *DBService) tableExists(tenantCtx *tenant.Context, tableName string) bool {
	var count int
	err := tenantCtx.Database.Conn.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, tableName).Scan(&count)
	return err == nil && count > 0
}
