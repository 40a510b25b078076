package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/performance"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/tenant"
)

func newTestDBService(t *testing.T) *DBService {
	t.Helper()
	return NewDBService(newQuietLogger(t), performance.NewTracker())
}

func TestCheckStatus_HealthyMirror(t *testing.T) {
	tenantCtx := newMetamodelTenantContext(t)
	svc := newTestDBService(t)

	status := svc.CheckStatus(tenantCtx)
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, tenantCtx.TenantID, status.TenantID)
	for _, table := range []string{"classes", "attributes", "lifecycles"} {
		assert.True(t, status.Tables[table], table)
	}
}

func TestCheckStatus_NoConnection(t *testing.T) {
	tenantCtx := newTestTenantContext(t)
	tenantCtx.Database = &tenant.Database{TenantID: tenantCtx.TenantID}
	svc := newTestDBService(t)

	status := svc.CheckStatus(tenantCtx)
	assert.Equal(t, "error", status.Status)
	assert.Equal(t, "no database connection", status.Error)
}

func TestCheckStatus_MissingTable(t *testing.T) {
	tenantCtx := newMetamodelTenantContext(t)
	svc := newTestDBService(t)

	_, err := tenantCtx.Database.Conn.Exec(`DROP TABLE lifecycles`)
	require.NoError(t, err)

	status := svc.CheckStatus(tenantCtx)
	assert.Equal(t, "degraded", status.Status)
	assert.False(t, status.Tables["lifecycles"])
	assert.True(t, status.Tables["classes"])
}

func TestPerformHealthCheck_Counts(t *testing.T) {
	tenantCtx := newMetamodelTenantContext(t)
	svc := newTestDBService(t)

	db := tenantCtx.Database.Conn
	insertClass(t, db, "document", "", "status")
	insertClass(t, db, "memo", "document", "")

	health := svc.PerformHealthCheck(tenantCtx)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, 2, health.ClassCount)
	assert.Equal(t, 1, health.StatelessClasses)
	assert.Equal(t, 0, health.DanglingAttributeRefs)
}

func TestPerformHealthCheck_DanglingReferenceDegrades(t *testing.T) {
	tenantCtx := newMetamodelTenantContext(t)
	svc := newTestDBService(t)

	_, err := tenantCtx.Database.Conn.Exec(
		`INSERT INTO classes (name, parent_name, state_attribute_id) VALUES ('broken', '', 'ghost')`)
	require.NoError(t, err)

	health := svc.PerformHealthCheck(tenantCtx)
	assert.Equal(t, "degraded", health.Status)
	assert.Equal(t, 1, health.DanglingAttributeRefs)
}
