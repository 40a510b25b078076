package services

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RecordKit/lifemap-go/internal/domain/entities/metamodel"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/caching/types"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/database"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/performance"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/tenant"
)

func newTestEligibilityService(t *testing.T) *EligibilityService {
	t.Helper()
	return NewEligibilityService(newQuietLogger(t), performance.NewTracker())
}

// newMetamodelTenantContext backs the tenant context with an in-memory
// sqlite registry so eligibility reads run against the real repository.
func newMetamodelTenantContext(t *testing.T) *tenant.Context {
	t.Helper()
	tenantCtx := newTestTenantContext(t)

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// One connection, or the pool would hand out separate empty memory DBs.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.NewTableCreator().CreateSchema(db))

	tenantCtx.Database = &tenant.Database{Conn: db, TenantID: tenantCtx.TenantID}
	return tenantCtx
}

func insertClass(t *testing.T, db *sql.DB, name, parent, attrCode string) {
	t.Helper()
	if attrCode == "" {
		_, err := db.Exec(`INSERT INTO classes (name, parent_name) VALUES (?, ?)`, name, parent)
		require.NoError(t, err)
		return
	}
	attrID := name + "." + attrCode
	_, err := db.Exec(`INSERT INTO classes (name, parent_name, state_attribute_id) VALUES (?, ?, ?)`, name, parent, attrID)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO attributes (id, class_name, code, read_only) VALUES (?, ?, ?, 1)`, attrID, name, attrCode)
	require.NoError(t, err)
}

func TestIsEligible_StatefulClass(t *testing.T) {
	tenantCtx := newMetamodelTenantContext(t)
	svc := newTestEligibilityService(t)

	insertClass(t, tenantCtx.Database.Conn, "document", "", "status")

	eligible, err := svc.IsEligible(tenantCtx, "document")
	require.NoError(t, err)
	assert.True(t, eligible)
}

func TestIsEligible_ClassWithoutStateAttribute(t *testing.T) {
	tenantCtx := newMetamodelTenantContext(t)
	svc := newTestEligibilityService(t)

	insertClass(t, tenantCtx.Database.Conn, "memo", "", "")

	// Nothing disables the class; it is ineligible purely for lacking a
	// state attribute.
	eligible, err := svc.IsEligible(tenantCtx, "memo")
	require.NoError(t, err)
	assert.False(t, eligible)
}

func TestIsEligible_DisabledClassWithStateAttribute(t *testing.T) {
	tenantCtx := newMetamodelTenantContext(t)
	svc := newTestEligibilityService(t)

	insertClass(t, tenantCtx.Database.Conn, "document", "", "status")
	tenantCtx.CacheManager.SetWidgetSettings(tenantCtx.TenantID, &types.WidgetSettings{
		DisabledClasses: []string{"document"},
	})

	// The state attribute exists, but the tenant disabled the class.
	eligible, err := svc.IsEligible(tenantCtx, "document")
	require.NoError(t, err)
	assert.False(t, eligible)
}

func TestIsEligible_DisabledClass(t *testing.T) {
	tenantCtx := newTestTenantContext(t)
	svc := newTestEligibilityService(t)

	tenantCtx.CacheManager.SetWidgetSettings(tenantCtx.TenantID, &types.WidgetSettings{
		DisabledClasses: []string{"document"},
	})

	eligible, err := svc.IsEligible(tenantCtx, "document")
	require.NoError(t, err)
	assert.False(t, eligible)
}

func TestIsEligible_DanglingAttributeReference(t *testing.T) {
	tenantCtx := newMetamodelTenantContext(t)
	svc := newTestEligibilityService(t)

	// A class pointing at a missing attribute row is registry corruption
	// and must surface as an error, not as an ineligible class.
	_, err := tenantCtx.Database.Conn.Exec(
		`INSERT INTO classes (name, parent_name, state_attribute_id) VALUES ('broken', '', 'ghost')`)
	require.NoError(t, err)

	eligible, err := svc.IsEligible(tenantCtx, "broken")
	require.Error(t, err)
	assert.False(t, eligible)
	assert.Contains(t, err.Error(), "broken")
}

func TestIsEligible_UnknownClass(t *testing.T) {
	tenantCtx := newMetamodelTenantContext(t)
	svc := newTestEligibilityService(t)

	_, err := svc.IsEligible(tenantCtx, "nonesuch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown class")
}

func TestEnumEligibleClasses_TraversalOrder(t *testing.T) {
	tenantCtx := newMetamodelTenantContext(t)
	svc := newTestEligibilityService(t)

	db := tenantCtx.Database.Conn
	insertClass(t, db, "archive", "", "")
	insertClass(t, db, "document", "", "status")
	insertClass(t, db, "invoice", "", "stage")
	insertClass(t, db, "contract", "document", "stage")
	insertClass(t, db, "memo", "document", "")

	records, err := svc.EnumEligibleClasses(tenantCtx)
	require.NoError(t, err)

	// Pre-order over the hierarchy: each root before its descendants, and
	// classes without a state attribute are left out.
	assert.Equal(t, []metamodel.EligibilityRecord{
		{ClassName: "document", StateAttributeCode: "status"},
		{ClassName: "contract", StateAttributeCode: "stage"},
		{ClassName: "invoice", StateAttributeCode: "stage"},
	}, records)
}

func TestEnumEligibleClasses_LookupErrorPropagates(t *testing.T) {
	tenantCtx := newMetamodelTenantContext(t)
	svc := newTestEligibilityService(t)

	insertClass(t, tenantCtx.Database.Conn, "document", "", "status")
	_, err := tenantCtx.Database.Conn.Exec(
		`INSERT INTO classes (name, parent_name, state_attribute_id) VALUES ('broken', '', 'ghost')`)
	require.NoError(t, err)

	records, err := svc.EnumEligibleClasses(tenantCtx)
	require.Error(t, err)
	assert.Nil(t, records)
}

func TestEnumEligibleClasses_CacheHit(t *testing.T) {
	tenantCtx := newTestTenantContext(t)
	svc := newTestEligibilityService(t)

	seeded := []metamodel.EligibilityRecord{
		{ClassName: "document", StateAttributeCode: "status"},
		{ClassName: "invoice", StateAttributeCode: "stage"},
	}
	tenantCtx.CacheManager.SetEligibleRecords(tenantCtx.TenantID, seeded)

	records, err := svc.EnumEligibleClasses(tenantCtx)
	require.NoError(t, err)
	assert.Equal(t, seeded, records)
}

func TestEnumEligibleClasses_SettingsChangeDropsCachedRecords(t *testing.T) {
	tenantCtx := newMetamodelTenantContext(t)
	svc := newTestEligibilityService(t)

	db := tenantCtx.Database.Conn
	insertClass(t, db, "document", "", "status")
	insertClass(t, db, "invoice", "", "stage")

	records, err := svc.EnumEligibleClasses(tenantCtx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Re-activating with a new disabled set must not serve the stale
	// enumeration.
	tenantCtx.CacheManager.SetWidgetSettings(tenantCtx.TenantID, &types.WidgetSettings{
		DisabledClasses: []string{"invoice"},
	})

	records, err = svc.EnumEligibleClasses(tenantCtx)
	require.NoError(t, err)
	assert.Equal(t, []metamodel.EligibilityRecord{
		{ClassName: "document", StateAttributeCode: "status"},
	}, records)
}

func TestWidgetSettings_DisabledClassSet(t *testing.T) {
	settings := &types.WidgetSettings{DisabledClasses: []string{"a", "b"}}
	set := settings.DisabledClassSet()
	assert.True(t, set["a"])
	assert.True(t, set["b"])
	assert.False(t, set["c"])
}
