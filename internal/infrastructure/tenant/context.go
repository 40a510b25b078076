package tenant

import (
	"github.com/RecordKit/lifemap-go/internal/domain/repositories"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/caching/manager"
	"github.com/RecordKit/lifemap-go/internal/infrastructure/observability/logging"
	persistenceMetamodel "github.com/RecordKit/lifemap-go/internal/infrastructure/persistence/metamodel"
)

// Context is everything request handlers need to act on behalf of one
// tenant: its config, its metamodel mirror, and the shared cache manager.
type Context struct {
	TenantID     string
	Config       *Config
	Database     *Database
	Status       string
	CacheManager *manager.Manager
	Logger       *logging.ChanneledLogger
}

// Close releases the context's database handle.
func (ctx *Context) Close() error {
	if ctx.Database != nil {
		return ctx.Database.Close()
	}
	return nil
}

// GetDatabaseInfo describes the backing connection for log lines.
func (ctx *Context) GetDatabaseInfo() string {
	if ctx.Database != nil {
		return ctx.Database.GetConnectionInfo()
	}
	return "no database connection"
}

// ClassRepo returns the cache-first class repository over this tenant's
// mirror.
func (ctx *Context) ClassRepo() repositories.ClassRepository {
	return persistenceMetamodel.NewClassRepository(ctx.Database.Conn, ctx.CacheManager, ctx.Logger)
}

// LifecycleRepo returns the cache-first lifecycle repository over this
// tenant's mirror.
func (ctx *Context) LifecycleRepo() repositories.LifecycleRepository {
	return persistenceMetamodel.NewLifecycleRepository(ctx.Database.Conn, ctx.CacheManager, ctx.Logger)
}
