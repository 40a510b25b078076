// Package repositories defines the repository interfaces for metamodel entities.
// These repositories abstract the data persistence details, ensuring the core
// application is clean and decoupled from the database.
package repositories

import (
	"github.com/RecordKit/lifemap-go/internal/domain/entities/metamodel"
)

type ClassRepository interface {
	FindByName(tenantID, name string) (*metamodel.Class, error)
	FindAll(tenantID string) ([]*metamodel.Class, error)
	FindRoots(tenantID string) ([]*metamodel.Class, error)
	FindChildren(tenantID, parentName string) ([]*metamodel.Class, error)
	// StateAttributeCode returns the code of the class's designated state
	// attribute. A class whose metadata references a missing attribute row
	// returns an error, not an empty code.
	StateAttributeCode(tenantID, className string) (string, error)
	Store(tenantID string, class *metamodel.Class) error
	Update(tenantID string, class *metamodel.Class) error
	Delete(tenantID, name string) error
}

type LifecycleRepository interface {
	FindByClass(tenantID, className string) (*metamodel.Lifecycle, error)
	Store(tenantID string, lifecycle *metamodel.Lifecycle) error
	Delete(tenantID, className string) error
}
