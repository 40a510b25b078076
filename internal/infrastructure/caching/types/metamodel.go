// Package types defines cache data structures for multi-tenant metamodel and fragment data.
package types

import (
	"sync"
	"time"

	"github.com/RecordKit/lifemap-go/internal/domain/entities/metamodel"
)

// TenantMetamodelCache holds the class registry for a single tenant
type TenantMetamodelCache struct {
	Classes    map[string]*metamodel.Class     // className -> class
	Lifecycles map[string]*metamodel.Lifecycle // className -> lifecycle

	// Lookup indices
	ChildrenByParent map[string][]string // parentName -> []childName
	RootClasses      []string            // cached list of root class names
	AllClassNames    []string            // cached master list, name order

	// Eligibility enumeration, ordered roots before descendants
	EligibleRecords     []metamodel.EligibilityRecord `json:"eligibleRecords,omitempty"`
	EligibleLastUpdated time.Time                     `json:"eligibleLastUpdated"`

	// Cache metadata
	LastUpdated time.Time
	Mu          sync.RWMutex // Exported for access
}

// TenantFragmentCache holds rendered diagram fragments for a single tenant
type TenantFragmentCache struct {
	Fragments map[string]*DiagramFragment // "className:variant:state" -> fragment
	Deps      map[string][]string         // className -> []cacheKeys
	Mu        sync.RWMutex                // Exported for access
}

// DiagramFragment represents a cached rendered lifecycle diagram
type DiagramFragment struct {
	HTML         string    `json:"html"`
	ClassName    string    `json:"className"`
	Variant      string    `json:"variant"`
	CurrentState string    `json:"currentState"`
	LastUpdated  time.Time `json:"lastUpdated"`
}
