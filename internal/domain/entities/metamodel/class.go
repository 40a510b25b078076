// Package metamodel provides domain entities for the host class registry:
// the object class hierarchy, state attributes, and lifecycle definitions
// the widget system is driven by.
package metamodel

// Class represents a single object class in the host metamodel hierarchy.
// Root classes have an empty ParentName.
type Class struct {
	Name               string `json:"name"`
	ParentName         string `json:"parentName,omitempty"`
	StateAttributeCode string `json:"stateAttributeCode,omitempty"`
}

// IsRoot reports whether the class sits at the top of its hierarchy.
func (c *Class) IsRoot() bool {
	return c.ParentName == ""
}

// HasStateAttribute reports whether the class declares a lifecycle state field.
func (c *Class) HasStateAttribute() bool {
	return c.StateAttributeCode != ""
}

// EligibilityRecord pairs a class with its state attribute code. One record
// exists per class that is not disabled and declares a non-empty state
// attribute.
type EligibilityRecord struct {
	ClassName          string `json:"className"`
	StateAttributeCode string `json:"stateAttributeCode"`
}
