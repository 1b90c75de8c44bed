package store

// Relationship declares that entities of ChildType are owned by ParentType.
type Relationship struct {
	ParentType     string
	ChildType      string
	ChildTableName string

	// ParentKeyAttr is the child attribute holding the parent id (e.g. "submissionId").
	ParentKeyAttr string
}

// Registry holds the parent/child relationships known to the service.
type Registry struct {
	relationships []Relationship
	byParent      map[string][]Relationship
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{byParent: make(map[string][]Relationship)}
}

// Register adds a relationship to the registry.
func (r *Registry) Register(rel Relationship) {
	r.relationships = append(r.relationships, rel)
	r.byParent[rel.ParentType] = append(r.byParent[rel.ParentType], rel)
}

// ChildrenOf returns all child relationships for a given parent type.
func (r *Registry) ChildrenOf(parentType string) []Relationship {
	return r.byParent[parentType]
}

// AllRelationships returns all registered relationships.
func (r *Registry) AllRelationships() []Relationship {
	return r.relationships
}

// HasChildren reports whether parentType owns any other type.
// A nil registry is treated as "may have children".
func (r *Registry) HasChildren(parentType string) bool {
	if r == nil {
		return true
	}
	return len(r.byParent[parentType]) > 0
}

// ParentOf returns the relationship in which childType is the child.
func (r *Registry) ParentOf(childType string) (Relationship, bool) {
	if r == nil {
		return Relationship{}, false
	}
	for _, rel := range r.relationships {
		if rel.ChildType == childType {
			return rel, true
		}
	}
	return Relationship{}, false
}
