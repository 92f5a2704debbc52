package artifact

// ERD is the payload of an erd artifact: the project's data model as
// entities, attributes, and directed relationships.
type ERD struct {
	// ProjectName is the canonical project name; sibling artifacts must agree.
	ProjectName string `json:"project_name"`

	// DatabaseType names the target engine, e.g. "postgres".
	DatabaseType string `json:"database_type,omitempty"`

	Entities      []Entity       `json:"entities"`
	Relationships []Relationship `json:"relationships,omitempty"`
}

// Entity is one table/collection with its typed attributes.
type Entity struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	// TableName is the physical name; defaults to a snake_case Name.
	TableName string `json:"table_name,omitempty"`

	Attributes []Attribute `json:"attributes"`
	Indexes    []Index     `json:"indexes,omitempty"`
}

// Attribute is a single column.
type Attribute struct {
	Name string `json:"name"`

	// Type is the abstract column type: UUID, INTEGER, STRING, TEXT,
	// BOOLEAN, DATETIME, DECIMAL, JSON.
	Type string `json:"type"`

	PrimaryKey bool `json:"primary_key,omitempty"`
	Nullable   bool `json:"nullable,omitempty"`
	Unique     bool `json:"unique,omitempty"`

	// Default is the literal default value, if any.
	Default string `json:"default,omitempty"`
}

// Index is a declared secondary index on an entity.
type Index struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique,omitempty"`
}

// Relationship connects two entities. Direction matters: the child
// (FromEntity) owns the foreign-key column named in ForeignKey; the parent
// (ToEntity) is referenced. ForeignKey must appear in the child's
// attribute list, which the validator enforces across the document.
type Relationship struct {
	ID         string      `json:"id"`
	Name       string      `json:"name,omitempty"`
	FromEntity string      `json:"from_entity"`
	ToEntity   string      `json:"to_entity"`
	Type       Cardinality `json:"relationship_type"`
	ForeignKey string      `json:"foreign_key"`

	// CascadeDelete deletes children when the parent row is removed.
	CascadeDelete bool `json:"cascade_delete,omitempty"`
}

// Entity returns the entity with the given ID.
func (e *ERD) Entity(id string) (*Entity, bool) {
	for i := range e.Entities {
		if e.Entities[i].ID == id {
			return &e.Entities[i], true
		}
	}
	return nil, false
}

// EntityIDs returns every entity ID in declaration order.
func (e *ERD) EntityIDs() []string {
	ids := make([]string, 0, len(e.Entities))
	for _, ent := range e.Entities {
		ids = append(ids, ent.ID)
	}
	return ids
}

// HasAttribute reports whether the entity declares an attribute by name.
func (e *Entity) HasAttribute(name string) bool {
	for _, a := range e.Attributes {
		if a.Name == name {
			return true
		}
	}
	return false
}

// PrimaryKey returns the entity's primary key attribute, if declared.
func (e *Entity) PrimaryKey() (*Attribute, bool) {
	for i := range e.Attributes {
		if e.Attributes[i].PrimaryKey {
			return &e.Attributes[i], true
		}
	}
	return nil, false
}
