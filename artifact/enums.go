package artifact

// Priority ranks features and tasks.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// IsValid reports whether p is a known priority.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// TaskType classifies the engineering discipline a task belongs to.
type TaskType string

const (
	TaskBackend       TaskType = "backend"
	TaskFrontend      TaskType = "frontend"
	TaskDatabase      TaskType = "database"
	TaskDevOps        TaskType = "devops"
	TaskTesting       TaskType = "testing"
	TaskDocumentation TaskType = "documentation"
)

// IsValid reports whether t is a known task type.
func (t TaskType) IsValid() bool {
	switch t {
	case TaskBackend, TaskFrontend, TaskDatabase, TaskDevOps, TaskTesting, TaskDocumentation:
		return true
	}
	return false
}

// ADRStatus tracks the lifecycle of an architecture decision.
type ADRStatus string

const (
	ADRProposed   ADRStatus = "proposed"
	ADRAccepted   ADRStatus = "accepted"
	ADRRejected   ADRStatus = "rejected"
	ADRDeprecated ADRStatus = "deprecated"
	ADRSuperseded ADRStatus = "superseded"
)

// IsValid reports whether s is a known decision status.
func (s ADRStatus) IsValid() bool {
	switch s {
	case ADRProposed, ADRAccepted, ADRRejected, ADRDeprecated, ADRSuperseded:
		return true
	}
	return false
}

// Cardinality describes how two entities relate.
type Cardinality string

const (
	OneToOne   Cardinality = "one-to-one"
	OneToMany  Cardinality = "one-to-many"
	ManyToMany Cardinality = "many-to-many"
)

// IsValid reports whether c is a known cardinality.
func (c Cardinality) IsValid() bool {
	switch c {
	case OneToOne, OneToMany, ManyToMany:
		return true
	}
	return false
}

// Declared value sets for scaffold feature selections. "none" opts out.
var (
	AuthProviders   = []string{"firebase", "auth0", "nextauth", "jwt", "api_key", "clerk", "custom", "none"}
	DatabaseEngines = []string{"postgres", "mysql", "mongodb", "supabase", "firebase", "redis", "none"}
	StorageBackends = []string{"s3", "gcs", "firebase", "minio", "local", "none"}
)

// FeatureSelections captures the stack choices a scaffold plan was made
// with. They drive template conditionals during rendering.
type FeatureSelections struct {
	// Auth is the authentication provider, one of AuthProviders.
	Auth string `json:"auth"`

	// Database is the database engine, one of DatabaseEngines.
	Database string `json:"database"`

	// Storage is the object storage backend, one of StorageBackends.
	Storage string `json:"storage"`

	// Realtime enables realtime/websocket features.
	Realtime bool `json:"realtime"`

	// CI enables CI pipeline generation.
	CI bool `json:"ci"`

	// Docs enables documentation site generation.
	Docs bool `json:"docs"`
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// Invalid returns the names of selection fields holding values outside
// their declared sets. Empty means the selections are valid.
func (f FeatureSelections) Invalid() []string {
	var bad []string
	if !contains(AuthProviders, f.Auth) {
		bad = append(bad, "auth")
	}
	if !contains(DatabaseEngines, f.Database) {
		bad = append(bad, "database")
	}
	if !contains(StorageBackends, f.Storage) {
		bad = append(bad, "storage")
	}
	return bad
}

// Variables returns the selection values as renderer variable bindings.
func (f FeatureSelections) Variables() map[string]string {
	return map[string]string{
		"AUTH":     f.Auth,
		"DATABASE": f.Database,
		"STORAGE":  f.Storage,
	}
}

// Flags returns the boolean view of the selections for conditional
// evaluation: pickable features are true unless opted out with "none".
func (f FeatureSelections) Flags() map[string]bool {
	return map[string]bool{
		"AUTH":     f.Auth != "none" && f.Auth != "",
		"DATABASE": f.Database != "none" && f.Database != "",
		"STORAGE":  f.Storage != "none" && f.Storage != "",
		"REALTIME": f.Realtime,
		"CI":       f.CI,
		"DOCS":     f.Docs,
	}
}
