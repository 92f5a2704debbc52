package artifact

import "time"

// ScaffoldPlan is the payload of a scaffold_plan artifact: the approved
// blueprint the application engine turns into a real file tree. Produced
// once, approved by humans, then consumed exactly once; re-application
// must be idempotent.
type ScaffoldPlan struct {
	// ProjectName is the canonical project name; sibling artifacts must agree.
	ProjectName string `json:"project_name"`

	// MothershipVersion is the upstream template version the plan targets.
	MothershipVersion string `json:"mothership_version,omitempty"`

	// Features are the stack selections that drive template conditionals.
	Features FeatureSelections `json:"features"`

	// Domains partition the data model into bounded contexts. Their
	// dependency edges must form a DAG.
	Domains []Domain `json:"domains"`

	// Templates is the ordered manifest the engine renders.
	Templates []TemplateEntry `json:"templates"`
}

// Domain is one bounded context: a named group of entities with exactly
// one aggregate root and acyclic dependencies on other domains.
type Domain struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	// RootEntity is the domain's single aggregate root, an ENT ID that
	// must appear in Entities.
	RootEntity string `json:"root_entity"`

	// Entities are the ENT IDs this domain owns.
	Entities []string `json:"entities"`

	// DependsOn names other domains this one depends on.
	DependsOn []string `json:"depends_on,omitempty"`
}

// TemplateEntry is one manifest unit: which template files to render,
// where they land, and with which variable bindings.
type TemplateEntry struct {
	ID          string `json:"id"`
	Description string `json:"description,omitempty"`

	// SourcePath is the template directory, relative to the template root.
	SourcePath string `json:"source_path"`

	// TargetPath is the destination directory, relative to the output root.
	TargetPath string `json:"target_path"`

	// Variables bind {{NAME}} placeholders for this entry's files.
	Variables map[string]string `json:"variables,omitempty"`

	// Files selects which files under SourcePath to render. Doublestar
	// glob patterns; empty means every file under SourcePath.
	Files []string `json:"files,omitempty"`
}

// DomainNames returns every domain name in declaration order.
func (p *ScaffoldPlan) DomainNames() []string {
	names := make([]string, 0, len(p.Domains))
	for _, d := range p.Domains {
		names = append(names, d.Name)
	}
	return names
}

// ScaffoldApplied is the payload of a scaffold_applied artifact: the
// persisted record of one apply run.
type ScaffoldApplied struct {
	ProjectName       string    `json:"project_name"`
	PlanVersion       string    `json:"plan_version"`
	MothershipVersion string    `json:"mothership_version,omitempty"`
	AppliedAt         time.Time `json:"applied_at"`
	OutputDir         string    `json:"output_dir"`

	FilesCreated int `json:"files_created"`
	FilesSkipped int `json:"files_skipped"`
	Errors       int `json:"errors"`

	// Entries carries the per-template counts of the AppliedReport.
	Entries []AppliedEntry `json:"entries"`

	// Baselines maps each written project-relative path to the SHA-256 of
	// its clean render. The migration engine compares current file content
	// against these to detect user customization.
	Baselines map[string]string `json:"baselines,omitempty"`
}

// AppliedEntry is one template entry's outcome within an apply run.
type AppliedEntry struct {
	TemplateID   string   `json:"template_id"`
	FilesCreated int      `json:"files_created"`
	FilesSkipped int      `json:"files_skipped"`
	Created      []string `json:"created,omitempty"`
	Skipped      []string `json:"skipped,omitempty"`
	Errors       []string `json:"errors,omitempty"`
}
