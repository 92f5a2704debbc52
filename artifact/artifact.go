// Package artifact defines the typed planning documents that flow through
// the semforge pipeline: their envelope, payload schemas, stable identifier
// rules, and the error codes shared by every component that operates on them.
//
// Artifacts are immutable once written. A new version is a new artifact
// instance; superseding artifacts reference the prior one by ID and never
// overwrite it silently.
package artifact

import (
	"encoding/json"
	"fmt"
	"time"
)

// Type identifies the kind of planning document an artifact carries.
type Type string

const (
	// TypePRD is the product requirements document.
	TypePRD Type = "prd"

	// TypeFlow is the user/system flow document.
	TypeFlow Type = "flow"

	// TypeERD is the entity-relationship data model.
	TypeERD Type = "erd"

	// TypeJourney is the persona journey map.
	TypeJourney Type = "journey"

	// TypeTasks is the task breakdown document.
	TypeTasks Type = "tasks"

	// TypeADR is the architecture decision record collection.
	TypeADR Type = "adr"

	// TypeScaffoldPlan is the approved blueprint consumed by scaffold apply.
	TypeScaffoldPlan Type = "scaffold_plan"

	// TypeScaffoldApplied is the report artifact written after a scaffold apply.
	TypeScaffoldApplied Type = "scaffold_applied"

	// TypeMigrationCheck is the classification summary written by migrate check.
	TypeMigrationCheck Type = "migration_check"

	// TypeMigrationPreview is the per-file plan written by migrate preview.
	TypeMigrationPreview Type = "migration_preview"
)

// IsValid reports whether t is a known artifact type.
func (t Type) IsValid() bool {
	switch t {
	case TypePRD, TypeFlow, TypeERD, TypeJourney, TypeTasks, TypeADR,
		TypeScaffoldPlan, TypeScaffoldApplied, TypeMigrationCheck, TypeMigrationPreview:
		return true
	}
	return false
}

// String returns the wire name of the type.
func (t Type) String() string {
	return string(t)
}

// NextPhase returns the pipeline phase that consumes an artifact of this
// type next. Empty for artifact types the pipeline itself produces.
func (t Type) NextPhase() string {
	switch t {
	case TypePRD:
		return "flow_design"
	case TypeFlow:
		return "erd_design"
	case TypeERD:
		return "journey_mapping"
	case TypeJourney:
		return "task_planning"
	case TypeTasks:
		return "adr_documentation"
	case TypeADR:
		return "scaffolding"
	case TypeScaffoldPlan:
		return "scaffold_apply"
	case TypeScaffoldApplied:
		return "development"
	}
	return ""
}

// Status tracks where an artifact sits in its review lifecycle.
type Status string

const (
	// StatusDraft is the initial state for a freshly produced artifact.
	StatusDraft Status = "draft"

	// StatusValidated means the schema validator passed the artifact.
	StatusValidated Status = "validated"

	// StatusApproved means every required approver has signed off.
	StatusApproved Status = "approved"

	// StatusApplied means the artifact has been consumed by an engine run.
	StatusApplied Status = "applied"

	// StatusRejected means a reviewer sent the artifact back to its producer.
	StatusRejected Status = "rejected"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusValidated, StatusApproved, StatusApplied, StatusRejected:
		return true
	}
	return false
}

// CanTransitionTo reports whether the status may move to target.
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusDraft:
		return target == StatusValidated || target == StatusRejected
	case StatusValidated:
		return target == StatusApproved || target == StatusDraft || target == StatusRejected
	case StatusApproved:
		return target == StatusApplied || target == StatusDraft
	case StatusApplied:
		return false
	case StatusRejected:
		return target == StatusDraft
	}
	return false
}

// Artifact is the envelope every planning document travels in. The Data
// payload is type-specific; use the typed accessors to decode it.
type Artifact struct {
	// ArtifactType identifies which payload schema Data holds.
	ArtifactType Type `json:"artifact_type"`

	// Version is the document version, independent of any project version.
	Version string `json:"version"`

	// CreatedAt is when the producer wrote this instance.
	CreatedAt time.Time `json:"created_at"`

	// Status is the review lifecycle state.
	Status Status `json:"status"`

	// ApprovalRequired marks artifacts that must be signed off before use.
	ApprovalRequired bool `json:"approval_required"`

	// Approvers lists the names whose sign-off is required, in order.
	Approvers []string `json:"approvers,omitempty"`

	// Approvals lists the names recorded by the external approval gate.
	Approvals []string `json:"approvals,omitempty"`

	// NextPhase names the pipeline phase that consumes this artifact.
	NextPhase string `json:"next_phase,omitempty"`

	// Data is the type-specific payload.
	Data json.RawMessage `json:"data"`
}

// New wraps a payload in an envelope with the defaults for its type.
func New(t Type, version string, payload any) (*Artifact, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	return &Artifact{
		ArtifactType: t,
		Version:      version,
		CreatedAt:    time.Now().UTC(),
		Status:       StatusDraft,
		NextPhase:    t.NextPhase(),
		Data:         data,
	}, nil
}

// Approved reports whether every required approver has a recorded approval.
// Artifacts that do not require approval are trivially approved.
func (a *Artifact) Approved() bool {
	if !a.ApprovalRequired {
		return true
	}
	recorded := make(map[string]bool, len(a.Approvals))
	for _, name := range a.Approvals {
		recorded[name] = true
	}
	for _, name := range a.Approvers {
		if !recorded[name] {
			return false
		}
	}
	return true
}

// MissingApprovals returns the required approvers with no recorded approval.
func (a *Artifact) MissingApprovals() []string {
	if !a.ApprovalRequired {
		return nil
	}
	recorded := make(map[string]bool, len(a.Approvals))
	for _, name := range a.Approvals {
		recorded[name] = true
	}
	var missing []string
	for _, name := range a.Approvers {
		if !recorded[name] {
			missing = append(missing, name)
		}
	}
	return missing
}

func (a *Artifact) decode(want Type, v any) error {
	if a.ArtifactType != want {
		return fmt.Errorf("artifact is %s, not %s", a.ArtifactType, want)
	}
	if err := json.Unmarshal(a.Data, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", want, err)
	}
	return nil
}

// PRD decodes the payload of a prd artifact.
func (a *Artifact) PRD() (*PRD, error) {
	var p PRD
	if err := a.decode(TypePRD, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Flows decodes the payload of a flow artifact.
func (a *Artifact) Flows() (*FlowSet, error) {
	var f FlowSet
	if err := a.decode(TypeFlow, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// ERD decodes the payload of an erd artifact.
func (a *Artifact) ERD() (*ERD, error) {
	var e ERD
	if err := a.decode(TypeERD, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Journeys decodes the payload of a journey artifact.
func (a *Artifact) Journeys() (*JourneyMap, error) {
	var j JourneyMap
	if err := a.decode(TypeJourney, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

// Tasks decodes the payload of a tasks artifact.
func (a *Artifact) Tasks() (*TaskBoard, error) {
	var t TaskBoard
	if err := a.decode(TypeTasks, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ADRs decodes the payload of an adr artifact.
func (a *Artifact) ADRs() (*DecisionLog, error) {
	var d DecisionLog
	if err := a.decode(TypeADR, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// ScaffoldPlan decodes the payload of a scaffold_plan artifact.
func (a *Artifact) ScaffoldPlan() (*ScaffoldPlan, error) {
	var p ScaffoldPlan
	if err := a.decode(TypeScaffoldPlan, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ScaffoldApplied decodes the payload of a scaffold_applied artifact.
func (a *Artifact) ScaffoldApplied() (*ScaffoldApplied, error) {
	var r ScaffoldApplied
	if err := a.decode(TypeScaffoldApplied, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
