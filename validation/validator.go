// Package validation enforces structural and cross-referential integrity
// across planning artifacts. A single Validate call runs four ordered
// phases (structure, ID format, cross-reference resolution, domain
// invariants) and accumulates every violation instead of stopping at the
// first, so one invocation surfaces the complete error list. The artifact
// is never mutated.
package validation

import (
	"fmt"
	"strings"

	"github.com/c360studio/semforge/artifact"
)

// Issue is one finding: a stable rule code, a human message, and the IDs
// or field it points at.
type Issue struct {
	// Code is the machine-matchable rule name, e.g. "foreign_key_missing".
	Code string `json:"code"`

	// Message is the human explanation.
	Message string `json:"message"`

	// IDs are the offending identifiers, when the rule concerns them.
	IDs []string `json:"ids,omitempty"`

	// Field is the JSON path of the offending field, when there is one.
	Field string `json:"field,omitempty"`
}

// Result is the outcome of validating one artifact. Errors decide Passed;
// warnings and suggestions never do.
type Result struct {
	ArtifactType artifact.Type `json:"artifact_type"`
	Passed       bool          `json:"passed"`
	Errors       []Issue       `json:"errors"`
	Warnings     []Issue       `json:"warnings,omitempty"`
	Suggestions  []Issue       `json:"suggestions,omitempty"`
}

func (r *Result) addError(code, field, format string, args ...any) {
	r.Errors = append(r.Errors, Issue{Code: code, Field: field, Message: fmt.Sprintf(format, args...)})
}

func (r *Result) addErrorIDs(code string, ids []string, format string, args ...any) {
	r.Errors = append(r.Errors, Issue{Code: code, IDs: ids, Message: fmt.Sprintf(format, args...)})
}

func (r *Result) addWarning(code, field, format string, args ...any) {
	r.Warnings = append(r.Warnings, Issue{Code: code, Field: field, Message: fmt.Sprintf(format, args...)})
}

func (r *Result) addWarningIDs(code string, ids []string, format string, args ...any) {
	r.Warnings = append(r.Warnings, Issue{Code: code, IDs: ids, Message: fmt.Sprintf(format, args...)})
}

func (r *Result) addSuggestionIDs(code string, ids []string, format string, args ...any) {
	r.Suggestions = append(r.Suggestions, Issue{Code: code, IDs: ids, Message: fmt.Sprintf(format, args...)})
}

// Err converts a failed result into the pipeline error carrying every
// violation as a detail line. Returns nil when the result passed.
func (r *Result) Err() error {
	if r.Passed {
		return nil
	}
	details := make([]string, 0, len(r.Errors))
	for _, issue := range r.Errors {
		details = append(details, issue.Message)
	}
	return artifact.NewError(artifact.CodeValidationFailed,
		"%s artifact failed validation with %d error(s)", r.ArtifactType, len(r.Errors)).
		WithDetails(details...)
}

// Format renders the result as reviewer feedback.
func (r *Result) Format() string {
	var sb strings.Builder

	if r.Passed {
		sb.WriteString(fmt.Sprintf("✓ %s artifact passed validation\n", r.ArtifactType))
	} else {
		sb.WriteString(fmt.Sprintf("✗ %s artifact failed validation: %d error(s)\n", r.ArtifactType, len(r.Errors)))
	}

	writeIssues := func(heading string, issues []Issue) {
		if len(issues) == 0 {
			return
		}
		sb.WriteString("\n" + heading + ":\n")
		for _, issue := range issues {
			sb.WriteString(fmt.Sprintf("  [%s] %s", issue.Code, issue.Message))
			if len(issue.IDs) > 0 {
				sb.WriteString(" (" + strings.Join(issue.IDs, ", ") + ")")
			}
			sb.WriteString("\n")
		}
	}

	writeIssues("Errors", r.Errors)
	writeIssues("Warnings", r.Warnings)
	writeIssues("Suggestions", r.Suggestions)
	return sb.String()
}

// Set holds the decoded sibling artifacts cross-reference resolution runs
// against. Nil members are siblings that do not exist yet; references into
// them downgrade to warnings rather than errors, since the producer may
// simply not have reached that phase.
type Set struct {
	PRD      *artifact.PRD
	Flows    *artifact.FlowSet
	ERD      *artifact.ERD
	Journeys *artifact.JourneyMap
	Tasks    *artifact.TaskBoard
	ADRs     *artifact.DecisionLog
	Plan     *artifact.ScaffoldPlan
}

// Validate runs all four phases against one artifact and its siblings.
func Validate(a *artifact.Artifact, siblings *Set) *Result {
	if siblings == nil {
		siblings = &Set{}
	}
	result := &Result{ArtifactType: a.ArtifactType}

	checkEnvelope(result, a)

	payload, ok := decodePayload(result, a)
	if ok && payload != nil {
		checkStructure(result, payload)
		checkIDFormats(result, payload)
		checkReferences(result, payload, siblings)
		checkInvariants(result, payload)
	}

	result.Passed = len(result.Errors) == 0
	return result
}

// decodePayload unpacks the envelope's data into its typed payload. A
// payload that cannot decode is a structural failure that ends the run;
// there is nothing coherent for the later phases to inspect.
func decodePayload(result *Result, a *artifact.Artifact) (any, bool) {
	var (
		payload any
		err     error
	)
	switch a.ArtifactType {
	case artifact.TypePRD:
		payload, err = a.PRD()
	case artifact.TypeFlow:
		payload, err = a.Flows()
	case artifact.TypeERD:
		payload, err = a.ERD()
	case artifact.TypeJourney:
		payload, err = a.Journeys()
	case artifact.TypeTasks:
		payload, err = a.Tasks()
	case artifact.TypeADR:
		payload, err = a.ADRs()
	case artifact.TypeScaffoldPlan:
		payload, err = a.ScaffoldPlan()
	case artifact.TypeScaffoldApplied, artifact.TypeMigrationCheck, artifact.TypeMigrationPreview:
		// Engine-written artifacts carry reports, not planning schemas.
		return nil, true
	default:
		return nil, false
	}
	if err != nil {
		result.addError("payload_undecodable", "data", "payload does not decode as %s: %v", a.ArtifactType, err)
		return nil, false
	}
	return payload, true
}

func checkEnvelope(result *Result, a *artifact.Artifact) {
	if !a.ArtifactType.IsValid() {
		result.addError("unknown_artifact_type", "artifact_type", "unknown artifact type %q", a.ArtifactType)
	}
	if a.Version == "" {
		result.addError("missing_field", "version", "version is required")
	}
	if a.CreatedAt.IsZero() {
		result.addWarning("missing_field", "created_at", "created_at is unset")
	}
	if a.Status != "" && !a.Status.IsValid() {
		result.addError("invalid_enum", "status", "status %q is not in the declared value set", a.Status)
	}
	if len(a.Data) == 0 {
		result.addError("missing_field", "data", "data payload is required")
	}
}
