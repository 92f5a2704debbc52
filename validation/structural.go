package validation

import (
	"github.com/c360studio/semforge/artifact"
)

// checkStructure is phase one: required fields are present, enum fields
// hold declared values, and collections that must not be empty are not.
func checkStructure(result *Result, payload any) {
	switch doc := payload.(type) {
	case *artifact.PRD:
		structurePRD(result, doc)
	case *artifact.FlowSet:
		structureFlows(result, doc)
	case *artifact.ERD:
		structureERD(result, doc)
	case *artifact.JourneyMap:
		structureJourneys(result, doc)
	case *artifact.TaskBoard:
		structureTasks(result, doc)
	case *artifact.DecisionLog:
		structureADRs(result, doc)
	case *artifact.ScaffoldPlan:
		structurePlan(result, doc)
	}
}

func structurePRD(result *Result, doc *artifact.PRD) {
	if doc.ProjectName == "" {
		result.addError("missing_field", "project_name", "project_name is required")
	}
	if len(doc.Features) == 0 {
		result.addError("empty_collection", "features", "a PRD must declare at least one feature")
	}
	for _, f := range doc.Features {
		if f.Title == "" {
			result.addErrorIDs("missing_field", []string{f.ID}, "feature %s has no title", f.ID)
		}
		if f.Priority != "" && !f.Priority.IsValid() {
			result.addErrorIDs("invalid_enum", []string{f.ID}, "feature %s priority %q is not in the declared value set", f.ID, f.Priority)
		}
		for _, s := range f.UserStories {
			if s.Priority != "" && !s.Priority.IsValid() {
				result.addErrorIDs("invalid_enum", []string{s.ID}, "story %s priority %q is not in the declared value set", s.ID, s.Priority)
			}
		}
	}
}

func structureFlows(result *Result, doc *artifact.FlowSet) {
	if doc.ProjectName == "" {
		result.addError("missing_field", "project_name", "project_name is required")
	}
	if len(doc.Flows) == 0 {
		result.addError("empty_collection", "user_flows", "a flow artifact must declare at least one flow")
	}
	for _, flow := range doc.Flows {
		if flow.Name == "" {
			result.addErrorIDs("missing_field", []string{flow.ID}, "flow %s has no name", flow.ID)
		}
		if len(flow.Steps) == 0 {
			result.addErrorIDs("empty_collection", []string{flow.ID}, "flow %s has no steps", flow.ID)
		}
		seq := map[int]string{}
		for _, step := range flow.Steps {
			if prev, dup := seq[step.Sequence]; dup {
				result.addErrorIDs("duplicate_sequence", []string{prev, step.ID},
					"flow %s steps %s and %s share sequence %d", flow.ID, prev, step.ID, step.Sequence)
			}
			seq[step.Sequence] = step.ID
			if step.Action == "" {
				result.addErrorIDs("missing_field", []string{step.ID}, "step %s has no action", step.ID)
			}
		}
	}
}

func structureERD(result *Result, doc *artifact.ERD) {
	if doc.ProjectName == "" {
		result.addError("missing_field", "project_name", "project_name is required")
	}
	if len(doc.Entities) == 0 {
		result.addError("empty_collection", "entities", "an ERD must declare at least one entity")
	}
	for _, e := range doc.Entities {
		if e.Name == "" {
			result.addErrorIDs("missing_field", []string{e.ID}, "entity %s has no name", e.ID)
		}
		if len(e.Attributes) == 0 {
			result.addErrorIDs("empty_collection", []string{e.ID}, "entity %s has no attributes", e.ID)
		}
		names := map[string]bool{}
		for _, attr := range e.Attributes {
			if attr.Name == "" {
				result.addErrorIDs("missing_field", []string{e.ID}, "entity %s has an attribute with no name", e.ID)
				continue
			}
			if names[attr.Name] {
				result.addErrorIDs("duplicate_attribute", []string{e.ID}, "entity %s declares attribute %q twice", e.ID, attr.Name)
			}
			names[attr.Name] = true
			if attr.Type == "" {
				result.addErrorIDs("missing_field", []string{e.ID}, "entity %s attribute %q has no type", e.ID, attr.Name)
			}
		}
		for _, idx := range e.Indexes {
			for _, col := range idx.Columns {
				if !names[col] {
					result.addErrorIDs("unknown_index_column", []string{e.ID},
						"entity %s index %q names column %q which is not an attribute", e.ID, idx.Name, col)
				}
			}
		}
	}
	for _, rel := range doc.Relationships {
		if rel.Type != "" && !rel.Type.IsValid() {
			result.addErrorIDs("invalid_enum", []string{rel.ID},
				"relationship %s type %q is not in the declared value set", rel.ID, rel.Type)
		}
		if rel.ForeignKey == "" {
			result.addErrorIDs("missing_field", []string{rel.ID}, "relationship %s has no foreign_key", rel.ID)
		}
	}
}

func structureJourneys(result *Result, doc *artifact.JourneyMap) {
	if doc.ProjectName == "" {
		result.addError("missing_field", "project_name", "project_name is required")
	}
	if len(doc.Personas) == 0 {
		result.addError("empty_collection", "personas", "a journey map must declare at least one persona")
	}
	for _, j := range doc.Journeys {
		if len(j.Phases) == 0 {
			result.addErrorIDs("empty_collection", []string{j.ID}, "journey %s has no phases", j.ID)
		}
		for _, phase := range j.Phases {
			for _, tp := range phase.Touchpoints {
				if tp.Type != "" && !tp.Type.IsValid() {
					result.addErrorIDs("invalid_enum", []string{tp.ID},
						"touchpoint %s type %q is not in the declared value set", tp.ID, tp.Type)
				}
				if tp.EmotionalState != "" && !tp.EmotionalState.IsValid() {
					result.addErrorIDs("invalid_enum", []string{tp.ID},
						"touchpoint %s emotional_state %q is not in the declared value set", tp.ID, tp.EmotionalState)
				}
			}
		}
	}
}

func structureTasks(result *Result, doc *artifact.TaskBoard) {
	if doc.ProjectName == "" {
		result.addError("missing_field", "project_name", "project_name is required")
	}
	if len(doc.Tasks) == 0 {
		result.addError("empty_collection", "tasks", "a task board must declare at least one task")
	}
	for _, t := range doc.Tasks {
		if t.Title == "" {
			result.addErrorIDs("missing_field", []string{t.ID}, "task %s has no title", t.ID)
		}
		if t.Type != "" && !t.Type.IsValid() {
			result.addErrorIDs("invalid_enum", []string{t.ID}, "task %s type %q is not in the declared value set", t.ID, t.Type)
		}
		if t.Priority != "" && !t.Priority.IsValid() {
			result.addErrorIDs("invalid_enum", []string{t.ID}, "task %s priority %q is not in the declared value set", t.ID, t.Priority)
		}
		if t.EstimatedHours < 0 {
			result.addErrorIDs("invalid_value", []string{t.ID}, "task %s estimated_hours is negative", t.ID)
		}
	}
	for _, s := range doc.Sprints {
		if s.Capacity < 0 {
			result.addErrorIDs("invalid_value", []string{s.ID}, "sprint %s capacity is negative", s.ID)
		}
	}
}

func structureADRs(result *Result, doc *artifact.DecisionLog) {
	if doc.ProjectName == "" {
		result.addError("missing_field", "project_name", "project_name is required")
	}
	for _, d := range doc.Decisions {
		if d.Title == "" {
			result.addErrorIDs("missing_field", []string{d.ID}, "decision %s has no title", d.ID)
		}
		if d.Status != "" && !d.Status.IsValid() {
			result.addErrorIDs("invalid_enum", []string{d.ID}, "decision %s status %q is not in the declared value set", d.ID, d.Status)
		}
		if d.Context == "" {
			result.addWarningIDs("missing_field", []string{d.ID}, "decision %s has no context", d.ID)
		}
	}
}

func structurePlan(result *Result, doc *artifact.ScaffoldPlan) {
	if doc.ProjectName == "" {
		result.addError("missing_field", "project_name", "project_name is required")
	}
	if doc.MothershipVersion == "" {
		result.addError("missing_field", "mothership_version", "mothership_version is required")
	}
	if invalid := doc.Features.Invalid(); len(invalid) > 0 {
		for _, msg := range invalid {
			result.addError("invalid_enum", "features", "%s", msg)
		}
	}
	if len(doc.Templates) == 0 {
		result.addError("empty_collection", "templates", "a scaffold plan must declare at least one template entry")
	}
	for _, entry := range doc.Templates {
		if entry.SourcePath == "" {
			result.addErrorIDs("missing_field", []string{entry.ID}, "template entry %s has no source_path", entry.ID)
		}
		if entry.TargetPath == "" {
			result.addErrorIDs("missing_field", []string{entry.ID}, "template entry %s has no target_path", entry.ID)
		}
	}
	seen := map[string]bool{}
	for _, d := range doc.Domains {
		if d.Name == "" {
			result.addError("missing_field", "domains", "a domain has no name")
			continue
		}
		if seen[d.Name] {
			result.addError("duplicate_domain", "domains", "domain %q is declared twice", d.Name)
		}
		seen[d.Name] = true
	}
}

// checkIDFormats is phase two: every ID matches its declared prefix and
// zero-padded width, and no ID is declared twice within its collection.
func checkIDFormats(result *Result, payload any) {
	switch doc := payload.(type) {
	case *artifact.PRD:
		ids := newIDChecker(result)
		for _, f := range doc.Features {
			ids.check(f.ID, artifact.IDFeature, "feature")
			for _, s := range f.UserStories {
				ids.check(s.ID, artifact.IDUserStory, "story")
			}
		}
	case *artifact.FlowSet:
		ids := newIDChecker(result)
		for _, flow := range doc.Flows {
			ids.check(flow.ID, artifact.IDFlow, "flow")
			for _, step := range flow.Steps {
				ids.check(step.ID, artifact.IDFlowStep, "step")
			}
		}
	case *artifact.ERD:
		ids := newIDChecker(result)
		for _, e := range doc.Entities {
			ids.check(e.ID, artifact.IDEntity, "entity")
		}
		for _, rel := range doc.Relationships {
			ids.check(rel.ID, artifact.IDRelationship, "relationship")
		}
	case *artifact.JourneyMap:
		ids := newIDChecker(result)
		for _, p := range doc.Personas {
			ids.check(p.ID, artifact.IDPersona, "persona")
		}
		for _, j := range doc.Journeys {
			ids.check(j.ID, artifact.IDJourney, "journey")
			for _, phase := range j.Phases {
				ids.check(phase.ID, artifact.IDPhase, "phase")
				for _, tp := range phase.Touchpoints {
					ids.check(tp.ID, artifact.IDTouchpoint, "touchpoint")
				}
			}
		}
	case *artifact.TaskBoard:
		ids := newIDChecker(result)
		for _, e := range doc.Epics {
			ids.check(e.ID, artifact.IDEpic, "epic")
		}
		for _, t := range doc.Tasks {
			ids.check(t.ID, artifact.IDTask, "task")
		}
		for _, s := range doc.Sprints {
			ids.check(s.ID, artifact.IDSprint, "sprint")
		}
	case *artifact.DecisionLog:
		ids := newIDChecker(result)
		for _, d := range doc.Decisions {
			ids.check(d.ID, artifact.IDDecision, "decision")
		}
	case *artifact.ScaffoldPlan:
		ids := newIDChecker(result)
		for _, entry := range doc.Templates {
			ids.check(entry.ID, artifact.IDTemplateEntry, "template entry")
		}
	}
}

// idChecker validates IDs against their spec and tracks duplicates across
// one artifact.
type idChecker struct {
	result *Result
	seen   map[string]bool
}

func newIDChecker(result *Result) *idChecker {
	return &idChecker{result: result, seen: map[string]bool{}}
}

func (c *idChecker) check(id string, spec artifact.IDSpec, kind string) {
	if id == "" {
		c.result.addError("missing_id", "", "a %s has no ID", kind)
		return
	}
	if !spec.Valid(id) {
		c.result.addErrorIDs("malformed_id", []string{id},
			"%s ID %q does not match %s-%0*d", kind, id, spec.Prefix, spec.Width, 1)
		return
	}
	if c.seen[id] {
		c.result.addErrorIDs("duplicate_id", []string{id}, "%s ID %s is declared more than once", kind, id)
	}
	c.seen[id] = true
}
