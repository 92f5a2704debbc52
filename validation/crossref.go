package validation

import (
	"github.com/c360studio/semforge/artifact"
)

// checkReferences is phase three: every ID reference resolves. References
// within the artifact itself must resolve or the artifact is in error.
// References into a sibling artifact are errors when the sibling exists
// and lacks the ID, and warnings when the sibling has not been produced
// yet, so early-phase artifacts can still validate on their own.
func checkReferences(result *Result, payload any, siblings *Set) {
	switch doc := payload.(type) {
	case *artifact.FlowSet:
		refFlows(result, doc, siblings)
	case *artifact.JourneyMap:
		refJourneys(result, doc, siblings)
	case *artifact.ERD:
		refERD(result, doc)
	case *artifact.TaskBoard:
		refTasks(result, doc, siblings)
	case *artifact.DecisionLog:
		refADRs(result, doc)
	case *artifact.ScaffoldPlan:
		refPlan(result, doc, siblings)
	}
}

// sibling reports one reference into another artifact. haveSibling is
// false when that artifact is absent from the set.
func sibling(result *Result, haveSibling, resolved bool, code, fromID, format string, args ...any) {
	if resolved {
		return
	}
	if !haveSibling {
		result.addWarningIDs(code, []string{fromID}, format+" (referenced artifact not produced yet)", args...)
		return
	}
	result.addErrorIDs(code, []string{fromID}, format, args...)
}

func index(ids []string) map[string]bool {
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}

func refFlows(result *Result, doc *artifact.FlowSet, siblings *Set) {
	var features, stories map[string]bool
	if siblings.PRD != nil {
		features = index(siblings.PRD.FeatureIDs())
		stories = index(siblings.PRD.StoryIDs())
	}

	for _, flow := range doc.Flows {
		if flow.FeatureID != "" {
			sibling(result, siblings.PRD != nil, features[flow.FeatureID],
				"unresolved_feature", flow.ID, "flow %s references feature %s which does not exist", flow.ID, flow.FeatureID)
		}
		for _, storyID := range flow.StoryIDs {
			sibling(result, siblings.PRD != nil, stories[storyID],
				"unresolved_story", flow.ID, "flow %s references story %s which does not exist", flow.ID, storyID)
		}

		steps := map[string]bool{}
		for _, step := range flow.Steps {
			steps[step.ID] = true
		}
		for _, step := range flow.Steps {
			for _, next := range step.NextSteps {
				if next == "" || steps[next] {
					continue
				}
				result.addErrorIDs("unresolved_step", []string{step.ID},
					"step %s advances to %s which is not a step of flow %s", step.ID, next, flow.ID)
			}
		}
	}
}

func refJourneys(result *Result, doc *artifact.JourneyMap, siblings *Set) {
	personas := index(doc.PersonaIDs())

	var flows, steps map[string]bool
	if siblings.Flows != nil {
		flows = index(siblings.Flows.FlowIDs())
		steps = map[string]bool{}
		for _, flow := range siblings.Flows.Flows {
			for _, step := range flow.Steps {
				steps[step.ID] = true
			}
		}
	}

	for _, j := range doc.Journeys {
		if j.PersonaID != "" && !personas[j.PersonaID] {
			result.addErrorIDs("unresolved_persona", []string{j.ID},
				"journey %s references persona %s which does not exist", j.ID, j.PersonaID)
		}
		for _, flowID := range j.FlowIDs {
			sibling(result, siblings.Flows != nil, flows[flowID],
				"unresolved_flow", j.ID, "journey %s references flow %s which does not exist", j.ID, flowID)
		}
		for _, phase := range j.Phases {
			for _, tp := range phase.Touchpoints {
				if tp.FlowStepID == "" {
					continue
				}
				sibling(result, siblings.Flows != nil, steps[tp.FlowStepID],
					"unresolved_step", tp.ID, "touchpoint %s references step %s which does not exist", tp.ID, tp.FlowStepID)
			}
		}
	}
}

// refERD resolves relationship endpoints. Both ends must name entities of
// this ERD; relationships never point at another artifact.
func refERD(result *Result, doc *artifact.ERD) {
	entities := index(doc.EntityIDs())
	for _, rel := range doc.Relationships {
		if rel.FromEntity == "" || !entities[rel.FromEntity] {
			result.addErrorIDs("unresolved_entity", []string{rel.ID},
				"relationship %s references from_entity %s which does not exist", rel.ID, rel.FromEntity)
		}
		if rel.ToEntity == "" || !entities[rel.ToEntity] {
			result.addErrorIDs("unresolved_entity", []string{rel.ID},
				"relationship %s references to_entity %s which does not exist", rel.ID, rel.ToEntity)
		}
	}
}

func refTasks(result *Result, doc *artifact.TaskBoard, siblings *Set) {
	epics := map[string]bool{}
	for _, e := range doc.Epics {
		epics[e.ID] = true
	}
	tasks := index(doc.TaskIDs())

	var features, entities map[string]bool
	if siblings.PRD != nil {
		features = index(siblings.PRD.FeatureIDs())
	}
	if siblings.ERD != nil {
		entities = index(siblings.ERD.EntityIDs())
	}

	for _, e := range doc.Epics {
		for _, featureID := range e.FeatureIDs {
			sibling(result, siblings.PRD != nil, features[featureID],
				"unresolved_feature", e.ID, "epic %s references feature %s which does not exist", e.ID, featureID)
		}
	}
	for _, t := range doc.Tasks {
		if t.EpicID != "" && !epics[t.EpicID] {
			result.addErrorIDs("unresolved_epic", []string{t.ID},
				"task %s references epic %s which does not exist", t.ID, t.EpicID)
		}
		if t.FeatureID != "" {
			sibling(result, siblings.PRD != nil, features[t.FeatureID],
				"unresolved_feature", t.ID, "task %s references feature %s which does not exist", t.ID, t.FeatureID)
		}
		for _, entityID := range t.EntityIDs {
			sibling(result, siblings.ERD != nil, entities[entityID],
				"unresolved_entity", t.ID, "task %s references entity %s which does not exist", t.ID, entityID)
		}
		for _, dep := range t.DependsOn {
			if dep == t.ID {
				result.addErrorIDs("self_dependency", []string{t.ID}, "task %s depends on itself", t.ID)
				continue
			}
			if !tasks[dep] {
				result.addErrorIDs("unresolved_task", []string{t.ID},
					"task %s depends on %s which does not exist", t.ID, dep)
			}
		}
	}
	for _, s := range doc.Sprints {
		for _, taskID := range s.TaskIDs {
			if !tasks[taskID] {
				result.addErrorIDs("unresolved_task", []string{s.ID},
					"sprint %s schedules task %s which does not exist", s.ID, taskID)
			}
		}
	}
}

func refADRs(result *Result, doc *artifact.DecisionLog) {
	decisions := index(doc.DecisionIDs())
	for _, d := range doc.Decisions {
		if d.Supersedes == "" {
			continue
		}
		if d.Supersedes == d.ID {
			result.addErrorIDs("self_reference", []string{d.ID}, "decision %s supersedes itself", d.ID)
			continue
		}
		if !decisions[d.Supersedes] {
			result.addErrorIDs("unresolved_decision", []string{d.ID},
				"decision %s supersedes %s which does not exist", d.ID, d.Supersedes)
		}
	}
}

func refPlan(result *Result, doc *artifact.ScaffoldPlan, siblings *Set) {
	var entities map[string]bool
	if siblings.ERD != nil {
		entities = index(siblings.ERD.EntityIDs())
	}
	domains := index(doc.DomainNames())

	for _, d := range doc.Domains {
		if d.RootEntity != "" {
			sibling(result, siblings.ERD != nil, entities[d.RootEntity],
				"unresolved_entity", d.Name, "domain %q names root entity %s which does not exist", d.Name, d.RootEntity)
		}
		for _, entityID := range d.Entities {
			sibling(result, siblings.ERD != nil, entities[entityID],
				"unresolved_entity", d.Name, "domain %q maps entity %s which does not exist", d.Name, entityID)
		}
		for _, dep := range d.DependsOn {
			if !domains[dep] {
				result.addErrorIDs("unresolved_domain", []string{d.Name},
					"domain %q depends on %q which is not a declared domain", d.Name, dep)
			}
		}
	}
}
