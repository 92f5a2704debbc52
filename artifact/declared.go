package artifact

// DeclaredIDs collects every stable ID the artifact's payload declares,
// including nested ones (stories under features, steps under flows,
// touchpoints under phases). References to other artifacts' IDs are not
// declarations and are not included. Callers union this across a store to
// build the existing-ID set NextID allocates against.
func (a *Artifact) DeclaredIDs() []string {
	var ids []string
	switch a.ArtifactType {
	case TypePRD:
		doc, err := a.PRD()
		if err != nil {
			return nil
		}
		for _, f := range doc.Features {
			ids = append(ids, f.ID)
			for _, s := range f.UserStories {
				ids = append(ids, s.ID)
			}
		}
	case TypeFlow:
		doc, err := a.Flows()
		if err != nil {
			return nil
		}
		for _, flow := range doc.Flows {
			ids = append(ids, flow.ID)
			for _, step := range flow.Steps {
				ids = append(ids, step.ID)
			}
		}
	case TypeERD:
		doc, err := a.ERD()
		if err != nil {
			return nil
		}
		for _, e := range doc.Entities {
			ids = append(ids, e.ID)
		}
		for _, rel := range doc.Relationships {
			ids = append(ids, rel.ID)
		}
	case TypeJourney:
		doc, err := a.Journeys()
		if err != nil {
			return nil
		}
		for _, p := range doc.Personas {
			ids = append(ids, p.ID)
		}
		for _, j := range doc.Journeys {
			ids = append(ids, j.ID)
			for _, phase := range j.Phases {
				ids = append(ids, phase.ID)
				for _, tp := range phase.Touchpoints {
					ids = append(ids, tp.ID)
				}
			}
		}
	case TypeTasks:
		doc, err := a.Tasks()
		if err != nil {
			return nil
		}
		for _, e := range doc.Epics {
			ids = append(ids, e.ID)
		}
		for _, t := range doc.Tasks {
			ids = append(ids, t.ID)
		}
		for _, s := range doc.Sprints {
			ids = append(ids, s.ID)
		}
	case TypeADR:
		doc, err := a.ADRs()
		if err != nil {
			return nil
		}
		for _, d := range doc.Decisions {
			ids = append(ids, d.ID)
		}
	case TypeScaffoldPlan:
		doc, err := a.ScaffoldPlan()
		if err != nil {
			return nil
		}
		for _, entry := range doc.Templates {
			ids = append(ids, entry.ID)
		}
	}
	return ids
}
