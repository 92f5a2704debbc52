package artifact

// TaskBoard is the payload of a tasks artifact: epics, tasks, and sprints
// derived from the upstream planning documents.
type TaskBoard struct {
	ProjectName string   `json:"project_name"`
	Epics       []Epic   `json:"epics,omitempty"`
	Tasks       []Task   `json:"tasks"`
	Sprints     []Sprint `json:"sprints,omitempty"`
}

// Epic groups tasks under one delivery theme.
type Epic struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	FeatureIDs  []string `json:"feature_ids,omitempty"`
	Priority    Priority `json:"priority,omitempty"`
}

// Task is one unit of implementation work.
type Task struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Type        TaskType `json:"type"`
	Priority    Priority `json:"priority"`

	// EpicID and FeatureID tie the task back to planning documents.
	EpicID    string `json:"epic_id,omitempty"`
	FeatureID string `json:"feature_id,omitempty"`

	// EntityIDs name the ERD entities the task touches.
	EntityIDs []string `json:"entity_ids,omitempty"`

	// DependsOn names TASK IDs that must complete first.
	DependsOn []string `json:"dependencies,omitempty"`

	EstimatedHours     int      `json:"estimated_hours,omitempty"`
	AcceptanceCriteria []string `json:"acceptance_criteria,omitempty"`
}

// Sprint is a capacity-bounded window of task IDs.
type Sprint struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Capacity int      `json:"capacity,omitempty"`
	TaskIDs  []string `json:"task_ids"`
	Goals    []string `json:"goals,omitempty"`
}

// TaskIDs returns every task ID in declaration order.
func (b *TaskBoard) TaskIDs() []string {
	ids := make([]string, 0, len(b.Tasks))
	for _, t := range b.Tasks {
		ids = append(ids, t.ID)
	}
	return ids
}
