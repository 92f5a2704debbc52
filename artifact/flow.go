package artifact

// FlowSet is the payload of a flow artifact: the user flows realizing each
// requirement, broken into ordered steps.
type FlowSet struct {
	ProjectName string `json:"project_name"`
	Flows       []Flow `json:"user_flows"`

	// Integrations and assumptions are free-form planning notes.
	Integrations []string `json:"integrations,omitempty"`
	Assumptions  []string `json:"assumptions,omitempty"`
}

// Flow is one end-to-end user path through a feature.
type Flow struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	// FeatureID names the PRD feature this flow realizes.
	FeatureID string `json:"feature_id"`

	// StoryIDs name the PRD user stories this flow covers.
	StoryIDs []string `json:"story_ids,omitempty"`

	// Actor is who drives the flow: user, admin, or system.
	Actor string `json:"actor,omitempty"`

	Trigger string     `json:"trigger,omitempty"`
	Steps   []FlowStep `json:"steps"`

	SuccessCriteria []string `json:"success_criteria,omitempty"`
	ErrorHandling   []string `json:"error_handling,omitempty"`
}

// FlowStep is one ordered action within a flow.
type FlowStep struct {
	ID       string `json:"id"`
	Sequence int    `json:"sequence"`
	Action   string `json:"action"`
	Actor    string `json:"actor,omitempty"`

	Inputs  []string `json:"inputs,omitempty"`
	Outputs []string `json:"outputs,omitempty"`

	// NextSteps name the STEP IDs reachable from here.
	NextSteps []string `json:"next_steps,omitempty"`
}

// FlowIDs returns every flow ID in declaration order.
func (f *FlowSet) FlowIDs() []string {
	ids := make([]string, 0, len(f.Flows))
	for _, fl := range f.Flows {
		ids = append(ids, fl.ID)
	}
	return ids
}
