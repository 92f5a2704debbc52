package artifact

// DecisionLog is the payload of an adr artifact: the project's recorded
// architecture decisions.
type DecisionLog struct {
	ProjectName string     `json:"project_name"`
	Decisions   []Decision `json:"decisions"`
}

// Decision is one architecture decision record.
type Decision struct {
	ID     string    `json:"id"`
	Title  string    `json:"title"`
	Status ADRStatus `json:"status"`

	Context      string   `json:"context,omitempty"`
	Decision     string   `json:"decision"`
	Consequences []string `json:"consequences,omitempty"`

	// Alternatives lists the options considered and rejected.
	Alternatives []Alternative `json:"alternatives,omitempty"`

	// Supersedes names the prior ADR this decision replaces. The old
	// record stays in the log; it is never removed or renumbered.
	Supersedes string `json:"supersedes,omitempty"`
}

// Alternative is one rejected option with its trade-offs.
type Alternative struct {
	Option string   `json:"option"`
	Pros   []string `json:"pros,omitempty"`
	Cons   []string `json:"cons,omitempty"`
}

// DecisionIDs returns every decision ID in declaration order.
func (d *DecisionLog) DecisionIDs() []string {
	ids := make([]string, 0, len(d.Decisions))
	for _, dec := range d.Decisions {
		ids = append(ids, dec.ID)
	}
	return ids
}
