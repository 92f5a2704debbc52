package artifact

// PRD is the payload of a prd artifact: the project's requirements broken
// into identified features and user stories.
type PRD struct {
	// ProjectName is the canonical project name; sibling artifacts must agree.
	ProjectName string `json:"project_name"`

	// Version is the requirements document version.
	Version string `json:"version,omitempty"`

	// Features are the identified requirements, FR-prefixed.
	Features []Feature `json:"features"`

	// Dependencies, assumptions, and constraints are free-form planning notes.
	Dependencies []string `json:"dependencies,omitempty"`
	Assumptions  []string `json:"assumptions,omitempty"`
	Constraints  []string `json:"constraints,omitempty"`
}

// Feature is one identified requirement with its user stories.
type Feature struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Priority    Priority    `json:"priority"`
	UserStories []UserStory `json:"user_stories,omitempty"`
}

// UserStory is a single "As a ... I want ... so that ..." requirement.
type UserStory struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	AcceptanceCriteria []string `json:"acceptance_criteria,omitempty"`
	Priority           Priority `json:"priority,omitempty"`
}

// FeatureIDs returns every feature ID in declaration order.
func (p *PRD) FeatureIDs() []string {
	ids := make([]string, 0, len(p.Features))
	for _, f := range p.Features {
		ids = append(ids, f.ID)
	}
	return ids
}

// StoryIDs returns every user story ID across all features.
func (p *PRD) StoryIDs() []string {
	var ids []string
	for _, f := range p.Features {
		for _, s := range f.UserStories {
			ids = append(ids, s.ID)
		}
	}
	return ids
}
