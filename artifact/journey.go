package artifact

// TouchpointType classifies where a persona meets the product.
type TouchpointType string

const (
	TouchpointWeb     TouchpointType = "web"
	TouchpointMobile  TouchpointType = "mobile"
	TouchpointEmail   TouchpointType = "email"
	TouchpointSupport TouchpointType = "support"
)

// IsValid reports whether t is a known touchpoint type.
func (t TouchpointType) IsValid() bool {
	switch t {
	case TouchpointWeb, TouchpointMobile, TouchpointEmail, TouchpointSupport:
		return true
	}
	return false
}

// EmotionalState captures how a persona feels at a touchpoint.
type EmotionalState string

const (
	EmotionCurious    EmotionalState = "curious"
	EmotionFrustrated EmotionalState = "frustrated"
	EmotionConfident  EmotionalState = "confident"
	EmotionConfused   EmotionalState = "confused"
	EmotionSatisfied  EmotionalState = "satisfied"
)

// IsValid reports whether e is a known emotional state.
func (e EmotionalState) IsValid() bool {
	switch e {
	case EmotionCurious, EmotionFrustrated, EmotionConfident, EmotionConfused, EmotionSatisfied:
		return true
	}
	return false
}

// JourneyMap is the payload of a journey artifact: personas and the
// journeys they take through the product.
type JourneyMap struct {
	ProjectName string    `json:"project_name"`
	Personas    []Persona `json:"personas"`
	Journeys    []Journey `json:"journeys"`
}

// Persona is a named user archetype.
type Persona struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Goals       []string `json:"goals,omitempty"`
	PainPoints  []string `json:"pain_points,omitempty"`
}

// Journey is one persona's path across flows, split into phases.
type Journey struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	// PersonaID names the persona walking this journey.
	PersonaID string `json:"persona_id"`

	// FlowIDs name the flows this journey crosses.
	FlowIDs []string `json:"flow_ids,omitempty"`

	Phases []JourneyPhase `json:"phases"`
}

// JourneyPhase groups the touchpoints of one stage of a journey.
type JourneyPhase struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Touchpoints []Touchpoint `json:"touchpoints"`
}

// Touchpoint is a single persona/product interaction.
type Touchpoint struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Type TouchpointType `json:"type"`

	// FlowStepID optionally anchors the touchpoint to a flow step.
	FlowStepID string `json:"flow_step_id,omitempty"`

	EmotionalState EmotionalState `json:"emotional_state"`
	PainPoints     []string       `json:"pain_points,omitempty"`
	Opportunities  []string       `json:"opportunities,omitempty"`
}

// PersonaIDs returns every persona ID in declaration order.
func (j *JourneyMap) PersonaIDs() []string {
	ids := make([]string, 0, len(j.Personas))
	for _, p := range j.Personas {
		ids = append(ids, p.ID)
	}
	return ids
}
