package artifact

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// IDSpec fixes the prefix and zero-padded digit width for one entity kind.
// Once issued, an ID is permanent: it is never reassigned to a different
// logical entity, even if the entity is later deprecated.
type IDSpec struct {
	// Prefix is the uppercase kind marker before the dash.
	Prefix string

	// Width is the minimum digit count; numbers are zero-padded to it.
	Width int
}

// ID specs per entity kind. Decisions use a wider counter than the rest.
var (
	IDFeature       = IDSpec{Prefix: "FR", Width: 3}
	IDUserStory     = IDSpec{Prefix: "ST", Width: 3}
	IDFlow          = IDSpec{Prefix: "FLOW", Width: 3}
	IDFlowStep      = IDSpec{Prefix: "STEP", Width: 3}
	IDEntity        = IDSpec{Prefix: "ENT", Width: 3}
	IDRelationship  = IDSpec{Prefix: "REL", Width: 3}
	IDPersona       = IDSpec{Prefix: "PERSONA", Width: 3}
	IDJourney       = IDSpec{Prefix: "JRN", Width: 3}
	IDPhase         = IDSpec{Prefix: "PHASE", Width: 3}
	IDTouchpoint    = IDSpec{Prefix: "TP", Width: 3}
	IDTask          = IDSpec{Prefix: "TASK", Width: 3}
	IDEpic          = IDSpec{Prefix: "EPIC", Width: 3}
	IDSprint        = IDSpec{Prefix: "SPRINT", Width: 3}
	IDDecision      = IDSpec{Prefix: "ADR", Width: 4}
	IDTemplateEntry = IDSpec{Prefix: "SCAFFOLD", Width: 3}
)

// idSpecs indexes every known spec by prefix for format validation.
var idSpecs = map[string]IDSpec{
	IDFeature.Prefix:       IDFeature,
	IDUserStory.Prefix:     IDUserStory,
	IDFlow.Prefix:          IDFlow,
	IDFlowStep.Prefix:      IDFlowStep,
	IDEntity.Prefix:        IDEntity,
	IDRelationship.Prefix:  IDRelationship,
	IDPersona.Prefix:       IDPersona,
	IDJourney.Prefix:       IDJourney,
	IDPhase.Prefix:         IDPhase,
	IDTouchpoint.Prefix:    IDTouchpoint,
	IDTask.Prefix:          IDTask,
	IDEpic.Prefix:          IDEpic,
	IDSprint.Prefix:        IDSprint,
	IDDecision.Prefix:      IDDecision,
	IDTemplateEntry.Prefix: IDTemplateEntry,
}

var idShape = regexp.MustCompile(`^([A-Z]+)-([0-9]+)$`)

// SpecForPrefix returns the ID spec registered for a prefix.
func SpecForPrefix(prefix string) (IDSpec, bool) {
	spec, ok := idSpecs[prefix]
	return spec, ok
}

// SpecForID returns the ID spec whose prefix matches id's prefix.
func SpecForID(id string) (IDSpec, bool) {
	m := idShape.FindStringSubmatch(id)
	if m == nil {
		return IDSpec{}, false
	}
	return SpecForPrefix(m[1])
}

// Format renders an ID for number n, zero-padded to the spec width.
// Numbers too large for the width keep all their digits.
func (s IDSpec) Format(n int) string {
	return fmt.Sprintf("%s-%0*d", s.Prefix, s.Width, n)
}

// Parse extracts the numeric suffix of an ID carrying this spec's prefix.
func (s IDSpec) Parse(id string) (int, bool) {
	digits, ok := strings.CutPrefix(id, s.Prefix+"-")
	if !ok || digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Valid reports whether id is well-formed for this spec: the fixed prefix,
// a dash, and digits zero-padded to exactly the spec width. Wider IDs are
// accepted only once the number genuinely outgrows the width.
func (s IDSpec) Valid(id string) bool {
	digits, ok := strings.CutPrefix(id, s.Prefix+"-")
	if !ok {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	switch {
	case len(digits) < s.Width:
		return false
	case len(digits) == s.Width:
		return true
	default:
		return digits[0] != '0'
	}
}

// Next computes the next ID for this spec given every ID currently in use.
func (s IDSpec) Next(existing []string) string {
	return NextID(existing, s.Prefix, s.Width)
}

// NextID scans existing for IDs with the given prefix, takes the highest
// numeric suffix, and returns prefix-(max+1) zero-padded to width. It is a
// pure function of its inputs: no stored counter, no locking. Callers that
// race on allocation must detect the duplicate at commit time and retry
// against the refreshed ID set. Deleted IDs leave gaps that are never
// reused, so the result is always absent from existing.
func NextID(existing []string, prefix string, width int) string {
	spec := IDSpec{Prefix: prefix, Width: width}
	max := 0
	for _, id := range existing {
		if n, ok := spec.Parse(id); ok && n > max {
			max = n
		}
	}
	return spec.Format(max + 1)
}
