package validation

import (
	"strings"
	"unicode"

	"github.com/c360studio/semforge/artifact"
)

// checkInvariants is phase four: rules that hold across fields rather than
// within one. ERD relationships must place their foreign key on the child
// entity, every entity needs a primary key, and scaffold plan domains must
// form a single-rooted acyclic mapping. Softer conventions land in the
// warning and suggestion tiers.
func checkInvariants(result *Result, payload any) {
	switch doc := payload.(type) {
	case *artifact.PRD:
		invariantsPRD(result, doc)
	case *artifact.ERD:
		invariantsERD(result, doc)
	case *artifact.ScaffoldPlan:
		for _, issue := range domainIssues(doc) {
			result.Errors = append(result.Errors, issue)
		}
	}
}

func invariantsPRD(result *Result, doc *artifact.PRD) {
	for _, f := range doc.Features {
		if f.Priority == artifact.PriorityHigh && len(f.UserStories) == 0 {
			result.addWarningIDs("high_priority_without_stories", []string{f.ID},
				"high priority feature %s has no user stories", f.ID)
		}
		for _, s := range f.UserStories {
			if s.Title != "" && !strings.HasPrefix(strings.ToLower(s.Title), "as a") {
				result.addWarningIDs("story_format", []string{s.ID},
					"story %s title does not follow the \"As a ... I want ...\" form", s.ID)
			}
			if len(s.AcceptanceCriteria) == 0 {
				result.addWarningIDs("missing_acceptance_criteria", []string{s.ID},
					"story %s has no acceptance criteria", s.ID)
			}
		}
	}
}

func invariantsERD(result *Result, doc *artifact.ERD) {
	for _, e := range doc.Entities {
		if _, ok := e.PrimaryKey(); !ok {
			result.addErrorIDs("missing_primary_key", []string{e.ID},
				"entity %s (%s) has no primary key attribute", e.ID, e.Name)
		}
		if e.Name != "" && !isPascalCase(e.Name) {
			result.addWarningIDs("entity_naming", []string{e.ID},
				"entity %s name %q is not PascalCase", e.ID, e.Name)
		}
		var hasCreated, hasUpdated bool
		for _, attr := range e.Attributes {
			if attr.Name != "" && !isSnakeCase(attr.Name) {
				result.addWarningIDs("attribute_naming", []string{e.ID},
					"entity %s attribute %q is not snake_case", e.ID, attr.Name)
			}
			switch attr.Name {
			case "created_at":
				hasCreated = true
			case "updated_at":
				hasUpdated = true
			}
		}
		if !hasCreated {
			result.addWarningIDs("missing_timestamp", []string{e.ID},
				"entity %s has no created_at attribute", e.ID)
		}
		if !hasUpdated {
			result.addWarningIDs("missing_timestamp", []string{e.ID},
				"entity %s has no updated_at attribute", e.ID)
		}
	}

	// The child end of a relationship owns the foreign key column, so the
	// named attribute must literally appear on from_entity.
	for _, rel := range doc.Relationships {
		if rel.ForeignKey == "" {
			continue
		}
		child, ok := doc.Entity(rel.FromEntity)
		if !ok {
			continue // unresolved endpoints already reported earlier
		}
		if !child.HasAttribute(rel.ForeignKey) {
			result.addErrorIDs("foreign_key_missing", []string{rel.ID},
				"relationship %s declares foreign key %q but entity %s (%s) has no such attribute",
				rel.ID, rel.ForeignKey, child.ID, child.Name)
			continue
		}
		if !childIndexes(child, rel.ForeignKey) {
			result.addSuggestionIDs("foreign_key_unindexed", []string{rel.ID},
				"foreign key %q on entity %s is not covered by an index", rel.ForeignKey, child.ID)
		}
	}
}

func childIndexes(e *artifact.Entity, column string) bool {
	for _, idx := range e.Indexes {
		for _, col := range idx.Columns {
			if col == column {
				return true
			}
		}
	}
	for _, attr := range e.Attributes {
		if attr.Name == column && (attr.Unique || attr.PrimaryKey) {
			return true
		}
	}
	return false
}

func isPascalCase(s string) bool {
	if s == "" {
		return false
	}
	runes := []rune(s)
	if !unicode.IsUpper(runes[0]) {
		return false
	}
	for _, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func isSnakeCase(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLower(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return !strings.HasPrefix(s, "_") && !strings.HasSuffix(s, "_")
}
