// Package render implements the deterministic two-pass template renderer:
// placeholder substitution followed by conditional-block evaluation. Both
// passes are pure functions of their inputs; identical inputs always yield
// byte-identical output.
package render

import (
	"strings"

	"github.com/c360studio/semforge/artifact"
)

// Op is a clause operator.
type Op string

const (
	// OpEqual tests a binding for equality, e.g. DATABASE=postgres.
	// Boolean flags use the same form: REALTIME=true.
	OpEqual Op = "="

	// OpNotEqual tests a binding for inequality, e.g. AUTH!=none.
	OpNotEqual Op = "!="
)

// Clause is one key/operator/value test.
type Clause struct {
	Key   string
	Op    Op
	Value string
}

// Condition is the parsed form of an IF marker: an OR-list of AND-groups.
// Comma joins clauses into a group (AND); pipe joins groups (OR), so AND
// binds tighter than OR.
type Condition struct {
	Groups [][]Clause
}

// ParseCondition parses the text between "IF:" and the closing marker into
// an explicit grammar. The condition is evaluated into a boolean before any
// text manipulation happens, keeping the renderer's passes separable.
func ParseCondition(text string) (Condition, error) {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return Condition{}, artifact.NewError(artifact.CodeMalformedTemplate, "empty condition in IF marker")
	}

	var cond Condition
	for _, groupText := range strings.Split(raw, "|") {
		var group []Clause
		for _, clauseText := range strings.Split(groupText, ",") {
			clause, err := parseClause(clauseText)
			if err != nil {
				return Condition{}, err
			}
			group = append(group, clause)
		}
		cond.Groups = append(cond.Groups, group)
	}
	return cond, nil
}

func parseClause(text string) (Clause, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return Clause{}, artifact.NewError(artifact.CodeMalformedTemplate, "empty clause in condition %q", text)
	}

	if key, value, ok := strings.Cut(s, "!="); ok {
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if key == "" || value == "" {
			return Clause{}, artifact.NewError(artifact.CodeMalformedTemplate, "incomplete inequality clause %q", s)
		}
		return Clause{Key: key, Op: OpNotEqual, Value: value}, nil
	}

	if key, value, ok := strings.Cut(s, "="); ok {
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if key == "" || value == "" {
			return Clause{}, artifact.NewError(artifact.CodeMalformedTemplate, "incomplete equality clause %q", s)
		}
		return Clause{Key: key, Op: OpEqual, Value: value}, nil
	}

	return Clause{}, artifact.NewError(artifact.CodeMalformedTemplate, "clause %q has no = or != operator", s)
}

// Eval resolves the condition against variable bindings and feature flags.
// Variables win over flags when a key appears in both; a key bound in
// neither reads as the empty string, so equality fails and inequality
// holds.
func (c Condition) Eval(variables map[string]string, flags map[string]bool) bool {
	for _, group := range c.Groups {
		if evalGroup(group, variables, flags) {
			return true
		}
	}
	return false
}

func evalGroup(group []Clause, variables map[string]string, flags map[string]bool) bool {
	for _, clause := range group {
		if !clause.eval(variables, flags) {
			return false
		}
	}
	return true
}

func (cl Clause) eval(variables map[string]string, flags map[string]bool) bool {
	bound := lookup(cl.Key, variables, flags)
	switch cl.Op {
	case OpNotEqual:
		return bound != cl.Value
	default:
		return bound == cl.Value
	}
}

func lookup(key string, variables map[string]string, flags map[string]bool) string {
	if v, ok := variables[key]; ok {
		return v
	}
	if b, ok := flags[key]; ok {
		if b {
			return "true"
		}
		return "false"
	}
	return ""
}
