package validation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/c360studio/semforge/artifact"
)

// CheckDomainMapping verifies the plan's domain tree on its own: every
// dependency names a declared domain, every domain has exactly one root
// entity, no entity belongs to two domains, and the dependency graph is
// acyclic. The scaffold engine re-runs this immediately before flushing
// any file, independent of the full validation pass.
func CheckDomainMapping(plan *artifact.ScaffoldPlan) error {
	var details []string

	known := index(plan.DomainNames())
	for _, d := range plan.Domains {
		for _, dep := range d.DependsOn {
			if !known[dep] {
				details = append(details, fmt.Sprintf("domain %q depends on %q which is not a declared domain", d.Name, dep))
			}
		}
	}
	for _, issue := range domainIssues(plan) {
		details = append(details, issue.Message)
	}

	if len(details) == 0 {
		return nil
	}
	return artifact.NewError(artifact.CodeDomainMappingInvalid,
		"scaffold plan domain mapping is invalid").WithDetails(details...)
}

// domainIssues reports root-entity and cycle violations. Dangling
// dependency names are left to cross-reference resolution; unknown nodes
// are simply absent from the graph here.
func domainIssues(doc *artifact.ScaffoldPlan) []Issue {
	var issues []Issue
	add := func(code string, ids []string, format string, args ...any) {
		issues = append(issues, Issue{Code: code, IDs: ids, Message: fmt.Sprintf(format, args...)})
	}

	rootOwner := map[string]string{}
	entityOwner := map[string]string{}
	for _, d := range doc.Domains {
		if d.Name == "" {
			continue
		}
		if d.RootEntity == "" {
			add("missing_root_entity", []string{d.Name}, "domain %q has no root entity", d.Name)
		} else {
			if prev, taken := rootOwner[d.RootEntity]; taken {
				add("duplicate_root_entity", []string{prev, d.Name},
					"domains %q and %q declare the same root entity %s", prev, d.Name, d.RootEntity)
			}
			rootOwner[d.RootEntity] = d.Name
			if len(d.Entities) > 0 && !slices.Contains(d.Entities, d.RootEntity) {
				add("root_outside_domain", []string{d.Name},
					"domain %q root entity %s is not among its owned entities", d.Name, d.RootEntity)
			}
		}
		for _, entityID := range d.Entities {
			if prev, owned := entityOwner[entityID]; owned && prev != d.Name {
				add("entity_in_two_domains", []string{prev, d.Name},
					"entity %s is owned by both domain %q and domain %q", entityID, prev, d.Name)
			}
			entityOwner[entityID] = d.Name
		}
	}

	graph := dependencyGraph(doc)
	if !topoCompletes(graph) {
		if cycle := cycleWitness(graph); len(cycle) > 0 {
			add("domain_cycle", cycle[:len(cycle)-1],
				"domain dependencies form a cycle (%s)", strings.Join(cycle, " -> "))
		}
	}
	return issues
}

// dependencyGraph maps each domain to its declared, resolvable
// dependencies, sorted so traversal order is stable.
func dependencyGraph(doc *artifact.ScaffoldPlan) map[string][]string {
	known := index(doc.DomainNames())
	graph := make(map[string][]string, len(doc.Domains))
	for _, d := range doc.Domains {
		if d.Name == "" {
			continue
		}
		var deps []string
		for _, dep := range d.DependsOn {
			if known[dep] && !slices.Contains(deps, dep) {
				deps = append(deps, dep)
			}
		}
		slices.Sort(deps)
		graph[d.Name] = deps
	}
	return graph
}

// topoCompletes runs Kahn's algorithm over the dependency graph and
// reports whether every domain was ordered. A shortfall means at least
// one cycle.
func topoCompletes(graph map[string][]string) bool {
	indegree := make(map[string]int, len(graph))
	dependents := make(map[string][]string, len(graph))
	for name, deps := range graph {
		indegree[name] += 0
		for _, dep := range deps {
			indegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	var ready []string
	for name, n := range indegree {
		if n == 0 {
			ready = append(ready, name)
		}
	}
	slices.Sort(ready)

	processed := 0
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		processed++
		for _, dependent := range dependents[name] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
		slices.Sort(ready)
	}
	return processed == len(graph)
}

// cycleWitness walks the graph depth-first and returns one concrete cycle
// as a path whose first and last element coincide, e.g.
// [sales billing sales]. Returns nil when the graph is acyclic.
func cycleWitness(graph map[string][]string) []string {
	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int, len(graph))
	var stack []string
	var found []string

	var visit func(string) bool
	visit = func(name string) bool {
		color[name] = gray
		stack = append(stack, name)
		for _, dep := range graph[name] {
			switch color[dep] {
			case white:
				if visit(dep) {
					return true
				}
			case gray:
				start := slices.Index(stack, dep)
				found = append(slices.Clone(stack[start:]), dep)
				return true
			}
		}
		stack = stack[:len(stack)-1]
		color[name] = black
		return false
	}

	names := make([]string, 0, len(graph))
	for name := range graph {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if color[name] == white && visit(name) {
			return found
		}
	}
	return nil
}
