package render

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/c360studio/semforge/artifact"
)

var (
	placeholderPattern = regexp.MustCompile(`\{\{([A-Za-z_][A-Za-z0-9_]*)\}\}`)
	ifMarkerPattern    = regexp.MustCompile(`<!--\s*IF:([^>]+?)\s*-->`)
	endMarkerPattern   = regexp.MustCompile(`<!--\s*END:IF\s*-->`)
)

// Render turns template text into output text in two fixed passes:
//
//  1. Substitution: every {{NAME}} token is replaced by variables[NAME].
//     Unresolved tokens are a hard failure, never silently blanked, so
//     placeholder text cannot leak into generated files.
//  2. Conditional evaluation: <!-- IF:COND --> ... <!-- END:IF --> blocks
//     are kept (delimiters stripped) or removed entirely according to the
//     condition. Unmatched or malformed markers are a hard failure; no
//     marker ever survives into the output.
//
// Identical inputs produce byte-identical output. The function reads no
// clock, randomness, or filesystem state.
func Render(templateText string, variables map[string]string, featureFlags map[string]bool) (string, error) {
	substituted, err := substitute(templateText, variables)
	if err != nil {
		return "", err
	}

	out, err := evalConditionals(substituted, variables, featureFlags)
	if err != nil {
		return "", err
	}
	return out, nil
}

// substitute is pass one. It resolves every placeholder or fails with the
// complete list of missing bindings.
func substitute(text string, variables map[string]string) (string, error) {
	missing := map[string]bool{}
	out := placeholderPattern.ReplaceAllStringFunc(text, func(token string) string {
		name := token[2 : len(token)-2]
		value, ok := variables[name]
		if !ok {
			missing[name] = true
			return token
		}
		return value
	})

	if len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for name := range missing {
			names = append(names, name)
		}
		sort.Strings(names)
		return "", artifact.NewError(artifact.CodeUndefinedVariable,
			"template references %d unbound variable(s)", len(names)).
			WithDetails(names...)
	}
	return out, nil
}

// marker is one IF or END:IF occurrence located in the text.
type marker struct {
	start, end int
	condition  string
	isEnd      bool
}

// node is a piece of the parsed template: literal text or a conditional
// block with its children.
type node struct {
	text     string
	cond     Condition
	children []*node
	isBlock  bool
}

// evalConditionals is pass two: locate markers, build the block tree, and
// emit only the content whose conditions hold.
func evalConditionals(text string, variables map[string]string, flags map[string]bool) (string, error) {
	markers, err := locateMarkers(text)
	if err != nil {
		return "", err
	}
	if len(markers) == 0 {
		return text, nil
	}

	root, err := buildTree(text, markers)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	emit(&sb, root, variables, flags)
	return sb.String(), nil
}

func locateMarkers(text string) ([]marker, error) {
	var markers []marker

	for _, m := range ifMarkerPattern.FindAllStringSubmatchIndex(text, -1) {
		condText := text[m[2]:m[3]]
		if strings.TrimSpace(condText) == "" {
			return nil, artifact.NewError(artifact.CodeMalformedTemplate, "IF marker with empty condition")
		}
		markers = append(markers, marker{start: m[0], end: m[1], condition: condText})
	}
	for _, m := range endMarkerPattern.FindAllStringIndex(text, -1) {
		markers = append(markers, marker{start: m[0], end: m[1], isEnd: true})
	}

	sort.Slice(markers, func(i, j int) bool { return markers[i].start < markers[j].start })

	// A stray "<!-- IF" that the strict pattern missed means a typo in the
	// marker itself; surface it rather than passing it through.
	for _, frag := range []string{"<!-- IF:", "<!--IF:"} {
		idx := 0
		for {
			pos := strings.Index(text[idx:], frag)
			if pos < 0 {
				break
			}
			pos += idx
			if !coveredBy(markers, pos) {
				return nil, artifact.NewError(artifact.CodeMalformedTemplate,
					"malformed IF marker near offset %d", pos)
			}
			idx = pos + len(frag)
		}
	}

	return markers, nil
}

func coveredBy(markers []marker, pos int) bool {
	for _, m := range markers {
		if pos >= m.start && pos < m.end {
			return true
		}
	}
	return false
}

func buildTree(text string, markers []marker) (*node, error) {
	root := &node{}
	stack := []*node{root}
	cursor := 0

	for _, m := range markers {
		start, end := expandToLine(text, m.start, m.end)
		top := stack[len(stack)-1]
		if start > cursor {
			top.children = append(top.children, &node{text: text[cursor:start]})
		}
		cursor = end

		if m.isEnd {
			if len(stack) == 1 {
				return nil, artifact.NewError(artifact.CodeMalformedTemplate,
					"END:IF marker without a matching IF")
			}
			stack = stack[:len(stack)-1]
			continue
		}

		cond, err := ParseCondition(m.condition)
		if err != nil {
			return nil, err
		}
		block := &node{isBlock: true, cond: cond}
		top.children = append(top.children, block)
		stack = append(stack, block)
	}

	if len(stack) != 1 {
		return nil, artifact.NewError(artifact.CodeMalformedTemplate,
			"%d IF marker(s) without a matching END:IF", len(stack)-1)
	}
	if cursor < len(text) {
		root.children = append(root.children, &node{text: text[cursor:]})
	}
	return root, nil
}

// expandToLine widens a marker span to swallow its whole line when the
// marker stands alone on it, so removed blocks leave no blank-line residue.
func expandToLine(text string, start, end int) (int, int) {
	lineStart := start
	for lineStart > 0 && text[lineStart-1] != '\n' {
		lineStart--
	}
	if strings.TrimSpace(text[lineStart:start]) != "" {
		return start, end
	}

	lineEnd := end
	for lineEnd < len(text) && text[lineEnd] != '\n' {
		lineEnd++
	}
	if strings.TrimSpace(text[end:lineEnd]) != "" {
		return start, end
	}
	if lineEnd < len(text) {
		lineEnd++
	}
	return lineStart, lineEnd
}

func emit(sb *strings.Builder, n *node, variables map[string]string, flags map[string]bool) {
	for _, child := range n.children {
		if !child.isBlock {
			sb.WriteString(child.text)
			continue
		}
		if child.cond.Eval(variables, flags) {
			emit(sb, child, variables, flags)
		}
	}
}

// Validate checks template text for marker errors without producing
// output, using a binding set that satisfies every placeholder. Callers
// use it to vet templates ahead of an apply run.
func Validate(templateText string) error {
	names := map[string]string{}
	for _, m := range placeholderPattern.FindAllStringSubmatch(templateText, -1) {
		names[m[1]] = ""
	}
	_, err := Render(templateText, names, nil)
	if err != nil {
		return fmt.Errorf("template validation: %w", err)
	}
	return nil
}
