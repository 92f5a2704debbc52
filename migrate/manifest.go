package migrate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/Masterminds/semver/v3"

	"github.com/c360studio/semforge/artifact"
	"github.com/c360studio/semforge/storage"
)

// ChangeKind classifies one upstream change for migration planning.
type ChangeKind string

const (
	// ChangeNonBreaking updates files without altering contracts.
	ChangeNonBreaking ChangeKind = "non_breaking"

	// ChangeBreaking alters contracts; customized files it touches need a
	// human merge decision, and it may carry migration steps.
	ChangeBreaking ChangeKind = "breaking"

	// ChangeSecurity patches a vulnerability.
	ChangeSecurity ChangeKind = "security"
)

// IsValid reports whether k is a known change kind.
func (k ChangeKind) IsValid() bool {
	switch k {
	case ChangeNonBreaking, ChangeBreaking, ChangeSecurity:
		return true
	}
	return false
}

// StepOp is one declarative migration operation. The engine never executes
// arbitrary tooling; these four ops are the whole vocabulary.
type StepOp string

const (
	// OpRender renders a template file into the project.
	OpRender StepOp = "render"

	// OpCopy copies a template file into the project verbatim.
	OpCopy StepOp = "copy"

	// OpMove renames a file within the project.
	OpMove StepOp = "move"

	// OpDelete removes a file from the project.
	OpDelete StepOp = "delete"
)

// IsValid reports whether o is a known step op.
func (o StepOp) IsValid() bool {
	switch o {
	case OpRender, OpCopy, OpMove, OpDelete:
		return true
	}
	return false
}

// Step is one ordered operation a change runs during apply.
type Step struct {
	Op StepOp `json:"op"`

	// From is the source path: template-relative for copy,
	// project-relative for move and delete.
	From string `json:"from,omitempty"`

	// To is the project-relative destination for render, copy, and move.
	To string `json:"to,omitempty"`

	// Template is the template-relative file a render step renders.
	Template string `json:"template,omitempty"`
}

// Change is one upstream version entry in the mothership manifest.
type Change struct {
	ID      string     `json:"id"`
	Version string     `json:"version"`
	Title   string     `json:"title,omitempty"`
	Kind    ChangeKind `json:"kind"`

	// Files are the template-relative paths this change touches.
	Files []string `json:"files,omitempty"`

	// Steps run in declared order during apply, after file re-renders.
	Steps []Step `json:"steps,omitempty"`
}

// Manifest is the mothership.json at a template root: the upstream version
// and its ordered change history.
type Manifest struct {
	Version string   `json:"version"`
	Changes []Change `json:"changes"`
}

// LoadManifest reads and validates the manifest at the template root.
func LoadManifest(templateRoot string) (*Manifest, error) {
	path := filepath.Join(templateRoot, storage.MothershipFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, artifact.NewError(artifact.CodeArtifactNotFound,
				"mothership manifest %s does not exist", path).WithCause(err)
		}
		return nil, fmt.Errorf("read mothership manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse mothership manifest %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate accumulates every manifest fault rather than stopping at the
// first one.
func (m *Manifest) Validate() error {
	var faults []string

	top, topErr := semver.NewVersion(m.Version)
	if topErr != nil {
		faults = append(faults, fmt.Sprintf("manifest version %q is not semver", m.Version))
	}

	seen := map[string]bool{}
	for i, c := range m.Changes {
		label := c.ID
		if label == "" {
			label = fmt.Sprintf("changes[%d]", i)
			faults = append(faults, label+" has no id")
		} else if seen[c.ID] {
			faults = append(faults, label+" is declared twice")
		}
		seen[c.ID] = true

		cv, err := semver.NewVersion(c.Version)
		if err != nil {
			faults = append(faults, fmt.Sprintf("%s version %q is not semver", label, c.Version))
		} else if topErr == nil && cv.GreaterThan(top) {
			faults = append(faults, fmt.Sprintf("%s version %s is newer than the manifest version %s",
				label, c.Version, m.Version))
		}

		if !c.Kind.IsValid() {
			faults = append(faults, fmt.Sprintf("%s kind %q is not one of non_breaking, breaking, security",
				label, c.Kind))
		}

		for j, s := range c.Steps {
			if !s.Op.IsValid() {
				faults = append(faults, fmt.Sprintf("%s step %d op %q is unknown", label, j+1, s.Op))
				continue
			}
			switch s.Op {
			case OpRender:
				if s.Template == "" || s.To == "" {
					faults = append(faults, fmt.Sprintf("%s step %d (render) needs template and to", label, j+1))
				}
			case OpCopy, OpMove:
				if s.From == "" || s.To == "" {
					faults = append(faults, fmt.Sprintf("%s step %d (%s) needs from and to", label, j+1, s.Op))
				}
			case OpDelete:
				if s.From == "" {
					faults = append(faults, fmt.Sprintf("%s step %d (delete) needs from", label, j+1))
				}
			}
		}
	}

	if len(faults) > 0 {
		return artifact.NewError(artifact.CodeValidationFailed,
			"mothership manifest is invalid with %d fault(s)", len(faults)).
			WithDetails(faults...)
	}
	return nil
}

// Pending returns the changes with versions after projectVersion, oldest
// first; declaration order breaks ties. A project version ahead of the
// manifest version is VERSION_MISMATCH and needs manual reconciliation.
func (m *Manifest) Pending(projectVersion string) ([]Change, error) {
	pv, err := semver.NewVersion(projectVersion)
	if err != nil {
		return nil, fmt.Errorf("project version %q is not semver: %w", projectVersion, err)
	}
	top, err := semver.NewVersion(m.Version)
	if err != nil {
		return nil, fmt.Errorf("manifest version %q is not semver: %w", m.Version, err)
	}
	if pv.GreaterThan(top) {
		return nil, artifact.NewError(artifact.CodeVersionMismatch,
			"project version %s is ahead of the mothership version %s", projectVersion, m.Version)
	}

	var pending []Change
	for _, c := range m.Changes {
		cv, err := semver.NewVersion(c.Version)
		if err != nil {
			continue // rejected by Validate
		}
		if cv.GreaterThan(pv) {
			pending = append(pending, c)
		}
	}
	slices.SortStableFunc(pending, func(a, b Change) int {
		av, _ := semver.NewVersion(a.Version)
		bv, _ := semver.NewVersion(b.Version)
		return av.Compare(bv)
	})
	return pending, nil
}

// Summarize counts pending changes by kind.
func Summarize(pending []Change) UpdateSummary {
	s := UpdateSummary{Total: len(pending)}
	for _, c := range pending {
		switch c.Kind {
		case ChangeBreaking:
			s.Breaking++
		case ChangeSecurity:
			s.Security++
		default:
			s.NonBreaking++
		}
	}
	return s
}
