// Package storage persists planning artifacts, connection state, and
// session progress logs as plain JSON documents on disk. Writers are
// optimistic: there are no locks, and commit-time ID checks force callers
// to retry against refreshed state on conflict.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/c360studio/semforge/artifact"
)

// Conventional artifact filenames within a store directory.
const (
	PRDFile              = "prd.json"
	FlowsFile            = "flows.json"
	ERDFile              = "erd.json"
	JourneysFile         = "journeys.json"
	TasksFile            = "tasks.json"
	ADRsFile             = "adrs.json"
	ScaffoldPlanFile     = "scaffold_plan.json"
	ScaffoldAppliedFile  = "scaffold_applied.json"
	MigrationCheckFile   = "migration_check.json"
	MigrationPreviewFile = "migration_preview.json"
)

var filesByType = map[artifact.Type]string{
	artifact.TypePRD:              PRDFile,
	artifact.TypeFlow:             FlowsFile,
	artifact.TypeERD:              ERDFile,
	artifact.TypeJourney:          JourneysFile,
	artifact.TypeTasks:            TasksFile,
	artifact.TypeADR:              ADRsFile,
	artifact.TypeScaffoldPlan:     ScaffoldPlanFile,
	artifact.TypeScaffoldApplied:  ScaffoldAppliedFile,
	artifact.TypeMigrationCheck:   MigrationCheckFile,
	artifact.TypeMigrationPreview: MigrationPreviewFile,
}

// FileFor returns the conventional filename for an artifact type.
func FileFor(t artifact.Type) (string, bool) {
	name, ok := filesByType[t]
	return name, ok
}

// Store manages one directory of planning artifacts.
type Store struct {
	dir string
}

// NewStore creates a store over the given artifact directory. The
// directory does not need to exist yet; it is created on first save.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the store's artifact directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the full path of the artifact file for the given type.
func (s *Store) Path(t artifact.Type) string {
	name, ok := filesByType[t]
	if !ok {
		name = string(t) + ".json"
	}
	return filepath.Join(s.dir, name)
}

// Load reads one artifact from an explicit file path.
func Load(path string) (*artifact.Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, artifact.NewError(artifact.CodeArtifactNotFound,
				"artifact file %s does not exist", path).WithCause(err)
		}
		return nil, fmt.Errorf("read artifact %s: %w", path, err)
	}

	var a artifact.Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse artifact %s: %w", path, err)
	}
	return &a, nil
}

// LoadArtifact reads the artifact of the given type from its conventional
// filename.
func (s *Store) LoadArtifact(t artifact.Type) (*artifact.Artifact, error) {
	return Load(s.Path(t))
}

// SaveArtifact writes the artifact to its conventional filename, atomically.
func (s *Store) SaveArtifact(a *artifact.Artifact) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s artifact: %w", a.ArtifactType, err)
	}
	if err := WriteFileAtomic(s.Path(a.ArtifactType), append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write %s artifact: %w", a.ArtifactType, err)
	}
	return nil
}

// CommitArtifact saves the artifact after verifying that none of the IDs
// the caller freshly allocated were taken by a concurrent writer since the
// caller last read the store. On conflict nothing is written and the
// caller is expected to re-read, re-allocate, and retry.
func (s *Store) CommitArtifact(a *artifact.Artifact, allocated ...string) error {
	if len(allocated) > 0 {
		current, err := s.ExistingIDs()
		if err != nil {
			return err
		}
		for _, id := range allocated {
			if slices.Contains(current, id) {
				return artifact.NewError(artifact.CodeIDConflict,
					"ID %s was allocated by a concurrent writer", id)
			}
		}
	}
	return s.SaveArtifact(a)
}

// List loads every planning artifact present in the store. Files that do
// not parse are skipped; Load reports them individually when addressed
// directly.
func (s *Store) List() ([]*artifact.Artifact, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read artifact directory: %w", err)
	}

	byName := make(map[string]artifact.Type, len(filesByType))
	for t, name := range filesByType {
		byName[name] = t
	}

	var artifacts []*artifact.Artifact
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, known := byName[entry.Name()]; !known {
			continue
		}
		a, err := Load(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, nil
}

// ExistingIDs unions the declared IDs of every stored artifact. This is
// the set NextID allocates against; it is re-read on every call so retries
// observe concurrent commits.
func (s *Store) ExistingIDs() ([]string, error) {
	artifacts, err := s.List()
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, a := range artifacts {
		ids = append(ids, a.DeclaredIDs()...)
	}
	return ids, nil
}

// NextID reads the store's current ID set and allocates the next ID for
// the given kind. Pure NextID over fresh state; see CommitArtifact for the
// conflict check at commit time.
func (s *Store) NextID(spec artifact.IDSpec) (string, error) {
	ids, err := s.ExistingIDs()
	if err != nil {
		return "", err
	}
	return artifact.NextID(ids, spec.Prefix, spec.Width), nil
}
