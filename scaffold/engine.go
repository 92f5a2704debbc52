package scaffold

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/c360studio/semforge/artifact"
	"github.com/c360studio/semforge/render"
	"github.com/c360studio/semforge/storage"
	"github.com/c360studio/semforge/validation"
)

// GenesisDir is where the planning artifacts are copied verbatim inside a
// generated project, so the project carries its own provenance and the
// migration engine can read the plan and baselines back.
const GenesisDir = "docs/planning"

// Engine applies one scaffold plan to an output directory.
type Engine struct {
	Store        *storage.Store
	TemplateRoot string
	OutputDir    string

	// Now is the clock used for report and connection timestamps.
	Now func() time.Time
}

// NewEngine wires an engine over an artifact store, a template root, and
// an output directory.
func NewEngine(store *storage.Store, templateRoot, outputDir string) *Engine {
	return &Engine{
		Store:        store,
		TemplateRoot: templateRoot,
		OutputDir:    outputDir,
		Now:          time.Now,
	}
}

// stagedFile is one pending write, held in memory until plan-level checks
// pass.
type stagedFile struct {
	entry   int // manifest index
	rel     string
	content []byte
}

// LoadSiblings decodes every planning artifact present in the store into a
// validation sibling set.
func LoadSiblings(store *storage.Store) (*validation.Set, error) {
	artifacts, err := store.List()
	if err != nil {
		return nil, err
	}

	set := &validation.Set{}
	for _, a := range artifacts {
		switch a.ArtifactType {
		case artifact.TypePRD:
			set.PRD, err = a.PRD()
		case artifact.TypeFlow:
			set.Flows, err = a.Flows()
		case artifact.TypeERD:
			set.ERD, err = a.ERD()
		case artifact.TypeJourney:
			set.Journeys, err = a.Journeys()
		case artifact.TypeTasks:
			set.Tasks, err = a.Tasks()
		case artifact.TypeADR:
			set.ADRs, err = a.ADRs()
		case artifact.TypeScaffoldPlan:
			set.Plan, err = a.ScaffoldPlan()
		default:
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("decode %s artifact: %w", a.ArtifactType, err)
		}
	}
	return set, nil
}

// Apply runs the full pipeline: gates, staging, plan-level re-checks,
// flush, genesis copy, connection init. The returned report enumerates
// exactly what was created, skipped, and rejected; when the flush itself
// halts mid-run the report accompanies the error so callers can see what
// landed before the halt.
func (e *Engine) Apply(plan *artifact.Artifact) (*artifact.ScaffoldApplied, error) {
	if plan.ArtifactType != artifact.TypeScaffoldPlan {
		return nil, artifact.NewError(artifact.CodeValidationFailed,
			"expected a scaffold_plan artifact, got %s", plan.ArtifactType)
	}
	doc, err := plan.ScaffoldPlan()
	if err != nil {
		return nil, artifact.NewError(artifact.CodeValidationFailed,
			"scaffold plan payload does not decode").WithCause(err)
	}

	if err := e.checkGates(plan, doc); err != nil {
		return nil, err
	}

	report := &artifact.ScaffoldApplied{
		ProjectName:       doc.ProjectName,
		PlanVersion:       plan.Version,
		MothershipVersion: doc.MothershipVersion,
		AppliedAt:         e.Now().UTC(),
		OutputDir:         e.OutputDir,
		Entries:           make([]artifact.AppliedEntry, len(doc.Templates)),
		Baselines:         map[string]string{},
	}
	for i, entry := range doc.Templates {
		report.Entries[i].TemplateID = entry.ID
	}

	staged := e.stage(doc, report)

	// The domain mapping is re-checked immediately before anything is
	// written. A failure means zero writes for this run.
	if err := validation.CheckDomainMapping(doc); err != nil {
		return nil, err
	}

	flushErr := e.flush(staged, report)
	e.tally(report)
	if flushErr != nil {
		return report, flushErr
	}

	if err := e.copyGenesis(report); err != nil {
		return report, err
	}
	if err := e.initConnection(doc); err != nil {
		return report, err
	}
	return report, nil
}

// checkGates refuses unvalidated or unapproved plans and inconsistent
// sibling artifacts before any rendering happens.
func (e *Engine) checkGates(plan *artifact.Artifact, doc *artifact.ScaffoldPlan) error {
	switch plan.Status {
	case artifact.StatusDraft, artifact.StatusRejected, "":
		return artifact.NewError(artifact.CodeValidationFailed,
			"scaffold plan has status %q; it must be validated and approved before apply", plan.Status)
	}
	if plan.ApprovalRequired && !plan.Approved() {
		return artifact.NewError(artifact.CodeApprovalRequired,
			"scaffold plan requires approval before apply").
			WithDetails(plan.MissingApprovals()...)
	}

	// Domain problems surface under their own code, ahead of the general
	// validation pass.
	if err := validation.CheckDomainMapping(doc); err != nil {
		return err
	}

	siblings, err := LoadSiblings(e.Store)
	if err != nil {
		return err
	}
	if result := validation.Validate(plan, siblings); !result.Passed {
		return result.Err()
	}

	if siblings.PRD != nil && siblings.PRD.ProjectName != doc.ProjectName {
		return artifact.NewError(artifact.CodeValidationFailed,
			"plan project_name %q does not match PRD project_name %q",
			doc.ProjectName, siblings.PRD.ProjectName)
	}
	if siblings.ERD != nil && siblings.ERD.ProjectName != doc.ProjectName {
		return artifact.NewError(artifact.CodeValidationFailed,
			"plan project_name %q does not match ERD project_name %q",
			doc.ProjectName, siblings.ERD.ProjectName)
	}
	return nil
}

// stage renders every manifest entry into in-memory (path, content) pairs.
// A path resolution failure is fatal to its entry; rendering failures are
// recorded per file and the entry continues.
func (e *Engine) stage(doc *artifact.ScaffoldPlan, report *artifact.ScaffoldApplied) []stagedFile {
	flags := doc.Features.Flags()
	owner := map[string]int{} // rel path -> manifest index that staged it

	var staged []stagedFile
	for i, entry := range doc.Templates {
		rec := &report.Entries[i]

		files, err := ExpandFiles(e.TemplateRoot, entry)
		if err != nil {
			rec.Errors = append(rec.Errors, err.Error())
			continue
		}

		vars := doc.Features.Variables()
		vars["PROJECT_NAME"] = doc.ProjectName
		for k, v := range entry.Variables {
			vars[k] = v
		}

		srcDir := filepath.Join(e.TemplateRoot, filepath.FromSlash(entry.SourcePath))
		for _, file := range files {
			raw, err := os.ReadFile(filepath.Join(srcDir, filepath.FromSlash(file)))
			if err != nil {
				rec.Errors = append(rec.Errors, fmt.Sprintf("%s: %v", file, err))
				continue
			}

			content, err := render.Render(string(raw), vars, flags)
			if err != nil {
				rec.Errors = append(rec.Errors, fmt.Sprintf("%s: %v", file, err))
				continue
			}
			relRendered, err := render.Render(file, vars, flags)
			if err != nil {
				rec.Errors = append(rec.Errors, fmt.Sprintf("%s: %v", file, err))
				continue
			}

			rel, err := ResolveTarget(entry.TargetPath, relRendered)
			if err != nil {
				// Fatal to this entry; remaining files are not staged.
				rec.Errors = append(rec.Errors, err.Error())
				break
			}

			if prev, taken := owner[rel]; taken {
				if !bytes.Equal(stagedContent(staged, rel), []byte(content)) {
					conflict := artifact.NewError(artifact.CodeTemplateConflict,
						"entry %s renders %s differently from entry %s",
						entry.ID, rel, doc.Templates[prev].ID)
					rec.Errors = append(rec.Errors, conflict.Error())
				}
				continue
			}
			owner[rel] = i
			staged = append(staged, stagedFile{entry: i, rel: rel, content: []byte(content)})
		}
	}
	return staged
}

func stagedContent(staged []stagedFile, rel string) []byte {
	for _, f := range staged {
		if f.rel == rel {
			return f.content
		}
	}
	return nil
}

// flush writes staged files to disk, atomically per file. Existing files
// whose content differs from the clean render are user-customized and left
// untouched with a recorded notice; identical files are already up to
// date. A write failure halts the remaining flush.
func (e *Engine) flush(staged []stagedFile, report *artifact.ScaffoldApplied) error {
	for _, f := range staged {
		rec := &report.Entries[f.entry]
		report.Baselines[f.rel] = HashContent(f.content)

		dest := filepath.Join(e.OutputDir, filepath.FromSlash(f.rel))
		if current, err := os.ReadFile(dest); err == nil {
			rec.FilesSkipped++
			if bytes.Equal(current, f.content) {
				rec.Skipped = append(rec.Skipped, f.rel+" (already up to date)")
			} else {
				rec.Skipped = append(rec.Skipped, f.rel+" (customized, left untouched)")
			}
			continue
		}

		if err := storage.WriteFileAtomic(dest, f.content, 0644); err != nil {
			rec.Errors = append(rec.Errors, fmt.Sprintf("%s: %v", f.rel, err))
			return fmt.Errorf("flush halted at %s: %w", f.rel, err)
		}
		rec.FilesCreated++
		rec.Created = append(rec.Created, f.rel)
	}
	return nil
}

func (e *Engine) tally(report *artifact.ScaffoldApplied) {
	for _, rec := range report.Entries {
		report.FilesCreated += rec.FilesCreated
		report.FilesSkipped += rec.FilesSkipped
		report.Errors += len(rec.Errors)
	}
}

// copyGenesis persists the report to the store, then copies every planning
// artifact (the applied report included) verbatim into the project's
// document area.
func (e *Engine) copyGenesis(report *artifact.ScaffoldApplied) error {
	a, err := artifact.New(artifact.TypeScaffoldApplied, report.PlanVersion, report)
	if err != nil {
		return fmt.Errorf("build scaffold_applied artifact: %w", err)
	}
	a.Status = artifact.StatusApplied
	if err := e.Store.SaveArtifact(a); err != nil {
		return err
	}

	docsDir := filepath.Join(e.OutputDir, filepath.FromSlash(GenesisDir))
	artifacts, err := e.Store.List()
	if err != nil {
		return err
	}
	for _, stored := range artifacts {
		name, ok := storage.FileFor(stored.ArtifactType)
		if !ok {
			continue
		}
		src := filepath.Join(e.Store.Dir(), name)
		if err := storage.CopyFile(src, filepath.Join(docsDir, name)); err != nil {
			return fmt.Errorf("copy genesis artifact %s: %w", name, err)
		}
	}
	return nil
}

// initConnection writes the project's first connection state. An existing
// connection is left alone; only the migration engine mutates it.
func (e *Engine) initConnection(doc *artifact.ScaffoldPlan) error {
	if _, err := storage.LoadConnection(e.OutputDir); err == nil {
		return nil
	} else if !storage.IsNotFound(err) {
		return err
	}
	return storage.SaveConnection(e.OutputDir, &storage.ConnectionState{
		ProjectVersion:    doc.MothershipVersion,
		MothershipVersion: doc.MothershipVersion,
		LastSync:          e.Now().UTC(),
		SyncEnabled:       true,
		State:             "unchecked",
	})
}

// HashContent returns the sha256 hex fingerprint used for clean-render
// baselines. The migration engine compares against these to detect user
// customization.
func HashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
