// Package migrate brings a generated project's files and version state up
// to date with its upstream template baseline. check classifies pending
// changes, preview plans a per-file strategy, approve gates the plan, and
// apply executes it behind a full backup.
package migrate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/c360studio/semforge/artifact"
	"github.com/c360studio/semforge/render"
	"github.com/c360studio/semforge/scaffold"
	"github.com/c360studio/semforge/storage"
)

// Engine runs migration verbs against one generated project and one
// template root. Reports persist as artifacts in the project's own genesis
// store, so re-runs and approvals survive process restarts.
type Engine struct {
	ProjectDir   string
	TemplateRoot string
	Store        *storage.Store

	// Approvers, when set, are the names whose sign-off a preview needs
	// before apply will run.
	Approvers []string

	// Now is the clock used for timestamps and backup directory names.
	Now func() time.Time
}

// NewEngine wires an engine over a project directory and a template root.
// The artifact store is the genesis copy inside the project.
func NewEngine(projectDir, templateRoot string) *Engine {
	return &Engine{
		ProjectDir:   projectDir,
		TemplateRoot: templateRoot,
		Store:        storage.NewStore(filepath.Join(projectDir, filepath.FromSlash(scaffold.GenesisDir))),
		Now:          time.Now,
	}
}

// connection loads the project's connection state and refuses disabled
// projects.
func (e *Engine) connection() (*storage.ConnectionState, State, error) {
	cs, err := storage.LoadConnection(e.ProjectDir)
	if err != nil {
		return nil, "", err
	}
	if !cs.SyncEnabled {
		return nil, "", fmt.Errorf("sync is disabled for this project (sync_enabled is false in %s)",
			storage.ConnectionPath(e.ProjectDir))
	}
	state := State(cs.State)
	if state == "" {
		state = StateUnchecked
	}
	if !state.IsValid() {
		return nil, "", fmt.Errorf("connection state %q is not a known migration state", cs.State)
	}
	return cs, state, nil
}

func (e *Engine) saveState(cs *storage.ConnectionState, next State) error {
	cs.State = string(next)
	return storage.SaveConnection(e.ProjectDir, cs)
}

// Check classifies the changes between the project's version and the
// mothership manifest. It touches no project file; the classification
// persists as a migration_check artifact in the genesis store.
func (e *Engine) Check() (*CheckReport, error) {
	cs, state, err := e.connection()
	if err != nil {
		return nil, err
	}
	if !state.CanTransitionTo(StateChecked) {
		return nil, fmt.Errorf("migration state is %q; a previous apply run did not record an outcome", state)
	}

	man, err := LoadManifest(e.TemplateRoot)
	if err != nil {
		return nil, err
	}
	pending, err := man.Pending(cs.ProjectVersion)
	if err != nil {
		return nil, err
	}

	report := &CheckReport{
		ProjectVersion:    cs.ProjectVersion,
		MothershipVersion: man.Version,
		CheckedAt:         e.Now().UTC(),
		UpdateSummary:     Summarize(pending),
		Pending:           toPending(pending),
	}

	a, err := artifact.New(artifact.TypeMigrationCheck, man.Version, report)
	if err != nil {
		return nil, fmt.Errorf("build migration_check artifact: %w", err)
	}
	a.Status = artifact.StatusValidated
	if err := e.Store.SaveArtifact(a); err != nil {
		return nil, err
	}
	if err := e.saveState(cs, StateChecked); err != nil {
		return nil, err
	}
	return report, nil
}

// Preview plans, for each file a pending change touches, what apply would
// do: diff counts against the current content, customization against the
// recorded baseline, and a preservation strategy. It performs no writes.
// The preview replaces any prior preview artifact, invalidating a stale
// approval.
func (e *Engine) Preview() (*PreviewReport, error) {
	cs, state, err := e.connection()
	if err != nil {
		return nil, err
	}
	if !state.CanTransitionTo(StatePreviewed) {
		return nil, fmt.Errorf("migration state is %q; run check first", state)
	}

	man, err := LoadManifest(e.TemplateRoot)
	if err != nil {
		return nil, err
	}
	pending, err := man.Pending(cs.ProjectVersion)
	if err != nil {
		return nil, err
	}
	ctx, err := e.renderContext()
	if err != nil {
		return nil, err
	}

	files, err := e.previewFiles(pending, ctx)
	if err != nil {
		return nil, err
	}

	report := &PreviewReport{
		ProjectVersion:    cs.ProjectVersion,
		MothershipVersion: man.Version,
		PreviewedAt:       e.Now().UTC(),
		Pending:           toPending(pending),
		Files:             files,
	}

	a, err := artifact.New(artifact.TypeMigrationPreview, man.Version, report)
	if err != nil {
		return nil, fmt.Errorf("build migration_preview artifact: %w", err)
	}
	a.Status = artifact.StatusValidated
	a.ApprovalRequired = true
	a.Approvers = slices.Clone(e.Approvers)
	if err := e.Store.SaveArtifact(a); err != nil {
		return nil, err
	}
	if err := e.saveState(cs, StatePreviewed); err != nil {
		return nil, err
	}
	return report, nil
}

// Approve records a named sign-off on the current preview. The envelope
// carries the approvals; once every required approver has signed, the
// preview's status moves to approved and apply may run.
func (e *Engine) Approve(name string) (*artifact.Artifact, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("approve needs a non-empty approver name")
	}
	cs, state, err := e.connection()
	if err != nil {
		return nil, err
	}
	if state != StatePreviewed && state != StateApproved {
		return nil, fmt.Errorf("migration state is %q; run preview first", state)
	}

	a, err := e.Store.LoadArtifact(artifact.TypeMigrationPreview)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, artifact.NewError(artifact.CodeArtifactNotFound,
				"no migration preview to approve; run preview first").WithCause(err)
		}
		return nil, err
	}

	if !slices.Contains(a.Approvals, name) {
		a.Approvals = append(a.Approvals, name)
	}
	if a.Approved() {
		a.Status = artifact.StatusApproved
	}
	if err := e.Store.SaveArtifact(a); err != nil {
		return nil, err
	}
	if a.Status == artifact.StatusApproved && state.CanTransitionTo(StateApproved) {
		if err := e.saveState(cs, StateApproved); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Apply executes the approved preview: a full backup first, then
// use-template re-renders, then each pending change's declared steps in
// order. The version state advances only when every step succeeded; a
// failure leaves the backup intact and the project version untouched, and
// the returned report enumerates what landed before the halt.
func (e *Engine) Apply() (*ApplyReport, error) {
	cs, state, err := e.connection()
	if err != nil {
		return nil, err
	}
	if !state.CanTransitionTo(StateApplying) {
		if state == StatePreviewed {
			return nil, artifact.NewError(artifact.CodeApprovalRequired,
				"the migration preview has not been approved")
		}
		return nil, fmt.Errorf("migration state is %q; run check, preview, and approve first", state)
	}

	man, err := LoadManifest(e.TemplateRoot)
	if err != nil {
		return nil, err
	}

	previewArt, err := e.Store.LoadArtifact(artifact.TypeMigrationPreview)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, artifact.NewError(artifact.CodeArtifactNotFound,
				"no migration preview artifact; run preview and approve first").WithCause(err)
		}
		return nil, err
	}
	if previewArt.Status != artifact.StatusApproved {
		return nil, artifact.NewError(artifact.CodeApprovalRequired,
			"the migration preview has not been approved").
			WithDetails(previewArt.MissingApprovals()...)
	}
	var preview PreviewReport
	if err := json.Unmarshal(previewArt.Data, &preview); err != nil {
		return nil, fmt.Errorf("decode migration preview: %w", err)
	}
	if preview.MothershipVersion != man.Version {
		return nil, artifact.NewError(artifact.CodeValidationFailed,
			"the preview targets mothership %s but the template root is now %s; re-run preview",
			preview.MothershipVersion, man.Version)
	}
	if preview.ProjectVersion != cs.ProjectVersion {
		return nil, artifact.NewError(artifact.CodeValidationFailed,
			"the preview was taken at project version %s but the project is now %s; re-run preview",
			preview.ProjectVersion, cs.ProjectVersion)
	}

	pending, err := man.Pending(cs.ProjectVersion)
	if err != nil {
		return nil, err
	}
	ctx, err := e.renderContext()
	if err != nil {
		return nil, err
	}

	var toBackup []string
	for _, fp := range preview.Files {
		if fp.Strategy == StrategyUseTemplate {
			toBackup = append(toBackup, fp.Path)
		}
	}
	stepPaths, err := collectStepPaths(pending)
	if err != nil {
		return nil, err
	}
	toBackup = append(toBackup, stepPaths...)

	backupDir, err := createBackup(e.ProjectDir, toBackup, e.Now())
	if err != nil {
		return nil, err
	}
	cs.LastBackup = backupDir
	if err := e.saveState(cs, StateApplying); err != nil {
		return nil, err
	}

	report := &ApplyReport{
		FromVersion: cs.ProjectVersion,
		ToVersion:   man.Version,
		AppliedAt:   e.Now().UTC(),
		BackupDir:   backupDir,
	}

	if err := e.applyFiles(preview.Files, ctx, report); err != nil {
		return report, e.fail(cs, backupDir, err)
	}
	if err := e.runSteps(pending, ctx, report); err != nil {
		return report, e.fail(cs, backupDir, err)
	}
	if err := e.commit(cs, man, previewArt, ctx); err != nil {
		return report, e.fail(cs, backupDir, err)
	}
	return report, nil
}

// Rollback restores the last apply backup over the project. Only a failed
// run may roll back; its version state was never advanced, so only the
// restored files and the machine state change.
func (e *Engine) Rollback() (*RollbackReport, error) {
	cs, state, err := e.connection()
	if err != nil {
		return nil, err
	}
	if !state.CanTransitionTo(StateRolledBack) {
		return nil, fmt.Errorf("migration state is %q; only a failed apply can be rolled back", state)
	}
	if cs.LastBackup == "" {
		return nil, fmt.Errorf("connection records no backup to restore")
	}
	if _, err := os.Stat(cs.LastBackup); err != nil {
		return nil, fmt.Errorf("backup directory %s: %w", cs.LastBackup, err)
	}

	restored, err := restoreBackup(e.ProjectDir, cs.LastBackup)
	if err != nil {
		return nil, err
	}
	if err := e.saveState(cs, StateRolledBack); err != nil {
		return nil, err
	}
	return &RollbackReport{BackupDir: cs.LastBackup, FilesRestored: restored}, nil
}

// fail records the failed state and wraps the cause with the backup path
// and rollback instructions.
func (e *Engine) fail(cs *storage.ConnectionState, backupDir string, cause error) error {
	if err := e.saveState(cs, StateFailed); err != nil {
		cause = errors.Join(cause, err)
	}
	return artifact.NewError(artifact.CodeMigrationScriptFailed,
		"migration apply halted before completion").WithDetails(
		"backup preserved at "+backupDir,
		"run migrate rollback to restore it, or copy its contents back manually",
	).WithCause(cause)
}

// renderContext rebuilds the variable and flag set the scaffold run used,
// plus the clean-render baselines, from the genesis copies of the plan and
// the applied report.
type renderContext struct {
	plan      *artifact.ScaffoldPlan
	vars      map[string]string
	flags     map[string]bool
	baselines map[string]string
}

func (e *Engine) renderContext() (*renderContext, error) {
	planArt, err := e.Store.LoadArtifact(artifact.TypeScaffoldPlan)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, artifact.NewError(artifact.CodeArtifactNotFound,
				"no scaffold plan in %s; was this project generated by semforge?", e.Store.Dir()).WithCause(err)
		}
		return nil, err
	}
	plan, err := planArt.ScaffoldPlan()
	if err != nil {
		return nil, err
	}

	appliedArt, err := e.Store.LoadArtifact(artifact.TypeScaffoldApplied)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, artifact.NewError(artifact.CodeArtifactNotFound,
				"no scaffold_applied report in %s; customization cannot be detected without its baselines",
				e.Store.Dir()).WithCause(err)
		}
		return nil, err
	}
	applied, err := appliedArt.ScaffoldApplied()
	if err != nil {
		return nil, err
	}

	vars := plan.Features.Variables()
	vars["PROJECT_NAME"] = plan.ProjectName
	baselines := applied.Baselines
	if baselines == nil {
		baselines = map[string]string{}
	}
	return &renderContext{
		plan:      plan,
		vars:      vars,
		flags:     plan.Features.Flags(),
		baselines: baselines,
	}, nil
}

// varsFor overlays an entry's variables on the plan-level set, the same
// precedence the scaffold run used: entry bindings win.
func (ctx *renderContext) varsFor(entry *artifact.TemplateEntry) map[string]string {
	if entry == nil || len(entry.Variables) == 0 {
		return ctx.vars
	}
	vars := make(map[string]string, len(ctx.vars)+len(entry.Variables))
	for k, v := range ctx.vars {
		vars[k] = v
	}
	for k, v := range entry.Variables {
		vars[k] = v
	}
	return vars
}

// entryRel reports the path of templateFile relative to the entry's source
// directory, and whether the entry's selection covers the file at all.
func entryRel(entry *artifact.TemplateEntry, templateFile string) (string, bool) {
	src := path.Clean(entry.SourcePath)
	var rel string
	switch {
	case src == "." || src == "":
		rel = templateFile
	case strings.HasPrefix(templateFile, src+"/"):
		rel = templateFile[len(src)+1:]
	default:
		return "", false
	}

	if len(entry.Files) > 0 {
		matched := false
		for _, pattern := range entry.Files {
			if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
				matched = true
				break
			}
		}
		if !matched {
			return "", false
		}
	}
	return rel, true
}

// entryFor finds the manifest entry whose selection covers a
// template-relative file, nil when no entry scaffolded it.
func (ctx *renderContext) entryFor(templateFile string) *artifact.TemplateEntry {
	for i := range ctx.plan.Templates {
		if _, ok := entryRel(&ctx.plan.Templates[i], templateFile); ok {
			return &ctx.plan.Templates[i]
		}
	}
	return nil
}

// mapToProject resolves a template-relative file to its project-relative
// destination through the plan's manifest entries, the same resolution the
// scaffold run performed, and returns the owning entry so callers render
// with its variable bindings. Files outside every entry's selection were
// never scaffolded into this project.
func (e *Engine) mapToProject(ctx *renderContext, templateFile string) (string, *artifact.TemplateEntry, error) {
	for i := range ctx.plan.Templates {
		entry := &ctx.plan.Templates[i]
		rel, ok := entryRel(entry, templateFile)
		if !ok {
			continue
		}

		rendered, err := render.Render(rel, ctx.varsFor(entry), ctx.flags)
		if err != nil {
			return "", nil, err
		}
		dest, err := scaffold.ResolveTarget(entry.TargetPath, rendered)
		if err != nil {
			return "", nil, err
		}
		return dest, entry, nil
	}
	return "", nil, nil
}

// previewFiles builds the per-file plan for every pending change. A file
// touched by several changes appears once, attributed to the latest change,
// with its kind escalated to breaking if any toucher is breaking.
func (e *Engine) previewFiles(pending []Change, ctx *renderContext) ([]FilePreview, error) {
	previews := map[string]*FilePreview{}
	for _, change := range pending {
		for _, tf := range change.Files {
			if tf == storage.MothershipFile {
				continue
			}
			dest, entry, err := e.mapToProject(ctx, tf)
			if err != nil {
				return nil, fmt.Errorf("change %s file %s: %w", change.ID, tf, err)
			}
			if entry == nil {
				continue
			}

			if existing, seen := previews[dest]; seen {
				existing.ChangeID = change.ID
				if existing.Kind != ChangeBreaking && change.Kind == ChangeBreaking {
					existing.Kind = ChangeBreaking
				}
				continue
			}

			fp, err := e.previewFile(ctx, change, tf, dest, ctx.varsFor(entry))
			if err != nil {
				return nil, err
			}
			previews[dest] = fp
		}
	}

	out := make([]FilePreview, 0, len(previews))
	for _, fp := range previews {
		fp.Strategy = defaultStrategy(fp.Customized, fp.Kind)
		out = append(out, *fp)
	}
	slices.SortFunc(out, func(a, b FilePreview) int {
		return strings.Compare(a.Path, b.Path)
	})
	return out, nil
}

func (e *Engine) previewFile(ctx *renderContext, change Change, templateFile, dest string, vars map[string]string) (*FilePreview, error) {
	raw, err := os.ReadFile(filepath.Join(e.TemplateRoot, filepath.FromSlash(templateFile)))
	if err != nil {
		return nil, fmt.Errorf("change %s: read template %s: %w", change.ID, templateFile, err)
	}
	rendered, err := render.Render(string(raw), vars, ctx.flags)
	if err != nil {
		return nil, fmt.Errorf("change %s: render %s: %w", change.ID, templateFile, err)
	}

	fp := &FilePreview{Path: dest, Source: templateFile, ChangeID: change.ID, Kind: change.Kind}

	current, err := os.ReadFile(filepath.Join(e.ProjectDir, filepath.FromSlash(dest)))
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read %s: %w", dest, err)
		}
		fp.LinesAdded, _ = diffCounts("", rendered)
		fp.Note = "new file"
		return fp, nil
	}

	baseline, known := ctx.baselines[dest]
	fp.Customized = !known || scaffold.HashContent(current) != baseline
	if bytes.Equal(current, []byte(rendered)) {
		fp.Note = "already up to date"
		return fp, nil
	}
	fp.LinesAdded, fp.LinesRemoved = diffCounts(string(current), rendered)
	return fp, nil
}

// applyFiles executes the preview's per-file strategies. Only use-template
// files are written; the other strategies record skip notices.
func (e *Engine) applyFiles(files []FilePreview, ctx *renderContext, report *ApplyReport) error {
	for _, fp := range files {
		switch fp.Strategy {
		case StrategyKeepCustom:
			report.FilesSkipped = append(report.FilesSkipped, fp.Path+" (keep-custom)")

		case StrategyManualMerge:
			report.ManualMerge = append(report.ManualMerge, fp.Path)
			report.FilesSkipped = append(report.FilesSkipped, fp.Path+" (manual-merge, resolve by hand)")

		case StrategyUseTemplate:
			raw, err := os.ReadFile(filepath.Join(e.TemplateRoot, filepath.FromSlash(fp.Source)))
			if err != nil {
				return fmt.Errorf("read template %s: %w", fp.Source, err)
			}
			content, err := render.Render(string(raw), ctx.varsFor(ctx.entryFor(fp.Source)), ctx.flags)
			if err != nil {
				return fmt.Errorf("render %s: %w", fp.Source, err)
			}

			dest := filepath.Join(e.ProjectDir, filepath.FromSlash(fp.Path))
			if current, err := os.ReadFile(dest); err == nil && bytes.Equal(current, []byte(content)) {
				report.FilesSkipped = append(report.FilesSkipped, fp.Path+" (already up to date)")
				ctx.baselines[fp.Path] = scaffold.HashContent([]byte(content))
				continue
			}
			if err := storage.WriteFileAtomic(dest, []byte(content), 0644); err != nil {
				return fmt.Errorf("write %s: %w", fp.Path, err)
			}
			ctx.baselines[fp.Path] = scaffold.HashContent([]byte(content))
			report.FilesWritten = append(report.FilesWritten, fp.Path)

		default:
			return fmt.Errorf("file %s has unknown strategy %q", fp.Path, fp.Strategy)
		}
	}
	return nil
}

// collectStepPaths resolves every project path the pending steps will
// touch, rejecting escapes before anything is backed up or run.
func collectStepPaths(pending []Change) ([]string, error) {
	var paths []string
	for _, change := range pending {
		for i, step := range change.Steps {
			add := func(p string) error {
				if p == "" {
					return nil
				}
				rel, err := scaffold.ResolveTarget(".", p)
				if err != nil {
					return fmt.Errorf("change %s step %d (%s): %w", change.ID, i+1, step.Op, err)
				}
				paths = append(paths, rel)
				return nil
			}
			switch step.Op {
			case OpRender, OpCopy:
				if err := add(step.To); err != nil {
					return nil, err
				}
			case OpMove:
				if err := add(step.From); err != nil {
					return nil, err
				}
				if err := add(step.To); err != nil {
					return nil, err
				}
			case OpDelete:
				if err := add(step.From); err != nil {
					return nil, err
				}
			}
		}
	}
	return paths, nil
}

// runSteps executes every pending change's steps in declared order. A
// failing step halts the run naming the change and step index.
func (e *Engine) runSteps(pending []Change, ctx *renderContext, report *ApplyReport) error {
	for _, change := range pending {
		for i, step := range change.Steps {
			if err := e.runStep(change, i, step, ctx, report); err != nil {
				return fmt.Errorf("change %s step %d (%s): %w", change.ID, i+1, step.Op, err)
			}
			report.StepsRun++
		}
	}
	return nil
}

func (e *Engine) runStep(change Change, idx int, step Step, ctx *renderContext, report *ApplyReport) error {
	logf := func(format string, args ...any) {
		report.StepLog = append(report.StepLog,
			fmt.Sprintf("%s step %d: %s", change.ID, idx+1, fmt.Sprintf(format, args...)))
	}

	switch step.Op {
	case OpRender:
		rel, err := scaffold.ResolveTarget(".", step.To)
		if err != nil {
			return err
		}
		raw, err := os.ReadFile(filepath.Join(e.TemplateRoot, filepath.FromSlash(step.Template)))
		if err != nil {
			return err
		}
		content, err := render.Render(string(raw), ctx.varsFor(ctx.entryFor(step.Template)), ctx.flags)
		if err != nil {
			return err
		}
		if err := storage.WriteFileAtomic(filepath.Join(e.ProjectDir, filepath.FromSlash(rel)),
			[]byte(content), 0644); err != nil {
			return err
		}
		ctx.baselines[rel] = scaffold.HashContent([]byte(content))
		logf("rendered %s -> %s", step.Template, rel)

	case OpCopy:
		rel, err := scaffold.ResolveTarget(".", step.To)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(filepath.Join(e.TemplateRoot, filepath.FromSlash(step.From)))
		if err != nil {
			return err
		}
		if err := storage.WriteFileAtomic(filepath.Join(e.ProjectDir, filepath.FromSlash(rel)),
			data, 0644); err != nil {
			return err
		}
		ctx.baselines[rel] = scaffold.HashContent(data)
		logf("copied %s -> %s", step.From, rel)

	case OpMove:
		fromRel, err := scaffold.ResolveTarget(".", step.From)
		if err != nil {
			return err
		}
		toRel, err := scaffold.ResolveTarget(".", step.To)
		if err != nil {
			return err
		}
		from := filepath.Join(e.ProjectDir, filepath.FromSlash(fromRel))
		to := filepath.Join(e.ProjectDir, filepath.FromSlash(toRel))
		if err := os.MkdirAll(filepath.Dir(to), 0755); err != nil {
			return err
		}
		if err := os.Rename(from, to); err != nil {
			return err
		}
		if h, ok := ctx.baselines[fromRel]; ok {
			ctx.baselines[toRel] = h
			delete(ctx.baselines, fromRel)
		}
		logf("moved %s -> %s", fromRel, toRel)

	case OpDelete:
		rel, err := scaffold.ResolveTarget(".", step.From)
		if err != nil {
			return err
		}
		// Deleting an already-absent file is a completed delete.
		err = os.Remove(filepath.Join(e.ProjectDir, filepath.FromSlash(rel)))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		delete(ctx.baselines, rel)
		logf("deleted %s", rel)

	default:
		return fmt.Errorf("unknown step op %q", step.Op)
	}
	return nil
}

// commit makes the run durable: refreshed baselines first, the preview
// flipped to applied, and only then the connection's version state.
func (e *Engine) commit(cs *storage.ConnectionState, man *Manifest, previewArt *artifact.Artifact, ctx *renderContext) error {
	appliedArt, err := e.Store.LoadArtifact(artifact.TypeScaffoldApplied)
	if err != nil {
		return err
	}
	applied, err := appliedArt.ScaffoldApplied()
	if err != nil {
		return err
	}
	applied.Baselines = ctx.baselines

	refreshed, err := artifact.New(artifact.TypeScaffoldApplied, appliedArt.Version, applied)
	if err != nil {
		return fmt.Errorf("rebuild scaffold_applied artifact: %w", err)
	}
	refreshed.Status = artifact.StatusApplied
	if err := e.Store.SaveArtifact(refreshed); err != nil {
		return err
	}

	previewArt.Status = artifact.StatusApplied
	if err := e.Store.SaveArtifact(previewArt); err != nil {
		return err
	}

	// Mutate a copy so a failed save cannot leave an advanced version in
	// memory for the failure path to persist.
	next := *cs
	next.ProjectVersion = man.Version
	next.MothershipVersion = man.Version
	next.LastSync = e.Now().UTC()
	next.State = string(StateApplied)
	if err := storage.SaveConnection(e.ProjectDir, &next); err != nil {
		return err
	}
	*cs = next
	return nil
}
