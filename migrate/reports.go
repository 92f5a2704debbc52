package migrate

import "time"

// UpdateSummary counts pending changes by classification.
type UpdateSummary struct {
	Total       int `json:"total"`
	NonBreaking int `json:"non_breaking"`
	Breaking    int `json:"breaking"`
	Security    int `json:"security"`
}

// PendingChange is one classified upstream change in a check or preview
// report.
type PendingChange struct {
	ID      string     `json:"id"`
	Version string     `json:"version"`
	Title   string     `json:"title,omitempty"`
	Kind    ChangeKind `json:"kind"`
	Files   []string   `json:"files,omitempty"`
}

func toPending(changes []Change) []PendingChange {
	out := make([]PendingChange, len(changes))
	for i, c := range changes {
		out[i] = PendingChange{
			ID:      c.ID,
			Version: c.Version,
			Title:   c.Title,
			Kind:    c.Kind,
			Files:   c.Files,
		}
	}
	return out
}

// CheckReport is the migration_check artifact payload.
type CheckReport struct {
	ProjectVersion    string          `json:"project_version"`
	MothershipVersion string          `json:"mothership_version"`
	CheckedAt         time.Time       `json:"checked_at"`
	UpdateSummary     UpdateSummary   `json:"update_summary"`
	Pending           []PendingChange `json:"pending,omitempty"`
}

// FilePreview is one file's migration plan: what would change and how the
// engine will treat it during apply.
type FilePreview struct {
	// Path is the project-relative destination.
	Path string `json:"path"`

	// Source is the template-relative file the new content renders from.
	Source string `json:"source"`

	// ChangeID names the last pending change touching this file.
	ChangeID string `json:"change_id"`

	// Kind is the most severe kind among the changes touching this file.
	Kind ChangeKind `json:"kind"`

	// Customized means the current content differs from the recorded
	// clean-render baseline, or the file has no baseline at all.
	Customized bool `json:"customized"`

	Strategy     Strategy `json:"strategy"`
	LinesAdded   int      `json:"lines_added"`
	LinesRemoved int      `json:"lines_removed"`

	// Note carries non-diff findings such as "new file".
	Note string `json:"note,omitempty"`
}

// PreviewReport is the migration_preview artifact payload. Approval lives
// on the artifact envelope; re-running preview replaces the artifact and
// with it any stale approval.
type PreviewReport struct {
	ProjectVersion    string          `json:"project_version"`
	MothershipVersion string          `json:"mothership_version"`
	PreviewedAt       time.Time       `json:"previewed_at"`
	Pending           []PendingChange `json:"pending,omitempty"`
	Files             []FilePreview   `json:"files"`
}

// ApplyReport enumerates exactly what an apply run did before it finished
// or halted.
type ApplyReport struct {
	FromVersion string    `json:"from_version"`
	ToVersion   string    `json:"to_version"`
	AppliedAt   time.Time `json:"applied_at"`
	BackupDir   string    `json:"backup_dir"`

	FilesWritten []string `json:"files_written,omitempty"`
	FilesSkipped []string `json:"files_skipped,omitempty"`

	// ManualMerge lists customized files touched by breaking changes;
	// they were skipped and need a human merge.
	ManualMerge []string `json:"manual_merge,omitempty"`

	StepsRun int      `json:"steps_run"`
	StepLog  []string `json:"step_log,omitempty"`
}

// RollbackReport records a restore from the last apply backup.
type RollbackReport struct {
	BackupDir     string   `json:"backup_dir"`
	FilesRestored []string `json:"files_restored,omitempty"`
}
