package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/c360studio/semforge/migrate"
	"github.com/c360studio/semforge/storage"
)

// MigrateCommand implements the migrate verbs. check and preview are
// read-only and safe to repeat; approve records a sign-off on the preview;
// apply executes the approved preview behind a backup; rollback restores
// the last backup after a failed apply.
type MigrateCommand struct {
	// Mode is check, preview, approve, apply, or rollback.
	Mode string

	// ProjectDir is the generated project to migrate.
	ProjectDir string

	// TemplateRoot is the mothership template checkout.
	TemplateRoot string

	// Approver is the name recorded by approve.
	Approver string

	// Approvers are the names a preview requires before apply may run.
	Approvers []string

	// Format selects "text" or "json" report rendering.
	Format string
}

// Execute dispatches the migration verb.
func (c *MigrateCommand) Execute(w io.Writer) error {
	engine := migrate.NewEngine(c.ProjectDir, c.TemplateRoot)
	engine.Approvers = c.Approvers

	switch c.Mode {
	case "check":
		return c.check(w, engine)
	case "preview":
		return c.preview(w, engine)
	case "approve":
		return c.approve(w, engine)
	case "apply":
		return c.apply(w, engine)
	case "rollback":
		return c.rollback(w, engine)
	default:
		return fmt.Errorf("unknown migrate mode %q (want check, preview, approve, apply, or rollback)", c.Mode)
	}
}

func (c *MigrateCommand) check(w io.Writer, engine *migrate.Engine) error {
	report, err := engine.Check()
	if err != nil {
		return err
	}
	if c.Format == "json" {
		return printJSON(w, report)
	}

	s := report.UpdateSummary
	fmt.Fprintf(w, "Project %s, mothership %s\n", report.ProjectVersion, report.MothershipVersion)
	fmt.Fprintf(w, "Pending changes: %d total (%d non-breaking, %d breaking, %d security)\n",
		s.Total, s.NonBreaking, s.Breaking, s.Security)
	for _, change := range report.Pending {
		fmt.Fprintf(w, "  %s %s [%s] %s\n", change.ID, change.Version, change.Kind, change.Title)
	}
	if s.Total == 0 {
		fmt.Fprintln(w, "Project is up to date.")
	}
	return nil
}

func (c *MigrateCommand) preview(w io.Writer, engine *migrate.Engine) error {
	report, err := engine.Preview()
	if err != nil {
		return err
	}
	if c.Format == "json" {
		return printJSON(w, report)
	}

	fmt.Fprintf(w, "Preview: %s -> %s, %d file(s) affected\n",
		report.ProjectVersion, report.MothershipVersion, len(report.Files))
	for _, fp := range report.Files {
		marker := " "
		if fp.Customized {
			marker = "*"
		}
		fmt.Fprintf(w, "  %s %-14s %s (+%d/-%d, %s)", marker, fp.Strategy, fp.Path,
			fp.LinesAdded, fp.LinesRemoved, fp.ChangeID)
		if fp.Note != "" {
			fmt.Fprintf(w, " — %s", fp.Note)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, "Files marked * differ from their clean-render baseline.")
	fmt.Fprintln(w, "Run migrate approve, then migrate apply.")
	return nil
}

func (c *MigrateCommand) approve(w io.Writer, engine *migrate.Engine) error {
	a, err := engine.Approve(c.Approver)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Recorded approval from %s.\n", c.Approver)
	if missing := a.MissingApprovals(); len(missing) > 0 {
		fmt.Fprintf(w, "Still waiting on: %s\n", strings.Join(missing, ", "))
	} else {
		fmt.Fprintln(w, "Preview is approved; migrate apply may run.")
	}
	return nil
}

func (c *MigrateCommand) apply(w io.Writer, engine *migrate.Engine) error {
	session, err := storage.StartSession(c.ProjectDir, "migrate apply")
	if err != nil {
		return err
	}
	defer session.Close()

	report, applyErr := engine.Apply()
	if report != nil {
		_ = session.Log(levelFor(applyErr), "migration apply finished", map[string]int{
			"files_written": len(report.FilesWritten),
			"files_skipped": len(report.FilesSkipped),
			"manual_merge":  len(report.ManualMerge),
			"steps_run":     report.StepsRun,
		})
		if err := c.printApplyReport(w, report); err != nil {
			return err
		}
	} else if applyErr != nil {
		_ = session.Log("error", applyErr.Error(), nil)
	}
	return applyErr
}

func (c *MigrateCommand) printApplyReport(w io.Writer, report *migrate.ApplyReport) error {
	if c.Format == "json" {
		return printJSON(w, report)
	}

	fmt.Fprintf(w, "Migration %s -> %s (backup: %s)\n",
		report.FromVersion, report.ToVersion, report.BackupDir)
	for _, p := range report.FilesWritten {
		fmt.Fprintf(w, "  wrote %s\n", p)
	}
	for _, p := range report.FilesSkipped {
		fmt.Fprintf(w, "  skipped %s\n", p)
	}
	for _, line := range report.StepLog {
		fmt.Fprintf(w, "  step: %s\n", line)
	}
	if len(report.ManualMerge) > 0 {
		fmt.Fprintf(w, "Manual merge needed for: %s\n", strings.Join(report.ManualMerge, ", "))
	}
	return nil
}

func (c *MigrateCommand) rollback(w io.Writer, engine *migrate.Engine) error {
	report, err := engine.Rollback()
	if err != nil {
		return err
	}
	if c.Format == "json" {
		return printJSON(w, report)
	}
	fmt.Fprintf(w, "Restored %d file(s) from %s\n", len(report.FilesRestored), report.BackupDir)
	for _, p := range report.FilesRestored {
		fmt.Fprintf(w, "  restored %s\n", p)
	}
	return nil
}
