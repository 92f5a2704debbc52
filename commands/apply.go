package commands

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/c360studio/semforge/artifact"
	"github.com/c360studio/semforge/scaffold"
	"github.com/c360studio/semforge/storage"
)

// ApplyCommand implements the apply verb: it runs the scaffold application
// engine over an approved plan and reports what was created, skipped, and
// rejected. A session progress log is written into the generated project.
type ApplyCommand struct {
	// PlanPath is the scaffold_plan artifact file. Sibling artifacts are
	// read from the same directory.
	PlanPath string

	// TemplateRoot is the mothership template checkout.
	TemplateRoot string

	// OutputDir is the target project directory.
	OutputDir string

	// Format selects "text" or "json" report rendering.
	Format string
}

// Execute applies the plan. When the engine halts mid-flush the partial
// report is still rendered so the caller can see exactly what landed.
func (c *ApplyCommand) Execute(w io.Writer) error {
	plan, err := storage.Load(c.PlanPath)
	if err != nil {
		return err
	}

	store := storage.NewStore(filepath.Dir(c.PlanPath))
	engine := scaffold.NewEngine(store, c.TemplateRoot, c.OutputDir)

	session, err := storage.StartSession(c.OutputDir, "apply")
	if err != nil {
		return err
	}
	defer session.Close()
	_ = session.Log("info", fmt.Sprintf("applying scaffold plan %s", c.PlanPath), nil)

	report, applyErr := engine.Apply(plan)
	if report != nil {
		_ = session.Log(levelFor(applyErr), "scaffold apply finished", map[string]int{
			"files_created": report.FilesCreated,
			"files_skipped": report.FilesSkipped,
			"errors":        report.Errors,
		})
		if err := c.printReport(w, report); err != nil {
			return err
		}
	} else if applyErr != nil {
		_ = session.Log("error", applyErr.Error(), nil)
	}
	return applyErr
}

func levelFor(err error) string {
	if err != nil {
		return "error"
	}
	return "info"
}

func (c *ApplyCommand) printReport(w io.Writer, report *artifact.ScaffoldApplied) error {
	if c.Format == "json" {
		return printJSON(w, report)
	}

	fmt.Fprintf(w, "Applied scaffold plan for %s into %s\n", report.ProjectName, report.OutputDir)
	for _, entry := range report.Entries {
		fmt.Fprintf(w, "  %s: %d created, %d skipped, %d error(s)\n",
			entry.TemplateID, entry.FilesCreated, entry.FilesSkipped, len(entry.Errors))
		for _, name := range entry.Skipped {
			fmt.Fprintf(w, "    skipped %s\n", name)
		}
		for _, msg := range entry.Errors {
			fmt.Fprintf(w, "    error: %s\n", msg)
		}
	}
	fmt.Fprintf(w, "Total: %d created, %d skipped, %d error(s)\n",
		report.FilesCreated, report.FilesSkipped, report.Errors)
	return nil
}
