package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/c360studio/semforge/storage"
)

// StatusCommand implements the status verb: it shows a generated project's
// connection state and its recent session logs.
type StatusCommand struct {
	// ProjectDir is the generated project to inspect.
	ProjectDir string

	// Format selects "text" or "json" rendering.
	Format string
}

// projectStatus is the JSON rendering of a status call.
type projectStatus struct {
	Connection *storage.ConnectionState `json:"connection"`
	Sessions   []string                 `json:"sessions,omitempty"`
}

// Execute prints the project's sync state.
func (c *StatusCommand) Execute(w io.Writer) error {
	cs, err := storage.LoadConnection(c.ProjectDir)
	if err != nil {
		return err
	}
	sessions := sessionIDs(c.ProjectDir)

	if c.Format == "json" {
		return printJSON(w, projectStatus{Connection: cs, Sessions: sessions})
	}

	fmt.Fprintf(w, "Project version:    %s\n", cs.ProjectVersion)
	fmt.Fprintf(w, "Mothership version: %s\n", cs.MothershipVersion)
	fmt.Fprintf(w, "Migration state:    %s\n", cs.State)
	fmt.Fprintf(w, "Last sync:          %s\n", cs.LastSync.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "Sync enabled:       %t\n", cs.SyncEnabled)
	if cs.LastBackup != "" {
		fmt.Fprintf(w, "Last backup:        %s\n", cs.LastBackup)
	}
	if len(sessions) > 0 {
		fmt.Fprintf(w, "Sessions:           %d recorded\n", len(sessions))
	}
	return nil
}

// sessionIDs lists the recorded session log IDs, sorted for stable output.
func sessionIDs(projectDir string) []string {
	entries, err := os.ReadDir(storage.SessionsPath(projectDir))
	if err != nil {
		return nil
	}
	var ids []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		ids = append(ids, strings.TrimSuffix(entry.Name(), ".json"))
	}
	slices.Sort(ids)
	return ids
}
