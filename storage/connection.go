package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Layout of the semforge state directory inside a generated project.
const (
	StateDir       = "semforge"
	ConnectionFile = "connection.json"
	SessionsDir    = "sessions"
	BackupsDir     = "backups"
)

// MothershipFile is the manifest at a template root describing the
// upstream version and its ordered change list.
const MothershipFile = "mothership.json"

// ConnectionState links a generated project to the mothership templates it
// was scaffolded from. The version and sync fields are mutated only by the
// migration engine's apply step, after a successful backup; State moves on
// every migration verb.
type ConnectionState struct {
	// ProjectVersion is the template version the project was last
	// synchronized to.
	ProjectVersion string `json:"project_version"`

	// MothershipVersion is the upstream template version the project was
	// last synchronized against.
	MothershipVersion string `json:"mothership_version"`

	// LastSync is when the project last completed a migration apply or
	// initial scaffold.
	LastSync time.Time `json:"last_sync"`

	// SyncEnabled gates the migration engine entirely.
	SyncEnabled bool `json:"sync_enabled"`

	// State is the migration state machine's current value.
	State string `json:"state"`

	// LastBackup is the backup directory of the most recent apply run,
	// recorded before the first modification so a failed run can be
	// rolled back.
	LastBackup string `json:"last_backup,omitempty"`
}

// StatePath returns the project's semforge state directory.
func StatePath(projectDir string) string {
	return filepath.Join(projectDir, StateDir)
}

// ConnectionPath returns the project's connection file path.
func ConnectionPath(projectDir string) string {
	return filepath.Join(StatePath(projectDir), ConnectionFile)
}

// BackupsPath returns the project's backup root directory.
func BackupsPath(projectDir string) string {
	return filepath.Join(StatePath(projectDir), BackupsDir)
}

// LoadConnection reads the project's connection state.
func LoadConnection(projectDir string) (*ConnectionState, error) {
	path := ConnectionPath(projectDir)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("project at %s is not connected (no %s): %w",
				projectDir, filepath.Join(StateDir, ConnectionFile), ErrNotFound)
		}
		return nil, fmt.Errorf("read connection state: %w", err)
	}

	var cs ConnectionState
	if err := json.Unmarshal(data, &cs); err != nil {
		return nil, fmt.Errorf("parse connection state: %w", err)
	}
	return &cs, nil
}

// SaveConnection writes the project's connection state atomically.
func SaveConnection(projectDir string, cs *ConnectionState) error {
	data, err := json.MarshalIndent(cs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal connection state: %w", err)
	}
	if err := WriteFileAtomic(ConnectionPath(projectDir), append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write connection state: %w", err)
	}
	return nil
}
