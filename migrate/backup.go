package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/c360studio/semforge/storage"
)

// createBackup copies every existing path (project-relative) into a fresh
// timestamped directory under the project's backup root, preserving the
// relative structure. Paths that do not exist yet need no backup.
func createBackup(projectDir string, paths []string, now time.Time) (string, error) {
	stamp := now.UTC().Format("20060102T150405Z")
	dir := filepath.Join(storage.BackupsPath(projectDir), stamp+"-"+uuid.NewString()[:8])
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}

	for _, rel := range paths {
		src := filepath.Join(projectDir, filepath.FromSlash(rel))
		if _, err := os.Stat(src); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return "", fmt.Errorf("stat %s for backup: %w", rel, err)
		}
		if err := storage.CopyFile(src, filepath.Join(dir, filepath.FromSlash(rel))); err != nil {
			return "", fmt.Errorf("back up %s: %w", rel, err)
		}
	}
	return dir, nil
}

// restoreBackup copies every file in the backup directory back over the
// project and returns the restored project-relative paths, sorted. Files
// the failed run created from scratch are not covered; the backup only
// holds what existed before the run.
func restoreBackup(projectDir, backupDir string) ([]string, error) {
	var restored []string
	err := filepath.WalkDir(backupDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(backupDir, path)
		if err != nil {
			return err
		}
		if err := storage.CopyFile(path, filepath.Join(projectDir, rel)); err != nil {
			return err
		}
		restored = append(restored, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("restore backup %s: %w", backupDir, err)
	}
	slices.Sort(restored)
	return restored, nil
}
