// Package scaffold turns an approved scaffold plan into a real file tree.
// All writes for one apply run are staged in memory and flushed only after
// plan-level checks pass, so a failed run leaves zero partial writes.
package scaffold

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/c360studio/semforge/artifact"
	"github.com/c360studio/semforge/storage"
)

// ResolveTarget joins a manifest entry's target path with a file's path
// relative to the entry's source. Segments repeated at the boundary are
// collapsed, so target "frontend/" plus a file that already arrives as
// "frontend/package.json" still lands at "frontend/package.json". Paths
// that escape the output directory or collapse to nothing fail with
// PATH_RESOLUTION_ERROR. Both inputs and the result use slash form.
func ResolveTarget(targetPath, relFile string) (string, error) {
	rel := path.Clean(strings.TrimSpace(relFile))
	if rel == "" || rel == "." {
		return "", artifact.NewError(artifact.CodePathResolution,
			"file path %q collapses to nothing", relFile)
	}
	if path.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", artifact.NewError(artifact.CodePathResolution,
			"file path %q escapes the output directory", relFile)
	}

	target := path.Clean(strings.TrimSpace(targetPath))
	if target == "" || target == "." || target == "/" {
		return rel, nil
	}
	if path.IsAbs(target) || target == ".." || strings.HasPrefix(target, "../") {
		return "", artifact.NewError(artifact.CodePathResolution,
			"target path %q escapes the output directory", targetPath)
	}

	targetSegs := strings.Split(target, "/")
	relSegs := strings.Split(rel, "/")

	// Longest suffix of the target that reappears as a prefix of the
	// file path is the duplicated boundary.
	overlap := 0
	for k := min(len(targetSegs), len(relSegs)-1); k > 0; k-- {
		if slices.Equal(targetSegs[len(targetSegs)-k:], relSegs[:k]) {
			overlap = k
			break
		}
	}

	return path.Join(append(slices.Clone(targetSegs), relSegs[overlap:]...)...), nil
}

// ExpandFiles lists the template files a manifest entry selects, relative
// to the entry's source directory, sorted and deduplicated. An empty
// pattern list selects every file under the source. The mothership
// manifest itself is never a template.
func ExpandFiles(templateRoot string, entry artifact.TemplateEntry) ([]string, error) {
	srcDir := filepath.Join(templateRoot, filepath.FromSlash(entry.SourcePath))
	info, err := os.Stat(srcDir)
	if err != nil || !info.IsDir() {
		return nil, artifact.NewError(artifact.CodePathResolution,
			"template entry %s source %q is not a directory under %s",
			entry.ID, entry.SourcePath, templateRoot)
	}

	patterns := entry.Files
	if len(patterns) == 0 {
		patterns = []string{"**/*"}
	}

	fsys := os.DirFS(srcDir)
	seen := map[string]bool{}
	var files []string
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, artifact.NewError(artifact.CodePathResolution,
				"template entry %s file pattern %q is not a valid glob", entry.ID, pattern)
		}
		err := doublestar.GlobWalk(fsys, pattern, func(p string, d fs.DirEntry) error {
			if d.IsDir() || p == storage.MothershipFile {
				return nil
			}
			if !seen[p] {
				seen[p] = true
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, artifact.NewError(artifact.CodePathResolution,
				"template entry %s pattern %q: %v", entry.ID, pattern, err)
		}
	}
	slices.Sort(files)
	return files, nil
}
