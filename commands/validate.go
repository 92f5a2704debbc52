package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/c360studio/semforge/artifact"
	"github.com/c360studio/semforge/scaffold"
	"github.com/c360studio/semforge/storage"
	"github.com/c360studio/semforge/validation"
)

// ValidateCommand implements the validate verb: it validates one artifact
// file, or every artifact in a directory, against the sibling set found in
// the same directory.
type ValidateCommand struct {
	// Path is an artifact file or an artifact directory.
	Path string

	// Format selects "text" (reviewer feedback) or "json" (raw results).
	Format string
}

// Execute runs validation and writes the results. The returned error is
// nil only when every validated artifact passed.
func (c *ValidateCommand) Execute(w io.Writer) error {
	info, err := os.Stat(c.Path)
	if err != nil {
		return artifact.NewError(artifact.CodeArtifactNotFound,
			"artifact path %s does not exist", c.Path).WithCause(err)
	}

	var (
		dir       string
		artifacts []*artifact.Artifact
	)
	if info.IsDir() {
		dir = c.Path
		artifacts, err = storage.NewStore(dir).List()
		if err != nil {
			return err
		}
		if len(artifacts) == 0 {
			return artifact.NewError(artifact.CodeArtifactNotFound,
				"no artifact files found in %s", c.Path)
		}
	} else {
		dir = filepath.Dir(c.Path)
		a, err := storage.Load(c.Path)
		if err != nil {
			return err
		}
		artifacts = []*artifact.Artifact{a}
	}

	siblings, err := scaffold.LoadSiblings(storage.NewStore(dir))
	if err != nil {
		return err
	}

	results := make([]*validation.Result, 0, len(artifacts))
	failed := 0
	for _, a := range artifacts {
		result := validation.Validate(a, siblings)
		results = append(results, result)
		if !result.Passed {
			failed++
		}
	}

	if c.Format == "json" {
		if err := printJSON(w, results); err != nil {
			return err
		}
	} else {
		for i, result := range results {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprint(w, result.Format())
		}
	}

	if failed > 0 {
		details := make([]string, 0, failed)
		for _, result := range results {
			if !result.Passed {
				details = append(details,
					fmt.Sprintf("%s: %d error(s)", result.ArtifactType, len(result.Errors)))
			}
		}
		return artifact.NewError(artifact.CodeValidationFailed,
			"%d of %d artifact(s) failed validation", failed, len(results)).
			WithDetails(details...)
	}
	return nil
}
