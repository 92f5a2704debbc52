package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/c360studio/semforge/artifact"
	"github.com/c360studio/semforge/export"
	"github.com/c360studio/semforge/storage"
)

// ExportCommand implements the export verb: it renders an erd artifact's
// entities and relationships into SQL DDL.
type ExportCommand struct {
	// Path is the erd artifact file or the artifact directory holding it.
	Path string

	// Dialect is the target SQL dialect.
	Dialect string

	// Output is the destination file; empty writes to the command writer.
	Output string
}

// Execute renders the DDL.
func (c *ExportCommand) Execute(w io.Writer) error {
	a, err := c.loadERD()
	if err != nil {
		return err
	}

	exporter, err := export.NewExporter(export.Dialect(c.Dialect))
	if err != nil {
		return fmt.Errorf("dialect %q: %w (supported: %s)",
			c.Dialect, err, strings.Join(export.DialectNames(), ", "))
	}
	ddl, err := exporter.Export(a)
	if err != nil {
		return err
	}

	if c.Output == "" {
		_, err := fmt.Fprint(w, ddl)
		return err
	}
	if err := storage.WriteFileAtomic(c.Output, []byte(ddl), 0644); err != nil {
		return err
	}
	fmt.Fprintf(w, "Wrote %s\n", c.Output)
	return nil
}

func (c *ExportCommand) loadERD() (*artifact.Artifact, error) {
	info, err := os.Stat(c.Path)
	if err != nil {
		return nil, artifact.NewError(artifact.CodeArtifactNotFound,
			"artifact path %s does not exist", c.Path).WithCause(err)
	}
	path := c.Path
	if info.IsDir() {
		name, _ := storage.FileFor(artifact.TypeERD)
		path = filepath.Join(c.Path, name)
	}
	a, err := storage.Load(path)
	if err != nil {
		return nil, err
	}
	if a.ArtifactType != artifact.TypeERD {
		return nil, artifact.NewError(artifact.CodeValidationFailed,
			"export needs an erd artifact, got %s", a.ArtifactType)
	}
	return a, nil
}
