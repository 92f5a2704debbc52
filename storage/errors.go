package storage

import (
	"errors"

	"github.com/c360studio/semforge/artifact"
)

// ErrNotFound is returned when a state or session document is missing.
var ErrNotFound = errors.New("not found")

// IsNotFound reports whether err indicates a missing artifact, connection,
// or session file, however it was wrapped.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || artifact.IsCode(err, artifact.CodeArtifactNotFound)
}
