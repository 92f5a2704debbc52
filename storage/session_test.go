package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionRoundTrip(t *testing.T) {
	projectDir := t.TempDir()

	_, err := LoadConnection(projectDir)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	cs := &ConnectionState{
		ProjectVersion:    "1.0.0",
		MothershipVersion: "1.2.0",
		LastSync:          time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		SyncEnabled:       true,
		State:             "checked",
	}
	require.NoError(t, SaveConnection(projectDir, cs))

	loaded, err := LoadConnection(projectDir)
	require.NoError(t, err)
	assert.Equal(t, cs, loaded)
}

func TestSessionLifecycle(t *testing.T) {
	projectDir := t.TempDir()

	s, err := StartSession(projectDir, "migrate apply")
	require.NoError(t, err)
	require.NotEmpty(t, s.ID)

	require.NoError(t, s.Log("info", "backup complete", map[string]int{"files": 4}))
	require.NoError(t, s.Log("error", "step failed", nil))
	require.NoError(t, s.Close())

	reopened, err := OpenSession(projectDir, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "migrate apply", reopened.Command)
	require.Len(t, reopened.Entries, 2)
	assert.Equal(t, "backup complete", reopened.Entries[0].Message)
	assert.Equal(t, 4, reopened.Entries[0].Counts["files"])
	assert.Equal(t, "error", reopened.Entries[1].Level)
	require.NotNil(t, reopened.EndedAt)

	// A reopened session keeps accepting entries.
	require.NoError(t, reopened.Log("info", "rolled back", nil))
	again, err := OpenSession(projectDir, s.ID)
	require.NoError(t, err)
	assert.Len(t, again.Entries, 3)
}

func TestOpenUnknownSession(t *testing.T) {
	_, err := OpenSession(t.TempDir(), "no-such-session")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}
