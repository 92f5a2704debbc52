package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Session is the per-invocation progress log: one JSON document per CLI
// session, rewritten on every append so it survives process restarts and
// can be re-opened later by ID.
type Session struct {
	ID        string         `json:"id"`
	Command   string         `json:"command"`
	StartedAt time.Time      `json:"started_at"`
	EndedAt   *time.Time     `json:"ended_at,omitempty"`
	Entries   []SessionEntry `json:"entries"`

	path string
}

// SessionEntry is one progress record.
type SessionEntry struct {
	Time    time.Time      `json:"time"`
	Level   string         `json:"level"`
	Message string         `json:"message"`
	Counts  map[string]int `json:"counts,omitempty"`
}

// SessionsPath returns the project's session log directory.
func SessionsPath(projectDir string) string {
	return filepath.Join(StatePath(projectDir), SessionsDir)
}

// StartSession creates and persists a new session log for one command
// invocation.
func StartSession(projectDir, command string) (*Session, error) {
	s := &Session{
		ID:        uuid.New().String(),
		Command:   command,
		StartedAt: time.Now().UTC(),
		Entries:   []SessionEntry{},
	}
	s.path = filepath.Join(SessionsPath(projectDir), s.ID+".json")
	if err := s.save(); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenSession re-opens a previously started session by ID, so a restarted
// process can keep appending to the same log.
func OpenSession(projectDir, id string) (*Session, error) {
	path := filepath.Join(SessionsPath(projectDir), id+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("session %s not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("read session %s: %w", id, err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", id, err)
	}
	s.path = path
	return &s, nil
}

// Log appends one progress entry and persists the session.
func (s *Session) Log(level, message string, counts map[string]int) error {
	s.Entries = append(s.Entries, SessionEntry{
		Time:    time.Now().UTC(),
		Level:   level,
		Message: message,
		Counts:  counts,
	})
	return s.save()
}

// Close stamps the session's end time and persists it.
func (s *Session) Close() error {
	now := time.Now().UTC()
	s.EndedAt = &now
	return s.save()
}

func (s *Session) save() error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := WriteFileAtomic(s.path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}
