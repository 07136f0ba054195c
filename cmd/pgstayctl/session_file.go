package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/artpar/pgstay/internal/core/domain"
	"github.com/artpar/pgstay/internal/core/state"
)

// defaultSessionFile returns ~/.pgstay/session.yaml, or a relative path when
// the home directory is unknown.
func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".pgstay", "session.yaml")
	}
	return filepath.Join(home, ".pgstay", "session.yaml")
}

// loadSession reads a saved session. A missing file means no session.
func loadSession(path string) (domain.Session, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Session{}, false, nil
	}
	if err != nil {
		return domain.Session{}, false, fmt.Errorf("read session file: %w", err)
	}

	var session domain.Session
	if err := yaml.Unmarshal(data, &session); err != nil {
		return domain.Session{}, false, fmt.Errorf("parse session file %s: %w", path, err)
	}
	if session.Token == "" {
		return domain.Session{}, false, nil
	}
	return session, true, nil
}

func saveSession(path string, session domain.Session) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := yaml.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

func removeSession(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// sessionPersister mirrors every session change to the file at path.
func sessionPersister(path string, logger *slog.Logger) state.Listener[domain.Session] {
	return func(session domain.Session, present bool) {
		var err error
		if present {
			err = saveSession(path, session)
		} else {
			err = removeSession(path)
		}
		if err != nil {
			logger.Error("failed to persist session", "path", path, "error", err)
		}
	}
}
