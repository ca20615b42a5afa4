package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
	"woonstat/internal/common"
	"woonstat/pkg/errors"
)

// Service owns the SQLite connection for the analytical store.
type Service struct {
	db        *sql.DB
	path      string
	timeout   time.Duration
	connected bool
}

// NewService creates a service for the store file at path.
func NewService(path string) *Service {
	return &Service{
		path:    path,
		timeout: 5 * time.Minute,
	}
}

// Connect opens the store, creating its directory when absent. Foreign
// key enforcement is switched on for the whole connection.
func (s *Service) Connect() error {
	if s.connected {
		return nil
	}

	path, err := common.CleanPath(s.path)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStoreOpen, "Invalid store path").
			WithContext("path", s.path)
	}
	s.path = path

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, common.DirPermissionNormal); err != nil {
			return errors.Wrap(err, errors.ErrCodeStoreOpen, "Failed to create store directory").
				WithContext("dir", dir)
		}
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStoreOpen, "Failed to open store").
			WithContext("path", s.path)
	}

	// SQLite serializes writers; a single connection avoids lock churn.
	db.SetMaxOpenConns(1)

	ctx, cancel := s.getContext()
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return errors.StoreError("Failed to enable foreign keys", "PRAGMA foreign_keys = ON", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return errors.Wrap(err, errors.ErrCodeStoreOpen, "Failed to reach store").
			WithContext("path", s.path).
			WithSuggestions(
				"Check that the store path is writable",
				"Remove the file if it is not a SQLite database",
			)
	}

	s.db = db
	s.connected = true
	return nil
}

// Close releases the connection.
func (s *Service) Close() error {
	if !s.connected {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return errors.Wrap(err, errors.ErrCodeStoreOpen, "Failed to close store")
	}
	s.connected = false
	return nil
}

// DB exposes the underlying handle for the loader.
func (s *Service) DB() *sql.DB {
	return s.db
}

// Path returns the store file location.
func (s *Service) Path() string {
	return s.path
}

func (s *Service) getContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}
