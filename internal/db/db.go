package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/balkashynov/tock/internal/models"
)

// Memory opens a private in-memory database
const Memory = ":memory:"

var ErrNotFound = errors.New("task not found")

// ConflictError is returned when an update carries a stale version
type ConflictError struct {
	TaskID         string
	TaskName       string
	CurrentVersion int
	RequestVersion int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("task %q was modified elsewhere (version %d, request had %d)", e.TaskName, e.CurrentVersion, e.RequestVersion)
}

// Store persists timer tasks in SQLite
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// Open connects to the database at path (DefaultPath when empty) and runs migrations
func Open(path string) (*Store, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		path = p
	}
	dsn := path
	if path == Memory {
		dsn = "file::memory:"
	} else if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // Quiet by default
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if path == Memory {
		// every pooled connection would get its own empty database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

// DefaultPath returns ~/.tock/tock.db
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".tock", "tock.db"), nil
}

// WithClock replaces the clock used for auto-started tasks
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) migrate() error {
	return s.db.AutoMigrate(&models.TimerTask{})
}

// Close closes the database connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func notFound(id string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return err
}
