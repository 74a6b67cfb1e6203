// Package store provides SQLite-backed persistence for registered user
// records. A record is created once at registration and read during
// login; it is never updated in place.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

var (
	// ErrUserExists is returned when registering an already-taken username.
	ErrUserExists = errors.New("store: user already exists")

	// ErrUserNotFound is returned when no record exists for a username.
	ErrUserNotFound = errors.New("store: user not found")
)

// User is one persisted registration record. Salt and Verifier are hex;
// the verifier is the only long-term secret-bearing value the server holds.
type User struct {
	Username  string
	Salt      string
	Verifier  string
	CreatedAt time.Time
}

// Store wraps the SQLite connection.
type Store struct {
	db *sql.DB
}

const migrationUsers = `
CREATE TABLE IF NOT EXISTS users (
	username   TEXT PRIMARY KEY,
	salt       TEXT NOT NULL,
	verifier   TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// Open opens (creating if necessary) the database at dbPath and runs the
// idempotent migration.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite does not support concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma: %w", err)
		}
	}

	if _, err := db.Exec(migrationUsers); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating users table: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateUser persists a new registration record. It fails with
// ErrUserExists when the username is taken; records are never replaced.
func (s *Store) CreateUser(ctx context.Context, username, salt, verifier string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, salt, verifier) VALUES (?, ?, ?)`,
		username, salt, verifier,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUserExists
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

// GetUser loads the record for username.
func (s *Store) GetUser(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT username, salt, verifier, created_at FROM users WHERE username = ?`,
		username,
	)

	var u User
	err := row.Scan(&u.Username, &u.Salt, &u.Verifier, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	return &u, nil
}

// UserExists reports whether a record exists for username.
func (s *Store) UserExists(ctx context.Context, username string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM users WHERE username = ?`, username,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("counting users: %w", err)
	}
	return n > 0, nil
}

// isUniqueViolation reports whether err is a primary-key conflict.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
