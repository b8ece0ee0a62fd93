// File: internal/store/store.go
// Package store implements the persistent user store initialized by the
// server lifecycle. Business rules live here, outside the concurrency core,
// and are reached only through narrow method calls from connection jobs.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrUserExists indicates a registration under a taken name.
	ErrUserExists = errors.New("store: user already exists")

	// ErrUserNotFound indicates the named user does not exist.
	ErrUserNotFound = errors.New("store: user not found")

	// ErrBadCredentials indicates a password mismatch.
	ErrBadCredentials = errors.New("store: bad credentials")
)

// Store wraps the SQLite user database.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if necessary) the user database at path and ensures
// the schema is current.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// migrate ensures the schema is up to date.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Register creates a user with a bcrypt-hashed password.
func (s *Store) Register(name, password string) error {
	if name == "" || password == "" {
		return ErrBadCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("store: hash password: %w", err)
	}
	_, err = s.db.Exec(`INSERT INTO users (name, password_hash) VALUES (?, ?)`, name, string(hash))
	if err != nil {
		var exists bool
		if scanErr := s.db.QueryRow(`SELECT COUNT(1) > 0 FROM users WHERE name = ?`, name).Scan(&exists); scanErr == nil && exists {
			return ErrUserExists
		}
		return fmt.Errorf("store: insert user: %w", err)
	}
	return nil
}

// Authenticate verifies name/password against the stored hash.
func (s *Store) Authenticate(name, password string) error {
	var hash string
	err := s.db.QueryRow(`SELECT password_hash FROM users WHERE name = ?`, name).Scan(&hash)
	if err == sql.ErrNoRows {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("store: query user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return ErrBadCredentials
	}
	return nil
}

// CountUsers returns the number of registered users.
func (s *Store) CountUsers() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(1) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count users: %w", err)
	}
	return n, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
