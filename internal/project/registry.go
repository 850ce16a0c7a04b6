package project

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Record a registered prototype project
type Record struct {
	ID        string
	Name      string
	Mode      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Registry SQLite-backed index of prototype projects
type Registry struct {
	db *sql.DB
}

// NewRegistry opens (creating if needed) the project registry database
func NewRegistry(dbPath string) (*Registry, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	reg := &Registry{db: db}

	if err := reg.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database tables: %w", err)
	}

	return reg, nil
}

// initTables initializes database tables
func (r *Registry) initTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			mode TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_projects_updated_at ON projects(updated_at)`,
	}

	for _, query := range queries {
		if _, err := r.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute SQL: %s, error: %w", query, err)
		}
	}

	return nil
}

// Create registers a new project and returns its id
func (r *Registry) Create(name, mode string) (string, error) {
	id := uuid.New().String()
	now := time.Now()

	_, err := r.db.Exec(
		"INSERT INTO projects (id, name, mode, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		id, name, mode, now, now,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create project: %w", err)
	}

	return id, nil
}

// Get returns a project by id, or nil if it does not exist
func (r *Registry) Get(id string) (*Record, error) {
	var rec Record
	err := r.db.QueryRow(
		"SELECT id, name, mode, created_at, updated_at FROM projects WHERE id = ?",
		id,
	).Scan(&rec.ID, &rec.Name, &rec.Mode, &rec.CreatedAt, &rec.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return &rec, nil
}

// GetLatest returns the most recently touched project, or nil if none exist
func (r *Registry) GetLatest() (*Record, error) {
	var rec Record
	err := r.db.QueryRow(
		"SELECT id, name, mode, created_at, updated_at FROM projects ORDER BY updated_at DESC LIMIT 1",
	).Scan(&rec.ID, &rec.Name, &rec.Mode, &rec.CreatedAt, &rec.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest project: %w", err)
	}

	return &rec, nil
}

// List returns all projects, most recently touched first
func (r *Registry) List() ([]*Record, error) {
	rows, err := r.db.Query(
		"SELECT id, name, mode, created_at, updated_at FROM projects ORDER BY updated_at DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Mode, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		records = append(records, &rec)
	}

	return records, nil
}

// Rename updates a project's name
func (r *Registry) Rename(id, name string) error {
	_, err := r.db.Exec(
		"UPDATE projects SET name = ?, updated_at = ? WHERE id = ?",
		name, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to rename project: %w", err)
	}
	return nil
}

// Touch updates a project's timestamp
func (r *Registry) Touch(id string) error {
	_, err := r.db.Exec(
		"UPDATE projects SET updated_at = ? WHERE id = ?",
		time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update project time: %w", err)
	}
	return nil
}

// Close closes the database connection
func (r *Registry) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
