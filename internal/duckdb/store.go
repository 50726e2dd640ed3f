// Package duckdb stores the shared-DNA match graph in DuckDB: people
// (kit owners and their matches), undirected edges weighted by shared cM,
// and the match files already loaded.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection for the match graph.
type Store struct {
	db   *sql.DB
	path string

	// edges already stored, keyed by (source, target)
	seen map[edgeKey]bool
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	if err := s.loadSeen(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

var schema = []string{
	`CREATE SEQUENCE IF NOT EXISTS people_id START 1`,
	`CREATE TABLE IF NOT EXISTS people (
		id BIGINT PRIMARY KEY DEFAULT nextval('people_id'),
		name VARCHAR,
		kit VARCHAR,
		yhap VARCHAR,
		mthap VARCHAR
	)`,
	`CREATE TABLE IF NOT EXISTS edges (
		source BIGINT,
		target BIGINT,
		cm DOUBLE,
		PRIMARY KEY (source, target)
	)`,
	`CREATE TABLE IF NOT EXISTS match_files (
		path VARCHAR PRIMARY KEY,
		size BIGINT,
		mod_time TIMESTAMP,
		kit VARCHAR
	)`,
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Reset drops everything and starts an empty graph.
func (s *Store) Reset() error {
	for _, stmt := range []string{
		`DROP TABLE IF EXISTS edges`,
		`DROP TABLE IF EXISTS people`,
		`DROP TABLE IF EXISTS match_files`,
		`DROP SEQUENCE IF EXISTS people_id`,
	} {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
	}
	s.seen = make(map[edgeKey]bool)
	return s.ensureSchema()
}
