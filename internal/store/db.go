// Package store provides libsql-backed persistence for the predictors:
// per-cardinality n-gram count tables and a phrase store with an embedded
// vector index for semantic search.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/tursodatabase/go-libsql"
)

// ErrNotOpen is returned by store methods when the underlying database
// handle is missing.
var ErrNotOpen = errors.New("store: database not open")

// Open opens (creating if necessary) the libsql database at path. The
// special path ":memory:" opens an in-memory database.
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database dir: %w", err)
		}
	}
	db, err := sql.Open("libsql", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	return db, nil
}
