// Package store is the SQLite-backed content store: renderable nodes, their
// material slots, material descriptors with texture bindings, and the
// texture index. The integrity engine never touches it directly; it receives
// a snapshot and an index loaded here and hands patches back.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store wraps a SQLite asset database connection
type Store struct {
	conn *sql.DB
	Path string
}

const schema = `
CREATE TABLE IF NOT EXISTS nodes (
	path TEXT PRIMARY KEY,
	name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS slots (
	node_path  TEXT NOT NULL REFERENCES nodes(path) ON DELETE CASCADE,
	slot_index INTEGER NOT NULL,
	material_name TEXT,
	PRIMARY KEY (node_path, slot_index)
);
CREATE TABLE IF NOT EXISTS materials (
	name TEXT PRIMARY KEY,
	shader_name   TEXT NOT NULL DEFAULT '',
	shader_broken INTEGER NOT NULL DEFAULT 0,
	blend_mode    TEXT NOT NULL DEFAULT 'Opaque',
	draw_order    INTEGER NOT NULL DEFAULT 0,
	z_write       INTEGER NOT NULL DEFAULT 1
);
CREATE TABLE IF NOT EXISTS material_textures (
	material_name TEXT NOT NULL REFERENCES materials(name) ON DELETE CASCADE,
	property      TEXT NOT NULL,
	texture_name  TEXT,
	PRIMARY KEY (material_name, property)
);
CREATE TABLE IF NOT EXISTS textures (
	name TEXT PRIMARY KEY,
	path TEXT NOT NULL DEFAULT '',
	exists_on_disk INTEGER NOT NULL DEFAULT 1,
	content_ok     INTEGER NOT NULL DEFAULT 1
);
`

// Open opens a SQLite asset database with WAL mode and foreign keys enabled,
// creating the schema when absent.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for concurrent reads
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{conn: conn, Path: path}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.conn.Close()
}

// Conn returns the underlying sql.DB for custom queries
func (s *Store) Conn() *sql.DB {
	return s.conn
}
