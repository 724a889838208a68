// Package index provides a SQLite-backed cache of encoded word graphs, one
// snapshot per vocabulary file, kept in sync with the vocabulary directory.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS vocabularies (
	name       TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	checksum   TEXT NOT NULL DEFAULT '',
	word_count INTEGER NOT NULL DEFAULT 0,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS nodes (
	vocabulary TEXT NOT NULL REFERENCES vocabularies(name) ON DELETE CASCADE,
	word       TEXT NOT NULL,
	del        TEXT NOT NULL DEFAULT '',
	ins        TEXT NOT NULL DEFAULT '',
	rep        TEXT NOT NULL DEFAULT '',
	upper      TEXT NOT NULL DEFAULT '',
	lower      TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (vocabulary, word)
);

CREATE INDEX IF NOT EXISTS idx_nodes_word ON nodes(word);
`

// DB wraps a sql.DB with snapshot-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
