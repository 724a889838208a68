package index

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/wordhop/internal/apperr"
	"github.com/starford/wordhop/internal/models"
)

// VocabularyRow represents a row in the vocabularies table.
type VocabularyRow struct {
	Name      string    `json:"name"`
	Title     string    `json:"title"`
	Checksum  string    `json:"checksum"`
	WordCount int       `json:"word_count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SaveGraph replaces the snapshot of a vocabulary within a transaction.
func (db *DB) SaveGraph(v VocabularyRow, g models.EncodedGraph) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if v.UpdatedAt.IsZero() {
		v.UpdatedAt = time.Now()
	}
	_, err = tx.Exec(`
		INSERT INTO vocabularies (name, title, checksum, word_count, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			title      = excluded.title,
			checksum   = excluded.checksum,
			word_count = excluded.word_count,
			updated_at = excluded.updated_at
	`, v.Name, v.Title, v.Checksum, len(g), v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert vocabulary: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM nodes WHERE vocabulary = ?`, v.Name); err != nil {
		return fmt.Errorf("index: clear nodes: %w", err)
	}
	if len(g) > 0 {
		stmt, err := tx.Prepare(`INSERT INTO nodes (vocabulary, word, del, ins, rep, upper, lower) VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare node insert: %w", err)
		}
		defer stmt.Close()
		for _, w := range g.Words() {
			n := g[w]
			if _, err := stmt.Exec(v.Name, w, n.Delete, string(n.Insert), string(n.Replace), n.Uppercase, n.Lowercase); err != nil {
				return fmt.Errorf("index: insert node %q: %w", w, err)
			}
		}
	}

	return tx.Commit()
}

// LoadGraph returns the stored snapshot of a vocabulary, or apperr.ErrNotFound.
func (db *DB) LoadGraph(name string) (models.EncodedGraph, error) {
	if _, err := db.GetVocabulary(name); err != nil {
		return nil, err
	}
	rows, err := db.conn.Query(`SELECT word, del, ins, rep, upper, lower FROM nodes WHERE vocabulary = ?`, name)
	if err != nil {
		return nil, fmt.Errorf("index: load graph: %w", err)
	}
	defer rows.Close()

	g := models.EncodedGraph{}
	for rows.Next() {
		var (
			word     string
			n        models.EncodedNode
			ins, rep string
		)
		if err := rows.Scan(&word, &n.Delete, &ins, &rep, &n.Uppercase, &n.Lowercase); err != nil {
			return nil, err
		}
		n.Insert = models.SetField(ins)
		n.Replace = models.SetField(rep)
		g[word] = n
	}
	return g, rows.Err()
}

// DeleteVocabulary removes a vocabulary and its nodes.
func (db *DB) DeleteVocabulary(name string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, _ = tx.Exec(`DELETE FROM nodes WHERE vocabulary = ?`, name)
	_, _ = tx.Exec(`DELETE FROM vocabularies WHERE name = ?`, name)

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a vocabulary, or empty string if not found.
func (db *DB) GetChecksum(name string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM vocabularies WHERE name = ?`, name).Scan(&cs)
	if err != nil {
		return "", nil // not found is fine
	}
	return cs, nil
}

// GetVocabulary returns one vocabulary row, or apperr.ErrNotFound.
func (db *DB) GetVocabulary(name string) (*VocabularyRow, error) {
	var v VocabularyRow
	err := db.conn.QueryRow(`SELECT name, title, checksum, word_count, updated_at FROM vocabularies WHERE name = ?`, name).
		Scan(&v.Name, &v.Title, &v.Checksum, &v.WordCount, &v.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get vocabulary: %w", err)
	}
	return &v, nil
}

// ListVocabularies returns every stored vocabulary ordered by name.
func (db *DB) ListVocabularies() ([]VocabularyRow, error) {
	rows, err := db.conn.Query(`SELECT name, title, checksum, word_count, updated_at FROM vocabularies ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("index: list vocabularies: %w", err)
	}
	defer rows.Close()

	var out []VocabularyRow
	for rows.Next() {
		var v VocabularyRow
		if err := rows.Scan(&v.Name, &v.Title, &v.Checksum, &v.WordCount, &v.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// AllChecksums returns the stored checksum of every vocabulary.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT name, checksum FROM vocabularies`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var name, cs string
		if err := rows.Scan(&name, &cs); err != nil {
			return nil, err
		}
		out[name] = cs
	}
	return out, rows.Err()
}

// SearchWords returns up to limit words of a vocabulary that start with query.
func (db *DB) SearchWords(name, query string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT word FROM nodes
		WHERE vocabulary = ? AND substr(word, 1, length(?)) = ?
		ORDER BY length(word), word
		LIMIT ?
	`, name, query, query, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search words: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
