//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/marblecomic/marble/internal/models"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS comics_fts USING fts5(
			id UNINDEXED,
			name,
			description,
			tags,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, id models.ComicID, name, description, tags string) error {
	if err := ftsDelete(tx, id); err != nil {
		return err
	}
	_, err := tx.Exec(`INSERT INTO comics_fts (id, name, description, tags) VALUES (?, ?, ?, ?)`,
		int64(id), name, description, tags)
	if err != nil {
		return fmt.Errorf("index: upsert fts %d: %w", id, err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, id models.ComicID) error {
	if _, err := tx.Exec(`DELETE FROM comics_fts WHERE id = ?`, int64(id)); err != nil {
		return fmt.Errorf("index: delete fts %d: %w", id, err)
	}
	return nil
}

// Search performs an FTS5 full-text search and returns matching results with snippets.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	rows, err := db.conn.Query(`
		SELECT id,
		       name,
		       snippet(comics_fts, 2, '<b>', '</b>', '...', 32)
		FROM comics_fts
		WHERE comics_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	return scanResults(rows)
}
