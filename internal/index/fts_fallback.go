//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/marblecomic/marble/internal/models"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses LIKE over the comics table.
	return nil
}

func ftsUpsert(_ *sql.Tx, _ models.ComicID, _, _, _ string) error { return nil }

func ftsDelete(_ *sql.Tx, _ models.ComicID) error { return nil }

// Search performs a LIKE-based search (fallback when FTS5 is not compiled in).
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT id, name, substr(description, 1, 200)
		FROM comics
		WHERE name LIKE ? OR description LIKE ? OR tags LIKE ?
		ORDER BY id
		LIMIT ?
	`, like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	return scanResults(rows)
}
