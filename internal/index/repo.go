package index

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/marblecomic/marble/internal/models"
)

// ComicRow is one mirrored comic.
type ComicRow struct {
	ID          models.ComicID
	Dir         string
	Name        string
	Description string
	Checksum    string
	Keywords    map[string][]string
	SyncedAt    time.Time
}

// Stamp identifies the version of a mirrored row.
type Stamp struct {
	Dir      string
	Checksum string
}

// SearchResult represents one search hit.
type SearchResult struct {
	ID      models.ComicID `json:"id"`
	Name    string         `json:"name"`
	Snippet string         `json:"snippet"`
}

// tagText flattens keywords into "category:tag" words, sorted so the
// column is stable across syncs.
func tagText(keywords map[string][]string) string {
	var words []string
	for cat, tags := range keywords {
		for _, tag := range tags {
			words = append(words, cat+":"+tag)
		}
	}
	slices.Sort(words)
	return strings.Join(words, " ")
}

// UpsertComic inserts or replaces a comic and its FTS entry in one transaction.
func (db *DB) UpsertComic(r ComicRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	kw := r.Keywords
	if kw == nil {
		kw = map[string][]string{}
	}
	kwJSON, err := json.Marshal(kw)
	if err != nil {
		return fmt.Errorf("index: encode keywords: %w", err)
	}
	if r.SyncedAt.IsZero() {
		r.SyncedAt = time.Now().UTC()
	}
	tags := tagText(kw)

	_, err = tx.Exec(`
		INSERT INTO comics (id, dir, name, description, checksum, keywords, tags, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			dir         = excluded.dir,
			name        = excluded.name,
			description = excluded.description,
			checksum    = excluded.checksum,
			keywords    = excluded.keywords,
			tags        = excluded.tags,
			synced_at   = excluded.synced_at
	`, int64(r.ID), r.Dir, r.Name, r.Description, r.Checksum, string(kwJSON), tags, r.SyncedAt)
	if err != nil {
		return fmt.Errorf("index: upsert comic %d: %w", r.ID, err)
	}

	if err := ftsUpsert(tx, r.ID, r.Name, r.Description, tags); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteComic removes a comic and its FTS entry.
func (db *DB) DeleteComic(id models.ComicID) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := ftsDelete(tx, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM comics WHERE id = ?`, int64(id)); err != nil {
		return fmt.Errorf("index: delete comic %d: %w", id, err)
	}
	return tx.Commit()
}

// Stamps returns the directory and checksum of every mirrored comic.
func (db *DB) Stamps() (map[models.ComicID]Stamp, error) {
	rows, err := db.conn.Query(`SELECT id, dir, checksum FROM comics`)
	if err != nil {
		return nil, fmt.Errorf("index: stamps: %w", err)
	}
	defer rows.Close()

	out := make(map[models.ComicID]Stamp)
	for rows.Next() {
		var (
			id int64
			s  Stamp
		)
		if err := rows.Scan(&id, &s.Dir, &s.Checksum); err != nil {
			return nil, err
		}
		out[models.ComicID(id)] = s
	}
	return out, rows.Err()
}

// Count returns the number of mirrored comics.
func (db *DB) Count() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM comics`).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count: %w", err)
	}
	return n, nil
}

func scanResults(rows *sql.Rows) ([]SearchResult, error) {
	defer rows.Close()
	var out []SearchResult
	for rows.Next() {
		var (
			id int64
			r  SearchResult
		)
		if err := rows.Scan(&id, &r.Name, &r.Snippet); err != nil {
			return nil, err
		}
		r.ID = models.ComicID(id)
		out = append(out, r)
	}
	return out, rows.Err()
}
