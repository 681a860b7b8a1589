package index

import "github.com/marblecomic/marble/internal/models"

// ComicIndex is the search mirror as seen by its consumers.
type ComicIndex interface {
	UpsertComic(r ComicRow) error
	DeleteComic(id models.ComicID) error
	Stamps() (map[models.ComicID]Stamp, error)
	Count() (int, error)
	Search(query string, limit int) ([]SearchResult, error)
	Close() error
}

var _ ComicIndex = (*DB)(nil)
