package index

import (
	"log/slog"

	"github.com/marblecomic/marble/internal/catalog"
	"github.com/marblecomic/marble/internal/models"
)

// Sync brings the mirror up to date with the catalog:
//   - new or changed comics are upserted
//   - comics no longer in the catalog are deleted
//
// Per-row failures are logged and skipped; only failing to read the
// mirror's current state is returned.
func Sync(db ComicIndex, cat *catalog.Catalog, logger *slog.Logger) error {
	stamps, err := db.Stamps()
	if err != nil {
		return err
	}

	var upserted, removed int
	seen := make(map[models.ComicID]struct{}, cat.Len())
	for _, e := range cat.Entries() {
		seen[e.Comic.ID] = struct{}{}
		if stamps[e.Comic.ID] == (Stamp{Dir: e.Dir, Checksum: e.Checksum}) {
			continue
		}
		if err := db.UpsertComic(rowFor(e)); err != nil {
			logger.Warn("sync: index failed", slog.String("id", e.Comic.ID.String()), slog.String("error", err.Error()))
			continue
		}
		upserted++
		logger.Debug("sync: indexed", slog.String("id", e.Comic.ID.String()), slog.String("dir", e.Dir))
	}

	for id := range stamps {
		if _, ok := seen[id]; ok {
			continue
		}
		if err := db.DeleteComic(id); err != nil {
			logger.Warn("sync: delete failed", slog.String("id", id.String()), slog.String("error", err.Error()))
			continue
		}
		removed++
		logger.Debug("sync: removed stale", slog.String("id", id.String()))
	}

	logger.Info("search index synced",
		slog.Int("comics", cat.Len()),
		slog.Int("upserted", upserted),
		slog.Int("removed", removed),
	)
	return nil
}

func rowFor(e catalog.Entry) ComicRow {
	r := ComicRow{
		ID:       e.Comic.ID,
		Dir:      e.Dir,
		Name:     e.Comic.DisplayName(),
		Checksum: e.Checksum,
		Keywords: e.Comic.Keywords,
	}
	if e.Comic.Description != nil {
		r.Description = *e.Comic.Description
	}
	return r
}
