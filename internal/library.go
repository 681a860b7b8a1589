package internal

import (
	"fmt"
	"log/slog"

	"github.com/marblecomic/marble/internal/catalog"
	"github.com/marblecomic/marble/internal/comicservice"
	"github.com/marblecomic/marble/internal/index"
	"github.com/marblecomic/marble/internal/navigation"
	"github.com/marblecomic/marble/internal/storage"
	"github.com/marblecomic/marble/internal/tracker"
)

// library is everything built from the configured directory at startup.
type library struct {
	catalog  *catalog.Catalog
	resolver *navigation.Resolver
	progress *tracker.Tracker
	search   *index.DB // nil when the mirror is disabled
}

// openLibrary loads the catalog, the progress file and, when enabled, the
// search mirror. A catalog load failure is fatal; a mirror failure is not.
func openLibrary(cfg *Config, logger *slog.Logger) (*library, error) {
	lib, err := storage.NewFS(cfg.Library.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	cat, err := catalog.Load(lib, logger)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	progress, err := tracker.Open(cfg.Tracker.Path)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	logger.Info("progress loaded",
		slog.String("path", cfg.Tracker.Path),
		slog.Int("tracked", len(progress.IDs())),
		slog.Bool("writable", cfg.Tracker.EnableWriting))

	l := &library{
		catalog:  cat,
		resolver: navigation.NewResolver(lib, cat, logger),
		progress: progress,
	}

	if cfg.SQLite.Enabled() {
		db, err := index.Open(cfg.SQLite.Path)
		if err != nil {
			logger.Warn("search index unavailable, falling back to name search", slog.String("error", err.Error()))
			return l, nil
		}
		if err := index.Sync(db, cat, logger); err != nil {
			logger.Warn("initial sync failed", slog.String("error", err.Error()))
		}
		l.search = db
	}
	return l, nil
}

func (l *library) service(logger *slog.Logger, opts ...comicservice.Option) *comicservice.Service {
	opts = append(opts, comicservice.WithLogger(logger))
	if l.search != nil {
		opts = append(opts, comicservice.WithSearch(l.search))
	}
	return comicservice.NewService(l.catalog, l.resolver, l.progress, opts...)
}

func (l *library) Close() error {
	if l.search == nil {
		return nil
	}
	return l.search.Close()
}
