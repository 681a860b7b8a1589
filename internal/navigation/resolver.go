// Package navigation derives the chapter/page layout of a comic from the
// names of its page files and memoizes it for the process lifetime.
package navigation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/marblecomic/marble/internal/apperr"
	"github.com/marblecomic/marble/internal/models"
	"github.com/marblecomic/marble/internal/parser"
	"github.com/marblecomic/marble/internal/storage"
)

// Locator finds the directory of a comic, relative to the library root.
// *catalog.Catalog satisfies it.
type Locator interface {
	Dir(id models.ComicID) (string, bool)
}

// Resolver computes navigation matrices and caches them. Once cached, a
// matrix is never recomputed, even if the directory changes on disk.
type Resolver struct {
	lib    storage.Provider
	comics Locator
	logger *slog.Logger

	// mu guards cache and is never held while touching the file system.
	mu    sync.Mutex
	cache map[models.ComicID]Matrix

	// flights collapses concurrent misses for the same comic into one scan.
	flights singleflight.Group
}

// NewResolver creates a resolver over the given library.
func NewResolver(lib storage.Provider, comics Locator, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		lib:    lib,
		comics: comics,
		logger: logger,
		cache:  make(map[models.ComicID]Matrix),
	}
}

// Resolve returns the navigation matrix of a comic. The result is a copy
// the caller may modify.
func (r *Resolver) Resolve(ctx context.Context, id models.ComicID) (Matrix, error) {
	if m, ok := r.cached(id); ok {
		cacheHits.Inc()
		return m.Clone(), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v, err, _ := r.flights.Do(id.String(), func() (any, error) {
		// Another flight may have filled the entry since the first check.
		if m, ok := r.cached(id); ok {
			return m, nil
		}
		cacheMisses.Inc()
		m, err := r.scan(id)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		if existing, ok := r.cache[id]; ok {
			m = existing
		} else {
			r.cache[id] = m
		}
		r.mu.Unlock()
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Matrix).Clone(), nil
}

// Chapter returns the page paths of one chapter.
func (r *Resolver) Chapter(ctx context.Context, id models.ComicID, chapter int) ([]string, error) {
	m, err := r.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	pages, ok := m.Chapter(chapter)
	if !ok {
		return nil, fmt.Errorf("navigation: comic %d has no chapter %d: %w", id, chapter, apperr.ErrNotFound)
	}
	return pages, nil
}

// Page returns the file path of one page.
func (r *Resolver) Page(ctx context.Context, id models.ComicID, chapter, page int) (string, error) {
	m, err := r.Resolve(ctx, id)
	if err != nil {
		return "", err
	}
	p, ok := m.Page(chapter, page)
	if !ok {
		return "", fmt.Errorf("navigation: comic %d has no page %d/%d: %w", id, chapter, page, apperr.ErrNotFound)
	}
	return p, nil
}

func (r *Resolver) cached(id models.ComicID) (Matrix, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.cache[id]
	return m, ok
}

// scan lists the comic directory and places every page file by the
// numbers in its name. Enumeration order is irrelevant.
func (r *Resolver) scan(id models.ComicID) (Matrix, error) {
	start := time.Now()
	m, err := r.scanDir(id)
	scanDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		var navErr *Error
		if errors.As(err, &navErr) {
			scanErrors.WithLabelValues(navErr.Kind.String()).Inc()
		}
		r.logger.Warn("navigation: scan failed", slog.Any("id", id), slog.String("error", err.Error()))
		return nil, err
	}
	r.logger.Debug("navigation: scanned",
		slog.Any("id", id),
		slog.Int("chapters", len(m)),
		slog.Duration("took", time.Since(start)))
	return m, nil
}

func (r *Resolver) scanDir(id models.ComicID) (Matrix, error) {
	dir, ok := r.comics.Dir(id)
	if !ok {
		return nil, &Error{Kind: KindUnknownComic, ID: id}
	}
	absDir, err := r.lib.Abs(dir)
	if err != nil {
		return nil, &Error{Kind: KindReadDir, ID: id, Path: dir, Err: err}
	}

	entries, err := r.lib.ReadDir(dir)
	if err != nil {
		kind := KindReadDir
		var dirErr *storage.DirError
		if errors.As(err, &dirErr) && dirErr.Op == storage.OpRead {
			kind = KindReadEntry
		}
		return nil, &Error{Kind: kind, ID: id, Path: absDir, Err: err}
	}

	m := Matrix{}
	for _, e := range entries {
		name := e.Name()
		if parser.Ignored(name) {
			continue
		}
		ref, err := parser.ParsePageName(name)
		if err != nil {
			var nameErr *parser.NameError
			if errors.As(err, &nameErr) {
				return nil, fromNameError(id, filepath.Join(absDir, name), nameErr)
			}
			return nil, err
		}
		m.set(ref.Chapter, ref.Page, filepath.Join(absDir, name))
	}
	return m, nil
}
