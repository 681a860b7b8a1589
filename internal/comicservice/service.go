// Package comicservice composes the catalog, navigation resolver, progress
// tracker and search mirror behind one facade used by the HTTP and MCP
// surfaces.
package comicservice

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/marblecomic/marble/internal/apperr"
	"github.com/marblecomic/marble/internal/catalog"
	"github.com/marblecomic/marble/internal/index"
	"github.com/marblecomic/marble/internal/models"
	"github.com/marblecomic/marble/internal/navigation"
	"github.com/marblecomic/marble/internal/tracker"
)

// ComicSummary is a list item: the record plus where the reader left off.
type ComicSummary struct {
	ID           models.ComicID       `json:"id"`
	Name         string               `json:"name"`
	Keywords     map[string][]string  `json:"keywords"`
	Translations []models.Translation `json:"translations"`
	Progress     models.Progress      `json:"progress"`
}

// ComicDetail is the full representation of one comic.
type ComicDetail struct {
	ComicSummary
	Description *string `json:"description,omitempty"`
	Dir         string  `json:"dir"`
	Checksum    string  `json:"checksum"`
}

// ProgressEntry is one stored reading position.
type ProgressEntry struct {
	ID       models.ComicID  `json:"id"`
	Progress models.Progress `json:"progress"`
}

// Publisher is notified after a position changes. *sse.Broker satisfies it.
type Publisher interface {
	PublishProgress(id models.ComicID, p models.Progress)
}

// Service coordinates the read model and the progress tracker.
type Service struct {
	cat      *catalog.Catalog
	nav      *navigation.Resolver
	progress *tracker.Tracker
	search   index.ComicIndex
	events   Publisher
	logger   *slog.Logger

	trackerPath string
	writable    bool
}

// Option configures a Service.
type Option func(*Service)

// WithSearch uses idx for Search instead of scanning names in memory.
func WithSearch(idx index.ComicIndex) Option {
	return func(s *Service) { s.search = idx }
}

// WithPublisher announces progress updates.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.events = p }
}

// WithTrackerFile persists the tracker to path after every update.
// Updates are refused unless writable is set.
func WithTrackerFile(path string, writable bool) Option {
	return func(s *Service) {
		s.trackerPath = path
		s.writable = writable
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a service over an already loaded catalog.
func NewService(cat *catalog.Catalog, nav *navigation.Resolver, progress *tracker.Tracker, opts ...Option) *Service {
	s := &Service{cat: cat, nav: nav, progress: progress, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Writable reports whether SetProgress is allowed.
func (s *Service) Writable() bool { return s.writable }

func (s *Service) summary(c models.Comic) ComicSummary {
	return ComicSummary{
		ID:           c.ID,
		Name:         c.DisplayName(),
		Keywords:     nonNilMap(c.Keywords),
		Translations: nonNilSlice(c.Translations),
		Progress:     s.progress.ProgressFor(c),
	}
}

// ListComics returns every comic in load order with its reading position.
func (s *Service) ListComics(_ context.Context) []ComicSummary {
	out := make([]ComicSummary, 0, s.cat.Len())
	for _, c := range s.cat.All() {
		out = append(out, s.summary(c))
	}
	return out
}

// GetComic returns one comic or apperr.ErrNotFound.
func (s *Service) GetComic(_ context.Context, id models.ComicID) (*ComicDetail, error) {
	e, ok := s.cat.Entry(id)
	if !ok {
		return nil, fmt.Errorf("comic %d: %w", id, apperr.ErrNotFound)
	}
	return &ComicDetail{
		ComicSummary: s.summary(e.Comic),
		Description:  e.Comic.Description,
		Dir:          e.Dir,
		Checksum:     e.Checksum,
	}, nil
}

// Navigation returns the chapter/page matrix of a comic.
func (s *Service) Navigation(ctx context.Context, id models.ComicID) (navigation.Matrix, error) {
	return s.nav.Resolve(ctx, id)
}

// Chapter returns the page paths of one chapter.
func (s *Service) Chapter(ctx context.Context, id models.ComicID, chapter int) ([]string, error) {
	return s.nav.Chapter(ctx, id, chapter)
}

// PagePath returns the absolute path of one page file.
func (s *Service) PagePath(ctx context.Context, id models.ComicID, chapter, page int) (string, error) {
	return s.nav.Page(ctx, id, chapter, page)
}

// Keywords returns the full category -> tag -> ids index.
func (s *Service) Keywords(_ context.Context) map[string]map[string][]models.ComicID {
	return s.cat.Keywords()
}

// Tags returns the tags of one category in sorted order.
func (s *Service) Tags(_ context.Context, category string) ([]string, error) {
	tags := s.cat.Tags(category)
	if len(tags) == 0 {
		return nil, fmt.Errorf("category %s: %w", category, apperr.ErrNotFound)
	}
	return tags, nil
}

// Tagged returns the comics carrying one tag, in load order.
func (s *Service) Tagged(_ context.Context, category, tag string) ([]ComicSummary, error) {
	ids, ok := s.cat.Tagged(category, tag)
	if !ok {
		return nil, fmt.Errorf("keyword %s:%s: %w", category, tag, apperr.ErrNotFound)
	}
	return s.summaries(ids), nil
}

// Match returns the comics carrying every keyword, by ascending id.
func (s *Service) Match(_ context.Context, keywords []catalog.Keyword) ([]ComicSummary, error) {
	if len(keywords) == 0 {
		return nil, fmt.Errorf("at least one keyword is required: %w", apperr.ErrInvalid)
	}
	return s.summaries(s.cat.Match(keywords...)), nil
}

func (s *Service) summaries(ids []models.ComicID) []ComicSummary {
	out := make([]ComicSummary, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.cat.Get(id); ok {
			out = append(out, s.summary(c))
		}
	}
	return out
}

// Search delegates to the search mirror, or matches names in memory when
// none is configured.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	if s.search != nil {
		return s.search.Search(query, limit)
	}
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, nil
	}
	var out []index.SearchResult
	for _, e := range s.cat.Entries() {
		name := e.Comic.DisplayName()
		if !strings.Contains(strings.ToLower(name), query) {
			continue
		}
		out = append(out, index.SearchResult{ID: e.Comic.ID, Name: name})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// Progress returns the reading position of a known comic, falling back to
// its translations.
func (s *Service) Progress(_ context.Context, id models.ComicID) (models.Progress, error) {
	c, ok := s.cat.Get(id)
	if !ok {
		return models.Progress{}, fmt.Errorf("comic %d: %w", id, apperr.ErrNotFound)
	}
	return s.progress.ProgressFor(c), nil
}

// AllProgress returns every stored position by ascending id, including ids
// no longer in the catalog.
func (s *Service) AllProgress(_ context.Context) []ProgressEntry {
	ids := s.progress.IDs()
	out := make([]ProgressEntry, 0, len(ids))
	for _, id := range ids {
		out = append(out, ProgressEntry{ID: id, Progress: s.progress.Get(id)})
	}
	return out
}

// SetProgress records a position, persists the tracker and announces the
// change. The in-memory update stands even when persisting fails.
func (s *Service) SetProgress(_ context.Context, id models.ComicID, p models.Progress) (models.Progress, error) {
	if !s.writable {
		return models.Progress{}, fmt.Errorf("progress is read-only: %w", apperr.ErrForbidden)
	}
	if _, ok := s.cat.Get(id); !ok {
		return models.Progress{}, fmt.Errorf("comic %d: %w", id, apperr.ErrNotFound)
	}
	if err := s.progress.Set(id, p.Chapter, p.Page); err != nil {
		return models.Progress{}, fmt.Errorf("%w: %w", apperr.ErrInvalid, err)
	}
	if s.events != nil {
		s.events.PublishProgress(id, p)
	}
	if err := s.SaveProgress(); err != nil {
		return p, err
	}
	s.logger.Debug("progress updated",
		slog.String("id", id.String()),
		slog.Int("chapter", p.Chapter),
		slog.Int("page", p.Page))
	return p, nil
}

// SaveProgress writes the tracker to its file, if one is configured.
func (s *Service) SaveProgress() error {
	if s.trackerPath == "" {
		return nil
	}
	if err := s.progress.Save(s.trackerPath); err != nil {
		s.logger.Error("failed to save progress", slog.String("path", s.trackerPath), slog.String("error", err.Error()))
		return err
	}
	return nil
}

// LibraryStats summarises the catalog for health and MCP consumers.
type LibraryStats struct {
	Comics     int      `json:"comics"`
	Categories []string `json:"categories"`
	Tracked    int      `json:"tracked"`
	Writable   bool     `json:"writable"`
}

// Stats returns catalog and tracker counts.
func (s *Service) Stats(_ context.Context) LibraryStats {
	return LibraryStats{
		Comics:     s.cat.Len(),
		Categories: nonNilSlice(s.cat.Categories()),
		Tracked:    len(s.progress.IDs()),
		Writable:   s.writable,
	}
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func nonNilMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return map[K]V{}
	}
	return m
}
