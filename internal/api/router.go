package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/marblecomic/marble/internal/comicservice"
)

// NewRouter creates a chi router with all API routes mounted.
// sseHandler, if non-nil, is mounted at GET /events.
func NewRouter(svc *comicservice.Service, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)
	ph := NewPageHandler(svc)

	r := chi.NewRouter()

	// Comics and navigation.
	r.Get("/comics", h.ListComics)
	r.Route("/comics/{id}", func(r chi.Router) {
		r.Get("/", h.GetComic)
		r.Get("/chapters", h.GetNavigation)
		r.Get("/chapters/{chapter}", h.GetChapter)
		r.Get("/chapters/{chapter}/pages/{page}", ph.ServeFile)

		r.Get("/progress", h.GetProgress)
		r.With(WritableOnly(svc.Writable())).Put("/progress", h.UpdateProgress)
	})

	// Keywords.
	r.Get("/keywords", h.ListKeywords)
	r.Get("/keywords/match", h.MatchKeywords)
	r.Get("/keywords/{category}", h.ListTags)
	r.Get("/keywords/{category}/{tag}", h.GetTagged)

	r.Get("/search", h.Search)
	r.Get("/progress", h.ListProgress)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
