package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/marblecomic/marble/internal/catalog"
	"github.com/marblecomic/marble/internal/comicservice"
	"github.com/marblecomic/marble/internal/index"
	"github.com/marblecomic/marble/internal/models"
)

// Handler holds API route handlers.
type Handler struct {
	svc *comicservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *comicservice.Service) *Handler {
	return &Handler{svc: svc}
}

func comicID(r *http.Request) (models.ComicID, error) {
	return models.ParseComicID(chi.URLParam(r, "id"))
}

// position parses a non-negative chapter or page number from the URL.
func position(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return n, nil
}

// ListComics handles GET /api/comics.
//
//	@Summary		List every comic with its reading position
//	@Tags			comics
//	@Produce		json
//	@Success		200	{object}	ComicListResponse
//	@Router			/comics [get]
func (h *Handler) ListComics(w http.ResponseWriter, r *http.Request) {
	comics := h.svc.ListComics(r.Context())
	writeJSON(w, http.StatusOK, ComicListResponse{Comics: comics, Total: len(comics)})
}

// GetComic handles GET /api/comics/{id}.
//
//	@Summary		Get a single comic
//	@Tags			comics
//	@Produce		json
//	@Param			id	path		int	true	"Comic id"
//	@Success		200	{object}	ComicDetail
//	@Failure		400	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Router			/comics/{id} [get]
func (h *Handler) GetComic(w http.ResponseWriter, r *http.Request) {
	id, err := comicID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid comic id"))
		return
	}
	comic, err := h.svc.GetComic(r.Context(), id)
	if err != nil {
		writeError(w, "get comic", err)
		return
	}
	writeJSON(w, http.StatusOK, comic)
}

// GetNavigation handles GET /api/comics/{id}/chapters.
//
//	@Summary		Get the chapter/page layout of a comic
//	@Tags			comics
//	@Produce		json
//	@Param			id	path		int	true	"Comic id"
//	@Success		200	{object}	NavigationResponse
//	@Failure		404	{object}	errResponse
//	@Failure		500	{object}	errResponse
//	@Router			/comics/{id}/chapters [get]
func (h *Handler) GetNavigation(w http.ResponseWriter, r *http.Request) {
	id, err := comicID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid comic id"))
		return
	}
	m, err := h.svc.Navigation(r.Context(), id)
	if err != nil {
		writeError(w, "navigation", err)
		return
	}
	writeJSON(w, http.StatusOK, NavigationResponse{ID: id, Chapters: m})
}

// GetChapter handles GET /api/comics/{id}/chapters/{chapter}.
//
//	@Summary		List the pages of one chapter
//	@Tags			comics
//	@Produce		json
//	@Param			id		path		int	true	"Comic id"
//	@Param			chapter	path		int	true	"Chapter index"
//	@Success		200		{object}	ChapterResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Router			/comics/{id}/chapters/{chapter} [get]
func (h *Handler) GetChapter(w http.ResponseWriter, r *http.Request) {
	id, err := comicID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid comic id"))
		return
	}
	chapter, err := position(r, "chapter")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	pages, err := h.svc.Chapter(r.Context(), id, chapter)
	if err != nil {
		writeError(w, "chapter", err)
		return
	}
	writeJSON(w, http.StatusOK, ChapterResponse{ID: id, Chapter: chapter, Pages: pages})
}

// ListKeywords handles GET /api/keywords.
//
//	@Summary		Get the keyword index
//	@Tags			keywords
//	@Produce		json
//	@Success		200	{object}	KeywordsResponse
//	@Router			/keywords [get]
func (h *Handler) ListKeywords(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, KeywordsResponse{Keywords: h.svc.Keywords(r.Context())})
}

// ListTags handles GET /api/keywords/{category}.
//
//	@Summary		List the tags of one category
//	@Tags			keywords
//	@Produce		json
//	@Param			category	path		string	true	"Keyword category"
//	@Success		200			{object}	map[string][]string
//	@Failure		404			{object}	errResponse
//	@Router			/keywords/{category} [get]
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	tags, err := h.svc.Tags(r.Context(), category)
	if err != nil {
		writeError(w, "list tags", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"category": category, "tags": tags})
}

// GetTagged handles GET /api/keywords/{category}/{tag}.
//
//	@Summary		List comics carrying one tag, in load order
//	@Tags			keywords
//	@Produce		json
//	@Param			category	path		string	true	"Keyword category"
//	@Param			tag			path		string	true	"Tag"
//	@Success		200			{object}	ComicListResponse
//	@Failure		404			{object}	errResponse
//	@Router			/keywords/{category}/{tag} [get]
func (h *Handler) GetTagged(w http.ResponseWriter, r *http.Request) {
	comics, err := h.svc.Tagged(r.Context(), chi.URLParam(r, "category"), chi.URLParam(r, "tag"))
	if err != nil {
		writeError(w, "tagged", err)
		return
	}
	writeJSON(w, http.StatusOK, ComicListResponse{Comics: comics, Total: len(comics)})
}

// MatchKeywords handles GET /api/keywords/match?k=category:tag&k=...
//
//	@Summary		List comics carrying every given keyword
//	@Tags			keywords
//	@Produce		json
//	@Param			k	query		[]string	true	"category:tag pairs"
//	@Success		200	{object}	ComicListResponse
//	@Failure		400	{object}	errResponse
//	@Router			/keywords/match [get]
func (h *Handler) MatchKeywords(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query()["k"]
	keywords := make([]catalog.Keyword, 0, len(raw))
	for _, k := range raw {
		category, tag, ok := strings.Cut(k, ":")
		if !ok || category == "" || tag == "" {
			writeJSON(w, http.StatusBadRequest, errorBody(fmt.Sprintf("keyword %q must be category:tag", k)))
			return
		}
		keywords = append(keywords, catalog.Keyword{Category: category, Tag: tag})
	}
	comics, err := h.svc.Match(r.Context(), keywords)
	if err != nil {
		writeError(w, "match", err)
		return
	}
	writeJSON(w, http.StatusOK, ComicListResponse{Comics: comics, Total: len(comics)})
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across comic names, descriptions and tags
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	if results == nil {
		results = []index.SearchResult{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// ListProgress handles GET /api/progress.
//
//	@Summary		List every stored reading position
//	@Tags			progress
//	@Produce		json
//	@Success		200	{object}	map[string][]ProgressResponse
//	@Router			/progress [get]
func (h *Handler) ListProgress(w http.ResponseWriter, r *http.Request) {
	entries := h.svc.AllProgress(r.Context())
	out := make([]ProgressResponse, len(entries))
	for i, e := range entries {
		out[i] = progressResponse(e.ID, e.Progress)
	}
	writeJSON(w, http.StatusOK, map[string]any{"progress": out})
}

// GetProgress handles GET /api/comics/{id}/progress.
//
//	@Summary		Get the reading position of a comic
//	@Tags			progress
//	@Produce		json
//	@Param			id	path		int	true	"Comic id"
//	@Success		200	{object}	ProgressResponse
//	@Failure		404	{object}	errResponse
//	@Router			/comics/{id}/progress [get]
func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	id, err := comicID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid comic id"))
		return
	}
	p, err := h.svc.Progress(r.Context(), id)
	if err != nil {
		writeError(w, "get progress", err)
		return
	}
	writeJSON(w, http.StatusOK, progressResponse(id, p))
}

// UpdateProgress handles PUT /api/comics/{id}/progress.
//
//	@Summary		Record the reading position of a comic
//	@Tags			progress
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int						true	"Comic id"
//	@Param			body	body		UpdateProgressRequest	true	"New position"
//	@Success		200		{object}	ProgressResponse
//	@Failure		400		{object}	errResponse
//	@Failure		403		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Router			/comics/{id}/progress [put]
func (h *Handler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<10)
	id, err := comicID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid comic id"))
		return
	}
	var req UpdateProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	p, err := h.svc.SetProgress(r.Context(), id, models.Progress{Chapter: *req.Chapter, Page: *req.Page})
	if err != nil {
		writeError(w, "update progress", err)
		return
	}
	writeJSON(w, http.StatusOK, progressResponse(id, p))
}
