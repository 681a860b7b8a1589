package api

import (
	"net/http"
	"os"

	"github.com/marblecomic/marble/internal/comicservice"
)

// PageHandler serves page image files resolved through the navigation
// matrix, so only files that parsed as pages are reachable.
type PageHandler struct {
	svc *comicservice.Service
}

// NewPageHandler creates a page handler.
func NewPageHandler(svc *comicservice.Service) *PageHandler {
	return &PageHandler{svc: svc}
}

// ServeFile handles GET /api/comics/{id}/chapters/{chapter}/pages/{page}.
//
//	@Summary		Download one page image
//	@Tags			comics
//	@Produce		octet-stream
//	@Param			id		path	int	true	"Comic id"
//	@Param			chapter	path	int	true	"Chapter index"
//	@Param			page	path	int	true	"Page index"
//	@Success		200
//	@Failure		400	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Router			/comics/{id}/chapters/{chapter}/pages/{page} [get]
func (h *PageHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
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
	page, err := position(r, "page")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	abs, err := h.svc.PagePath(r.Context(), id, chapter, page)
	if err != nil {
		writeError(w, "page", err)
		return
	}
	// The matrix is cached; the file may have gone since.
	info, statErr := os.Stat(abs)
	if statErr != nil || info.IsDir() {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	w.Header().Set("Cache-Control", "private, max-age=3600")
	http.ServeFile(w, r, abs)
}
