package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marblecomic/marble/internal/catalog"
	"github.com/marblecomic/marble/internal/comicservice"
	"github.com/marblecomic/marble/internal/index"
	"github.com/marblecomic/marble/internal/models"
	"github.com/marblecomic/marble/internal/navigation"
	"github.com/marblecomic/marble/internal/storage"
	"github.com/marblecomic/marble/internal/testutil"
	"github.com/marblecomic/marble/internal/tracker"
)

type env struct {
	root        string
	trackerPath string
	router      http.Handler
}

// testEnv builds a two-comic library, a search mirror and the router.
func testEnv(t *testing.T, writable bool) env {
	t.Helper()
	root := testutil.TestLibrary(t)

	a := testutil.Found(1, "Night Ferry")
	a.Keywords = map[string][]string{"genre": {"mystery", "travel"}}
	a.Description = testutil.Ptr("A crossing that never ends.")
	testutil.WriteComic(t, root, "ferry", a, "0-0.png", "0-1.png", "2-0.png")

	b := testutil.Found(2, "Day Train")
	b.Keywords = map[string][]string{"genre": {"travel"}}
	testutil.WriteComic(t, root, "train", b, "0-0.png")

	broken := testutil.Found(3, "Broken")
	testutil.WriteComic(t, root, "broken", broken, "cover.png")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	lib, err := storage.NewFS(root)
	require.NoError(t, err)
	cat, err := catalog.Load(lib, logger)
	require.NoError(t, err)

	db, err := index.Open(filepath.Join(t.TempDir(), "marble-api-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, index.Sync(db, cat, logger))

	trackerPath := filepath.Join(t.TempDir(), "progress.json")
	svc := comicservice.NewService(cat, navigation.NewResolver(lib, cat, logger), tracker.New(),
		comicservice.WithSearch(db),
		comicservice.WithTrackerFile(trackerPath, writable),
		comicservice.WithLogger(logger),
	)
	return env{root: root, trackerPath: trackerPath, router: NewRouter(svc, nil)}
}

func (e env) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, httptest.NewRequest(method, target, rd))
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestListComics(t *testing.T) {
	e := testEnv(t, false)
	w := e.do(t, http.MethodGet, "/comics", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[ComicListResponse](t, w)
	assert.Equal(t, 3, resp.Total)
	assert.Len(t, resp.Comics, 3)
}

func TestGetComic(t *testing.T) {
	e := testEnv(t, false)

	w := e.do(t, http.MethodGet, "/comics/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	d := decode[ComicDetail](t, w)
	assert.Equal(t, "Night Ferry", d.Name)
	assert.Equal(t, "ferry", d.Dir)

	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/comics/404", nil).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, "/comics/abc", nil).Code)
}

func TestNavigationEndpoints(t *testing.T) {
	e := testEnv(t, false)

	w := e.do(t, http.MethodGet, "/comics/1/chapters", nil)
	require.Equal(t, http.StatusOK, w.Code)
	nav := decode[NavigationResponse](t, w)
	require.Len(t, nav.Chapters, 3)
	assert.Len(t, nav.Chapters[0], 2)
	assert.Empty(t, nav.Chapters[1])
	assert.Equal(t, filepath.Join(e.root, "ferry", "2-0.png"), nav.Chapters[2][0])

	w = e.do(t, http.MethodGet, "/comics/1/chapters/0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[ChapterResponse](t, w).Pages, 2)

	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/comics/1/chapters/9", nil).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, "/comics/1/chapters/-1", nil).Code)
}

func TestNavigationBadPageNameIsServerError(t *testing.T) {
	e := testEnv(t, false)
	w := e.do(t, http.MethodGet, "/comics/3/chapters", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal error", decode[errResponse](t, w).Error)
}

func TestServePage(t *testing.T) {
	e := testEnv(t, false)

	w := e.do(t, http.MethodGet, "/comics/1/chapters/0/pages/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "page 0-1.png", w.Body.String())

	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/comics/1/chapters/1/pages/0", nil).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, "/comics/1/chapters/0/pages/x", nil).Code)
}

func TestKeywordEndpoints(t *testing.T) {
	e := testEnv(t, false)

	w := e.do(t, http.MethodGet, "/keywords", nil)
	require.Equal(t, http.StatusOK, w.Code)
	kw := decode[KeywordsResponse](t, w)
	assert.ElementsMatch(t, []models.ComicID{1, 2}, kw.Keywords["genre"]["travel"])

	w = e.do(t, http.MethodGet, "/keywords/genre", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"mystery"`)

	w = e.do(t, http.MethodGet, "/keywords/genre/mystery", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[ComicListResponse](t, w).Total)

	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/keywords/genre/western", nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/keywords/era", nil).Code)
}

func TestMatchKeywords(t *testing.T) {
	e := testEnv(t, false)

	w := e.do(t, http.MethodGet, "/keywords/match?k=genre:travel&k=genre:mystery", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[ComicListResponse](t, w)
	require.Len(t, resp.Comics, 1)
	assert.Equal(t, models.ComicID(1), resp.Comics[0].ID)

	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, "/keywords/match?k=travel", nil).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, "/keywords/match", nil).Code)
}

func TestSearch(t *testing.T) {
	e := testEnv(t, false)

	w := e.do(t, http.MethodGet, "/search?q=crossing", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[SearchResponse](t, w)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, models.ComicID(1), resp.Results[0].ID)

	w = e.do(t, http.MethodGet, "/search?q=zzzz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"results":[]}`, w.Body.String())

	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, "/search", nil).Code)
}

func TestProgressReadOnly(t *testing.T) {
	e := testEnv(t, false)

	w := e.do(t, http.MethodGet, "/comics/1/progress", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ProgressResponse{ID: 1}, decode[ProgressResponse](t, w))

	w = e.do(t, http.MethodPut, "/comics/1/progress", map[string]int{"chapter": 1, "page": 2})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestProgressUpdate(t *testing.T) {
	e := testEnv(t, true)

	w := e.do(t, http.MethodPut, "/comics/2/progress", map[string]int{"chapter": 0, "page": 0})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(t, http.MethodPut, "/comics/1/progress", map[string]int{"chapter": 2, "page": 0})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, ProgressResponse{ID: 1, Chapter: 2}, decode[ProgressResponse](t, w))

	w = e.do(t, http.MethodGet, "/comics/1/progress", nil)
	assert.Equal(t, ProgressResponse{ID: 1, Chapter: 2}, decode[ProgressResponse](t, w))

	w = e.do(t, http.MethodGet, "/progress", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"progress":[{"id":1,"chapter":2,"page":0},{"id":2,"chapter":0,"page":0}]}`, w.Body.String())

	saved, err := tracker.Open(e.trackerPath)
	require.NoError(t, err)
	assert.Equal(t, models.Progress{Chapter: 2}, saved.Get(1))
}

func TestProgressUpdateValidation(t *testing.T) {
	e := testEnv(t, true)

	cases := map[string]struct {
		target string
		body   string
		want   int
	}{
		"negative page":   {"/comics/1/progress", `{"chapter":0,"page":-1}`, http.StatusBadRequest},
		"missing chapter": {"/comics/1/progress", `{"page":1}`, http.StatusBadRequest},
		"not json":        {"/comics/1/progress", `chapter=1`, http.StatusBadRequest},
		"unknown comic":   {"/comics/99/progress", `{"chapter":0,"page":0}`, http.StatusNotFound},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			e.router.ServeHTTP(w, httptest.NewRequest(http.MethodPut, tc.target, strings.NewReader(tc.body)))
			assert.Equal(t, tc.want, w.Code, w.Body.String())
		})
	}
}
