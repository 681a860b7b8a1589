package navigation

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marblecomic/marble/internal/apperr"
	"github.com/marblecomic/marble/internal/catalog"
	"github.com/marblecomic/marble/internal/models"
	"github.com/marblecomic/marble/internal/parser"
	"github.com/marblecomic/marble/internal/storage"
	"github.com/marblecomic/marble/internal/testutil"
)

// countingFS records how many directory scans reach the file system.
type countingFS struct {
	storage.Provider
	scans atomic.Int32
}

func (c *countingFS) ReadDir(dir string) ([]fs.DirEntry, error) {
	c.scans.Add(1)
	return c.Provider.ReadDir(dir)
}

func setup(t *testing.T, pages map[string][]string) (string, *countingFS, *Resolver) {
	t.Helper()
	root := testutil.TestLibrary(t)
	id := models.ComicID(1)
	for dir, names := range pages {
		testutil.WriteComic(t, root, dir, testutil.Found(id, dir), names...)
		id++
	}
	lib, err := storage.NewFS(root)
	require.NoError(t, err)
	cat, err := catalog.Load(lib, nil)
	require.NoError(t, err)
	counting := &countingFS{Provider: lib}
	return lib.Root(), counting, NewResolver(counting, cat, nil)
}

func TestResolveBuildsMatrix(t *testing.T) {
	root, _, r := setup(t, map[string][]string{
		"c": {"1-1.jpg", "0-0.png", "0-1.png", "1-0.jpg", "2-3.webp"},
	})
	dir := filepath.Join(root, "c")

	m, err := r.Resolve(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, Matrix{
		{filepath.Join(dir, "0-0.png"), filepath.Join(dir, "0-1.png")},
		{filepath.Join(dir, "1-0.jpg"), filepath.Join(dir, "1-1.jpg")},
		{"", "", "", filepath.Join(dir, "2-3.webp")},
	}, m)
}

func TestResolveFillsGaps(t *testing.T) {
	root, _, r := setup(t, map[string][]string{"c": {"0-0.x", "0-2.x"}})
	dir := filepath.Join(root, "c")

	m, err := r.Resolve(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, m, 1)
	require.Len(t, m[0], 3)
	assert.Equal(t, filepath.Join(dir, "0-0.x"), m[0][0])
	assert.Equal(t, "", m[0][1])
	assert.Equal(t, filepath.Join(dir, "0-2.x"), m[0][2])

	_, ok := m.Page(0, 1)
	assert.False(t, ok)
}

func TestResolveMissingChapterIsEmpty(t *testing.T) {
	_, _, r := setup(t, map[string][]string{"c": {"0-0.png", "2-0.png"}})

	m, err := r.Resolve(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 3, m.Chapters())
	assert.NotNil(t, m[1])
	assert.Empty(t, m[1])
}

func TestResolveSkipsReservedNames(t *testing.T) {
	root, _, r := setup(t, map[string][]string{
		"c": {"0-0.png", "0-1.png.tmp", "weird name.tmp", "3-3.tmp"},
	})

	m, err := r.Resolve(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, Matrix{{filepath.Join(root, "c", "0-0.png")}}, m)
	for _, ch := range m {
		for _, p := range ch {
			assert.NotEqual(t, parser.MetadataFile, filepath.Base(p))
		}
	}
}

func TestResolveIsMemoized(t *testing.T) {
	root, counting, r := setup(t, map[string][]string{"c": {"0-0.png", "0-1.png"}})
	ctx := context.Background()

	first, err := r.Resolve(ctx, 1)
	require.NoError(t, err)

	// Deleting the files must not affect the cached result.
	require.NoError(t, os.Remove(filepath.Join(root, "c", "0-1.png")))
	testutil.WriteFile(t, root, "c/5-5.png", "new")

	second, err := r.Resolve(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), counting.scans.Load())
}

func TestResolveReturnsCopies(t *testing.T) {
	_, _, r := setup(t, map[string][]string{"c": {"0-0.png"}})
	ctx := context.Background()

	m, err := r.Resolve(ctx, 1)
	require.NoError(t, err)
	m[0][0] = "tampered"

	again, err := r.Resolve(ctx, 1)
	require.NoError(t, err)
	assert.NotEqual(t, "tampered", again[0][0])
}

func TestResolveConcurrentMissesScanOnce(t *testing.T) {
	_, counting, r := setup(t, map[string][]string{"c": {"0-0.png", "1-0.png"}})
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]Matrix, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := r.Resolve(ctx, 1)
			assert.NoError(t, err)
			results[i] = m
		}(i)
	}
	wg.Wait()

	for _, m := range results {
		assert.Equal(t, results[0], m)
	}
	assert.Equal(t, int32(1), counting.scans.Load())
}

func TestResolveUnknownComic(t *testing.T) {
	_, _, r := setup(t, map[string][]string{"c": {"0-0.png"}})

	_, err := r.Resolve(context.Background(), 404)
	var navErr *Error
	require.True(t, errors.As(err, &navErr))
	assert.Equal(t, KindUnknownComic, navErr.Kind)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestResolveBadNames(t *testing.T) {
	cases := []struct {
		file  string
		kind  ErrorKind
		token int
		value string
	}{
		{"cover.png", KindMissingToken, 1, ""},
		{".DS_Store", KindNoStem, 0, ""},
		{"a-1.png", KindBadToken, 0, "a"},
		{"1-b.png", KindBadToken, 1, "b"},
	}
	for _, c := range cases {
		t.Run(c.file, func(t *testing.T) {
			root, _, r := setup(t, map[string][]string{"c": {"0-0.png", c.file}})

			_, err := r.Resolve(context.Background(), 1)
			var navErr *Error
			require.True(t, errors.As(err, &navErr), "want *Error, got %v", err)
			assert.Equal(t, c.kind, navErr.Kind)
			assert.Equal(t, c.token, navErr.Token)
			assert.Equal(t, c.value, navErr.Value)
			assert.Equal(t, filepath.Join(root, "c", c.file), navErr.Path)
			assert.NotErrorIs(t, err, apperr.ErrNotFound)
		})
	}
}

func TestResolveFailureIsNotCached(t *testing.T) {
	root, counting, r := setup(t, map[string][]string{"c": {"0-0.png", "oops.png"}})
	ctx := context.Background()

	_, err := r.Resolve(ctx, 1)
	require.Error(t, err)

	require.NoError(t, os.Remove(filepath.Join(root, "c", "oops.png")))
	m, err := r.Resolve(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, m, 1)
	assert.Equal(t, int32(2), counting.scans.Load())
}

func TestResolveDirectoryGone(t *testing.T) {
	root, _, r := setup(t, map[string][]string{"c": {"0-0.png"}})
	require.NoError(t, os.RemoveAll(filepath.Join(root, "c")))

	_, err := r.Resolve(context.Background(), 1)
	var navErr *Error
	require.True(t, errors.As(err, &navErr))
	assert.Equal(t, KindReadDir, navErr.Kind)
	assert.Equal(t, filepath.Join(root, "c"), navErr.Path)
}

func TestResolveCancelledContext(t *testing.T) {
	_, counting, r := setup(t, map[string][]string{"c": {"0-0.png"}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Resolve(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), counting.scans.Load())
}

func TestChapterAndPage(t *testing.T) {
	root, _, r := setup(t, map[string][]string{"c": {"0-0.png", "0-2.png"}})
	ctx := context.Background()

	pages, err := r.Chapter(ctx, 1, 0)
	require.NoError(t, err)
	assert.Len(t, pages, 3)

	_, err = r.Chapter(ctx, 1, 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	p, err := r.Page(ctx, 1, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "c", "0-2.png"), p)

	_, err = r.Page(ctx, 1, 0, 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = r.Page(ctx, 1, 0, 9)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
