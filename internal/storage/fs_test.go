package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempLibrary(t *testing.T) (string, *FS) {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	require.NoError(t, err)
	return dir, fs
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestOpenAndRead(t *testing.T) {
	dir, s := tempLibrary(t)
	writeFile(t, filepath.Join(dir, "a", "data.json"), `{"id":1}`)

	rc, err := s.Open("a/data.json")
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, `{"id":1}`, string(got))
}

func TestReadDirListsEveryEntry(t *testing.T) {
	dir, s := tempLibrary(t)
	// More entries than one batch to exercise the batching loop.
	for i := 0; i < readDirBatch+10; i++ {
		writeFile(t, filepath.Join(dir, "big", fmt.Sprintf("0-%d.png", i)), "x")
	}

	entries, err := s.ReadDir("big")
	require.NoError(t, err)
	assert.Len(t, entries, readDirBatch+10)
}

func TestReadDirEmpty(t *testing.T) {
	dir, s := tempLibrary(t)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "empty"), 0o755))

	entries, err := s.ReadDir("empty")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReadDirMissing(t *testing.T) {
	_, s := tempLibrary(t)

	_, err := s.ReadDir("nope")
	var dirErr *DirError
	require.True(t, errors.As(err, &dirErr), "want *DirError, got %T", err)
	assert.Equal(t, OpOpen, dirErr.Op)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadDirOnFile(t *testing.T) {
	dir, s := tempLibrary(t)
	writeFile(t, filepath.Join(dir, "plain.txt"), "x")

	_, err := s.ReadDir("plain.txt")
	var dirErr *DirError
	require.True(t, errors.As(err, &dirErr))
	assert.Equal(t, OpOpen, dirErr.Op)
}

func TestStatFollowsPath(t *testing.T) {
	dir, s := tempLibrary(t)
	writeFile(t, filepath.Join(dir, "c", "0-0.png"), "img")

	info, err := s.Stat("c/0-0.png")
	require.NoError(t, err)
	assert.Equal(t, int64(3), info.Size())

	_, err = s.Stat("c/missing.png")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestAbs(t *testing.T) {
	dir, s := tempLibrary(t)
	root, err := filepath.Abs(dir)
	require.NoError(t, err)

	got, err := s.Abs("x/0-1.png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "x", "0-1.png"), got)

	got, err = s.Abs("")
	require.NoError(t, err)
	assert.Equal(t, s.Root(), got)
}

func TestTraversalBlocked(t *testing.T) {
	_, s := tempLibrary(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.json",
		"/etc/shadow",
	}
	for _, p := range cases {
		_, err := s.Open(p)
		assert.Error(t, err, "open %q", p)
		_, err = s.Abs(p)
		assert.Error(t, err, "abs %q", p)
		_, err = s.ReadDir(p)
		assert.Error(t, err, "readdir %q", p)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "marble-does-not-exist"))
	assert.Error(t, err)
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "marble-test-*")
	require.NoError(t, err)
	_ = f.Close()

	_, err = NewFS(f.Name())
	assert.Error(t, err)
}
