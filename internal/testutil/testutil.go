// Package testutil provides shared test helpers for building comic libraries on disk.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/marblecomic/marble/internal/models"
)

// Ptr returns a pointer to v, for optional record fields.
func Ptr[T any](v T) *T { return &v }

// TestLibrary creates an empty temporary library directory.
func TestLibrary(t *testing.T) string {
	t.Helper()
	return t.TempDir()
}

// WriteComic writes comic as dir/data.json under root and creates an empty
// file for each page name. It returns the comic directory.
func WriteComic(t *testing.T, root, dir string, comic models.Comic, pages ...string) string {
	t.Helper()
	if comic.Keywords == nil {
		comic.Keywords = map[string][]string{}
	}
	if comic.Translations == nil {
		comic.Translations = []models.Translation{}
	}
	data, err := json.Marshal(comic)
	if err != nil {
		t.Fatal(err)
	}
	WriteFile(t, root, filepath.Join(dir, "data.json"), string(data))
	for _, p := range pages {
		WriteFile(t, root, filepath.Join(dir, p), "page "+p)
	}
	return filepath.Join(root, dir)
}

// WriteFile writes content at rel under root, creating parent directories.
func WriteFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	p := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

// Found returns a minimal found comic with the given id and name.
func Found(id models.ComicID, name string) models.Comic {
	return models.Comic{
		ID:           id,
		Name:         Ptr(name),
		Keywords:     map[string][]string{},
		Translations: []models.Translation{},
		Found:        true,
	}
}
