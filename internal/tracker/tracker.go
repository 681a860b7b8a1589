// Package tracker remembers the last reading position of each comic and
// persists it as a single JSON file.
package tracker

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"slices"
	"sync"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/marblecomic/marble/internal/models"
)

// Tracker is a concurrency-safe map from comic id to reading position.
// The in-memory map is authoritative; Save exports it.
type Tracker struct {
	mu   sync.Mutex
	data map[models.ComicID]models.Progress
}

// New returns an empty tracker.
func New() *Tracker {
	return &Tracker{data: make(map[models.ComicID]models.Progress)}
}

// Load decodes a progress file of the form {"<id>": [chapter, page], ...}.
// The whole input must be one JSON object.
func Load(r io.Reader) (*Tracker, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	var data map[models.ComicID]models.Progress
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if data == nil {
		return nil, &DecodeError{Err: errors.New("expected an object, got null")}
	}
	return &Tracker{data: data}, nil
}

// Open loads the progress file at path. A missing file yields an empty
// tracker.
func Open(path string) (*Tracker, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("tracker: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Get returns the stored position, or the start of the comic.
func (t *Tracker) Get(id models.ComicID) models.Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.data[id]
}

// Set overwrites the position of a comic. Negative indices are rejected
// with an error wrapping models.ErrNegativePosition and leave the map as is.
func (t *Tracker) Set(id models.ComicID, chapter, page int) error {
	p := models.Progress{Chapter: chapter, Page: page}
	if !p.Valid() {
		return fmt.Errorf("tracker: comic %d: %w [%d, %d]", id, models.ErrNegativePosition, chapter, page)
	}
	t.mu.Lock()
	t.data[id] = p
	t.mu.Unlock()
	return nil
}

// ProgressFor returns the comic's own position, else the position of the
// first translation that has one, else the start.
func (t *Tracker) ProgressFor(c models.Comic) models.Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p, ok := t.data[c.ID]; ok {
		return p
	}
	for _, tr := range c.Translations {
		if p, ok := t.data[tr.ID]; ok {
			return p
		}
	}
	return models.Progress{}
}

// IDs returns the comics with a stored position, in ascending order.
func (t *Tracker) IDs() []models.ComicID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.SortedFunc(maps.Keys(t.data), cmp.Compare[models.ComicID])
}

// Save writes the whole map to path. The content goes to a temporary
// sibling first and is renamed over path, so readers never observe a
// partially written file. A lock file next to path serialises savers
// across processes.
func (t *Tracker) Save(path string) error {
	err := t.save(path)
	if err != nil {
		saves.WithLabelValues("error").Inc()
	} else {
		saves.WithLabelValues("ok").Inc()
	}
	return err
}

func (t *Tracker) save(path string) error {
	lockPath := path + ".lock"
	// A missing or read-only directory fails here.
	lf, err := os.OpenFile(lockPath, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return &SaveError{Kind: KindCreate, Path: path, Err: err}
	}
	_ = lf.Close()

	lock := flock.New(lockPath)
	if err := lock.Lock(); err != nil {
		return &SaveError{Kind: KindLock, Path: path, Err: err}
	}
	defer func() { _ = lock.Unlock() }()

	// Snapshot under the file lock: the last writer carries the newest state.
	t.mu.Lock()
	payload, err := json.MarshalIndent(t.data, "", "  ")
	t.mu.Unlock()
	if err != nil {
		return &SaveError{Kind: KindWrite, Path: path, Err: err}
	}

	tmpName := path + "." + uuid.NewString() + ".tmp"
	tmp, err := os.OpenFile(tmpName, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return &SaveError{Kind: KindCreate, Path: path, Err: err}
	}

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(payload); err != nil {
		return &SaveError{Kind: KindWrite, Path: path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		return &SaveError{Kind: KindWrite, Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &SaveError{Kind: KindWrite, Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		return &SaveError{Kind: KindReplace, Path: path, Err: err}
	}
	success = true
	return nil
}
