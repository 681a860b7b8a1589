package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"path"

	"github.com/marblecomic/marble/internal/models"
	"github.com/marblecomic/marble/internal/parser"
	"github.com/marblecomic/marble/internal/storage"
)

// LoadDir opens root as a library and loads it.
func LoadDir(root string, logger *slog.Logger) (*Catalog, error) {
	lib, err := storage.NewFS(root)
	if err != nil {
		return nil, &LoadError{Kind: KindReadDir, Path: root, Err: err}
	}
	return Load(lib, logger)
}

// Load scans the immediate subdirectories of the library root for
// metadata files and registers every comic marked as found.
//
// Loading is all-or-nothing: the first I/O or decode failure aborts the
// load and no catalog is returned.
func Load(lib storage.Provider, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}
	entries, err := lib.ReadDir("")
	if err != nil {
		kind := KindReadDir
		var dirErr *storage.DirError
		if errors.As(err, &dirErr) && dirErr.Op == storage.OpRead {
			kind = KindReadEntry
		}
		return nil, &LoadError{Kind: kind, Path: lib.Root(), Err: err}
	}

	c := New()
	for _, d := range entries {
		dir := d.Name()
		isDir, err := entryIsDir(lib, d)
		if err != nil {
			return nil, &LoadError{Kind: KindReadEntry, Path: absPath(lib, dir), Err: err}
		}
		if !isDir {
			continue
		}

		metaPath := path.Join(dir, parser.MetadataFile)
		data, found, err := readMetadata(lib, metaPath)
		if err != nil {
			return nil, &LoadError{Kind: KindOpenFile, Path: absPath(lib, metaPath), Err: err}
		}
		if !found {
			logger.Debug("catalog: no metadata, skipping", slog.String("dir", dir))
			continue
		}

		var comic models.Comic
		if err := json.Unmarshal(data, &comic); err != nil {
			return nil, &LoadError{Kind: KindDecode, Path: absPath(lib, metaPath), Err: err}
		}
		if !comic.Found {
			logger.Debug("catalog: comic not found, skipping",
				slog.String("dir", dir), slog.Any("id", comic.ID))
			continue
		}
		if prev, dup := c.comics[comic.ID]; dup {
			logger.Error("catalog: duplicate comic id",
				slog.Any("id", comic.ID), slog.String("dir", dir), slog.String("first_dir", prev.Dir))
			return nil, &LoadError{Kind: KindDuplicateID, Path: absPath(lib, dir), ID: comic.ID}
		}

		c.add(Entry{Dir: dir, Checksum: fingerprint(data), Comic: comic})
		logger.Debug("catalog: registered comic",
			slog.Any("id", comic.ID), slog.String("dir", dir), slog.String("name", comic.DisplayName()))
	}

	logger.Info("catalog: loaded",
		slog.String("root", lib.Root()),
		slog.Int("comics", c.Len()),
		slog.Int("categories", len(c.keywords)))
	return c, nil
}

// entryIsDir reports whether d is a directory, resolving symlinks.
func entryIsDir(lib storage.Provider, d fs.DirEntry) (bool, error) {
	if d.IsDir() {
		return true, nil
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false, nil
	}
	info, err := lib.Stat(d.Name())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// Dangling link.
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}

// readMetadata returns the metadata bytes, or found=false when the file
// does not exist.
func readMetadata(lib storage.Provider, metaPath string) ([]byte, bool, error) {
	rc, err := lib.Open(metaPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// fingerprint is the hex SHA-256 of a metadata file. The search mirror
// compares it to skip unchanged comics.
func fingerprint(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

func absPath(lib storage.Provider, rel string) string {
	if abs, err := lib.Abs(rel); err == nil {
		return abs
	}
	return rel
}
