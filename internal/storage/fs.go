package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// readDirBatch bounds how many entries are pulled per ReadDir call, so a
// failure part-way through a directory is distinguishable from a failure
// to open it.
const readDirBatch = 256

// DirOp names the stage of a directory listing that failed.
type DirOp string

const (
	// OpOpen means the directory itself could not be opened.
	OpOpen DirOp = "open"
	// OpRead means the directory opened but an entry could not be read.
	OpRead DirOp = "read"
)

// DirError reports a failed directory listing.
type DirError struct {
	Op   DirOp
	Path string
	Err  error
}

func (e *DirError) Error() string {
	return fmt.Sprintf("storage: %s dir %s: %v", e.Op, e.Path, e.Err)
}

func (e *DirError) Unwrap() error { return e.Err }

// FS implements Provider backed by the local file system.
type FS struct {
	root string // absolute path to library directory
}

// NewFS creates a new FS provider rooted at the given directory.
// The directory must already exist.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute library root.
func (f *FS) Root() string { return f.root }

// safePath resolves a relative path against the library root and rejects
// any result that escapes it (directory traversal).
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", rel)
	}
	joined := filepath.Join(f.root, cleaned)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	// Ensure the resolved path is still under root.
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("storage: path escapes library root: %s", rel)
	}
	return abs, nil
}

// Abs returns the absolute path of rel inside the library.
func (f *FS) Abs(rel string) (string, error) {
	return f.safePath(rel)
}

// ReadDir lists dir in batches and returns every entry in enumeration
// order. The order is whatever the file system yields; it is not sorted.
func (f *FS) ReadDir(dir string) ([]fs.DirEntry, error) {
	abs, err := f.safePath(dir)
	if err != nil {
		return nil, &DirError{Op: OpOpen, Path: dir, Err: err}
	}
	d, err := os.Open(abs)
	if err != nil {
		return nil, &DirError{Op: OpOpen, Path: abs, Err: err}
	}
	defer d.Close()

	var out []fs.DirEntry
	for {
		batch, err := d.ReadDir(readDirBatch)
		out = append(out, batch...)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			if len(out) == 0 {
				// Reading a non-directory fails on the first batch.
				return nil, &DirError{Op: OpOpen, Path: abs, Err: err}
			}
			return nil, &DirError{Op: OpRead, Path: abs, Err: err}
		}
	}
}

// Stat returns file info for a library path.
func (f *FS) Stat(path string) (fs.FileInfo, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat %s: %w", path, err)
	}
	return info, nil
}

// Open opens a library file for reading.
func (f *FS) Open(path string) (io.ReadCloser, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	return file, nil
}

// Verify *FS satisfies Provider at compile time.
var _ Provider = (*FS)(nil)
