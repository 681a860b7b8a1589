// Package storage defines read access to the comic library on disk.
package storage

import (
	"io"
	"io/fs"
)

// Provider is the interface for library file operations. All paths are
// relative to the library root unless stated otherwise.
type Provider interface {
	// Root returns the absolute path of the library directory.
	Root() string
	// ReadDir lists the entries of dir. Failures are reported as *DirError.
	ReadDir(dir string) ([]fs.DirEntry, error)
	// Stat returns file info for path, following symlinks.
	Stat(path string) (fs.FileInfo, error)
	// Open opens path for reading.
	Open(path string) (io.ReadCloser, error)
	// Abs resolves path to an absolute path confined to the library root.
	Abs(path string) (string, error)
}
