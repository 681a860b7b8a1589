package catalog

import (
	"fmt"

	"github.com/marblecomic/marble/internal/models"
)

// LoadErrorKind classifies why a library load was aborted.
type LoadErrorKind int

const (
	// KindReadDir: the library root could not be listed.
	KindReadDir LoadErrorKind = iota + 1
	// KindReadEntry: an entry of the library root could not be read.
	KindReadEntry
	// KindOpenFile: a metadata file exists but could not be opened or read.
	KindOpenFile
	// KindDecode: a metadata file is not a valid comic record.
	KindDecode
	// KindDuplicateID: two found comics share an id.
	KindDuplicateID
)

func (k LoadErrorKind) String() string {
	switch k {
	case KindReadDir:
		return "failed to list sub content of"
	case KindReadEntry:
		return "failed to read an entry of the directory"
	case KindOpenFile:
		return "failed to open file at"
	case KindDecode:
		return "failed to deserialize a comic data file at"
	case KindDuplicateID:
		return "duplicate comic id in"
	default:
		return "load failed at"
	}
}

// LoadError aborts a whole library load.
type LoadError struct {
	Kind LoadErrorKind
	Path string
	ID   models.ComicID // set for KindDuplicateID
	Err  error
}

func (e *LoadError) Error() string {
	if e.Kind == KindDuplicateID {
		return fmt.Sprintf("catalog: %s %s: id %d", e.Kind, e.Path, e.ID)
	}
	if e.Err == nil {
		return fmt.Sprintf("catalog: %s %s", e.Kind, e.Path)
	}
	return fmt.Sprintf("catalog: %s %s: %v", e.Kind, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
