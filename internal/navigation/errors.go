package navigation

import (
	"fmt"

	"github.com/marblecomic/marble/internal/apperr"
	"github.com/marblecomic/marble/internal/models"
	"github.com/marblecomic/marble/internal/parser"
)

// ErrorKind classifies a failed navigation resolve.
type ErrorKind int

const (
	KindReadDir ErrorKind = iota + 1
	KindReadEntry
	KindUnknownComic
	KindNoFileName
	KindNotText
	KindNoStem
	KindMissingToken
	KindBadToken
)

func (k ErrorKind) String() string {
	switch k {
	case KindReadDir:
		return "cannot read directory"
	case KindReadEntry:
		return "cannot read directory entry"
	case KindUnknownComic:
		return "unknown comic"
	case KindNoFileName:
		return "file has no name"
	case KindNotText:
		return "file name is not valid text"
	case KindNoStem:
		return "file name has no stem"
	case KindMissingToken:
		return "file name is missing a token"
	case KindBadToken:
		return "file name token is not an integer"
	default:
		return "navigation failed"
	}
}

// Error is returned by Resolve. Path is the offending file or directory;
// Token and Value locate the bad part of a page name.
type Error struct {
	Kind  ErrorKind
	ID    models.ComicID
	Path  string
	Token int
	Value string
	Err   error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindUnknownComic:
		return fmt.Sprintf("navigation: %s %d", e.Kind, e.ID)
	case KindMissingToken:
		return fmt.Sprintf("navigation: %s %d: %s", e.Kind, e.Token, e.Path)
	case KindBadToken:
		return fmt.Sprintf("navigation: %s (token %d %q): %s", e.Kind, e.Token, e.Value, e.Path)
	}
	if e.Err != nil {
		return fmt.Sprintf("navigation: %s: %s: %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("navigation: %s: %s", e.Kind, e.Path)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets callers match an unknown comic with apperr.ErrNotFound.
func (e *Error) Is(target error) bool {
	return target == apperr.ErrNotFound && e.Kind == KindUnknownComic
}

var nameKinds = map[parser.ErrorKind]ErrorKind{
	parser.KindNoFileName:   KindNoFileName,
	parser.KindNotText:      KindNotText,
	parser.KindNoStem:       KindNoStem,
	parser.KindMissingToken: KindMissingToken,
	parser.KindBadToken:     KindBadToken,
}

func fromNameError(id models.ComicID, path string, ne *parser.NameError) *Error {
	return &Error{
		Kind:  nameKinds[ne.Kind],
		ID:    id,
		Path:  path,
		Token: ne.Token,
		Value: ne.Value,
		Err:   ne,
	}
}
