package tracker

import "fmt"

// DecodeError reports a malformed progress file.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("tracker: can't decode reading progress: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// SaveErrorKind classifies a failed Save.
type SaveErrorKind int

const (
	// KindCreate: the file to be written could not be created.
	KindCreate SaveErrorKind = iota + 1
	// KindWrite: writing, syncing or closing the file failed.
	KindWrite
	// KindReplace: the written file could not be moved over the destination.
	KindReplace
	// KindLock: the save lock could not be acquired.
	KindLock
)

func (k SaveErrorKind) String() string {
	switch k {
	case KindCreate:
		return "can't create the file to be saved to"
	case KindWrite:
		return "can't write to the file"
	case KindReplace:
		return "can't replace the file"
	case KindLock:
		return "can't lock the file"
	default:
		return "can't save"
	}
}

// SaveError is returned by Save with the path it was saving to.
type SaveError struct {
	Kind SaveErrorKind
	Path string
	Err  error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("tracker: %s %s: %v", e.Kind, e.Path, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }
