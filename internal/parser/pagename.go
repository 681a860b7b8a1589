// Package parser implements the page filename grammar of a comic directory:
//
//	<chapter>-<page>[.<extension>...]
//
// where chapter and page are base-10 non-negative integers.
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// MetadataFile is the reserved name of a comic's metadata record.
	MetadataFile = "data.json"
	// TempExtension marks partially written files that must be ignored.
	TempExtension = "tmp"
	// Delimiter separates the chapter token from the page token.
	Delimiter = "-"
	// MaxIndex is the largest chapter or page number accepted. The
	// navigation matrix is dense, so the bound caps its allocation.
	MaxIndex = 1 << 16
)

// ErrIndexTooLarge is wrapped by a BadToken error whose value exceeds MaxIndex.
var ErrIndexTooLarge = fmt.Errorf("index exceeds %d", MaxIndex)

// ErrorKind classifies a page name that does not follow the grammar.
type ErrorKind int

const (
	KindNoFileName ErrorKind = iota + 1
	KindNotText
	KindNoStem
	KindMissingToken
	KindBadToken
)

func (k ErrorKind) String() string {
	switch k {
	case KindNoFileName:
		return "no file name"
	case KindNotText:
		return "name is not valid text"
	case KindNoStem:
		return "no file stem"
	case KindMissingToken:
		return "missing token"
	case KindBadToken:
		return "token is not an integer"
	default:
		return "unknown"
	}
}

// NameError reports why a file name could not be parsed.
type NameError struct {
	Kind  ErrorKind
	Name  string
	Token int    // 0 for the chapter token, 1 for the page token
	Value string // offending substring for KindBadToken
	Err   error
}

func (e *NameError) Error() string {
	switch e.Kind {
	case KindMissingToken:
		return fmt.Sprintf("parser: %q: %s %d", e.Name, e.Kind, e.Token)
	case KindBadToken:
		return fmt.Sprintf("parser: %q: token %d %q: %v", e.Name, e.Token, e.Value, e.Err)
	default:
		return fmt.Sprintf("parser: %q: %s", e.Name, e.Kind)
	}
}

func (e *NameError) Unwrap() error { return e.Err }

// PageRef is the position a page file occupies in its comic.
type PageRef struct {
	Chapter int
	Page    int
}

// Ignored reports whether a directory entry is not a page at all: the
// metadata record, or a temporary file.
func Ignored(name string) bool {
	if name == MetadataFile {
		return true
	}
	i := strings.LastIndex(name, ".")
	return i >= 0 && name[i+1:] == TempExtension
}

// Stem returns the part of name before its first dot.
func Stem(name string) string {
	stem, _, _ := strings.Cut(name, ".")
	return stem
}

// ParsePageName parses a page file name such as "3-12.png" into its
// chapter and page numbers.
func ParsePageName(name string) (PageRef, error) {
	if name == "" {
		return PageRef{}, &NameError{Kind: KindNoFileName, Name: name}
	}
	if !utf8.ValidString(name) {
		return PageRef{}, &NameError{Kind: KindNotText, Name: name}
	}
	stem := Stem(name)
	if stem == "" {
		return PageRef{}, &NameError{Kind: KindNoStem, Name: name}
	}

	first, second, ok := strings.Cut(stem, Delimiter)
	if first == "" {
		return PageRef{}, &NameError{Kind: KindMissingToken, Name: name, Token: 0}
	}
	if !ok || second == "" {
		return PageRef{}, &NameError{Kind: KindMissingToken, Name: name, Token: 1}
	}

	chapter, err := parseIndex(name, 0, first)
	if err != nil {
		return PageRef{}, err
	}
	page, err := parseIndex(name, 1, second)
	if err != nil {
		return PageRef{}, err
	}
	return PageRef{Chapter: chapter, Page: page}, nil
}

func parseIndex(name string, token int, value string) (int, error) {
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) {
			err = numErr.Err
		}
		return 0, &NameError{Kind: KindBadToken, Name: name, Token: token, Value: value, Err: err}
	}
	if n > MaxIndex {
		return 0, &NameError{Kind: KindBadToken, Name: name, Token: token, Value: value, Err: ErrIndexTooLarge}
	}
	return int(n), nil
}
