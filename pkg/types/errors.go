// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies recoverable per-file failures. Fatal conditions
// (missing credential, client construction, unlistable directory) abort the
// whole run and are plain errors rather than kinds.
type ErrorKind string

const (
	// ErrLocalIO covers unreadable source files.
	ErrLocalIO ErrorKind = "local_io"

	// ErrRemoteService covers failed upload, signed-URL, and OCR calls,
	// including malformed responses.
	ErrRemoteService ErrorKind = "remote_service"

	// ErrWrite covers Markdown output that could not be persisted.
	ErrWrite ErrorKind = "write"
)

// FileError is a per-file failure carrying its classification. The batch
// loop counts it and continues with the next candidate.
type FileError struct {
	File string
	Kind ErrorKind
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.File, e.Kind, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// NewFileError wraps err with a file name and kind.
func NewFileError(file string, kind ErrorKind, err error) *FileError {
	return &FileError{File: file, Kind: kind, Err: err}
}

// KindOf returns the ErrorKind carried by err, or the empty string when err
// does not wrap a FileError.
func KindOf(err error) ErrorKind {
	var fe *FileError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
