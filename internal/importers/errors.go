package importers

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDocument means the file cannot be parsed as a bookmark document at all.
	ErrInvalidDocument = errors.New("invalid bookmark document")
	// ErrUnrecognizedFormat means no known export signature was found.
	ErrUnrecognizedFormat = errors.New("unrecognized bookmark file format")
	// ErrUnsupportedExtension means the file name does not end in an accepted extension.
	ErrUnsupportedExtension = errors.New("unsupported file extension")
	// ErrEmptyFile means the upload has no content.
	ErrEmptyFile = errors.New("file is empty")
	// ErrFileTooLarge means the upload exceeds the configured limit.
	ErrFileTooLarge = errors.New("file is too large")
	// ErrUnknownFormat means a format tag outside the supported set was requested.
	ErrUnknownFormat = errors.New("unknown import format")
	// ErrFormatMismatch means the requested format belongs to another file family.
	ErrFormatMismatch = errors.New("format does not match file content")
)

// ValidationError rejects an upload before any job exists.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ParseError describes one malformed entry inside an otherwise valid document.
// It is recorded against the job and never aborts it.
type ParseError struct {
	Line    int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	msg := e.Message
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, msg)
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// StorageError is a persistence failure. It ends the job as failed.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
