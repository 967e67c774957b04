package core

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned by the HTTP layer when a request carries no CSV data.
var ErrEmptyInput = errors.New("empty file")

// IOError reports a failure to open, read, create or write a file.
type IOError struct {
	Op   string // "open", "read", "create", "write", "close"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("io error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// DecodeError reports input bytes that are not valid UTF-8.
type DecodeError struct {
	Offset int64 // byte offset of the first invalid sequence, counted after a leading BOM
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("encoding error: invalid UTF-8 at byte %d", e.Offset)
}

// MalformedRowError reports a row with more fields than the header.
// Only returned under ExtraFieldsStrict.
type MalformedRowError struct {
	Line int // 1-based line where the row starts
	Got  int
	Want int
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("malformed row: line %d has %d fields, header has %d", e.Line, e.Got, e.Want)
}

// ParseError wraps a CSV syntax error such as an unterminated quoted field.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid csv: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
