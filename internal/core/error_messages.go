// Package core provides the CSV to JSON conversion logic.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. The HTTP API returns them alongside the technical error and the
// CLI prints them after a failed conversion.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: Request body exceeds UPLOAD_MAX_FILE_SIZE
//	          Action: Split the file or convert it with the CLI
//	          Patterns: "request body too large"
//
//	FILE002 - Invalid CSV: Quoting is broken somewhere in the file
//	          Action: Check for unbalanced or stray double quotes
//	          Patterns: "invalid csv"
//
//	FILE003 - Encoding error: File is not valid UTF-8
//	          Action: Save file as UTF-8 encoding
//	          Patterns: "encoding error"
//
//	FILE004 - Not found: Input file does not exist
//	          Action: Check the input path
//	          Patterns: "no such file or directory", "cannot find the"
//
//	FILE005 - Empty file: No CSV data was provided
//	          Action: Send a CSV file with a header row
//	          Patterns: "empty file"
//
//	FILE006 - Permission denied: File cannot be opened or created
//	          Action: Check file and directory permissions
//	          Patterns: "permission denied"
//
// # Conversion Errors (CONV001-CONV099)
//
//	CONV001 - Malformed row: Row has more fields than the header (strict mode)
//	          Action: Fix the row or set CONVERT_EXTRA_FIELDS=drop
//	          Patterns: "malformed row"
//
//	CONV002 - I/O failure: Reading or writing a file failed
//	          Action: Check the paths and available disk space
//	          Patterns: "io error"
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Request cancelled
//	         Patterns: "context canceled"
//
//	REQ002 - Request timeout
//	         Patterns: "context deadline exceeded"
//
//	REQ003 - Server busy: All conversion slots are taken
//	         Patterns: "too many concurrent conversions"
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//
// Errors produced by this package are classified by type first, so a file
// path that happens to contain a pattern cannot change the code. An IOError
// is classified by its cause. Untyped errors fall back to the patterns, which
// are matched case-insensitively using strings.Contains. The first matching
// pattern wins, so more specific patterns are listed first.
package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// Messages by code.
var (
	msgTooLarge = UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Split the file or convert it with the CLI",
		Code:    "FILE001",
	}
	msgInvalidCSV = UserMessage{
		Message: "File is not a valid CSV",
		Action:  "Check for unbalanced or stray double quotes",
		Code:    "FILE002",
	}
	msgEncoding = UserMessage{
		Message: "File contains invalid characters",
		Action:  "Save file as UTF-8 encoding",
		Code:    "FILE003",
	}
	msgNotFound = UserMessage{
		Message: "File or directory does not exist",
		Action:  "Check the input path and that the output directory exists",
		Code:    "FILE004",
	}
	msgEmpty = UserMessage{
		Message: "No CSV data was provided",
		Action:  "Send a CSV file with a header row",
		Code:    "FILE005",
	}
	msgPermission = UserMessage{
		Message: "File cannot be opened or created",
		Action:  "Check file and directory permissions",
		Code:    "FILE006",
	}
	msgMalformedRow = UserMessage{
		Message: "A row has more fields than the header",
		Action:  "Fix the row or set CONVERT_EXTRA_FIELDS=drop",
		Code:    "CONV001",
	}
	msgIO = UserMessage{
		Message: "Reading or writing a file failed",
		Action:  "Check the paths and available disk space",
		Code:    "CONV002",
	}
	msgCancelled = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "REQ001",
	}
	msgTimeout = UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or convert it with the CLI",
		Code:    "REQ002",
	}
	msgBusy = UserMessage{
		Message: "Server is busy",
		Action:  "Wait a moment and try again",
		Code:    "REQ003",
	}
)

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// They only apply to errors that classifyError does not recognise.
var errorPatterns = []errorPattern{
	// =========================================================================
	// File Errors (FILE001-FILE006)
	// =========================================================================
	{pattern: "request body too large", msg: msgTooLarge},
	{pattern: "invalid csv", msg: msgInvalidCSV},
	{pattern: "encoding error", msg: msgEncoding},
	{pattern: "no such file or directory", msg: msgNotFound},
	{pattern: "cannot find the", msg: msgNotFound},
	{pattern: "empty file", msg: msgEmpty},
	{pattern: "permission denied", msg: msgPermission},

	// =========================================================================
	// Conversion Errors (CONV001-CONV002)
	// =========================================================================
	{pattern: "malformed row", msg: msgMalformedRow},
	{pattern: "io error", msg: msgIO},

	// =========================================================================
	// Request Errors (REQ001-REQ003)
	// =========================================================================
	{pattern: "context canceled", msg: msgCancelled},
	{pattern: "context deadline exceeded", msg: msgTimeout},
	{pattern: "too many concurrent conversions", msg: msgBusy},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or check the logs",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Known error types are classified first. Anything else gets the first
// matching pattern, or the ERR000 fallback.
//
// Example:
//
//	err := &DecodeError{Offset: 12}
//	msg := MapError(err)
//	// msg.Code == "FILE003"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	if msg, ok := classifyError(err); ok {
		return msg
	}
	return matchPattern(err.Error())
}

// classifyError maps the error types returned by this package and by
// http.MaxBytesReader. The most specific cause is checked first.
func classifyError(err error) (UserMessage, bool) {
	var (
		maxBytesErr *http.MaxBytesError
		decodeErr   *DecodeError
		parseErr    *ParseError
		rowErr      *MalformedRowError
		ioErr       *IOError
	)

	switch {
	case errors.As(err, &maxBytesErr):
		return msgTooLarge, true
	case errors.Is(err, ErrEmptyInput):
		return msgEmpty, true
	case errors.As(err, &decodeErr):
		return msgEncoding, true
	case errors.As(err, &parseErr):
		return msgInvalidCSV, true
	case errors.As(err, &rowErr):
		return msgMalformedRow, true
	case errors.Is(err, ErrTooManyConversions):
		return msgBusy, true
	case errors.Is(err, context.DeadlineExceeded):
		return msgTimeout, true
	case errors.Is(err, context.Canceled):
		return msgCancelled, true
	case errors.As(err, &ioErr):
		return classifyIOError(ioErr), true
	}
	return UserMessage{}, false
}

// classifyIOError looks only at the cause, never at the path.
func classifyIOError(e *IOError) UserMessage {
	switch {
	case errors.Is(e.Err, fs.ErrNotExist):
		return msgNotFound
	case errors.Is(e.Err, fs.ErrPermission):
		return msgPermission
	case e.Err == nil:
		return msgIO
	}
	if msg := matchPattern(e.Err.Error()); msg.Code != defaultMessage.Code {
		return msg
	}
	return msgIO
}

func matchPattern(text string) UserMessage {
	errStr := strings.ToLower(text)
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
