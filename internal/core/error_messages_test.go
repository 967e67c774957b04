package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "missing input file",
			err:         &IOError{Op: "open", Path: "in.csv", Err: &os.PathError{Op: "open", Path: "in.csv", Err: errors.New("no such file or directory")}},
			wantCode:    "FILE004",
			wantMessage: "File or directory does not exist",
		},
		{
			name:        "permission denied on create",
			err:         &IOError{Op: "create", Path: "out.json", Err: errors.New("permission denied")},
			wantCode:    "FILE006",
			wantMessage: "File cannot be opened or created",
		},
		{
			name:        "generic io error",
			err:         &IOError{Op: "write", Path: "out.json", Err: errors.New("no space left on device")},
			wantCode:    "CONV002",
			wantMessage: "Reading or writing a file failed",
		},
		{
			name:        "decode error",
			err:         fmt.Errorf("convert in.csv: %w", &DecodeError{Offset: 12}),
			wantCode:    "FILE003",
			wantMessage: "File contains invalid characters",
		},
		{
			name:        "parse error",
			err:         &ParseError{Err: errors.New(`bare " in non-quoted-field`)},
			wantCode:    "FILE002",
			wantMessage: "File is not a valid CSV",
		},
		{
			name:        "malformed row",
			err:         &MalformedRowError{Line: 3, Got: 4, Want: 3},
			wantCode:    "CONV001",
			wantMessage: "A row has more fields than the header",
		},
		{
			name:        "body too large",
			err:         errors.New("http: request body too large"),
			wantCode:    "FILE001",
			wantMessage: "File exceeds the maximum upload size",
		},
		{
			name:        "empty input",
			err:         ErrEmptyInput,
			wantCode:    "FILE005",
			wantMessage: "No CSV data was provided",
		},
		{
			name:        "deadline exceeded",
			err:         fmt.Errorf("conversion cancelled at row 101: %w", context.DeadlineExceeded),
			wantCode:    "REQ002",
			wantMessage: "Request timed out",
		},
		{
			name:        "server busy",
			err:         ErrTooManyConversions,
			wantCode:    "REQ003",
			wantMessage: "Server is busy",
		},
		{
			name:        "missing file whose name looks like a csv error",
			err:         &IOError{Op: "open", Path: "invalid csv.csv", Err: fs.ErrNotExist},
			wantCode:    "FILE004",
			wantMessage: "File or directory does not exist",
		},
		{
			name:        "missing file whose name looks like an encoding error",
			err:         &IOError{Op: "open", Path: "encoding error.csv", Err: fs.ErrNotExist},
			wantCode:    "FILE004",
			wantMessage: "File or directory does not exist",
		},
		{
			name:        "write failure under a path mentioning permission denied",
			err:         &IOError{Op: "write", Path: "permission denied/out.json", Err: errors.New("no space left on device")},
			wantCode:    "CONV002",
			wantMessage: "Reading or writing a file failed",
		},
		{
			name:        "typed permission error",
			err:         &IOError{Op: "create", Path: "out.json", Err: fs.ErrPermission},
			wantCode:    "FILE006",
			wantMessage: "File cannot be opened or created",
		},
		{
			name:        "max bytes error",
			err:         fmt.Errorf("read body: %w", &http.MaxBytesError{Limit: 10}),
			wantCode:    "FILE001",
			wantMessage: "File exceeds the maximum upload size",
		},
		{
			name:        "cancelled",
			err:         fmt.Errorf("conversion cancelled at row 1: %w", context.Canceled),
			wantCode:    "REQ001",
			wantMessage: "Request was cancelled",
		},
		{
			name:        "decode error on a file named like a parse error",
			err:         fmt.Errorf("convert invalid csv.csv: %w", &DecodeError{Offset: 1}),
			wantCode:    "FILE003",
			wantMessage: "File contains invalid characters",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("ENCODING ERROR somewhere"),
			wantCode:    "FILE003",
			wantMessage: "File contains invalid characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestMapError_ConvertMissingFile(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"invalid csv.csv", "encoding error.csv", "malformed row.csv"} {
		err := ConvertToJSON(filepath.Join(dir, name), filepath.Join(dir, "out.json"))
		if err == nil {
			t.Fatalf("ConvertToJSON(%q) succeeded on a missing file", name)
		}
		if got := MapError(err).Code; got != "FILE004" {
			t.Errorf("MapError(%v) code = %q, want FILE004", err, got)
		}
	}
}

func TestFormatUserError(t *testing.T) {
	err := &MalformedRowError{Line: 2, Got: 5, Want: 4}
	result := FormatUserError(err)

	expected := "A row has more fields than the header (Code: CONV001). Fix the row or set CONVERT_EXTRA_FIELDS=drop"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}

	if FormatUserError(nil) != "" {
		t.Error("FormatUserError(nil) should be empty")
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error is not user facing",
			err:  nil,
			want: false,
		},
		{
			name: "known error is user facing",
			err:  &DecodeError{Offset: 0},
			want: true,
		},
		{
			name: "unknown error is not user facing",
			err:  errors.New("random internal error xyz"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsUserFacing(tt.err)
			if got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}
