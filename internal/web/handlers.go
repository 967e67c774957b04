package web

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/JonMunkholm/csv2json/internal/core"
	"github.com/JonMunkholm/csv2json/internal/logging"
	"github.com/JonMunkholm/csv2json/internal/web/templates"
)

// multipartMemory is how much of a multipart upload is kept in memory before
// spilling to a temp file.
const multipartMemory = 32 << 20

// handleIndex renders the upload form.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Index().Render(r.Context(), w); err != nil {
		slog.Error("render index", "error", err)
	}
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleConvert converts the posted CSV and responds with the JSON document.
// The body is either raw CSV or a multipart form with a "file" field.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	doc, err := s.documentFromRequest(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	data, err := core.MarshalDocument(doc)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(data); err != nil {
		logging.FromContext(r.Context()).Warn("write response", "error", err)
	}
}

// handlePreview converts the posted CSV and renders the first records as HTML.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	doc, err := s.documentFromRequest(w, r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Preview(doc, s.cfg.Upload.PreviewRows).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Warn("render preview", "error", err)
	}
}

// documentFromRequest reads the CSV carried by r and converts it.
func (s *Server) documentFromRequest(w http.ResponseWriter, r *http.Request) (*core.Document, error) {
	if err := s.limiter.Acquire(r.Context()); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	body, err := s.openCSVBody(w, r)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	br := bufio.NewReader(body)
	if _, err := br.Peek(1); err != nil {
		if err == io.EOF {
			return nil, core.ErrEmptyInput
		}
		return nil, err
	}

	in, counter := core.WrapForDecoding(br)
	doc, err := s.converter.ReadDocument(r.Context(), in)
	if err != nil {
		return nil, err
	}

	logging.FromContext(r.Context()).Debug("converted request body",
		"rows", doc.Len(),
		"columns", len(doc.Keys()),
		"bytes_read", counter.BytesRead,
	)
	return doc, nil
}

// openCSVBody returns the CSV stream of r, capped at UPLOAD_MAX_FILE_SIZE.
func (s *Server) openCSVBody(w http.ResponseWriter, r *http.Request) (io.ReadCloser, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, nil
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, err
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, core.ErrEmptyInput
		}
		return nil, err
	}
	return file, nil
}

// statusFor maps a conversion error to an HTTP status code.
func statusFor(err error) int {
	var (
		maxErr       *http.MaxBytesError
		decodeErr    *core.DecodeError
		parseErr     *core.ParseError
		malformedErr *core.MalformedRowError
	)
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrEmptyInput),
		errors.As(err, &decodeErr),
		errors.As(err, &parseErr),
		errors.As(err, &malformedErr):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrTooManyConversions),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
