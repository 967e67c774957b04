package core

// convert.go turns CSV input into a JSON document.
//
// The conversion is a single pass:
//   - the first logical CSV line is the header
//   - every following line becomes one Record, in file order
//   - short rows are padded with nulls, long rows follow the ExtraFieldsPolicy
//   - the Document is rendered as a JSON array indented with four spaces
//
// Values are never coerced; every present cell is a JSON string.

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/csv2json/internal/logging"
)

// ContextCheckInterval is how often (in rows) to check for context cancellation.
var ContextCheckInterval = 100

// JSONIndent is the indentation of every emitted document.
const JSONIndent = "    "

// Converter converts CSV input into JSON documents.
type Converter struct {
	// ExtraFields decides what happens to values past the last header column.
	ExtraFields ExtraFieldsPolicy

	// Out receives the confirmation line after a file conversion (default: os.Stdout).
	Out io.Writer
}

// NewConverter creates a Converter with the given extra-field policy.
// An empty policy means ExtraFieldsDrop.
func NewConverter(policy ExtraFieldsPolicy) *Converter {
	if policy == "" {
		policy = ExtraFieldsDrop
	}
	return &Converter{ExtraFields: policy, Out: os.Stdout}
}

// ConvertToJSON converts the CSV file at csvPath into a JSON file at jsonPath
// using the default policy. The parent directory of jsonPath must exist.
func ConvertToJSON(csvPath, jsonPath string) error {
	_, err := NewConverter(ExtraFieldsDrop).Convert(context.Background(), csvPath, jsonPath)
	return err
}

// Convert reads inputPath, converts it and writes the document to outputPath,
// creating or truncating it.
//
// The document is fully built before outputPath is opened, so a failure while
// reading leaves any existing output untouched. A failure while writing may
// leave a partial file behind.
func (c *Converter) Convert(ctx context.Context, inputPath, outputPath string) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := logging.WithFields(ctx,
		"run_id", runID,
		"input", inputPath,
		"output", outputPath,
	)
	logger.Debug("conversion started", "extra_fields", c.policy())

	in, err := os.Open(inputPath)
	if err != nil {
		return nil, &IOError{Op: "open", Path: inputPath, Err: err}
	}
	defer in.Close()

	r, counter := WrapForDecoding(in)
	doc, err := c.ReadDocument(ctx, r)
	if err != nil {
		logger.Warn("conversion failed", "phase", "read", "error", err)
		return nil, classifyReadError(inputPath, err)
	}

	data, err := MarshalDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", inputPath, err)
	}

	if err := writeFile(outputPath, data); err != nil {
		logger.Warn("conversion failed", "phase", "write", "error", err)
		return nil, err
	}

	result := &Result{
		RunID:      runID,
		InputPath:  inputPath,
		OutputPath: outputPath,
		Rows:       doc.Len(),
		Columns:    len(doc.Keys()),
		BytesRead:  counter.BytesRead,
		Duration:   time.Since(start),
	}

	logger.Info("conversion complete",
		"rows", result.Rows,
		"columns", result.Columns,
		"bytes_read", result.BytesRead,
		"duration_ms", result.Duration.Milliseconds(),
	)

	out := c.Out
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintf(out, "Converted '%s' to '%s' successfully.\n", inputPath, outputPath)

	return result, nil
}

// ReadDocument parses CSV from r into a Document.
// r should already be wrapped with WrapForDecoding when it comes from an
// untrusted source.
func (c *Converter) ReadDocument(ctx context.Context, r io.Reader) (*Document, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	fields, err := cr.Read()
	if err == io.EOF {
		return &Document{Records: []Record{}}, nil
	}
	if err != nil {
		return nil, classifyCSVError(err)
	}

	header := NewHeader(fields)
	doc := &Document{Header: header, Records: []Record{}}
	strict := c.policy() == ExtraFieldsStrict

	for i := 0; ; i++ {
		if i%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("conversion cancelled at row %d: %w", i+1, err)
			}
		}

		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, classifyCSVError(err)
		}

		if strict && len(row) > header.Columns() {
			line, _ := cr.FieldPos(0)
			return nil, &MalformedRowError{Line: line, Got: len(row), Want: header.Columns()}
		}

		doc.Records = append(doc.Records, newRecord(header, row))
	}

	return doc, nil
}

// MarshalDocument renders doc as an indented JSON array without a trailing newline.
// Non-ASCII text is written as UTF-8 rather than as \u escapes.
func MarshalDocument(doc *Document) ([]byte, error) {
	records := doc.Records
	if records == nil {
		records = []Record{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", JSONIndent)
	if err := enc.Encode(records); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// MarshalJSON renders the record as an object with keys in header order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range r.header.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONString(&buf, key); err != nil {
			return nil, err
		}
		buf.WriteByte(':')

		v := r.values[i]
		if !v.Valid {
			buf.WriteString("null")
			continue
		}
		if err := writeJSONString(&buf, v.String); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// writeJSONString appends s as a JSON string literal without HTML escaping.
func writeJSONString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Truncate(buf.Len() - 1) // Encode appends '\n'
	return nil
}

func (c *Converter) policy() ExtraFieldsPolicy {
	if c.ExtraFields == "" {
		return ExtraFieldsDrop
	}
	return c.ExtraFields
}

// writeFile creates or truncates path and writes data to it.
func writeFile(path string, data []byte) error {
	out, err := os.Create(path)
	if err != nil {
		return &IOError{Op: "create", Path: path, Err: err}
	}
	if _, err := out.Write(data); err != nil {
		out.Close()
		return &IOError{Op: "write", Path: path, Err: err}
	}
	if err := out.Close(); err != nil {
		return &IOError{Op: "close", Path: path, Err: err}
	}
	return nil
}

// classifyCSVError converts encoding/csv syntax errors into ParseError and
// passes everything else through.
func classifyCSVError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &ParseError{Err: pe}
	}
	return err
}

// classifyReadError keeps known conversion errors and treats anything else
// coming out of the reader chain as an I/O failure on path.
func classifyReadError(path string, err error) error {
	var (
		decodeErr    *DecodeError
		malformedErr *MalformedRowError
		parseErr     *ParseError
	)
	switch {
	case errors.As(err, &decodeErr),
		errors.As(err, &malformedErr),
		errors.As(err, &parseErr),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("convert %s: %w", path, err)
	default:
		return &IOError{Op: "read", Path: path, Err: err}
	}
}
