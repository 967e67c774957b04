package core

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// ExtraFieldsPolicy decides what happens to values past the last header column.
type ExtraFieldsPolicy string

const (
	// ExtraFieldsDrop discards trailing values that have no header column.
	ExtraFieldsDrop ExtraFieldsPolicy = "drop"

	// ExtraFieldsStrict rejects the row with a MalformedRowError.
	ExtraFieldsStrict ExtraFieldsPolicy = "strict"
)

// Header is the ordered set of column names taken from the first CSV line.
//
// Duplicate column names collapse into one key that keeps the position of its
// first occurrence; the value of the last occurrence wins in each record.
type Header struct {
	keys    []string // unique names, first-occurrence order
	slots   []int    // column index -> position in keys
	columns int      // number of columns in the header line
}

// NewHeader builds a Header from the raw header fields.
func NewHeader(fields []string) *Header {
	h := &Header{
		keys:    make([]string, 0, len(fields)),
		slots:   make([]int, len(fields)),
		columns: len(fields),
	}
	seen := make(map[string]int, len(fields))
	for i, name := range fields {
		slot, ok := seen[name]
		if !ok {
			slot = len(h.keys)
			seen[name] = slot
			h.keys = append(h.keys, name)
		}
		h.slots[i] = slot
	}
	return h
}

// Keys returns the record keys in output order.
func (h *Header) Keys() []string {
	out := make([]string, len(h.keys))
	copy(out, h.keys)
	return out
}

// Columns returns the number of fields in the header line, duplicates included.
func (h *Header) Columns() int {
	return h.columns
}

// Record is one data row keyed by the header.
// A value with Valid=false was missing from the row and serializes as null.
type Record struct {
	header *Header
	values []pgtype.Text
}

// newRecord zips a row with the header. Fields past the header are ignored;
// callers enforce the extra-field policy before calling.
func newRecord(h *Header, row []string) Record {
	values := make([]pgtype.Text, len(h.keys))
	for col, slot := range h.slots {
		if col < len(row) {
			values[slot] = pgtype.Text{String: row[col], Valid: true}
		} else {
			values[slot] = pgtype.Text{}
		}
	}
	return Record{header: h, values: values}
}

// Len returns the number of keys in the record.
func (r Record) Len() int {
	return len(r.values)
}

// Values returns the cell values in key order.
func (r Record) Values() []pgtype.Text {
	out := make([]pgtype.Text, len(r.values))
	copy(out, r.values)
	return out
}

// Document is the ordered sequence of records converted from one CSV input.
type Document struct {
	Header  *Header
	Records []Record
}

// Len returns the number of records.
func (d *Document) Len() int {
	return len(d.Records)
}

// Keys returns the header keys, or nil for an input without a header line.
func (d *Document) Keys() []string {
	if d.Header == nil {
		return nil
	}
	return d.Header.Keys()
}

// Rows re-derives CSV rows from the records in key order.
// Null values come back as empty strings.
func (d *Document) Rows() [][]string {
	rows := make([][]string, 0, len(d.Records))
	for _, rec := range d.Records {
		row := make([]string, len(rec.values))
		for i, v := range rec.values {
			row[i] = v.String
		}
		rows = append(rows, row)
	}
	return rows
}

// Result summarizes a completed file conversion.
type Result struct {
	RunID      string
	InputPath  string
	OutputPath string
	Rows       int
	Columns    int
	BytesRead  int64
	Duration   time.Duration
}
