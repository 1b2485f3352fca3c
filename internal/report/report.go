// Package report renders accumulated statistics as text, CSV or JSON.
//
// Every statistic builds a Document: a fixed column schema, typed rows in
// their final order, and a text writer for the human readable form. Render
// switches on the format once for all of them.
package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Format is an output format name.
type Format string

const (
	FormatText Format = "text"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

var (
	// ErrUnknownFormat is returned when rendering with an unsupported format.
	ErrUnknownFormat = errors.New("unhandled output format")
	// ErrNonFinite is returned when a row contains NaN or ±Inf.
	ErrNonFinite = errors.New("non-finite value in report")
)

// Formats lists the supported format names.
func Formats() []string {
	return []string{string(FormatText), string(FormatCSV), string(FormatJSON)}
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q (available: %s)", ErrUnknownFormat, s, strings.Join(Formats(), ", "))
	}
}

// Valid reports whether f is one of the supported formats.
func (f Format) Valid() bool {
	return f == FormatText || f == FormatCSV || f == FormatJSON
}

// Column describes one field of a report. Key is the JSON object key and
// defaults to Name.
type Column struct {
	Name string
	Key  string
}

func (c Column) key() string {
	if c.Key != "" {
		return c.Key
	}
	return c.Name
}

// Document is a report ready for rendering. Rows must already be in output
// order and each row must have one value per column.
type Document struct {
	Kind    string
	Columns []Column
	Rows    [][]any
	// Text writes the human readable form; when nil a "key: value" block per
	// row is written.
	Text func(w io.Writer) error
	// JSON, when set, is encoded in place of one object per row. Rows are
	// still checked, so it must carry the same values.
	JSON any
}

// Render writes doc to w in the given format.
func Render(w io.Writer, doc *Document, format Format) error {
	if err := doc.check(); err != nil {
		return err
	}
	switch format {
	case FormatText:
		if doc.Text != nil {
			return doc.Text(w)
		}
		return writeKeyValueText(w, doc)
	case FormatCSV:
		return writeCSV(w, doc)
	case FormatJSON:
		return writeJSON(w, doc)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(format))
	}
}

// check validates row widths and rejects NaN/Inf values.
func (d *Document) check() error {
	for i, row := range d.Rows {
		if len(row) != len(d.Columns) {
			return fmt.Errorf("%s report: row %d has %d values for %d columns", d.Kind, i, len(row), len(d.Columns))
		}
		for j, v := range row {
			if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
				return fmt.Errorf("%w: %s report row %d column %q", ErrNonFinite, d.Kind, i, d.Columns[j].Name)
			}
		}
	}
	return nil
}

func writeCSV(w io.Writer, doc *Document) error {
	cw := csv.NewWriter(w)
	header := make([]string, len(doc.Columns))
	for i, c := range doc.Columns {
		header[i] = c.Name
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	record := make([]string, len(doc.Columns))
	for _, row := range doc.Rows {
		for i, v := range row {
			record[i] = FormatValue(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeJSON(w io.Writer, doc *Document) error {
	payload := doc.JSON
	if payload == nil {
		records := make([]Record, len(doc.Rows))
		for i, row := range doc.Rows {
			rec := make(Record, len(row))
			for j, v := range row {
				rec[j] = Field{Key: doc.Columns[j].key(), Value: v}
			}
			records[i] = rec
		}
		payload = records
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s report: %w", doc.Kind, err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

func writeKeyValueText(w io.Writer, doc *Document) error {
	var b strings.Builder
	for _, row := range doc.Rows {
		for j, v := range row {
			fmt.Fprintf(&b, "%s: %s\n", doc.Columns[j].Name, FormatValue(v))
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// FormatValue renders a cell value for CSV and text output.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// Field is one key/value pair of a Record.
type Field struct {
	Key   string
	Value any
}

// Record is a JSON object whose keys keep their insertion order.
type Record []Field

// MarshalJSON encodes the record as an object in field order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
