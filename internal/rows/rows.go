// Package rows splits delimited lines into fields and gives named access to
// them through a fixed column schema.
package rows

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	ErrMalformed      = errors.New("malformed field")
	ErrCleanUnderflow = errors.New("escaped value shorter than =\"\"")
)

// Delimiter separates fields on a line. It is fixed per dataset.
type Delimiter string

const (
	Comma Delimiter = ","
	Tab   Delimiter = "\t"
)

// Split breaks a line on d. Delimiters inside quotes are not special.
func Split(line string, d Delimiter) []string {
	return strings.Split(line, string(d))
}

// Clean strips the spreadsheet ="..." escape: a field starting with '=' is
// reduced to the text between its second and last characters.
func Clean(field string) (string, error) {
	if !strings.HasPrefix(field, "=") {
		return field, nil
	}
	if len(field) < 3 {
		return "", fmt.Errorf("%w: %q", ErrCleanUnderflow, field)
	}
	return field[2 : len(field)-1], nil
}

// FieldError reports a field that could not be read from a row.
type FieldError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *FieldError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: column %s (%q): %v", e.Line, e.Column, e.Value, e.Err)
}

func (e *FieldError) Unwrap() []error { return []error{ErrMalformed, e.Err} }

// Column names a positional field.
type Column struct {
	Name  string
	Index int
}

// Schema maps column names to positions for one dataset.
type Schema struct {
	name  string
	index map[string]int
	width int
}

func NewSchema(name string, cols ...Column) *Schema {
	s := &Schema{name: name, index: make(map[string]int, len(cols))}
	for _, c := range cols {
		if _, dup := s.index[c.Name]; dup {
			panic("rows: duplicate column " + c.Name + " in schema " + name)
		}
		s.index[c.Name] = c.Index
		if c.Index+1 > s.width {
			s.width = c.Index + 1
		}
	}
	return s
}

func (s *Schema) Name() string { return s.name }

// Width is the minimum number of fields a row needs.
func (s *Schema) Width() int { return s.width }

// Bind checks fields against the schema width and returns a Record.
func (s *Schema) Bind(fields []string, line int) (Record, error) {
	if len(fields) < s.width {
		return Record{}, &FieldError{
			Line: line,
			Err:  fmt.Errorf("%s row has %d fields, need %d", s.name, len(fields), s.width),
		}
	}
	return Record{schema: s, fields: fields, line: line}, nil
}

// Record is one row bound to a schema.
type Record struct {
	schema *Schema
	fields []string
	line   int
}

func (r Record) Line() int { return r.line }

// Raw returns the field as it appeared on the line.
func (r Record) Raw(col string) string {
	i, ok := r.schema.index[col]
	if !ok {
		panic("rows: unknown column " + col + " in schema " + r.schema.name)
	}
	return r.fields[i]
}

// Text returns the cleaned, NFC-normalized field.
func (r Record) Text(col string) (string, error) {
	raw := r.Raw(col)
	v, err := Clean(raw)
	if err != nil {
		return "", r.fail(col, raw, err)
	}
	return norm.NFC.String(v), nil
}

func (r Record) Int(col string) (int, error) {
	v, err := r.Text(col)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, r.fail(col, v, errors.Unwrap(err))
	}
	return n, nil
}

func (r Record) Float(col string) (float64, error) {
	v, err := r.Text(col)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, r.fail(col, v, errors.Unwrap(err))
	}
	return f, nil
}

func (r Record) fail(col, value string, err error) error {
	return &FieldError{Line: r.line, Column: col, Value: value, Err: err}
}
