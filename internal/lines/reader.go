// Package lines reads the commented, header-marked text files the reference
// datasets ship in.
package lines

import (
	"bufio"
	"io"
	"strings"
)

// HeaderMarker announces that the next physical line holds column headers.
const HeaderMarker = "## HEADERS ##"

const maxLineSize = 1 << 20

// Reader yields trimmed data lines. Blank lines and lines starting with '#'
// are suppressed. The line following HeaderMarker is captured as headers
// instead of being returned.
type Reader struct {
	sc      *bufio.Scanner
	line    string
	lineNo  int
	headers []string
	err     error
}

func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Reader{sc: sc}
}

// Next advances to the next data line. It returns false at end of input or
// on a read error; check Err afterwards.
func (r *Reader) Next() bool {
	for r.sc.Scan() {
		r.lineNo++
		line := strings.TrimSpace(r.sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			if line == HeaderMarker {
				r.captureHeaders()
			}
			continue
		}
		r.line = line
		return true
	}
	r.err = r.sc.Err()
	r.line = ""
	return false
}

func (r *Reader) captureHeaders() {
	if !r.sc.Scan() {
		return
	}
	r.lineNo++
	r.headers = strings.Split(strings.TrimSpace(r.sc.Text()), ",")
}

// Line returns the current data line.
func (r *Reader) Line() string { return r.line }

// LineNumber returns the 1-based physical line number of the current line.
func (r *Reader) LineNumber() int { return r.lineNo }

// Headers returns the most recently captured header row, or nil.
func (r *Reader) Headers() []string { return r.headers }

func (r *Reader) Err() error { return r.err }
