package ligation

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrMalformed marks a ligation table that could be read but not parsed.
var ErrMalformed = errors.New("malformed ligation matrix")

// Load reads a row/column CSV ligation table from path.
func Load(path string) (*Matrix, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ligation matrix: %w", err)
	}
	defer func() { _ = fh.Close() }()
	m, err := Parse(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse reads a CSV table: the first row holds column overhang labels (the
// first cell is a corner label and is ignored); every later row is a row
// overhang followed by frequencies. Blank cells are 0. Short rows are padded
// with zeros.
func Parse(r io.Reader) (*Matrix, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty input", ErrMalformed)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("%w: header needs at least one column label", ErrMalformed)
	}

	b := newBuilder()
	cols := make([]string, 0, len(header)-1)
	seen := map[string]bool{}
	for _, h := range header[1:] {
		o, err := normLabel(h)
		if err != nil {
			return nil, err
		}
		if seen[o] {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrMalformed, o)
		}
		seen[o] = true
		cols = append(cols, o)
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// *csv.ParseError carries its own line.
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		line, _ := cr.FieldPos(0)
		if len(rec) == 0 || (len(rec) == 1 && strings.TrimSpace(rec[0]) == "") {
			continue
		}
		if len(rec)-1 > len(cols) {
			return nil, fmt.Errorf("%w: line %d has %d values for %d columns", ErrMalformed, line, len(rec)-1, len(cols))
		}
		row := rec[0]
		if err := b.addRow(row); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		for i, raw := range rec[1:] {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d column %s: %q is not a number", ErrMalformed, line, cols[i], raw)
			}
			if v == 0 {
				continue
			}
			if err := b.set(row, cols[i], v); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		}
	}
	for _, c := range cols {
		if err := b.addLabel(c); err != nil {
			return nil, err
		}
	}
	if len(b.rows) == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrMalformed)
	}
	return b.build(), nil
}
