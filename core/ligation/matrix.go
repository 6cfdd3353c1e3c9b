// Package ligation holds pairwise ligation-frequency data measured for one
// enzyme. Frequencies are keyed by overhang: Lookup(a, b) is how often a was
// observed ligated to b. Anything not present in the data is 0.
package ligation

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Matrix is read-only after construction and safe for concurrent use.
type Matrix struct {
	labels []string       // every overhang seen as a row or column label
	index  map[string]int // label → position in labels / data
	rows   []string       // row labels in file order ("all observed overhangs")
	k      int            // overhang length shared by every label
	data   *mat.Dense
}

// Lookup returns the ligation frequency of a with b (0 if absent).
func (m *Matrix) Lookup(a, b string) float64 {
	i, ok := m.index[a]
	if !ok {
		return 0
	}
	j, ok := m.index[b]
	if !ok {
		return 0
	}
	return m.data.At(i, j)
}

// Index returns the dense position of an overhang, if it was observed.
func (m *Matrix) Index(o string) (int, bool) {
	i, ok := m.index[o]
	return i, ok
}

// At returns the frequency at dense positions i, j.
func (m *Matrix) At(i, j int) float64 { return m.data.At(i, j) }

// Overhangs returns the observed (row) overhangs in file order.
func (m *Matrix) Overhangs() []string { return append([]string(nil), m.rows...) }

// Len is the number of distinct labels.
func (m *Matrix) Len() int { return len(m.labels) }

// OverhangLength is the length shared by every label (0 for an empty matrix).
func (m *Matrix) OverhangLength() int { return m.k }

// FromMap builds a Matrix from nested maps. Row order is sorted, so this is
// meant for tests and small hand-built tables.
func FromMap(freq map[string]map[string]float64) (*Matrix, error) {
	rows := make([]string, 0, len(freq))
	for r := range freq {
		rows = append(rows, r)
	}
	sort.Strings(rows)
	b := newBuilder()
	for _, r := range rows {
		if err := b.addRow(r); err != nil {
			return nil, err
		}
	}
	cols := make([]string, 0)
	for _, r := range rows {
		for c := range freq[r] {
			cols = append(cols, c)
		}
	}
	sort.Strings(cols)
	for _, c := range cols {
		if err := b.addLabel(c); err != nil {
			return nil, err
		}
	}
	for _, r := range rows {
		for c, v := range freq[r] {
			if err := b.set(r, c, v); err != nil {
				return nil, err
			}
		}
	}
	return b.build(), nil
}
