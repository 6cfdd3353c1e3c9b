package ligation

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"

	"ohfid-core/seq"
)

type cell struct {
	r, c string
	v    float64
}

// builder collects labels and cells before the dense matrix size is known.
type builder struct {
	labels []string
	index  map[string]int
	rows   []string
	rowSet map[string]bool
	k      int
	cells  []cell
}

func newBuilder() *builder {
	return &builder{index: map[string]int{}, rowSet: map[string]bool{}}
}

func normLabel(s string) (string, error) {
	o := strings.ToUpper(strings.TrimSpace(s))
	if !seq.IsACGT(o) {
		return "", fmt.Errorf("%w: bad overhang label %q", ErrMalformed, s)
	}
	return o, nil
}

func (b *builder) addLabel(raw string) error {
	o, err := normLabel(raw)
	if err != nil {
		return err
	}
	if b.k == 0 {
		b.k = len(o)
	} else if len(o) != b.k {
		return fmt.Errorf("%w: label %q has length %d, others have %d", ErrMalformed, o, len(o), b.k)
	}
	if _, ok := b.index[o]; !ok {
		b.index[o] = len(b.labels)
		b.labels = append(b.labels, o)
	}
	return nil
}

func (b *builder) addRow(raw string) error {
	if err := b.addLabel(raw); err != nil {
		return err
	}
	o, _ := normLabel(raw)
	if b.rowSet[o] {
		return fmt.Errorf("%w: duplicate row %q", ErrMalformed, o)
	}
	b.rowSet[o] = true
	b.rows = append(b.rows, o)
	return nil
}

func (b *builder) set(r, c string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fmt.Errorf("%w: frequency %s→%s = %v (must be finite and ≥ 0)", ErrMalformed, r, c, v)
	}
	ro, err := normLabel(r)
	if err != nil {
		return err
	}
	co, err := normLabel(c)
	if err != nil {
		return err
	}
	b.cells = append(b.cells, cell{r: ro, c: co, v: v})
	return nil
}

func (b *builder) build() *Matrix {
	n := len(b.labels)
	m := &Matrix{
		labels: b.labels,
		index:  b.index,
		rows:   b.rows,
		k:      b.k,
	}
	if n == 0 {
		m.data = &mat.Dense{}
		return m
	}
	m.data = mat.NewDense(n, n, nil)
	for _, c := range b.cells {
		m.data.Set(b.index[c.r], b.index[c.c], c.v)
	}
	return m
}
