// Package fidelity scores a complete overhang assignment against a ligation
// matrix.
//
// For junction i with overhang o and reverse complement c:
//
//	correct_i = M[o][c] + M[c][o]
//	total_i   = Σ_j M[o][o_j] + M[o][c_j] + M[c][o_j] + M[c][c_j]
//
// fidelity_i is correct_i/total_i, or 1 when total_i is 0. The assignment's
// fidelity is the product over all junctions.
package fidelity

import (
	"ohfid-core/ligation"
	"ohfid-core/seq"
)

// Result is one evaluation. Score is the optimization objective: Fidelity,
// or 1-Fidelity when minimizing. PerJunction always holds raw fidelities.
type Result struct {
	Score       float64
	Fidelity    float64
	PerJunction []float64
}

// Evaluator is immutable and safe for concurrent use.
type Evaluator struct {
	m        *ligation.Matrix
	ignore   IgnoreSet
	minimize bool
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithIgnore leaves ligation terms whose mismatches all fall in s out of
// every denominator.
func WithIgnore(s IgnoreSet) Option { return func(e *Evaluator) { e.ignore = s } }

// WithMinimize makes Score report 1-Fidelity.
func WithMinimize(on bool) Option { return func(e *Evaluator) { e.minimize = on } }

// New returns an Evaluator over m.
func New(m *ligation.Matrix, opts ...Option) *Evaluator {
	e := &Evaluator{m: m}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Minimize reports whether Score is inverted.
func (e *Evaluator) Minimize() bool { return e.minimize }

// Evaluate scores a complete assignment.
func (e *Evaluator) Evaluate(sol []string) Result {
	per := make([]float64, len(sol))
	f := e.fill(sol, per)
	return Result{Score: e.objective(f), Fidelity: f, PerJunction: per}
}

// Score returns only the objective.
func (e *Evaluator) Score(sol []string) float64 {
	return e.objective(e.fill(sol, nil))
}

func (e *Evaluator) objective(f float64) float64 {
	if e.minimize {
		return 1 - f
	}
	return f
}

// end is one sticky end of the assembly, pre-resolved to matrix positions.
type end struct {
	s   string
	idx int // -1 when never observed
}

func (e *Evaluator) resolve(s string) end {
	if i, ok := e.m.Index(s); ok {
		return end{s: s, idx: i}
	}
	return end{s: s, idx: -1}
}

func (e *Evaluator) term(a, b end) float64 {
	if a.idx < 0 || b.idx < 0 {
		return 0
	}
	if e.ignore.Omits(a.s, b.s) {
		return 0
	}
	return e.m.At(a.idx, b.idx)
}

// fill computes the product and, when per is non-nil, per-junction values.
func (e *Evaluator) fill(sol []string, per []float64) float64 {
	n := len(sol)
	ohs := make([]end, n)
	rcs := make([]end, n)
	for i, o := range sol {
		ohs[i] = e.resolve(o)
		rcs[i] = e.resolve(seq.RevComp(o))
	}

	product := 1.0
	for i := 0; i < n; i++ {
		o, c := ohs[i], rcs[i]
		correct := e.term(o, c) + e.term(c, o)
		total := 0.0
		for j := 0; j < n; j++ {
			total += e.term(o, ohs[j]) + e.term(o, rcs[j]) + e.term(c, ohs[j]) + e.term(c, rcs[j])
		}
		fi := 1.0
		if total > 0 {
			fi = correct / total
		}
		if per != nil {
			per[i] = fi
		}
		product *= fi
	}
	return product
}
