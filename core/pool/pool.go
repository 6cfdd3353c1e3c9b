package pool

import (
	"errors"
	"fmt"

	"ohfid-core/ligation"
	"ohfid-core/seq"
)

var (
	ErrEmptyPool   = errors.New("junction has no valid overhangs")
	ErrNoReference = errors.New("window spec needs a reference sequence")
)

// Candidate is one allowed overhang. Site is its reference start for
// window-derived pools and -1 otherwise.
type Candidate struct {
	Overhang string
	Site     int
}

// Dropped counts candidates removed by each filter, in filter order.
type Dropped struct {
	Duplicate   int
	Palindrome  int
	Excluded    int
	Efficiency  int
	Composition int
}

// Junction is one assembly position and its candidate pool.
type Junction struct {
	Index      int
	Spec       Spec
	Candidates []Candidate
	Dropped    Dropped
}

// Fixed reports a single-candidate junction; it is never searched.
func (j Junction) Fixed() bool { return len(j.Candidates) == 1 }

// Variable reports a junction the optimizer may change.
func (j Junction) Variable() bool { return len(j.Candidates) > 1 }

// Overhangs returns the candidate overhangs in pool order.
func (j Junction) Overhangs() []string {
	out := make([]string, len(j.Candidates))
	for i, c := range j.Candidates {
		out[i] = c.Overhang
	}
	return out
}

// Filter configures candidate filtering. A negative MaxGC/MaxAT disables
// that limit; MinEfficiency ≤ 0 disables the efficiency filter.
type Filter struct {
	Length        int
	Exclude       []string
	MinEfficiency float64
	MaxGC         int
	MaxAT         int
}

// DefaultFilter keeps everything of length 4.
func DefaultFilter() Filter { return Filter{Length: 4, MaxGC: -1, MaxAT: -1} }

// Source supplies raw candidates.
type Source struct {
	Matrix    *ligation.Matrix
	Reference []byte
}

// Build resolves every spec into a filtered pool. Pool order is first-seen
// order of the raw candidates. A junction left with no candidates is an error.
func Build(specs []Spec, src Source, f Filter) ([]Junction, error) {
	excluded := make(map[string]bool, 2*len(f.Exclude))
	for _, e := range f.Exclude {
		o := seq.Normalize(e)
		excluded[o] = true
		excluded[seq.RevComp(o)] = true
	}

	out := make([]Junction, 0, len(specs))
	for i, sp := range specs {
		raw, err := rawCandidates(sp, src, f.Length)
		if err != nil {
			return nil, fmt.Errorf("junction %d: %w", i+1, err)
		}
		j := Junction{Index: i, Spec: sp}
		j.Candidates = filterCandidates(raw, src.Matrix, f, excluded, &j.Dropped)
		if len(j.Candidates) == 0 {
			return nil, fmt.Errorf("junction %d (%s %s): %w", i+1, sp.Kind, sp.Raw, ErrEmptyPool)
		}
		out = append(out, j)
	}
	return out, nil
}

func rawCandidates(sp Spec, src Source, length int) ([]Candidate, error) {
	switch sp.Kind {
	case KindList:
		out := make([]Candidate, 0, len(sp.Overhangs))
		for _, o := range sp.Overhangs {
			n, err := seq.Validate(o, length)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrBadSpec, err)
			}
			out = append(out, Candidate{Overhang: n, Site: -1})
		}
		return out, nil
	case KindAll:
		if src.Matrix == nil {
			return nil, nil
		}
		obs := src.Matrix.Overhangs()
		out := make([]Candidate, 0, len(obs))
		for _, o := range obs {
			if len(o) == length {
				out = append(out, Candidate{Overhang: o, Site: -1})
			}
		}
		return out, nil
	case KindWindow:
		if len(src.Reference) == 0 {
			return nil, ErrNoReference
		}
		kms := seq.Kmers(src.Reference, length, sp.Start, sp.End)
		out := make([]Candidate, 0, len(kms))
		for _, k := range kms {
			out = append(out, Candidate{Overhang: k.Seq, Site: k.Start})
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: unknown kind %d", ErrBadSpec, sp.Kind)
}

func filterCandidates(raw []Candidate, m *ligation.Matrix, f Filter, excluded map[string]bool, d *Dropped) []Candidate {
	// Reverse-complement dedup: keep the first-seen orientation.
	seen := make(map[string]bool, len(raw))
	dedup := raw[:0:0]
	for _, c := range raw {
		key := seq.Canonical(c.Overhang)
		if seen[key] {
			d.Duplicate++
			continue
		}
		seen[key] = true
		dedup = append(dedup, c)
	}

	out := make([]Candidate, 0, len(dedup))
	for _, c := range dedup {
		o := c.Overhang
		switch {
		case seq.IsPalindrome(o):
			d.Palindrome++
		case excluded[o]:
			d.Excluded++
		case f.MinEfficiency > 0 && efficiency(m, o) < f.MinEfficiency:
			d.Efficiency++
		case f.MaxGC >= 0 && seq.GC(o) > f.MaxGC, f.MaxAT >= 0 && seq.AT(o) > f.MaxAT:
			d.Composition++
		default:
			out = append(out, c)
		}
	}
	return out
}

// efficiency is how often o was observed ligating to its own partner.
func efficiency(m *ligation.Matrix, o string) float64 {
	if m == nil {
		return 0
	}
	return m.Lookup(o, seq.RevComp(o))
}

// VariableCount returns how many junctions have more than one candidate.
func VariableCount(js []Junction) int {
	n := 0
	for _, j := range js {
		if j.Variable() {
			n++
		}
	}
	return n
}
