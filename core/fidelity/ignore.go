package fidelity

import (
	"fmt"
	"sort"
	"strings"

	"ohfid-core/seq"
)

// BasePair is an unordered pair of bases, stored with the smaller byte first.
type BasePair [2]byte

func newPair(a, b byte) BasePair {
	if b < a {
		a, b = b, a
	}
	return BasePair{a, b}
}

func (p BasePair) String() string { return string(p[0]) + "-" + string(p[1]) }

// IgnoreSet lists mismatched base pairs whose ligation events are left out of
// fidelity denominators.
type IgnoreSet map[BasePair]bool

// ParseIgnoreSet accepts entries like "G-T", "GT", "g:t" or "G/T".
// Watson–Crick pairs are rejected: they are matches, not mismatches.
func ParseIgnoreSet(entries []string) (IgnoreSet, error) {
	set := IgnoreSet{}
	for _, e := range entries {
		s := strings.ToUpper(strings.TrimSpace(e))
		s = strings.NewReplacer("-", "", ":", "", "/", "", " ", "").Replace(s)
		if s == "" {
			continue
		}
		if len(s) != 2 || !seq.IsACGT(s) {
			return nil, fmt.Errorf("bad mismatch pair %q: want two bases, e.g. G-T", e)
		}
		if seq.Complement(s[0]) == s[1] {
			return nil, fmt.Errorf("bad mismatch pair %q: %c-%c is a Watson–Crick pair", e, s[0], s[1])
		}
		set[newPair(s[0], s[1])] = true
	}
	return set, nil
}

// Strings returns the pairs in sorted order.
func (s IgnoreSet) Strings() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, p.String())
	}
	sort.Strings(out)
	return out
}

// Mismatches lists the mismatched base pairs formed when a anneals to b
// (a[i] faces b[n-1-i]).
func Mismatches(a, b string) []BasePair {
	n := len(a)
	if len(b) != n {
		return nil
	}
	var out []BasePair
	for i := 0; i < n; i++ {
		x, y := a[i], b[n-1-i]
		if seq.Complement(x) != y {
			out = append(out, newPair(x, y))
		}
	}
	return out
}

// Omits reports whether the a→b ligation term is left out: the alignment has
// at least one mismatch and every mismatch is in the set.
func (s IgnoreSet) Omits(a, b string) bool {
	if len(s) == 0 {
		return false
	}
	mm := Mismatches(a, b)
	if len(mm) == 0 {
		return false
	}
	for _, p := range mm {
		if !s[p] {
			return false
		}
	}
	return true
}
