package optimize

import (
	"ohfid-core/pool"
	"ohfid-core/seq"
)

// state is the evolving solution of one run plus its best-so-far copy.
type state struct {
	sol   []string
	cand  []int // candidate index per junction, -1 when not from the pool
	used  map[string]int
	score float64

	best      []string
	bestCand  []int
	bestScore float64
}

func newState(n int) *state {
	return &state{
		sol:      make([]string, n),
		cand:     make([]int, n),
		used:     make(map[string]int, n),
		best:     make([]string, n),
		bestCand: make([]int, n),
	}
}

func (s *state) set(j int, o string, ci int) {
	if prev := s.sol[j]; prev != "" {
		k := seq.Canonical(prev)
		if s.used[k]--; s.used[k] <= 0 {
			delete(s.used, k)
		}
	}
	s.sol[j] = o
	s.cand[j] = ci
	s.used[seq.Canonical(o)]++
}

// collides reports whether o (or its reverse complement) sits at a junction
// other than j.
func (s *state) collides(j int, o string) bool {
	k := seq.Canonical(o)
	n := s.used[k]
	if cur := s.sol[j]; cur != "" && seq.Canonical(cur) == k {
		n--
	}
	return n > 0
}

func (s *state) snapshot() {
	copy(s.best, s.sol)
	copy(s.bestCand, s.cand)
	s.bestScore = s.score
}

// restore makes the best-so-far assignment current again.
func (s *state) restore() {
	for j := range s.best {
		s.set(j, s.best[j], s.bestCand[j])
	}
	s.score = s.bestScore
}

func sitesOf(js []pool.Junction, cand []int) []int {
	out := make([]int, len(cand))
	for j, ci := range cand {
		out[j] = -1
		if ci >= 0 && ci < len(js[j].Candidates) {
			out[j] = js[j].Candidates[ci].Site
		}
	}
	return out
}

func candidateIndex(j pool.Junction, o string) int {
	for i, c := range j.Candidates {
		if c.Overhang == o {
			return i
		}
	}
	return -1
}
