package fidelity

import (
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ohfid-core/ligation"
	"ohfid-core/seq"
)

// Rows are the assigned overhangs, columns their partners.
const handTable = `,GGTT,TCGT,GCTG
AACC,400,3,1
ACGA,2,300,5
CAGC,0,4,250
`

func TestEvaluateHandComputed(t *testing.T) {
	m, err := ligation.Parse(strings.NewReader(handTable))
	require.NoError(t, err)

	r := New(m).Evaluate([]string{"AACC", "ACGA", "CAGC"})

	f1 := 400.0 / (400 + 3 + 1)
	f2 := 300.0 / (2 + 300 + 5)
	f3 := 250.0 / (0 + 4 + 250)
	require.Len(t, r.PerJunction, 3)
	assert.InDelta(t, f1, r.PerJunction[0], 1e-9)
	assert.InDelta(t, f2, r.PerJunction[1], 1e-9)
	assert.InDelta(t, f3, r.PerJunction[2], 1e-9)
	assert.InDelta(t, f1*f2*f3, r.Fidelity, 1e-9)
	assert.Equal(t, r.Fidelity, r.Score)
}

func TestEvaluateMinimize(t *testing.T) {
	m, err := ligation.Parse(strings.NewReader(handTable))
	require.NoError(t, err)
	sol := []string{"AACC", "ACGA", "CAGC"}

	raw := New(m).Evaluate(sol)
	inv := New(m, WithMinimize(true)).Evaluate(sol)
	assert.InDelta(t, 1-raw.Fidelity, inv.Score, 1e-15)
	assert.Equal(t, raw.Fidelity, inv.Fidelity)
	assert.Equal(t, raw.PerJunction, inv.PerJunction)
	assert.True(t, New(m, WithMinimize(true)).Minimize())
}

func TestZeroDenominatorIsNeutral(t *testing.T) {
	m, err := ligation.Parse(strings.NewReader(handTable))
	require.NoError(t, err)
	// TTTC and its partner GAAA were never observed.
	r := New(m).Evaluate([]string{"AACC", "TTTC"})
	assert.Equal(t, 1.0, r.PerJunction[1])
	assert.InDelta(t, 1.0, r.PerJunction[0], 1e-12)
	assert.InDelta(t, 1.0, r.Fidelity, 1e-12)
}

func TestIgnoreSetDropsMismatchTerms(t *testing.T) {
	m, err := ligation.FromMap(map[string]map[string]float64{
		"AACC": {"GGTT": 100, "GGTC": 20}, // AACC·GGTC has a single A·C mismatch
		"GACC": {"GGTC": 80},
	})
	require.NoError(t, err)
	sol := []string{"AACC", "GACC"}

	plain := New(m).Evaluate(sol)
	assert.InDelta(t, 100.0/120.0, plain.Fidelity, 1e-12)

	ac, err := ParseIgnoreSet([]string{"A-C"})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, New(m, WithIgnore(ac)).Evaluate(sol).Fidelity, 1e-12)

	gt, err := ParseIgnoreSet([]string{"G-T"})
	require.NoError(t, err)
	assert.InDelta(t, 100.0/120.0, New(m, WithIgnore(gt)).Evaluate(sol).Fidelity, 1e-12)
}

func randomMatrix(t *testing.T, r *rand.Rand, ohs []string) *ligation.Matrix {
	t.Helper()
	freq := map[string]map[string]float64{}
	for _, a := range ohs {
		freq[a] = map[string]float64{}
		for _, b := range ohs {
			if r.IntN(3) == 0 {
				freq[a][b] = float64(r.IntN(500))
			}
		}
		freq[a][seq.RevComp(a)] = float64(100 + r.IntN(900))
	}
	m, err := ligation.FromMap(freq)
	require.NoError(t, err)
	return m
}

func randomOverhangs(r *rand.Rand, n int) []string {
	const bases = "ACGT"
	out := make([]string, 0, n)
	for len(out) < n {
		b := make([]byte, 4)
		for i := range b {
			b[i] = bases[r.IntN(4)]
		}
		out = append(out, string(b))
	}
	return out
}

func TestProperties(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for trial := 0; trial < 50; trial++ {
		ohs := randomOverhangs(r, 12)
		all := append([]string(nil), ohs...)
		for _, o := range ohs {
			all = append(all, seq.RevComp(o))
		}
		m := randomMatrix(t, r, all)
		sol := ohs[:6]

		ev := New(m)
		a := ev.Evaluate(sol)
		b := ev.Evaluate(sol)
		assert.Equal(t, a, b, "evaluation must be deterministic")
		assert.GreaterOrEqual(t, a.Fidelity, 0.0)
		assert.LessOrEqual(t, a.Fidelity, 1.0)
		for _, f := range a.PerJunction {
			assert.GreaterOrEqual(t, f, 0.0)
			assert.LessOrEqual(t, f, 1.0)
		}

		inv := New(m, WithMinimize(true)).Score(sol)
		assert.GreaterOrEqual(t, inv, 0.0)
		assert.LessOrEqual(t, inv, 1.0)

		perm := append([]string(nil), sol...)
		r.Shuffle(len(perm), func(i, j int) { perm[i], perm[j] = perm[j], perm[i] })
		assert.InDelta(t, a.Fidelity, ev.Score(perm), 1e-12, "fidelity must not depend on junction order")
		assert.False(t, math.IsNaN(a.Fidelity))
	}
}
