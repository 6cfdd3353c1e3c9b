package optimize

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ohfid-core/fidelity"
	"ohfid-core/ligation"
	"ohfid-core/pool"
	"ohfid-core/seq"
)

// distinctOverhangs returns the first n non-palindromic 4-mers in
// lexicographic order whose reverse complements are all distinct.
func distinctOverhangs(n int) []string {
	const bases = "ACGT"
	seen := map[string]bool{}
	var out []string
	for i := 0; i < 256 && len(out) < n; i++ {
		b := []byte{bases[i>>6&3], bases[i>>4&3], bases[i>>2&3], bases[i&3]}
		o := string(b)
		if seq.IsPalindrome(o) || seen[seq.Canonical(o)] {
			continue
		}
		seen[seq.Canonical(o)] = true
		out = append(out, o)
	}
	return out
}

// noisyMatrix gives every overhang a strong correct partner and random
// cross-talk with everything else.
func noisyMatrix(t *testing.T, ohs []string, seed uint64) *ligation.Matrix {
	t.Helper()
	r := rand.New(rand.NewPCG(seed, seed))
	labels := make([]string, 0, 2*len(ohs))
	for _, o := range ohs {
		labels = append(labels, o, seq.RevComp(o))
	}
	freq := map[string]map[string]float64{}
	for _, a := range labels {
		freq[a] = map[string]float64{}
		for _, b := range labels {
			if b == seq.RevComp(a) {
				freq[a][b] = 200 + r.Float64()*200
			} else {
				freq[a][b] = r.Float64() * 40
			}
		}
	}
	m, err := ligation.FromMap(freq)
	require.NoError(t, err)
	return m
}

// fixture is three variable junctions with disjoint four-overhang pools.
func fixture(t *testing.T) ([]pool.Junction, *fidelity.Evaluator) {
	t.Helper()
	ohs := distinctOverhangs(12)
	specs := []pool.Spec{
		pool.ListSpec(ohs[0:4]...),
		pool.ListSpec(ohs[4:8]...),
		pool.ListSpec(ohs[8:12]...),
	}
	m := noisyMatrix(t, ohs, 7)
	js, err := pool.Build(specs, pool.Source{Matrix: m}, pool.DefaultFilter())
	require.NoError(t, err)
	for _, j := range js {
		require.Len(t, j.Candidates, 4)
	}
	return js, fidelity.New(m)
}

func quickConfig() Config {
	c := DefaultConfig()
	c.Iterations = 200
	c.Stages = 5
	c.CalibrationIterations = 200
	c.CalibrationSteps = 30
	return c
}

func TestNewRejectsEmpty(t *testing.T) {
	_, ev := fixture(t)
	_, err := New(nil, ev, DefaultConfig())
	assert.True(t, errors.Is(err, ErrNoJunctions))

	_, err = New([]pool.Junction{{}}, ev, DefaultConfig())
	assert.True(t, errors.Is(err, pool.ErrEmptyPool))
}

func TestRunInitLength(t *testing.T) {
	js, ev := fixture(t)
	o, err := New(js, ev, quickConfig())
	require.NoError(t, err)
	_, err = o.Run(context.Background(), []string{"AAAC"})
	assert.True(t, errors.Is(err, ErrInitLength))

	_, err = o.Evaluate([]string{"AAAC"})
	assert.True(t, errors.Is(err, ErrInitLength))

	short := []string{js[0].Candidates[0].Overhang, "AAC", js[2].Candidates[0].Overhang}
	_, err = o.Run(context.Background(), short)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "junction 2")
	assert.Contains(t, err.Error(), "want 4")
}

func TestRunDegenerate(t *testing.T) {
	ohs := distinctOverhangs(2)
	m := noisyMatrix(t, ohs, 3)
	js, err := pool.Build([]pool.Spec{pool.ListSpec(ohs[0]), pool.ListSpec(ohs[1])}, pool.Source{Matrix: m}, pool.DefaultFilter())
	require.NoError(t, err)

	o, err := New(js, fidelity.New(m), quickConfig())
	require.NoError(t, err)
	res, err := o.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, res.Degenerate)
	assert.Zero(t, res.Iterations)
	assert.Empty(t, res.Stages)
	assert.Equal(t, ohs, res.Overhangs)
	assert.Equal(t, PhaseDone, res.Phase)
	assert.InDelta(t, fidelity.New(m).Score(ohs), res.Score, 1e-12)
}

func TestDuplicatePolicy(t *testing.T) {
	ohs := distinctOverhangs(1)
	m := noisyMatrix(t, ohs, 5)
	// Both junctions can only take the same overhang class.
	specs := []pool.Spec{pool.ListSpec(ohs[0]), pool.ListSpec(seq.RevComp(ohs[0]))}
	js, err := pool.Build(specs, pool.Source{Matrix: m}, pool.DefaultFilter())
	require.NoError(t, err)

	cfg := quickConfig()
	cfg.DrawAttempts = 3

	o, err := New(js, fidelity.New(m), cfg)
	require.NoError(t, err)
	res, err := o.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, WarnForcedDuplicate, res.Warnings[0].Kind)
	assert.Equal(t, 1, res.Warnings[0].Junction)

	cfg.Duplicates = PolicyReject
	o, err = New(js, fidelity.New(m), cfg)
	require.NoError(t, err)
	_, err = o.Run(context.Background(), nil)
	assert.True(t, errors.Is(err, ErrDuplicateAssignment))
}

func TestWarningsLoggedAtDebugOnly(t *testing.T) {
	ohs := distinctOverhangs(1)
	m := noisyMatrix(t, ohs, 5)
	specs := []pool.Spec{pool.ListSpec(ohs[0]), pool.ListSpec(seq.RevComp(ohs[0]))}
	js, err := pool.Build(specs, pool.Source{Matrix: m}, pool.DefaultFilter())
	require.NoError(t, err)

	for verbosity, want := range map[int]bool{0: false, 1: true} {
		var lines []string
		log := funcr.New(func(prefix, args string) { lines = append(lines, args) }, funcr.Options{Verbosity: verbosity})
		o, err := New(js, fidelity.New(m), quickConfig(), WithLogger(log))
		require.NoError(t, err)
		res, err := o.Run(context.Background(), nil)
		require.NoError(t, err)
		require.NotEmpty(t, res.Warnings)

		logged := false
		for _, l := range lines {
			if strings.Contains(l, `"msg"="warning"`) && strings.Contains(l, "forced-duplicate") {
				logged = true
			}
		}
		assert.Equal(t, want, logged, "verbosity %d: %v", verbosity, lines)
	}
}

func TestRunDeterministic(t *testing.T) {
	js, ev := fixture(t)
	run := func() Result {
		o, err := New(js, ev, quickConfig(), WithSeed(42))
		require.NoError(t, err)
		res, err := o.Run(context.Background(), nil)
		require.NoError(t, err)
		return res
	}
	a, b := run(), run()
	assert.Equal(t, a.Overhangs, b.Overhangs)
	assert.Equal(t, a.Score, b.Score)
	assert.Equal(t, a.Calibration, b.Calibration)
	assert.Equal(t, len(a.Improvements), len(b.Improvements))
	assert.Equal(t, uint64(42), a.Seed)
}

func TestRunImprovementsAreMonotonic(t *testing.T) {
	js, ev := fixture(t)
	var seen []Record
	o, err := New(js, ev, quickConfig(), WithSeed(9), WithImproveHook(func(r Record) { seen = append(seen, r) }))
	require.NoError(t, err)
	res, err := o.Run(context.Background(), nil)
	require.NoError(t, err)

	require.NotEmpty(t, seen)
	assert.Equal(t, res.Improvements, seen)
	for i := 1; i < len(seen); i++ {
		assert.Greater(t, seen[i].Score, seen[i-1].Score)
	}
	assert.Equal(t, seen[len(seen)-1].Score, res.Score)
	assert.GreaterOrEqual(t, res.Score, res.CalibrationBest.Score)
}

func TestRunScheduleFollowsCalibration(t *testing.T) {
	js, ev := fixture(t)
	cfg := quickConfig()
	o, err := New(js, ev, cfg, WithSeed(3))
	require.NoError(t, err)
	res, err := o.Run(context.Background(), nil)
	require.NoError(t, err)

	cal := res.Calibration
	require.NotEmpty(t, cal.Trials)
	closest := cal.Trials[0]
	for _, tr := range cal.Trials {
		if tr.Distance < closest.Distance {
			closest = tr
		}
	}
	assert.Equal(t, closest.Exponent, cal.Exponent)
	if cal.Converged && len(cal.Trials) > 1 {
		last, prev := cal.Trials[len(cal.Trials)-1], cal.Trials[len(cal.Trials)-2]
		lo, hi := min(last.Ratio, prev.Ratio), max(last.Ratio, prev.Ratio)
		assert.LessOrEqual(t, lo, cfg.TargetRatio)
		assert.GreaterOrEqual(t, hi, cfg.TargetRatio)
	}
	notConverged, outOfTolerance := false, false
	for _, w := range res.Warnings {
		switch w.Kind {
		case WarnCalibrationNotConverged:
			notConverged = true
		case WarnCalibrationOutOfTolerance:
			outOfTolerance = true
		}
	}
	assert.Equal(t, !cal.Converged, notConverged)
	assert.Equal(t, cal.Converged && !cal.Within(cfg.TargetRatio, cfg.CalibrationTolerance), outOfTolerance)
	assert.True(t, cal.Within(0.05, 0.03) || notConverged || outOfTolerance,
		"ratio %.3f neither within tolerance nor reported", cal.Ratio)

	require.Len(t, res.Stages, cfg.Stages)
	for i, s := range res.Stages {
		assert.Equal(t, cal.Exponent-i, s.Exponent)
		assert.Equal(t, PhaseSearching, s.Phase)
		assert.Equal(t, cfg.Iterations, s.Attempted)
		assert.LessOrEqual(t, s.NonImproving, s.Accepted)
		assert.LessOrEqual(t, s.Accepted, s.Useful)
	}
}

func TestRunWarnsWhenCalibrationOvershoots(t *testing.T) {
	js, ev := fixture(t)
	cfg := quickConfig()
	// Every worse move is accepted at exponent 0 and none below it, so the
	// ratio crosses the target in one step without landing near it.
	cfg.Scale = func(e int) float64 {
		if e >= 0 {
			return 1e12
		}
		return 0
	}
	o, err := New(js, ev, cfg, WithSeed(5))
	require.NoError(t, err)
	res, err := o.Run(context.Background(), nil)
	require.NoError(t, err)

	cal := res.Calibration
	require.True(t, cal.Converged)
	require.False(t, cal.Within(cfg.TargetRatio, cfg.CalibrationTolerance), "ratio %.3f", cal.Ratio)
	var kinds []WarningKind
	for _, w := range res.Warnings {
		kinds = append(kinds, w.Kind)
	}
	assert.Contains(t, kinds, WarnCalibrationOutOfTolerance)
	assert.NotContains(t, kinds, WarnCalibrationNotConverged)
}

func TestSearchBeatsRandomSampling(t *testing.T) {
	js, ev := fixture(t)
	o, err := New(js, ev, DefaultConfig(), WithSeed(11))
	require.NoError(t, err)
	res, err := o.Run(context.Background(), nil)
	require.NoError(t, err)

	sampler, err := New(js, ev, DefaultConfig(), WithSeed(12))
	require.NoError(t, err)
	batch, warns, err := sampler.Batch(context.Background(), 200)
	require.NoError(t, err)
	assert.Empty(t, warns)
	require.Len(t, batch, 200)
	for _, b := range batch {
		assert.GreaterOrEqual(t, res.Score, b.Score)
	}
}

func TestBatchUsesPools(t *testing.T) {
	js, ev := fixture(t)
	o, err := New(js, ev, quickConfig(), WithSeed(1))
	require.NoError(t, err)
	batch, _, err := o.Batch(context.Background(), 20)
	require.NoError(t, err)
	for _, rec := range batch {
		for j, oh := range rec.Overhangs {
			assert.Contains(t, js[j].Overhangs(), oh)
		}
		assert.InDelta(t, ev.Score(rec.Overhangs), rec.Score, 1e-12)
	}
}

func TestEvaluateKeepsSites(t *testing.T) {
	ref := []byte("AACCGTTACGATTTAG")
	m := noisyMatrix(t, distinctOverhangs(4), 2)
	js, err := pool.Build([]pool.Spec{pool.WindowSpec(0, 8), pool.WindowSpec(8, 16)}, pool.Source{Matrix: m, Reference: ref}, pool.DefaultFilter())
	require.NoError(t, err)
	o, err := New(js, fidelity.New(m), quickConfig())
	require.NoError(t, err)

	sol := []string{js[0].Candidates[1].Overhang, "GGGA"}
	rec, err := o.Evaluate(sol)
	require.NoError(t, err)
	assert.Equal(t, []int{js[0].Candidates[1].Site, -1}, rec.Sites)
	assert.Equal(t, PhaseDone, rec.Phase)
}

func TestRunCancelled(t *testing.T) {
	js, ev := fixture(t)
	o, err := New(js, ev, quickConfig())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := o.Run(ctx, nil)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Len(t, res.Overhangs, len(js))
}

func TestRunRestartsIndependentOfThreads(t *testing.T) {
	js, ev := fixture(t)
	run := func(threads int) (Result, []Result) {
		best, all, err := RunRestarts(context.Background(), js, ev, RestartConfig{
			Config:   quickConfig(),
			Restarts: 4,
			Threads:  threads,
			Seed:     100,
		})
		require.NoError(t, err)
		return best, all
	}
	b1, all1 := run(1)
	b4, all4 := run(4)
	assert.Equal(t, b1.Overhangs, b4.Overhangs)
	assert.Equal(t, b1.Restart, b4.Restart)
	require.Len(t, all1, 4)
	for r := range all1 {
		assert.Equal(t, uint64(100+r), all1[r].Seed)
		assert.Equal(t, r, all4[r].Restart)
		assert.Equal(t, all1[r].Score, all4[r].Score)
		assert.LessOrEqual(t, all1[r].Score, b1.Score)
	}
}
