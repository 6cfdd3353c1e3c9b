package optimize

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/go-logr/logr"

	"ohfid-core/anneal"
	"ohfid-core/fidelity"
	"ohfid-core/pool"
	"ohfid-core/seq"
)

// DefaultSeed is used when no generator is injected.
const DefaultSeed uint64 = 1

// ctxCheckEvery is how many trials run between cancellation checks.
const ctxCheckEvery = 256

// Optimizer runs the annealed search over fixed pools.
type Optimizer struct {
	js       []pool.Junction
	eval     *fidelity.Evaluator
	cfg      Config
	rng      *rand.Rand
	seed     uint64
	log      logr.Logger
	onRecord func(Record)
	variable []int
	warnings []Warning
}

// Option customizes an Optimizer.
type Option func(*Optimizer)

// WithSeed seeds a fresh PCG generator.
func WithSeed(seed uint64) Option {
	return func(o *Optimizer) {
		o.seed = seed
		o.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithRand injects a generator. The caller owns its seeding.
func WithRand(r *rand.Rand) Option {
	if r == nil {
		panic("optimize: WithRand(nil)")
	}
	return func(o *Optimizer) { o.rng = r }
}

// WithLogger sets the structured logger (default: discard).
func WithLogger(l logr.Logger) Option { return func(o *Optimizer) { o.log = l } }

// WithImproveHook is called synchronously for every new best-so-far
// assignment, in order, starting with the initial one.
func WithImproveHook(fn func(Record)) Option { return func(o *Optimizer) { o.onRecord = fn } }

// New validates the pools and returns an Optimizer.
func New(js []pool.Junction, ev *fidelity.Evaluator, cfg Config, opts ...Option) (*Optimizer, error) {
	if len(js) == 0 {
		return nil, ErrNoJunctions
	}
	if ev == nil {
		return nil, fmt.Errorf("optimize: nil evaluator")
	}
	o := &Optimizer{js: js, eval: ev, cfg: cfg.withDefaults(), log: logr.Discard()}
	WithSeed(DefaultSeed)(o)
	for _, opt := range opts {
		opt(o)
	}
	for i, j := range js {
		switch {
		case len(j.Candidates) == 0:
			return nil, fmt.Errorf("junction %d: %w", i+1, pool.ErrEmptyPool)
		case j.Variable():
			o.variable = append(o.variable, i)
		}
	}
	return o, nil
}

// Junctions returns the pools the optimizer searches.
func (o *Optimizer) Junctions() []pool.Junction { return o.js }

// Config returns the effective configuration.
func (o *Optimizer) Config() Config { return o.cfg }

// draw picks a candidate for junction j, retrying collisions up to
// DrawAttempts times.
func (o *Optimizer) draw(st *state, j int) (int, DrawOutcome) {
	cands := o.js[j].Candidates
	ci := 0
	for attempt := 0; attempt < o.cfg.DrawAttempts; attempt++ {
		ci = o.rng.IntN(len(cands))
		if !st.collides(j, cands[ci].Overhang) {
			return ci, Accepted
		}
	}
	if o.cfg.Duplicates == PolicyReject {
		return ci, Rejected
	}
	return ci, ForcedDuplicate
}

// randomState fills a fresh state with a random, collision-avoiding draw.
func (o *Optimizer) randomState() (*state, error) {
	st := newState(len(o.js))
	for j := range o.js {
		ci, out := o.draw(st, j)
		oh := o.js[j].Candidates[ci].Overhang
		switch out {
		case Rejected:
			return nil, fmt.Errorf("junction %d: %w", j+1, ErrDuplicateAssignment)
		case ForcedDuplicate:
			o.warn(Warning{
				Kind:     WarnForcedDuplicate,
				Junction: j,
				Message:  fmt.Sprintf("junction %d: kept %s after %d colliding draws", j+1, oh, o.cfg.DrawAttempts),
			})
		}
		st.set(j, oh, ci)
	}
	return st, nil
}

func (o *Optimizer) seededState(init []string) (*state, error) {
	if len(init) != len(o.js) {
		return nil, fmt.Errorf("%w: got %d overhangs for %d junctions", ErrInitLength, len(init), len(o.js))
	}
	st := newState(len(o.js))
	for j, raw := range init {
		oh, err := seq.Validate(raw, len(o.js[j].Candidates[0].Overhang))
		if err != nil {
			return nil, fmt.Errorf("initial assignment, junction %d: %w", j+1, err)
		}
		if st.collides(j, oh) {
			o.warn(Warning{
				Kind:     WarnForcedDuplicate,
				Junction: j,
				Message:  fmt.Sprintf("junction %d: initial overhang %s repeats an earlier junction", j+1, oh),
			})
		}
		st.set(j, oh, candidateIndex(o.js[j], oh))
	}
	return st, nil
}

func (o *Optimizer) warn(w Warning) {
	o.warnings = append(o.warnings, w)
	o.log.V(1).Info("warning", "kind", w.Kind.String(), "junction", w.Junction+1, "message", w.Message)
}

func (o *Optimizer) record(st *state, ph Phase, stage, trial int) Record {
	r := o.eval.Evaluate(st.best)
	return Record{
		Score:       r.Score,
		Fidelity:    r.Fidelity,
		PerJunction: r.PerJunction,
		Overhangs:   append([]string(nil), st.best...),
		Sites:       sitesOf(o.js, st.bestCand),
		Phase:       ph,
		Stage:       stage,
		Trial:       trial,
	}
}

// Run performs a full CALIBRATING → SEARCHING → DONE cycle. init, when
// non-nil, seeds the assignment and must have one overhang per junction.
// On cancellation the best result so far is returned with ctx.Err().
func (o *Optimizer) Run(ctx context.Context, init []string) (Result, error) {
	o.warnings = nil
	var (
		st  *state
		err error
	)
	if init != nil {
		st, err = o.seededState(init)
	} else {
		st, err = o.randomState()
	}
	if err != nil {
		return Result{}, err
	}
	st.score = o.eval.Score(st.sol)
	st.snapshot()

	res := Result{Seed: o.seed}
	o.improved(&res, st, PhaseCalibrating, -1, 0)

	if len(o.variable) == 0 {
		res.Degenerate = true
		res.Record = o.record(st, PhaseDone, -1, 0)
		res.CalibrationBest = res.Record
		res.Warnings = o.warnings
		return res, nil
	}

	// CALIBRATING
	cal, err := anneal.Calibrate(func(e int) (float64, error) {
		stats, err := o.pass(ctx, st, &res, PhaseCalibrating, -1, e, o.cfg.CalibrationIterations)
		if err != nil {
			return 0, err
		}
		o.log.V(1).Info("calibration trial", "exponent", e, "ratio", stats.Ratio, "best", stats.Best)
		return stats.Ratio, nil
	}, anneal.CalibrationConfig{Target: o.cfg.TargetRatio, MaxSteps: o.cfg.CalibrationSteps})
	res.Calibration = cal
	if err != nil {
		return o.finish(res, st), err
	}
	switch {
	case !cal.Converged:
		o.warn(Warning{
			Kind:     WarnCalibrationNotConverged,
			Junction: -1,
			Message: fmt.Sprintf("acceptance ratio did not cross %.3g within %d steps; using exponent %d (ratio %.3g)",
				o.cfg.TargetRatio, o.cfg.CalibrationSteps, cal.Exponent, cal.Ratio),
		})
	case !cal.Within(o.cfg.TargetRatio, o.cfg.CalibrationTolerance):
		o.warn(Warning{
			Kind:     WarnCalibrationOutOfTolerance,
			Junction: -1,
			Message: fmt.Sprintf("closest acceptance ratio %.3g (exponent %d) is more than %.3g from target %.3g",
				cal.Ratio, cal.Exponent, o.cfg.CalibrationTolerance, o.cfg.TargetRatio),
		})
	}
	res.CalibrationBest = o.record(st, PhaseCalibrating, -1, 0)

	// SEARCHING starts from the best assignment calibration produced.
	st.restore()
	for i, e := range anneal.Descending(cal.Exponent, o.cfg.Stages) {
		stats, err := o.pass(ctx, st, &res, PhaseSearching, i, e, o.cfg.Iterations)
		res.Stages = append(res.Stages, stats)
		res.Iterations += stats.Useful
		if err != nil {
			return o.finish(res, st), err
		}
		o.log.V(1).Info("stage done", "stage", i, "exponent", e, "ratio", stats.Ratio,
			"useful", stats.Useful, "accepted", stats.Accepted, "best", stats.Best)
	}
	return o.finish(res, st), nil
}

func (o *Optimizer) finish(res Result, st *state) Result {
	res.Record = o.record(st, PhaseDone, -1, 0)
	res.Warnings = o.warnings
	return res
}

func (o *Optimizer) improved(res *Result, st *state, ph Phase, stage, trial int) {
	rec := o.record(st, ph, stage, trial)
	res.Improvements = append(res.Improvements, rec)
	o.log.V(2).Info("improved", "phase", ph.String(), "stage", stage, "score", rec.Score, "overhangs", rec.Overhangs)
	if o.onRecord != nil {
		o.onRecord(rec)
	}
}

// pass runs iters Metropolis trials at one exponent on st.
func (o *Optimizer) pass(ctx context.Context, st *state, res *Result, ph Phase, stage, exponent, iters int) (StageStats, error) {
	scale := o.cfg.Scale(exponent)
	stats := StageStats{Phase: ph, Exponent: exponent, Scale: scale}

	for it := 0; it < iters; it++ {
		if it%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				stats.Best = st.bestScore
				return finalize(stats), err
			}
		}
		stats.Attempted++

		j := o.variable[o.rng.IntN(len(o.variable))]
		cands := o.js[j].Candidates
		ci := o.rng.IntN(len(cands))
		cand := cands[ci].Overhang
		if cand == st.sol[j] || st.collides(j, cand) {
			continue
		}
		stats.Useful++

		prev, prevCI := st.sol[j], st.cand[j]
		st.set(j, cand, ci)
		next := o.eval.Score(st.sol)
		delta := next - st.score
		if !anneal.Accept(delta, scale, o.rng.Float64()) {
			st.set(j, prev, prevCI)
			continue
		}
		stats.Accepted++
		if delta <= 0 {
			stats.NonImproving++
		}
		st.score = next
		if next > st.bestScore {
			st.snapshot()
			o.improved(res, st, ph, stage, it)
		}
	}
	stats.Best = st.bestScore
	return finalize(stats), nil
}

func finalize(s StageStats) StageStats {
	if s.Attempted > 0 {
		s.Ratio = float64(s.NonImproving) / float64(s.Attempted)
	}
	return s
}
