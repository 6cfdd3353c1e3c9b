package optimize

import (
	"context"
	"fmt"

	"ohfid-core/fidelity"
)

// Evaluate scores a fixed assignment without searching.
func Evaluate(ev *fidelity.Evaluator, sol []string) Record {
	r := ev.Evaluate(sol)
	sites := make([]int, len(sol))
	for i := range sites {
		sites[i] = -1
	}
	return Record{
		Score:       r.Score,
		Fidelity:    r.Fidelity,
		PerJunction: r.PerJunction,
		Overhangs:   append([]string(nil), sol...),
		Sites:       sites,
		Phase:       PhaseDone,
		Stage:       -1,
	}
}

// Evaluate scores sol against the optimizer's junctions. Overhangs that
// belong to a junction's pool keep their reference site.
func (o *Optimizer) Evaluate(sol []string) (Record, error) {
	if len(sol) != len(o.js) {
		return Record{}, fmt.Errorf("%w: got %d overhangs for %d junctions", ErrInitLength, len(sol), len(o.js))
	}
	rec := Evaluate(o.eval, sol)
	for j, oh := range rec.Overhangs {
		if ci := candidateIndex(o.js[j], oh); ci >= 0 {
			rec.Sites[j] = o.js[j].Candidates[ci].Site
		}
	}
	return rec, nil
}

// Batch draws n independent random assignments from the pools and scores
// each one. Draws follow the same duplicate policy as a search.
func (o *Optimizer) Batch(ctx context.Context, n int) ([]Record, []Warning, error) {
	o.warnings = nil
	out := make([]Record, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return out, o.warnings, err
		}
		st, err := o.randomState()
		if err != nil {
			return out, o.warnings, err
		}
		st.score = o.eval.Score(st.sol)
		st.snapshot()
		rec := o.record(st, PhaseDone, -1, i)
		out = append(out, rec)
		o.log.V(2).Info("batch sample", "n", i, "score", rec.Score)
	}
	return out, o.warnings, nil
}
