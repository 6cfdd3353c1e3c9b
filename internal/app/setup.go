package app

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"ohfid-core/fasta"
	"ohfid-core/fidelity"
	"ohfid-core/ligation"
	"ohfid-core/pool"
	"ohfid/internal/config"
	"ohfid/internal/logging"
)

// run is the state shared by every command after configuration.
type run struct {
	opts   config.Options
	log    logr.Logger
	matrix *ligation.Matrix
	eval   *fidelity.Evaluator
}

func prepare(cmd *cobra.Command, e *env, mode config.Mode) (*run, error) {
	opts, err := config.Load(cmd.Flags(), e.cfgFile)
	if err != nil {
		return nil, usageErr(err)
	}
	if err := opts.Validate(mode); err != nil {
		return nil, usageErr(err)
	}
	r := &run{opts: opts, log: logging.New(e.stderr, opts.Verbosity)}

	r.matrix, err = ligation.Load(opts.Matrix)
	if err != nil {
		return nil, usageErr(err)
	}
	if k := r.matrix.OverhangLength(); k != 0 && k != opts.OverhangLength {
		return nil, usagef("matrix overhangs have length %d but --overhang-length is %d", k, opts.OverhangLength)
	}
	r.log.V(logging.DEBUG).Info("loaded matrix", "path", opts.Matrix, "overhangs", len(r.matrix.Overhangs()), "labels", r.matrix.Len())

	ignore, err := fidelity.ParseIgnoreSet(opts.IgnoreMismatch)
	if err != nil {
		return nil, usageErr(fmt.Errorf("--ignore-mismatch: %w", err))
	}
	r.eval = fidelity.New(r.matrix, fidelity.WithIgnore(ignore), fidelity.WithMinimize(opts.Minimize))
	return r, nil
}

// pools resolves the junction specs and builds the filtered pools.
func (r *run) pools(ctx context.Context) ([]pool.Junction, error) {
	specs, err := r.opts.Specs()
	if err != nil {
		return nil, usageErr(err)
	}
	src := pool.Source{Matrix: r.matrix}
	if r.opts.Reference != "" {
		rec, err := fasta.LoadOne(ctx, r.opts.Reference, "")
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, usageErr(err)
		}
		src.Reference = rec.Seq
		r.log.V(logging.DEBUG).Info("loaded reference", "id", rec.ID, "length", len(rec.Seq))
	}
	js, err := pool.Build(specs, src, r.opts.Filter())
	if err != nil {
		return nil, usageErr(err)
	}
	for _, j := range js {
		r.log.V(logging.DEBUG).Info("pool", "junction", j.Index+1, "spec", j.Spec.Raw,
			"candidates", len(j.Candidates), "dropped", j.Dropped)
	}
	return js, nil
}
