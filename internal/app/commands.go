package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"ohfid-core/optimize"
	"ohfid-core/pool"
	"ohfid-core/seq"
	"ohfid/internal/cmdutil"
	"ohfid/internal/config"
	"ohfid/internal/logging"
	"ohfid/internal/output"
	"ohfid/internal/writers"
	"ohfid/pkg/api"
)

func streaming(format string) bool {
	return format == output.FormatText || format == output.FormatJSONL
}

// finishRecord prints the per-junction breakdown (text) and weak-junction
// warnings for a final record.
func finishRecord(e *env, o config.Options, v api.RecordV1) error {
	if o.Format == output.FormatText {
		if err := output.WritePerJunctionText(e.stdout, v); err != nil {
			return ioErr(err)
		}
	}
	cmdutil.WarnWeak(e.stderr, o.Quiet, v.Weak, v.Overhangs, v.PerJunction, o.WeakThreshold)
	return nil
}

func runOptimize(cmd *cobra.Command, e *env) error {
	ctx := cmd.Context()
	r, err := prepare(cmd, e, config.ModeSearch)
	if err != nil {
		return err
	}
	js, err := r.pools(ctx)
	if err != nil {
		return err
	}
	o := r.opts
	if o.Format == output.FormatText {
		if err := output.WritePoolsText(e.stdout, output.ToAPIPools(js)); err != nil {
			return ioErr(err)
		}
	}

	cfg, err := o.SearchConfig()
	if err != nil {
		return usageErr(err)
	}
	seed := o.EffectiveSeed(time.Now())
	if o.Seed == 0 {
		r.log.Info("derived seed from clock", "seed", seed)
	}

	var (
		stream chan<- api.RecordV1
		done   <-chan error
	)
	if streaming(o.Format) {
		stream, done = writers.StartRecordWriter(e.stdout, o.Format, o.Format == output.FormatText, 64)
	}
	emit := func(rec optimize.Record) {
		if stream != nil {
			stream <- output.ToAPIRecord(rec, o.WeakThreshold)
		}
	}

	var init []string
	if len(o.Init) > 0 {
		init = o.Init
	}
	var res optimize.Result
	var runErr error
	if o.Restarts == 1 {
		var opt *optimize.Optimizer
		opt, runErr = optimize.New(js, r.eval, cfg,
			optimize.WithSeed(seed), optimize.WithLogger(r.log), optimize.WithImproveHook(emit))
		if runErr == nil {
			res, runErr = opt.Run(ctx, init)
		}
	} else {
		var all []optimize.Result
		res, all, runErr = optimize.RunRestarts(ctx, js, r.eval, optimize.RestartConfig{
			Config:   cfg,
			Restarts: o.Restarts,
			Threads:  o.Threads,
			Seed:     seed,
			Init:     init,
		}, optimize.WithLogger(r.log))
		for _, rr := range all {
			r.log.V(logging.DEBUG).Info("restart done", "restart", rr.Restart, "seed", rr.Seed, "score", rr.Score)
		}
		for _, rec := range res.Improvements {
			emit(rec)
		}
	}
	if stream != nil {
		close(stream)
		if err := <-done; err != nil {
			return ioErr(err)
		}
	}
	if runErr != nil && len(res.Overhangs) == 0 {
		return classify(runErr)
	}

	cmdutil.WarnAll(e.stderr, o.Quiet, res.Warnings)
	doc := output.ToAPIResult(res, o.Restarts, o.WeakThreshold)
	switch o.Format {
	case output.FormatText:
		if err := output.WriteStagesText(e.stdout, doc); err != nil {
			return ioErr(err)
		}
	case output.FormatJSON, output.FormatYAML:
		if err := writers.WriteDocument(o.Format, e.stdout, doc); err != nil {
			return ioErr(err)
		}
	}
	if err := finishRecord(e, o, doc.Best); err != nil {
		return err
	}
	return classify(runErr)
}

// classify maps core errors to exit classes: cancellation keeps its own
// code, everything else the core reports is a configuration problem.
func classify(err error) error {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return usageErr(err)
}

func runEval(cmd *cobra.Command, e *env) error {
	r, err := prepare(cmd, e, config.ModeEval)
	if err != nil {
		return err
	}
	o := r.opts
	sol := make([]string, len(o.Init))
	for i, raw := range o.Init {
		if sol[i], err = seq.Validate(raw, o.OverhangLength); err != nil {
			return usagef("--init junction %d: %v", i+1, err)
		}
	}
	if o.Junctions > 0 && o.Junctions != len(sol) {
		return usageErr(fmt.Errorf("%w: got %d overhangs for %d junctions", optimize.ErrInitLength, len(sol), o.Junctions))
	}

	rec := optimize.Evaluate(r.eval, sol)
	if o.Params != "" || len(o.Overhangs) > 0 {
		// Pools are known: report reference sites too.
		js, err := r.pools(cmd.Context())
		if err != nil {
			return err
		}
		opt, err := optimize.New(js, r.eval, optimize.DefaultConfig())
		if err != nil {
			return classify(err)
		}
		if rec, err = opt.Evaluate(sol); err != nil {
			return classify(err)
		}
	}

	v := output.ToAPIRecord(rec, o.WeakThreshold)
	if o.Format == output.FormatText {
		if err := output.WriteRecordText(e.stdout, v); err != nil {
			return ioErr(err)
		}
	} else if err := writers.WriteDocument(o.Format, e.stdout, v); err != nil {
		return ioErr(err)
	}
	return finishRecord(e, o, v)
}

func runBatch(cmd *cobra.Command, e *env) error {
	ctx := cmd.Context()
	r, err := prepare(cmd, e, config.ModeBatch)
	if err != nil {
		return err
	}
	js, err := r.pools(ctx)
	if err != nil {
		return err
	}
	o := r.opts
	cfg, err := o.SearchConfig()
	if err != nil {
		return usageErr(err)
	}
	seed := o.EffectiveSeed(time.Now())
	if o.Seed == 0 {
		r.log.Info("derived seed from clock", "seed", seed)
	}
	opt, err := optimize.New(js, r.eval, cfg, optimize.WithSeed(seed), optimize.WithLogger(r.log))
	if err != nil {
		return classify(err)
	}
	recs, warns, runErr := opt.Batch(ctx, o.Samples)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return classify(runErr)
	}
	cmdutil.WarnAll(e.stderr, o.Quiet, warns)

	dst, err := writers.OpenResults(ctx, o.Results, e.stdout)
	if err != nil {
		return ioErr(err)
	}
	doc := output.ToAPIBatch(recs, warns, seed, o.WeakThreshold)
	werr := writeBatch(dst, o.Format, doc)
	if cerr := dst.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return ioErr(werr)
	}
	if streaming(o.Format) {
		if err := output.WriteSummaryText(e.stderr, doc.Summary); err != nil {
			return ioErr(err)
		}
	}
	return classify(runErr)
}

func writeBatch(w io.Writer, format string, doc api.BatchV1) error {
	if !streaming(format) {
		return writers.WriteDocument(format, w, doc)
	}
	in, done := writers.StartRecordWriter(w, format, format == output.FormatText, 64)
	for _, rec := range doc.Records {
		in <- rec
	}
	close(in)
	return <-done
}

func runPools(cmd *cobra.Command, e *env) error {
	r, err := prepare(cmd, e, config.ModePools)
	if err != nil {
		return err
	}
	js, err := r.pools(cmd.Context())
	if err != nil {
		return err
	}
	pools := output.ToAPIPools(js)
	r.log.Info("pools built", "junctions", len(js), "variable", pool.VariableCount(js))
	if r.opts.Format == output.FormatText {
		return ioErr(output.WritePoolsText(e.stdout, pools))
	}
	return ioErr(writers.WriteDocument(r.opts.Format, e.stdout, pools))
}
