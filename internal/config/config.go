// Package config layers flags, OHFID_* environment variables, an optional
// YAML file and defaults into Options, and validates the result.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"ohfid-core/anneal"
	"ohfid-core/optimize"
	"ohfid-core/pool"
	"ohfid-core/seq"
	"ohfid/internal/params"
)

// EnvPrefix is prepended to every environment override (OHFID_MAX_GC, ...).
const EnvPrefix = "OHFID"

var ErrNoJunctions = errors.New("provide --junctions, --overhangs or --params")

// Mode selects the validation rules of one command.
type Mode int

const (
	ModeSearch Mode = iota
	ModeEval
	ModeBatch
	ModePools
)

// Options is the merged configuration of one invocation.
type Options struct {
	// Inputs
	Matrix    string   `mapstructure:"matrix"`
	Reference string   `mapstructure:"reference"`
	Params    string   `mapstructure:"params"`
	Junctions int      `mapstructure:"junctions"`
	Overhangs []string `mapstructure:"overhangs"`
	Init      []string `mapstructure:"init"`

	// Pools
	OverhangLength int      `mapstructure:"overhang-length"`
	MinEfficiency  float64  `mapstructure:"min-efficiency"`
	MaxGC          int      `mapstructure:"max-gc"`
	MaxAT          int      `mapstructure:"max-at"`
	Exclude        []string `mapstructure:"exclude"`
	ParamWindow    int      `mapstructure:"param-window"`

	// Scoring
	IgnoreMismatch []string `mapstructure:"ignore-mismatch"`
	Minimize       bool     `mapstructure:"minimize"`

	// Search
	TargetRatio           float64 `mapstructure:"target-ratio"`
	CalibrationTolerance  float64 `mapstructure:"calibration-tolerance"`
	Iterations            int     `mapstructure:"iterations"`
	Stages                int     `mapstructure:"stages"`
	CalibrationIterations int     `mapstructure:"calibration-iterations"`
	CalibrationSteps      int     `mapstructure:"calibration-steps"`
	DrawAttempts          int     `mapstructure:"draw-attempts"`
	DuplicatePolicy       string  `mapstructure:"duplicate-policy"`
	ScaleUnit             float64 `mapstructure:"scale-unit"`
	ScaleBase             float64 `mapstructure:"scale-base"`
	Seed                  int64   `mapstructure:"seed"`
	Restarts              int     `mapstructure:"restarts"`
	Threads               int     `mapstructure:"threads"`

	// Batch
	Samples int    `mapstructure:"samples"`
	Results string `mapstructure:"results"`

	// Output
	Format        string  `mapstructure:"format"`
	WeakThreshold float64 `mapstructure:"weak-threshold"`
	Quiet         bool    `mapstructure:"quiet"`
	Verbosity     int     `mapstructure:"verbosity"`
}

// Defaults returns the stock configuration.
func Defaults() Options {
	d := optimize.DefaultConfig()
	return Options{
		OverhangLength:        4,
		MaxGC:                 -1,
		MaxAT:                 -1,
		ParamWindow:           10,
		TargetRatio:           d.TargetRatio,
		CalibrationTolerance:  d.CalibrationTolerance,
		Iterations:            d.Iterations,
		Stages:                d.Stages,
		CalibrationIterations: d.CalibrationIterations,
		CalibrationSteps:      d.CalibrationSteps,
		DrawAttempts:          d.DrawAttempts,
		DuplicatePolicy:       d.Duplicates.String(),
		ScaleUnit:             anneal.DefaultUnit,
		ScaleBase:             anneal.DefaultBase,
		Restarts:              1,
		Samples:               200,
		Results:               "-",
		Format:                "text",
		WeakThreshold:         0.9,
	}
}

// Register defines every option flag on fs with its default.
func Register(fs *pflag.FlagSet) {
	d := Defaults()

	fs.StringP("matrix", "m", "", "ligation frequency CSV (required)")
	fs.String("reference", "", "reference FASTA for window pools ('-' = stdin)")
	fs.String("params", "", "positional-parameter file (TSV or YAML)")
	fs.IntP("junctions", "n", 0, "number of junctions (each pool defaults to 'all')")
	fs.StringArrayP("overhangs", "o", nil, "per-junction pool: 'all', '[a,b)' / 'a-b' window, or comma list (repeatable)")
	fs.StringSlice("init", nil, "initial (or, for eval, the scored) assignment")

	fs.IntP("overhang-length", "k", d.OverhangLength, "overhang length")
	fs.Float64("min-efficiency", d.MinEfficiency, "drop overhangs whose correct-pair frequency is below this")
	fs.Int("max-gc", d.MaxGC, "maximum G+C count per overhang (-1 = off)")
	fs.Int("max-at", d.MaxAT, "maximum A+T count per overhang (-1 = off)")
	fs.StringSlice("exclude", nil, "overhangs never used (reverse complements included)")
	fs.Int("param-window", d.ParamWindow, "bases either side of a positional parameter")

	fs.StringSlice("ignore-mismatch", nil, "base-pair mismatches to disregard, e.g. G-T")
	fs.Bool("minimize", false, "search for the lowest fidelity instead")

	fs.Float64("target-ratio", d.TargetRatio, "calibration target acceptance ratio")
	fs.Float64("calibration-tolerance", d.CalibrationTolerance, "warn when the calibrated ratio lands further than this from the target")
	fs.IntP("iterations", "i", d.Iterations, "trials per search stage")
	fs.Int("stages", d.Stages, "search stages (descending temperature exponents)")
	fs.Int("calibration-iterations", d.CalibrationIterations, "trials per calibration pass")
	fs.Int("calibration-steps", d.CalibrationSteps, "maximum calibration exponent moves")
	fs.Int("draw-attempts", d.DrawAttempts, "random draws per junction before a duplicate is forced")
	fs.String("duplicate-policy", d.DuplicatePolicy, "when draws keep colliding: force | reject")
	fs.Float64("scale-unit", d.ScaleUnit, "temperature scale unit")
	fs.Float64("scale-base", d.ScaleBase, "temperature scale base")
	fs.Int64("seed", 0, "random seed (0 = derive from the clock)")
	fs.Int("restarts", d.Restarts, "independent searches; the best one is reported")
	fs.IntP("threads", "t", 0, "parallel restarts (0 = all CPUs)")

	fs.Int("samples", d.Samples, "batch: random assignments to score")
	fs.String("results", d.Results, "batch: results file ('-' = stdout)")

	fs.StringP("format", "f", d.Format, "output: text | json | jsonl | yaml")
	fs.Float64("weak-threshold", d.WeakThreshold, "flag junctions whose fidelity is below this")
	fs.BoolP("quiet", "q", false, "suppress warnings")
	fs.CountP("verbosity", "V", "log verbosity (-V debug, -VV trace)")
}

// Load merges fs, the environment, configFile (if non-empty) and defaults.
func Load(fs *pflag.FlagSet, configFile string) (Options, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return Options{}, err
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Options{}, fmt.Errorf("config %s: %w", configFile, err)
		}
	}
	o := Defaults()
	if err := v.Unmarshal(&o); err != nil {
		return Options{}, fmt.Errorf("config: %w", err)
	}
	return o, nil
}

// Validate returns the first violated rule for mode.
func (o Options) Validate(mode Mode) error {
	if o.Matrix == "" {
		return errors.New("--matrix is required")
	}
	if o.Junctions < 0 {
		return errors.New("--junctions must be ≥ 0")
	}
	if o.OverhangLength < 1 {
		return errors.New("--overhang-length must be ≥ 1")
	}
	if o.MinEfficiency < 0 {
		return errors.New("--min-efficiency must be ≥ 0")
	}
	if o.MaxGC < -1 || o.MaxAT < -1 {
		return errors.New("--max-gc and --max-at must be ≥ -1")
	}
	if o.ParamWindow < 0 {
		return errors.New("--param-window must be ≥ 0")
	}
	if o.Params != "" && o.Reference == "" {
		return errors.New("--params needs --reference")
	}
	if o.Params != "" && len(o.Overhangs) > 0 {
		return errors.New("--params conflicts with --overhangs")
	}
	switch o.Format {
	case "text", "json", "jsonl", "yaml":
	default:
		return fmt.Errorf("invalid --format %q", o.Format)
	}
	if o.WeakThreshold < 0 || o.WeakThreshold > 1 {
		return errors.New("--weak-threshold must be within [0,1]")
	}

	if mode == ModeEval {
		if len(o.Init) == 0 {
			return errors.New("eval needs the assignment in --init")
		}
		return nil
	}
	if o.Params == "" && len(o.Overhangs) == 0 && o.Junctions == 0 {
		return ErrNoJunctions
	}
	if mode == ModePools {
		return nil
	}

	if _, err := optimize.ParseDuplicatePolicy(o.DuplicatePolicy); err != nil {
		return fmt.Errorf("--duplicate-policy: %w", err)
	}
	if o.DrawAttempts < 1 {
		return errors.New("--draw-attempts must be ≥ 1")
	}
	if mode == ModeBatch {
		if o.Samples < 1 {
			return errors.New("--samples must be ≥ 1")
		}
		if o.Results == "" {
			return errors.New("--results must not be empty")
		}
		return nil
	}

	for i, raw := range o.Init {
		if _, err := seq.Validate(raw, o.OverhangLength); err != nil {
			return fmt.Errorf("--init overhang %d: %w", i+1, err)
		}
	}
	if !(o.TargetRatio > 0 && o.TargetRatio < 1) {
		return errors.New("--target-ratio must be within (0,1)")
	}
	if !(o.CalibrationTolerance > 0 && o.CalibrationTolerance < 1) {
		return errors.New("--calibration-tolerance must be within (0,1)")
	}
	if o.Iterations < 1 || o.Stages < 1 {
		return errors.New("--iterations and --stages must be ≥ 1")
	}
	if o.CalibrationIterations < 1 || o.CalibrationSteps < 1 {
		return errors.New("--calibration-iterations and --calibration-steps must be ≥ 1")
	}
	if _, err := anneal.ExpScale(o.ScaleUnit, o.ScaleBase); err != nil {
		return err
	}
	if o.Restarts < 1 {
		return errors.New("--restarts must be ≥ 1")
	}
	if o.Threads < 0 {
		return errors.New("--threads must be ≥ 0")
	}
	return nil
}

// Filter returns the candidate filter.
func (o Options) Filter() pool.Filter {
	return pool.Filter{
		Length:        o.OverhangLength,
		Exclude:       o.Exclude,
		MinEfficiency: o.MinEfficiency,
		MaxGC:         o.MaxGC,
		MaxAT:         o.MaxAT,
	}
}

// Specs resolves the per-junction pool specs. A single --overhangs value is
// reused for every junction when --junctions is larger than one.
func (o Options) Specs() ([]pool.Spec, error) {
	switch {
	case o.Params != "":
		entries, err := params.Load(o.Params)
		if err != nil {
			return nil, err
		}
		if o.Junctions > 0 && o.Junctions != len(entries) {
			return nil, fmt.Errorf("--junctions %d but %s lists %d positions", o.Junctions, o.Params, len(entries))
		}
		return params.Specs(entries, o.OverhangLength, o.ParamWindow), nil

	case len(o.Overhangs) > 0:
		raw := o.Overhangs
		n := o.Junctions
		if n == 0 {
			n = len(raw)
		}
		if len(raw) == 1 && n > 1 {
			raw = make([]string, n)
			for i := range raw {
				raw[i] = o.Overhangs[0]
			}
		}
		if len(raw) != n {
			return nil, fmt.Errorf("--junctions %d but %d --overhangs specs", n, len(raw))
		}
		specs := make([]pool.Spec, n)
		for i, r := range raw {
			sp, err := pool.ParseSpec(r, o.OverhangLength)
			if err != nil {
				return nil, fmt.Errorf("junction %d: %w", i+1, err)
			}
			specs[i] = sp
		}
		return specs, nil

	case o.Junctions > 0:
		specs := make([]pool.Spec, o.Junctions)
		for i := range specs {
			specs[i] = pool.Spec{Kind: pool.KindAll, Raw: pool.AllSentinel}
		}
		return specs, nil
	}
	return nil, ErrNoJunctions
}

// SearchConfig converts the search options.
func (o Options) SearchConfig() (optimize.Config, error) {
	policy, err := optimize.ParseDuplicatePolicy(o.DuplicatePolicy)
	if err != nil {
		return optimize.Config{}, err
	}
	scale, err := anneal.ExpScale(o.ScaleUnit, o.ScaleBase)
	if err != nil {
		return optimize.Config{}, err
	}
	return optimize.Config{
		Iterations:            o.Iterations,
		Stages:                o.Stages,
		TargetRatio:           o.TargetRatio,
		CalibrationTolerance:  o.CalibrationTolerance,
		CalibrationIterations: o.CalibrationIterations,
		CalibrationSteps:      o.CalibrationSteps,
		DrawAttempts:          o.DrawAttempts,
		Duplicates:            policy,
		Scale:                 scale,
	}, nil
}

// EffectiveSeed returns the configured seed, or one derived from now when
// the seed is 0.
func (o Options) EffectiveSeed(now time.Time) uint64 {
	if o.Seed != 0 {
		return uint64(o.Seed)
	}
	return uint64(now.UnixNano())
}
