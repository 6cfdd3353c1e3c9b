package anneal

import (
	"errors"
	"math"
)

// Calibration defaults.
const (
	DefaultTargetRatio = 0.05
	DefaultTolerance   = 0.03
	DefaultMaxSteps    = 100
)

// TrialFunc runs one fixed-length search pass at exponent and returns the
// measured acceptance ratio.
type TrialFunc func(exponent int) (float64, error)

// CalibrationConfig controls Calibrate.
type CalibrationConfig struct {
	Target   float64 // acceptance ratio to hit
	MaxSteps int     // exponent moves allowed after the first trial
	Start    int     // first exponent tried
}

// Trial records one measured exponent.
type Trial struct {
	Exponent int
	Ratio    float64
	Distance float64 // |Target - Ratio|
}

// Calibration is the outcome of Calibrate. Converged is false when the step
// cap ran out before the measured ratio crossed the target; Exponent is still
// the closest one seen.
type Calibration struct {
	Exponent  int
	Ratio     float64
	Converged bool
	Trials    []Trial
}

// Within reports whether the chosen exponent measured within tol of target.
func (c Calibration) Within(target, tol float64) bool {
	return math.Abs(c.Ratio-target) <= tol
}

// Calibrate walks the exponent down while the ratio is above target (or up
// while below) until it crosses the target or MaxSteps moves were made, and
// returns the exponent whose ratio was closest to the target.
func Calibrate(trial TrialFunc, cfg CalibrationConfig) (Calibration, error) {
	if trial == nil {
		return Calibration{}, errors.New("anneal: nil trial func")
	}
	if cfg.MaxSteps < 0 {
		cfg.MaxSteps = 0
	}
	var cal Calibration
	run := func(e int) (float64, error) {
		r, err := trial(e)
		if err != nil {
			return 0, err
		}
		cal.Trials = append(cal.Trials, Trial{Exponent: e, Ratio: r, Distance: math.Abs(cfg.Target - r)})
		return r, nil
	}

	e := cfg.Start
	r, err := run(e)
	if err != nil {
		return cal, err
	}
	switch {
	case r == cfg.Target:
		cal.Converged = true
	case r > cfg.Target:
		for step := 0; step < cfg.MaxSteps; step++ {
			e--
			if r, err = run(e); err != nil {
				return cal, err
			}
			if r <= cfg.Target {
				cal.Converged = true
				break
			}
		}
	default:
		for step := 0; step < cfg.MaxSteps; step++ {
			e++
			if r, err = run(e); err != nil {
				return cal, err
			}
			if r >= cfg.Target {
				cal.Converged = true
				break
			}
		}
	}

	best := cal.Trials[0]
	for _, t := range cal.Trials[1:] {
		if t.Distance < best.Distance {
			best = t
		}
	}
	cal.Exponent = best.Exponent
	cal.Ratio = best.Ratio
	return cal, nil
}
