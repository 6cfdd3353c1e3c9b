// Package anneal holds the temperature side of the search: how a stage's
// exponent maps to an acceptance scale, the Metropolis rule, the descending
// schedule and the calibration that picks the schedule's first exponent.
package anneal

import (
	"fmt"
	"math"
)

// Scale maps a temperature exponent to the scale used by the Metropolis
// rule. It must increase with the exponent.
type Scale func(exponent int) float64

// Default scale parameters. They are a tuning knob with no physical meaning.
const (
	DefaultUnit = 1e-3
	DefaultBase = 2.0
)

// ExpScale returns unit·base^exponent.
func ExpScale(unit, base float64) (Scale, error) {
	if !(unit > 0) || math.IsInf(unit, 0) {
		return nil, fmt.Errorf("scale unit must be > 0, got %v", unit)
	}
	if !(base > 1) || math.IsInf(base, 0) {
		return nil, fmt.Errorf("scale base must be > 1, got %v", base)
	}
	return func(e int) float64 { return unit * math.Pow(base, float64(e)) }, nil
}

// DefaultScale is ExpScale(DefaultUnit, DefaultBase).
func DefaultScale() Scale {
	s, _ := ExpScale(DefaultUnit, DefaultBase)
	return s
}

// Accept applies the Metropolis rule to a move changing the objective by
// delta, given a uniform draw u in [0,1). Improvements are always accepted;
// anything else with probability exp(-|delta|/scale).
func Accept(delta, scale, u float64) bool {
	if delta > 0 {
		return true
	}
	if scale <= 0 {
		return false
	}
	return u < math.Exp(-math.Abs(delta)/scale)
}

// Schedule is the list of stage exponents, highest first.
type Schedule []int

// Descending returns stages exponents counting down from start.
func Descending(start, stages int) Schedule {
	if stages <= 0 {
		return nil
	}
	s := make(Schedule, stages)
	for i := range s {
		s[i] = start - i
	}
	return s
}
