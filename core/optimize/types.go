// Package optimize searches candidate pools for the overhang assignment with
// the highest ligation fidelity using staged simulated annealing.
//
// A run moves through three phases: CALIBRATING picks the first temperature
// exponent, SEARCHING walks a descending schedule from it, DONE freezes the
// best assignment seen. All randomness comes from an injected, seeded
// generator; one Optimizer is owned by one goroutine.
package optimize

import (
	"errors"
	"fmt"

	"ohfid-core/anneal"
)

var (
	ErrNoJunctions         = errors.New("no junctions")
	ErrInitLength          = errors.New("initial assignment length does not match junction count")
	ErrDuplicateAssignment = errors.New("could not draw an assignment without duplicate overhangs")
)

// Phase is the optimizer's state.
type Phase int

const (
	PhaseCalibrating Phase = iota
	PhaseSearching
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseCalibrating:
		return "calibrating"
	case PhaseSearching:
		return "searching"
	case PhaseDone:
		return "done"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// DrawOutcome is the result of drawing an overhang for one junction.
type DrawOutcome int

const (
	// Accepted: the draw collides with no other junction.
	Accepted DrawOutcome = iota
	// ForcedDuplicate: every attempt collided and the policy kept the last draw.
	ForcedDuplicate
	// Rejected: the draw collided and was not used.
	Rejected
)

func (d DrawOutcome) String() string {
	switch d {
	case Accepted:
		return "accepted"
	case ForcedDuplicate:
		return "forced-duplicate"
	case Rejected:
		return "rejected"
	}
	return fmt.Sprintf("outcome(%d)", int(d))
}

// DuplicatePolicy decides what happens when no collision-free draw is found
// within Config.DrawAttempts.
type DuplicatePolicy int

const (
	// PolicyForce keeps the colliding draw and records a warning.
	PolicyForce DuplicatePolicy = iota
	// PolicyReject fails with ErrDuplicateAssignment.
	PolicyReject
)

// ParseDuplicatePolicy maps "force" / "reject".
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch s {
	case "force", "":
		return PolicyForce, nil
	case "reject":
		return PolicyReject, nil
	}
	return 0, fmt.Errorf("unknown duplicate policy %q (want force | reject)", s)
}

func (p DuplicatePolicy) String() string {
	if p == PolicyReject {
		return "reject"
	}
	return "force"
}

// WarningKind classifies non-fatal conditions.
type WarningKind int

const (
	WarnForcedDuplicate WarningKind = iota
	WarnCalibrationNotConverged
	WarnCalibrationOutOfTolerance
)

func (k WarningKind) String() string {
	switch k {
	case WarnForcedDuplicate:
		return "forced-duplicate"
	case WarnCalibrationNotConverged:
		return "calibration-not-converged"
	case WarnCalibrationOutOfTolerance:
		return "calibration-out-of-tolerance"
	}
	return fmt.Sprintf("warning(%d)", int(k))
}

// Warning is a typed, non-fatal condition surfaced to the caller.
type Warning struct {
	Kind     WarningKind
	Junction int // 0-based; -1 when not junction specific
	Message  string
}

func (w Warning) String() string { return w.Kind.String() + ": " + w.Message }

// Config tunes a run. Zero values are replaced by DefaultConfig values in New.
type Config struct {
	Iterations            int     // trials per search stage
	Stages                int     // length of the descending schedule
	TargetRatio           float64 // calibration target acceptance ratio
	CalibrationTolerance  float64 // accepted |ratio - TargetRatio| after calibration
	CalibrationIterations int     // trials per calibration pass
	CalibrationSteps      int     // exponent moves allowed during calibration
	DrawAttempts          int     // collision-free draw attempts per junction
	Duplicates            DuplicatePolicy
	Scale                 anneal.Scale
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		Iterations:            1000,
		Stages:                10,
		TargetRatio:           anneal.DefaultTargetRatio,
		CalibrationTolerance:  anneal.DefaultTolerance,
		CalibrationIterations: 1000,
		CalibrationSteps:      anneal.DefaultMaxSteps,
		DrawAttempts:          100,
		Duplicates:            PolicyForce,
		Scale:                 anneal.DefaultScale(),
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Iterations <= 0 {
		c.Iterations = d.Iterations
	}
	if c.Stages <= 0 {
		c.Stages = d.Stages
	}
	if c.TargetRatio <= 0 {
		c.TargetRatio = d.TargetRatio
	}
	if c.CalibrationTolerance <= 0 {
		c.CalibrationTolerance = d.CalibrationTolerance
	}
	if c.CalibrationIterations <= 0 {
		c.CalibrationIterations = d.CalibrationIterations
	}
	if c.CalibrationSteps <= 0 {
		c.CalibrationSteps = d.CalibrationSteps
	}
	if c.DrawAttempts <= 0 {
		c.DrawAttempts = d.DrawAttempts
	}
	if c.Scale == nil {
		c.Scale = d.Scale
	}
	return c
}

// Record is one scored assignment: an improving solution during a search,
// an evaluated assignment, or a batch sample.
type Record struct {
	Score       float64
	Fidelity    float64
	PerJunction []float64
	Overhangs   []string
	Sites       []int // reference coordinate per junction, -1 if unknown
	Phase       Phase
	Stage       int // schedule index; -1 outside SEARCHING
	Trial       int // trial number within the pass that produced it
}

// StageStats summarizes one pass over a fixed exponent.
type StageStats struct {
	Phase        Phase
	Exponent     int
	Scale        float64
	Attempted    int // every trial, including skipped draws
	Useful       int // trials that evaluated a substitution
	Accepted     int
	NonImproving int // accepted moves with delta ≤ 0
	Ratio        float64
	Best         float64 // best score at the end of the pass
}

// Result is a finished (or cancelled) run.
type Result struct {
	Record
	Degenerate      bool // no junction had more than one candidate
	Calibration     anneal.Calibration
	CalibrationBest Record // best assignment known when calibration ended
	Stages          []StageStats
	Improvements    []Record
	Iterations      int // useful search trials
	Warnings        []Warning
	Seed            uint64
	Restart         int
}
