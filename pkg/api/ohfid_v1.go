// pkg/api/ohfid_v1.go
package api

// RecordV1 is the stable JSON/JSONL/YAML schema for one scored assignment.
// Keep fields, names, and types stable. Add new fields only with ",omitempty".
type RecordV1 struct {
	Score       float64   `json:"score" yaml:"score"`
	Fidelity    float64   `json:"fidelity" yaml:"fidelity"`
	Overhangs   []string  `json:"overhangs" yaml:"overhangs"`
	PerJunction []float64 `json:"per_junction" yaml:"per_junction"`
	Sites       []int     `json:"sites,omitempty" yaml:"sites,omitempty"`
	Phase       string    `json:"phase,omitempty" yaml:"phase,omitempty"`
	Stage       int       `json:"stage,omitempty" yaml:"stage,omitempty"`
	Weak        []int     `json:"weak_junctions,omitempty" yaml:"weak_junctions,omitempty"` // 1-based
}

// CalibrationV1 reports how the first search exponent was chosen.
type CalibrationV1 struct {
	Exponent  int     `json:"exponent" yaml:"exponent"`
	Ratio     float64 `json:"ratio" yaml:"ratio"`
	Converged bool    `json:"converged" yaml:"converged"`
	Trials    int     `json:"trials" yaml:"trials"`
}

// StageV1 is one search stage.
type StageV1 struct {
	Exponent     int     `json:"exponent" yaml:"exponent"`
	Scale        float64 `json:"scale" yaml:"scale"`
	Attempted    int     `json:"attempted" yaml:"attempted"`
	Useful       int     `json:"useful" yaml:"useful"`
	Accepted     int     `json:"accepted" yaml:"accepted"`
	NonImproving int     `json:"non_improving" yaml:"non_improving"`
	Ratio        float64 `json:"ratio" yaml:"ratio"`
	Best         float64 `json:"best" yaml:"best"`
}

// WarningV1 is a non-fatal condition.
type WarningV1 struct {
	Kind     string `json:"kind" yaml:"kind"`
	Junction int    `json:"junction,omitempty" yaml:"junction,omitempty"` // 1-based, 0 = run-wide
	Message  string `json:"message" yaml:"message"`
}

// ResultV1 is a finished search.
type ResultV1 struct {
	Best         RecordV1      `json:"best" yaml:"best"`
	Improvements []RecordV1    `json:"improvements,omitempty" yaml:"improvements,omitempty"`
	Calibration  CalibrationV1 `json:"calibration" yaml:"calibration"`
	Stages       []StageV1     `json:"stages,omitempty" yaml:"stages,omitempty"`
	Iterations   int           `json:"iterations" yaml:"iterations"`
	Degenerate   bool          `json:"degenerate,omitempty" yaml:"degenerate,omitempty"`
	Seed         uint64        `json:"seed" yaml:"seed"`
	Restart      int           `json:"restart" yaml:"restart"`
	Restarts     int           `json:"restarts" yaml:"restarts"`
	Warnings     []WarningV1   `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// SummaryV1 describes a batch score distribution.
type SummaryV1 struct {
	Count int     `json:"count" yaml:"count"`
	Mean  float64 `json:"mean" yaml:"mean"`
	SD    float64 `json:"sd" yaml:"sd"`
	Min   float64 `json:"min" yaml:"min"`
	Q05   float64 `json:"q05" yaml:"q05"`
	Q50   float64 `json:"q50" yaml:"q50"`
	Q95   float64 `json:"q95" yaml:"q95"`
	Max   float64 `json:"max" yaml:"max"`
}

// BatchV1 is a batch of random assignments.
type BatchV1 struct {
	Records  []RecordV1  `json:"records" yaml:"records"`
	Summary  SummaryV1   `json:"summary" yaml:"summary"`
	Seed     uint64      `json:"seed" yaml:"seed"`
	Warnings []WarningV1 `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// PoolV1 is one junction's candidate pool.
type PoolV1 struct {
	Junction  int            `json:"junction" yaml:"junction"` // 1-based
	Spec      string         `json:"spec" yaml:"spec"`
	Kind      string         `json:"kind" yaml:"kind"`
	Overhangs []string       `json:"overhangs" yaml:"overhangs"`
	Sites     []int          `json:"sites,omitempty" yaml:"sites,omitempty"`
	Dropped   map[string]int `json:"dropped,omitempty" yaml:"dropped,omitempty"`
}
