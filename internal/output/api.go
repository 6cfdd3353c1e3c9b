// internal/output/api.go
package output

import (
	"sort"

	"ohfid-core/optimize"
	"ohfid-core/pool"
	"ohfid/pkg/api"
)

// WeakJunctions returns the 1-based junctions whose fidelity is below
// threshold.
func WeakJunctions(per []float64, threshold float64) []int {
	var out []int
	for i, f := range per {
		if f < threshold {
			out = append(out, i+1)
		}
	}
	return out
}

func hasSites(sites []int) bool {
	for _, s := range sites {
		if s >= 0 {
			return true
		}
	}
	return false
}

// ToAPIRecord converts a record to the v1 schema. Sites are dropped when no
// junction has one.
func ToAPIRecord(r optimize.Record, weak float64) api.RecordV1 {
	v := api.RecordV1{
		Score:       r.Score,
		Fidelity:    r.Fidelity,
		Overhangs:   append([]string(nil), r.Overhangs...),
		PerJunction: append([]float64(nil), r.PerJunction...),
		Phase:       r.Phase.String(),
		Weak:        WeakJunctions(r.PerJunction, weak),
	}
	if r.Phase == optimize.PhaseSearching {
		v.Stage = r.Stage + 1
	}
	if hasSites(r.Sites) {
		v.Sites = append([]int(nil), r.Sites...)
	}
	return v
}

// ToAPIRecords converts a slice.
func ToAPIRecords(list []optimize.Record, weak float64) []api.RecordV1 {
	out := make([]api.RecordV1, 0, len(list))
	for _, r := range list {
		out = append(out, ToAPIRecord(r, weak))
	}
	return out
}

// ToAPIWarnings converts typed warnings.
func ToAPIWarnings(ws []optimize.Warning) []api.WarningV1 {
	if len(ws) == 0 {
		return nil
	}
	out := make([]api.WarningV1, len(ws))
	for i, w := range ws {
		out[i] = api.WarningV1{Kind: w.Kind.String(), Junction: w.Junction + 1, Message: w.Message}
	}
	return out
}

// ToAPIResult converts a finished search. restarts is the number of runs
// the result was reduced from.
func ToAPIResult(res optimize.Result, restarts int, weak float64) api.ResultV1 {
	v := api.ResultV1{
		Best:         ToAPIRecord(res.Record, weak),
		Improvements: ToAPIRecords(res.Improvements, weak),
		Calibration: api.CalibrationV1{
			Exponent:  res.Calibration.Exponent,
			Ratio:     res.Calibration.Ratio,
			Converged: res.Calibration.Converged,
			Trials:    len(res.Calibration.Trials),
		},
		Iterations: res.Iterations,
		Degenerate: res.Degenerate,
		Seed:       res.Seed,
		Restart:    res.Restart,
		Restarts:   restarts,
		Warnings:   ToAPIWarnings(res.Warnings),
	}
	for _, s := range res.Stages {
		v.Stages = append(v.Stages, api.StageV1{
			Exponent:     s.Exponent,
			Scale:        s.Scale,
			Attempted:    s.Attempted,
			Useful:       s.Useful,
			Accepted:     s.Accepted,
			NonImproving: s.NonImproving,
			Ratio:        s.Ratio,
			Best:         s.Best,
		})
	}
	return v
}

// ToAPIBatch converts batch samples and computes their summary.
func ToAPIBatch(recs []optimize.Record, warns []optimize.Warning, seed uint64, weak float64) api.BatchV1 {
	return api.BatchV1{
		Records:  ToAPIRecords(recs, weak),
		Summary:  Summarize(Scores(recs)),
		Seed:     seed,
		Warnings: ToAPIWarnings(warns),
	}
}

// ToAPIPools converts built pools.
func ToAPIPools(js []pool.Junction) []api.PoolV1 {
	out := make([]api.PoolV1, 0, len(js))
	for _, j := range js {
		p := api.PoolV1{
			Junction:  j.Index + 1,
			Spec:      j.Spec.Raw,
			Kind:      j.Spec.Kind.String(),
			Overhangs: j.Overhangs(),
			Dropped:   droppedMap(j.Dropped),
		}
		sites := make([]int, len(j.Candidates))
		for i, c := range j.Candidates {
			sites[i] = c.Site
		}
		if hasSites(sites) {
			p.Sites = sites
		}
		out = append(out, p)
	}
	return out
}

func droppedMap(d pool.Dropped) map[string]int {
	m := map[string]int{}
	add := func(k string, n int) {
		if n > 0 {
			m[k] = n
		}
	}
	add("duplicate", d.Duplicate)
	add("palindrome", d.Palindrome)
	add("excluded", d.Excluded)
	add("efficiency", d.Efficiency)
	add("composition", d.Composition)
	if len(m) == 0 {
		return nil
	}
	return m
}

// droppedKeys returns m's keys in filter order.
func droppedKeys(m map[string]int) []string {
	order := map[string]int{"duplicate": 0, "palindrome": 1, "excluded": 2, "efficiency": 3, "composition": 4}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool { return order[keys[a]] < order[keys[b]] })
	return keys
}
