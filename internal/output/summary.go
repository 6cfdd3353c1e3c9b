package output

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"ohfid-core/optimize"
	"ohfid/pkg/api"
)

// Scores extracts the reported scores.
func Scores(recs []optimize.Record) []float64 {
	out := make([]float64, len(recs))
	for i, r := range recs {
		out[i] = r.Score
	}
	return out
}

// Summarize describes a score distribution. Quantiles use the empirical
// CDF. An empty input yields a zero summary.
func Summarize(xs []float64) api.SummaryV1 {
	if len(xs) == 0 {
		return api.SummaryV1{}
	}
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	mean, sd := stat.MeanStdDev(s, nil)
	if len(s) < 2 {
		sd = 0
	}
	return api.SummaryV1{
		Count: len(s),
		Mean:  mean,
		SD:    sd,
		Min:   floats.Min(s),
		Q05:   stat.Quantile(0.05, stat.Empirical, s, nil),
		Q50:   stat.Quantile(0.50, stat.Empirical, s, nil),
		Q95:   stat.Quantile(0.95, stat.Empirical, s, nil),
		Max:   floats.Max(s),
	}
}
