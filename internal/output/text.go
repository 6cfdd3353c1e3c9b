// internal/output/text.go
package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"ohfid/pkg/api"
)

func formatScore(f float64) string { return strconv.FormatFloat(f, 'f', 6, 64) }

// FormatRecordText renders "fidelity, oh_1, ..., oh_N[, site_1, ..., site_N]"
// without a trailing newline. The leading value is the reported score.
func FormatRecordText(r api.RecordV1) string {
	var b strings.Builder
	b.WriteString(formatScore(r.Score))
	for _, o := range r.Overhangs {
		b.WriteString(", ")
		b.WriteString(o)
	}
	for _, s := range r.Sites {
		b.WriteString(", ")
		b.WriteString(strconv.Itoa(s))
	}
	return b.String()
}

// WriteRecordText writes one record line.
func WriteRecordText(w io.Writer, r api.RecordV1) error {
	_, err := io.WriteString(w, FormatRecordText(r)+"\n")
	return err
}

// WritePoolsText prints every junction's pool, one block per junction.
func WritePoolsText(w io.Writer, pools []api.PoolV1) error {
	for _, p := range pools {
		if _, err := fmt.Fprintf(w, "# junction %d (%s): %d candidates\n", p.Junction, poolLabel(p), len(p.Overhangs)); err != nil {
			return err
		}
		if len(p.Dropped) > 0 {
			parts := make([]string, 0, len(p.Dropped))
			for _, k := range droppedKeys(p.Dropped) {
				parts = append(parts, fmt.Sprintf("%s=%d", k, p.Dropped[k]))
			}
			if _, err := fmt.Fprintf(w, "#   dropped: %s\n", strings.Join(parts, " ")); err != nil {
				return err
			}
		}
		line := strings.Join(p.Overhangs, " ")
		if len(p.Sites) > 0 {
			cells := make([]string, len(p.Overhangs))
			for i, o := range p.Overhangs {
				cells[i] = fmt.Sprintf("%s@%d", o, p.Sites[i])
			}
			line = strings.Join(cells, " ")
		}
		if _, err := fmt.Fprintf(w, "#   %s\n", line); err != nil {
			return err
		}
	}
	return nil
}

// WritePerJunctionText prints each junction's fidelity, marking weak ones.
func WritePerJunctionText(w io.Writer, r api.RecordV1) error {
	weak := map[int]bool{}
	for _, j := range r.Weak {
		weak[j] = true
	}
	for i, f := range r.PerJunction {
		mark := ""
		if weak[i+1] {
			mark = "\tweak"
		}
		if _, err := fmt.Fprintf(w, "# junction %d\t%s\t%s%s\n", i+1, r.Overhangs[i], formatScore(f), mark); err != nil {
			return err
		}
	}
	return nil
}

// poolLabel is the kind followed by the spec, or the kind alone when the spec
// adds nothing (e.g. "all").
func poolLabel(p api.PoolV1) string {
	if p.Spec == "" || p.Spec == p.Kind {
		return p.Kind
	}
	return p.Kind + " " + p.Spec
}

// WriteSummaryText prints a batch summary as comment lines.
func WriteSummaryText(w io.Writer, s api.SummaryV1) error {
	_, err := fmt.Fprintf(w,
		"# n=%d mean=%s sd=%s\n# min=%s q05=%s q50=%s q95=%s max=%s\n",
		s.Count, formatScore(s.Mean), formatScore(s.SD),
		formatScore(s.Min), formatScore(s.Q05), formatScore(s.Q50), formatScore(s.Q95), formatScore(s.Max),
	)
	return err
}

// WriteStagesText prints the calibration outcome and per-stage statistics, or
// a single line for a degenerate run that never searched.
func WriteStagesText(w io.Writer, res api.ResultV1) error {
	if res.Degenerate {
		_, err := fmt.Fprintf(w, "# degenerate: no variable junctions, %d iterations\n", res.Iterations)
		return err
	}
	c := res.Calibration
	if _, err := fmt.Fprintf(w, "# calibration: exponent=%d ratio=%.4f converged=%t trials=%d\n",
		c.Exponent, c.Ratio, c.Converged, c.Trials); err != nil {
		return err
	}
	for i, s := range res.Stages {
		if _, err := fmt.Fprintf(w, "# stage %d: exponent=%d scale=%g useful=%d/%d accepted=%d ratio=%.4f best=%s\n",
			i+1, s.Exponent, s.Scale, s.Useful, s.Attempted, s.Accepted, s.Ratio, formatScore(s.Best)); err != nil {
			return err
		}
	}
	return nil
}
