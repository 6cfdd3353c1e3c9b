package cmdutil

import (
	"fmt"
	"io"

	"ohfid-core/optimize"
)

func Warnf(dst io.Writer, quiet bool, format string, a ...any) {
	if quiet {
		return
	}
	_, _ = fmt.Fprintf(dst, "WARN: "+format+"\n", a...)
}

// WarnAll prints every typed warning of a run.
func WarnAll(dst io.Writer, quiet bool, ws []optimize.Warning) {
	for _, w := range ws {
		Warnf(dst, quiet, "%s", w.Message)
	}
}

// WarnWeak flags junctions whose fidelity is below threshold. junctions
// are 1-based.
func WarnWeak(dst io.Writer, quiet bool, junctions []int, overhangs []string, per []float64, threshold float64) {
	for _, j := range junctions {
		Warnf(dst, quiet, "junction %d (%s) fidelity %.4f is below %.2f", j, overhangs[j-1], per[j-1], threshold)
	}
}
