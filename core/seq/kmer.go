package seq

import "strings"

// Kmer is one k-length window of a reference sequence.
type Kmer struct {
	Seq   string
	Start int // 0-based reference coordinate of the first base
}

// Kmers returns every k-mer lying entirely inside [start, end) of ref, in
// reference order. Bounds are clipped to the sequence; windows containing
// anything but A/C/G/T are skipped.
func Kmers(ref []byte, k, start, end int) []Kmer {
	if k <= 0 {
		return nil
	}
	if start < 0 {
		start = 0
	}
	if end > len(ref) {
		end = len(ref)
	}
	if end-start < k {
		return nil
	}
	out := make([]Kmer, 0, end-start-k+1)
	for i := start; i+k <= end; i++ {
		w := strings.ToUpper(string(ref[i : i+k]))
		if !IsACGT(w) {
			continue
		}
		out = append(out, Kmer{Seq: w, Start: i})
	}
	return out
}
