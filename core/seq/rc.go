// core/seq/rc.go
package seq

var complement [256]byte

func init() {
	complement['A'] = 'T'
	complement['C'] = 'G'
	complement['G'] = 'C'
	complement['T'] = 'A'
	complement['a'] = 'T'
	complement['c'] = 'G'
	complement['g'] = 'C'
	complement['t'] = 'A'
}

// Complement returns the Watson–Crick partner of b, or 'N' for anything
// outside A/C/G/T.
func Complement(b byte) byte {
	if c := complement[b]; c != 0 {
		return c
	}
	return 'N'
}

// RevComp returns the reverse complement of an overhang.
func RevComp(s string) string {
	n := len(s)
	if n == 0 {
		return ""
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = Complement(s[n-1-i])
	}
	return string(out)
}

// IsPalindrome reports whether s equals its own reverse complement.
// Such overhangs ligate to copies of themselves.
func IsPalindrome(s string) bool {
	n := len(s)
	if n == 0 || n%2 == 1 {
		return false
	}
	for i := 0; i < n/2; i++ {
		if Complement(s[i]) != s[n-1-i] {
			return false
		}
	}
	return true
}

// Canonical returns the lexicographically smaller of s and RevComp(s).
// Two overhangs collide (same sticky end pair) iff their canonical forms match.
func Canonical(s string) string {
	rc := RevComp(s)
	if rc < s {
		return rc
	}
	return s
}
