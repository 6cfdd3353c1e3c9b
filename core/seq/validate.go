package seq

import (
	"fmt"
	"strings"
	"unicode"
)

// Normalize removes spaces/quotes and uppercases bases.
func Normalize(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.IsSpace(r) || r == '\'' || r == '"' {
			continue
		}
		out = append(out, unicode.ToUpper(r))
	}
	return string(out)
}

// Validate returns a normalized overhang or an error if it is empty, has the
// wrong length, or contains anything but A/C/G/T. length <= 0 skips the
// length check.
func Validate(raw string, length int) (string, error) {
	s := Normalize(raw)
	if s == "" {
		return s, fmt.Errorf("empty overhang")
	}
	if length > 0 && len(s) != length {
		return "", fmt.Errorf("overhang %q has length %d, want %d", s, len(s), length)
	}
	if i := firstNonACGT(s); i >= 0 {
		return "", fmt.Errorf("invalid base %q at %d in %q; allowed: A C G T", s[i], i+1, s)
	}
	return s, nil
}

// IsACGT reports whether s is non-empty and made of A/C/G/T only.
func IsACGT(s string) bool { return s != "" && firstNonACGT(s) < 0 }

func firstNonACGT(s string) int {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'A', 'C', 'G', 'T':
		default:
			return i
		}
	}
	return -1
}

// GC counts G and C bases.
func GC(s string) int { return strings.Count(s, "G") + strings.Count(s, "C") }

// AT counts A and T bases.
func AT(s string) int { return strings.Count(s, "A") + strings.Count(s, "T") }
