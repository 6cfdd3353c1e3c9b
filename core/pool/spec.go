// Package pool derives, per junction, the filtered list of overhangs the
// optimizer may choose from.
package pool

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"ohfid-core/seq"
)

// Kind says where a junction's raw candidates come from.
type Kind int

const (
	KindList   Kind = iota // explicit comma-separated overhangs
	KindAll                // every overhang observed in the ligation matrix
	KindWindow             // every k-mer of a reference window [Start, End)
)

func (k Kind) String() string {
	switch k {
	case KindList:
		return "list"
	case KindAll:
		return "all"
	case KindWindow:
		return "window"
	}
	return "unknown"
}

// AllSentinel selects every observed overhang.
const AllSentinel = "all"

var ErrBadSpec = errors.New("bad junction spec")

// Spec describes one junction before filtering.
type Spec struct {
	Kind      Kind
	Overhangs []string // KindList, normalized
	Start     int      // KindWindow, 0-based inclusive
	End       int      // KindWindow, exclusive
	Raw       string
}

// ListSpec is a shorthand for an explicit candidate list.
func ListSpec(overhangs ...string) Spec {
	return Spec{Kind: KindList, Overhangs: overhangs, Raw: strings.Join(overhangs, ",")}
}

// WindowSpec is a shorthand for a reference window.
func WindowSpec(start, end int) Spec {
	return Spec{Kind: KindWindow, Start: start, End: end, Raw: fmt.Sprintf("[%d,%d)", start, end)}
}

// ParseSpec understands three notations:
//
//	all                  every observed overhang
//	[120,160) or 120-160 every k-mer of reference[120:160]
//	AACC,GGTA,...        explicit list
//
// length is the overhang length used to validate list entries.
func ParseSpec(raw string, length int) (Spec, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Spec{}, fmt.Errorf("%w: empty", ErrBadSpec)
	}
	if strings.EqualFold(s, AllSentinel) {
		return Spec{Kind: KindAll, Raw: s}, nil
	}
	if start, end, ok, err := parseWindow(s); ok || err != nil {
		if err != nil {
			return Spec{}, fmt.Errorf("%w: %q: %v", ErrBadSpec, raw, err)
		}
		return Spec{Kind: KindWindow, Start: start, End: end, Raw: s}, nil
	}
	var list []string
	for _, f := range strings.Split(s, ",") {
		if strings.TrimSpace(f) == "" {
			continue
		}
		o, err := seq.Validate(f, length)
		if err != nil {
			return Spec{}, fmt.Errorf("%w: %q: %v", ErrBadSpec, raw, err)
		}
		list = append(list, o)
	}
	if len(list) == 0 {
		return Spec{}, fmt.Errorf("%w: %q lists no overhangs", ErrBadSpec, raw)
	}
	return Spec{Kind: KindList, Overhangs: list, Raw: s}, nil
}

// parseWindow returns ok=false when s does not look like a window at all.
func parseWindow(s string) (start, end int, ok bool, err error) {
	var a, b string
	switch {
	case strings.HasPrefix(s, "["):
		if !strings.HasSuffix(s, ")") {
			return 0, 0, true, errors.New("window must look like [start,end)")
		}
		parts := strings.Split(s[1:len(s)-1], ",")
		if len(parts) != 2 {
			return 0, 0, true, errors.New("window must look like [start,end)")
		}
		a, b = parts[0], parts[1]
	case s[0] >= '0' && s[0] <= '9':
		parts := strings.Split(s, "-")
		if len(parts) != 2 {
			return 0, 0, true, errors.New("window must look like start-end")
		}
		a, b = parts[0], parts[1]
	default:
		return 0, 0, false, nil
	}
	if start, err = strconv.Atoi(strings.TrimSpace(a)); err != nil {
		return 0, 0, true, fmt.Errorf("bad start: %v", err)
	}
	if end, err = strconv.Atoi(strings.TrimSpace(b)); err != nil {
		return 0, 0, true, fmt.Errorf("bad end: %v", err)
	}
	if start < 0 || end <= start {
		return 0, 0, true, fmt.Errorf("need 0 ≤ start < end, got %d,%d", start, end)
	}
	return start, end, true, nil
}
