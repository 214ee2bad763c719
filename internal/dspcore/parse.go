package dspcore

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseFreq parses a frequency with an optional trailing "k" suffix
// (kilohertz), as used for -r rate[k] and filter cutoff arguments.
func ParseFreq(s string) (float64, error) {
	s = strings.TrimSpace(s)
	mult := 1.0
	if strings.HasSuffix(s, "k") || strings.HasSuffix(s, "K") {
		mult = 1000.0
		s = s[:len(s)-1]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("bad frequency %q: %w", s, err)
	}
	return v * mult, nil
}

// ParseLen parses a duration given in samples (bare integer) or seconds
// (suffixed "s") into a frame count at the given sample rate.
func ParseLen(s string, fs int) (int, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "s") {
		secs, err := strconv.ParseFloat(s[:len(s)-1], 64)
		if err != nil {
			return 0, fmt.Errorf("bad length %q: %w", s, err)
		}
		return int(secs*float64(fs) + 0.5), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("bad length %q: %w", s, err)
	}
	return n, nil
}

// ParseLenFrac parses a length like ParseLen but additionally accepts a
// plain fractional number of seconds with no unit suffix when frac is
// true (used by effects that default their length argument to seconds).
func ParseLenFrac(s string, fs int, frac bool) (int, error) {
	if frac {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return int(v*float64(fs) + 0.5), nil
		}
	}
	return ParseLen(s, fs)
}

// CheckEndptr mirrors the original's strtod/endptr validation pattern:
// error unless the entire string was consumed by a numeric parse.
func CheckEndptr(s, rest string, what string) error {
	if rest != "" {
		return fmt.Errorf("%s: trailing garbage %q in %q", what, rest, s)
	}
	return nil
}
