package dspcore

// GCD returns the greatest common divisor of a and b (a, b > 0).
func GCD(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// RatioMultCeil computes ceil(frames * num / den) without overflowing
// for the frame counts this engine deals with, matching the original's
// ratio_mult_ceil used while propagating buffer sizes across
// rate-changing effects.
func RatioMultCeil(frames, num, den int) int {
	if den == 0 {
		return frames
	}
	n := frames * num
	q := n / den
	if n%den != 0 {
		q++
	}
	return q
}
