// Package dither implements the auto-dither trigger policy of §4.4 and
// the dither-insertion decision that the top-level engine applies when
// building a chain.
package dither

import "github.com/doismellburning/dsp/internal/codec"

// Force is the user's -d/-D override: Auto leaves the heuristic alone,
// On forces dither on, Off forces it off.
type Force int

const (
	Auto Force = iota
	On
	Off
)

// ShouldDither reproduces SHOULD_DITHER exactly: force != Off &&
// out has CanDither && (force == On || (out.Prec < 24 && (hasEffects ||
// in.Prec > out.Prec || !in.HasHint(CanDither)))).
func ShouldDither(in, out *codec.Codec, hasEffects bool, force Force) bool {
	if force == Off {
		return false
	}
	if !out.HasHint(codec.CanDither) {
		return false
	}
	if force == On {
		return true
	}
	if out.Prec >= 24 {
		return false
	}
	return hasEffects || in.Prec > out.Prec || !in.HasHint(codec.CanDither)
}
