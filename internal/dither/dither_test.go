package dither

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/doismellburning/dsp/internal/codec"
)

func mkCodec(prec int, canDither bool) *codec.Codec {
	c := &codec.Codec{Prec: prec}
	if canDither {
		c.Hints |= codec.CanDither
	}
	return c
}

func Test_ShouldDither_forceOffAlwaysWins(t *testing.T) {
	out := mkCodec(16, true)
	in := mkCodec(24, true)
	assert.False(t, ShouldDither(in, out, true, Off))
}

func Test_ShouldDither_outputMustSupportDither(t *testing.T) {
	out := mkCodec(16, false)
	in := mkCodec(24, true)
	assert.False(t, ShouldDither(in, out, true, Auto))
	assert.False(t, ShouldDither(in, out, true, On))
}

func Test_ShouldDither_forceOnOverridesHeuristic(t *testing.T) {
	out := mkCodec(16, true)
	in := mkCodec(8, true)
	assert.True(t, ShouldDither(in, out, false, On))
}

func Test_ShouldDither_highPrecisionOutputNeverDithers(t *testing.T) {
	out := mkCodec(24, true)
	in := mkCodec(32, true)
	assert.False(t, ShouldDither(in, out, true, Auto))
}

func Test_ShouldDither_autoTriggers(t *testing.T) {
	out := mkCodec(16, true)

	// has_effects alone triggers it.
	assert.True(t, ShouldDither(mkCodec(16, true), out, true, Auto))
	// in.Prec > out.Prec alone triggers it.
	assert.True(t, ShouldDither(mkCodec(24, true), out, false, Auto))
	// !in.CanDither alone triggers it.
	assert.True(t, ShouldDither(mkCodec(16, false), out, false, Auto))
	// none of the three: no dither.
	assert.False(t, ShouldDither(mkCodec(16, true), out, false, Auto))
}

// Test_ShouldDither_matchesFormula checks randomly drawn combinations of
// both codec hints, hasEffects, both precisions and the force mode
// against the literal formula from SHOULD_DITHER, not just a handful of
// hand-picked cases.
func Test_ShouldDither_matchesFormula(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		outCanDither := rapid.Bool().Draw(t, "outCanDither")
		inCanDither := rapid.Bool().Draw(t, "inCanDither")
		hasEffects := rapid.Bool().Draw(t, "hasEffects")
		outPrec := rapid.SampledFrom([]int{16, 24, 32}).Draw(t, "outPrec")
		inPrec := rapid.SampledFrom([]int{16, 24, 32}).Draw(t, "inPrec")
		force := rapid.SampledFrom([]Force{Auto, On, Off}).Draw(t, "force")

		out := mkCodec(outPrec, outCanDither)
		in := mkCodec(inPrec, inCanDither)

		want := force != Off && out.HasHint(codec.CanDither) &&
			(force == On || (out.Prec < 24 && (hasEffects || in.Prec > out.Prec || !in.HasHint(codec.CanDither))))

		assert.Equal(t, want, ShouldDither(in, out, hasEffects, force))
	})
}
