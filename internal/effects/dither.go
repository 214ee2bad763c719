package effects

import (
	"strconv"

	"github.com/doismellburning/dsp/internal/dspcore"
	"github.com/doismellburning/dsp/internal/effect"
)

// ditherState implements TPDF dithering per channel ahead of
// quantization to prec bits, using the Park-Miller generator pair of
// §4.4/§9. enabled lets the auto-dither policy (or dither_effect_set_
// params) turn dithering on/off without removing the effect from the
// chain, matching §4.4's "set via dither_effect_set_params" rule.
type ditherState struct {
	rngs    []*dspcore.DitherRNG
	sel     *dspcore.Selector
	prec    int
	mult    float64
	enabled bool
}

func (d *ditherState) run(frames int, in, out []dspcore.Sample) ([]dspcore.Sample, int) {
	if !d.enabled {
		return in, frames
	}
	channels := d.sel.Channels()
	for f := 0; f < frames; f++ {
		for ch := 0; ch < channels; ch++ {
			if !d.sel.Selected(ch) {
				continue
			}
			in[f*channels+ch] += d.rngs[ch].Noise(d.mult)
		}
	}
	return in, frames
}

func (d *ditherState) setParams(prec int, enabled bool) {
	d.prec = prec
	d.mult = dspcore.DitherMult(prec)
	d.enabled = enabled
}

// DitherSetParams implements dither_effect_set_params: mutate an
// existing dither effect's precision and enabled flag in place rather
// than appending a second one, per §4.4. Panics if e is not a dither
// effect, since the caller is expected to have located it via
// effect.Chain.FindDither first.
func DitherSetParams(e *effect.Effect, prec int, enabled bool) {
	e.State.(*ditherState).setParams(prec, enabled)
}

func newDitherEffect(ctx *Context, prec int, enabled bool) *effect.Effect {
	channels := ctx.IStream.Channels
	rngs := make([]*dspcore.DitherRNG, channels)
	for ch := 0; ch < channels; ch++ {
		rngs[ch] = dspcore.NewDitherRNG(uint32(ch*2+101), uint32(ch*2+102))
	}
	st := &ditherState{rngs: rngs, sel: ctx.Selector}
	st.setParams(prec, enabled)
	e := newEffect("dither", ctx, ctx.IStream)
	e.Flags |= effect.NoDither
	e.Run = st.run
	e.State = st
	e.Plot = func(idx int) []string { return []string{"# dither idx=" + strconv.Itoa(idx) + " prec=" + strconv.Itoa(st.prec)} }
	return e
}

// NewDitherEffect constructs a dither effect outside of chain-script
// parsing, for the engine's auto-dither insertion path (§4.4) when no
// dither effect is already present in the chain.
func NewDitherEffect(ctx *Context, prec int, enabled bool) *effect.Effect {
	return newDitherEffect(ctx, prec, enabled)
}

func init() {
	register("dither", func(ctx *Context, args []string) (*effect.Effect, int, error) {
		prec := 16
		consumed := 0
		if len(args) > 0 {
			if v, err := strconv.Atoi(args[0]); err == nil {
				prec = v
				consumed = 1
			}
		}
		return newDitherEffect(ctx, prec, true), consumed, nil
	})
}
