package effects

import (
	"strconv"

	"github.com/doismellburning/dsp/internal/dspcore"
	"github.com/doismellburning/dsp/internal/effect"
)

// noiseState adds full-amplitude TPDF noise to every selected channel,
// reusing the dither effect's Park-Miller generator pair at unit scale
// rather than a dither-shaped amplitude, per SPEC_FULL's note that
// noise and dither share a generator.
type noiseState struct {
	rngs  []*dspcore.DitherRNG
	sel   *dspcore.Selector
	level float64
	seed  uint32
}

func (n *noiseState) run(frames int, in, out []dspcore.Sample) ([]dspcore.Sample, int) {
	channels := n.sel.Channels()
	for f := 0; f < frames; f++ {
		for ch := 0; ch < channels; ch++ {
			if !n.sel.Selected(ch) {
				continue
			}
			in[f*channels+ch] += n.rngs[ch].Noise(n.level * dspcore.DitherMult(1))
		}
	}
	return in, frames
}

func init() {
	register("noise", func(ctx *Context, args []string) (*effect.Effect, int, error) {
		level := 1.0
		consumed := 0
		if len(args) > 0 {
			if v, err := strconv.ParseFloat(args[0], 64); err == nil {
				level = v
				consumed = 1
			}
		}
		channels := ctx.IStream.Channels
		rngs := make([]*dspcore.DitherRNG, channels)
		for ch := 0; ch < channels; ch++ {
			rngs[ch] = dspcore.NewDitherRNG(uint32(ch*2+1), uint32(ch*2+2))
		}
		st := &noiseState{rngs: rngs, sel: ctx.Selector, level: level}
		e := newEffect("noise", ctx, ctx.IStream)
		e.Run = st.run
		e.Plot = func(idx int) []string { return []string{"# noise idx=" + strconv.Itoa(idx)} }
		return e, consumed, nil
	})
}
