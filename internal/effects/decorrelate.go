package effects

import (
	"strconv"

	"github.com/doismellburning/dsp/internal/dspcore"
	"github.com/doismellburning/dsp/internal/effect"
)

// decorrelateState runs each selected channel but the first through a
// short cascade of allpass sections tuned to a distinct frequency per
// channel, perturbing phase without touching magnitude response, so
// that otherwise-identical channels (e.g. a mono source split to
// stereo) stop summing coherently. Channel 0 always passes through
// unmodified as a phase reference.
type decorrelateState struct {
	stages   [][]onepoleState
	sel      *dspcore.Selector
	channels int
}

func (d *decorrelateState) run(frames int, in, out []dspcore.Sample) ([]dspcore.Sample, int) {
	for f := 0; f < frames; f++ {
		for ch := 0; ch < d.channels; ch++ {
			if ch == 0 || !d.sel.Selected(ch) {
				continue
			}
			x := in[f*d.channels+ch]
			for i := range d.stages[ch] {
				x = d.stages[ch][i].runOne(x)
			}
			in[f*d.channels+ch] = x
		}
	}
	return in, frames
}

func (d *decorrelateState) reset() {
	for _, chain := range d.stages {
		for i := range chain {
			chain[i].reset()
		}
	}
}

func init() {
	register("decorrelate", func(ctx *Context, args []string) (*effect.Effect, int, error) {
		channels := ctx.IStream.Channels
		fs := float64(ctx.IStream.FS)
		stages := make([][]onepoleState, channels)
		// Spread a handful of allpass corner frequencies per channel,
		// offset so no two channels share a set.
		baseFreqs := []float64{200, 500, 1200, 3000}
		for ch := 1; ch < channels; ch++ {
			chain := make([]onepoleState, len(baseFreqs))
			for i, bf := range baseFreqs {
				freq := bf * (1 + 0.15*float64(ch))
				b0, b1, a1 := onepoleCoeffs("allpass_1", fs, freq, 0)
				chain[i] = onepoleState{b0: b0, b1: b1, a1: a1, freq: freq}
			}
			stages[ch] = chain
		}
		st := &decorrelateState{stages: stages, sel: ctx.Selector, channels: channels}
		e := newEffect("decorrelate", ctx, ctx.IStream)
		e.Run = st.run
		e.Reset = st.reset
		e.Plot = func(idx int) []string { return []string{"# decorrelate idx=" + strconv.Itoa(idx)} }
		return e, 0, nil
	})
}
