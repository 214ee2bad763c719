package effects

import (
	"strconv"

	"github.com/doismellburning/dsp/internal/dspcore"
	"github.com/doismellburning/dsp/internal/effect"
)

// zitaState is a true-stereo convolution reverb: each output channel
// is the sum of both input channels run through their own impulse
// response, rather than a single mono IR applied per channel like
// fir_p. This is the only catalogue entry that mixes channels through
// convolution instead of filtering them independently, so it carries
// effect.PlotMix like remix and the matrix decoders.
type zitaState struct {
	ll, lr, rl, rr *blockConvolver
	scratchL       []float64
	scratchR       []float64
}

func (z *zitaState) run(frames int, in, out []dspcore.Sample) ([]dspcore.Sample, int) {
	if cap(z.scratchL) < frames {
		z.scratchL = make([]float64, frames)
		z.scratchR = make([]float64, frames)
	}
	l := z.scratchL[:frames]
	r := z.scratchR[:frames]
	for f := 0; f < frames; f++ {
		l[f] = in[f*2]
		r[f] = in[f*2+1]
	}
	yLL := z.ll.process(l)
	yRL := z.rl.process(r)
	yLR := z.lr.process(l)
	yRR := z.rr.process(r)
	for f := 0; f < frames; f++ {
		in[f*2] = yLL[f] + yRL[f]
		in[f*2+1] = yLR[f] + yRR[f]
	}
	return in, frames
}

func (z *zitaState) reset() {
	z.ll.reset()
	z.lr.reset()
	z.rl.reset()
	z.rr.reset()
}

func (z *zitaState) delay() int {
	return z.ll.groupDelay()
}

func init() {
	register("zita_convolver", func(ctx *Context, args []string) (*effect.Effect, int, error) {
		if ctx.IStream.Channels != 2 {
			return nil, 0, errArgs("zita_convolver: requires exactly 2 channels", args)
		}
		if len(args) < 4 {
			return nil, 0, errArgs("zita_convolver", args)
		}
		paths := args[:4]
		kernels := make([]*blockConvolver, 4)
		for i, path := range paths {
			taps, err := loadTaps(ctx.Dir, path)
			if err != nil {
				return nil, 0, err
			}
			if len(taps) == 0 {
				return nil, 0, errArgs("zita_convolver", args)
			}
			kernels[i] = newBlockConvolver(taps)
		}
		st := &zitaState{ll: kernels[0], lr: kernels[1], rl: kernels[2], rr: kernels[3]}
		e := newEffect("zita_convolver", ctx, ctx.IStream)
		e.Flags |= effect.PlotMix
		e.Run = st.run
		e.Reset = st.reset
		e.Delay = st.delay
		e.Plot = func(idx int) []string { return []string{"# zita_convolver idx=" + strconv.Itoa(idx)} }
		return e, 4, nil
	})
}
