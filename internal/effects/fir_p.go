package effects

import (
	"strconv"

	"github.com/doismellburning/dsp/internal/dspcore"
	"github.com/doismellburning/dsp/internal/effect"
)

// firPState is fir's partitioned equivalent: the same tap set applied
// to every selected channel, but via overlap-save block convolution
// through the shared FFT planner cache instead of a direct
// multiply-accumulate per sample. Worth the extra bookkeeping once
// ntaps grows past a few hundred, which is the usual reason a user
// reaches for fir_p instead of fir.
type firPState struct {
	taps     []float64
	conv     []*blockConvolver
	scratch  []float64
	sel      *dspcore.Selector
	channels int
}

func (s *firPState) run(frames int, in, out []dspcore.Sample) ([]dspcore.Sample, int) {
	if cap(s.scratch) < frames {
		s.scratch = make([]float64, frames)
	}
	x := s.scratch[:frames]
	for ch := 0; ch < s.channels; ch++ {
		if !s.sel.Selected(ch) {
			continue
		}
		for f := 0; f < frames; f++ {
			x[f] = in[f*s.channels+ch]
		}
		y := s.conv[ch].process(x)
		for f := 0; f < frames; f++ {
			in[f*s.channels+ch] = y[f]
		}
	}
	return in, frames
}

func (s *firPState) reset() {
	for _, c := range s.conv {
		if c != nil {
			c.reset()
		}
	}
}

func (s *firPState) delay() int {
	return (len(s.taps) - 1) / 2
}

func init() {
	register("fir_p", func(ctx *Context, args []string) (*effect.Effect, int, error) {
		if len(args) < 1 {
			return nil, 0, errArgs("fir_p", args)
		}
		taps, err := loadTaps(ctx.Dir, args[0])
		if err != nil {
			return nil, 0, err
		}
		if len(taps) == 0 {
			return nil, 1, errArgs("fir_p", args)
		}
		channels := ctx.IStream.Channels
		conv := make([]*blockConvolver, channels)
		for ch := 0; ch < channels; ch++ {
			if ctx.Selector.Selected(ch) {
				conv[ch] = newBlockConvolver(taps)
			}
		}
		st := &firPState{taps: taps, conv: conv, sel: ctx.Selector, channels: channels}
		e := newEffect("fir_p", ctx, ctx.IStream)
		e.Run = st.run
		e.Reset = st.reset
		e.Delay = st.delay
		e.Plot = func(idx int) []string { return []string{"# fir_p idx=" + strconv.Itoa(idx) + " ntaps=" + strconv.Itoa(len(taps))} }
		return e, 1, nil
	})
}
