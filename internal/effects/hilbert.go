package effects

import (
	"math"
	"strconv"

	"github.com/doismellburning/dsp/internal/dspcore"
	"github.com/doismellburning/dsp/internal/effect"
)

// hilbertTaps generates an odd-length windowed-sinc Hilbert
// transformer: an ideal discrete Hilbert kernel is 2/(pi*n) at odd n
// and 0 at even n, here tapered by a Hamming window to keep the
// truncated kernel's ripple down.
func hilbertTaps(ntaps int) []float64 {
	if ntaps%2 == 0 {
		ntaps++
	}
	taps := make([]float64, ntaps)
	center := ntaps / 2
	for i := 0; i < ntaps; i++ {
		n := i - center
		if n%2 == 0 {
			continue
		}
		w := 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(ntaps-1))
		taps[i] = w * 2 / (math.Pi * float64(n))
	}
	return taps
}

// hilbertState runs every selected channel through the 90-degree
// quadrature FIR kernel, via the same direct-form history used by fir.
type hilbertState struct {
	taps     []float64
	hist     []*firHistory
	sel      *dspcore.Selector
	channels int
}

func (s *hilbertState) run(frames int, in, out []dspcore.Sample) ([]dspcore.Sample, int) {
	for f := 0; f < frames; f++ {
		for ch := 0; ch < s.channels; ch++ {
			if !s.sel.Selected(ch) {
				continue
			}
			i := f*s.channels + ch
			in[i] = s.hist[ch].step(s.taps, in[i])
		}
	}
	return in, frames
}

func (s *hilbertState) reset() {
	for _, h := range s.hist {
		if h != nil {
			h.reset()
		}
	}
}

func (s *hilbertState) delay() int {
	return (len(s.taps) - 1) / 2
}

func init() {
	register("hilbert", func(ctx *Context, args []string) (*effect.Effect, int, error) {
		ntaps := 129
		consumed := 0
		if len(args) > 0 {
			if v, err := strconv.Atoi(args[0]); err == nil {
				ntaps = v
				consumed = 1
			}
		}
		taps := hilbertTaps(ntaps)
		channels := ctx.IStream.Channels
		hist := make([]*firHistory, channels)
		for ch := 0; ch < channels; ch++ {
			if ctx.Selector.Selected(ch) {
				hist[ch] = newFIRHistory(len(taps))
			}
		}
		st := &hilbertState{taps: taps, hist: hist, sel: ctx.Selector, channels: channels}
		e := newEffect("hilbert", ctx, ctx.IStream)
		e.Run = st.run
		e.Reset = st.reset
		e.Delay = st.delay
		e.Plot = func(idx int) []string { return []string{"# hilbert idx=" + strconv.Itoa(idx) + " ntaps=" + strconv.Itoa(len(taps))} }
		return e, consumed, nil
	})
}
