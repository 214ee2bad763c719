package effects

import (
	"strconv"

	"github.com/doismellburning/dsp/internal/dspcore"
	"github.com/doismellburning/dsp/internal/effect"
)

// firHistory is a direct-form FIR filter's per-channel sample history,
// a simple circular buffer walked newest-to-oldest against the shared
// tap set on every sample.
type firHistory struct {
	buf []dspcore.Sample
	p   int
}

func newFIRHistory(ntaps int) *firHistory {
	return &firHistory{buf: make([]dspcore.Sample, ntaps)}
}

func (h *firHistory) step(taps []float64, x dspcore.Sample) dspcore.Sample {
	h.buf[h.p] = x
	var acc float64
	idx := h.p
	for _, t := range taps {
		acc += t * h.buf[idx]
		idx--
		if idx < 0 {
			idx = len(h.buf) - 1
		}
	}
	h.p++
	if h.p >= len(h.buf) {
		h.p = 0
	}
	return acc
}

func (h *firHistory) reset() {
	for i := range h.buf {
		h.buf[i] = 0
	}
}

// firState runs the same tap set, loaded once from an impulse/coefficient
// file, against every selected channel via direct time-domain
// convolution (fir_p runs the partitioned FFT equivalent).
type firState struct {
	taps     []float64
	hist     []*firHistory
	sel      *dspcore.Selector
	channels int
}

func (s *firState) run(frames int, in, out []dspcore.Sample) ([]dspcore.Sample, int) {
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

func (s *firState) reset() {
	for _, h := range s.hist {
		if h != nil {
			h.reset()
		}
	}
}

func (s *firState) delay() int {
	return (len(s.taps) - 1) / 2
}

func init() {
	register("fir", func(ctx *Context, args []string) (*effect.Effect, int, error) {
		if len(args) < 1 {
			return nil, 0, errArgs("fir", args)
		}
		taps, err := loadTaps(ctx.Dir, args[0])
		if err != nil {
			return nil, 0, err
		}
		if len(taps) == 0 {
			return nil, 1, errArgs("fir", args)
		}
		channels := ctx.IStream.Channels
		hist := make([]*firHistory, channels)
		for ch := 0; ch < channels; ch++ {
			if ctx.Selector.Selected(ch) {
				hist[ch] = newFIRHistory(len(taps))
			}
		}
		st := &firState{taps: taps, hist: hist, sel: ctx.Selector, channels: channels}
		e := newEffect("fir", ctx, ctx.IStream)
		e.Run = st.run
		e.Reset = st.reset
		e.Delay = st.delay
		e.Plot = func(idx int) []string { return []string{"# fir idx=" + strconv.Itoa(idx) + " ntaps=" + strconv.Itoa(len(taps))} }
		return e, 1, nil
	})
}
