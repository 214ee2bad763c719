package effects

import (
	"math"
	"strconv"

	"github.com/doismellburning/dsp/internal/dspcore"
	"github.com/doismellburning/dsp/internal/effect"
	"github.com/doismellburning/dsp/internal/globals"
)

// statsState is a transparent analysis tail: run is identity, but
// every selected channel's running peak, RMS and DC offset are
// accumulated and logged at destroy time. It is the canonical
// NO_DITHER, non-PLOT_MIX catalogue entry: dithering an analysis-only
// tail serves no purpose.
type statsState struct {
	sel      *dspcore.Selector
	channels int
	n        []int64
	sum      []float64
	sumSq    []float64
	peak     []float64
	name     string
	g        *globals.Settings
}

func (s *statsState) run(frames int, in, out []dspcore.Sample) ([]dspcore.Sample, int) {
	for f := 0; f < frames; f++ {
		for ch := 0; ch < s.channels; ch++ {
			if !s.sel.Selected(ch) {
				continue
			}
			x := in[f*s.channels+ch]
			s.n[ch]++
			s.sum[ch] += x
			s.sumSq[ch] += x * x
			if a := math.Abs(x); a > s.peak[ch] {
				s.peak[ch] = a
			}
		}
	}
	return in, frames
}

func (s *statsState) destroy() {
	if s.g == nil {
		return
	}
	for ch := 0; ch < s.channels; ch++ {
		if s.n[ch] == 0 {
			continue
		}
		mean := s.sum[ch] / float64(s.n[ch])
		rms := math.Sqrt(s.sumSq[ch] / float64(s.n[ch]))
		s.g.Logf(globals.LLNormal, "stats: channel %d: peak=%.6f rms=%.6f dc=%.6f", ch, s.peak[ch], rms, mean)
	}
}

func init() {
	register("stats", func(ctx *Context, args []string) (*effect.Effect, int, error) {
		channels := ctx.IStream.Channels
		name := "stats"
		consumed := 0
		if len(args) > 0 {
			name = args[0]
			consumed = 1
		}
		st := &statsState{
			sel: ctx.Selector, channels: channels, name: name, g: ctx.Globals,
			n: make([]int64, channels), sum: make([]float64, channels),
			sumSq: make([]float64, channels), peak: make([]float64, channels),
		}
		e := newEffect("stats", ctx, ctx.IStream)
		e.Flags |= effect.NoDither
		e.Run = st.run
		e.Destroy = st.destroy
		e.Plot = func(idx int) []string { return []string{"# stats idx=" + strconv.Itoa(idx)} }
		return e, consumed, nil
	})
}
