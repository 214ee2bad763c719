package effects

import (
	"math"
	"strconv"

	"github.com/doismellburning/dsp/internal/dspcore"
	"github.com/doismellburning/dsp/internal/effect"
)

// resampleState converts the whole stream to a new sample rate via
// linear interpolation between input samples, carrying a fractional
// phase and the last sample of each channel across Run calls so the
// interpolated curve is continuous across block boundaries. It always
// spans every channel, since a rate change can't apply to only some
// channels of a single framed stream.
type resampleState struct {
	channels   int
	inFS, outFS int
	phase      float64
	last       []dspcore.Sample
}

func (s *resampleState) run(frames int, in, out []dspcore.Sample) ([]dspcore.Sample, int) {
	if frames == 0 {
		return out[:0], 0
	}
	step := float64(s.inFS) / float64(s.outFS)
	pos := s.phase
	n := 0
	for pos < float64(frames) {
		i0 := int(math.Floor(pos))
		frac := pos - float64(i0)
		for ch := 0; ch < s.channels; ch++ {
			var s0 dspcore.Sample
			if i0 == 0 {
				s0 = s.last[ch]
			} else {
				s0 = in[(i0-1)*s.channels+ch]
			}
			s1 := in[i0*s.channels+ch]
			out[n*s.channels+ch] = s0 + frac*(s1-s0)
		}
		n++
		pos += step
	}
	s.phase = pos - float64(frames)
	for ch := 0; ch < s.channels; ch++ {
		s.last[ch] = in[(frames-1)*s.channels+ch]
	}
	return out[:n*s.channels], n
}

func (s *resampleState) reset() {
	s.phase = 0
	for i := range s.last {
		s.last[i] = 0
	}
}

func init() {
	register("resample", func(ctx *Context, args []string) (*effect.Effect, int, error) {
		if ctx.Selector.Count() != ctx.IStream.Channels {
			return nil, 0, errArgs("resample: requires an unscoped selector", args)
		}
		if len(args) < 1 {
			return nil, 0, errArgs("resample", args)
		}
		outFS, err := strconv.Atoi(args[0])
		if err != nil || outFS <= 0 {
			return nil, 0, errArgs("resample", args)
		}
		channels := ctx.IStream.Channels
		st := &resampleState{
			channels: channels,
			inFS:     ctx.IStream.FS,
			outFS:    outFS,
			last:     make([]dspcore.Sample, channels),
		}
		ostream := ctx.IStream
		ostream.FS = outFS
		e := newEffect("resample", ctx, ostream)
		e.Run = st.run
		e.Reset = st.reset
		e.Plot = func(idx int) []string { return []string{"# resample idx=" + strconv.Itoa(idx) + " fs=" + strconv.Itoa(outFS)} }
		return e, 1, nil
	})
}
