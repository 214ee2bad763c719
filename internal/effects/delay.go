package effects

import (
	"strconv"

	"github.com/doismellburning/dsp/internal/dspcore"
	"github.com/doismellburning/dsp/internal/effect"
)

// delayLine is a single-channel ring buffer implementing a fixed
// positive delay, mirroring delay_effect_run's swap-through-ring-buffer
// technique (in place: each sample is exchanged with the buffer's
// current head before it advances).
type delayLine struct {
	buf    []dspcore.Sample
	p      int
	full   bool
}

func newDelayLine(frames int) *delayLine {
	if frames <= 0 {
		return nil
	}
	return &delayLine{buf: make([]dspcore.Sample, frames)}
}

func (d *delayLine) step(x dspcore.Sample) dspcore.Sample {
	if d == nil {
		return x
	}
	y := d.buf[d.p]
	d.buf[d.p] = x
	d.p++
	if d.p >= len(d.buf) {
		d.p = 0
		d.full = true
	}
	return y
}

func (d *delayLine) delayFrames() int {
	if d == nil {
		return 0
	}
	if d.full {
		return len(d.buf)
	}
	return d.p
}

func (d *delayLine) reset() {
	if d == nil {
		return
	}
	for i := range d.buf {
		d.buf[i] = 0
	}
	d.p, d.full = 0, false
}

type delayState struct {
	lines    []*delayLine
	sel      *dspcore.Selector
	channels int
}

func (s *delayState) run(frames int, in, out []dspcore.Sample) ([]dspcore.Sample, int) {
	for f := 0; f < frames; f++ {
		for ch := 0; ch < s.channels; ch++ {
			i := f*s.channels + ch
			if s.sel.Selected(ch) {
				in[i] = s.lines[ch].step(in[i])
			}
		}
	}
	return in, frames
}

func (s *delayState) reset() {
	for _, l := range s.lines {
		l.reset()
	}
}

func (s *delayState) delay() int {
	max := 0
	for ch := 0; ch < s.channels; ch++ {
		if s.sel.Selected(ch) {
			if d := s.lines[ch].delayFrames(); d > max {
				max = d
			}
		}
	}
	return max
}

func init() {
	register("delay", func(ctx *Context, args []string) (*effect.Effect, int, error) {
		if len(args) < 1 {
			return nil, 0, errArgs("delay", args)
		}
		channels := ctx.IStream.Channels
		sel := ctx.Selector
		lines := make([]*delayLine, channels)
		consumed := 0
		k := 0
		for ch := 0; ch < channels; ch++ {
			if !sel.Selected(ch) {
				continue
			}
			idx := k
			if idx >= len(args) {
				idx = len(args) - 1
			}
			frames, err := dspcore.ParseLenFrac(args[idx], ctx.IStream.FS, true)
			if err != nil {
				return nil, 0, err
			}
			lines[ch] = newDelayLine(frames)
			if idx+1 > consumed {
				consumed = idx + 1
			}
			k++
		}
		st := &delayState{lines: lines, sel: sel, channels: channels}
		e := newEffect("delay", ctx, ctx.IStream)
		e.Run = st.run
		e.Reset = st.reset
		e.Delay = st.delay
		e.Plot = func(idx int) []string { return []string{"# delay idx=" + strconv.Itoa(idx)} }
		return e, consumed, nil
	})
}
