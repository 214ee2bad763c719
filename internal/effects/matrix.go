package effects

import (
	"strconv"

	"github.com/doismellburning/dsp/internal/dspcore"
	"github.com/doismellburning/dsp/internal/effect"
)

// matrix4State passively decodes a stereo signal into four channels
// (front-left, front-right, rear-left, rear-right) the way a simple
// Hafler-style passive matrix does: the rears carry the out-of-phase
// difference between the fronts. The algorithm is intentionally simple
// since decoder fidelity is explicitly out of scope; the catalogue
// entry and its channel-count-changing contract are what matter here.
type matrix4State struct{}

func (matrix4State) run(frames int, in, out []dspcore.Sample) ([]dspcore.Sample, int) {
	for f := 0; f < frames; f++ {
		l, r := in[f*2], in[f*2+1]
		diff := (l - r) / 2
		out[f*4+0] = l
		out[f*4+1] = r
		out[f*4+2] = diff
		out[f*4+3] = -diff
	}
	return out, frames
}

// matrix4MBState is the multiband variant: the rear difference signal
// is derived only from the band below the crossover frequency, the
// fronts pass the full signal, matching the source's practice of
// limiting the decoded surround content to bass/midrange content.
type matrix4MBState struct {
	lpfL, lpfR biquadState
}

func (m *matrix4MBState) run(frames int, in, out []dspcore.Sample) ([]dspcore.Sample, int) {
	for f := 0; f < frames; f++ {
		l, r := in[f*2], in[f*2+1]
		lb := m.lpfL.runOne(l)
		rb := m.lpfR.runOne(r)
		diff := (lb - rb) / 2
		out[f*4+0] = l
		out[f*4+1] = r
		out[f*4+2] = diff
		out[f*4+3] = -diff
	}
	return out, frames
}

func (m *matrix4MBState) reset() {
	m.lpfL.reset()
	m.lpfR.reset()
}

func init() {
	register("matrix4", func(ctx *Context, args []string) (*effect.Effect, int, error) {
		if ctx.IStream.Channels != 2 {
			return nil, 0, errArgs("matrix4: requires 2 channels", args)
		}
		out := dspcore.StreamInfo{FS: ctx.IStream.FS, Channels: 4}
		e := newEffect("matrix4", ctx, out)
		e.Flags |= effect.PlotMix
		e.Run = matrix4State{}.run
		e.Plot = func(idx int) []string { return []string{"# matrix4 idx=" + strconv.Itoa(idx)} }
		return e, 0, nil
	})

	register("matrix4_mb", func(ctx *Context, args []string) (*effect.Effect, int, error) {
		if ctx.IStream.Channels != 2 {
			return nil, 0, errArgs("matrix4_mb: requires 2 channels", args)
		}
		freq := 700.0
		consumed := 0
		if len(args) > 0 {
			if v, err := dspcore.ParseFreq(args[0]); err == nil {
				freq = v
				consumed = 1
			}
		}
		st := &matrix4MBState{}
		fs := float64(ctx.IStream.FS)
		b0, b1, a1 := onepoleCoeffs("lowpass_1", fs, freq, 0)
		st.lpfL.b0, st.lpfL.b1, st.lpfL.a1 = b0, b1, a1
		st.lpfR.b0, st.lpfR.b1, st.lpfR.a1 = b0, b1, a1

		out := dspcore.StreamInfo{FS: ctx.IStream.FS, Channels: 4}
		e := newEffect("matrix4_mb", ctx, out)
		e.Flags |= effect.PlotMix
		e.Run = st.run
		e.Reset = st.reset
		e.Plot = func(idx int) []string { return []string{"# matrix4_mb idx=" + strconv.Itoa(idx)} }
		return e, consumed, nil
	})
}
