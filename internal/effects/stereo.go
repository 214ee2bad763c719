package effects

import (
	"strconv"

	"github.com/doismellburning/dsp/internal/dspcore"
	"github.com/doismellburning/dsp/internal/effect"
)

// st2ms/ms2st are the classic stereo<->mid-side transforms, both
// stereo-in stereo-out so they carry no PlotMix flag. They operate on
// the full frame regardless of the selector (stereo-only effects).
func stereoRun(to string) effect.Runner {
	return func(frames int, in, out []dspcore.Sample) ([]dspcore.Sample, int) {
		for f := 0; f < frames; f++ {
			l, r := in[f*2], in[f*2+1]
			if to == "ms" {
				out[f*2] = (l + r) / 2
				out[f*2+1] = (l - r) / 2
			} else {
				m, s := l, r
				out[f*2] = m + s
				out[f*2+1] = m - s
			}
		}
		return out, frames
	}
}

func init() {
	register("st2ms", func(ctx *Context, args []string) (*effect.Effect, int, error) {
		if ctx.IStream.Channels != 2 {
			return nil, 0, errArgs("st2ms: requires 2 channels", args)
		}
		e := newEffect("st2ms", ctx, ctx.IStream)
		e.Run = stereoRun("ms")
		e.Plot = func(idx int) []string { return []string{"# st2ms idx=" + strconv.Itoa(idx)} }
		return e, 0, nil
	})
	register("ms2st", func(ctx *Context, args []string) (*effect.Effect, int, error) {
		if ctx.IStream.Channels != 2 {
			return nil, 0, errArgs("ms2st: requires 2 channels", args)
		}
		e := newEffect("ms2st", ctx, ctx.IStream)
		e.Run = stereoRun("st")
		e.Plot = func(idx int) []string { return []string{"# ms2st idx=" + strconv.Itoa(idx)} }
		return e, 0, nil
	})
}
