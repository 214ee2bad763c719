package effects

import (
	"strconv"

	"github.com/doismellburning/dsp/internal/dspcore"
	"github.com/doismellburning/dsp/internal/effect"
)

func init() {
	register("add", func(ctx *Context, args []string) (*effect.Effect, int, error) {
		if len(args) < 1 {
			return nil, 0, errArgs("add", args)
		}
		offset, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return nil, 0, err
		}
		sel := ctx.Selector
		e := newEffect("add", ctx, ctx.IStream)
		e.Run = func(frames int, in, out []dspcore.Sample) ([]dspcore.Sample, int) {
			channels := sel.Channels()
			for f := 0; f < frames; f++ {
				for ch := 0; ch < channels; ch++ {
					if sel.Selected(ch) {
						in[f*channels+ch] += offset
					}
				}
			}
			return in, frames
		}
		e.Plot = func(idx int) []string { return []string{"# add idx=" + strconv.Itoa(idx)} }
		return e, 1, nil
	})
}
