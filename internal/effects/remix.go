package effects

import (
	"strconv"

	"github.com/doismellburning/dsp/internal/dspcore"
	"github.com/doismellburning/dsp/internal/effect"
)

// remixState maps each output channel to a sum of input channels named
// by a selector string per output, mirroring remix_effect_run: output k
// is the sum of every input channel selected for it.
type remixState struct {
	selectors []*dspcore.Selector
	inChans   int
}

func (r *remixState) run(frames int, in, out []dspcore.Sample) ([]dspcore.Sample, int) {
	outChans := len(r.selectors)
	for f := 0; f < frames; f++ {
		for k := 0; k < outChans; k++ {
			var sum dspcore.Sample
			sel := r.selectors[k]
			for j := 0; j < r.inChans; j++ {
				if sel.Selected(j) {
					sum += in[f*r.inChans+j]
				}
			}
			out[f*outChans+k] = sum
		}
	}
	return out, frames
}

func init() {
	register("remix", func(ctx *Context, args []string) (*effect.Effect, int, error) {
		if len(args) < 1 {
			return nil, 0, errArgs("remix", args)
		}
		inChans := ctx.IStream.Channels
		selectors := make([]*dspcore.Selector, 0, len(args))
		for k, a := range args {
			if a == "." {
				sel := dspcore.NewSelector(inChans)
				if k < inChans {
					sel.Set(k)
				}
				selectors = append(selectors, sel)
				continue
			}
			sel, err := dspcore.ParseSelector(a, inChans)
			if err != nil {
				return nil, 0, err
			}
			selectors = append(selectors, sel)
		}
		st := &remixState{selectors: selectors, inChans: inChans}
		out := dspcore.StreamInfo{FS: ctx.IStream.FS, Channels: len(selectors)}
		e := newEffect("remix", ctx, out)
		e.Flags |= effect.PlotMix
		e.Run = st.run
		e.Plot = func(idx int) []string { return []string{"# remix idx=" + strconv.Itoa(idx)} }
		return e, len(args), nil
	})
}
