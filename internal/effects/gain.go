package effects

import (
	"math"
	"strconv"

	"github.com/doismellburning/dsp/internal/dspcore"
	"github.com/doismellburning/dsp/internal/effect"
)

// gainState holds a linear scale factor applied to every selected
// channel, and absorbs a subsequent gain effect by multiplying scales
// together (the canonical peephole-merge example in §8 scenario 2).
type gainState struct {
	scale float64
	sel   *dspcore.Selector
}

func (g *gainState) run(frames int, in, out []dspcore.Sample) ([]dspcore.Sample, int) {
	channels := g.sel.Channels()
	for f := 0; f < frames; f++ {
		for ch := 0; ch < channels; ch++ {
			i := f*channels + ch
			if g.sel.Selected(ch) {
				in[i] *= g.scale
			}
		}
	}
	return in, frames
}

func gainScaleFromDB(s string) (float64, error) {
	if s == "-inf" {
		return 0, nil
	}
	db, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return math.Pow(10, db/20), nil
}

func init() {
	register("gain", func(ctx *Context, args []string) (*effect.Effect, int, error) {
		if len(args) < 1 {
			return nil, 0, errArgs("gain", args)
		}
		scale, err := gainScaleFromDB(args[0])
		if err != nil {
			return nil, 0, err
		}
		st := &gainState{scale: scale, sel: ctx.Selector}
		e := newEffect("gain", ctx, ctx.IStream)
		e.Flags |= effect.OptReorderable
		e.Run = st.run
		e.Merge = func(dst, src *effect.Effect) bool {
			srcState, ok := src.State.(*gainState)
			if !ok || src.Name != "gain" {
				return false
			}
			dstState := dst.State.(*gainState)
			if !sameSelector(dstState.sel, srcState.sel) {
				return false
			}
			dstState.scale *= srcState.scale
			return true
		}
		e.State = st
		e.Plot = func(idx int) []string {
			return []string{"# gain idx=" + strconv.Itoa(idx) + " scale=" + strconv.FormatFloat(st.scale, 'g', -1, 64)}
		}
		return e, 1, nil
	})

	register("mult", func(ctx *Context, args []string) (*effect.Effect, int, error) {
		if len(args) < 1 {
			return nil, 0, errArgs("mult", args)
		}
		v, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return nil, 0, err
		}
		st := &gainState{scale: v, sel: ctx.Selector}
		e := newEffect("mult", ctx, ctx.IStream)
		e.Run = st.run
		e.Plot = func(idx int) []string { return []string{"# mult idx=" + strconv.Itoa(idx)} }
		return e, 1, nil
	})
}

func sameSelector(a, b *dspcore.Selector) bool {
	if a.Channels() != b.Channels() {
		return false
	}
	for ch := 0; ch < a.Channels(); ch++ {
		if a.Selected(ch) != b.Selected(ch) {
			return false
		}
	}
	return true
}
