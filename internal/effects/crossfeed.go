package effects

import (
	"math"
	"strconv"

	"github.com/doismellburning/dsp/internal/dspcore"
	"github.com/doismellburning/dsp/internal/effect"
)

// crossfeedState implements the classic Chu-Moy-style headphone
// crossfeed: each channel receives its own signal at direct_gain plus a
// lowpass-filtered, attenuated copy of the opposite channel, while the
// direct path is highpass filtered to keep the crossfeed from
// muddying the low end, mirroring crossfeed_effect_run's four-biquad
// structure.
type crossfeedState struct {
	directGain, crossGain   float64
	lpf0, lpf1, hpf0, hpf1 biquadState
}

func (c *crossfeedState) run(frames int, in, out []dspcore.Sample) ([]dspcore.Sample, int) {
	for f := 0; f < frames; f++ {
		l, r := in[f*2], in[f*2+1]
		crossL := c.lpf0.runOne(r)
		crossR := c.lpf1.runOne(l)
		directL := c.hpf0.runOne(l)
		directR := c.hpf1.runOne(r)
		out[f*2] = l*c.directGain + crossL*c.crossGain + directL*c.crossGain
		out[f*2+1] = r*c.directGain + crossR*c.crossGain + directR*c.crossGain
	}
	return out, frames
}

func (c *crossfeedState) reset() {
	c.lpf0.reset()
	c.lpf1.reset()
	c.hpf0.reset()
	c.hpf1.reset()
}

func init() {
	register("crossfeed", func(ctx *Context, args []string) (*effect.Effect, int, error) {
		if ctx.IStream.Channels != 2 {
			return nil, 0, errArgs("crossfeed: requires 2 channels", args)
		}
		if len(args) < 2 {
			return nil, 0, errArgs("crossfeed", args)
		}
		freq, err := dspcore.ParseFreq(args[0])
		if err != nil {
			return nil, 0, err
		}
		sepDB, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return nil, 0, err
		}
		sep := math.Pow(10, sepDB/20)
		st := &crossfeedState{
			directGain: sep / (1 + sep),
			crossGain:  1 / (1 + sep),
		}
		fs := float64(ctx.IStream.FS)
		for _, bq := range []*biquadState{&st.lpf0, &st.lpf1} {
			b0, b1, a1 := onepoleCoeffs("lowpass_1", fs, freq, 0)
			bq.b0, bq.b1, bq.b2, bq.a1, bq.a2 = b0, b1, 0, a1, 0
		}
		for _, bq := range []*biquadState{&st.hpf0, &st.hpf1} {
			b0, b1, a1 := onepoleCoeffs("highpass_1", fs, freq, 0)
			bq.b0, bq.b1, bq.b2, bq.a1, bq.a2 = b0, b1, 0, a1, 0
		}
		e := newEffect("crossfeed", ctx, ctx.IStream)
		e.Run = st.run
		e.Reset = st.reset
		e.Plot = func(idx int) []string { return []string{"# crossfeed idx=" + strconv.Itoa(idx)} }
		return e, 2, nil
	})
}
