package effects

import (
	"math"
	"strconv"

	"github.com/doismellburning/dsp/internal/effect"
)

// linkwitzState implements the classic Linkwitz transform: a digital
// biquad that maps a source (fs0, q0) second-order high-pass response
// onto a target (fp, qp) response, via the analog-domain derivation
// bilinear-transformed to the digital domain. lowpass_transform and
// highpass_transform do not use this derivation: they build plain
// lowpass and highpass biquads at the given frequency and Q.
type linkwitzState struct {
	biquadState
}

func linkwitzCoeffs(fs, f0, q0, fp, qp float64) (b0, b1, b2, a0, a1, a2 float64) {
	d0 := math.Pow(2*math.Pi*f0, 2)
	e0 := (2 * math.Pi * f0) / q0
	d1 := math.Pow(2*math.Pi*fp, 2)
	e1 := (2 * math.Pi * fp) / qp
	k := 2 * fs
	kk := k * k

	a0 = kk + e1*k + d1
	a1 = 2 * (d1 - kk)
	a2 = kk - e1*k + d1

	b0 = (kk + e0*k + d0) * (d1 / d0)
	b1 = 2 * (d1/d0*d0 - kk*(d1/d0))
	b2 = (kk - e0*k + d0) * (d1 / d0)
	return
}

func init() {
	register("linkwitz_transform", func(ctx *Context, args []string) (*effect.Effect, int, error) {
		if len(args) < 4 {
			return nil, 0, errArgs("linkwitz_transform", args)
		}
		vals := make([]float64, 4)
		for i := 0; i < 4; i++ {
			v, err := strconv.ParseFloat(args[i], 64)
			if err != nil {
				return nil, 0, err
			}
			vals[i] = v
		}
		fs := float64(ctx.IStream.FS)
		b0, b1, b2, a0, a1, a2 := linkwitzCoeffs(fs, vals[0], vals[1], vals[2], vals[3])
		st := &linkwitzState{}
		st.b0, st.b1, st.b2 = b0/a0, b1/a0, b2/a0
		st.a1, st.a2 = a1/a0, a2/a0
		e := newEffect("linkwitz_transform", ctx, ctx.IStream)
		e.Run = st.run
		e.Reset = st.reset
		e.Plot = func(idx int) []string { return []string{"# linkwitz_transform idx=" + strconv.Itoa(idx)} }
		return e, 4, nil
	})

	for _, name := range []string{"lowpass_transform", "highpass_transform"} {
		name := name
		register(name, func(ctx *Context, args []string) (*effect.Effect, int, error) {
			if len(args) < 2 {
				return nil, 0, errArgs(name, args)
			}
			freq, err := parseFreqArg(args[0])
			if err != nil {
				return nil, 0, err
			}
			q, err := strconv.ParseFloat(trimQSuffix(args[1]), 64)
			if err != nil {
				return nil, 0, err
			}
			kind := "lowpass"
			if name == "highpass_transform" {
				kind = "highpass"
			}
			return newBiquadEffect(name, kind, ctx, freq, q, 0), 2, nil
		})
	}
}
