package effects

import (
	"math"
	"strconv"

	"github.com/doismellburning/dsp/internal/dspcore"
	"github.com/doismellburning/dsp/internal/effect"
)

func defaultFreqParser(s string) (float64, error) { return dspcore.ParseFreq(s) }

// onepoleState is a first-order IIR section (one pole, up to one zero),
// backing the "_1" effect family plus the single-pole lowpass_1p
// variant, with the coefficient derivations below (lowpass_1p shares
// lowpass_1's).
type onepoleState struct {
	b0, b1, a1 float64
	z1         float64
	freq       float64
}

func (o *onepoleState) runOne(x float64) float64 {
	y := o.b0*x + o.z1
	o.z1 = o.b1*x - o.a1*y
	return y
}

func (o *onepoleState) run(frames int, in, out []float64) ([]float64, int) {
	for i := range in {
		out[i] = o.runOne(in[i])
	}
	return out, frames
}

func (o *onepoleState) reset() { o.z1 = 0 }

func onepoleCoeffs(kind string, fs, freq, gainDB float64) (b0, b1, a1 float64) {
	w0 := 2 * math.Pi * freq / fs
	k := math.Tan(w0 / 2)
	switch kind {
	case "lowpass_1", "lowpass_1p":
		a1 = (k - 1) / (k + 1)
		b0 = k / (k + 1)
		b1 = b0
	case "highpass_1":
		a1 = (k - 1) / (k + 1)
		b0 = 1 / (k + 1)
		b1 = -b0
	case "allpass_1":
		a1 = (k - 1) / (k + 1)
		b0 = a1
		b1 = 1
	case "lowshelf_1", "highshelf_1":
		A := math.Pow(10, gainDB/40)
		a1 = (k - 1) / (k + 1)
		b0 = 1 + (A-1)*(1+a1)/2
		b1 = 1 - (A-1)*(1+a1)/2
		if kind == "highshelf_1" {
			b1 = -b1
		}
	default:
		b0 = 1
	}
	return
}

func register1(name string, needsGain bool) {
	register(name, func(ctx *Context, args []string) (*effect.Effect, int, error) {
		if len(args) < 1 {
			return nil, 0, errArgs(name, args)
		}
		freq, err := parseFreqArg(args[0])
		if err != nil {
			return nil, 0, err
		}
		gain := 0.0
		consumed := 1
		if needsGain {
			if len(args) < 2 {
				return nil, 0, errArgs(name, args)
			}
			gain, err = strconv.ParseFloat(args[1], 64)
			if err != nil {
				return nil, 0, err
			}
			consumed = 2
		}
		st := &onepoleState{freq: freq}
		st.b0, st.b1, st.a1 = onepoleCoeffs(name, float64(ctx.IStream.FS), freq, gain)
		e := newEffect(name, ctx, ctx.IStream)
		e.Run = st.run
		e.Reset = st.reset
		e.Plot = func(idx int) []string {
			return []string{"# " + name + " idx=" + strconv.Itoa(idx) + " freq=" + strconv.FormatFloat(freq, 'g', -1, 64)}
		}
		return e, consumed, nil
	})
}

func parseFreqArg(s string) (float64, error) {
	return freqParser(s)
}

// freqParser is overridable only for tests; defaults to dspcore.ParseFreq.
var freqParser = defaultFreqParser

func init() {
	register1("lowpass_1", false)
	register1("highpass_1", false)
	register1("allpass_1", false)
	register1("lowshelf_1", true)
	register1("highshelf_1", true)
	register1("lowpass_1p", false)

	register("deemph", func(ctx *Context, args []string) (*effect.Effect, int, error) {
		// Standard CD de-emphasis time constants (50us/15us), fixed unless
		// overridden by an explicit frequency argument.
		freq := 5283.0
		consumed := 0
		if len(args) > 0 {
			if v, err := parseFreqArg(args[0]); err == nil {
				freq = v
				consumed = 1
			}
		}
		st := &onepoleState{freq: freq}
		st.b0, st.b1, st.a1 = onepoleCoeffs("lowshelf_1", float64(ctx.IStream.FS), freq, -9.0)
		e := newEffect("deemph", ctx, ctx.IStream)
		e.Run = st.run
		e.Reset = st.reset
		e.Plot = func(idx int) []string { return []string{"# deemph idx=" + strconv.Itoa(idx)} }
		return e, consumed, nil
	})
}
