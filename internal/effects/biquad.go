package effects

import (
	"math"
	"strconv"

	"github.com/doismellburning/dsp/internal/dspcore"
	"github.com/doismellburning/dsp/internal/effect"
)

// biquadState is a direct-form-II-transposed second order IIR section,
// shared by every biquad-family catalogue entry. Coefficients are
// normalized so a0 == 1.
type biquadState struct {
	b0, b1, b2, a1, a2 float64
	z1, z2             float64
	fs, freq, q, gain  float64
	kind               string
}

func (b *biquadState) runOne(x float64) float64 {
	y := b.b0*x + b.z1
	b.z1 = b.b1*x + b.z2 - b.a1*y
	b.z2 = b.b2*x - b.a2*y
	return y
}

func (b *biquadState) run(frames int, in, out []dspcore.Sample) ([]dspcore.Sample, int) {
	channels := len(in) / frames
	if channels == 0 {
		return in, frames
	}
	_ = channels
	for i := 0; i < len(in); i++ {
		out[i] = b.runOne(in[i])
	}
	return out, frames
}

func (b *biquadState) reset() {
	b.z1, b.z2 = 0, 0
}

// rbjCoeffs computes the RBJ audio-EQ-cookbook biquad coefficients for
// the standard filter kinds. gainDB is only meaningful for eq, lowshelf
// and highshelf.
func rbjCoeffs(kind string, fs, freq, q, gainDB float64) (b0, b1, b2, a0, a1, a2 float64) {
	w0 := 2 * math.Pi * freq / fs
	cosw0 := math.Cos(w0)
	sinw0 := math.Sin(w0)
	alpha := sinw0 / (2 * q)
	A := math.Pow(10, gainDB/40)

	switch kind {
	case "lowpass":
		b0 = (1 - cosw0) / 2
		b1 = 1 - cosw0
		b2 = (1 - cosw0) / 2
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	case "highpass":
		b0 = (1 + cosw0) / 2
		b1 = -(1 + cosw0)
		b2 = (1 + cosw0) / 2
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	case "bandpass_skirt":
		b0 = sinw0 / 2
		b1 = 0
		b2 = -sinw0 / 2
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	case "bandpass_peak":
		b0 = alpha
		b1 = 0
		b2 = -alpha
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	case "notch":
		b0 = 1
		b1 = -2 * cosw0
		b2 = 1
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	case "allpass":
		b0 = 1 - alpha
		b1 = -2 * cosw0
		b2 = 1 + alpha
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	case "eq":
		b0 = 1 + alpha*A
		b1 = -2 * cosw0
		b2 = 1 - alpha*A
		a0 = 1 + alpha/A
		a1 = -2 * cosw0
		a2 = 1 - alpha/A
	case "lowshelf":
		sq := math.Sqrt(A) * alpha * 2
		b0 = A * ((A + 1) - (A-1)*cosw0 + sq)
		b1 = 2 * A * ((A - 1) - (A+1)*cosw0)
		b2 = A * ((A + 1) - (A-1)*cosw0 - sq)
		a0 = (A + 1) + (A-1)*cosw0 + sq
		a1 = -2 * ((A - 1) + (A+1)*cosw0)
		a2 = (A + 1) + (A-1)*cosw0 - sq
	case "highshelf":
		sq := math.Sqrt(A) * alpha * 2
		b0 = A * ((A + 1) + (A-1)*cosw0 + sq)
		b1 = -2 * A * ((A - 1) + (A+1)*cosw0)
		b2 = A * ((A + 1) + (A-1)*cosw0 - sq)
		a0 = (A + 1) - (A-1)*cosw0 + sq
		a1 = 2 * ((A - 1) - (A+1)*cosw0)
		a2 = (A + 1) - (A-1)*cosw0 - sq
	default:
		b0, a0 = 1, 1
	}
	return
}

func newBiquadEffect(name, kind string, ctx *Context, freq, q, gainDB float64) *effect.Effect {
	st := &biquadState{fs: float64(ctx.IStream.FS), freq: freq, q: q, gain: gainDB, kind: kind}
	b0, b1, b2, a0, a1, a2 := rbjCoeffs(kind, st.fs, freq, q, gainDB)
	st.b0, st.b1, st.b2 = b0/a0, b1/a0, b2/a0
	st.a1, st.a2 = a1/a0, a2/a0

	e := newEffect(name, ctx, ctx.IStream)
	e.Run = st.run
	e.Reset = st.reset
	e.Plot = func(idx int) []string {
		return []string{biquadPlotLine(name, idx, st)}
	}
	return e
}

func biquadPlotLine(name string, idx int, st *biquadState) string {
	return "# " + name + " idx=" + strconv.Itoa(idx) +
		" freq=" + strconv.FormatFloat(st.freq, 'g', -1, 64) +
		" q=" + strconv.FormatFloat(st.q, 'g', -1, 64)
}

func parseFreqQGain(args []string, fs int, needsGain bool) (freq, q, gain float64, consumed int, err error) {
	if len(args) < 1 {
		return 0, 0, 0, 0, errArgs("biquad", args)
	}
	freq, err = dspcore.ParseFreq(args[0])
	if err != nil {
		return 0, 0, 0, 0, err
	}
	q = 0.707
	consumed = 1
	if needsGain {
		if len(args) < 2 {
			return 0, 0, 0, 0, errArgs("biquad", args)
		}
		gain, err = strconv.ParseFloat(args[1], 64)
		if err != nil {
			return 0, 0, 0, 0, err
		}
		consumed = 2
		if len(args) > 2 {
			if v, err2 := strconv.ParseFloat(trimQSuffix(args[2]), 64); err2 == nil {
				q = v
				consumed = 3
			}
		}
		return
	}
	if len(args) > 1 {
		if v, err2 := strconv.ParseFloat(trimQSuffix(args[1]), 64); err2 == nil {
			q = v
			consumed = 2
		}
	}
	return
}

func trimQSuffix(s string) string {
	if len(s) > 0 && (s[len(s)-1] == 'q' || s[len(s)-1] == 'Q') {
		return s[:len(s)-1]
	}
	return s
}

func init() {
	for _, kind := range []string{"lowpass", "highpass", "bandpass_skirt", "bandpass_peak", "notch", "allpass"} {
		kind := kind
		register(kind, func(ctx *Context, args []string) (*effect.Effect, int, error) {
			freq, q, _, consumed, err := parseFreqQGain(args, ctx.IStream.FS, false)
			if err != nil {
				return nil, 0, err
			}
			return newBiquadEffect(kind, kind, ctx, freq, q, 0), consumed, nil
		})
	}
	for _, kind := range []string{"eq", "lowshelf", "highshelf"} {
		kind := kind
		register(kind, func(ctx *Context, args []string) (*effect.Effect, int, error) {
			freq, q, gain, consumed, err := parseFreqQGain(args, ctx.IStream.FS, true)
			if err != nil {
				return nil, 0, err
			}
			return newBiquadEffect(kind, kind, ctx, freq, q, gain), consumed, nil
		})
	}
	register("biquad", func(ctx *Context, args []string) (*effect.Effect, int, error) {
		if len(args) < 6 {
			return nil, 0, errArgs("biquad", args)
		}
		coef := make([]float64, 6)
		for i := 0; i < 6; i++ {
			v, err := strconv.ParseFloat(args[i], 64)
			if err != nil {
				return nil, 0, err
			}
			coef[i] = v
		}
		st := &biquadState{
			b0: coef[0] / coef[3], b1: coef[1] / coef[3], b2: coef[2] / coef[3],
			a1: coef[4] / coef[3], a2: coef[5] / coef[3],
			fs: float64(ctx.IStream.FS), kind: "biquad",
		}
		e := newEffect("biquad", ctx, ctx.IStream)
		e.Run = st.run
		e.Reset = st.reset
		e.Plot = func(idx int) []string { return []string{biquadPlotLine("biquad", idx, st)} }
		return e, 6, nil
	})
}
