package effects

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/doismellburning/dsp/internal/dspcore"
)

// loadTaps reads a coefficient/impulse-response file as whitespace
// separated floating point numbers, resolving relative paths against
// dir the same way the builder resolves @path includes.
func loadTaps(dir, path string) ([]float64, error) {
	full := path
	if !filepath.IsAbs(path) {
		full = filepath.Join(dir, path)
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(string(data))
	taps := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		taps[i] = v
	}
	return taps, nil
}

// blockConvolver applies a fixed FIR kernel to a running sample stream
// using overlap-save block convolution via the shared FFT planner
// cache, rather than direct time-domain multiply-accumulate. Each
// process call may be handed a different block length (the engine's
// call size is not guaranteed constant across a run), so the FFT plan
// is sized and cached per block length seen.
type blockConvolver struct {
	taps     []float64
	overlap  []float64 // last len(taps)-1 input samples carried from the previous call
	planners map[int]*dspcore.Planner
	specCach map[int][]complex128 // taps spectrum, cached per fftN
}

func newBlockConvolver(taps []float64) *blockConvolver {
	return &blockConvolver{
		taps:     taps,
		overlap:  make([]float64, len(taps)-1),
		planners: map[int]*dspcore.Planner{},
		specCach: map[int][]complex128{},
	}
}

func (c *blockConvolver) groupDelay() int {
	return (len(c.taps) - 1) / 2
}

func (c *blockConvolver) planner(fftN int) *dspcore.Planner {
	p, ok := c.planners[fftN]
	if !ok {
		p = dspcore.NewPlanner(fftN)
		c.planners[fftN] = p
	}
	return p
}

func (c *blockConvolver) tapsSpectrum(p *dspcore.Planner, fftN int) []complex128 {
	spec, ok := c.specCach[fftN]
	if ok {
		return spec
	}
	padded := make([]float64, fftN)
	copy(padded, c.taps)
	spec = p.Coefficients(nil, padded)
	c.specCach[fftN] = spec
	return spec
}

// process convolves in (length frames) against the kernel, returning a
// slice of the same length holding the linear (not circular) result,
// continuous across calls via the carried overlap tail.
func (c *blockConvolver) process(in []float64) []float64 {
	frames := len(in)
	if len(c.taps) == 0 {
		return in
	}
	n := frames + len(c.taps) - 1
	fftN := dspcore.RoundFFTSize(n)
	p := c.planner(fftN)
	hSpec := c.tapsSpectrum(p, fftN)

	buf := make([]float64, fftN)
	copy(buf, c.overlap)
	copy(buf[len(c.overlap):], in)

	xSpec := p.Coefficients(nil, buf)
	for i := range xSpec {
		xSpec[i] *= hSpec[i]
	}
	y := p.Sequence(nil, xSpec)

	out := make([]float64, frames)
	copy(out, y[len(c.overlap):len(c.overlap)+frames])

	// Carry the trailing len(taps)-1 samples of this call's input
	// forward as next call's overlap-save history.
	next := make([]float64, len(c.overlap))
	if frames >= len(next) {
		copy(next, in[frames-len(next):])
	} else {
		copy(next, c.overlap[frames:])
		copy(next[len(next)-frames:], in)
	}
	c.overlap = next
	return out
}

func (c *blockConvolver) reset() {
	for i := range c.overlap {
		c.overlap[i] = 0
	}
}
