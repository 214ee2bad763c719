package dspcore

import (
	"os"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
)

// planLock serializes access to the FFT planner, matching the
// original's process-wide FFT-planning lock: plan construction is not
// reentrant, plan execution is.
var planLock sync.Mutex

// RoundFFTSize rounds n up to the next size the FFT backend is
// efficient at. gonum's FFT accepts any length, but power-of-two sizes
// avoid the library's mixed-radix slow paths, so this still matters for
// the fir/resample leaves that size convolution blocks from it.
func RoundFFTSize(n int) int {
	if n <= 1 {
		return 1
	}
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}

// WisdomPath returns the FFTW-style wisdom file path from the
// environment, honoring DSP_FFTW_WISDOM_PATH (or the LADSPA-variant
// name when ladspa is true), or "" if unset. The actual FFTW wisdom
// format is out of scope; this only gates whether a cache file is
// consulted at all, which effects use to skip an expensive plan-time
// warmup pass.
func WisdomPath(ladspa bool) string {
	name := "DSP_FFTW_WISDOM_PATH"
	if ladspa {
		name = "DSP_FFTW_WISDOM_PATH_LADSPA"
	}
	return os.Getenv(name)
}

// HasWisdom reports whether a wisdom file exists and is readable at the
// configured path; planners use estimate mode when it does not.
func HasWisdom(ladspa bool) bool {
	p := WisdomPath(ladspa)
	if p == "" {
		return false
	}
	_, err := os.Stat(p)
	return err == nil
}

// Planner wraps a gonum real-FFT plan for a fixed size, guarded by the
// process-wide plan lock during construction only.
type Planner struct {
	n  int
	fp *fourier.FFT
}

// NewPlanner constructs (or would construct, via an FFTW wisdom file)
// a plan for transforms of length n.
func NewPlanner(n int) *Planner {
	planLock.Lock()
	defer planLock.Unlock()
	return &Planner{n: n, fp: fourier.NewFFT(n)}
}

// Coefficients runs the forward real FFT; safe for concurrent use by
// multiple goroutines sharing the same Planner, since plan execution
// (unlike construction) is thread-safe per the original's documented
// contract.
func (p *Planner) Coefficients(dst []complex128, src []float64) []complex128 {
	return p.fp.Coefficients(dst, src)
}

func (p *Planner) Len() int { return p.n }

// Sequence runs the inverse real FFT, recovering the time-domain signal
// from a forward-transformed (and possibly modified, e.g. multiplied by
// another spectrum) coefficient set.
func (p *Planner) Sequence(dst []float64, coeff []complex128) []float64 {
	return p.fp.Sequence(dst, coeff)
}
