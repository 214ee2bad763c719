package dspcore

// Park-Miller (Lehmer) minimal-standard PRNGs, modulus 2^31-1, used in
// pairs so their difference forms TPDF (triangular) dither noise. Two
// distinct multipliers keep the pair decorrelated.
const pmModulus = 2147483647 // 2^31 - 1

type pmRand struct {
	state uint32
	mult  uint64
}

func newPMRand(seed uint32, mult uint64) *pmRand {
	s := seed % pmModulus
	if s == 0 {
		s = 1
	}
	return &pmRand{state: s, mult: mult}
}

func (p *pmRand) next() uint32 {
	p.state = uint32((uint64(p.state) * p.mult) % pmModulus)
	return p.state
}

// DitherRNG produces TPDF-distributed dither noise in [-1, 1] scaled by
// a precision-dependent multiplier, exactly mirroring the original's
// pm_rand1_r/pm_rand2_r/tpdf_noise construction.
type DitherRNG struct {
	s0, s1 *pmRand
}

// NewDitherRNG seeds the two generators. Seeds are expected to differ
// (e.g. derived from two different counters) so the pair is
// decorrelated.
func NewDitherRNG(seed0, seed1 uint32) *DitherRNG {
	return &DitherRNG{
		s0: newPMRand(seed0, 48271),
		s1: newPMRand(seed1, 16807),
	}
}

// DitherMult computes the TPDF scale factor for the given output precision in
// bits: 1 / (PM_RAND_MAX * 2^(prec-1)).
func DitherMult(prec int) float64 {
	return 1.0 / (float64(pmModulus) * float64(int64(1)<<uint(prec-1)))
}

// Noise returns one TPDF-distributed noise sample scaled by mult.
func (d *DitherRNG) Noise(mult float64) float64 {
	a := float64(d.s0.next())
	b := float64(d.s1.next())
	return (a - b) * mult
}
