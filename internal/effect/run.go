package effect

import "github.com/doismellburning/dsp/internal/dspcore"

// sameBacking reports whether a and b are backed by the same
// underlying array (used to detect "returned in place" vs "returned the
// other buffer" without assuming either slice is non-empty).
func sameBacking(a, b []dspcore.Sample) bool {
	if cap(a) == 0 || cap(b) == 0 {
		return cap(a) == cap(b) && len(a) == len(b)
	}
	return &a[:1][0] == &b[:1][0]
}

// RunChain walks c calling Run on each effect in turn, alternating
// between the two scratch buffers exactly as specified: an effect that
// processes in place returns buf "in" itself, so the pointer doesn't
// move; one that returns "out" causes the two buffers to swap roles for
// the next effect. bufA must already contain the frames frames read
// from the input codec. Returns the buffer holding the final output and
// the frame count.
func RunChain(c *Chain, frames int, bufA, bufB []dspcore.Sample) (out []dspcore.Sample, outFrames int) {
	in, scratch := bufA, bufB
	n := frames
	for e := c.Head; e != nil; e = e.Next {
		if e.Run == nil {
			continue
		}
		buf, outN := e.Run(n, in, scratch)
		n = outN
		if !sameBacking(buf, in) {
			in, scratch = scratch, in
		}
		in = buf
	}
	return in, n
}

// DrainChain implements the drain phase: starting from the first effect
// that has a Drain or Drain2 method, emit residual samples and feed
// them through the remaining tail of the chain. Returns nil once fully
// exhausted (drain reported -1).
func DrainChain(c *Chain, bufA, bufB []dspcore.Sample) (out []dspcore.Sample, outFrames int, done bool) {
	start := c.Head
	for start != nil && start.Drain == nil && start.Drain2 == nil {
		start = start.Next
	}
	if start == nil {
		return nil, 0, true
	}
	var buf []dspcore.Sample
	var n int
	if start.Drain2 != nil {
		buf, n = start.Drain2(bufA, bufB)
	} else {
		n = start.Drain(bufA)
		buf = bufA
	}
	if n < 0 {
		return nil, 0, true
	}
	if n == 0 {
		return buf, 0, false
	}
	in, scratch := buf, bufB
	if sameBacking(buf, bufB) {
		scratch = bufA
	}
	for e := start.Next; e != nil; e = e.Next {
		if e.Run == nil {
			continue
		}
		out, outN := e.Run(n, in, scratch)
		n = outN
		if !sameBacking(out, in) {
			in, scratch = scratch, in
		}
		in = out
	}
	return in, n, false
}
