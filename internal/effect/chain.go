package effect

import "github.com/doismellburning/dsp/internal/dspcore"

// Chain is a singly-linked list of effects. The invariant A.OStream ==
// B.IStream for every adjacent pair is the caller's responsibility when
// calling Append and is checked by Validate; nothing else is permitted
// to mutate the linkage.
type Chain struct {
	Head *Effect
	Tail *Effect
}

// Append adds e (and any effects already linked after it) to the end of
// the chain. It does not check the streaming invariant against the
// current tail; Validate does that.
func (c *Chain) Append(e *Effect) {
	if c.Tail == nil {
		c.Head = e
	} else {
		c.Tail.Next = e
	}
	c.Tail = e
	for e.Next != nil {
		c.Tail = e.Next
		e = e.Next
	}
}

// Validate walks the chain and checks the A.OStream == B.IStream
// invariant for every adjacent pair.
func (c *Chain) Validate() error {
	for e := c.Head; e != nil && e.Next != nil; e = e.Next {
		if !e.OStream.Equal(e.Next.IStream) {
			return &ChainInvariantError{A: e.Name, B: e.Next.Name}
		}
	}
	return nil
}

type ChainInvariantError struct {
	A, B string
}

func (e *ChainInvariantError) Error() string {
	return "effects chain invariant violated between " + e.A + " and " + e.B
}

// IStream returns the input stream of the chain (the head's IStream),
// or the zero value for an empty chain.
func (c *Chain) IStream() dspcore.StreamInfo {
	if c.Head == nil {
		return dspcore.StreamInfo{}
	}
	return c.Head.IStream
}

// OStream returns the output stream of the chain (the tail's OStream).
func (c *Chain) OStream() dspcore.StreamInfo {
	if c.Tail == nil {
		return dspcore.StreamInfo{}
	}
	return c.Tail.OStream
}

// Delay sums effect.Delay() across the chain, expressed in that
// effect's own OStream.FS; callers needing a single latency figure must
// convert and re-weight across rate changes themselves.
func (c *Chain) Delay() int {
	total := 0
	for e := c.Head; e != nil; e = e.Next {
		if e.Delay != nil {
			total += e.Delay()
		}
	}
	return total
}

// Reset clears every effect's internal state.
func (c *Chain) Reset() {
	for e := c.Head; e != nil; e = e.Next {
		if e.Reset != nil {
			e.Reset()
		}
	}
}

// SignalAll forwards a user signal event to every effect able to accept
// one. The watch effect overrides this to forward to its active
// sub-chain only.
func (c *Chain) SignalAll() {
	for e := c.Head; e != nil; e = e.Next {
		if e.Signal != nil {
			e.Signal()
		}
	}
}

// Destroy releases every effect's private state exactly once.
func (c *Chain) Destroy() {
	for e := c.Head; e != nil; {
		next := e.Next
		e.DestroyOne()
		e = next
	}
	c.Head, c.Tail = nil, nil
}

// BufferLen computes the scratch-buffer size in samples required to run
// blockFrames frames of inputChannels-channel audio through the chain,
// reproducing get_effects_chain_buffer_len exactly: at each effect,
// frames is rescaled by ceil(ostream.fs/g * frames / (istream.fs/g))
// where g = gcd(ostream.fs, istream.fs), and the running maximum of
// frames*channels is tracked at every step including the last.
func (c *Chain) BufferLen(blockFrames, inputChannels int) int {
	frames := blockFrames
	channels := inputChannels
	maxSamples := frames * channels
	for e := c.Head; e != nil; e = e.Next {
		g := dspcore.GCD(e.OStream.FS, e.IStream.FS)
		frames = dspcore.RatioMultCeil(frames, e.OStream.FS/g, e.IStream.FS/g)
		channels = e.OStream.Channels
		if n := frames * channels; n > maxSamples {
			maxSamples = n
		}
		if e.BufferFrames != nil {
			bf := e.BufferFrames(frames)
			if n := bf * channels; n > maxSamples {
				maxSamples = n
			}
		}
	}
	return maxSamples
}

// MaxOutFrames returns the largest number of output frames any single
// Run call in the chain could produce for blockFrames input frames,
// mirroring get_effects_chain_max_out_frames.
func (c *Chain) MaxOutFrames(blockFrames int) int {
	frames := blockFrames
	max := frames
	for e := c.Head; e != nil; e = e.Next {
		g := dspcore.GCD(e.OStream.FS, e.IStream.FS)
		frames = dspcore.RatioMultCeil(frames, e.OStream.FS/g, e.IStream.FS/g)
		if frames > max {
			max = frames
		}
	}
	return max
}

// NeedsDither reports whether any effect in the chain lacks NoDither and
// is not itself the dither effect (dither effects are identified by
// name to avoid import cycles with the effects catalogue).
func (c *Chain) NeedsDither() bool {
	for e := c.Head; e != nil; e = e.Next {
		if e.Name == "dither" {
			continue
		}
		if !e.HasFlag(NoDither) {
			return true
		}
	}
	return false
}

// FindDither returns the first effect named "dither" in the chain, or
// nil.
func (c *Chain) FindDither() *Effect {
	for e := c.Head; e != nil; e = e.Next {
		if e.Name == "dither" {
			return e
		}
	}
	return nil
}

// Len returns the number of effects in the chain.
func (c *Chain) Len() int {
	n := 0
	for e := c.Head; e != nil; e = e.Next {
		n++
	}
	return n
}
