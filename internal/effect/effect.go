// Package effect implements the effect abstraction and its lifecycle
// contract: a polymorphic unit of stream processing with an optional
// method table, composed into a singly-linked chain.
package effect

import "github.com/doismellburning/dsp/internal/dspcore"

// Flag bits on an Effect, matching the semantics fixed by the
// specification: OptReorderable lets the merge-scan skip past an
// effect without consuming it; PlotMix marks a channel-count change as
// a plot-accumulator boundary; NoDither excludes an effect from the
// auto-dither "has_effects" predicate.
type Flag uint32

const (
	OptReorderable Flag = 1 << iota
	PlotMix
	NoDither
)

// Runner transforms frames frames from in into out (or in place),
// returning the buffer actually written and the number of output
// frames produced. It may produce fewer frames than requested when an
// internal delay line is still filling.
type Runner func(frames int, in, out []dspcore.Sample) (buf []dspcore.Sample, outFrames int)

// Drainer emits residual samples after input has ended. framesOut is
// the number of frames written into out, or -1 once fully exhausted.
type Drainer func(out []dspcore.Sample) (framesOut int)

// Drainer2 is the buffer-selecting analogue of Drainer, mirroring Run's
// in-place-or-swap contract.
type Drainer2 func(buf1, buf2 []dspcore.Sample) (buf []dspcore.Sample, framesOut int)

// Merger attempts to absorb src's behavior into the receiver. On
// success the caller destroys src and removes it from the chain.
type Merger func(e *Effect, src *Effect) bool

// Effect is the sum-type node of the chain: every effect is this same
// struct, with an optional method table filled in as closures by its
// constructor. Per the design notes, this sum-type-over-fixed-catalogue
// form (rather than an interface per effect kind) is what makes the
// merge check and chain walk trivial.
type Effect struct {
	Name     string
	IStream  dspcore.StreamInfo
	OStream  dspcore.StreamInfo
	Selector *dspcore.Selector
	Flags    Flag

	Next *Effect

	Run          Runner
	Delay        func() int
	Reset        func()
	Signal       func()
	Plot         func(idx int) []string
	Drain        Drainer
	Drain2       Drainer2
	Destroy      func()
	Merge        Merger
	BufferFrames func(inFrames int) int

	// State is the effect's private data, owned exclusively by its own
	// methods.
	State any
}

func (e *Effect) HasFlag(f Flag) bool { return e.Flags&f != 0 }

// IsMixer reports whether this effect changes channel count, in which
// case it must carry PlotMix per the invariant in the data model.
func (e *Effect) IsMixer() bool {
	return e.IStream.Channels != e.OStream.Channels
}

// DestroyOne releases e's own private state without touching Next; used
// internally while tearing down a chain one node at a time.
func (e *Effect) DestroyOne() {
	if e.Destroy != nil {
		e.Destroy()
	}
}
