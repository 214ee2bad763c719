// Package effects is the catalogue of leaf effect algorithms named in
// the external interface: gain, filters, remix, dither, the watch
// effect, and so on. The runtime treats every one of these opaquely
// through the effect.Effect method table; this package supplies the
// concrete math.
package effects

import (
	"fmt"

	"github.com/doismellburning/dsp/internal/dspcore"
	"github.com/doismellburning/dsp/internal/effect"
	"github.com/doismellburning/dsp/internal/globals"
)

// Context carries everything an init function needs beyond its own
// argument tokens: the stream it's being inserted into, the channel
// selector currently in scope, a directory for resolving relative
// paths (impulse files, watch targets), and the process settings for
// logging.
type Context struct {
	IStream  dspcore.StreamInfo
	Selector *dspcore.Selector
	Dir      string
	Globals  *globals.Settings
	// Resolve builds a sub-chain from a nested token stream at the given
	// stream/selector; supplied by the builder package to let the watch
	// effect rebuild itself without an import cycle.
	Resolve func(istream dspcore.StreamInfo, sel *dspcore.Selector, dir string, tokens []string) (*effect.Chain, error)
}

// InitFunc constructs an effect (or a short chain via Next) from its
// argument tokens, returning the number of tokens consumed.
type InitFunc func(ctx *Context, args []string) (e *effect.Effect, consumed int, err error)

var registry = map[string]InitFunc{}

func register(name string, fn InitFunc) {
	registry[name] = fn
}

// Lookup resolves an effect name token to its init function.
func Lookup(name string) (InitFunc, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// Names lists the catalogue in the order given in the external
// interface, for -h/usage output.
func Names() []string {
	return []string{
		"lowpass_1", "highpass_1", "allpass_1", "lowshelf_1", "highshelf_1", "lowpass_1p",
		"lowpass", "highpass", "bandpass_skirt", "bandpass_peak", "notch", "allpass", "eq",
		"lowshelf", "highshelf", "lowpass_transform", "highpass_transform", "linkwitz_transform",
		"deemph", "biquad", "gain", "mult", "add", "crossfeed", "matrix4", "matrix4_mb", "remix",
		"st2ms", "ms2st", "delay", "resample", "fir", "fir_p", "zita_convolver", "hilbert",
		"decorrelate", "noise", "dither", "ladspa_host", "stats", "watch",
	}
}

func errArgs(name string, args []string) error {
	return fmt.Errorf("%s: bad arguments %v", name, args)
}

func newEffect(name string, ctx *Context, out dspcore.StreamInfo) *effect.Effect {
	return &effect.Effect{
		Name:     name,
		IStream:  ctx.IStream,
		OStream:  out,
		Selector: ctx.Selector,
	}
}
