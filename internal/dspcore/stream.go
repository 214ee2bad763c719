// Package dspcore holds the utility layer shared by the effect, builder
// and codec packages: stream descriptors, channel selectors, the argv
// tokenizer, numeric parsers, GCD/ratio helpers and the PRNG pair used
// by dither and noise.
package dspcore

// Sample is a single audio sample, double precision, nominally in
// [-1.0, +1.0].
type Sample = float64

// StreamInfo is the (sample_rate, channels) pair every effect and codec
// is described by.
type StreamInfo struct {
	FS       int
	Channels int
}

func (s StreamInfo) Equal(o StreamInfo) bool {
	return s.FS == o.FS && s.Channels == o.Channels
}
