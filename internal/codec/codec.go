// Package codec defines the polymorphic audio codec interface used by
// the engine for both read and write ends, plus a FIFO codec list
// supporting both the "concatenation" and "sequence" input modes.
package codec

import (
	"fmt"

	"github.com/doismellburning/dsp/internal/dspcore"
)

// Hint bit flags describing codec behavior to the engine.
type Hint uint32

const (
	Interactive Hint = 1 << iota
	CanDither
	NoOutBuf
	Realtime
	NoBuf
)

// Mode is the open mode a codec was constructed for.
type Mode int

const (
	ModeRead Mode = 1 << iota
	ModeWrite
)

// Endian is the sample byte order a codec was asked to use.
type Endian int

const (
	EndianDefault Endian = iota
	EndianBig
	EndianLittle
	EndianNative
)

// Params is the closed set of recognized codec construction options, a
// plain record rather than a variadic init signature.
type Params struct {
	Path        string
	Type        string
	Enc         string
	FS          int
	Channels    int
	Endian      Endian
	Mode        Mode
	BlockFrames int
	BufRatio    int
	// TotalFrames bounds a generator codec's length (e.g. sgen); <= 0
	// means unbounded/streaming.
	TotalFrames int64
}

const (
	DefaultBlockFrames = 2048
	DefaultInputRatio  = 64
	DefaultOutputRatio = 8
)

// Codec is the engine's view of an audio source or sink. Exactly one of
// Read/Write is meaningful, matching Mode. All methods are safe to call
// only from the single thread that owns the codec, except when wrapped
// by a ring buffer (see readbuf.go/writebuf.go), which serializes
// access internally.
type Codec struct {
	Next *Codec

	Path, Type, Enc string
	FS, Channels    int
	Prec            int
	Hints           Hint
	BufRatio        int
	// Frames is the total length in frames, or -1 if unknown/streaming.
	Frames int64

	Read    func(buf []dspcore.Sample, frames int) (int, error)
	Write   func(buf []dspcore.Sample, frames int) (int, error)
	Seek    func(pos int64) (int64, error)
	Delay   func() int64
	Drop    func()
	Pause   func(paused bool)
	Destroy func()

	Data any
}

func (c *Codec) HasHint(h Hint) bool { return c.Hints&h != 0 }

// Stream reports the codec's stream descriptor.
func (c *Codec) Stream() dspcore.StreamInfo {
	return dspcore.StreamInfo{FS: c.FS, Channels: c.Channels}
}

// OpenError distinguishes a codec-open failure (wrong format, device
// busy, file not found) from other errors so an autodetect cascade can
// try the next candidate without the log-level suppression hack the
// original used.
type OpenError struct {
	Path string
	Type string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("codec open error: %s (type=%s): %v", e.Path, e.Type, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// List is a FIFO of codecs. In "concatenation" mode every member must
// share fs/channels (enforced by the caller building it); in
// "sequence" mode members may differ and the engine rebuilds its chain
// between them.
type List struct {
	Head, Tail *Codec
}

func (l *List) Append(c *Codec) {
	if l.Tail == nil {
		l.Head = c
	} else {
		l.Tail.Next = c
	}
	l.Tail = c
}

// DestroyHead destroys and unlinks the head codec.
func (l *List) DestroyHead() {
	if l.Head == nil {
		return
	}
	head := l.Head
	l.Head = head.Next
	if l.Head == nil {
		l.Tail = nil
	}
	if head.Destroy != nil {
		head.Destroy()
	}
}

// DestroyAll destroys every codec in the list.
func (l *List) DestroyAll() {
	for l.Head != nil {
		l.DestroyHead()
	}
}
