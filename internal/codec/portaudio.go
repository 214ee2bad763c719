package codec

import (
	"fmt"

	"github.com/gordonklaus/portaudio"

	"github.com/doismellburning/dsp/internal/dspcore"
)

// portaudioState holds the blocking-mode stream and the float32
// interleaved scratch buffer portaudio's Go binding requires (the
// engine's Codec interface works in float64 dspcore.Sample throughout).
type portaudioState struct {
	stream   *portaudio.Stream
	scratch  []float32
	channels int
}

// OpenPortaudio opens the default input or output device in blocking
// mode (no callback), the only codec in the catalogue truthful about
// the Realtime hint: its read/write calls genuinely block on device
// period boundaries the way §5's "codec read/write may itself block"
// note describes.
func OpenPortaudio(p Params) (*Codec, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, &OpenError{Path: p.Path, Type: "portaudio", Err: err}
	}

	st := &portaudioState{channels: p.Channels}
	var stream *portaudio.Stream
	var err error
	blockFrames := p.BlockFrames
	if blockFrames <= 0 {
		blockFrames = DefaultBlockFrames
	}
	st.scratch = make([]float32, blockFrames*p.Channels)

	if p.Mode == ModeRead {
		stream, err = portaudio.OpenDefaultStream(p.Channels, 0, float64(p.FS), blockFrames, st.scratch)
	} else {
		stream, err = portaudio.OpenDefaultStream(0, p.Channels, float64(p.FS), blockFrames, st.scratch)
	}
	if err != nil {
		portaudio.Terminate()
		return nil, &OpenError{Path: p.Path, Type: "portaudio", Err: err}
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, &OpenError{Path: p.Path, Type: "portaudio", Err: err}
	}
	st.stream = stream

	c := &Codec{
		Path: p.Path, Type: "portaudio", FS: p.FS, Channels: p.Channels,
		Prec:  16,
		Hints: Interactive | Realtime | NoBuf,
		Frames: -1,
		Data:  st,
	}
	if p.Mode == ModeRead {
		c.Read = st.read
	} else {
		c.Write = st.write
		c.Hints |= CanDither
	}
	c.Destroy = st.destroy
	return c, nil
}

func (st *portaudioState) read(buf []dspcore.Sample, frames int) (int, error) {
	n := frames * st.channels
	if n > len(st.scratch) {
		n = len(st.scratch)
		frames = n / st.channels
	}
	if err := st.stream.Read(); err != nil {
		return 0, fmt.Errorf("portaudio: read: %w", err)
	}
	for i := 0; i < n; i++ {
		buf[i] = dspcore.Sample(st.scratch[i])
	}
	return frames, nil
}

func (st *portaudioState) write(buf []dspcore.Sample, frames int) (int, error) {
	n := frames * st.channels
	if n > len(st.scratch) {
		n = len(st.scratch)
		frames = n / st.channels
	}
	for i := 0; i < n; i++ {
		st.scratch[i] = float32(buf[i])
	}
	if err := st.stream.Write(); err != nil {
		return 0, fmt.Errorf("portaudio: write: %w", err)
	}
	return frames, nil
}

func (st *portaudioState) destroy() {
	if st.stream != nil {
		st.stream.Stop()
		st.stream.Close()
	}
	portaudio.Terminate()
}
