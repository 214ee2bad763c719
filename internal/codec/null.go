package codec

import "github.com/doismellburning/dsp/internal/dspcore"

// OpenNull opens a null codec: reads produce silence up to an optional
// bound (p.TotalFrames, unbounded if <= 0), writes discard everything.
// Used for timing benchmarks and testing chains without file I/O.
func OpenNull(p Params) (*Codec, error) {
	channels := p.Channels
	if channels <= 0 {
		channels = 1
	}
	st := &nullState{channels: channels, total: p.TotalFrames}
	c := &Codec{
		Path: p.Path, Type: "null", FS: p.FS, Channels: channels,
		Prec: 32, Frames: -1,
	}
	if p.TotalFrames > 0 {
		c.Frames = p.TotalFrames
	}
	if p.Mode == ModeRead {
		c.Read = st.read
	} else {
		c.Write = st.write
		c.Hints |= CanDither | NoOutBuf
	}
	return c, nil
}

type nullState struct {
	channels int
	total    int64
	pos      int64
}

func (st *nullState) read(buf []dspcore.Sample, frames int) (int, error) {
	if st.total > 0 {
		remaining := st.total - st.pos
		if remaining <= 0 {
			return 0, nil
		}
		if int64(frames) > remaining {
			frames = int(remaining)
		}
	}
	for i := 0; i < frames*st.channels; i++ {
		buf[i] = 0
	}
	st.pos += int64(frames)
	return frames, nil
}

func (st *nullState) write(buf []dspcore.Sample, frames int) (int, error) {
	return frames, nil
}
