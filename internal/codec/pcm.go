package codec

import (
	"encoding/binary"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/lestrrat-go/strftime"

	"github.com/doismellburning/dsp/internal/dspcore"
)

// pcmState is a headerless, fixed-format interleaved sample file: no
// magic, no chunked container, just Prec-bit signed little/big-endian
// (or 32-bit float) samples back to back. It exists for deterministic
// fixtures and round-trip tests where a real container format would
// only add parsing noise.
type pcmState struct {
	f        *os.File
	prec     int
	bigEndian bool
	float    bool
	channels int
	bytesPer int
}

// expandPath stamps any strftime directive in path (e.g. "rec-%Y%m%d-%H%M%S.pcm")
// with the current time, so a capture destination can be given once and
// get a fresh, sortable name on every run. Paths with no '%' pass through
// untouched; a malformed directive is left as-is rather than failing the open.
func expandPath(path string) string {
	if !strings.Contains(path, "%") {
		return path
	}
	f, err := strftime.New(path)
	if err != nil {
		return path
	}
	return f.FormatString(time.Now())
}

func bytesPerSample(prec int) int {
	switch {
	case prec <= 8:
		return 1
	case prec <= 16:
		return 2
	case prec <= 24:
		return 3
	default:
		return 4
	}
}

// OpenPCM opens p.Path as raw interleaved PCM for reading or writing,
// at the bit depth implied by p.Enc ("s16", "s24", "s32", "f32"; "s16"
// if unset), byte order from p.Endian (native if EndianDefault).
func OpenPCM(p Params) (*Codec, error) {
	var flags int
	path := p.Path
	if p.Mode == ModeWrite {
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
		path = expandPath(path)
	} else {
		flags = os.O_RDONLY
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, &OpenError{Path: p.Path, Type: "pcm", Err: err}
	}
	prec := encPrec(p.Enc)
	st := &pcmState{
		f: f, prec: prec, channels: p.Channels,
		bigEndian: p.Endian == EndianBig,
		float:     p.Enc == "f32",
		bytesPer:  bytesPerSample(prec),
	}
	var frames int64 = -1
	if p.Mode == ModeRead {
		if info, err := f.Stat(); err == nil && p.Channels > 0 {
			frames = info.Size() / int64(st.bytesPer*p.Channels)
		}
	}
	c := &Codec{
		Path: path, Type: "pcm", Enc: p.Enc, FS: p.FS, Channels: p.Channels,
		Prec: prec, Frames: frames,
		Seek:    st.seek,
		Destroy: st.destroy,
	}
	if p.Mode == ModeRead {
		c.Read = st.read
	} else {
		c.Write = st.write
		c.Hints |= CanDither
	}
	return c, nil
}

func encPrec(enc string) int {
	switch enc {
	case "s8":
		return 8
	case "s24":
		return 24
	case "s32", "f32":
		return 32
	default:
		return 16
	}
}

func (st *pcmState) order() binary.ByteOrder {
	if st.bigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (st *pcmState) read(buf []dspcore.Sample, frames int) (int, error) {
	raw := make([]byte, frames*st.channels*st.bytesPer)
	n, err := io.ReadFull(st.f, raw)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return 0, err
	}
	got := n / (st.channels * st.bytesPer)
	order := st.order()
	for i := 0; i < got*st.channels; i++ {
		buf[i] = st.decode(raw[i*st.bytesPer:], order)
	}
	return got, nil
}

func (st *pcmState) decode(b []byte, order binary.ByteOrder) dspcore.Sample {
	switch st.bytesPer {
	case 1:
		return dspcore.Sample(int8(b[0])) / 128
	case 2:
		return dspcore.Sample(int16(order.Uint16(b))) / 32768
	case 3:
		var v int32
		if st.bigEndian {
			v = int32(b[0])<<16 | int32(b[1])<<8 | int32(b[2])
		} else {
			v = int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
		}
		if v&0x800000 != 0 {
			v |= -1 << 24
		}
		return dspcore.Sample(v) / 8388608
	default:
		if st.float {
			bits := order.Uint32(b)
			return dspcore.Sample(math.Float32frombits(bits))
		}
		return dspcore.Sample(int32(order.Uint32(b))) / 2147483648
	}
}

func (st *pcmState) encode(s dspcore.Sample, order binary.ByteOrder) []byte {
	b := make([]byte, st.bytesPer)
	switch st.bytesPer {
	case 1:
		b[0] = byte(int8(clamp(s) * 127))
	case 2:
		order.PutUint16(b, uint16(int16(clamp(s)*32767)))
	case 3:
		v := int32(clamp(s) * 8388607)
		if st.bigEndian {
			b[0], b[1], b[2] = byte(v>>16), byte(v>>8), byte(v)
		} else {
			b[0], b[1], b[2] = byte(v), byte(v>>8), byte(v>>16)
		}
	default:
		if st.float {
			order.PutUint32(b, math.Float32bits(float32(s)))
		} else {
			order.PutUint32(b, uint32(int32(clamp(s)*2147483647)))
		}
	}
	return b
}

func clamp(s dspcore.Sample) dspcore.Sample {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}

func (st *pcmState) write(buf []dspcore.Sample, frames int) (int, error) {
	order := st.order()
	raw := make([]byte, 0, frames*st.channels*st.bytesPer)
	for i := 0; i < frames*st.channels; i++ {
		raw = append(raw, st.encode(buf[i], order)...)
	}
	n, err := st.f.Write(raw)
	if err != nil {
		return n / (st.channels * st.bytesPer), err
	}
	return frames, nil
}

func (st *pcmState) seek(pos int64) (int64, error) {
	off := pos * int64(st.channels*st.bytesPer)
	n, err := st.f.Seek(off, io.SeekStart)
	if err != nil {
		return 0, err
	}
	return n / int64(st.channels*st.bytesPer), nil
}

func (st *pcmState) destroy() {
	st.f.Close()
}
