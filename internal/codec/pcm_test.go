package codec_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/doismellburning/dsp/internal/codec"
	"github.com/doismellburning/dsp/internal/dspcore"
)

func Test_PCM_roundTrip_s16(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rt.pcm")

	w, err := codec.OpenPCM(codec.Params{Path: path, Type: "pcm", Enc: "s16", Channels: 2, Mode: codec.ModeWrite})
	assert.NoError(t, err)

	want := []dspcore.Sample{0.5, -0.5, 1.0, -1.0, 0.0, 0.25}
	n, err := w.Write(want, 3)
	assert.NoError(t, err)
	assert.Equal(t, 3, n)
	w.Destroy()

	r, err := codec.OpenPCM(codec.Params{Path: path, Type: "pcm", Enc: "s16", Channels: 2, Mode: codec.ModeRead})
	assert.NoError(t, err)
	defer r.Destroy()

	got := make([]dspcore.Sample, 6)
	n, err = r.Read(got, 3)
	assert.NoError(t, err)
	assert.Equal(t, 3, n)

	for i := range want {
		assert.InDelta(t, want[i], got[i], 1.0/32768, "sample %d should survive an s16 round trip within one quantization step", i)
	}
}

func Test_PCM_roundTrip_f32(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rt.pcm")

	w, err := codec.OpenPCM(codec.Params{Path: path, Type: "pcm", Enc: "f32", Channels: 1, Mode: codec.ModeWrite})
	assert.NoError(t, err)
	want := []dspcore.Sample{0.123456, -0.987654}
	_, err = w.Write(want, 2)
	assert.NoError(t, err)
	w.Destroy()

	r, err := codec.OpenPCM(codec.Params{Path: path, Type: "pcm", Enc: "f32", Channels: 1, Mode: codec.ModeRead})
	assert.NoError(t, err)
	defer r.Destroy()

	got := make([]dspcore.Sample, 2)
	n, err := r.Read(got, 2)
	assert.NoError(t, err)
	assert.Equal(t, 2, n)
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-6)
	}
}

func Test_PCM_seekRepositions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seek.pcm")
	w, err := codec.OpenPCM(codec.Params{Path: path, Type: "pcm", Enc: "s16", Channels: 1, Mode: codec.ModeWrite})
	assert.NoError(t, err)
	_, err = w.Write([]dspcore.Sample{0, 0.1, 0.2, 0.3}, 4)
	assert.NoError(t, err)
	w.Destroy()

	r, err := codec.OpenPCM(codec.Params{Path: path, Type: "pcm", Enc: "s16", Channels: 1, Mode: codec.ModeRead})
	assert.NoError(t, err)
	defer r.Destroy()

	pos, err := r.Seek(2)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), pos)

	got := make([]dspcore.Sample, 2)
	n, err := r.Read(got, 2)
	assert.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.InDelta(t, 0.2, got[0], 1.0/32768)
	assert.InDelta(t, 0.3, got[1], 1.0/32768)
}

func Test_Null_readIsSilenceAndBounded(t *testing.T) {
	c, err := codec.OpenNull(codec.Params{Channels: 2, Mode: codec.ModeRead, TotalFrames: 4})
	assert.NoError(t, err)

	buf := make([]dspcore.Sample, 20)
	n, err := c.Read(buf, 10)
	assert.NoError(t, err)
	assert.Equal(t, 4, n)
	for _, s := range buf[:8] {
		assert.Equal(t, dspcore.Sample(0), s)
	}

	n, err = c.Read(buf, 10)
	assert.NoError(t, err)
	assert.Equal(t, 0, n, "reading past TotalFrames should report end of stream")
}

func Test_Sgen_isReproducible(t *testing.T) {
	mk := func() *codec.Codec {
		c, err := codec.OpenSgen(codec.Params{Path: "440:1", FS: 8000, Channels: 1, Mode: codec.ModeRead, TotalFrames: 16})
		assert.NoError(t, err)
		return c
	}

	a, b := mk(), mk()
	bufA := make([]dspcore.Sample, 16)
	bufB := make([]dspcore.Sample, 16)
	na, err := a.Read(bufA, 16)
	assert.NoError(t, err)
	nb, err := b.Read(bufB, 16)
	assert.NoError(t, err)
	assert.Equal(t, na, nb)
	assert.Equal(t, bufA, bufB, "two identically-configured generators must produce identical streams")
}
