package engine_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/doismellburning/dsp/internal/codec"
	"github.com/doismellburning/dsp/internal/dither"
	"github.com/doismellburning/dsp/internal/dspcore"
	"github.com/doismellburning/dsp/internal/engine"
)

func Test_Engine_Run_appliesGainEndToEnd(t *testing.T) {
	in, err := codec.OpenSgen(codec.Params{
		Path: "1000:1", FS: 8000, Channels: 1, Mode: codec.ModeRead, TotalFrames: 256,
	})
	assert.NoError(t, err)

	outPath := filepath.Join(t.TempDir(), "out.pcm")
	out, err := codec.OpenPCM(codec.Params{
		Path: outPath, Type: "pcm", Enc: "f32", FS: 8000, Channels: 1, Mode: codec.ModeWrite,
	})
	assert.NoError(t, err)

	var inputs codec.List
	inputs.Append(in)

	en := engine.New(nil, engine.Options{
		Tokens:      []string{"gain", "-6"},
		Dir:         ".",
		BlockFrames: 64,
		ReadBlocks:  4,
		WriteBlocks: 4,
		Dither:      dither.Off,
	})
	err = en.Run(&inputs, out)
	assert.NoError(t, err)
	out.Destroy()

	// Re-read the reference signal at the same settings, unscaled, to
	// compare against the gained output.
	ref, err := codec.OpenSgen(codec.Params{Path: "1000:1", FS: 8000, Channels: 1, Mode: codec.ModeRead, TotalFrames: 256})
	assert.NoError(t, err)
	refBuf := make([]dspcore.Sample, 256)
	refN, err := ref.Read(refBuf, 256)
	assert.NoError(t, err)
	assert.Equal(t, 256, refN)

	got, err := codec.OpenPCM(codec.Params{Path: outPath, Type: "pcm", Enc: "f32", Channels: 1, Mode: codec.ModeRead})
	assert.NoError(t, err)
	defer got.Destroy()
	gotBuf := make([]dspcore.Sample, 256)
	gotN, err := got.Read(gotBuf, 256)
	assert.NoError(t, err)
	assert.Equal(t, 256, gotN)

	// -6dB linear scale factor, matches gain's gainScaleFromDB.
	const scale = 0.5011872336272722

	for i := range refBuf {
		assert.InDelta(t, refBuf[i]*dspcore.Sample(scale), gotBuf[i], 1e-4, "sample %d should be the reference scaled by -6dB", i)
	}
}

func Test_Engine_Run_emptyCodecListErrors(t *testing.T) {
	out, err := codec.OpenNull(codec.Params{Channels: 1, Mode: codec.ModeWrite})
	assert.NoError(t, err)
	defer out.Destroy()

	en := engine.New(nil, engine.Options{BlockFrames: 64, ReadBlocks: 2, WriteBlocks: 2})
	err = en.Run(&codec.List{}, out)
	assert.Error(t, err)
}
