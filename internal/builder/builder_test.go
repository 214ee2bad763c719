package builder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/doismellburning/dsp/internal/builder"
	"github.com/doismellburning/dsp/internal/dspcore"
	"github.com/doismellburning/dsp/internal/effect"
)

func tokens(s string) []string { return dspcore.Tokenize(s) }

func Test_Build_simpleChain(t *testing.T) {
	istream := dspcore.StreamInfo{FS: 44100, Channels: 2}
	chain, err := builder.Build(nil, istream, ".", tokens("gain -3 gain 3"), false)
	assert.NoError(t, err)
	defer chain.Destroy()

	// Build runs the optimizer, which merges the two gains into one.
	assert.Equal(t, 1, chain.Len())
	assert.NoError(t, chain.Validate())
	assert.Equal(t, istream, chain.OStream())
}

func Test_Build_unknownEffectErrors(t *testing.T) {
	istream := dspcore.StreamInfo{FS: 44100, Channels: 2}
	_, err := builder.Build(nil, istream, ".", tokens("no_such_effect 1 2"), false)
	assert.Error(t, err)
}

func Test_Build_bangTolerance(t *testing.T) {
	istream := dspcore.StreamInfo{FS: 44100, Channels: 2}
	chain, err := builder.Build(nil, istream, ".", tokens("! no_such_effect gain -3"), false)
	assert.NoError(t, err)
	defer chain.Destroy()

	// the tolerated failure contributes nothing; only "gain" survives.
	assert.Equal(t, 1, chain.Len())
}

func Test_Build_nestedBlockAppliesOnlyToSelectedChannels(t *testing.T) {
	istream := dspcore.StreamInfo{FS: 44100, Channels: 2}
	chain, err := builder.Build(nil, istream, ".", tokens(":0 { gain -3 }"), false)
	assert.NoError(t, err)
	defer chain.Destroy()

	assert.Equal(t, 1, chain.Len())
	assert.NoError(t, chain.Validate())

	bufLen := chain.BufferLen(1, istream.Channels)
	bufA := make([]dspcore.Sample, bufLen)
	bufB := make([]dspcore.Sample, bufLen)
	copy(bufA, []dspcore.Sample{1, 1})

	out, n := effect.RunChain(chain, 1, bufA, bufB)
	assert.Equal(t, 1, n)
	// -3dB is a scale of 10^(-3/20) on channel 0 only.
	assert.InDelta(t, 0.7079457843841379, out[0], 1e-9)
	assert.InDelta(t, 1, out[1], 1e-9, "channel 1 is outside the block's selector and must not be touched")
}

func Test_Build_unmatchedBraceErrors(t *testing.T) {
	istream := dspcore.StreamInfo{FS: 44100, Channels: 2}
	_, err := builder.Build(nil, istream, ".", tokens(":0 { gain -3"), false)
	assert.Error(t, err)
}

func Test_Build_requireEOFMissing(t *testing.T) {
	// requireEOF only matters for @-included files, so an inline script
	// with no EOF marker and requireEOF set still parses fine. The
	// enforcement path in includeFile is not exercised here.
	istream := dspcore.StreamInfo{FS: 44100, Channels: 1}
	chain, err := builder.Build(nil, istream, ".", tokens("gain -3"), true)
	assert.NoError(t, err)
	chain.Destroy()
}

// Test_Build_channelShrinkBudgetsMaskToSurvivingCount reconciles a
// 3-of-4-channel selection against a remix that halves the channel
// count: the enclosing mask must budget down to popcount(old)+delta
// surviving channels rather than keep every compacted survivor
// addressable, so a selector that assumes the old virtual-channel count
// still holds must fail to resolve.
func Test_Build_channelShrinkBudgetsMaskToSurvivingCount(t *testing.T) {
	istream := dspcore.StreamInfo{FS: 44100, Channels: 4}

	// ":0,1,2" selects real channels {0,1,2} (3 of 4); "remix 0 1" halves
	// the stream to 2 channels, budgeting the mask to nb = 3 + (2-4) = 1
	// surviving virtual channel. ":1" only resolves if two virtual
	// channels are still addressable, which must not be the case.
	_, err := builder.Build(nil, istream, ".", tokens(":0,1,2 { remix 0 1 :1 gain -3 }"), false)
	assert.Error(t, err, "the shrunk mask must budget to one surviving virtual channel, not two")

	// ":0" addresses the one virtual channel the budget actually allows.
	chain, err := builder.Build(nil, istream, ".", tokens(":0,1,2 { remix 0 1 :0 gain -3 }"), false)
	assert.NoError(t, err)
	defer chain.Destroy()
	assert.NoError(t, chain.Validate())
}

// Test_Build_channelGrowthPreservesExcludedChannels reconciles a
// 2-of-4-channel selection against a remix that grows the channel
// count: the enclosing mask must carry the old bits over unchanged
// (leaving previously excluded channels excluded) and force-set only
// the newly appended indices, rather than marking every channel
// addressable. A gain aimed at the second surviving virtual channel
// must land on real channel 2, not on the excluded real channel 1.
func Test_Build_channelGrowthPreservesExcludedChannels(t *testing.T) {
	istream := dspcore.StreamInfo{FS: 44100, Channels: 4}

	// ":0,2" selects real channels {0,2}; "remix" grows the stream from
	// 4 to 6 channels, passing the first four through and deriving the
	// last two from real channels 0 and 2. The grown mask must read
	// {0,2,4,5}: virtual index 1 names real channel 2, never the
	// excluded real channel 1.
	chain, err := builder.Build(nil, istream, ".", tokens(":0,2 { remix . . . . 0 2 :1 gain -100 }"), false)
	assert.NoError(t, err)
	defer chain.Destroy()
	assert.NoError(t, chain.Validate())

	bufLen := chain.BufferLen(1, istream.Channels)
	bufA := make([]dspcore.Sample, bufLen)
	bufB := make([]dspcore.Sample, bufLen)
	copy(bufA, []dspcore.Sample{1, 2, 3, 4})

	out, n := effect.RunChain(chain, 1, bufA, bufB)
	assert.Equal(t, 1, n)

	// remix output before the gain: [in0, in1, in2, in3, in0, in2] ==
	// [1, 2, 3, 4, 1, 3]; -100dB on real channel 2 alone collapses it
	// near zero while every other channel, including the excluded
	// real channel 1, is untouched.
	assert.InDelta(t, 1, out[0], 1e-9)
	assert.InDelta(t, 2, out[1], 1e-9, "real channel 1 was excluded from the mask and must not be touched")
	assert.InDelta(t, 0, out[2], 1e-3, "virtual index 1 must resolve to real channel 2")
	assert.InDelta(t, 4, out[3], 1e-9)
	assert.InDelta(t, 1, out[4], 1e-9)
	assert.InDelta(t, 3, out[5], 1e-9)
}
