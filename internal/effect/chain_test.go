package effect_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/doismellburning/dsp/internal/dspcore"
	"github.com/doismellburning/dsp/internal/effect"
	"github.com/doismellburning/dsp/internal/effects"
)

func gainEffect(t *testing.T, db string, channels int) *effect.Effect {
	t.Helper()
	init, ok := effects.Lookup("gain")
	assert.True(t, ok)
	ctx := &effects.Context{
		IStream:  dspcore.StreamInfo{FS: 44100, Channels: channels},
		Selector: dspcore.NewSelector(channels),
	}
	e, consumed, err := init(ctx, []string{db})
	assert.NoError(t, err)
	assert.Equal(t, 1, consumed)
	return e
}

func Test_Chain_Validate_passesOnMatchingStreams(t *testing.T) {
	c := &effect.Chain{}
	c.Append(gainEffect(t, "-3", 2))
	c.Append(gainEffect(t, "6", 2))
	assert.NoError(t, c.Validate())
}

func Test_Chain_Validate_failsOnMismatch(t *testing.T) {
	c := &effect.Chain{}
	a := gainEffect(t, "-3", 2)
	b := gainEffect(t, "6", 2)
	b.IStream = dspcore.StreamInfo{FS: 48000, Channels: 2} // force a mismatch
	c.Append(a)
	c.Append(b)
	err := c.Validate()
	assert.Error(t, err)
	var invariantErr *effect.ChainInvariantError
	assert.ErrorAs(t, err, &invariantErr)
}

func Test_Optimize_mergesConsecutiveGains(t *testing.T) {
	c := &effect.Chain{}
	c.Append(gainEffect(t, "0", 2))  // scale 1
	c.Append(gainEffect(t, "20", 2)) // scale 10
	assert.Equal(t, 2, c.Len())

	effect.Optimize(c, nil)

	assert.Equal(t, 1, c.Len(), "two adjacent mergeable gains should merge into one")
	assert.Contains(t, c.Head.Plot(0)[0], "scale=10", "merged gain should carry the combined scale factor")
}

// Test_Optimize_stopsAtStreamBoundary checks that a channel-count change
// between two otherwise-mergeable effects prevents the merge, mirroring
// the original's scan terminating at any stream-change boundary.
func Test_Optimize_stopsAtStreamBoundary(t *testing.T) {
	c := &effect.Chain{}
	a := gainEffect(t, "0", 2)
	b := gainEffect(t, "6", 2)
	a.OStream = dspcore.StreamInfo{FS: 44100, Channels: 4}
	b.IStream = dspcore.StreamInfo{FS: 44100, Channels: 4}
	c.Append(a)
	c.Append(b)

	effect.Optimize(c, nil)

	assert.Equal(t, 2, c.Len(), "a channel-count change must not be merged across")
}

func Test_Chain_BufferLen_neverBelowBlockTimesChannels(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		blockFrames := rapid.IntRange(1, 4096).Draw(t, "blockFrames")
		channels := rapid.IntRange(1, 8).Draw(t, "channels")

		c := &effect.Chain{}
		got := c.BufferLen(blockFrames, channels)

		assert.GreaterOrEqual(t, got, blockFrames*channels)
	})
}

func Test_Chain_Delay_sumsAcrossEffects(t *testing.T) {
	c := &effect.Chain{}
	e1 := &effect.Effect{Name: "a", Delay: func() int { return 3 }}
	e2 := &effect.Effect{Name: "b", Delay: func() int { return 5 }}
	c.Append(e1)
	c.Append(e2)
	assert.Equal(t, 8, c.Delay())
}
