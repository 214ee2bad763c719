package dspcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_ParseSelector_empty_selectsAll(t *testing.T) {
	sel, err := ParseSelector("", 4)
	assert.NoError(t, err)
	assert.True(t, sel.IsEmpty())
	for ch := 0; ch < 4; ch++ {
		assert.True(t, sel.Selected(ch))
	}
	assert.Equal(t, 4, sel.Count())
}

func Test_ParseSelector_indicesAndRanges(t *testing.T) {
	sel, err := ParseSelector("0,2-3", 4)
	assert.NoError(t, err)
	assert.False(t, sel.IsEmpty())
	assert.True(t, sel.Selected(0))
	assert.False(t, sel.Selected(1))
	assert.True(t, sel.Selected(2))
	assert.True(t, sel.Selected(3))
	assert.Equal(t, 3, sel.Count())
}

func Test_ParseSelector_outOfRange(t *testing.T) {
	_, err := ParseSelector("5", 4)
	assert.Error(t, err)
}

func Test_ParseSelectorMasked_indexesWithinMask(t *testing.T) {
	mask := NewSelector(6)
	mask.Set(1)
	mask.Set(3)
	mask.Set(5)

	// Within the 3-channel virtual space (1,3,5), index 1 means the
	// second set bit of the mask, i.e. real channel 3.
	sel, err := ParseSelectorMasked("1", mask)
	assert.NoError(t, err)
	assert.False(t, sel.Selected(1))
	assert.True(t, sel.Selected(3))
	assert.False(t, sel.Selected(5))
}

func Test_GrowMask_growthPreservesOldBitsAndSetsOnlyNewIndices(t *testing.T) {
	mask := NewSelector(2)
	mask.Set(0)
	grown := GrowMask(mask, 4)
	assert.Equal(t, 4, grown.Channels())
	assert.True(t, grown.Selected(0), "old set bit is carried over as-is")
	assert.False(t, grown.Selected(1), "old unset bit must not be force-set")
	assert.True(t, grown.Selected(2), "newly appended index is force-set")
	assert.True(t, grown.Selected(3), "newly appended index is force-set")
}

func Test_GrowMask_shrinkKeepsOriginalChannelIndicesUnderBudget(t *testing.T) {
	mask := NewSelector(4)
	mask.Set(0)
	mask.Set(1)
	mask.Set(2)
	shrunk := GrowMask(mask, 2)
	assert.Equal(t, 2, shrunk.Channels())
	// nb = popcount(3) + (2-4) = 1: only the first set bit survives, at
	// its original channel index, not compacted to {0,1}.
	assert.True(t, shrunk.Selected(0))
	assert.False(t, shrunk.Selected(1))
}
