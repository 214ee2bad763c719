package dspcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func Test_GCD(t *testing.T) {
	assert.Equal(t, 6, GCD(48, 18))
	assert.Equal(t, 1, GCD(7, 13))
	assert.Equal(t, 5, GCD(5, 5))
}

func Test_RatioMultCeil(t *testing.T) {
	assert.Equal(t, 3, RatioMultCeil(5, 2, 4)) // 2.5 -> 3
	assert.Equal(t, 4, RatioMultCeil(4, 1, 1))
	assert.Equal(t, 0, RatioMultCeil(0, 1, 1))
}

func Test_RatioMultCeil_neverUndershoots(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		frames := rapid.IntRange(1, 1<<20).Draw(t, "frames")
		num := rapid.IntRange(1, 1<<10).Draw(t, "num")
		den := rapid.IntRange(1, 1<<10).Draw(t, "den")

		got := RatioMultCeil(frames, num, den)

		assert.GreaterOrEqual(t, got*den, frames*num, "ceil result must not round down")
		assert.Less(t, (got-1)*den, frames*num, "ceil result must be the smallest integer satisfying the bound")
	})
}
