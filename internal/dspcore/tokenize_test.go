package dspcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Tokenize_basic(t *testing.T) {
	assert.Equal(t, []string{"gain", "-3", "lowpass", "1000"}, Tokenize("gain -3 lowpass 1000"))
}

func Test_Tokenize_stripsComments(t *testing.T) {
	assert.Equal(t, []string{"gain", "-3"}, Tokenize("gain -3 # trailing comment\n"))
}

func Test_Tokenize_handlesEscapes(t *testing.T) {
	assert.Equal(t, []string{"a#b"}, Tokenize(`a\#b`))
}

func Test_Tokenize_bracesAndSelectors(t *testing.T) {
	assert.Equal(t, []string{":0", "{", "gain", "-3", "}"}, Tokenize(":0 { gain -3 }"))
}
