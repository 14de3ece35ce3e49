package common

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateRandByteArray(t *testing.T) {
	for _, n := range []int{0, 1, 12, 32} {
		assert.Len(t, GenerateRandByteArray(n), n)
	}

	// two 32-byte draws colliding means the source is broken
	a, b := GenerateRandByteArray(32), GenerateRandByteArray(32)
	assert.False(t, bytes.Equal(a, b))
}

func TestWipeByteArray(t *testing.T) {
	key := []byte{1, 2, 3, 4}
	WipeByteArray(key)
	assert.Equal(t, []byte{0, 0, 0, 0}, key)

	assert.NotPanics(t, func() { WipeByteArray(nil) })
}
