package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorEncoding(t *testing.T) {
	in := []float32{0, 1.5, -2.25, 3.4028235e38}
	out, err := decodeVector(encodeVector(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodeVector_RejectsBadLength(t *testing.T) {
	_, err := decodeVector([]byte{1, 2, 3})
	assert.ErrorIs(t, err, errCorruptVector)
	_, err = decodeVector(nil)
	assert.ErrorIs(t, err, errCorruptVector)
}
