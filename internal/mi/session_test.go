package mi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddressHex(t *testing.T) {
	n, err := ParseAddress("(int *) 0x7fffffffe01c")
	require.NoError(t, err)
	assert.Equal(t, uint64(0x7fffffffe01c), n)
}

func TestParseAddressDecimalFallback(t *testing.T) {
	n, err := ParseAddress("42")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), n)
}

func TestParseAddressNoneFound(t *testing.T) {
	_, err := ParseAddress("nonsense")
	assert.Error(t, err)
}

func TestParseAddressStopsAtNonHexChar(t *testing.T) {
	n, err := ParseAddress("0x10 <foo+4>")
	require.NoError(t, err)
	assert.Equal(t, uint64(0x10), n)
}
