package xarfmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func buildHeader(headerSize, version uint16) []byte {
	h := make([]byte, 8)
	copy(h[0:4], magic)
	h[4] = byte(headerSize >> 8)
	h[5] = byte(headerSize)
	h[6] = byte(version >> 8)
	h[7] = byte(version)
	return h
}

func TestParseValidV1Header(t *testing.T) {
	res := Parse(buildHeader(28, 1))
	assert.True(t, res.MagicValid)
	assert.Equal(t, uint16(28), res.HeaderSize)
	assert.Equal(t, uint16(1), res.Version)
	assert.True(t, res.Valid)
}

func TestParseHeaderSizeBelowMinimumIsInvalid(t *testing.T) {
	res := Parse(buildHeader(27, 1))
	assert.False(t, res.Valid)
}

func TestParseHeaderSizeAboveMaximumIsInvalid(t *testing.T) {
	res := Parse(buildHeader(4097, 1))
	assert.False(t, res.Valid)
}

func TestParseUnknownVersionIsInvalid(t *testing.T) {
	res := Parse(buildHeader(28, 3))
	assert.False(t, res.Valid)
}

func TestParseMissingMagicIsInvalid(t *testing.T) {
	h := buildHeader(28, 1)
	h[0] = 'y'
	res := Parse(h)
	assert.False(t, res.MagicValid)
	assert.False(t, res.Valid)
}

func TestParseTooShortIsInvalid(t *testing.T) {
	res := Parse([]byte("xar"))
	assert.False(t, res.MagicValid)
	assert.False(t, res.Valid)
}
