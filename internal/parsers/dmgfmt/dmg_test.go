package dmgfmt

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseValidTrailerWithKolyMarker(t *testing.T) {
	tail := make([]byte, 512)
	copy(tail[0:4], koly)
	res := Parse(tail)
	assert.True(t, res.Valid)
}

func TestParseMarkerLaterInTrailerStillValid(t *testing.T) {
	tail := bytes.Repeat([]byte{0x00}, 512)
	copy(tail[500:504], koly)
	res := Parse(tail)
	assert.True(t, res.Valid)
}

func TestParseMissingMarkerIsInvalid(t *testing.T) {
	tail := make([]byte, 512)
	res := Parse(tail)
	assert.False(t, res.Valid)
}

func TestParseWrongLengthTrailerIsInvalid(t *testing.T) {
	tail := make([]byte, 511)
	copy(tail[0:4], koly)
	res := Parse(tail)
	assert.False(t, res.Valid)
}
