package appimagefmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validHead(runtimeType byte) []byte {
	head := make([]byte, 16)
	copy(head[0:4], elfMagic)
	head[8] = 'A'
	head[9] = 'I'
	head[10] = runtimeType
	return head
}

func TestParseValidType2Runtime(t *testing.T) {
	res := Parse(validHead(2))
	assert.True(t, res.ELFValid)
	assert.Equal(t, byte(2), res.RuntimeType)
	assert.True(t, res.Valid)
}

func TestParseMissingELFMagicIsInvalid(t *testing.T) {
	head := validHead(1)
	head[0] = 0x00
	res := Parse(head)
	assert.False(t, res.ELFValid)
	assert.False(t, res.Valid)
}

func TestParseMissingAIMarkerIsInvalid(t *testing.T) {
	head := validHead(1)
	head[8] = 'x'
	res := Parse(head)
	assert.True(t, res.ELFValid)
	assert.False(t, res.Valid)
}

func TestParseUnknownRuntimeTypeIsInvalid(t *testing.T) {
	res := Parse(validHead(9))
	assert.False(t, res.Valid)
	assert.Equal(t, byte(0), res.RuntimeType)
}

func TestParseTooShortForMarkerIsInvalid(t *testing.T) {
	head := make([]byte, 9)
	copy(head[0:4], elfMagic)
	res := Parse(head)
	assert.True(t, res.ELFValid)
	assert.False(t, res.Valid)
}
