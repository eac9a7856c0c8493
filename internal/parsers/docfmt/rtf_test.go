package docfmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRTFValidWithAnsiBaseline(t *testing.T) {
	head := []byte(`{\rtf1\ansi\deff0 hello`)
	tail := []byte(`world}` + "\x00\x00")
	res := ParseRTF(head, tail)
	assert.True(t, res.HeaderValid)
	assert.True(t, res.BaselineValid)
	assert.True(t, res.TailValid)
	assert.True(t, res.Valid)
}

func TestParseRTFValidWithDeffNBaselineOnly(t *testing.T) {
	head := []byte(`{\rtf1\deff2 hello`)
	tail := []byte(`}`)
	res := ParseRTF(head, tail)
	assert.True(t, res.BaselineValid)
	assert.True(t, res.Valid)
}

func TestParseRTFDeffWithoutDigitIsNotBaseline(t *testing.T) {
	head := []byte(`{\rtf1\deffoo hello`)
	tail := []byte(`}`)
	res := ParseRTF(head, tail)
	assert.False(t, res.BaselineValid)
	assert.False(t, res.Valid)
}

func TestParseRTFMissingHeaderIsInvalid(t *testing.T) {
	head := []byte(`not rtf`)
	tail := []byte(`}`)
	res := ParseRTF(head, tail)
	assert.False(t, res.HeaderValid)
	assert.False(t, res.Valid)
}

func TestParseRTFTailWithoutClosingBraceIsInvalid(t *testing.T) {
	head := []byte(`{\rtf1\ansi`)
	tail := []byte("incomplete\x00")
	res := ParseRTF(head, tail)
	assert.False(t, res.TailValid)
	assert.False(t, res.Valid)
}
