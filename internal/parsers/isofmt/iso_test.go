package isofmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func buildISO(pvdType, termType byte) []byte {
	data := make([]byte, 18*sectorSize)
	pvdOff := 16 * sectorSize
	data[pvdOff] = pvdType
	copy(data[pvdOff+1:pvdOff+6], cd001)
	data[pvdOff+6] = 1

	termOff := 17 * sectorSize
	data[termOff] = termType
	copy(data[termOff+1:termOff+6], cd001)
	data[termOff+6] = 1
	return data
}

func TestParseValidPrimaryVolumeDescriptor(t *testing.T) {
	res := Parse(buildISO(1, 255))
	assert.True(t, res.PVDValid)
	assert.True(t, res.TerminatorValid)
	assert.True(t, res.Valid)
}

func TestParseValidJolietSupplementaryDescriptor(t *testing.T) {
	res := Parse(buildISO(2, 255))
	assert.True(t, res.PVDValid)
	assert.True(t, res.Valid)
}

func TestParseWrongDescriptorTypeIsInvalid(t *testing.T) {
	res := Parse(buildISO(0, 255))
	assert.False(t, res.PVDValid)
	assert.False(t, res.Valid)
}

func TestParseWrongTerminatorTypeIsInvalid(t *testing.T) {
	res := Parse(buildISO(1, 1))
	assert.False(t, res.TerminatorValid)
	assert.False(t, res.Valid)
}

func TestParseMissingCD001StandardIDIsInvalid(t *testing.T) {
	data := buildISO(1, 255)
	pvdOff := 16 * sectorSize
	data[pvdOff+1] = 'X'
	res := Parse(data)
	assert.False(t, res.PVDValid)
}

func TestParseTruncatedBeforeTerminatorIsInvalid(t *testing.T) {
	data := buildISO(1, 255)
	res := Parse(data[:17*sectorSize])
	assert.True(t, res.PVDValid)
	assert.False(t, res.TerminatorValid)
	assert.False(t, res.Valid)
}
