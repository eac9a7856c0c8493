package pefmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func putLE16(buf []byte, offset int, v uint16) {
	buf[offset] = byte(v)
	buf[offset+1] = byte(v >> 8)
}

func putLE32(buf []byte, offset int, v uint32) {
	buf[offset] = byte(v)
	buf[offset+1] = byte(v >> 8)
	buf[offset+2] = byte(v >> 16)
	buf[offset+3] = byte(v >> 24)
}

// buildPE builds a minimal buffer with a DOS stub pointing at a PE header,
// COFF header, and optional header carrying a certificate-table data
// directory entry at index 4.
func buildPE(magic uint16, certSize uint32) []byte {
	const peOffset = 0x80
	dataDirOffset := peOffset + 4 + coffHeaderSize + 2
	if magic == magicPE32 {
		dataDirOffset += 96
	} else {
		dataDirOffset += 112
	}
	certEntryOffset := dataDirOffset + certTableIndex*dataDirEntrySize
	total := certEntryOffset + 8

	buf := make([]byte, total)
	putLE32(buf, peOffsetField, peOffset)
	copy(buf[peOffset:peOffset+4], []byte("PE\x00\x00"))
	putLE16(buf, peOffset+4+coffHeaderSize, magic)
	putLE32(buf, certEntryOffset, 0)
	putLE32(buf, certEntryOffset+4, certSize)
	return buf
}

func TestParsePE32WithCertTable(t *testing.T) {
	res := Parse(buildPE(magicPE32, 512))
	require.True(t, res.Valid)
	assert.False(t, res.Partial)
	assert.Equal(t, uint16(magicPE32), res.OptionalHeaderMagic)
	assert.Equal(t, uint32(512), res.CertTableSize)
	assert.True(t, res.PESignaturePresent)
}

func TestParsePE32PlusWithoutCertTable(t *testing.T) {
	res := Parse(buildPE(magicPE32Plus, 0))
	require.True(t, res.Valid)
	assert.Equal(t, uint16(magicPE32Plus), res.OptionalHeaderMagic)
	assert.False(t, res.PESignaturePresent)
}

func TestParseTooShortForDOSHeaderIsPartial(t *testing.T) {
	res := Parse(make([]byte, 10))
	assert.False(t, res.Valid)
	assert.True(t, res.Partial)
}

func TestParseMissingPESignatureIsPartial(t *testing.T) {
	buf := buildPE(magicPE32, 0)
	buf[0x80] = 'X'
	res := Parse(buf)
	assert.False(t, res.Valid)
	assert.True(t, res.Partial)
}

func TestParseUnknownOptionalHeaderMagicIsPartial(t *testing.T) {
	buf := buildPE(magicPE32, 0)
	putLE16(buf, 0x80+4+coffHeaderSize, 0xABCD)
	res := Parse(buf)
	assert.True(t, res.Valid) // PE signature itself was valid
	assert.True(t, res.Partial)
}

func TestParseTruncatedBeforeCertTableIsPartial(t *testing.T) {
	buf := buildPE(magicPE32, 512)
	res := Parse(buf[:0x80+4+coffHeaderSize+4])
	assert.True(t, res.Partial)
}
