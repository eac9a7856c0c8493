package diskfmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseVHDValidCookie(t *testing.T) {
	trailer := make([]byte, 512)
	copy(trailer[0:8], vhdCookie)
	res := ParseVHD(trailer, 2048)
	assert.True(t, res.CookieValid)
	assert.True(t, res.SizeAtLeastMin)
	assert.True(t, res.Valid)
}

func TestParseVHDMissingCookieIsInvalid(t *testing.T) {
	trailer := make([]byte, 512)
	res := ParseVHD(trailer, 2048)
	assert.False(t, res.CookieValid)
	assert.False(t, res.Valid)
}

func TestParseVHDFileTooSmallIsInvalid(t *testing.T) {
	trailer := make([]byte, 512)
	copy(trailer[0:8], vhdCookie)
	res := ParseVHD(trailer, 100)
	assert.False(t, res.SizeAtLeastMin)
	assert.False(t, res.Valid)
}

func TestParseVHDXValidSignature(t *testing.T) {
	head := make([]byte, 16)
	copy(head[0:8], vhdxSignature)
	res := ParseVHDX(head, 64*1024)
	assert.True(t, res.SignatureValid)
	assert.True(t, res.Valid)
}

func TestParseVHDXTooSmallIsInvalid(t *testing.T) {
	head := make([]byte, 16)
	copy(head[0:8], vhdxSignature)
	res := ParseVHDX(head, 1024)
	assert.False(t, res.SizeAtLeastMin)
	assert.False(t, res.Valid)
}

func TestParseQCOW2ValidVersion3(t *testing.T) {
	head := make([]byte, 16)
	copy(head[0:4], qcow2Magic)
	head[4], head[5], head[6], head[7] = 0, 0, 0, 3
	res := ParseQCOW2(head, 100)
	assert.True(t, res.MagicValid)
	assert.Equal(t, uint32(3), res.Version)
	assert.True(t, res.Valid)
}

func TestParseQCOW2UnsupportedVersionIsInvalid(t *testing.T) {
	head := make([]byte, 16)
	copy(head[0:4], qcow2Magic)
	head[4], head[5], head[6], head[7] = 0, 0, 0, 9
	res := ParseQCOW2(head, 100)
	assert.False(t, res.VersionValid)
	assert.False(t, res.Valid)
}

func TestParseQCOW2MissingMagicIsInvalid(t *testing.T) {
	head := make([]byte, 16)
	res := ParseQCOW2(head, 100)
	assert.False(t, res.MagicValid)
	assert.False(t, res.Valid)
}

func TestParseVMDKDescriptorFormValid(t *testing.T) {
	head := []byte("# Disk DescriptorFile\nversion=1\nCID=fffffffe\ncreateType=\"monolithicSparse\"\n\n# Extent description\nRW 2048 SPARSE \"disk-s001.vmdk\"\n")
	res := ParseVMDK(head, 200)
	assert.True(t, res.DescriptorMarkerValid)
	assert.True(t, res.CreateTypeValid)
	assert.True(t, res.ExtentLineValid)
	assert.True(t, res.DescriptorValid)
	assert.True(t, res.Valid)
}

func TestParseVMDKSparseMagicAloneValid(t *testing.T) {
	head := make([]byte, 32)
	copy(head[0:4], vmdkSparseMagic)
	res := ParseVMDK(head, 10)
	assert.Equal(t, 1, res.SparseMagicCount)
	assert.False(t, res.DescriptorValid)
	assert.True(t, res.Valid)
}

func TestParseVMDKNeitherFormIsInvalid(t *testing.T) {
	head := []byte("not a vmdk at all")
	res := ParseVMDK(head, 100)
	assert.Equal(t, 0, res.SparseMagicCount)
	assert.False(t, res.Valid)
}

func TestParseVMDKDescriptorTooSmallIsInvalid(t *testing.T) {
	head := []byte("# Disk DescriptorFile\ncreateType=\"x\"\nRW 1 TYPE \"a\"")
	res := ParseVMDK(head, 10)
	assert.False(t, res.SizeAtLeastMin)
	assert.False(t, res.Valid)
}
