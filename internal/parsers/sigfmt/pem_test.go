package sigfmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanPEMValidCertificate(t *testing.T) {
	data := []byte("-----BEGIN CERTIFICATE-----\nMAA=\n-----END CERTIFICATE-----\n")
	res := ScanPEM(data)
	require.Len(t, res.Blocks, 1)
	assert.True(t, res.Blocks[0].Valid)
	assert.Equal(t, 1, res.ValidCount)
	assert.Equal(t, 1, res.CertificateCount)
	assert.True(t, res.HasValidLabel(LabelCertificate))
}

func TestScanPEMInvalidBase64IsInvalid(t *testing.T) {
	data := []byte("-----BEGIN CERTIFICATE-----\n!!!not-base64!!!\n-----END CERTIFICATE-----\n")
	res := ScanPEM(data)
	require.Len(t, res.Blocks, 1)
	assert.False(t, res.Blocks[0].Valid)
	assert.Equal(t, 1, res.InvalidCount)
}

func TestScanPEMMismatchedLabelsAreSkipped(t *testing.T) {
	data := []byte("-----BEGIN CERTIFICATE-----\nMAA=\n-----END PKCS7-----\n")
	res := ScanPEM(data)
	assert.Empty(t, res.Blocks)
}

func TestScanPEMDecodedButNotLeadingSequenceIsInvalid(t *testing.T) {
	// "AAAA" decodes to three zero bytes, first byte is 0x00, not 0x30.
	data := []byte("-----BEGIN SIGNATURE-----\nAAAA\n-----END SIGNATURE-----\n")
	res := ScanPEM(data)
	require.Len(t, res.Blocks, 1)
	assert.False(t, res.Blocks[0].Valid)
}

func TestScanPEMNoBlocksFound(t *testing.T) {
	res := ScanPEM([]byte("plain text with no PEM markers"))
	assert.Empty(t, res.Blocks)
	assert.Equal(t, 0, res.ValidCount)
}
