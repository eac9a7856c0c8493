package sigfmt

import "bytes"

// MaxOIDScanBytes bounds the OID needle search per spec §4.10.
const MaxOIDScanBytes = 256 * 1024

var (
	oidSignedData      = []byte{0x06, 0x09, 0x2A, 0x86, 0x48, 0x86, 0xF7, 0x0D, 0x01, 0x07, 0x02}
	oidTimestampingEKU = []byte{0x06, 0x08, 0x2B, 0x06, 0x01, 0x05, 0x05, 0x07, 0x03, 0x08}
	oidX509Name        = []byte{0x06, 0x03, 0x55, 0x04}
)

// OIDScanResult counts the structural OID needles found within the bounded
// head window.
type OIDScanResult struct {
	SignedDataCount      int
	TimestampingEKUCount int
	X509NameCount        int
}

// ScanOIDs counts occurrences of the three spec §4.10 OID needles within
// the first MaxOIDScanBytes of data.
func ScanOIDs(data []byte) *OIDScanResult {
	if len(data) > MaxOIDScanBytes {
		data = data[:MaxOIDScanBytes]
	}
	return &OIDScanResult{
		SignedDataCount:      countOccurrences(data, oidSignedData),
		TimestampingEKUCount: countOccurrences(data, oidTimestampingEKU),
		X509NameCount:        countOccurrences(data, oidX509Name),
	}
}

func countOccurrences(data, pattern []byte) int {
	count := 0
	start := 0
	for {
		idx := bytes.Index(data[start:], pattern)
		if idx < 0 {
			break
		}
		count++
		start += idx + len(pattern)
		if start >= len(data) {
			break
		}
	}
	return count
}
