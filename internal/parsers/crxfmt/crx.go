// Package crxfmt strips a CRX2/CRX3 browser-extension wrapper so the
// embedded ZIP payload can be parsed as an ordinary extension package
// (spec §4.5).
package crxfmt

import "github.com/saferun/adaptcore/internal/byteio"

var magic = []byte("Cr24")

// Result describes where the embedded ZIP payload begins within a CRX file.
type Result struct {
	Valid       bool
	Version     uint32
	PayloadFrom int
}

// Parse inspects a head-bytes window and returns the byte offset at which
// the embedded ZIP payload begins. The caller slices the full file at
// PayloadFrom and hands the remainder to zipfmt.
func Parse(head []byte) *Result {
	res := &Result{}

	if !byteio.HasPrefixAt(head, 0, magic) {
		return res
	}

	version, ok := byteio.LEUint32(head, 4)
	if !ok {
		return res
	}
	res.Version = version

	switch version {
	case 3:
		headerSize, ok := byteio.LEUint32(head, 8)
		if !ok {
			return res
		}
		res.PayloadFrom = 12 + int(headerSize)
		res.Valid = true
	case 2:
		pubKeyLen, ok1 := byteio.LEUint32(head, 8)
		sigLen, ok2 := byteio.LEUint32(head, 12)
		if !ok1 || !ok2 {
			return res
		}
		res.PayloadFrom = 16 + int(pubKeyLen) + int(sigLen)
		res.Valid = true
	}

	return res
}
