package docfmt

import (
	"bytes"

	"github.com/saferun/adaptcore/internal/byteio"
)

var chmMagic = []byte("ITSF")

const chmMinSize = 0x60

// CHMResult is the structural evidence extracted from a CHM head window.
type CHMResult struct {
	MagicValid     bool
	HeaderLength   uint32
	SizeAtLeastMin bool
	HeaderLenValid bool
	Valid          bool
}

// ParseCHM validates the CHM structural gate per spec §4.7: ITSF magic at
// offset 0, header length (LE u32 at offset 8) in [0x60, fileSize] or zero,
// and file size >= 0x60.
func ParseCHM(head []byte, fileSize int64) *CHMResult {
	res := &CHMResult{SizeAtLeastMin: fileSize >= chmMinSize}

	res.MagicValid = bytes.HasPrefix(head, chmMagic)
	if !res.MagicValid {
		return res
	}

	length, ok := byteio.LEUint32(head, 8)
	if !ok {
		return res
	}
	res.HeaderLength = length
	res.HeaderLenValid = length == 0 || (int64(length) >= chmMinSize && int64(length) <= fileSize)

	res.Valid = res.MagicValid && res.HeaderLenValid && res.SizeAtLeastMin
	return res
}
