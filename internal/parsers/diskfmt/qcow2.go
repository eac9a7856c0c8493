package diskfmt

import (
	"bytes"

	"github.com/saferun/adaptcore/internal/byteio"
)

var qcow2Magic = []byte{'Q', 'F', 'I', 0xFB}

const qcow2MinSize = 72

// QCOW2Result is the structural evidence extracted from a QCOW2 header.
type QCOW2Result struct {
	MagicValid     bool
	Version        uint32
	VersionValid   bool
	SizeAtLeastMin bool
	Valid          bool
}

// ParseQCOW2 checks the QFI\xFB magic and version (2 or 3), per spec §4.9.
func ParseQCOW2(head []byte, fileSize int64) *QCOW2Result {
	res := &QCOW2Result{SizeAtLeastMin: fileSize >= qcow2MinSize}

	res.MagicValid = bytes.HasPrefix(head, qcow2Magic)
	if !res.MagicValid {
		return res
	}

	version, ok := byteio.BEUint32(head, 4)
	if !ok {
		return res
	}
	res.Version = version
	res.VersionValid = version == 2 || version == 3

	res.Valid = res.MagicValid && res.VersionValid && res.SizeAtLeastMin
	return res
}
