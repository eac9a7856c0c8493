// Package cfbfmt implements the bounded Compound File Binary header parser
// from spec §4.4, used to validate .msi installers.
package cfbfmt

import "github.com/saferun/adaptcore/internal/byteio"

var magic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

const minSize = 512

// Result is the structural evidence cfbfmt extracts from a CFB header.
type Result struct {
	MagicValid      bool
	ByteOrderValid  bool
	MajorVersion    uint16
	SectorShift     uint16
	MiniSectorShift uint16
	SizeAtLeastMin  bool

	// Valid is true iff every strict-route CFB check in spec §4.4 passes:
	// magic, byte order FFFE, (major=3,sectorShift=9) or (major=4,
	// sectorShift=12), mini-sector shift 6, and size >= 512.
	Valid bool
}

// Parse validates a head-bytes window (at least 512 bytes recommended)
// against the CFB/MSI structural gate.
func Parse(head []byte, fileSize int64) *Result {
	res := &Result{SizeAtLeastMin: fileSize >= minSize}

	if len(head) < 36 {
		return res
	}

	res.MagicValid = byteio.HasPrefixAt(head, 0, magic)
	if !res.MagicValid {
		return res
	}

	bom, _ := byteio.LEUint16(head, 28)
	res.ByteOrderValid = bom == 0xFFFE

	major, _ := byteio.LEUint16(head, 26)
	res.MajorVersion = major

	shift, _ := byteio.LEUint16(head, 30)
	res.SectorShift = shift

	miniShift, _ := byteio.LEUint16(head, 32)
	res.MiniSectorShift = miniShift

	versionShiftOK := (major == 3 && shift == 9) || (major == 4 && shift == 12)

	res.Valid = res.MagicValid && res.ByteOrderValid && versionShiftOK &&
		miniShift == 6 && res.SizeAtLeastMin

	return res
}
