// Package xarfmt implements the bounded XAR header parser from spec §4.4,
// used to validate .pkg installers.
package xarfmt

import "github.com/saferun/adaptcore/internal/byteio"

var magic = []byte("xar!")

// Result is the structural evidence xarfmt extracts from a XAR header.
type Result struct {
	MagicValid bool
	HeaderSize uint16
	Version    uint16
	Valid      bool // magic + headerSize in [28,4096] + version in {1,2}
}

// Parse validates a head-bytes window against the XAR structural gate.
func Parse(head []byte) *Result {
	res := &Result{}
	if len(head) < 8 {
		return res
	}

	res.MagicValid = byteio.HasPrefixAt(head, 0, magic)
	if !res.MagicValid {
		return res
	}

	res.HeaderSize = beUint16(head, 4)
	res.Version = beUint16(head, 6)

	res.Valid = res.HeaderSize >= 28 && res.HeaderSize <= 4096 &&
		(res.Version == 1 || res.Version == 2)
	return res
}

func beUint16(data []byte, offset int) uint16 {
	if offset+2 > len(data) {
		return 0
	}
	return uint16(data[offset])<<8 | uint16(data[offset+1])
}
