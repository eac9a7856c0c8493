// Package pefmt implements the bounded PE/COFF header parser from spec
// §4.4, used by the package analyzer to inspect .exe installers for an
// Authenticode certificate table.
package pefmt

import (
	"github.com/saferun/adaptcore/internal/byteio"
)

const (
	dosHeaderSize    = 0x40
	peOffsetField    = 0x3C
	coffHeaderSize   = 20
	magicPE32        = 0x10B
	magicPE32Plus    = 0x20B
	dataDirEntrySize = 8
	certTableIndex   = 4
)

// Result is the structural evidence pefmt extracts from a PE file.
type Result struct {
	Valid               bool
	OptionalHeaderMagic uint16
	CertTableSize       uint32
	PESignaturePresent  bool // data directory entry has non-zero size
	Partial             bool
}

// ParseFile reads up to 8192 bytes of head (enough for DOS header + COFF +
// optional header + data directories in the overwhelming majority of PE
// files) and parses it.
func ParseFile(path string) (*Result, error) {
	head, err := byteio.ReadHead(path, 8192)
	if err != nil {
		return nil, err
	}
	return Parse(head), nil
}

// Parse parses a head-bytes window of a PE file.
func Parse(data []byte) *Result {
	res := &Result{}

	if len(data) < dosHeaderSize+4 {
		res.Partial = true
		return res
	}

	peOffset32, ok := byteio.LEUint32(data, peOffsetField)
	if !ok {
		res.Partial = true
		return res
	}
	peOffset := int(peOffset32)

	if !byteio.HasPrefixAt(data, peOffset, []byte("PE\x00\x00")) {
		res.Partial = true
		return res
	}
	res.Valid = true

	coffStart := peOffset + 4
	optionalStart := coffStart + coffHeaderSize
	if optionalStart+2 > len(data) {
		res.Partial = true
		return res
	}

	magic, ok := byteio.LEUint16(data, optionalStart)
	if !ok || (magic != magicPE32 && magic != magicPE32Plus) {
		res.Partial = true
		return res
	}
	res.OptionalHeaderMagic = magic

	var dataDirOffset int
	switch magic {
	case magicPE32:
		dataDirOffset = optionalStart + 96
	case magicPE32Plus:
		dataDirOffset = optionalStart + 112
	}

	certEntryOffset := dataDirOffset + certTableIndex*dataDirEntrySize
	certSizeOffset := certEntryOffset + 4
	certSize, ok := byteio.LEUint32(data, certSizeOffset)
	if !ok {
		res.Partial = true
		return res
	}

	res.CertTableSize = certSize
	res.PESignaturePresent = certSize > 0
	return res
}
