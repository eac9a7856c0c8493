package diskfmt

import (
	"bytes"
	"regexp"
)

const vmdkDescriptorMinSize = 64

var (
	vmdkDescriptorMarker = []byte("# Disk DescriptorFile")
	vmdkCreateTypeMarker = []byte("createType=")
	vmdkExtentLine       = regexp.MustCompile(`(?m)^(RW|RDONLY|NOACCESS)\s+\d+\s+\S+\s+"[^"]+"`)
	vmdkSparseMagic      = []byte{'K', 'D', 'M', 'V'}
)

// VMDKResult is the structural evidence extracted from a VMDK file, which
// is either a text descriptor or a sparse (hosted) extent.
type VMDKResult struct {
	DescriptorMarkerValid bool
	CreateTypeValid       bool
	ExtentLineValid       bool
	DescriptorValid       bool // all three descriptor markers present
	SparseMagicCount      int
	SizeAtLeastMin        bool

	// Valid mirrors spec §4.9: either a fully-formed text descriptor, or at
	// least one KDMV sparse-magic occurrence. Whether a monolithic-sparse
	// file with the magic appearing elsewhere should be rejected is an open
	// question carried forward unchanged (spec §9) -- any count > 0 counts
	// as valid here.
	Valid bool
}

// ParseVMDK inspects a bounded head window (descriptor files are always
// small text; sparse files are scanned for the KDMV magic within the same
// window) for the spec §4.9 VMDK structural gate.
func ParseVMDK(head []byte, fileSize int64) *VMDKResult {
	res := &VMDKResult{SizeAtLeastMin: fileSize >= vmdkDescriptorMinSize}

	res.DescriptorMarkerValid = bytes.Contains(head, vmdkDescriptorMarker)
	res.CreateTypeValid = bytes.Contains(head, vmdkCreateTypeMarker)
	res.ExtentLineValid = vmdkExtentLine.Match(head)
	res.DescriptorValid = res.DescriptorMarkerValid && res.CreateTypeValid && res.ExtentLineValid

	res.SparseMagicCount = countOccurrences(head, vmdkSparseMagic)

	res.Valid = (res.DescriptorValid && res.SizeAtLeastMin) || res.SparseMagicCount > 0
	return res
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
