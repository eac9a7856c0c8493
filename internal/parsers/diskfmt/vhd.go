// Package diskfmt implements the bounded disk-image structural checks from
// spec §4.9: VHD, VHDX, VMDK, and QCOW2.
package diskfmt

import "bytes"

var vhdCookie = []byte("conectix")

const vhdMinSize = 1024

// VHDResult is the structural evidence extracted from a VHD footer.
type VHDResult struct {
	CookieValid    bool
	SizeAtLeastMin bool
	Valid          bool
}

// ParseVHD checks for the "conectix" cookie at the start of the final
// 512-byte trailer block, per spec §4.9.
func ParseVHD(trailer []byte, fileSize int64) *VHDResult {
	res := &VHDResult{SizeAtLeastMin: fileSize >= vhdMinSize}
	res.CookieValid = len(trailer) >= 8 && bytes.Equal(trailer[:8], vhdCookie)
	res.Valid = res.CookieValid && res.SizeAtLeastMin
	return res
}
