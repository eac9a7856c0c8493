package diskfmt

import "bytes"

var vhdxSignature = []byte("vhdxfile")

const vhdxMinSize = 64 * 1024

// VHDXResult is the structural evidence extracted from a VHDX header.
type VHDXResult struct {
	SignatureValid bool
	SizeAtLeastMin bool
	Valid          bool
}

// ParseVHDX checks for the "vhdxfile" signature at offset 0, per spec §4.9.
func ParseVHDX(head []byte, fileSize int64) *VHDXResult {
	res := &VHDXResult{SizeAtLeastMin: fileSize >= vhdxMinSize}
	res.SignatureValid = bytes.HasPrefix(head, vhdxSignature)
	res.Valid = res.SignatureValid && res.SizeAtLeastMin
	return res
}
