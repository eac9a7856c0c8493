// Package isofmt implements the bounded ISO 9660 volume descriptor checks
// from spec §4.9.
package isofmt

const sectorSize = 2048

var cd001 = []byte("CD001")

// Result is the structural evidence isofmt extracts from an ISO image.
type Result struct {
	PVDValid        bool
	TerminatorValid bool
	Valid           bool
}

// Parse validates the Primary (or Joliet Supplementary) Volume Descriptor
// at sector 16 and the Volume Descriptor Set Terminator at sector 17,
// against a head-bytes window covering at least 18 sectors (36864 bytes).
func Parse(head []byte) *Result {
	res := &Result{}

	res.PVDValid = descriptorAt(head, 16, func(t byte) bool { return t == 1 || t == 2 })
	res.TerminatorValid = descriptorAt(head, 17, func(t byte) bool { return t == 255 })

	res.Valid = res.PVDValid && res.TerminatorValid
	return res
}

func descriptorAt(data []byte, sector int, typeOK func(byte) bool) bool {
	offset := sector * sectorSize
	if offset+7 > len(data) {
		return false
	}
	if !typeOK(data[offset]) {
		return false
	}
	if string(data[offset+1:offset+6]) != string(cd001) {
		return false
	}
	return data[offset+6] == 1
}
