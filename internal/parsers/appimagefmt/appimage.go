// Package appimagefmt implements the bounded ELF+AppImage-runtime marker
// check from spec §4.4.
package appimagefmt

import "github.com/saferun/adaptcore/internal/byteio"

var elfMagic = []byte{0x7F, 'E', 'L', 'F'}

// Result is the structural evidence appimagefmt extracts from an AppImage.
type Result struct {
	ELFValid    bool
	RuntimeType byte // 1 or 2 when valid, 0 otherwise
	Valid       bool
}

// Parse validates the ELF magic at offset 0 and the AppImage runtime marker
// ("AI", type 1|2) at offset 8, per spec §4.4.
func Parse(head []byte) *Result {
	res := &Result{}

	res.ELFValid = byteio.HasPrefixAt(head, 0, elfMagic)
	if !res.ELFValid {
		return res
	}

	if len(head) < 11 {
		return res
	}
	if head[8] != 'A' || head[9] != 'I' {
		return res
	}
	t := head[10]
	if t != 1 && t != 2 {
		return res
	}

	res.RuntimeType = t
	res.Valid = true
	return res
}
