// Package dmgfmt implements the bounded DMG trailer check from spec §4.4.
package dmgfmt

import "bytes"

var koly = []byte("koly")

// Result is the structural evidence dmgfmt extracts from a DMG trailer.
type Result struct {
	Valid bool // "koly" marker present in the final 512-byte block
}

// Parse checks the final 512-byte block of a DMG file (tail must be exactly
// that block, per spec §4.4: "require koly marker in the last 512-byte
// block exactly").
func Parse(tail []byte) *Result {
	res := &Result{}
	if len(tail) != 512 {
		return res
	}
	res.Valid = bytes.Contains(tail, koly)
	return res
}
