// Package rpmfmt implements the bounded RPM lead/header magic check and
// textual signing-marker scan from spec §4.4.
package rpmfmt

import (
	"bytes"

	"github.com/saferun/adaptcore/internal/byteio"
)

var leadMagic = []byte{0xED, 0xAB, 0xEE, 0xDB}
var headerMagic = []byte{0x8E, 0xAD, 0xE8}

// SigningScanBytes is the textual-marker scan window: a documented lower
// bound, not an exhaustive signature check (spec §9 open question -- large
// RPM headers may carry signing data past this window; this is intentional
// and must not be "improved" without a new reason code).
const SigningScanBytes = 128 * 1024

var signingMarkers = [][]byte{[]byte("gpgsig"), []byte("pgp"), []byte("rpmsig")}

// Result is the structural evidence rpmfmt extracts from an RPM file.
type Result struct {
	LeadValid   bool
	HeaderValid bool
	Valid       bool // both magics present
	SigningHint bool // textual marker found in the first SigningScanBytes
}

// Parse validates the lead/header magics from a head-bytes window and scans
// the same window (or up to SigningScanBytes of it) for signing markers.
func Parse(head []byte) *Result {
	res := &Result{}

	res.LeadValid = byteio.HasPrefixAt(head, 0, leadMagic)
	res.HeaderValid = byteio.HasPrefixAt(head, 96, headerMagic)
	res.Valid = res.LeadValid && res.HeaderValid

	scanWindow := head
	if len(scanWindow) > SigningScanBytes {
		scanWindow = scanWindow[:SigningScanBytes]
	}
	lower := bytes.ToLower(scanWindow)
	for _, m := range signingMarkers {
		if bytes.Contains(lower, m) {
			res.SigningHint = true
			break
		}
	}

	return res
}
