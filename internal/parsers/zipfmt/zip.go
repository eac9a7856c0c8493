// Package zipfmt implements the bounded ZIP central-directory parser from
// spec §4.12. It tolerates preamble bytes (self-extracting stubs, CRX
// headers) ahead of the archive proper and recovers partial metadata
// instead of refusing to parse, which is why this is a bespoke parser
// rather than the stdlib archive/zip (see DESIGN.md).
package zipfmt

import (
	"bytes"
	"compress/flate"
	"errors"
	"io"
	"os"
	"sort"
	"strings"
)

const (
	sigEOCD        = "PK\x05\x06"
	sigCentralDir  = "PK\x01\x02"
	sigLocalHeader = "PK\x03\x04"

	eocdFixedSize       = 22
	centralDirFixedSize = 46
	localHeaderFixed    = 30

	eocdSearchWindow = 65558 // 22 + max 65535-byte comment
)

// Entry is one central-directory record, shaped to the fields the archive
// and package analyzers need.
type Entry struct {
	Name              string
	Method            uint16
	Flags             uint16
	CompressedSize    uint64
	UncompressedSize  uint64
	LocalHeaderOffset uint32
	IsDirectory       bool
}

// Result is the outcome of parsing a ZIP's central directory.
type Result struct {
	// Entries holds one record per canonical path, de-duplicated by keeping
	// the first occurrence (by local header offset) when two central
	// directory records share a canonical path.
	Entries []Entry

	// Partial is true when the central directory could not be fully read:
	// truncation, signature mismatch mid-stream, or a record overshooting
	// file bounds. Promoted to ARCHIVE_METADATA_PARTIAL by callers.
	Partial bool

	// FirstLocalHeaderOffset is the file offset of the first PK\x03\x04
	// signature found, used by the EOCD-offset-recovery fallback and
	// exposed for diagnostics.
	FirstLocalHeaderOffset int

	// CentralDirOffset is the resolved absolute offset the central
	// directory was read from.
	CentralDirOffset int
}

var errNoEOCD = errors.New("zipfmt: no end-of-central-directory record found")

// ParseFile opens path and parses its full bytes as a ZIP archive.
func ParseFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse parses the full byte contents of a ZIP archive (or a byte slice
// that embeds one after a preamble, e.g. a CRX-wrapped ZIP).
func Parse(data []byte) (*Result, error) {
	eocdOffset := findEOCD(data)
	if eocdOffset < 0 {
		return nil, errNoEOCD
	}
	if eocdOffset+eocdFixedSize > len(data) {
		return nil, errNoEOCD
	}

	cdOffsetRaw := leUint32(data, eocdOffset+16)
	cdSizeRaw := leUint32(data, eocdOffset+12)
	recordsTotal := leUint16(data, eocdOffset+10)

	cdStart := int(cdOffsetRaw)
	if !hasSigAt(data, cdStart, sigCentralDir) {
		firstLocal := bytes.Index(data, []byte(sigLocalHeader))
		if firstLocal >= 0 {
			candidate := firstLocal + int(cdOffsetRaw)
			if hasSigAt(data, candidate, sigCentralDir) {
				cdStart = candidate
			}
		}
	}

	res := &Result{
		FirstLocalHeaderOffset: bytes.Index(data, []byte(sigLocalHeader)),
		CentralDirOffset:       cdStart,
	}

	if !hasSigAt(data, cdStart, sigCentralDir) {
		res.Partial = true
		return res, nil
	}

	byPath := make(map[string]Entry)
	order := make([]string, 0, recordsTotal)

	offset := cdStart
	cdEnd := cdStart + int(cdSizeRaw)
	count := 0
	for count < int(recordsTotal) {
		if offset+centralDirFixedSize > len(data) {
			res.Partial = true
			break
		}
		if !hasSigAt(data, offset, sigCentralDir) {
			res.Partial = true
			break
		}

		method := leUint16(data, offset+10)
		flags := leUint16(data, offset+8)
		compSize := leUint32(data, offset+20)
		uncompSize := leUint32(data, offset+24)
		nameLen := int(leUint16(data, offset+28))
		extraLen := int(leUint16(data, offset+30))
		commentLen := int(leUint16(data, offset+32))
		localOffset := leUint32(data, offset+42)

		nameStart := offset + centralDirFixedSize
		nameEnd := nameStart + nameLen
		if nameEnd > len(data) {
			res.Partial = true
			break
		}
		rawName := string(data[nameStart:nameEnd])
		canonical := CanonicalPath(rawName)

		entry := Entry{
			Name:              canonical,
			Method:            method,
			Flags:             flags,
			CompressedSize:    uint64(compSize),
			UncompressedSize:  uint64(uncompSize),
			LocalHeaderOffset: localOffset,
			IsDirectory:       strings.HasSuffix(rawName, "/"),
		}

		existing, seen := byPath[canonical]
		if !seen || entry.LocalHeaderOffset < existing.LocalHeaderOffset {
			if !seen {
				order = append(order, canonical)
			}
			byPath[canonical] = entry
		}

		recordLen := centralDirFixedSize + nameLen + extraLen + commentLen
		offset += recordLen
		count++

		if offset > len(data) || (cdEnd > 0 && offset > cdEnd+4096) {
			if count < int(recordsTotal) {
				res.Partial = true
			}
			break
		}
	}

	res.Entries = make([]Entry, 0, len(order))
	for _, name := range order {
		res.Entries = append(res.Entries, byPath[name])
	}
	sort.Slice(res.Entries, func(i, j int) bool {
		return res.Entries[i].LocalHeaderOffset < res.Entries[j].LocalHeaderOffset
	})

	return res, nil
}

// CanonicalPath normalizes a ZIP entry name: backslashes become slashes and
// a leading "./" is stripped (spec §3.3 path hygiene).
func CanonicalPath(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimPrefix(name, "./")
	return name
}

func findEOCD(data []byte) int {
	window := len(data)
	if window > eocdSearchWindow {
		window = eocdSearchWindow
	}
	tail := data[len(data)-window:]
	idx := bytes.LastIndex(tail, []byte(sigEOCD))
	if idx < 0 {
		return -1
	}
	return len(data) - window + idx
}

func hasSigAt(data []byte, offset int, sig string) bool {
	if offset < 0 || offset+len(sig) > len(data) {
		return false
	}
	return string(data[offset:offset+len(sig)]) == sig
}

func leUint16(data []byte, offset int) uint16 {
	if offset+2 > len(data) {
		return 0
	}
	return uint16(data[offset]) | uint16(data[offset+1])<<8
}

func leUint32(data []byte, offset int) uint32 {
	if offset+4 > len(data) {
		return 0
	}
	return uint32(data[offset]) | uint32(data[offset+1])<<8 |
		uint32(data[offset+2])<<16 | uint32(data[offset+3])<<24
}

// MaxTextEntries and MaxTextBytesPerEntry bound bounded text extraction
// (spec §4.12: "capped at 256 KiB per entry, 32 entries per call").
const (
	MaxTextEntries       = 32
	MaxTextBytesPerEntry = 256 * 1024
)

// ExtractTexts reads bounded text for up to MaxTextEntries entries whose
// name matches one of wantNames (canonical paths), from the full archive
// bytes already read by ParseFile/Parse. Only method 0 (stored) and method 8
// (deflate) entries are extracted; anything else, or a local header whose
// signature does not validate, is skipped. Returns a map from canonical name
// to extracted text.
func ExtractTexts(data []byte, entries []Entry, wantNames map[string]bool) map[string]string {
	out := make(map[string]string)
	extracted := 0
	for _, e := range entries {
		if extracted >= MaxTextEntries {
			break
		}
		if !wantNames[e.Name] {
			continue
		}
		text, ok := extractOne(data, e)
		if !ok {
			continue
		}
		out[e.Name] = text
		extracted++
	}
	return out
}

func extractOne(data []byte, e Entry) (string, bool) {
	lho := int(e.LocalHeaderOffset)
	if !hasSigAt(data, lho, sigLocalHeader) {
		return "", false
	}
	nameLen := int(leUint16(data, lho+26))
	extraLen := int(leUint16(data, lho+28))
	dataStart := lho + localHeaderFixed + nameLen + extraLen
	if dataStart > len(data) {
		return "", false
	}

	compSize := int(e.CompressedSize)
	dataEnd := dataStart + compSize
	if dataEnd > len(data) || dataEnd < dataStart {
		dataEnd = len(data)
	}
	raw := data[dataStart:dataEnd]

	switch e.Method {
	case 0: // stored
		if len(raw) > MaxTextBytesPerEntry {
			raw = raw[:MaxTextBytesPerEntry]
		}
		return string(raw), true
	case 8: // deflate
		r := flate.NewReader(bytes.NewReader(raw))
		defer r.Close()
		limited := io.LimitReader(r, MaxTextBytesPerEntry)
		buf, err := io.ReadAll(limited)
		if err != nil && len(buf) == 0 {
			return "", false
		}
		return string(buf), true
	default:
		return "", false
	}
}
