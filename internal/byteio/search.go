package byteio

import "bytes"

// FindLast returns the byte offset of the last occurrence of pattern within
// data, or -1 if not found. Used for end-of-central-directory style
// trailer-anchored signatures.
func FindLast(data, pattern []byte) int {
	return bytes.LastIndex(data, pattern)
}

// FindAll returns the byte offsets of every non-overlapping occurrence of
// pattern within data, capped at maxMatches. This bounds pathological inputs
// (e.g. a file consisting entirely of the search pattern) from producing an
// unbounded result slice.
func FindAll(data, pattern []byte, maxMatches int) []int {
	if len(pattern) == 0 || maxMatches <= 0 {
		return nil
	}
	var out []int
	start := 0
	for len(out) < maxMatches {
		idx := bytes.Index(data[start:], pattern)
		if idx < 0 {
			break
		}
		abs := start + idx
		out = append(out, abs)
		start = abs + len(pattern)
		if start >= len(data) {
			break
		}
	}
	return out
}

// HasPrefixAt reports whether data has the given magic bytes at offset,
// without panicking when the slice is too short.
func HasPrefixAt(data []byte, offset int, magic []byte) bool {
	if offset < 0 || offset+len(magic) > len(data) {
		return false
	}
	return bytes.Equal(data[offset:offset+len(magic)], magic)
}

// CountOccurrences counts non-overlapping occurrences of pattern in data,
// capped at maxCount so a pathological input cannot force an unbounded scan
// result (the caller still scans all of data once).
func CountOccurrences(data, pattern []byte, maxCount int) int {
	if len(pattern) == 0 {
		return 0
	}
	count := 0
	start := 0
	for count < maxCount {
		idx := bytes.Index(data[start:], pattern)
		if idx < 0 {
			break
		}
		count++
		start = start + idx + len(pattern)
		if start >= len(data) {
			break
		}
	}
	return count
}
