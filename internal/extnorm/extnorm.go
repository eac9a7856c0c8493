// Package extnorm implements the single extension-normalization helper from
// spec §4.2. Every dispatch decision and error message routes a path
// through Normalize rather than calling filepath.Ext directly, so the
// multi-part archive suffixes stay a closed vocabulary.
package extnorm

import (
	"path/filepath"
	"strings"
)

// multiPart lists the only allowed multi-segment suffixes, longest first so
// ".tar.gz" is matched before a bare ".gz" would be.
var multiPart = []string{".tar.gz", ".tar.bz2", ".tar.xz"}

// Normalize maps a path to its canonical extension: one of the multi-part
// archive suffixes, ".tgz", ".txz", or a single "."-prefixed extension
// (lowercased). Returns "" when the basename has no extension.
func Normalize(path string) string {
	lower := strings.ToLower(filepath.Base(path))

	for _, suffix := range multiPart {
		if strings.HasSuffix(lower, suffix) {
			return suffix
		}
	}

	ext := filepath.Ext(lower)
	return ext
}

// IsArchiveExt reports whether ext (as returned by Normalize) denotes one of
// the archive-class extensions supported by the archive analyzer (spec
// §4.3), used to count nested-archive entries inside containers.
func IsArchiveExt(ext string) bool {
	switch ext {
	case ".zip", ".tar", ".tar.gz", ".tgz", ".tar.bz2", ".tar.xz", ".txz", ".7z":
		return true
	default:
		return false
	}
}
