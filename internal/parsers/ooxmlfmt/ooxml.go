// Package ooxmlfmt holds the small set of path/relationship rules that
// distinguish an OOXML macro-enabled document (docm/xlsm) from an arbitrary
// ZIP, per spec §4.7. The container itself is parsed with zipfmt; this
// package only knows which paths and relationship attributes matter.
package ooxmlfmt

import (
	"regexp"
	"strings"
)

const ContentTypesPart = "[Content_Types].xml"
const RootRels = "_rels/.rels"

// PrimaryPart returns the required primary part path for a docm or xlsm
// document, or "" for an unrecognized kind.
func PrimaryPart(kind string) string {
	switch kind {
	case "docm":
		return "word/document.xml"
	case "xlsm":
		return "xl/workbook.xml"
	default:
		return ""
	}
}

// FormatRelsSuffix returns the format-specific relationship part suffix
// (e.g. "word/_rels/document.xml.rels") used as an alternative to the root
// _rels/.rels per spec §4.7 ("root _rels/.rels or format-specific
// _rels/*.xml.rels").
func FormatRelsSuffix(kind string) string {
	switch kind {
	case "docm":
		return "word/_rels/document.xml.rels"
	case "xlsm":
		return "xl/_rels/workbook.xml.rels"
	default:
		return ""
	}
}

var externalTargetMode = regexp.MustCompile(`TargetMode\s*=\s*"External"`)

// CountExternalRelationships counts relationship entries whose TargetMode
// attribute is "External" across the supplied .rels text blobs, capped at
// maxCount.
func CountExternalRelationships(relsTexts []string, maxCount int) int {
	count := 0
	for _, text := range relsTexts {
		if count >= maxCount {
			break
		}
		count += len(externalTargetMode.FindAllString(text, maxCount-count))
	}
	return count
}

// IsRelsPart reports whether name is any *.rels relationship part.
func IsRelsPart(name string) bool {
	return strings.HasSuffix(name, ".rels")
}
