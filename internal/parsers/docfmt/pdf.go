// Package docfmt implements the bounded structural gates for PDF, RTF, and
// CHM documents from spec §4.7.
package docfmt

import (
	"bytes"
	"regexp"
)

var pdfHeader = []byte("%PDF-")
var pdfEOF = []byte("%%EOF")
var pdfObjPattern = regexp.MustCompile(`\d+\s+\d+\s+obj`)

// PDFResult is the structural evidence extracted from a PDF head+tail
// window.
type PDFResult struct {
	HeaderValid      bool
	EOFValid         bool
	HasObj           bool
	HasCatalogOrXref bool
	HasStartXref     bool
	Valid            bool
}

// PDFTailWindow is the number of trailing bytes inspected for %%EOF and
// startxref (spec §4.7: "last 2 KiB").
const PDFTailWindow = 2048

// ParsePDF validates the structural gate given the first 8 bytes' worth of
// head (or more), and the combined head+tail window used for obj/xref
// detection, plus the isolated tail window for %%EOF/startxref.
func ParsePDF(head, headPlusTail, tail []byte) *PDFResult {
	res := &PDFResult{}

	checkLen := len(head)
	if checkLen > 8 {
		checkLen = 8
	}
	res.HeaderValid = bytes.Contains(head[:checkLen], pdfHeader)

	res.EOFValid = bytes.Contains(tail, pdfEOF)
	res.HasStartXref = bytes.Contains(tail, []byte("startxref"))

	res.HasObj = pdfObjPattern.Match(headPlusTail)
	res.HasCatalogOrXref = bytes.Contains(headPlusTail, []byte("/Type /Catalog")) ||
		bytes.Contains(headPlusTail, []byte("/Type/Catalog")) ||
		bytes.Contains(headPlusTail, []byte("xref")) ||
		bytes.Contains(headPlusTail, []byte("trailer"))

	res.Valid = res.HeaderValid && res.EOFValid && res.HasObj &&
		res.HasCatalogOrXref && res.HasStartXref
	return res
}
