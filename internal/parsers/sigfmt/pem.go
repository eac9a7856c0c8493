// Package sigfmt implements the bounded PEM/DER signature-envelope checks
// from spec §4.10: PEM envelope decoding, a DER top-level SEQUENCE
// predicate, and an OID needle search.
package sigfmt

import (
	"encoding/base64"
	"regexp"
)

// PEMLabel identifies the envelope kind a PEM block claims to carry.
type PEMLabel string

const (
	LabelCertificate PEMLabel = "CERTIFICATE"
	LabelPKCS7       PEMLabel = "PKCS7"
	LabelSignature   PEMLabel = "SIGNATURE"
)

// PEMBlock is one decoded (or rejected) PEM envelope.
type PEMBlock struct {
	Label     PEMLabel
	Valid     bool // base64 well-formed AND decodes to a leading 0x30 SEQUENCE
	DecodedOK bool
}

// PEMScanResult aggregates every PEM envelope found in a byte window.
type PEMScanResult struct {
	Blocks           []PEMBlock
	ValidCount       int
	InvalidCount     int
	CertificateCount int
}

var pemBlockPattern = regexp.MustCompile(`-----BEGIN ([A-Z0-9 ]+)-----\r?\n([A-Za-z0-9+/=\r\n]*?)-----END ([A-Z0-9 ]+)-----`)

// ScanPEM finds every `-----BEGIN x-----...-----END x-----` envelope in
// data and validates each payload per spec §4.10: base64 alphabet,
// length-multiple-of-4, and a decoded leading ASN.1 SEQUENCE tag (0x30).
func ScanPEM(data []byte) *PEMScanResult {
	res := &PEMScanResult{}

	for _, m := range pemBlockPattern.FindAllSubmatch(data, -1) {
		beginLabel := string(m[1])
		endLabel := string(m[3])
		if beginLabel != endLabel {
			continue
		}
		payload := stripWhitespace(m[2])
		block := PEMBlock{Label: PEMLabel(beginLabel)}

		if len(payload) > 0 && len(payload)%4 == 0 && isBase64Alphabet(payload) {
			decoded, err := base64.StdEncoding.DecodeString(string(payload))
			if err == nil && len(decoded) > 0 && decoded[0] == 0x30 {
				block.DecodedOK = true
			}
		}
		block.Valid = block.DecodedOK
		res.Blocks = append(res.Blocks, block)

		if block.Valid {
			res.ValidCount++
			if block.Label == LabelCertificate {
				res.CertificateCount++
			}
		} else {
			res.InvalidCount++
		}
	}

	return res
}

// HasValidLabel reports whether res contains at least one structurally
// valid envelope with the given label.
func (res *PEMScanResult) HasValidLabel(label PEMLabel) bool {
	for _, b := range res.Blocks {
		if b.Valid && b.Label == label {
			return true
		}
	}
	return false
}

func stripWhitespace(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for _, c := range b {
		if c == '\r' || c == '\n' {
			continue
		}
		out = append(out, c)
	}
	return out
}

func isBase64Alphabet(b []byte) bool {
	for _, c := range b {
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '+', c == '/', c == '=':
			continue
		default:
			return false
		}
	}
	return true
}
